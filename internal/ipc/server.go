// Package ipc serves the line protocol used by tb-client and scripts. Any
// connection may query; the first connection to send a control command owns
// the session until it disconnects.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Server struct {
	session *engine.Session
	log     zerolog.Logger
	name    string

	mu      sync.Mutex
	owner   *conn
	pending *gateway.Image
	unsub   func()
}

func New(session *engine.Session, name string, log zerolog.Logger) *Server {
	return &Server{
		session: session,
		name:    name,
		log:     log.With().Str("component", "ipc").Logger(),
	}
}

// conn serializes writes from the handler and the event pump.
type conn struct {
	net.Conn
	wmu sync.Mutex
}

func (c *conn) writeLine(s string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.Write([]byte(s + "\n"))
	return err
}

// Listen opens network/address, removing a stale unix socket first.
func Listen(network, address string) (net.Listener, error) {
	if network == "unix" {
		_ = os.Remove(address)
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s %s", network, address)
	}
	return ln, nil
}

// Serve accepts connections until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("ipc listening")

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("accept")
			continue
		}
		go s.handle(ctx, &conn{Conn: c})
	}
}

func (s *Server) isOwner(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == c
}

func (s *Server) claimOwner(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == nil {
		s.owner = c
		s.startEvents(c)
		return true
	}
	return s.owner == c
}

// startEvents pumps session snapshots to the owner. Caller holds s.mu.
func (s *Server) startEvents(c *conn) {
	ch, unsub := s.session.Subscribe()
	s.unsub = unsub
	go func() {
		for snap := range ch {
			ev := struct {
				Type string `json:"type"`
				engine.Snapshot
			}{"STATE", snap}
			b, _ := json.Marshal(ev)
			if err := c.writeLine("EVENT " + string(b)); err != nil {
				s.releaseOwner(c)
				return
			}
		}
	}()
}

func (s *Server) releaseOwner(c *conn) {
	s.mu.Lock()
	if s.owner != c {
		s.mu.Unlock()
		return
	}
	s.owner = nil
	s.pending = nil
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.session.Pause()
	s.log.Debug().Str("remote", c.RemoteAddr().String()).Msg("owner released")
}

func argInt(arg string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	return v, err == nil
}

func argFloat(arg string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	return v, err == nil
}

func (s *Server) handle(ctx context.Context, c *conn) {
	defer func() {
		s.releaseOwner(c)
		c.Close()
	}()

	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToUpper(parts[0])
		arg := ""
		if len(parts) == 2 {
			arg = strings.TrimSpace(parts[1])
		}

		if reply, ok := s.query(c, cmd); ok {
			c.writeLine(reply)
			continue
		}

		if !controls[cmd] {
			c.writeLine("ERR UNKNOWN")
			continue
		}
		if !s.claimOwner(c) {
			c.writeLine("ERR CONTROL_LOCKED")
			continue
		}
		c.writeLine(s.control(ctx, cmd, arg))
	}
}

// query answers read-only commands.
func (s *Server) query(c *conn, cmd string) (string, bool) {
	switch cmd {
	case "ABOUT":
		return fmt.Sprintf("%s V.%s", s.name, format.Version), true
	case "PING":
		return "Pong", true
	case "WHOAMI":
		if s.isOwner(c) {
			return "OWNER", true
		}
		return "OBSERVER", true
	case "STATUS":
		snap := s.session.Snapshot()
		snap.Steps = nil
		return mustJSON(snap), true
	case "STEPS":
		steps := s.session.Snapshot().Steps
		if len(steps) == 0 {
			return "NO STEPS YET", true
		}
		return mustJSON(steps), true
	case "VOICES":
		return mustJSON(format.Voices), true
	}
	return "", false
}

var controls = map[string]bool{
	"SUBMIT": true, "IMAGE": true, "VOICE": true, "PLAY": true, "PAUSE": true,
	"TOGGLE": true, "NEXT": true, "PREV": true, "SEEK": true, "SET-VOL": true, "SAVE": true,
}

func (s *Server) control(ctx context.Context, cmd, arg string) string {
	switch cmd {
	case "SUBMIT":
		if arg == "" {
			return "ERR ARG"
		}
		s.mu.Lock()
		img := s.pending
		s.pending = nil
		s.mu.Unlock()
		gen := s.session.Submit(ctx, gateway.Question{Prompt: arg, Image: img})
		return "OK " + gen

	case "IMAGE":
		if arg == "" || arg == "-" {
			s.mu.Lock()
			s.pending = nil
			s.mu.Unlock()
			return "OK"
		}
		img, err := gateway.LoadImage(arg)
		if err != nil {
			s.log.Warn().Err(err).Str("path", arg).Msg("image rejected")
			return "ERR IMAGE"
		}
		s.mu.Lock()
		s.pending = img
		s.mu.Unlock()
		return fmt.Sprintf("OK %d", len(img.Data))

	case "VOICE":
		return "OK " + s.session.SetVoice(arg)

	case "PLAY":
		s.session.Play()
	case "PAUSE":
		s.session.Pause()
	case "TOGGLE":
		s.session.Toggle()
	case "NEXT":
		s.session.Next()
	case "PREV":
		s.session.Prev()

	case "SEEK":
		n, ok := argInt(arg)
		if !ok {
			return "ERR ARG"
		}
		if n < 0 || n >= len(s.session.Snapshot().Steps) {
			return "ERR STEP_RANGE"
		}
		s.session.Seek(n)

	case "SET-VOL":
		db, ok := argFloat(arg)
		if !ok {
			return "ERR ARG"
		}
		s.session.SetVolume(db)

	case "SAVE":
		if arg == "" {
			return "ERR ARG"
		}
		if err := s.session.SaveDeck(arg, ""); err != nil {
			s.log.Error().Err(err).Str("path", arg).Msg("save failed")
			return "ERR SAVE"
		}
		return "Saved"

	default:
		return "ERR UNKNOWN"
	}
	return "OK"
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "ERR INTERNAL"
	}
	return string(b)
}
