// Package web exposes a session to browsers over a websocket, plus
// Prometheus metrics and a health check.
package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"tutorboard/internal/codec"
	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Message is sent to browsers.
type Message struct {
	Type       string           `json:"type"`
	Snapshot   *engine.Snapshot `json:"snapshot,omitempty"`
	Generation string           `json:"generation,omitempty"`
	Index      int              `json:"index"`
	Payload    string           `json:"payload,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Command is received from browsers.
type Command struct {
	Cmd      string  `json:"cmd"`
	Prompt   string  `json:"prompt,omitempty"`
	Image    string  `json:"image,omitempty"` // base64
	Index    int     `json:"index,omitempty"`
	Voice    string  `json:"voice,omitempty"`
	VolumeDB float64 `json:"volumeDb,omitempty"`
}

type Server struct {
	session  *engine.Session
	pool     *ConnectionPool
	upgrader websocket.Upgrader
	log      zerolog.Logger
	ctx      context.Context

	// audio already broadcast for the current generation
	sentGen string
	sent    map[int]bool
}

func New(ctx context.Context, session *engine.Session, log zerolog.Logger) *Server {
	l := log.With().Str("component", "web").Logger()
	return &Server{
		session: session,
		pool:    NewConnectionPool(l),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:  l,
		ctx:  ctx,
		sent: map[int]bool{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Run forwards session changes to every browser until ctx ends.
func (s *Server) Run(ctx context.Context) {
	ch, unsub := s.session.Subscribe()
	defer unsub()
	defer s.pool.CloseAll()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			s.broadcast(snap)
		}
	}
}

func (s *Server) broadcast(snap engine.Snapshot) {
	s.pool.Broadcast(encode(Message{Type: "snapshot", Snapshot: &snap}))

	if snap.Generation != s.sentGen {
		s.sentGen = snap.Generation
		s.sent = map[int]bool{}
	}
	for _, st := range snap.Steps {
		if st.Audio != "ready" || s.sent[st.Index] {
			continue
		}
		payload, ok := s.session.Payload(st.Index)
		if !ok {
			continue
		}
		s.sent[st.Index] = true
		s.pool.Broadcast(encode(Message{Type: "audio", Generation: snap.Generation, Index: st.Index, Payload: payload}))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	s.pool.Add(conn)
	defer s.pool.Remove(conn)

	snap := s.session.Snapshot()
	s.pool.SendToOne(conn, encode(Message{Type: "snapshot", Snapshot: &snap}))
	for _, st := range snap.Steps {
		if payload, ok := s.session.Payload(st.Index); ok {
			s.pool.SendToOne(conn, encode(Message{Type: "audio", Generation: snap.Generation, Index: st.Index, Payload: payload}))
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.pool.SendToOne(conn, encode(Message{Type: "error", Error: "bad command"}))
			continue
		}
		if msg := s.dispatch(cmd); msg != "" {
			s.pool.SendToOne(conn, encode(Message{Type: "error", Error: msg}))
		}
	}
}

// dispatch applies a command and returns an error text for the client.
func (s *Server) dispatch(cmd Command) string {
	switch cmd.Cmd {
	case "submit":
		if cmd.Prompt == "" {
			return "empty prompt"
		}
		q := gateway.Question{Prompt: cmd.Prompt}
		if cmd.Image != "" {
			raw, err := base64.StdEncoding.DecodeString(cmd.Image)
			if err != nil {
				return "bad image encoding"
			}
			data, mime, err := codec.PrepareAttachment(bytes.NewReader(raw))
			if err != nil {
				return "unsupported image"
			}
			q.Image = &gateway.Image{Data: data, MIMEType: mime}
		}
		s.session.Submit(s.ctx, q)
	case "play":
		s.session.Play()
	case "pause":
		s.session.Pause()
	case "toggle":
		s.session.Toggle()
	case "next":
		s.session.Next()
	case "prev":
		s.session.Prev()
	case "seek":
		s.session.Seek(cmd.Index)
	case "voice":
		s.session.SetVoice(cmd.Voice)
	case "volume":
		s.session.SetVolume(cmd.VolumeDB)
	default:
		return "unknown command"
	}
	return ""
}

func encode(m Message) []byte {
	b, _ := json.Marshal(m)
	return b
}
