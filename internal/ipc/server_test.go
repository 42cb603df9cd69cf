package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tutorboard/internal/container"
	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"
	"tutorboard/internal/lesson"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepsOnly struct{}

func (stepsOnly) GenerateSteps(ctx context.Context, q gateway.Question) []lesson.Step {
	return []lesson.Step{
		{Title: "One", BoardText: "$$1$$", NarrationText: "one"},
		{Title: "Two", BoardText: "$$2$$", NarrationText: "two"},
	}
}

type client struct {
	c net.Conn
	r *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return &client{c: c, r: bufio.NewReader(c)}
}

// send writes a command and returns the first reply that is not an event.
func (cl *client) send(t *testing.T, line string) string {
	t.Helper()
	_, err := cl.c.Write([]byte(line + "\n"))
	require.NoError(t, err)
	cl.c.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		s, err := cl.r.ReadString('\n')
		require.NoError(t, err)
		s = strings.TrimSpace(s)
		if !strings.HasPrefix(s, "EVENT ") {
			return s
		}
	}
}

func startServer(t *testing.T) (*engine.Session, string) {
	t.Helper()
	session := engine.New(engine.DefaultConfig(), engine.Deps{Source: stepsOnly{}, Logger: zerolog.Nop()})
	t.Cleanup(session.Close)

	ln, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go New(session, "TB-Server", zerolog.Nop()).Serve(ctx, ln)
	return session, ln.Addr().String()
}

func TestReadOnlyCommands(t *testing.T) {
	_, addr := startServer(t)
	cl := dial(t, addr)

	assert.Equal(t, "Pong", cl.send(t, "PING"))
	assert.Contains(t, cl.send(t, "about"), "TB-Server")
	assert.Equal(t, "OBSERVER", cl.send(t, "WHOAMI"))
	assert.Equal(t, "NO STEPS YET", cl.send(t, "STEPS"))

	var voices []string
	require.NoError(t, json.Unmarshal([]byte(cl.send(t, "VOICES")), &voices))
	assert.Contains(t, voices, "Kore")

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(cl.send(t, "STATUS")), &status))
	assert.Equal(t, "idle", status["phase"])
}

func TestOwnershipAndControl(t *testing.T) {
	session, addr := startServer(t)
	owner := dial(t, addr)
	other := dial(t, addr)

	reply := owner.send(t, "SUBMIT what is 1+1")
	assert.True(t, strings.HasPrefix(reply, "OK "))
	assert.Equal(t, "OWNER", owner.send(t, "WHOAMI"))
	assert.Equal(t, "ERR CONTROL_LOCKED", other.send(t, "PLAY"))

	require.Eventually(t, func() bool { return len(session.Snapshot().Steps) == 2 }, 2*time.Second, time.Millisecond)

	assert.Equal(t, "OK", owner.send(t, "SEEK 1"))
	assert.Equal(t, 1, session.Snapshot().Index)
	assert.Equal(t, "ERR STEP_RANGE", owner.send(t, "SEEK 9"))
	assert.Equal(t, "ERR ARG", owner.send(t, "SEEK x"))
	assert.Equal(t, "OK Puck", owner.send(t, "VOICE Puck"))
	assert.Equal(t, "OK", owner.send(t, "SET-VOL -3"))
	assert.Equal(t, -3.0, session.Snapshot().VolumeDB)
	assert.Equal(t, "ERR UNKNOWN", owner.send(t, "DANCE"))
	assert.Equal(t, "ERR IMAGE", owner.send(t, "IMAGE /nonexistent.png"))

	path := filepath.Join(t.TempDir(), "lesson.tbdeck")
	assert.Equal(t, "Saved", owner.send(t, "SAVE "+path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	vol, err := container.Unpack(f)
	require.NoError(t, err)
	assert.Len(t, vol.Steps, 2)
	assert.Equal(t, "what is 1+1", vol.Title)
}

func TestOwnerReceivesEvents(t *testing.T) {
	_, addr := startServer(t)
	owner := dial(t, addr)
	_, err := owner.c.Write([]byte("NEXT\n"))
	require.NoError(t, err)

	owner.c.SetReadDeadline(time.Now().Add(2 * time.Second))
	sawEvent := false
	for i := 0; i < 4 && !sawEvent; i++ {
		line, err := owner.r.ReadString('\n')
		require.NoError(t, err)
		sawEvent = strings.HasPrefix(line, `EVENT {"type":"STATE"`)
	}
	assert.True(t, sawEvent)
}

func TestOwnershipReleasedOnDisconnect(t *testing.T) {
	_, addr := startServer(t)
	first := dial(t, addr)
	assert.Equal(t, "OK", first.send(t, "PAUSE"))
	first.c.Close()

	second := dial(t, addr)
	require.Eventually(t, func() bool { return second.send(t, "PLAY") == "OK" }, 2*time.Second, 10*time.Millisecond)
}
