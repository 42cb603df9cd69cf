// Package tui is the terminal front end: a question form, the board with the
// typewriter reveal, narration, transport keys and a step scrubber.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tutorboard/internal/codec"
	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"
	"tutorboard/internal/typewriter"
	"tutorboard/pkg/format"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type focus int

const (
	focusPrompt focus = iota
	focusImage
	focusBoard
)

type snapshotMsg struct {
	snap engine.Snapshot
	ok   bool
}

type frameMsg typewriter.Frame

type meterMsg time.Time

type Options struct {
	TypewriterInterval time.Duration
	// DeckDir receives decks saved with the s key.
	DeckDir string
}

type Model struct {
	ctx     context.Context
	session *engine.Session
	snaps   <-chan engine.Snapshot
	unsub   func()
	runner  *typewriter.Runner
	opts    Options

	prompt textinput.Model
	image  textinput.Model
	focus  focus

	snap   engine.Snapshot
	board  string
	meter  []float64
	status string
	err    string

	width    int
	renderer *glamour.TermRenderer
}

func New(ctx context.Context, session *engine.Session, opts Options) *Model {
	p := textinput.New()
	p.Placeholder = "Ask a math or science question"
	p.CharLimit = 2000
	p.Focus()

	img := textinput.New()
	img.Placeholder = "optional image path"

	ch, unsub := session.Subscribe()
	m := &Model{
		ctx:     ctx,
		session: session,
		snaps:   ch,
		unsub:   unsub,
		runner:  typewriter.NewRunner(opts.TypewriterInterval),
		opts:    opts,
		prompt:  p,
		image:   img,
		width:   80,
		snap:    session.Snapshot(),
	}
	m.renderer = newRenderer(m.width)
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-6, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

func waitSnapshot(ch <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		return snapshotMsg{snap: s, ok: ok}
	}
}

func waitFrame(r *typewriter.Runner) tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-r.Frames())
	}
}

func meterTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return meterMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitSnapshot(m.snaps), waitFrame(m.runner), meterTick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.renderer = newRenderer(msg.Width)
		return m, nil

	case snapshotMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		m.applySnapshot(msg.snap)
		return m, waitSnapshot(m.snaps)

	case frameMsg:
		if cur, ok := m.snap.Current(); ok && msg.ID == (typewriter.Identity{Gen: m.snap.Generation, Index: cur.Index}) {
			m.board = msg.Text
		}
		return m, waitFrame(m.runner)

	case meterMsg:
		m.updateMeter(time.Time(msg))
		return m, meterTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySnapshot(s engine.Snapshot) {
	m.snap = s
	cur, ok := s.Current()
	if !ok || s.Phase == "loading" {
		m.runner.Stop()
		m.board = ""
		return
	}
	id := typewriter.Identity{Gen: s.Generation, Index: cur.Index}
	if s.AwaitingStart {
		m.runner.Hold(id, cur.BoardText)
		m.board = ""
		return
	}
	m.runner.Show(m.ctx, id, cur.BoardText, s.Playing && !s.Seeking)
}

func (m *Model) updateMeter(now time.Time) {
	m.meter = nil
	if !m.snap.Playing || m.snap.ClipStarted.IsZero() {
		return
	}
	buf := m.session.Buffer(m.snap.Index)
	if buf == nil {
		return
	}
	m.meter = codec.Spectrum(buf.Window(now.Sub(m.snap.ClipStarted), 1024), 24)
}

func (m *Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "ctrl+c":
		m.shutdown()
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	}

	if m.focus != focusBoard {
		if k.String() == "enter" {
			m.submit()
			return m, nil
		}
		if k.String() == "esc" {
			m.setFocus(focusBoard)
			return m, nil
		}
		var cmd tea.Cmd
		if m.focus == focusPrompt {
			m.prompt, cmd = m.prompt.Update(k)
		} else {
			m.image, cmd = m.image.Update(k)
		}
		return m, cmd
	}

	switch key := k.String(); key {
	case "q":
		m.shutdown()
		return m, tea.Quit
	case " ", "enter":
		m.session.Toggle()
	case "n", "right":
		m.session.Next()
	case "p", "left":
		m.session.Prev()
	case "v":
		m.cycleVoice()
	case "+", "=":
		m.session.SetVolume(m.snap.VolumeDB + 1)
	case "-":
		m.session.SetVolume(m.snap.VolumeDB - 1)
	case "s":
		m.save()
	case "esc", "/":
		m.setFocus(focusPrompt)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(m.snap.Steps) {
				m.session.Seek(i)
			}
		}
	}
	return m, nil
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.prompt.Blur()
	m.image.Blur()
	switch f {
	case focusPrompt:
		m.prompt.Focus()
	case focusImage:
		m.image.Focus()
	}
}

func (m *Model) submit() {
	text := strings.TrimSpace(m.prompt.Value())
	if text == "" {
		return
	}
	q := gateway.Question{Prompt: text}
	if path := strings.TrimSpace(m.image.Value()); path != "" {
		img, err := gateway.LoadImage(path)
		if err != nil {
			m.err = err.Error()
			return
		}
		q.Image = img
	}
	m.err = ""
	m.status = ""
	m.session.Submit(m.ctx, q)
	m.setFocus(focusBoard)
}

func (m *Model) cycleVoice() {
	next := format.Voices[0]
	for i, v := range format.Voices {
		if v == m.snap.Voice {
			next = format.Voices[(i+1)%len(format.Voices)]
		}
	}
	m.session.SetVoice(next)
	m.status = "voice " + next + " applies to the next question"
}

func (m *Model) save() {
	if len(m.snap.Steps) == 0 {
		return
	}
	dir := m.opts.DeckDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.err = err.Error()
		return
	}
	path := filepath.Join(dir, "lesson-"+time.Now().Format("20060102-150405")+".tbdeck")
	if err := m.session.SaveDeck(path, ""); err != nil {
		m.err = err.Error()
		return
	}
	m.status = "saved " + path
}

func (m *Model) shutdown() {
	m.runner.Stop()
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

func (m *Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("tutorboard") + " " + statusStyle.Render(fmt.Sprintf("%s · voice %s · %+.0f dB",
		m.snap.Phase, m.snap.Voice, m.snap.VolumeDB))
	b.WriteString(header + "\n\n")

	b.WriteString(labelStyle.Render("Question ") + m.prompt.View() + "\n")
	b.WriteString(labelStyle.Render("Image    ") + m.image.View() + "\n\n")

	b.WriteString(m.boardView())

	if m.err != "" {
		b.WriteString("\n" + errStyle.Render(m.err))
	} else if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	b.WriteString("\n" + helpStyle.Render("tab focus · enter ask · space play/pause · n/p step · 1-9 seek · v voice · +/- volume · s save · q quit"))
	return b.String()
}

func (m *Model) boardView() string {
	if m.snap.Phase == "loading" {
		return placeholder.Render("Working out the steps…") + "\n"
	}
	cur, ok := m.snap.Current()
	if !ok {
		return placeholder.Render("Ask a question to see a step-by-step explanation on the board.") + "\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("Step %d/%d  %s", cur.Index+1, len(m.snap.Steps), cur.Title)) + "\n")

	board := m.board
	if m.renderer != nil && board != "" {
		if out, err := m.renderer.Render(board); err == nil {
			board = strings.TrimRight(out, "\n")
		}
	}
	b.WriteString(boardStyle.Width(max(m.width-4, 20)).Render(board) + "\n")
	b.WriteString(narrationStyle.Render(cur.NarrationText) + "\n")
	b.WriteString(m.scrubber() + "  " + meterView(m.meter) + "\n")
	return b.String()
}

func (m *Model) scrubber() string {
	dots := make([]string, len(m.snap.Steps))
	for i, st := range m.snap.Steps {
		glyph := "○"
		if st.Audio == "ready" {
			glyph = "●"
		}
		if i == m.snap.Index {
			dots[i] = currentDot.Render("[" + glyph + "]")
		} else {
			dots[i] = statusStyle.Render(" " + glyph + " ")
		}
	}
	state := "❚❚"
	if m.snap.Playing {
		state = "▶"
	}
	return state + " " + lipgloss.JoinHorizontal(lipgloss.Top, dots...)
}

func meterView(bands []float64) string {
	if len(bands) == 0 {
		return ""
	}
	levels := make([]byte, len(bands))
	for i, v := range bands {
		levels[i] = byte(v * 255)
	}
	return statusStyle.Render(codec.Sparkline(levels))
}
