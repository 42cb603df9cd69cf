// Package sequencer decides which step is current, whether playback is active
// and when to move on. It is a pure state machine: callers feed it events and
// carry out the effects it returns.
package sequencer

import "time"

type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Playing
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

type Config struct {
	AdvancePause    time.Duration
	FallbackTimeout time.Duration
	// AwaitFirstAudio holds playback after the steps load until the current
	// step's narration is resolved (decoded or failed).
	AwaitFirstAudio bool
}

// State is a copy of the machine's observable state.
type State struct {
	Phase         Phase
	Gen           string
	Count         int
	Index         int
	Playing       bool
	Seeking       bool
	AwaitingStart bool
	Cue           uint64
}

type audioState int

const (
	audioPending audioState = iota
	audioReady
	audioMissing
)

type wait int

const (
	waitNone wait = iota
	waitAudio
	waitPause
	waitFallback
)

type Machine struct {
	cfg Config

	gen           string
	loading       bool
	count         int
	index         int
	playing       bool
	seeking       bool
	awaitingStart bool

	audio map[int]audioState
	cue   uint64
	wait  wait
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, audio: map[int]audioState{}}
}

func (m *Machine) State() State {
	return State{
		Phase:         m.phase(),
		Gen:           m.gen,
		Count:         m.count,
		Index:         m.index,
		Playing:       m.playing,
		Seeking:       m.seeking,
		AwaitingStart: m.awaitingStart,
		Cue:           m.cue,
	}
}

func (m *Machine) phase() Phase {
	switch {
	case m.loading:
		return Loading
	case m.count == 0:
		return Idle
	case m.playing:
		return Playing
	default:
		return Ready
	}
}

// Apply consumes one event and returns the effects to perform, in order.
func (m *Machine) Apply(ev Event) []Effect {
	switch e := ev.(type) {
	case Submitted:
		m.gen = e.Gen
		m.loading = true
		m.count = 0
		m.index = 0
		m.playing = false
		m.seeking = false
		m.awaitingStart = false
		m.audio = map[int]audioState{}
		return m.halt()

	case StepsLoaded:
		if e.Gen != m.gen || !m.loading {
			return nil
		}
		m.loading = false
		m.count = e.Count
		m.index = 0
		if m.count <= 0 {
			m.count = 0
			return nil
		}
		if m.cfg.AwaitFirstAudio && m.audio[0] == audioPending {
			m.awaitingStart = true
			return nil
		}
		m.playing = true
		return m.cueCurrent()

	case AudioReady:
		return m.resolve(e.Gen, e.Index, audioReady)

	case AudioFailed:
		return m.resolve(e.Gen, e.Index, audioMissing)

	case AudioFinished:
		if e.Cue != m.cue || m.wait != waitAudio {
			return nil
		}
		m.cue++
		m.wait = waitPause
		return []Effect{StartTimer{Kind: AdvancePause, Cue: m.cue, After: m.cfg.AdvancePause}}

	case TimerFired:
		if e.Cue != m.cue {
			return nil
		}
		if (e.Kind == AdvancePause && m.wait == waitPause) || (e.Kind == Fallback && m.wait == waitFallback) {
			return m.advance(e.Kind)
		}
		return nil

	case Play:
		if m.count == 0 || m.playing {
			return nil
		}
		m.awaitingStart = false
		m.playing = true
		m.seeking = false
		return m.cueCurrent()

	case Pause:
		if !m.playing && !m.awaitingStart {
			return nil
		}
		m.playing = false
		m.awaitingStart = false
		return m.halt()

	case Toggle:
		if m.playing || m.awaitingStart {
			return m.Apply(Pause{})
		}
		return m.Apply(Play{})

	case Next:
		return m.step(m.index + 1)

	case Prev:
		return m.step(m.index - 1)

	case Seek:
		if m.count == 0 {
			return nil
		}
		m.index = m.clamp(e.Index)
		m.seeking = true
		// The awaited step may already be resolved; no later event names it.
		if m.awaitingStart && m.audio[m.index] != audioPending {
			m.awaitingStart = false
			m.playing = true
		}
		if m.playing {
			return m.cueCurrent()
		}
		return m.halt()
	}
	return nil
}

func (m *Machine) step(to int) []Effect {
	if m.count == 0 {
		return nil
	}
	m.index = m.clamp(to)
	m.playing = true
	m.seeking = false
	m.awaitingStart = false
	return m.cueCurrent()
}

func (m *Machine) resolve(gen string, index int, st audioState) []Effect {
	if gen != m.gen || index < 0 {
		return nil
	}
	if !m.loading && index >= m.count {
		return nil
	}
	m.audio[index] = st

	if m.awaitingStart && index == m.index {
		m.awaitingStart = false
		m.playing = true
		return m.cueCurrent()
	}
	// Audio for the step we are waiting on replaces the fallback wait.
	if st == audioReady && m.playing && index == m.index && m.wait == waitFallback {
		return m.cueCurrent()
	}
	return nil
}

func (m *Machine) advance(reason TimerKind) []Effect {
	from := m.index
	if m.index < m.count-1 {
		m.index++
		m.seeking = false
		effs := m.cueCurrent()
		return append(effs, Advanced{From: from, To: m.index, Reason: reason})
	}
	m.playing = false
	effs := m.halt()
	return append(effs, Advanced{From: from, To: m.index, Reason: reason, Stopped: true})
}

// cueCurrent stops the previous clip and timer, then starts whatever the
// current step needs.
func (m *Machine) cueCurrent() []Effect {
	effs := m.halt()
	if !m.playing || m.count == 0 {
		return effs
	}
	if m.audio[m.index] == audioReady {
		m.wait = waitAudio
		return append(effs, StartAudio{Index: m.index, Cue: m.cue})
	}
	m.wait = waitFallback
	return append(effs, StartTimer{Kind: Fallback, Cue: m.cue, After: m.cfg.FallbackTimeout})
}

// halt invalidates every outstanding cue.
func (m *Machine) halt() []Effect {
	m.cue++
	m.wait = waitNone
	return []Effect{StopAudio{}, CancelTimer{}}
}

func (m *Machine) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > m.count-1 {
		return m.count - 1
	}
	return i
}
