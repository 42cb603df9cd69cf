// Package engine runs a tutoring session: it owns the lesson, the sequencer,
// the audio player and the timers, and processes every change on one goroutine.
package engine

import (
	"context"
	"sync"
	"time"

	"tutorboard/internal/gateway"
	"tutorboard/internal/lesson"
	"tutorboard/internal/metrics"
	"tutorboard/internal/player"
	"tutorboard/internal/sequencer"
	"tutorboard/pkg/audioengine"
	"tutorboard/pkg/format"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StepSource produces the steps for a question. It never fails.
type StepSource interface {
	GenerateSteps(ctx context.Context, q gateway.Question) []lesson.Step
}

// Narrator produces a base64 PCM payload for narration text.
type Narrator interface {
	Narrate(ctx context.Context, text, voice string) (string, bool)
}

type Config struct {
	AdvancePause    time.Duration
	FallbackTimeout time.Duration
	AwaitFirstAudio bool
	Workers         int
	Voice           string
	VolumeDB        float64
}

func DefaultConfig() Config {
	return Config{
		AdvancePause:    format.AdvancePause,
		FallbackTimeout: format.FallbackTimeout,
		AwaitFirstAudio: true,
		Workers:         3,
		Voice:           format.DefaultVoice,
	}
}

type Deps struct {
	Source   StepSource
	Narrator Narrator
	Player   player.Player
	Clock    Clock
	Logger   zerolog.Logger
}

type op struct {
	f    func()
	done chan struct{}
}

type Session struct {
	cfg      Config
	log      zerolog.Logger
	source   StepSource
	narrator Narrator
	player   player.Player
	clock    Clock

	lesson  *lesson.Lesson
	machine *sequencer.Machine

	// owned by the loop goroutine
	handle       player.Handle
	timer        Timer
	clipStarted  time.Time
	cancelSubmit context.CancelFunc
	voice        string
	volumeDB     float64

	ops  chan op
	quit chan struct{}
	wg   sync.WaitGroup

	snapMu sync.RWMutex
	snap   Snapshot

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	closeOnce sync.Once
}

// New starts the session loop. Close must be called to release it.
func New(cfg Config, deps Deps) *Session {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if deps.Clock == nil {
		deps.Clock = realClock{}
	}
	if deps.Player == nil {
		deps.Player = player.Silent{}
	}
	s := &Session{
		cfg:      cfg,
		log:      deps.Logger.With().Str("component", "engine").Logger(),
		source:   deps.Source,
		narrator: deps.Narrator,
		player:   deps.Player,
		clock:    deps.Clock,
		lesson:   lesson.New(),
		machine: sequencer.New(sequencer.Config{
			AdvancePause:    cfg.AdvancePause,
			FallbackTimeout: cfg.FallbackTimeout,
			AwaitFirstAudio: cfg.AwaitFirstAudio,
		}),
		voice:    format.VoiceOrDefault(cfg.Voice),
		volumeDB: cfg.VolumeDB,
		ops:      make(chan op, 64),
		quit:     make(chan struct{}),
		subs:     map[int]chan Snapshot{},
	}
	s.player.SetVolume(s.volumeDB)
	s.publish()
	go s.loop()
	return s
}

func (s *Session) loop() {
	for {
		select {
		case o := <-s.ops:
			o.f()
			if o.done != nil {
				close(o.done)
			}
		case <-s.quit:
			return
		}
	}
}

// do runs f on the loop and waits for it.
func (s *Session) do(f func()) bool {
	o := op{f: f, done: make(chan struct{})}
	select {
	case s.ops <- o:
	case <-s.quit:
		return false
	}
	select {
	case <-o.done:
		return true
	case <-s.quit:
		return false
	}
}

// post queues an event from a callback goroutine.
func (s *Session) post(ev sequencer.Event) {
	select {
	case s.ops <- op{f: func() { s.apply(ev) }}:
	case <-s.quit:
	}
}

// apply feeds the machine and performs its effects. Loop goroutine only.
func (s *Session) apply(ev sequencer.Event) {
	for _, eff := range s.machine.Apply(ev) {
		switch e := eff.(type) {
		case sequencer.StopAudio:
			if s.handle != nil {
				s.handle.Stop()
				s.handle = nil
			}
			s.clipStarted = time.Time{}
		case sequencer.CancelTimer:
			if s.timer != nil {
				s.timer.Stop()
				s.timer = nil
			}
		case sequencer.StartAudio:
			s.startAudio(e)
		case sequencer.StartTimer:
			s.timer = s.clock.AfterFunc(e.After, func() {
				s.post(sequencer.TimerFired{Cue: e.Cue, Kind: e.Kind})
			})
		case sequencer.Advanced:
			metrics.Advances.WithLabelValues(e.Reason.String()).Inc()
			s.log.Debug().Int("from", e.From).Int("to", e.To).Bool("stopped", e.Stopped).
				Str("reason", e.Reason.String()).Msg("advance")
		}
	}
	s.publish()
}

func (s *Session) startAudio(e sequencer.StartAudio) {
	view, ok := s.lesson.Step(e.Index)
	if !ok || view.Audio == nil {
		s.log.Warn().Int("index", e.Index).Msg("audio vanished before playback")
		go s.post(sequencer.AudioFinished{Cue: e.Cue})
		return
	}
	cue := e.Cue
	s.handle = s.player.Play(view.Audio, func() {
		s.post(sequencer.AudioFinished{Cue: cue})
	})
	s.clipStarted = time.Now()
}

// Submit starts a new lesson, abandoning the one in flight. It returns the
// generation id.
func (s *Session) Submit(ctx context.Context, q gateway.Question) string {
	var gen string
	s.do(func() {
		if s.cancelSubmit != nil {
			s.cancelSubmit()
		}
		gen = s.lesson.Begin(q.Prompt, s.voice)
		runCtx, cancel := context.WithCancel(ctx)
		s.cancelSubmit = cancel
		s.apply(sequencer.Submitted{Gen: gen})

		s.log.Info().Str("gen", gen).Bool("image", q.Image != nil).Msg("submitted")
		s.wg.Add(1)
		go s.generate(runCtx, gen, q, s.voice)
	})
	return gen
}

func (s *Session) generate(ctx context.Context, gen string, q gateway.Question, voice string) {
	defer s.wg.Done()

	steps := s.source.GenerateSteps(ctx, q)
	if ctx.Err() != nil {
		return
	}

	loaded := false
	s.do(func() {
		if err := s.lesson.SetSteps(gen, steps); err != nil {
			return
		}
		loaded = true
		s.apply(sequencer.StepsLoaded{Gen: gen, Count: len(steps)})
		if s.narrator != nil {
			return
		}
		// Without a narrator every step runs on the fallback timer.
		for i := range steps {
			if s.lesson.MarkMissing(gen, i) == nil {
				s.apply(sequencer.AudioFailed{Gen: gen, Index: i})
			}
		}
	})
	if !loaded || len(steps) == 0 || s.narrator == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, st := range steps {
		g.Go(func() error {
			s.narrate(gctx, gen, i, st.NarrationText, voice)
			return nil
		})
	}
	g.Wait()
}

func (s *Session) narrate(ctx context.Context, gen string, index int, text, voice string) {
	payload, ok := s.narrator.Narrate(ctx, text, voice)
	if ctx.Err() != nil {
		return
	}

	var buf *audioengine.Buffer
	if ok {
		var err error
		buf, err = audioengine.DecodeBase64PCM(payload, format.SampleRate, format.Channels)
		if err != nil {
			s.log.Warn().Err(err).Int("index", index).Msg("narration payload rejected")
			ok = false
		}
	}

	s.do(func() {
		if ok {
			if s.lesson.SetAudio(gen, index, buf, payload) == nil {
				s.apply(sequencer.AudioReady{Gen: gen, Index: index})
			}
			return
		}
		if s.lesson.MarkMissing(gen, index) == nil {
			s.apply(sequencer.AudioFailed{Gen: gen, Index: index})
		}
	})
}

// LoadLesson replaces the current lesson with saved steps. buffers[i] may be
// nil for steps without narration.
func (s *Session) LoadLesson(title string, steps []lesson.Step, buffers []*audioengine.Buffer) string {
	var gen string
	s.do(func() {
		if s.cancelSubmit != nil {
			s.cancelSubmit()
			s.cancelSubmit = nil
		}
		gen = s.lesson.Begin(title, s.voice)
		s.apply(sequencer.Submitted{Gen: gen})
		if err := s.lesson.SetSteps(gen, steps); err != nil {
			return
		}
		s.apply(sequencer.StepsLoaded{Gen: gen, Count: len(steps)})
		for i := range steps {
			if i < len(buffers) && buffers[i] != nil {
				s.lesson.SetAudio(gen, i, buffers[i], audioengine.EncodeBase64PCM(buffers[i]))
				s.apply(sequencer.AudioReady{Gen: gen, Index: i})
				continue
			}
			s.lesson.MarkMissing(gen, i)
			s.apply(sequencer.AudioFailed{Gen: gen, Index: i})
		}
	})
	return gen
}

func (s *Session) Play() { s.do(func() { s.apply(sequencer.Play{}) }) }
func (s *Session) Pause() { s.do(func() { s.apply(sequencer.Pause{}) }) }
func (s *Session) Toggle() { s.do(func() { s.apply(sequencer.Toggle{}) }) }
func (s *Session) Next() { s.do(func() { s.apply(sequencer.Next{}) }) }
func (s *Session) Prev() { s.do(func() { s.apply(sequencer.Prev{}) }) }
func (s *Session) Seek(i int) { s.do(func() { s.apply(sequencer.Seek{Index: i}) }) }

// SetVoice selects the preset for the next submission. Unknown names fall
// back to the default.
func (s *Session) SetVoice(name string) string {
	v := format.VoiceOrDefault(name)
	s.do(func() {
		s.voice = v
		s.publish()
	})
	return v
}

func (s *Session) SetVolume(db float64) {
	s.do(func() {
		s.volumeDB = db
		s.player.SetVolume(db)
		s.publish()
	})
}

// Buffer returns the decoded narration of step i, nil when absent.
func (s *Session) Buffer(i int) *audioengine.Buffer {
	v, ok := s.lesson.Step(i)
	if !ok {
		return nil
	}
	return v.Audio
}

// Payload returns the narration payload of step i as delivered by the gateway.
func (s *Session) Payload(i int) (string, bool) {
	v, ok := s.lesson.Step(i)
	if !ok || v.Status != lesson.AudioReady {
		return "", false
	}
	return v.Payload, true
}

func (s *Session) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap
}

// Subscribe delivers snapshots after every change. A slow reader only sees
// the latest one. Call the returned func to unsubscribe. After Close the
// channel holds the final snapshot and is already closed.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	ch <- s.Snapshot()

	s.subMu.Lock()
	select {
	case <-s.quit:
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.subMu.Unlock()
	}
}

func (s *Session) publish() {
	snap := buildSnapshot(s.machine.State(), s.lesson.Snapshot(), s.lesson.Question(), s.voice, s.volumeDB, s.clipStarted)

	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()

	s.subMu.Lock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	s.subMu.Unlock()
}

// Close stops playback, abandons in-flight work and ends every subscription.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.do(func() {
			if s.cancelSubmit != nil {
				s.cancelSubmit()
			}
			if s.handle != nil {
				s.handle.Stop()
				s.handle = nil
			}
			if s.timer != nil {
				s.timer.Stop()
				s.timer = nil
			}
		})
		close(s.quit)
		s.wg.Wait()

		s.subMu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.subMu.Unlock()
	})
}
