// Package lesson holds the steps produced by one submission and the audio that
// arrives for them afterwards.
package lesson

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tutorboard/pkg/audioengine"
	"tutorboard/pkg/format"
)

var (
	ErrStaleGeneration = errors.New("lesson generation was replaced")
	ErrIndexRange      = errors.New("step index out of range")
)

// Step is one unit of an explanation.
type Step struct {
	Title         string `json:"title"`
	BoardText     string `json:"boardText"`
	NarrationText string `json:"narrationText"`
}

// ErrorStep is substituted for the whole sequence when generation fails.
func ErrorStep() Step {
	return Step{
		Title:         format.ErrorTitle,
		BoardText:     format.ErrorMessage,
		NarrationText: format.ErrorMessage,
	}
}

// AudioStatus tracks the enrichment state of one step.
type AudioStatus int

const (
	AudioPending AudioStatus = iota
	AudioReady
	AudioMissing
)

func (s AudioStatus) String() string {
	switch s {
	case AudioReady:
		return "ready"
	case AudioMissing:
		return "missing"
	default:
		return "pending"
	}
}

// Enrichment is the data attached to a step after creation.
type Enrichment struct {
	Status  AudioStatus
	Audio   *audioengine.Buffer
	Payload string // encoded form as delivered by the speech gateway
}

// StepView is a read-only copy of a step and its enrichment.
type StepView struct {
	Index int
	Step
	Audio   *audioengine.Buffer
	Status  AudioStatus
	Payload string
}

// Lesson owns the steps of a single generation. Only enrichment changes after
// the steps are set.
type Lesson struct {
	mu       sync.RWMutex
	gen      string
	question string
	voice    string
	steps    []Step
	enrich   map[int]Enrichment
}

func New() *Lesson {
	return &Lesson{enrich: map[int]Enrichment{}}
}

// Begin starts a new generation narrated with voice, discarding the previous
// steps wholesale.
func (l *Lesson) Begin(question, voice string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen = uuid.NewString()
	l.question = question
	l.voice = voice
	l.steps = nil
	l.enrich = map[int]Enrichment{}
	return l.gen
}

// SetSteps installs the generated steps for gen.
func (l *Lesson) SetSteps(gen string, steps []Step) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return ErrStaleGeneration
	}
	l.steps = append([]Step(nil), steps...)
	l.enrich = make(map[int]Enrichment, len(steps))
	return nil
}

// SetAudio attaches decoded audio to a step of generation gen.
func (l *Lesson) SetAudio(gen string, index int, buf *audioengine.Buffer, payload string) error {
	return l.update(gen, index, Enrichment{Status: AudioReady, Audio: buf, Payload: payload})
}

// MarkMissing records that narration for a step will never arrive.
func (l *Lesson) MarkMissing(gen string, index int) error {
	return l.update(gen, index, Enrichment{Status: AudioMissing})
}

func (l *Lesson) update(gen string, index int, e Enrichment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return ErrStaleGeneration
	}
	if index < 0 || index >= len(l.steps) {
		return errors.Wrapf(ErrIndexRange, "index %d of %d", index, len(l.steps))
	}
	l.enrich[index] = e
	return nil
}

func (l *Lesson) Generation() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gen
}

func (l *Lesson) Question() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.question
}

// Voice is the preset the current generation was narrated with.
func (l *Lesson) Voice() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.voice
}

func (l *Lesson) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.steps)
}

// Step returns a copy of one step.
func (l *Lesson) Step(index int) (StepView, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.steps) {
		return StepView{}, false
	}
	return l.viewLocked(index), true
}

// Snapshot copies every step with its enrichment.
func (l *Lesson) Snapshot() []StepView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]StepView, len(l.steps))
	for i := range l.steps {
		out[i] = l.viewLocked(i)
	}
	return out
}

func (l *Lesson) viewLocked(i int) StepView {
	e := l.enrich[i]
	return StepView{
		Index:   i,
		Step:    l.steps[i],
		Audio:   e.Audio,
		Status:  e.Status,
		Payload: e.Payload,
	}
}
