package sequencer

import "time"

// Event is an input to the Machine.
type Event interface{ isEvent() }

// Submitted starts a new generation; all previous steps are discarded.
type Submitted struct{ Gen string }

// StepsLoaded reports how many steps generation Gen produced.
type StepsLoaded struct {
	Gen   string
	Count int
}

// AudioReady reports that narration for a step has been decoded.
type AudioReady struct {
	Gen   string
	Index int
}

// AudioFailed reports that narration for a step will never arrive.
type AudioFailed struct {
	Gen   string
	Index int
}

// AudioFinished is sent when a clip started by StartAudio ends on its own.
type AudioFinished struct{ Cue uint64 }

// TimerFired is sent when a timer started by StartTimer elapses.
type TimerFired struct {
	Cue  uint64
	Kind TimerKind
}

type (
	Play   struct{}
	Pause  struct{}
	Toggle struct{}
	Next   struct{}
	Prev   struct{}
	Seek   struct{ Index int }
)

func (Submitted) isEvent()     {}
func (StepsLoaded) isEvent()   {}
func (AudioReady) isEvent()    {}
func (AudioFailed) isEvent()   {}
func (AudioFinished) isEvent() {}
func (TimerFired) isEvent()    {}
func (Play) isEvent()          {}
func (Pause) isEvent()         {}
func (Toggle) isEvent()        {}
func (Next) isEvent()          {}
func (Prev) isEvent()          {}
func (Seek) isEvent()          {}

// TimerKind distinguishes the two waits the sequencer schedules.
type TimerKind int

const (
	// AdvancePause runs after a clip ends naturally.
	AdvancePause TimerKind = iota
	// Fallback runs when a step has no audio to play.
	Fallback
)

func (k TimerKind) String() string {
	if k == Fallback {
		return "fallback"
	}
	return "audio_end"
}

// Effect is an instruction for the driver.
type Effect interface{ isEffect() }

// StopAudio stops whatever clip is playing. Errors are ignored.
type StopAudio struct{}

// StartAudio plays the clip of step Index. The driver reports the natural end
// with AudioFinished{Cue}.
type StartAudio struct {
	Index int
	Cue   uint64
}

// StartTimer schedules TimerFired{Cue, Kind} after the given delay.
type StartTimer struct {
	Kind  TimerKind
	Cue   uint64
	After time.Duration
}

// CancelTimer drops the pending timer, if any.
type CancelTimer struct{}

// Advanced is informational: playback moved on (or stopped at the end).
type Advanced struct {
	From, To int
	Reason   TimerKind
	Stopped  bool
}

func (StopAudio) isEffect()   {}
func (StartAudio) isEffect()  {}
func (StartTimer) isEffect()  {}
func (CancelTimer) isEffect() {}
func (Advanced) isEffect()    {}
