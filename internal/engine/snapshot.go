package engine

import (
	"time"

	"tutorboard/internal/lesson"
	"tutorboard/internal/sequencer"
)

// StepSnapshot is one step as front ends see it.
type StepSnapshot struct {
	Index         int     `json:"index"`
	Title         string  `json:"title"`
	BoardText     string  `json:"boardText"`
	NarrationText string  `json:"narrationText"`
	Audio         string  `json:"audio"`
	Duration      float64 `json:"duration"`
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Phase         string         `json:"phase"`
	Generation    string         `json:"generation"`
	Question      string         `json:"question"`
	Index         int            `json:"index"`
	Playing       bool           `json:"playing"`
	Seeking       bool           `json:"seeking"`
	AwaitingStart bool           `json:"awaitingStart"`
	Voice         string         `json:"voice"`
	VolumeDB      float64        `json:"volumeDb"`
	Steps         []StepSnapshot `json:"steps"`

	// ClipStarted is when the current step's audio began, zero when silent.
	ClipStarted time.Time `json:"-"`
}

// Current returns the step at Index, if any.
func (s Snapshot) Current() (StepSnapshot, bool) {
	if s.Index < 0 || s.Index >= len(s.Steps) {
		return StepSnapshot{}, false
	}
	return s.Steps[s.Index], true
}

func buildSnapshot(st sequencer.State, views []lesson.StepView, question, voice string, volumeDB float64, clip time.Time) Snapshot {
	steps := make([]StepSnapshot, len(views))
	for i, v := range views {
		steps[i] = StepSnapshot{
			Index:         v.Index,
			Title:         v.Title,
			BoardText:     v.BoardText,
			NarrationText: v.NarrationText,
			Audio:         v.Status.String(),
		}
		if v.Audio != nil {
			steps[i].Duration = v.Audio.Duration().Seconds()
		}
	}
	return Snapshot{
		Phase:         st.Phase.String(),
		Generation:    st.Gen,
		Question:      question,
		Index:         st.Index,
		Playing:       st.Playing,
		Seeking:       st.Seeking,
		AwaitingStart: st.AwaitingStart,
		Voice:         voice,
		VolumeDB:      volumeDB,
		Steps:         steps,
		ClipStarted:   clip,
	}
}
