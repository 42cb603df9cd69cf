package container

import (
	"bytes"
	"math"
	"testing"
	"time"

	"tutorboard/internal/lesson"
	"tutorboard/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/24000))
	}
	return out
}

func sampleDeck() *Deck {
	return &Deck{
		Title:   "Solve 2x + 3 = 7",
		Voice:   "Puck",
		Created: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Steps: []DeckStep{
			{Step: lesson.Step{Title: "Isolate", BoardText: "$$2x = 4$$", NarrationText: "Subtract three."}, PCM: tone(4800)},
			{Step: lesson.Step{Title: "Divide", BoardText: "$$x = 2$$", NarrationText: "Divide by two."}},
			{Step: lesson.Step{Title: "Check", BoardText: "$$2(2)+3=7$$", NarrationText: "It checks out."}, PCM: tone(2400)},
		},
	}
}

func TestPackUnpackPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Pack(&buf, sampleDeck(), ""))

	vol, err := Unpack(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "Solve 2x + 3 = 7", vol.Title)
	assert.Equal(t, "Puck", vol.Voice)
	assert.Equal(t, "2025-03-01T12:00:00Z", vol.CreatedDate)
	assert.False(t, vol.Sealed())
	require.Len(t, vol.Steps, 3)
	assert.Equal(t, "Divide", vol.LessonSteps()[1].Title)
	assert.InDelta(t, 0.2, vol.Steps[0].Duration, 1e-9)

	pcm, err := vol.StepPCM(0)
	require.NoError(t, err)
	assert.Len(t, pcm, 4800)

	_, err = vol.StepPCM(1)
	assert.ErrorIs(t, err, ErrNoAudio)
	_, err = vol.StepPCM(7)
	assert.ErrorIs(t, err, lesson.ErrIndexRange)
}

func TestPackSealed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Pack(&buf, sampleDeck(), "hunter2"))

	vol, err := Unpack(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, vol.Sealed())

	_, err = vol.Frames(0)
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, vol.Unlock("nope"), security.ErrBadPassphrase)

	require.NoError(t, vol.Unlock("hunter2"))
	pcm, err := vol.StepPCM(2)
	require.NoError(t, err)
	assert.Len(t, pcm, 2400)
}

func TestUnpackRejects(t *testing.T) {
	_, err := Unpack(bytes.NewReader([]byte("NOTADECK")))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Unpack(bytes.NewReader([]byte("TBDECK01")))
	assert.ErrorIs(t, err, ErrNoTOC)
}
