package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorboard/pkg/audioengine"
	"tutorboard/pkg/format"
)

func threeSteps() []Step {
	return []Step{
		{Title: "a", BoardText: "$$a$$", NarrationText: "first"},
		{Title: "b", BoardText: "$$b$$", NarrationText: "second"},
		{Title: "c", BoardText: "$$c$$", NarrationText: "third"},
	}
}

func TestLateAudioIsKeyedByIndex(t *testing.T) {
	l := New()
	gen := l.Begin("what is a?", "Kore")
	require.NoError(t, l.SetSteps(gen, threeSteps()))

	buf := audioengine.NewBuffer([]float64{0.1, 0.2}, 24000, 1)
	require.NoError(t, l.SetAudio(gen, 2, buf, "AAA="))
	require.NoError(t, l.MarkMissing(gen, 0))

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, AudioMissing, snap[0].Status)
	assert.Equal(t, AudioPending, snap[1].Status)
	assert.Equal(t, AudioReady, snap[2].Status)
	assert.Same(t, buf, snap[2].Audio)
	assert.Equal(t, "AAA=", snap[2].Payload)
	assert.Equal(t, "third", snap[2].NarrationText)
}

func TestStaleGenerationIsRejected(t *testing.T) {
	l := New()
	old := l.Begin("first question", "Kore")
	require.NoError(t, l.SetSteps(old, threeSteps()))

	cur := l.Begin("second question", "Kore")
	require.NotEqual(t, old, cur)
	assert.Equal(t, 0, l.Len())

	err := l.SetAudio(old, 0, audioengine.NewBuffer(nil, 24000, 1), "")
	require.ErrorIs(t, err, ErrStaleGeneration)
	require.ErrorIs(t, l.SetSteps(old, threeSteps()), ErrStaleGeneration)
	assert.Equal(t, "second question", l.Question())
}

func TestSetAudioOutOfRange(t *testing.T) {
	l := New()
	gen := l.Begin("q", "Kore")
	require.NoError(t, l.SetSteps(gen, threeSteps()))
	require.ErrorIs(t, l.SetAudio(gen, 3, nil, ""), ErrIndexRange)
	require.ErrorIs(t, l.MarkMissing(gen, -1), ErrIndexRange)
}

func TestSnapshotIsACopy(t *testing.T) {
	l := New()
	gen := l.Begin("q", "Kore")
	steps := threeSteps()
	require.NoError(t, l.SetSteps(gen, steps))
	steps[0].Title = "changed"

	snap := l.Snapshot()
	snap[1].Title = "also changed"

	v, ok := l.Step(0)
	require.True(t, ok)
	assert.Equal(t, "a", v.Title)
	v, ok = l.Step(1)
	require.True(t, ok)
	assert.Equal(t, "b", v.Title)
	_, ok = l.Step(5)
	assert.False(t, ok)
}

func TestErrorStep(t *testing.T) {
	s := ErrorStep()
	assert.Equal(t, format.ErrorTitle, s.Title)
	assert.Equal(t, format.ErrorMessage, s.BoardText)
	assert.Equal(t, format.ErrorMessage, s.NarrationText)
}

func TestBeginRecordsVoice(t *testing.T) {
	l := New()
	l.Begin("first", "Puck")
	assert.Equal(t, "Puck", l.Voice())
	l.Begin("second", "Charon")
	assert.Equal(t, "Charon", l.Voice())
}
