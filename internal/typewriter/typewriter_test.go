package typewriter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevealOneRunePerTick(t *testing.T) {
	var r Reveal
	assert.True(t, r.Set(Identity{"g", 0}, "x²+1"))
	assert.Equal(t, "", r.Text())
	r.Tick()
	r.Tick()
	assert.Equal(t, "x²", r.Text())
	r.Tick()
	r.Tick()
	assert.True(t, r.Done())
	assert.False(t, r.Tick())
}

func TestRevealRestartsOnlyOnIdentity(t *testing.T) {
	var r Reveal
	r.Set(Identity{"g", 1}, "abc")
	r.Tick()
	assert.False(t, r.Set(Identity{"g", 1}, "abc"))
	assert.Equal(t, "a", r.Text())

	assert.True(t, r.Set(Identity{"g", 2}, "abc"))
	assert.Equal(t, "", r.Text())

	assert.True(t, r.Set(Identity{"h", 2}, "abc"))
}

func TestRevealShowAll(t *testing.T) {
	var r Reveal
	r.Set(Identity{"g", 0}, "$$x=2$$")
	r.ShowAll()
	assert.Equal(t, "$$x=2$$", r.Text())
	assert.Equal(t, r.Full(), r.Text())
}

func waitFrame(t *testing.T, r *Runner, done bool) Frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-r.Frames():
			if f.Done == done {
				return f
			}
		case <-deadline:
			t.Fatal("no frame")
		}
	}
}

func TestRunnerRevealsAndStops(t *testing.T) {
	r := NewRunner(time.Millisecond)
	r.Show(context.Background(), Identity{"g", 0}, "hello", true)
	f := waitFrame(t, r, true)
	assert.Equal(t, "hello", f.Text)
	assert.Eventually(t, func() bool { return r.Active() == 0 }, time.Second, time.Millisecond)
}

func TestRunnerFullWhenNotAnimating(t *testing.T) {
	r := NewRunner(time.Hour)
	r.Show(context.Background(), Identity{"g", 0}, "long board text", true)
	require.Equal(t, 1, r.Active())

	r.Show(context.Background(), Identity{"g", 0}, "long board text", false)
	f := waitFrame(t, r, true)
	assert.Equal(t, "long board text", f.Text)
	assert.Eventually(t, func() bool { return r.Active() == 0 }, time.Second, time.Millisecond)
}

func TestRunnerSingleTicker(t *testing.T) {
	r := NewRunner(time.Hour)
	for i := 0; i < 5; i++ {
		r.Show(context.Background(), Identity{"g", i}, "text", true)
	}
	assert.Eventually(t, func() bool { return r.Active() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	r.Show(ctx, Identity{"g", 9}, "text", true)
	cancel()
	assert.Eventually(t, func() bool { return r.Active() == 0 }, time.Second, time.Millisecond)
}

func TestRunnerHoldThenAnimateReveals(t *testing.T) {
	r := NewRunner(time.Hour)
	id := Identity{"g", 0}

	r.Hold(id, "board")
	f := <-r.Frames()
	assert.Equal(t, "", f.Text)
	assert.False(t, f.Done)
	assert.Equal(t, 0, r.Active())

	r.Show(context.Background(), id, "board", true)
	assert.Equal(t, 1, r.Active())
	f = <-r.Frames()
	assert.Equal(t, id, f.ID)
	assert.Equal(t, "", f.Text)
	assert.False(t, f.Done)

	r.Stop()
	assert.Eventually(t, func() bool { return r.Active() == 0 }, time.Second, time.Millisecond)
}

func TestRunnerAnimateAfterFullShowStaysFull(t *testing.T) {
	r := NewRunner(time.Hour)
	id := Identity{"g", 1}
	r.Show(context.Background(), id, "done text", false)
	r.Show(context.Background(), id, "done text", true)
	assert.Equal(t, 0, r.Active())
	f := <-r.Frames()
	assert.Equal(t, "done text", f.Text)
	assert.True(t, f.Done)
}
