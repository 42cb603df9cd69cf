package player

import (
	"sync/atomic"
	"testing"
	"time"

	"tutorboard/pkg/audioengine"

	"github.com/stretchr/testify/assert"
)

func TestSilentFiresOnNaturalEnd(t *testing.T) {
	buf := audioengine.NewBuffer(make([]float64, 240), 24000, 1) // 10ms
	var done atomic.Int32
	Silent{}.Play(buf, func() { done.Add(1) })
	assert.Eventually(t, func() bool { return done.Load() == 1 }, time.Second, time.Millisecond)
}

func TestSilentStopSuppressesCallback(t *testing.T) {
	buf := audioengine.NewBuffer(make([]float64, 2400), 24000, 1) // 100ms
	var done atomic.Int32
	h := Silent{}.Play(buf, func() { done.Add(1) })
	h.Stop()
	h.Stop()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), done.Load())
}
