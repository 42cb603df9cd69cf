// Package player turns decoded narration into sound.
package player

import (
	"sync"
	"sync/atomic"
	"time"

	"tutorboard/pkg/audioengine"
	"tutorboard/pkg/format"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
)

// Handle is a playing clip. Stop is fire-and-forget and safe to call twice.
type Handle interface {
	Stop()
}

// Player starts clips. onDone runs once, only when the clip ends on its own,
// and never on the caller's goroutine.
type Player interface {
	Play(buf *audioengine.Buffer, onDone func()) Handle
	SetVolume(db float64)
}

// Speaker plays through the default output device.
type Speaker struct {
	sr beep.SampleRate

	mu       sync.Mutex
	volumeDB float64
	current  *effects.Volume
}

var initOnce sync.Once
var initErr error

// NewSpeaker opens the output device at rate. The device is opened once per
// process.
func NewSpeaker(rate int) (*Speaker, error) {
	if rate <= 0 {
		rate = format.PlaybackRate
	}
	sr := beep.SampleRate(rate)
	initOnce.Do(func() {
		initErr = speaker.Init(sr, sr.N(100*time.Millisecond))
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "open audio device")
	}
	return &Speaker{sr: sr}, nil
}

type speakerHandle struct {
	ctrl    *beep.Ctrl
	stopped atomic.Bool
}

func (h *speakerHandle) Stop() {
	if !h.stopped.CompareAndSwap(false, true) {
		return
	}
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()
}

func (s *Speaker) Play(buf *audioengine.Buffer, onDone func()) Handle {
	var src beep.Streamer = buf.Streamer()
	if rate := beep.SampleRate(buf.SampleRate); rate != s.sr {
		src = beep.Resample(4, rate, s.sr, src)
	}

	s.mu.Lock()
	vol := &effects.Volume{Streamer: src, Base: 2, Volume: s.volumeDB}
	s.current = vol
	s.mu.Unlock()

	h := &speakerHandle{ctrl: &beep.Ctrl{Streamer: vol}}
	speaker.Play(beep.Seq(h.ctrl, beep.Callback(func() {
		// runs under the speaker lock
		if h.stopped.CompareAndSwap(false, true) && onDone != nil {
			go onDone()
		}
	})))
	return h
}

func (s *Speaker) SetVolume(db float64) {
	s.mu.Lock()
	s.volumeDB = db
	cur := s.current
	s.mu.Unlock()

	if cur != nil {
		speaker.Lock()
		cur.Volume = db
		speaker.Unlock()
	}
}

// Silent keeps time without a device: onDone fires after the clip duration.
// Headless servers use it so browsers can play the audio themselves.
type Silent struct{}

type silentHandle struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (h *silentHandle) Stop() {
	if h.stopped.CompareAndSwap(false, true) {
		h.timer.Stop()
	}
}

func (Silent) Play(buf *audioengine.Buffer, onDone func()) Handle {
	h := &silentHandle{}
	h.timer = time.AfterFunc(buf.Duration(), func() {
		if h.stopped.CompareAndSwap(false, true) && onDone != nil {
			onDone()
		}
	})
	return h
}

func (Silent) SetVolume(float64) {}
