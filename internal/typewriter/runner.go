package typewriter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one rendered state of the reveal.
type Frame struct {
	ID   Identity
	Text string
	Done bool
}

// Runner drives a Reveal with a single ticker. Frames are delivered latest-only.
type Runner struct {
	interval time.Duration

	mu     sync.Mutex
	reveal Reveal
	epoch  uint64
	cancel context.CancelFunc

	frames chan Frame
	active atomic.Int32
}

func NewRunner(interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 30 * time.Millisecond
	}
	return &Runner{interval: interval, frames: make(chan Frame, 1)}
}

func (r *Runner) Frames() <-chan Frame { return r.frames }

// Active reports how many tickers are running; at most one.
func (r *Runner) Active() int { return int(r.active.Load()) }

// Show renders text for id. With animate false the full text is shown at once.
// With animate true the reveal restarts only when id differs from the last call.
func (r *Runner) Show(ctx context.Context, id Identity, text string, animate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	restarted := r.reveal.Set(id, text)
	if !animate {
		r.stopLocked()
		r.reveal.ShowAll()
		r.emit(r.frameLocked())
		return
	}
	if !restarted && (r.reveal.Done() || r.cancel != nil) {
		if r.reveal.Done() {
			r.emit(r.frameLocked())
		}
		return
	}

	r.stopLocked()
	r.emit(r.frameLocked())
	if r.reveal.Done() {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.epoch++
	r.active.Add(1)
	go r.run(runCtx, r.epoch)
}

// Hold points the runner at text for id but reveals nothing yet. A later
// animated Show for the same id starts the reveal from the beginning.
func (r *Runner) Hold(id Identity, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	r.reveal.Set(id, text)
	r.reveal.Reset()
	r.emit(r.frameLocked())
}

// Stop halts the ticker, leaving the text where it is.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopLocked()
	r.mu.Unlock()
}

func (r *Runner) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.epoch++
}

func (r *Runner) run(ctx context.Context, epoch uint64) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	defer r.active.Add(-1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			if r.epoch != epoch {
				r.mu.Unlock()
				return
			}
			r.reveal.Tick()
			f := r.frameLocked()
			r.emit(f)
			r.mu.Unlock()
			if f.Done {
				return
			}
		}
	}
}

func (r *Runner) frameLocked() Frame {
	return Frame{ID: r.reveal.ID(), Text: r.reveal.Text(), Done: r.reveal.Done()}
}

func (r *Runner) emit(f Frame) {
	select {
	case <-r.frames:
	default:
	}
	select {
	case r.frames <- f:
	default:
	}
}
