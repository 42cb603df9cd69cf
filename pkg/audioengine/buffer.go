package audioengine

import (
	"time"

	"github.com/faiface/beep"
)

// Buffer is a decoded narration clip held fully in memory.
type Buffer struct {
	Samples    []float64 // interleaved when Channels > 1
	SampleRate int
	Channels   int
}

func NewBuffer(samples []float64, sampleRate, channels int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Frames is the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

func (b *Buffer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(b.SampleRate),
		NumChannels: b.Channels,
		Precision:   2,
	}
}

// Streamer returns a fresh beep streamer positioned at the start of the clip.
func (b *Buffer) Streamer() beep.StreamSeeker {
	return &bufferStreamer{buf: b}
}

type bufferStreamer struct {
	buf *Buffer
	pos int
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.buf.Frames()
	if s.pos >= frames {
		return 0, false
	}

	filled := 0
	for filled < len(samples) && s.pos < frames {
		if s.buf.Channels == 1 {
			v := s.buf.Samples[s.pos]
			samples[filled] = [2]float64{v, v}
		} else {
			base := s.pos * s.buf.Channels
			samples[filled] = [2]float64{s.buf.Samples[base], s.buf.Samples[base+1]}
		}
		s.pos++
		filled++
	}
	return filled, true
}

func (s *bufferStreamer) Err() error    { return nil }
func (s *bufferStreamer) Len() int      { return s.buf.Frames() }
func (s *bufferStreamer) Position() int { return s.pos }

func (s *bufferStreamer) Seek(p int) error {
	if p < 0 {
		p = 0
	}
	if p > s.buf.Frames() {
		p = s.buf.Frames()
	}
	s.pos = p
	return nil
}

// Window returns up to n samples of b starting at the given offset.
func (b *Buffer) Window(at time.Duration, n int) []float64 {
	if b == nil || b.SampleRate == 0 {
		return nil
	}
	start := int(at.Seconds()*float64(b.SampleRate)) * b.Channels
	if start < 0 || start >= len(b.Samples) {
		return nil
	}
	end := start + n*b.Channels
	if end > len(b.Samples) {
		end = len(b.Samples)
	}
	return b.Samples[start:end]
}
