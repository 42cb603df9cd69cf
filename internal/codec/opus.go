package codec

import (
	"tutorboard/pkg/format"

	"github.com/hraban/opus"
	"github.com/pkg/errors"
)

// maxFrameBytes bounds a single encoded Opus packet.
const maxFrameBytes = 1000

// EncodeNarration splits mono PCM into 20ms Opus frames.
func EncodeNarration(pcm []int16, rate int) ([][]byte, error) {
	enc, err := opus.NewEncoder(rate, format.Channels, opus.AppVoIP)
	if err != nil {
		return nil, errors.Wrap(err, "opus encoder")
	}

	frameSize := rate * format.FrameSize / 1000 * format.Channels
	var frames [][]byte

	tmp := make([]byte, maxFrameBytes)
	for i := 0; i < len(pcm); i += frameSize {
		end := i + frameSize
		var chunk []int16
		if end > len(pcm) {
			chunk = make([]int16, frameSize)
			copy(chunk, pcm[i:])
		} else {
			chunk = pcm[i:end]
		}

		n, err := enc.Encode(chunk, tmp)
		if err != nil {
			return nil, errors.Wrapf(err, "encode frame %d", len(frames))
		}
		frame := make([]byte, n)
		copy(frame, tmp[:n])
		frames = append(frames, frame)
	}
	return frames, nil
}

// DecodeNarration turns Opus frames back into mono PCM.
func DecodeNarration(frames [][]byte, rate int) ([]int16, error) {
	dec, err := opus.NewDecoder(rate, format.Channels)
	if err != nil {
		return nil, errors.Wrap(err, "opus decoder")
	}

	frameSize := rate * format.FrameSize / 1000 * format.Channels
	pcm := make([]int16, 0, len(frames)*frameSize)
	out := make([]int16, frameSize)
	for i, frame := range frames {
		n, err := dec.Decode(frame, out)
		if err != nil {
			return nil, errors.Wrapf(err, "decode frame %d", i)
		}
		pcm = append(pcm, out[:n*format.Channels]...)
	}
	return pcm, nil
}

// NormalizePCM applies peak normalization in place.
func NormalizePCM(samples []int16) []int16 {
	var peak int32
	for _, s := range samples {
		a := int32(s)
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}

	ratio := 32760.0 / float64(peak)
	for i := range samples {
		samples[i] = int16(float64(samples[i]) * ratio)
	}
	return samples
}
