package codec

import (
	"tutorboard/pkg/audioengine"

	"github.com/faiface/beep"
)

// Resample converts mono PCM from one rate to another.
func Resample(pcm []int16, from, to int) []int16 {
	if from == to || len(pcm) == 0 {
		return pcm
	}
	src := audioengine.NewBuffer(audioengine.FloatSamples(pcm), from, 1).Streamer()
	rs := beep.Resample(4, beep.SampleRate(from), beep.SampleRate(to), src)

	out := make([]int16, 0, len(pcm)*to/from+1)
	chunk := make([][2]float64, 512)
	for {
		n, ok := rs.Stream(chunk)
		for _, s := range chunk[:n] {
			out = append(out, audioengine.ToInt16(s[0]))
		}
		if !ok {
			break
		}
	}
	return out
}
