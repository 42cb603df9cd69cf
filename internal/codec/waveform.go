package codec

import "math"

// WaveformLevels reduces PCM to n RMS levels scaled to 0-255.
func WaveformLevels(pcm []int16, n int) []byte {
	if n <= 0 || len(pcm) == 0 {
		return nil
	}
	step := len(pcm) / n
	if step == 0 {
		step = 1
	}

	levels := make([]byte, 0, n)
	for i := 0; i < len(pcm) && len(levels) < n; i += step {
		var sum float64
		count := 0
		for j := 0; j < step && i+j < len(pcm); j++ {
			v := float64(pcm[i+j])
			sum += v * v
			count++
		}
		rms := math.Sqrt(sum / float64(count))
		levels = append(levels, uint8(math.Min((rms/32768.0)*255.0*5.0, 255.0)))
	}
	return levels
}

// Sparkline renders levels with block glyphs, one rune per level.
func Sparkline(levels []byte) string {
	blocks := []rune(" ▁▂▃▄▅▆▇█")
	out := make([]rune, len(levels))
	for i, l := range levels {
		out[i] = blocks[int(l)*(len(blocks)-1)/255]
	}
	return string(out)
}
