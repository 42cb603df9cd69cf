package codec

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum folds the FFT magnitude of window into bands values in [0, 1].
// Window length should be a power of two; shorter input is zero padded.
func Spectrum(window []float64, bands int) []float64 {
	if bands <= 0 || len(window) == 0 {
		return nil
	}
	size := 1
	for size < len(window) {
		size <<= 1
	}
	in := make([]float64, size)
	for i, v := range window {
		// Hann window
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(len(window)))
		in[i] = v * w
	}
	coeffs := fft.FFTReal(in)

	half := size / 2
	out := make([]float64, bands)
	per := half / bands
	if per == 0 {
		per = 1
	}
	for b := 0; b < bands; b++ {
		var peak float64
		for k := b * per; k < (b+1)*per && k < half; k++ {
			if m := cmplx.Abs(coeffs[k]); m > peak {
				peak = m
			}
		}
		// dB scale, -60 dB floor
		db := 20 * math.Log10(peak/float64(half)+1e-9)
		out[b] = math.Max(0, math.Min(1, (db+60)/60))
	}
	return out
}
