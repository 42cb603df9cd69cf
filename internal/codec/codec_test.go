package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, rate int, freq float64, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestNormalizePCM(t *testing.T) {
	pcm := []int16{100, -200, 50}
	NormalizePCM(pcm)
	assert.Equal(t, int16(-32760), pcm[1])
	assert.Equal(t, int16(16380), pcm[0])

	silent := []int16{0, 0}
	assert.Equal(t, []int16{0, 0}, NormalizePCM(silent))
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "step.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	pcm := sine(2400, 24000, 440, 8000)
	require.NoError(t, WriteWAV(f, pcm, 24000))
	require.NoError(t, f.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()
	got, rate, err := ReadWAV(r)
	require.NoError(t, err)
	assert.Equal(t, 24000, rate)
	assert.Equal(t, pcm, got)
}

func TestWaveformLevels(t *testing.T) {
	assert.Nil(t, WaveformLevels(nil, 10))
	levels := WaveformLevels(sine(24000, 24000, 220, 16000), 40)
	assert.Len(t, levels, 40)
	for _, l := range levels {
		assert.Greater(t, l, byte(0))
	}
	assert.Equal(t, 4, len([]rune(Sparkline([]byte{0, 64, 128, 255}))))
}

func TestSpectrumPeaksAtTone(t *testing.T) {
	window := make([]float64, 1024)
	for i := range window {
		// bin 128 of 512 -> band 4 of 16
		window[i] = math.Sin(2 * math.Pi * 128 * float64(i) / 1024)
	}
	bands := Spectrum(window, 16)
	require.Len(t, bands, 16)
	top := 0
	for i, v := range bands {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v > bands[top] {
			top = i
		}
	}
	assert.Equal(t, 4, top)
}

func TestFingerprintStable(t *testing.T) {
	a := sine(12000, 24000, 330, 12000)
	b := sine(12000, 24000, 660, 12000)
	assert.Equal(t, Fingerprint(a), Fingerprint(a))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.Contains(t, Fingerprint(nil), "TB-")
}

func TestPrepareAttachmentDownscales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2048, 512))
	for x := 0; x < 2048; x++ {
		src.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, mime, err := PrepareAttachment(&in)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestPrepareAttachmentRejectsGarbage(t *testing.T) {
	_, _, err := PrepareAttachment(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestNarrationOpusFrames(t *testing.T) {
	pcm := sine(4800, 24000, 440, 9000)
	frames, err := EncodeNarration(pcm, 24000)
	require.NoError(t, err)
	assert.Len(t, frames, 10)

	out, err := DecodeNarration(frames, 24000)
	require.NoError(t, err)
	assert.Len(t, out, 4800)
}

func TestResampleHalvesLength(t *testing.T) {
	pcm := sine(48000, 48000, 440, 8000)
	out := Resample(pcm, 48000, 24000)
	assert.InDelta(t, 24000, len(out), 50)
	assert.Equal(t, pcm, Resample(pcm, 24000, 24000))
}
