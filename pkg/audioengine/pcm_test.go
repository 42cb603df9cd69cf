package audioengine

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePCM16LEKnownValues(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], uint16(16384))
	binary.LittleEndian.PutUint16(raw[2:], 0)
	v := int16(-32768)
	binary.LittleEndian.PutUint16(raw[4:], uint16(v))
	binary.LittleEndian.PutUint16(raw[6:], uint16(32767))

	samples, err := DecodePCM16LE(raw)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.5, samples[0], 1e-9)
	assert.InDelta(t, 0.0, samples[1], 1e-9)
	assert.InDelta(t, -1.0, samples[2], 1e-9)
	assert.InDelta(t, 32767.0/32768.0, samples[3], 1e-9)
}

func TestDecodePCM16LERejectsOddLength(t *testing.T) {
	_, err := DecodePCM16LE([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrOddLength)
}

func TestBase64RoundTripAt24kMono(t *testing.T) {
	pcm := []int16{0, 16384, -16384, 1200, -32768, 32767}
	raw := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	orig := NewBuffer(FloatSamples(pcm), 24000, 1)

	payload := EncodeBase64PCM(orig)
	decoded, err := DecodeBase64PCM(payload, 24000, 1)
	require.NoError(t, err)

	require.Equal(t, 24000, decoded.SampleRate)
	require.Equal(t, 1, decoded.Channels)
	require.Len(t, decoded.Samples, len(pcm))
	for i := range pcm {
		assert.InDelta(t, orig.Samples[i], decoded.Samples[i], 1e-6)
	}
	assert.InDelta(t, 0.5, decoded.Samples[1], 1e-6)
	assert.Equal(t, pcm, Int16Samples(decoded.Samples))
}

func TestDecodeBase64PCMInvalidPayload(t *testing.T) {
	_, err := DecodeBase64PCM("%%%not-base64", 24000, 1)
	require.Error(t, err)
}

func TestBufferDurationAndStreamer(t *testing.T) {
	buf := NewBuffer(make([]float64, 24000), 24000, 1)
	assert.Equal(t, time.Second, buf.Duration())

	s := buf.Streamer()
	out := make([][2]float64, 16000)
	n, ok := s.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 16000, n)
	n, ok = s.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 8000, n)
	_, ok = s.Stream(out)
	assert.False(t, ok)

	require.NoError(t, s.Seek(0))
	assert.Equal(t, 0, s.Position())
}

func TestBufferWindow(t *testing.T) {
	samples := make([]float64, 2400)
	for i := range samples {
		samples[i] = float64(i)
	}
	buf := NewBuffer(samples, 24000, 1)

	w := buf.Window(50*time.Millisecond, 100)
	require.Len(t, w, 100)
	assert.Equal(t, 1200.0, w[0])

	assert.Len(t, buf.Window(95*time.Millisecond, 500), 120)
	assert.Nil(t, buf.Window(time.Second, 10))
}
