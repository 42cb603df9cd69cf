package audioengine

import (
	"encoding/base64"
	"encoding/binary"
	"math"

	"tutorboard/pkg/format"

	"github.com/pkg/errors"
)

var ErrOddLength = errors.New("pcm payload has an odd number of bytes")

// DecodePCM16LE converts 16-bit little-endian samples into floats in [-1, 1).
func DecodePCM16LE(raw []byte) ([]float64, error) {
	if len(raw)%format.BytesPerSample != 0 {
		return nil, ErrOddLength
	}
	out := make([]float64, len(raw)/format.BytesPerSample)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(raw[i*format.BytesPerSample:]))
		out[i] = float64(s) / 32768.0
	}
	return out, nil
}

// EncodePCM16LE is the inverse of DecodePCM16LE. Samples are clipped to int16.
func EncodePCM16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(ToInt16(v)))
	}
	return out
}

// DecodeBase64PCM decodes a base64 speech payload into a playable Buffer.
func DecodeBase64PCM(payload string, sampleRate, channels int) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64 payload")
	}
	samples, err := DecodePCM16LE(raw)
	if err != nil {
		return nil, err
	}
	return NewBuffer(samples, sampleRate, channels), nil
}

// EncodeBase64PCM renders a Buffer back into the speech payload encoding.
func EncodeBase64PCM(b *Buffer) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16LE(b.Samples))
}

// ToInt16 scales a float sample back to int16 range.
func ToInt16(v float64) int16 {
	s := math.Round(v * 32768.0)
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}

// Int16Samples converts the whole buffer for encoders that want integer PCM.
func Int16Samples(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = ToInt16(v)
	}
	return out
}

// FloatSamples converts integer PCM into float samples.
func FloatSamples(pcm []int16) []float64 {
	out := make([]float64, len(pcm))
	for i, v := range pcm {
		out[i] = float64(v) / 32768.0
	}
	return out
}
