package codec

import (
	"io"

	"tutorboard/pkg/format"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WriteWAV writes mono 16-bit PCM as a RIFF/WAVE file.
func WriteWAV(w io.WriteSeeker, pcm []int16, rate int) error {
	enc := wav.NewEncoder(w, rate, format.BitDepth, format.Channels, 1)

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: format.Channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: format.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "write wav")
	}
	return errors.Wrap(enc.Close(), "close wav")
}

// ReadWAV loads a 16-bit WAV file, downmixing to mono.
func ReadWAV(r io.ReadSeeker) ([]int16, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, errors.Wrap(err, "read wav")
	}

	ch := buf.Format.NumChannels
	if ch < 1 {
		ch = 1
	}
	pcm := make([]int16, 0, len(buf.Data)/ch)
	for i := 0; i+ch <= len(buf.Data); i += ch {
		var sum int
		for c := 0; c < ch; c++ {
			sum += buf.Data[i+c]
		}
		pcm = append(pcm, int16(sum/ch))
	}
	return pcm, buf.Format.SampleRate, nil
}
