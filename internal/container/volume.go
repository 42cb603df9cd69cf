package container

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"tutorboard/internal/codec"
	"tutorboard/internal/lesson"
	"tutorboard/internal/security"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
)

type ReadSeekerAt interface {
	io.ReadSeeker
	io.ReaderAt
}

// Volume is an opened deck. Audio is read lazily through StepPCM.
type Volume struct {
	Reader      ReadSeekerAt
	Title       string
	Voice       string
	CreatedDate string
	Steps       []StepEntry

	salt []byte
	sign []byte
	key  []byte
}

// Unpack reads the deck header and table of contents.
func Unpack(r ReadSeekerAt) (*Volume, error) {
	magic := make([]byte, len(format.DeckMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if string(magic) != format.DeckMagic {
		return nil, ErrBadMagic
	}

	vol := &Volume{Reader: r}
	var haveTOC bool
	for {
		tagBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, tagBuf); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "read tag")
		}
		tag := string(tagBuf)

		var size uint32
		if err := binary.Read(r, binary.BigEndian, &size); err != nil {
			return nil, errors.Wrapf(err, "read size of %s", tag)
		}

		if tag == format.AudioData {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, errors.Wrap(err, "skip audio")
			}
			continue
		}

		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "read %s", tag)
		}
		switch tag {
		case format.Title:
			vol.Title = string(buf)
		case format.Voice:
			vol.Voice = string(buf)
		case format.CreatedDate:
			vol.CreatedDate = string(buf)
		case format.Salt:
			vol.salt = buf
		case format.Signature:
			vol.sign = buf
		case format.TableOfCont:
			if err := json.Unmarshal(buf, &vol.Steps); err != nil {
				return nil, errors.Wrap(err, "parse toc")
			}
			haveTOC = true
		}
	}

	if !haveTOC {
		return nil, ErrNoTOC
	}
	return vol, nil
}

// Sealed reports whether the audio needs a passphrase.
func (v *Volume) Sealed() bool { return len(v.salt) > 0 }

// Unlock checks passphrase and keeps the derived key for StepPCM.
func (v *Volume) Unlock(passphrase string) error {
	if !v.Sealed() {
		return nil
	}
	key := security.DeriveKey(passphrase, v.salt)
	if err := security.Verify(key, v.sign); err != nil {
		return err
	}
	v.key = key
	return nil
}

// LessonSteps returns the step text in order.
func (v *Volume) LessonSteps() []lesson.Step {
	out := make([]lesson.Step, len(v.Steps))
	for i, e := range v.Steps {
		out[i] = lesson.Step{Title: e.Title, BoardText: e.BoardText, NarrationText: e.NarrationText}
	}
	return out
}

// Frames returns the Opus frames of step i, opened when sealed.
func (v *Volume) Frames(i int) ([][]byte, error) {
	if i < 0 || i >= len(v.Steps) {
		return nil, lesson.ErrIndexRange
	}
	e := v.Steps[i]
	if e.Size == 0 {
		return nil, ErrNoAudio
	}
	if v.Sealed() && v.key == nil {
		return nil, ErrLocked
	}

	raw := make([]byte, e.Size)
	if _, err := v.Reader.ReadAt(raw, int64(e.Offset)); err != nil {
		return nil, errors.Wrapf(err, "read step %d audio", i)
	}

	var frames [][]byte
	for pos := 0; pos < len(raw); {
		if pos+2 > len(raw) {
			return nil, io.ErrUnexpectedEOF
		}
		n := int(binary.BigEndian.Uint16(raw[pos:]))
		pos += 2
		if pos+n > len(raw) {
			return nil, io.ErrUnexpectedEOF
		}
		fr := raw[pos : pos+n]
		pos += n
		if v.key != nil {
			plain, err := security.Decrypt(fr, v.key)
			if err != nil {
				return nil, err
			}
			fr = plain
		}
		frames = append(frames, fr)
	}
	return frames, nil
}

// StepPCM decodes the narration of step i.
func (v *Volume) StepPCM(i int) ([]int16, error) {
	frames, err := v.Frames(i)
	if err != nil {
		return nil, err
	}
	return codec.DecodeNarration(frames, format.SampleRate)
}
