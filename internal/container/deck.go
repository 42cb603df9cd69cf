package container

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"time"

	"tutorboard/internal/codec"
	"tutorboard/internal/lesson"
	"tutorboard/internal/security"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
)

var (
	ErrBadMagic = errors.New("not a tutorboard deck")
	ErrNoTOC    = errors.New("deck has no table of contents")
	ErrLocked   = errors.New("deck is sealed; passphrase required")
	ErrNoAudio  = errors.New("step has no narration")
)

// StepEntry is one row of the TTOC record.
type StepEntry struct {
	Index         int     `json:"index"`
	Title         string  `json:"title"`
	BoardText     string  `json:"boardText"`
	NarrationText string  `json:"narrationText"`
	Offset        uint64  `json:"offset"`
	Size          uint64  `json:"size"`
	Duration      float64 `json:"duration"`
	Fingerprint   string  `json:"fingerprint,omitempty"`
}

// DeckStep is a step plus its narration, if any.
type DeckStep struct {
	Step lesson.Step
	PCM  []int16
}

// Deck is a saved lesson ready to be packed.
type Deck struct {
	Title   string
	Voice   string
	Created time.Time
	Steps   []DeckStep
}

type record struct {
	tag  string
	data []byte
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// Pack writes d in deck format. An empty passphrase leaves audio unsealed.
func Pack(w io.Writer, d *Deck, passphrase string) error {
	cw := &countingWriter{w: w}

	var key []byte
	var salt []byte
	if passphrase != "" {
		var err error
		if salt, err = security.NewSalt(); err != nil {
			return err
		}
		key = security.DeriveKey(passphrase, salt)
	}

	// Frames are prepared up front so the AUDI length is known.
	entries := make([]StepEntry, len(d.Steps))
	blocks := make([][]byte, len(d.Steps))
	for i, s := range d.Steps {
		entries[i] = StepEntry{
			Index:         i,
			Title:         s.Step.Title,
			BoardText:     s.Step.BoardText,
			NarrationText: s.Step.NarrationText,
		}
		if len(s.PCM) == 0 {
			continue
		}
		block, err := packFrames(s.PCM, key)
		if err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
		blocks[i] = block
		entries[i].Size = uint64(len(block))
		entries[i].Duration = float64(len(s.PCM)) / float64(format.SampleRate)
		entries[i].Fingerprint = codec.Fingerprint(s.PCM)
	}

	if _, err := cw.Write([]byte(format.DeckMagic)); err != nil {
		return errors.Wrap(err, "write magic")
	}
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}
	tags := []record{
		{format.Title, []byte(d.Title)},
		{format.Voice, []byte(format.VoiceOrDefault(d.Voice))},
		{format.CreatedDate, []byte(created.UTC().Format(time.RFC3339))},
	}
	if key != nil {
		tags = append(tags, record{format.Salt, salt}, record{format.Signature, security.Sign(key)})
	}
	for _, t := range tags {
		if err := writeTag(cw, t.tag, t.data); err != nil {
			return err
		}
	}

	var audioSize uint64
	for _, b := range blocks {
		audioSize += uint64(len(b))
	}
	if err := writeHeader(cw, format.AudioData, uint32(audioSize)); err != nil {
		return err
	}
	for i, b := range blocks {
		if b == nil {
			continue
		}
		entries[i].Offset = cw.n
		if _, err := cw.Write(b); err != nil {
			return errors.Wrap(err, "write audio")
		}
	}

	toc, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "marshal toc")
	}
	return writeTag(cw, format.TableOfCont, toc)
}

func packFrames(pcm []int16, key []byte) ([]byte, error) {
	frames, err := codec.EncodeNarration(pcm, format.SampleRate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, fr := range frames {
		if key != nil {
			if fr, err = security.Encrypt(fr, key); err != nil {
				return nil, err
			}
		}
		binary.Write(&buf, binary.BigEndian, uint16(len(fr)))
		buf.Write(fr)
	}
	return buf.Bytes(), nil
}

func writeHeader(w io.Writer, tag string, size uint32) error {
	if _, err := w.Write([]byte(tag)); err != nil {
		return errors.Wrapf(err, "write tag %s", tag)
	}
	return errors.Wrapf(binary.Write(w, binary.BigEndian, size), "write size %s", tag)
}

func writeTag(w io.Writer, tag string, data []byte) error {
	if err := writeHeader(w, tag, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return errors.Wrapf(err, "write %s", tag)
}
