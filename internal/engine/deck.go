package engine

import (
	"os"
	"time"

	"tutorboard/internal/container"
	"tutorboard/pkg/audioengine"

	"github.com/pkg/errors"
)

// Deck captures the current lesson for saving.
func (s *Session) Deck() *container.Deck {
	views := s.lesson.Snapshot()
	d := &container.Deck{
		Title:   s.lesson.Question(),
		Voice:   s.lesson.Voice(),
		Created: time.Now(),
		Steps:   make([]container.DeckStep, len(views)),
	}
	for i, v := range views {
		d.Steps[i].Step = v.Step
		if v.Audio != nil {
			d.Steps[i].PCM = audioengine.Int16Samples(v.Audio.Samples)
		}
	}
	return d
}

// SaveDeck packs the current lesson into a deck file at path.
func (s *Session) SaveDeck(path, passphrase string) error {
	d := s.Deck()
	if len(d.Steps) == 0 {
		return errors.New("nothing to save")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create deck")
	}
	if err := container.Pack(f, d, passphrase); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close deck")
}
