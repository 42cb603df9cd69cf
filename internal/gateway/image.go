package gateway

import (
	"os"

	"tutorboard/internal/codec"

	"github.com/pkg/errors"
)

// LoadImage reads an image file and prepares it as an attachment.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()
	data, mime, err := codec.PrepareAttachment(f)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, MIMEType: mime}, nil
}
