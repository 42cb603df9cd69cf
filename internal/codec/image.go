package codec

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// MaxAttachmentSide bounds the longest edge of an attached image.
const MaxAttachmentSide = 1024

// PrepareAttachment decodes an uploaded image, downsizes it so the longest
// side is at most MaxAttachmentSide and re-encodes it as PNG.
func PrepareAttachment(r io.Reader) ([]byte, string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, "", errors.New("empty image")
	}

	if w > MaxAttachmentSide || h > MaxAttachmentSide {
		if w >= h {
			h = h * MaxAttachmentSide / w
			w = MaxAttachmentSide
		} else {
			w = w * MaxAttachmentSide / h
			h = MaxAttachmentSide
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, "", errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), "image/png", nil
}
