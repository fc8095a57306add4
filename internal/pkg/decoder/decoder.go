package decoder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // Register PNG format decoder

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/png-diff-server/internal/entity"
)

// Format is the only container the server accepts.
const Format = "png"

type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

type pngDecoder struct{}

func NewDecoder() Decoder {
	return pngDecoder{}
}

// Decode sniffs the container from data rather than trusting any declared
// content type, rejects everything that is not PNG and returns the pixels as
// a fresh *image.NRGBA.
func (pngDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format != Format {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, entity.ErrEmptyImage
	}

	return imaging.Clone(img), nil
}
