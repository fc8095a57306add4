// Package differ turns two decoded images into a third one that highlights
// where they differ.
package differ

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/png-diff-server/internal/entity"
)

const (
	ModeLCS   = "lcs"
	ModePixel = "pixel"
)

// Differ compares before and after and returns the diff bitmap. Inputs are
// never modified. Both inputs must have at least one pixel.
type Differ interface {
	Diff(before, after image.Image) (image.Image, error)
}

// New returns the Differ registered for mode.
func New(mode string) (Differ, error) {
	switch mode {
	case ModeLCS, "":
		return NewLCSDiffer(), nil
	case ModePixel:
		return NewPixelDiffer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownDiffMode, mode)
	}
}

func checkInputs(before, after image.Image) error {
	if isEmpty(before) || isEmpty(after) {
		return entity.ErrEmptyImage
	}
	return nil
}

func isEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

// toNRGBA returns img as an NRGBA anchored at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
