package differ

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// changedColor marks every pixel that differs between the two inputs.
var changedColor = color.NRGBA{R: 0xff, A: 0xff}

const backgroundBrightness = 40

type pixelDiffer struct{}

// NewPixelDiffer compares images pixel by pixel on a common canvas. Changed
// pixels are painted red over a brightened grayscale copy of after.
func NewPixelDiffer() Differ {
	return pixelDiffer{}
}

func (pixelDiffer) Diff(before, after image.Image) (image.Image, error) {
	if err := checkInputs(before, after); err != nil {
		return nil, err
	}

	a := toNRGBA(before)
	b := toNRGBA(after)

	width := max(a.Rect.Dx(), b.Rect.Dx())
	height := max(a.Rect.Dy(), b.Rect.Dy())
	a = imaging.Paste(imaging.New(width, height, color.Transparent), a, image.Point{})
	b = imaging.Paste(imaging.New(width, height, color.Transparent), b, image.Point{})

	var gray image.Image = effect.Grayscale(b)
	dst := imaging.AdjustBrightness(gray, backgroundBrightness)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				dst.SetNRGBA(x, y, changedColor)
			}
		}
	}

	return dst, nil
}
