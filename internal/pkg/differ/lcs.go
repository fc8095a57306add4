package differ

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/zeebo/blake3"
)

var (
	removedTint = colorful.Color{R: 1, G: 0.15, B: 0.15}
	addedTint   = colorful.Color{R: 0.1, G: 0.8, B: 0.1}
	fadeTarget  = colorful.Color{R: 1, G: 1, B: 1}
)

const (
	tintAmount = 0.5
	fadeAmount = 0.6
)

type opKind uint8

const (
	opEqual opKind = iota
	opRemoved
	opAdded
)

type rowOp struct {
	kind opKind
	row  int // row in before for opRemoved, in after otherwise
}

type lcsDiffer struct{}

// NewLCSDiffer compares images line by line, the way a text diff compares
// lines. The result has one row per entry of the edit script: rows only in
// before are tinted red, rows only in after green, shared rows are faded.
func NewLCSDiffer() Differ {
	return lcsDiffer{}
}

func (lcsDiffer) Diff(before, after image.Image) (image.Image, error) {
	if err := checkInputs(before, after); err != nil {
		return nil, err
	}

	a := toNRGBA(before)
	b := toNRGBA(after)

	ops := rowScript(rowDigests(a), rowDigests(b))

	width := max(a.Rect.Dx(), b.Rect.Dx())
	dst := imaging.New(width, len(ops), color.Transparent)

	for y, op := range ops {
		switch op.kind {
		case opEqual:
			paintRow(dst, y, b, op.row, func(c color.NRGBA) color.NRGBA {
				return blend(c, fadeTarget, fadeAmount, c.A)
			}, color.NRGBA{})
		case opRemoved:
			paintRow(dst, y, a, op.row, func(c color.NRGBA) color.NRGBA {
				return blend(c, removedTint, tintAmount, 0xff)
			}, toNRGBAColor(removedTint))
		case opAdded:
			paintRow(dst, y, b, op.row, func(c color.NRGBA) color.NRGBA {
				return blend(c, addedTint, tintAmount, 0xff)
			}, toNRGBAColor(addedTint))
		}
	}

	return dst, nil
}

type digest [32]byte

func rowDigests(img *image.NRGBA) []digest {
	h := img.Rect.Dy()
	rowBytes := img.Rect.Dx() * 4
	out := make([]digest, h)
	for y := 0; y < h; y++ {
		off := y * img.Stride
		out[y] = blake3.Sum256(img.Pix[off : off+rowBytes])
	}
	return out
}

// rowScript returns the shortest edit script turning a into b. Within a
// changed hunk removals come before additions.
func rowScript(a, b []digest) []rowOp {
	ops := make([]rowOp, 0, max(len(a), len(b)))
	i, j := 0, 0
	hunk := func(toI, toJ int) {
		for ; i < toI; i++ {
			ops = append(ops, rowOp{kind: opRemoved, row: i})
		}
		for ; j < toJ; j++ {
			ops = append(ops, rowOp{kind: opAdded, row: j})
		}
	}
	for _, m := range commonRows(a, b) {
		hunk(m.a, m.b)
		ops = append(ops, rowOp{kind: opEqual, row: j})
		i++
		j++
	}
	hunk(len(a), len(b))
	return ops
}

// match pairs row a of before with row b of after.
type match struct{ a, b int }

// commonRows returns a longest common subsequence of a and b as increasing
// index pairs. Rows whose digest never occurs on the other side cannot be
// part of it and are dropped before the search, so two images without a
// single shared row cost linear time.
func commonRows(a, b []digest) []match {
	ids := make(map[digest]int, len(a))
	for _, d := range a {
		if _, ok := ids[d]; !ok {
			ids[d] = len(ids)
		}
	}
	inB := make([]bool, len(ids))
	var bIDs, bRows []int
	for y, d := range b {
		if id, ok := ids[d]; ok {
			inB[id] = true
			bIDs = append(bIDs, id)
			bRows = append(bRows, y)
		}
	}
	var aIDs, aRows []int
	for y, d := range a {
		if id := ids[d]; inB[id] {
			aIDs = append(aIDs, id)
			aRows = append(aRows, y)
		}
	}

	s := &myers{a: aIDs, b: bIDs}
	s.compare(0, len(aIDs), 0, len(bIDs))

	for k, m := range s.matches {
		s.matches[k] = match{a: aRows[m.a], b: bRows[m.b]}
	}
	return s.matches
}

// myers is the linear space variant of Myers' O((N+M)D) difference
// algorithm: find the middle snake of an optimal path, then solve both
// halves.
type myers struct {
	a, b    []int
	matches []match
}

func (s *myers) compare(aLo, aHi, bLo, bHi int) {
	for aLo < aHi && bLo < bHi && s.a[aLo] == s.b[bLo] {
		s.matches = append(s.matches, match{aLo, bLo})
		aLo++
		bLo++
	}
	suffix := 0
	for aLo < aHi-suffix && bLo < bHi-suffix && s.a[aHi-1-suffix] == s.b[bHi-1-suffix] {
		suffix++
	}
	aHi -= suffix
	bHi -= suffix

	if aLo < aHi && bLo < bHi {
		x, y, ok := s.split(aLo, aHi, bLo, bHi)
		// a split at either corner would not shrink the problem
		if ok && (x != aLo || y != bLo) && (x != aHi || y != bHi) {
			s.compare(aLo, x, bLo, y)
			s.compare(x, aHi, y, bHi)
		}
	}

	for k := 0; k < suffix; k++ {
		s.matches = append(s.matches, match{aHi + k, bHi + k})
	}
}

// split walks the forward and reverse furthest reaching paths until they
// overlap and returns the point where they meet.
func (s *myers) split(aLo, aHi, bLo, bHi int) (int, int, bool) {
	a, b := s.a[aLo:aHi], s.b[bLo:bHi]
	n, m := len(a), len(b)
	maxD := (n + m + 1) / 2
	offset := maxD
	size := 2*maxD + 2

	fwd := make([]int, size)
	rev := make([]int, size)
	for k := range fwd {
		fwd[k] = -1
		rev[k] = -1
	}
	fwd[offset+1] = 0
	rev[offset+1] = 0

	delta := n - m
	odd := delta%2 != 0
	// diagonals that ran off the grid are skipped on later rounds
	fStart, fEnd, rStart, rEnd := 0, 0, 0, 0

	for d := 0; d < maxD; d++ {
		for k := -d + fStart; k <= d-fEnd; k += 2 {
			ko := offset + k
			var x int
			if k == -d || (k != d && fwd[ko-1] < fwd[ko+1]) {
				x = fwd[ko+1]
			} else {
				x = fwd[ko-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			fwd[ko] = x
			switch {
			case x > n:
				fEnd += 2
			case y > m:
				fStart += 2
			case odd:
				ro := offset + delta - k
				if ro >= 0 && ro < size && rev[ro] != -1 && x >= n-rev[ro] {
					return aLo + x, bLo + y, true
				}
			}
		}

		for k := -d + rStart; k <= d-rEnd; k += 2 {
			ko := offset + k
			var x int
			if k == -d || (k != d && rev[ko-1] < rev[ko+1]) {
				x = rev[ko+1]
			} else {
				x = rev[ko-1] + 1
			}
			y := x - k
			for x < n && y < m && a[n-1-x] == b[m-1-y] {
				x++
				y++
			}
			rev[ko] = x
			switch {
			case x > n:
				rEnd += 2
			case y > m:
				rStart += 2
			case !odd:
				fo := offset + delta - k
				if fo >= 0 && fo < size && fwd[fo] != -1 {
					fx := fwd[fo]
					fy := fx - (fo - offset)
					if fx >= n-x {
						return aLo + fx, bLo + fy, true
					}
				}
			}
		}
	}
	return 0, 0, false
}

// paintRow writes row srcY of src into row dstY of dst through fn. Columns
// past the end of src are filled with pad.
func paintRow(dst *image.NRGBA, dstY int, src *image.NRGBA, srcY int, fn func(color.NRGBA) color.NRGBA, pad color.NRGBA) {
	srcW := src.Rect.Dx()
	for x := 0; x < dst.Rect.Dx(); x++ {
		if x >= srcW {
			dst.SetNRGBA(x, dstY, pad)
			continue
		}
		dst.SetNRGBA(x, dstY, fn(src.NRGBAAt(x, srcY)))
	}
}

func blend(c color.NRGBA, to colorful.Color, t float64, alpha uint8) color.NRGBA {
	src := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
	r, g, b := src.BlendRgb(to, t).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

func toNRGBAColor(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
