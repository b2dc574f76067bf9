package cubetracker

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// MaskOutsideQuadWhite is MaskOutsideQuad with a white fill.
func MaskOutsideQuadWhite(img image.Image, quad []image.Point) (image.Image, error) {
	return MaskOutsideQuad(img, quad, color.White)
}

// MaskOutsideQuad copies the pixels inside the polygon quad (edges included)
// and sets every other pixel to fill. Gray images stay gray; anything else
// comes back as NRGBA.
func MaskOutsideQuad(img image.Image, quad []image.Point, fill color.Color) (image.Image, error) {
	if len(quad) != 4 {
		return nil, fmt.Errorf("mask needs exactly 4 points, got %d: %w", len(quad), ErrInvalidInput)
	}

	inside := polygonMask(img.Bounds(), quad)

	if g, ok := img.(*image.Gray); ok {
		b := g.Bounds()
		out := image.NewGray(b)
		fv := color.GrayModel.Convert(fill).(color.Gray).Y
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := inside[y-b.Min.Y]
			for x := b.Min.X; x < b.Max.X; x++ {
				if row[x-b.Min.X] {
					out.SetGray(x, y, g.GrayAt(x, y))
				} else {
					out.SetGray(x, y, color.Gray{Y: fv})
				}
			}
		}
		return out, nil
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(src.Bounds())
	fc := color.NRGBAModel.Convert(fill).(color.NRGBA)
	for y := range src.Bounds().Dy() {
		row := inside[y]
		for x := range src.Bounds().Dx() {
			i := src.PixOffset(x, y)
			if row[x] {
				copy(out.Pix[i:i+4], src.Pix[i:i+4])
				continue
			}
			out.Pix[i+0] = fc.R
			out.Pix[i+1] = fc.G
			out.Pix[i+2] = fc.B
			out.Pix[i+3] = fc.A
		}
	}
	return out, nil
}

// polygonMask rasterises poly over bounds; the result is indexed [y][x]
// relative to bounds.Min.
func polygonMask(bounds image.Rectangle, poly []image.Point) [][]bool {
	width, height := bounds.Dx(), bounds.Dy()
	mask := make([][]bool, height)
	for y := range height {
		mask[y] = make([]bool, width)
		for x := range width {
			mask[y][x] = insidePolygon(image.Pt(bounds.Min.X+x, bounds.Min.Y+y), poly)
		}
	}
	return mask
}

// insidePolygon is an even-odd test that also counts points on an edge.
func insidePolygon(p image.Point, poly []image.Point) bool {
	in := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if onSegment(p, a, b) {
			return true
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := float64(b.X-a.X)*float64(p.Y-a.Y)/float64(b.Y-a.Y) + float64(a.X)
			if float64(p.X) < xCross {
				in = !in
			}
		}
	}
	return in
}

func onSegment(p, a, b image.Point) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if cross != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}
