package cubetracker

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/mat"
)

// Quad is a quadrilateral in canonical order: top-left, top-right, bottom-right, bottom-left.
type Quad [4]image.Point

// OrderCorners puts 4 points into TL, TR, BR, BL order.
// The top-left point has the smallest x+y and the bottom-right the largest;
// the top-right has the smallest y-x and the bottom-left the largest.
// Ties go to the point that comes first in pts.
func OrderCorners(pts []image.Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, fmt.Errorf("need exactly 4 corner points, got %d: %w", len(pts), ErrInvalidInput)
	}

	var q Quad
	minSum, maxSum := 0, 0
	minDiff, maxDiff := 0, 0
	for i, p := range pts {
		s := p.X + p.Y
		d := p.Y - p.X
		if i == 0 || s < pts[minSum].X+pts[minSum].Y {
			minSum = i
		}
		if i == 0 || s > pts[maxSum].X+pts[maxSum].Y {
			maxSum = i
		}
		if i == 0 || d < pts[minDiff].Y-pts[minDiff].X {
			minDiff = i
		}
		if i == 0 || d > pts[maxDiff].Y-pts[maxDiff].X {
			maxDiff = i
		}
	}

	q[0] = pts[minSum]
	q[1] = pts[minDiff]
	q[2] = pts[maxSum]
	q[3] = pts[maxDiff]
	return q, nil
}

// Homography is a row-major 3x3 projective transform.
type Homography [9]float64

// Apply maps (x, y) through the transform.
func (h Homography) Apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	if w == 0 {
		return math.Inf(1), math.Inf(1)
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// Inverse returns the inverse transform.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, h[:])); err != nil {
		return Homography{}, fmt.Errorf("homography not invertible: %w", ErrInvalidInput)
	}
	var out Homography
	for r := range 3 {
		for c := range 3 {
			out[r*3+c] = inv.At(r, c)
		}
	}
	return out, nil
}

// perspectiveTransform solves for the homography taking src[i] to dst[i].
func perspectiveTransform(src, dst [4][2]float64) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := range 4 {
		x, y := src[i][0], src[i][1]
		u, v := dst[i][0], dst[i][1]

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("degenerate quadrilateral: %w", ErrInvalidInput)
	}

	var h Homography
	for i := range 8 {
		h[i] = coeffs.AtVec(i)
	}
	h[8] = 1
	return h, nil
}

// ComputeWarp maps the quadrilateral q of img onto a size.X by size.Y image.
// The returned homography takes source pixel coordinates to output coordinates.
func ComputeWarp(img image.Image, q Quad, size image.Point) (*image.NRGBA, Homography, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, Homography{}, fmt.Errorf("bad warp size %v: %w", size, ErrInvalidInput)
	}

	var src [4][2]float64
	for i, p := range q {
		src[i] = [2]float64{float64(p.X), float64(p.Y)}
	}
	w, h := float64(size.X-1), float64(size.Y-1)
	dst := [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}

	forward, err := perspectiveTransform(src, dst)
	if err != nil {
		return nil, Homography{}, err
	}
	backward, err := forward.Inverse()
	if err != nil {
		return nil, Homography{}, err
	}

	// the clone starts at (0,0) while q is in img's own coordinates
	in := imaging.Clone(img)
	origin := img.Bounds().Min
	ox, oy := float64(origin.X), float64(origin.Y)
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	for v := range size.Y {
		for u := range size.X {
			x, y := backward.Apply(float64(u), float64(v))
			c := sampleBilinear(in, snap(x-ox), snap(y-oy))
			i := out.PixOffset(u, v)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 0xff
		}
	}

	return out, forward, nil
}

// snap removes floating point noise so integer source coordinates sample exactly.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return r
	}
	return v
}

// sampleBilinear reads img at a fractional position; outside pixels are black.
func sampleBilinear(img *image.NRGBA, x, y float64) color.NRGBA {
	if math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsNaN(x) || math.IsNaN(y) {
		return color.NRGBA{A: 0xff}
	}

	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	b := img.Bounds()

	var r, g, bl float64
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	offsets := [4]image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for k, wgt := range weights {
		if wgt == 0 {
			continue
		}
		px, py := ix+offsets[k].X, iy+offsets[k].Y
		if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
			continue
		}
		i := img.PixOffset(px, py)
		r += wgt * float64(img.Pix[i+0])
		g += wgt * float64(img.Pix[i+1])
		bl += wgt * float64(img.Pix[i+2])
	}

	return color.NRGBA{R: clampByte(r), G: clampByte(g), B: clampByte(bl), A: 0xff}
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// RotateImage turns img by angle degrees.
// 90 is a clockwise quarter turn, -90 counter-clockwise, 180 a half turn.
// Any other non-zero angle rotates counter-clockwise about the center and
// keeps the image size, filling uncovered pixels with black.
func RotateImage(img image.Image, angle float64) *image.NRGBA {
	switch angle {
	case 0:
		return imaging.Clone(img)
	case 90, -270:
		return imaging.Rotate270(img)
	case -90, 270:
		return imaging.Rotate90(img)
	case 180, -180:
		return imaging.Rotate180(img)
	}

	src := imaging.Clone(img)
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.Black), image.Point{}, draw.Src)

	rad := angle * math.Pi / 180
	alpha, beta := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(b.Dx()/2), float64(b.Dy()/2)

	s2d := f64.Aff3{
		alpha, beta, (1-alpha)*cx - beta*cy,
		-beta, alpha, beta*cx + (1-alpha)*cy,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
