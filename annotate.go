package cubetracker

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	gridColor  = color.NRGBA{0, 255, 0, 255}
	labelColor = color.NRGBA{255, 255, 255, 255}
	textColor  = color.NRGBA{255, 0, 0, 255}
	cubeColors = map[string]color.NRGBA{
		"blue":  {0, 0, 255, 255},
		"brown": {255, 165, 0, 255},
	}
	defaultCubeColor = color.NRGBA{255, 0, 255, 255}
)

// AnnotateExtraction draws the grid, square names, cube boxes and the
// colors assigned to each square on a copy of the warped board.
func AnnotateExtraction(e *Extraction, g GridSize) *image.NRGBA {
	dst := image.NewNRGBA(e.Warped.Bounds())
	draw.Draw(dst, dst.Bounds(), e.Warped, e.Warped.Bounds().Min, draw.Src)

	squares := e.Squares
	if len(squares) == 0 {
		squares = PartitionSquares(dst.Bounds().Dx(), dst.Bounds().Dy(), g)
	}

	for _, sq := range squares {
		drawRect(dst, sq.Box, gridColor)

		label, err := NewSquareLabel(sq.Row, sq.Col, g)
		if err != nil {
			continue
		}
		drawString(dst, sq.Box.Min.X+5, sq.Box.Min.Y+15, label.String(), labelColor)
		if occ, ok := e.State[label]; ok {
			drawString(dst, sq.Box.Min.X+5, sq.Box.Max.Y-8, occ.String(), textColor)
		}
	}

	for _, c := range e.Cubes {
		col, ok := cubeColors[c.Color]
		if !ok {
			col = defaultCubeColor
		}
		drawRect(dst, c.Box, col)
		drawRect(dst, c.Box.Inset(1), col)
	}

	return dst
}

func drawRect(dst *image.NRGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

func drawString(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

// annotateFrame is used when the pipeline fails: it returns the raw frame so
// the debug camera still shows something.
func annotateFrame(frame image.Image, msg string) *image.NRGBA {
	dst := imaging.Clone(frame)
	drawString(dst, 10, 20, msg, textColor)
	return dst
}
