package cubetracker

import (
	"image"

	"github.com/disintegration/imaging"
)

func newMask(width, height int) [][]bool {
	mask := make([][]bool, height)
	for y := range height {
		mask[y] = make([]bool, width)
	}
	return mask
}

func maskSize(mask [][]bool) (int, int) {
	if len(mask) == 0 {
		return 0, 0
	}
	return len(mask[0]), len(mask)
}

// erodeMask keeps a pixel only if every pixel in its (2r+1)x(2r+1)
// neighbourhood is set. Neighbours outside the image do not count against it.
func erodeMask(mask [][]bool, radius int) [][]bool {
	return squareFilter(mask, radius, true)
}

// dilateMask sets a pixel if any pixel in its (2r+1)x(2r+1) neighbourhood is set.
func dilateMask(mask [][]bool, radius int) [][]bool {
	return squareFilter(mask, radius, false)
}

// squareFilter runs a separable min (erode) or max (dilate) over a square window.
func squareFilter(mask [][]bool, radius int, erode bool) [][]bool {
	width, height := maskSize(mask)
	if radius <= 0 || width == 0 {
		out := newMask(width, height)
		for y := range height {
			copy(out[y], mask[y])
		}
		return out
	}

	pass := func(get func(x, y int) bool, x, y, dx, dy int) bool {
		for d := -radius; d <= radius; d++ {
			nx, ny := x+d*dx, y+d*dy
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			if get(nx, ny) != erode {
				return !erode
			}
		}
		return erode
	}

	rows := newMask(width, height)
	for y := range height {
		for x := range width {
			rows[y][x] = pass(func(x, y int) bool { return mask[y][x] }, x, y, 1, 0)
		}
	}

	out := newMask(width, height)
	for y := range height {
		for x := range width {
			out[y][x] = pass(func(x, y int) bool { return rows[y][x] }, x, y, 0, 1)
		}
	}
	return out
}

// openMask erodes iterations times, then dilates iterations times.
func openMask(mask [][]bool, radius, iterations int) [][]bool {
	for range iterations {
		mask = erodeMask(mask, radius)
	}
	for range iterations {
		mask = dilateMask(mask, radius)
	}
	return mask
}

func orMask(dst, src [][]bool) {
	for y := range dst {
		for x := range dst[y] {
			dst[y][x] = dst[y][x] || src[y][x]
		}
	}
}

func countMask(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// makeBlurredGray converts to luma and applies a Gaussian blur with the given sigma.
func makeBlurredGray(img image.Image, sigma float64) [][]int {
	g := imaging.Grayscale(img)
	if sigma > 0 {
		g = imaging.Blur(g, sigma)
	}

	b := g.Bounds()
	width, height := b.Dx(), b.Dy()
	gray := make([][]int, height)
	for y := range height {
		gray[y] = make([]int, width)
		for x := range width {
			gray[y][x] = int(g.Pix[g.PixOffset(b.Min.X+x, b.Min.Y+y)])
		}
	}
	return gray
}
