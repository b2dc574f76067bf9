//go:build !gocv

package cubetracker

import "image"

// blob is one connected region of a binary mask.
type blob struct {
	box  image.Rectangle
	area float64
}

// findBlobs labels 8-connected regions of mask in raster order and returns
// their bounding boxes; area is the pixel count of the region.
func findBlobs(mask [][]bool) ([]blob, error) {
	width, height := maskSize(mask)
	labels := make([][]int, height)
	for y := range height {
		labels[y] = make([]int, width)
	}

	var blobs []blob
	currentLabel := 0
	for y := range height {
		for x := range width {
			if mask[y][x] && labels[y][x] == 0 {
				currentLabel++
				blobs = append(blobs, floodFill(mask, labels, x, y, currentLabel))
			}
		}
	}
	return blobs, nil
}

func floodFill(mask [][]bool, labels [][]int, startX, startY, label int) blob {
	width, height := maskSize(mask)
	stack := []image.Point{{startX, startY}}
	minX, minY, maxX, maxY := startX, startY, startX, startY
	size := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if !mask[p.Y][p.X] || labels[p.Y][p.X] != 0 {
			continue
		}

		labels[p.Y][p.X] = label
		size++
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					stack = append(stack, image.Point{p.X + dx, p.Y + dy})
				}
			}
		}
	}

	return blob{
		box:  image.Rect(minX, minY, maxX+1, maxY+1),
		area: float64(size),
	}
}
