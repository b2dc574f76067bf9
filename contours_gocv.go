//go:build gocv

package cubetracker

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// blob is one external contour of a binary mask.
type blob struct {
	box  image.Rectangle
	area float64
}

// findBlobs uses OpenCV's external contour retrieval; area is the contour's polygon area.
func findBlobs(mask [][]bool) ([]blob, error) {
	width, height := maskSize(mask)
	if width == 0 {
		return nil, nil
	}

	data := make([]byte, width*height)
	for y := range height {
		for x := range width {
			if mask[y][x] {
				data[y*width+x] = 255
			}
		}
	}

	m, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, data)
	if err != nil {
		return nil, fmt.Errorf("cannot build %dx%d mask mat: %w", width, height, err)
	}
	defer m.Close()

	contours := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	blobs := make([]blob, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		blobs = append(blobs, blob{
			box:  gocv.BoundingRect(c),
			area: gocv.ContourArea(c),
		})
	}
	return blobs, nil
}
