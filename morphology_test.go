package cubetracker

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func fillMask(mask [][]bool, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mask[y][x] = true
		}
	}
}

func TestOpenMaskRestoresRectangles(t *testing.T) {
	mask := newMask(40, 40)
	fillMask(mask, image.Rect(10, 10, 20, 20))
	// speckle
	fillMask(mask, image.Rect(30, 30, 33, 33))
	// touching the border
	fillMask(mask, image.Rect(0, 30, 10, 40))

	out := openMask(mask, 2, 2)

	want := newMask(40, 40)
	fillMask(want, image.Rect(10, 10, 20, 20))
	fillMask(want, image.Rect(0, 30, 10, 40))
	test.That(t, out, test.ShouldResemble, want)

	// input untouched
	test.That(t, countMask(mask), test.ShouldEqual, 100+9+100)
}

func TestErodeDilate(t *testing.T) {
	mask := newMask(9, 9)
	mask[4][4] = true

	d := dilateMask(mask, 1)
	test.That(t, countMask(d), test.ShouldEqual, 9)
	test.That(t, d[3][3], test.ShouldBeTrue)
	test.That(t, d[5][5], test.ShouldBeTrue)
	test.That(t, d[2][4], test.ShouldBeFalse)

	e := erodeMask(d, 1)
	test.That(t, countMask(e), test.ShouldEqual, 1)
	test.That(t, e[4][4], test.ShouldBeTrue)

	same := erodeMask(d, 0)
	test.That(t, same, test.ShouldResemble, d)
}

func TestOrMask(t *testing.T) {
	a := newMask(3, 1)
	b := newMask(3, 1)
	a[0][0] = true
	b[0][2] = true
	orMask(a, b)
	test.That(t, a[0], test.ShouldResemble, []bool{true, false, true})
}

func TestMakeBlurredGray(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := range 10 {
		for x := range 20 {
			img.SetNRGBA(x, y, color.NRGBA{100, 100, 100, 255})
		}
	}

	g := makeBlurredGray(img, 0)
	test.That(t, len(g), test.ShouldEqual, 10)
	test.That(t, len(g[0]), test.ShouldEqual, 20)
	test.That(t, g[5][5], test.ShouldEqual, 100)

	g = makeBlurredGray(img, defaultObstacleBlurSigma)
	for _, row := range g {
		for _, v := range row {
			test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, 99)
			test.That(t, v, test.ShouldBeLessThanOrEqualTo, 101)
		}
	}
}
