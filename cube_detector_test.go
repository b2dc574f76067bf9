package cubetracker

import (
	"image"
	"image/color"
	"slices"
	"testing"

	"go.viam.com/test"
)

var (
	testWhite = color.NRGBA{255, 255, 255, 255}
	testBlue  = color.NRGBA{20, 40, 200, 255}
	testBrown = color.NRGBA{150, 90, 40, 255}
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Bounds(), c)
	return img
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func TestDetectCubesBGR(t *testing.T) {
	img := solidImage(100, 100, testWhite)
	fillRect(img, image.Rect(10, 10, 30, 30), testBlue)
	fillRect(img, image.Rect(60, 50, 80, 75), testBrown)
	// too small to survive the opening
	fillRect(img, image.Rect(90, 5, 93, 8), testBlue)

	cubes, err := DetectCubes(img, DefaultColorRanges(), ColorSpaceBGR, Thresholds{MinArea: 100, MinWidth: 10, MinHeight: 10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(cubes), test.ShouldEqual, 2)

	test.That(t, cubes[0].Color, test.ShouldEqual, "blue")
	test.That(t, cubes[0].Box, test.ShouldResemble, image.Rect(10, 10, 30, 30))
	x, y := cubes[0].Center()
	test.That(t, x, test.ShouldEqual, 20.0)
	test.That(t, y, test.ShouldEqual, 20.0)

	test.That(t, cubes[1].Color, test.ShouldEqual, "brown")
	test.That(t, cubes[1].Box, test.ShouldResemble, image.Rect(60, 50, 80, 75))
}

func TestDetectCubesHSV(t *testing.T) {
	img := solidImage(60, 60, testWhite)
	fillRect(img, image.Rect(20, 20, 40, 40), testBlue)

	colors := []ColorRange{{
		Name:   "blue",
		Ranges: []ChannelRange{{Lower: [3]uint8{100, 150, 50}, Upper: [3]uint8{130, 255, 255}}},
	}}
	cubes, err := DetectCubes(img, colors, ColorSpaceHSV, Thresholds{MinArea: 100})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(cubes), test.ShouldEqual, 1)
	test.That(t, cubes[0].Box, test.ShouldResemble, image.Rect(20, 20, 40, 40))
}

func TestDetectCubesErrors(t *testing.T) {
	img := solidImage(10, 10, testWhite)

	_, err := DetectCubes(img, DefaultColorRanges(), ColorSpace("lab"), Thresholds{})
	test.That(t, err, test.ShouldNotBeNil)

	bad := []ColorRange{{Name: "x", Ranges: []ChannelRange{{Lower: [3]uint8{10, 0, 0}, Upper: [3]uint8{5, 0, 0}}}}}
	_, err = DetectCubes(img, bad, ColorSpaceBGR, Thresholds{})
	test.That(t, err, test.ShouldNotBeNil)

	cubes, err := DetectCubes(img, DefaultColorRanges(), ColorSpaceBGR, Thresholds{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(cubes), test.ShouldEqual, 0)
}

func TestColorMaskUnion(t *testing.T) {
	channels := [][][3]uint8{{{10, 10, 10}, {50, 50, 50}, {200, 200, 200}}}
	cr := ColorRange{Name: "two", Ranges: []ChannelRange{
		{Lower: [3]uint8{0, 0, 0}, Upper: [3]uint8{20, 20, 20}},
		{Lower: [3]uint8{150, 150, 150}, Upper: [3]uint8{255, 255, 255}},
	}}
	mask := colorMask(channels, cr)
	test.That(t, mask[0], test.ShouldResemble, []bool{true, false, true})
}

func TestOpencvHSV(t *testing.T) {
	test.That(t, opencvHSV(255, 0, 0), test.ShouldResemble, [3]uint8{0, 255, 255})
	test.That(t, opencvHSV(0, 255, 0), test.ShouldResemble, [3]uint8{60, 255, 255})
	test.That(t, opencvHSV(0, 0, 255), test.ShouldResemble, [3]uint8{120, 255, 255})
	test.That(t, opencvHSV(128, 128, 128), test.ShouldResemble, [3]uint8{0, 0, 128})
}

func TestEnhanceSaturation(t *testing.T) {
	gray := solidImage(2, 2, color.NRGBA{100, 100, 100, 255})

	same := EnhanceSaturation(gray, 0)
	test.That(t, same.Pix, test.ShouldResemble, gray.Pix)

	out := EnhanceSaturation(gray, 50)
	px := out.NRGBAAt(0, 0)
	test.That(t, px.R, test.ShouldEqual, uint8(100))
	test.That(t, px.G, test.ShouldBeLessThan, uint8(100))
	test.That(t, px.G, test.ShouldEqual, px.B)
	test.That(t, px.A, test.ShouldEqual, uint8(255))

	// already saturated colors stay put
	red := solidImage(1, 1, color.NRGBA{255, 0, 0, 255})
	test.That(t, EnhanceSaturation(red, 50).NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{255, 0, 0, 255})

	// the input is not modified
	test.That(t, slices.Equal(gray.Pix, solidImage(2, 2, color.NRGBA{100, 100, 100, 255}).Pix), test.ShouldBeTrue)
}
