package cubetracker

import (
	"context"
	"image"
	"image/color"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"
)

func TestBoardDebugImage(t *testing.T) {
	logger := logging.NewTestLogger(t)

	e, err := NewExtractor(testBoardConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	bc := &BoardCamera{logger: logger, extractor: e}

	input := boardFrame(map[image.Point]color.NRGBA{{0, 0}: testBlue})
	out := bc.BoardDebugImage(context.Background(), input)
	test.That(t, out.Bounds(), test.ShouldResemble, image.Rect(0, 0, testBoardSize, testBoardSize))

	// grid line on the A8/B8 border
	r, g, b, _ := out.At(20, 18).RGBA()
	test.That(t, r>>8, test.ShouldEqual, uint32(0))
	test.That(t, g>>8, test.ShouldEqual, uint32(255))
	test.That(t, b>>8, test.ShouldEqual, uint32(0))
}

func TestBoardDebugImageFailure(t *testing.T) {
	logger := logging.NewTestLogger(t)

	e, err := NewExtractor(testBoardConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	bc := &BoardCamera{logger: logger, extractor: e}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := solidImage(300, 200, testWhite)
	out := bc.BoardDebugImage(ctx, input)
	test.That(t, out.Bounds(), test.ShouldResemble, input.Bounds())
}

func TestBoardCameraConfigValidate(t *testing.T) {
	cfg := &BoardCameraConfig{Board: *testBoardConfig()}
	_, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)

	cfg.Input = "cam"
	deps, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"cam"})
}

func TestAnnotateExtraction(t *testing.T) {
	logger := logging.NewTestLogger(t)

	e, err := NewExtractor(testBoardConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	ext, err := e.Extract(context.Background(), boardFrame(map[image.Point]color.NRGBA{{3, 3}: testBrown}))
	test.That(t, err, test.ShouldBeNil)

	out := AnnotateExtraction(ext, DefaultGrid)
	test.That(t, out.Bounds(), test.ShouldResemble, ext.Warped.Bounds())

	// the cube box is outlined in its color
	test.That(t, out.NRGBAAt(62, 70), test.ShouldResemble, cubeColors["brown"])

	// the warped image itself is left alone
	test.That(t, ext.Warped.NRGBAAt(62, 70), test.ShouldResemble, testBrown)
}
