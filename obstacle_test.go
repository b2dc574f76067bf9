package cubetracker

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"
)

var fullRegion = []image.Point{{0, 0}, {99, 0}, {99, 99}, {0, 99}}

func grayFrame(v uint8) *image.NRGBA {
	return solidImage(100, 100, color.NRGBA{v, v, v, 255})
}

func TestObstacleMonitor(t *testing.T) {
	logger := logging.NewTestLogger(t)

	m, err := NewObstacleMonitor(fullRegion, ObstacleConfig{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialized(), test.ShouldBeFalse)

	_, err = m.CheckFrame(grayFrame(255))
	test.That(t, errors.Is(err, ErrNotInitialized), test.ShouldBeTrue)

	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)
	test.That(t, m.Initialized(), test.ShouldBeTrue)

	present, err := m.CheckFrame(grayFrame(255))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeFalse)

	// a hand over a quarter of the board
	hand := grayFrame(255)
	fillRect(hand, image.Rect(30, 30, 80, 80), color.NRGBA{40, 30, 20, 255})
	present, err = m.CheckFrame(hand)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeTrue)

	// small changes are below the threshold
	present, err = m.CheckFrame(grayFrame(245))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeFalse)

	// a tiny change is cleaned away by the opening
	speck := grayFrame(255)
	fillRect(speck, image.Rect(10, 10, 13, 13), color.NRGBA{0, 0, 0, 255})
	present, err = m.CheckFrame(speck)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeFalse)
}

func TestObstacleMonitorIgnoresOutsideRegion(t *testing.T) {
	logger := logging.NewTestLogger(t)

	m, err := NewObstacleMonitor([]image.Point{{0, 0}, {49, 0}, {49, 99}, {0, 99}}, ObstacleConfig{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)

	frame := grayFrame(255)
	fillRect(frame, image.Rect(60, 0, 100, 100), color.NRGBA{0, 0, 0, 255})
	present, err := m.CheckFrame(frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeFalse)
}

func TestObstacleMonitorRebaseline(t *testing.T) {
	logger := logging.NewTestLogger(t)

	m, err := NewObstacleMonitor(fullRegion, ObstacleConfig{RebaselineFrames: 2}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)

	// lighting drifts; two clear frames make 240 the new reference
	for range 2 {
		present, err := m.CheckFrame(grayFrame(240))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, present, test.ShouldBeFalse)
	}

	// 25 away from the first reference, 15 from the new one
	present, err := m.CheckFrame(grayFrame(225))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeFalse)
}

func TestObstacleMonitorZeroThresholds(t *testing.T) {
	logger := logging.NewTestLogger(t)
	zero, none := 0, 0.0

	// any brightness change counts with a zero diff threshold
	m, err := NewObstacleMonitor(fullRegion, ObstacleConfig{DiffThreshold: &zero}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)
	present, err := m.CheckFrame(grayFrame(245))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeTrue)

	// a small blot stays under the default ratio but not under a zero one
	blot := grayFrame(255)
	fillRect(blot, image.Rect(40, 40, 46, 46), color.NRGBA{0, 0, 0, 255})

	m, err = NewObstacleMonitor(fullRegion, ObstacleConfig{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)
	present, err = m.CheckFrame(blot)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeFalse)

	m, err = NewObstacleMonitor(fullRegion, ObstacleConfig{ChangeRatio: &none}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)
	present, err = m.CheckFrame(blot)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeTrue)
}

func TestObstacleMonitorErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := NewObstacleMonitor(fullRegion[:2], ObstacleConfig{}, logger)
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)

	m, err := NewObstacleMonitor(fullRegion, ObstacleConfig{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Initialize(grayFrame(255)), test.ShouldBeNil)

	_, err = m.CheckFrame(solidImage(50, 50, testWhite))
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)

	_, err = m.CheckFrame(nil)
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
}

func TestChangedRatio(t *testing.T) {
	ref := make([][]int, 10)
	cur := make([][]int, 10)
	for y := range 10 {
		ref[y] = make([]int, 10)
		cur[y] = make([]int, 10)
	}
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			cur[y][x] = 100
		}
	}

	// 6x6 survives the opening and grows by one on each side
	ratio, err := changedRatio(ref, cur, 20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ratio, test.ShouldAlmostEqual, 64.0/100.0)

	ratio, err = changedRatio(ref, cur, 100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ratio, test.ShouldEqual, 0.0)
}
