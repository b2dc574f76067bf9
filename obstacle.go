package cubetracker

import (
	"fmt"
	"image"
	"sync"

	"go.viam.com/rdk/logging"
)

const (
	obstacleKernelRadius   = 1 // 3x3
	obstacleOpenIterations = 2
)

// ObstacleMonitor compares frames against a blurred grayscale reference of
// the watched region and reports when too much of it has changed.
type ObstacleMonitor struct {
	region        []image.Point
	diffThreshold int
	changeRatio   float64
	rebaseline    int
	logger        logging.Logger

	mu         sync.Mutex
	reference  [][]int
	frameCount int
}

// NewObstacleMonitor watches the quadrilateral region.
func NewObstacleMonitor(region []image.Point, cfg ObstacleConfig, logger logging.Logger) (*ObstacleMonitor, error) {
	if len(region) != 4 {
		return nil, fmt.Errorf("obstacle region needs 4 points, got %d: %w", len(region), ErrInvalidInput)
	}
	rebaseline := cfg.RebaselineFrames
	if rebaseline <= 0 {
		rebaseline = defaultRebaselineFrames
	}
	return &ObstacleMonitor{
		region:        append([]image.Point(nil), region...),
		diffThreshold: cfg.diffThreshold(),
		changeRatio:   cfg.changeRatio(),
		rebaseline:    rebaseline,
		logger:        logger,
	}, nil
}

// Initialize stores frame as the reference.
func (m *ObstacleMonitor) Initialize(frame image.Image) error {
	gray, err := m.prepare(frame)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reference = gray
	m.frameCount = 0
	m.logger.Infof("obstacle detection initialized with reference frame")
	return nil
}

// Initialized reports whether a reference frame exists.
func (m *ObstacleMonitor) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reference != nil
}

// CheckFrame reports whether an obstacle is over the region. Every
// RebaselineFrames clear frames the reference is replaced by the current one.
func (m *ObstacleMonitor) CheckFrame(frame image.Image) (bool, error) {
	current, err := m.prepare(frame)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reference == nil {
		return false, ErrNotInitialized
	}

	ratio, err := changedRatio(m.reference, current, m.diffThreshold)
	if err != nil {
		return false, err
	}

	if ratio > m.changeRatio {
		m.logger.Debugf("obstacle detected, %.4f of region changed", ratio)
		return true, nil
	}

	m.frameCount++
	if m.frameCount%m.rebaseline == 0 {
		m.reference = current
		m.logger.Infof("reference frame updated")
	}
	return false, nil
}

func (m *ObstacleMonitor) prepare(frame image.Image) ([][]int, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("empty frame: %w", ErrInvalidInput)
	}
	masked, err := MaskOutsideQuadWhite(frame, m.region)
	if err != nil {
		return nil, err
	}
	return makeBlurredGray(masked, defaultObstacleBlurSigma), nil
}

// changedRatio thresholds the absolute difference, cleans it with an
// opening and a dilation, and returns the fraction of set pixels.
func changedRatio(reference, current [][]int, threshold int) (float64, error) {
	rw, rh := len(reference[0]), len(reference)
	if len(current) != rh || len(current[0]) != rw {
		return 0, fmt.Errorf("frame size %dx%d differs from reference %dx%d: %w",
			len(current[0]), len(current), rw, rh, ErrInvalidInput)
	}

	diff := newMask(rw, rh)
	for y := range rh {
		for x := range rw {
			d := reference[y][x] - current[y][x]
			if d < 0 {
				d = -d
			}
			diff[y][x] = d > threshold
		}
	}

	diff = openMask(diff, obstacleKernelRadius, obstacleOpenIterations)
	diff = dilateMask(diff, obstacleKernelRadius)

	return float64(countMask(diff)) / float64(rw*rh), nil
}
