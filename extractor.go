package cubetracker

import (
	"context"
	"fmt"
	"image"

	"go.viam.com/rdk/logging"
	"go.viam.com/utils/trace"
)

// Extraction is the result of running the board pipeline on one frame.
type Extraction struct {
	// Warped is the rectified, rotated frame before saturation was boosted.
	Warped  *image.NRGBA
	Cubes   []CubeDetection
	Squares []SquareCell
	// State is nil when no cubes were found at all.
	State BoardState
}

// Extractor turns camera frames into board states.
type Extractor struct {
	cfg    *BoardConfig
	logger logging.Logger
}

// NewExtractor validates cfg (after defaults) and builds an extractor.
func NewExtractor(cfg *BoardConfig, logger logging.Logger) (*Extractor, error) {
	c := cfg.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: c, logger: logger}, nil
}

// Config returns the extractor's config with defaults applied.
func (e *Extractor) Config() *BoardConfig {
	return e.cfg
}

// Extract runs warp, rotate, saturate, detect, partition and assign.
// Finding no cubes is not an error: the returned Extraction has a nil State.
func (e *Extractor) Extract(ctx context.Context, frame image.Image) (*Extraction, error) {
	ctx, span := trace.StartSpan(ctx, "cubetracker::Extract")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("empty frame: %w", ErrInvalidInput)
	}

	// Step 1: corners
	corners, err := OrderCorners(toPoints(e.cfg.ChessboardPoints))
	if err != nil {
		return nil, fmt.Errorf("ordering board corners: %w", err)
	}

	// Step 2: top-down view
	warped, _, err := ComputeWarp(frame, corners, e.cfg.warpSize())
	if err != nil {
		return nil, fmt.Errorf("warping board: %w", err)
	}

	// Step 3: orientation
	if angle := e.cfg.rotation(); angle != 0 {
		warped = RotateImage(warped, angle)
	}

	res := &Extraction{Warped: warped}

	// Step 4 and 5: cubes on the saturated copy
	saturated := EnhanceSaturation(warped, e.cfg.saturationBoost())
	res.Cubes, err = DetectCubes(saturated, e.cfg.CubeDetection, e.cfg.ColorSpace, e.cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("detecting cubes: %w", err)
	}
	if len(res.Cubes) == 0 {
		e.logger.Debugf("no cubes detected")
		return res, nil
	}

	// Step 6: squares on the unsaturated image
	grid := e.cfg.Grid()
	res.Squares = PartitionSquares(warped.Bounds().Dx(), warped.Bounds().Dy(), grid)
	if len(res.Squares) != grid.Rows*grid.Cols {
		return nil, fmt.Errorf("got %d squares for a %dx%d grid: %w",
			len(res.Squares), grid.Rows, grid.Cols, ErrSquareDetectionMismatch)
	}

	// Step 7 and 8: cube centers to squares
	res.State, err = assignCubes(res.Cubes, res.Squares, grid)
	if err != nil {
		return nil, err
	}

	e.logger.Debugf("detected %d cubes on %d squares: %v", len(res.Cubes), len(res.State), res.State.Strings())
	return res, nil
}

// assignCubes puts every cube on the square containing its center.
// Cubes whose center is outside the grid are dropped.
func assignCubes(cubes []CubeDetection, squares []SquareCell, g GridSize) (BoardState, error) {
	state := BoardState{}
	for _, c := range cubes {
		cx, cy := c.Center()
		for _, sq := range squares {
			if !sq.Contains(cx, cy) {
				continue
			}
			label, err := NewSquareLabel(sq.Row, sq.Col, g)
			if err != nil {
				return nil, err
			}
			state[label] = append(state[label], c.Color)
			break
		}
	}
	return state, nil
}
