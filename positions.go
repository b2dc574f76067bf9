package cubetracker

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
)

// ArmConfig places the board in the arm's frame. A1 and H8 are the x, y
// of the centers of the two corner squares; every other square is
// interpolated between them. Heights are in the same unit.
type ArmConfig struct {
	A1           [2]float64 `json:"a1" yaml:"a1"`
	H8           [2]float64 `json:"h8" yaml:"h8"`
	HoverHeight  float64    `json:"hover_height" yaml:"hover_height"`
	PickupHeight float64    `json:"pickup_height" yaml:"pickup_height"`
	PlaceHeight  float64    `json:"place_height" yaml:"place_height"`
}

// Validate checks the heights make sense.
func (c *ArmConfig) Validate() error {
	if c.A1 == c.H8 {
		return errors.New("arm a1 and h8 references must differ")
	}
	if c.HoverHeight < c.PickupHeight || c.HoverHeight < c.PlaceHeight {
		return fmt.Errorf("hover height %v must be above pickup %v and place %v",
			c.HoverHeight, c.PickupHeight, c.PlaceHeight)
	}
	return nil
}

// SquarePose is where the gripper goes for one square.
type SquarePose struct {
	Hover, Pickup, Place r3.Vector
}

// SquarePoses interpolates the arm positions for label on grid g.
func (c *ArmConfig) SquarePoses(label SquareLabel, g GridSize) (SquarePose, error) {
	row, col := label.RowCol(g)
	if label.IsZero() || row < 0 || row >= g.Rows || col >= g.Cols {
		return SquarePose{}, fmt.Errorf("square %q not on %dx%d grid: %w", label, g.Rows, g.Cols, ErrInvalidInput)
	}

	// row 0 is the far rank, the H8 side
	fx, fy := 0.0, 0.0
	if g.Cols > 1 {
		fx = float64(col) / float64(g.Cols-1)
	}
	if g.Rows > 1 {
		fy = float64(g.Rows-1-row) / float64(g.Rows-1)
	}
	x := c.A1[0] + (c.H8[0]-c.A1[0])*fx
	y := c.A1[1] + (c.H8[1]-c.A1[1])*fy

	return SquarePose{
		Hover:  r3.Vector{X: x, Y: y, Z: c.HoverHeight},
		Pickup: r3.Vector{X: x, Y: y, Z: c.PickupHeight},
		Place:  r3.Vector{X: x, Y: y, Z: c.PlaceHeight},
	}, nil
}
