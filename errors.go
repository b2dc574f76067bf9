package cubetracker

import "errors"

var (
	// ErrInvalidInput is returned for malformed geometry, e.g. a quadrilateral without 4 points.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized is returned when an obstacle check runs before a baseline exists.
	ErrNotInitialized = errors.New("obstacle detection not initialized")

	// ErrCaptureFailure wraps camera read failures. Callers decide whether to retry.
	ErrCaptureFailure = errors.New("capture failure")

	// ErrSquareDetectionMismatch means the grid partition did not produce rows*cols cells.
	ErrSquareDetectionMismatch = errors.New("squares not properly detected")

	// ErrMultipleOccupants is returned by CompareBoards when a square holds more than one cube.
	ErrMultipleOccupants = errors.New("square has more than one occupant")

	// ErrIllegalMove is returned by the game tracker when no detected move is legal.
	ErrIllegalMove = errors.New("illegal move")
)
