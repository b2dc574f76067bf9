package cubetracker

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// maxGridCols is the number of column letters available.
const maxGridCols = 26

// GridSize is the number of rows and columns on the board.
type GridSize struct {
	Rows, Cols int
}

// DefaultGrid is a regular chessboard.
var DefaultGrid = GridSize{Rows: 8, Cols: 8}

func (g GridSize) valid() bool {
	return g.Rows > 0 && g.Cols > 0 && g.Cols <= maxGridCols
}

// SquareCell is one grid cell in warped-image coordinates.
type SquareCell struct {
	Row, Col int
	Box      image.Rectangle
}

// Contains reports whether (x, y) lies in the cell, using half-open bounds.
func (c SquareCell) Contains(x, y float64) bool {
	return float64(c.Box.Min.X) <= x && x < float64(c.Box.Max.X) &&
		float64(c.Box.Min.Y) <= y && y < float64(c.Box.Max.Y)
}

// PartitionSquares splits a width x height image into g.Rows*g.Cols cells, row major.
// Boundaries are rounded per index so neighbouring cells share edges exactly.
func PartitionSquares(width, height int, g GridSize) []SquareCell {
	if !g.valid() || width <= 0 || height <= 0 {
		return nil
	}

	cellW := float64(width) / float64(g.Cols)
	cellH := float64(height) / float64(g.Rows)

	// half-to-even, same as the settings tooling
	edge := func(i int, size float64) int {
		return int(math.RoundToEven(float64(i) * size))
	}

	cells := make([]SquareCell, 0, g.Rows*g.Cols)
	for row := range g.Rows {
		for col := range g.Cols {
			cells = append(cells, SquareCell{
				Row: row,
				Col: col,
				Box: image.Rect(edge(col, cellW), edge(row, cellH), edge(col+1, cellW), edge(row+1, cellH)),
			})
		}
	}
	return cells
}

// SquareLabel names a square, e.g. A8. Build one with NewSquareLabel or
// ParseSquareLabel; the zero value is not a valid square.
type SquareLabel struct {
	file int // 0 is A
	rank int // 1 based
}

// NewSquareLabel names the cell at row, col: columns are lettered from A
// and the rank is g.Rows-row, so row 0 is the highest rank.
func NewSquareLabel(row, col int, g GridSize) (SquareLabel, error) {
	if !g.valid() {
		return SquareLabel{}, fmt.Errorf("bad grid %dx%d: %w", g.Rows, g.Cols, ErrInvalidInput)
	}
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return SquareLabel{}, fmt.Errorf("cell (%d, %d) outside %dx%d grid: %w", row, col, g.Rows, g.Cols, ErrInvalidInput)
	}
	return SquareLabel{file: col, rank: g.Rows - row}, nil
}

// ParseSquareLabel reads a label such as "a1" or "H8" for grid g.
func ParseSquareLabel(s string, g GridSize) (SquareLabel, error) {
	if len(s) < 2 {
		return SquareLabel{}, fmt.Errorf("bad square %q: %w", s, ErrInvalidInput)
	}
	letter := strings.ToUpper(s[:1])[0]
	if letter < 'A' || letter > 'Z' {
		return SquareLabel{}, fmt.Errorf("bad square file in %q: %w", s, ErrInvalidInput)
	}
	rank, err := strconv.Atoi(s[1:])
	if err != nil {
		return SquareLabel{}, fmt.Errorf("bad square rank in %q: %w", s, ErrInvalidInput)
	}
	return NewSquareLabel(g.Rows-rank, int(letter-'A'), g)
}

// MustSquare is ParseSquareLabel on the 8x8 grid that panics on error.
func MustSquare(s string) SquareLabel {
	l, err := ParseSquareLabel(s, DefaultGrid)
	if err != nil {
		panic(err)
	}
	return l
}

// IsZero reports whether l was never set.
func (l SquareLabel) IsZero() bool {
	return l.rank == 0
}

// File is the 0 based column index.
func (l SquareLabel) File() int {
	return l.file
}

// Rank is the 1 based rank number.
func (l SquareLabel) Rank() int {
	return l.rank
}

// RowCol returns the grid cell of l on grid g.
func (l SquareLabel) RowCol(g GridSize) (int, int) {
	return g.Rows - l.rank, l.file
}

func (l SquareLabel) String() string {
	if l.IsZero() {
		return ""
	}
	return string(rune('A'+l.file)) + strconv.Itoa(l.rank)
}

// Token is the lower case form used in move tokens.
func (l SquareLabel) Token() string {
	return strings.ToLower(l.String())
}

// less orders labels file first, then rank: A1, A2, ... B1.
func (l SquareLabel) less(o SquareLabel) bool {
	if l.file != o.file {
		return l.file < o.file
	}
	return l.rank < o.rank
}
