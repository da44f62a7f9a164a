// Package grid defines the level grids exchanged between the quantizer, the
// WFC solver, and the renderer.
//
// A [Grid] is a rectangular, row-major array of [Level] values. The same type
// carries the sample learned from and the final generated output.
package grid

import (
	"fmt"
	"strings"

	"github.com/matzehuels/waveflow/pkg/errors"
)

// Level is a discretized luminance bucket in [1, L].
// The zero value is never a valid level.
type Level uint8

// MaxLevels is the largest supported number of levels. Validation in
// pkg/errors owns the value.
const MaxLevels = errors.MaxLevels

// Level must be able to hold every level up to MaxLevels.
const _ = Level(MaxLevels)

// Grid is a Width×Height row-major array of levels.
type Grid struct {
	Width  int
	Height int
	Cells  []Level
}

// New allocates a zero-filled grid.
func New(width, height int) Grid {
	return Grid{Width: width, Height: height, Cells: make([]Level, width*height)}
}

// FromRows builds a grid from nested rows. All rows must share a length.
func FromRows(rows [][]Level) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Grid{}, errors.New(errors.ErrCodeInvalidSample, "grid has no cells")
	}
	width := len(rows[0])
	g := New(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return Grid{}, errors.New(errors.ErrCodeInvalidSample,
				"row %d has %d cells, want %d", y, len(row), width)
		}
		copy(g.Cells[y*width:], row)
	}
	return g, nil
}

// MustFromRows is like FromRows but panics on error. Intended for tests and
// package examples.
func MustFromRows(rows [][]Level) Grid {
	g, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// Len returns the number of cells.
func (g Grid) Len() int { return len(g.Cells) }

// Empty reports whether the grid has no cells.
func (g Grid) Empty() bool { return g.Width <= 0 || g.Height <= 0 || len(g.Cells) == 0 }

// Index returns the row-major index of (x, y).
func (g Grid) Index(x, y int) int { return y*g.Width + x }

// In reports whether (x, y) lies inside the grid.
func (g Grid) In(x, y int) bool { return x >= 0 && y >= 0 && x < g.Width && y < g.Height }

// At returns the level at (x, y).
func (g Grid) At(x, y int) Level { return g.Cells[g.Index(x, y)] }

// Set stores v at (x, y).
func (g Grid) Set(x, y int, v Level) { g.Cells[g.Index(x, y)] = v }

// Rows returns a nested copy of the grid.
func (g Grid) Rows() [][]Level {
	rows := make([][]Level, g.Height)
	for y := range g.Height {
		rows[y] = append([]Level(nil), g.Cells[y*g.Width:(y+1)*g.Width]...)
	}
	return rows
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	return Grid{Width: g.Width, Height: g.Height, Cells: append([]Level(nil), g.Cells...)}
}

// Validate checks the grid shape and that every cell is in [1, levels].
// A levels value of 0 skips the upper-bound check.
func (g Grid) Validate(levels int) error {
	if g.Empty() {
		return errors.New(errors.ErrCodeInvalidSample, "grid has no cells")
	}
	if len(g.Cells) != g.Width*g.Height {
		return errors.New(errors.ErrCodeInvalidSample,
			"grid has %d cells, want %dx%d", len(g.Cells), g.Width, g.Height)
	}
	for i, v := range g.Cells {
		if v == 0 || (levels > 0 && int(v) > levels) {
			return errors.New(errors.ErrCodeInvalidSample,
				"cell (%d, %d) has level %d outside [1, %d]", i%g.Width, i/g.Width, v, levels)
		}
	}
	return nil
}

// Histogram counts cells per level. Index 0 is unused.
func (g Grid) Histogram() [MaxLevels + 1]int {
	var h [MaxLevels + 1]int
	for _, v := range g.Cells {
		h[v]++
	}
	return h
}

// String renders the grid as space-separated rows, mostly for debugging.
func (g Grid) String() string {
	var b strings.Builder
	for y := range g.Height {
		for x := range g.Width {
			if x > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d", g.At(x, y))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
