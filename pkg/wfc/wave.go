package wfc

import (
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

// CellState classifies a cell by its entropy.
type CellState uint8

const (
	// Contradictory cells have no candidates left.
	Contradictory CellState = iota
	// Collapsed cells have exactly one candidate.
	Collapsed
	// Open cells have more than one candidate.
	Open
)

func (s CellState) String() string {
	switch s {
	case Contradictory:
		return "contradictory"
	case Collapsed:
		return "collapsed"
	default:
		return "open"
	}
}

// Wave is the solver's working state: one candidate set per output cell,
// stored row-major.
type Wave struct {
	width  int
	height int
	levels int
	full   LevelSet
	cells  []LevelSet
}

// NewWave returns a width×height wave with every cell set to {1..levels}.
func NewWave(width, height, levels int) (*Wave, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "wave dimensions must be positive, got %dx%d", width, height)
	}
	if err := errors.ValidateLevels(levels); err != nil {
		return nil, err
	}
	w := &Wave{
		width:  width,
		height: height,
		levels: levels,
		full:   FullSet(levels),
		cells:  make([]LevelSet, width*height),
	}
	w.Reset()
	return w, nil
}

// Reset restores every cell to the full candidate set.
func (w *Wave) Reset() {
	for i := range w.cells {
		w.cells[i] = w.full
	}
}

// Width returns the number of columns.
func (w *Wave) Width() int { return w.width }

// Height returns the number of rows.
func (w *Wave) Height() int { return w.height }

// Levels returns L, the size of the initial candidate set.
func (w *Wave) Levels() int { return w.levels }

// Len returns the number of cells.
func (w *Wave) Len() int { return len(w.cells) }

func (w *Wave) index(x, y int) int { return y*w.width + x }

func (w *Wave) in(x, y int) bool { return x >= 0 && y >= 0 && x < w.width && y < w.height }

// Cell returns a copy of the candidate set at (x, y).
func (w *Wave) Cell(x, y int) LevelSet { return w.cells[w.index(x, y)] }

// Entropy returns the candidate count at (x, y).
func (w *Wave) Entropy(x, y int) int { return w.cells[w.index(x, y)].Len() }

// State classifies the cell at (x, y).
func (w *Wave) State(x, y int) CellState { return stateOf(w.cells[w.index(x, y)].Len()) }

func stateOf(entropy int) CellState {
	switch {
	case entropy == 0:
		return Contradictory
	case entropy == 1:
		return Collapsed
	default:
		return Open
	}
}

// Entropies returns every cell's candidate count, row-major.
func (w *Wave) Entropies() []int {
	out := make([]int, len(w.cells))
	for i, c := range w.cells {
		out[i] = c.Len()
	}
	return out
}

// Counts tallies cells per state.
func (w *Wave) Counts() (open, collapsed, contradictory int) {
	for _, c := range w.cells {
		switch stateOf(c.Len()) {
		case Open:
			open++
		case Collapsed:
			collapsed++
		default:
			contradictory++
		}
	}
	return open, collapsed, contradictory
}

// Extract converts a finished wave into a level grid by taking each cell's
// sole candidate. It fails with a *ContradictionError if any cell is empty.
// Otherwise, open cells are an invariant violation reported as internal
// errors.
func (w *Wave) Extract() (grid.Grid, error) {
	out := grid.New(w.width, w.height)
	var cerr *ContradictionError
	open := -1
	for i, c := range w.cells {
		switch c.Len() {
		case 0:
			if cerr == nil {
				cerr = &ContradictionError{X: i % w.width, Y: i / w.width}
			}
			cerr.Cells++
		case 1:
			out.Cells[i], _ = c.Single()
		default:
			if open < 0 {
				open = i
			}
		}
	}
	if cerr != nil {
		return grid.Grid{}, cerr
	}
	if open >= 0 {
		return grid.Grid{}, errors.New(errors.ErrCodeInternal,
			"cell (%d, %d) still has %d candidates", open%w.width, open/w.width, w.cells[open].Len())
	}
	return out, nil
}
