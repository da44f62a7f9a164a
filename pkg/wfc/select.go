package wfc

import (
	"math/rand/v2"

	"github.com/matzehuels/waveflow/pkg/grid"
)

// Selector picks the next cell to collapse. It keeps its tie buffer between
// calls; a Selector must not be shared across goroutines.
type Selector struct {
	ties []int
}

// Select scans every cell and returns one chosen uniformly at random among
// the open cells with the smallest candidate count. Cells with zero or one
// candidate are never chosen. ok is false when no open cell remains.
func (s *Selector) Select(w *Wave, rng *rand.Rand) (x, y int, ok bool) {
	best := int(^uint(0) >> 1)
	s.ties = s.ties[:0]
	for i, c := range w.cells {
		n := c.Len()
		if n <= 1 || n > best {
			continue
		}
		if n < best {
			best = n
			s.ties = s.ties[:0]
		}
		s.ties = append(s.ties, i)
	}
	if len(s.ties) == 0 {
		return 0, 0, false
	}
	i := s.ties[rng.IntN(len(s.ties))]
	return i % w.width, i / w.width, true
}

// SelectLowestEntropy is a one-shot Select.
func SelectLowestEntropy(w *Wave, rng *rand.Rand) (x, y int, ok bool) {
	var s Selector
	return s.Select(w, rng)
}

// Collapse replaces the candidate set at (x, y) with a single level drawn
// uniformly from it and returns that level. The choice is final. A cell
// without candidates is left untouched and 0 is returned.
func Collapse(w *Wave, x, y int, rng *rand.Rand) grid.Level {
	i := w.index(x, y)
	n := w.cells[i].Len()
	if n == 0 {
		return 0
	}
	l, _ := w.cells[i].Nth(rng.IntN(n))
	w.cells[i] = SetOf(l)
	return l
}
