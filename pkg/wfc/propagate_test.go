package wfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/waveflow/pkg/grid"
)

func TestSelectLowestEntropy(t *testing.T) {
	w, err := NewWave(3, 3, 4)
	require.NoError(t, err)
	rng := NewRand(1)

	w.cells[w.index(2, 1)] = SetOf(1, 2)
	w.cells[w.index(0, 0)] = SetOf(3)    // collapsed
	w.cells[w.index(1, 1)] = LevelSet{} // contradictory

	for range 20 {
		x, y, ok := SelectLowestEntropy(w, rng)
		require.True(t, ok)
		assert.Equal(t, [2]int{2, 1}, [2]int{x, y})
	}
}

func TestSelectorTiesAreUniform(t *testing.T) {
	w, err := NewWave(4, 1, 3)
	require.NoError(t, err)
	w.cells[0] = SetOf(1, 2)
	w.cells[3] = SetOf(2, 3)

	var s Selector
	rng := NewRand(7)
	counts := map[int]int{}
	for range 2000 {
		x, _, ok := s.Select(w, rng)
		require.True(t, ok)
		counts[x]++
	}
	assert.Len(t, counts, 2, "only the two lowest-entropy cells are candidates")
	assert.InDelta(t, 1000, counts[0], 150)
	assert.InDelta(t, 1000, counts[3], 150)
}

func TestSelectNoneWhenNothingOpen(t *testing.T) {
	w, err := NewWave(2, 1, 3)
	require.NoError(t, err)
	w.cells[0] = SetOf(1)
	w.cells[1] = LevelSet{}

	_, _, ok := SelectLowestEntropy(w, NewRand(1))
	assert.False(t, ok, "contradictory and collapsed cells are never selected")
}

func TestCollapse(t *testing.T) {
	w, err := NewWave(1, 1, 3)
	require.NoError(t, err)
	w.cells[0] = SetOf(2, 3)

	seen := map[grid.Level]bool{}
	rng := NewRand(3)
	for range 200 {
		w.cells[0] = SetOf(2, 3)
		l := Collapse(w, 0, 0, rng)
		assert.Equal(t, SetOf(l), w.Cell(0, 0))
		seen[l] = true
	}
	assert.Equal(t, map[grid.Level]bool{2: true, 3: true}, seen)

	w.cells[0] = LevelSet{}
	assert.Equal(t, grid.Level(0), Collapse(w, 0, 0, rng))
	assert.True(t, w.Cell(0, 0).Empty())
}

func chainModel(t *testing.T) *Model {
	t.Helper()
	// A strict left-to-right staircase: 1 → 2 → 3 → 1.
	m, err := NewModel(map[grid.Level]Constraint{
		1: {Right: SetOf(2), Left: SetOf(3), Top: FullSet(3), Bottom: FullSet(3)},
		2: {Right: SetOf(3), Left: SetOf(1), Top: FullSet(3), Bottom: FullSet(3)},
		3: {Right: SetOf(1), Left: SetOf(2), Top: FullSet(3), Bottom: FullSet(3)},
	})
	require.NoError(t, err)
	return m
}

func TestPropagateChain(t *testing.T) {
	w, err := NewWave(5, 1, 3)
	require.NoError(t, err)
	p := NewPropagator(chainModel(t))

	w.cells[0] = SetOf(1)
	stats := p.Propagate(w, 0, 0)

	want := []grid.Level{1, 2, 3, 1, 2}
	for x, l := range want {
		assert.Equal(t, SetOf(l), w.Cell(x, 0), "cell %d", x)
	}
	assert.Equal(t, 4, stats.Shrinks)
	assert.Equal(t, 0, stats.Contradictions)
	assert.Equal(t, 5, stats.Visited)
}

func TestPropagateStopsAtFixpoint(t *testing.T) {
	w, err := NewWave(3, 3, 3)
	require.NoError(t, err)
	p := NewPropagator(chainModel(t))

	// Vertical constraints are unrestricted, so nothing outside row 1 shrinks.
	w.cells[w.index(0, 1)] = SetOf(1)
	p.Propagate(w, 0, 1)
	for _, y := range []int{0, 2} {
		for x := range 3 {
			assert.Equal(t, FullSet(3), w.Cell(x, y))
		}
	}
	assert.Equal(t, SetOf(2), w.Cell(1, 1))
	assert.Equal(t, SetOf(3), w.Cell(2, 1))
}

func TestPropagateStoresContradictions(t *testing.T) {
	m, err := BuildModel(grid.MustFromRows([][]grid.Level{{1}}))
	require.NoError(t, err)
	w, err := NewWave(3, 1, 2)
	require.NoError(t, err)

	w.cells[1] = SetOf(1)
	stats := NewPropagator(m).Propagate(w, 1, 0)

	// Both neighbors empty out, and the emptied left cell then allows
	// nothing to its right, emptying the seed as well.
	for x := range 3 {
		assert.True(t, w.Cell(x, 0).Empty(), "cell %d", x)
	}
	assert.Equal(t, 3, stats.Contradictions)
	assert.Equal(t, 3, stats.Shrinks)
}

func TestPropagateNeverGrowsSets(t *testing.T) {
	sample := grid.MustFromRows([][]grid.Level{
		{1, 2, 3},
		{2, 3, 1},
		{3, 1, 2},
	})
	m, err := BuildModel(sample)
	require.NoError(t, err)

	w, err := NewWave(6, 6, 3)
	require.NoError(t, err)
	rng := NewRand(11)
	p := NewPropagator(m)
	var s Selector

	prev := w.Entropies()
	for {
		x, y, ok := s.Select(w, rng)
		if !ok {
			break
		}
		Collapse(w, x, y, rng)
		p.Propagate(w, x, y)
		cur := w.Entropies()
		for i := range cur {
			require.LessOrEqual(t, cur[i], prev[i], "cell %d grew", i)
		}
		prev = cur
	}
}
