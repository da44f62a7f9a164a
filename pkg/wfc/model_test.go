package wfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

func TestBuildModelUniform(t *testing.T) {
	sample := grid.MustFromRows([][]grid.Level{
		{1, 1},
		{1, 1},
	})
	m, err := BuildModel(sample)
	require.NoError(t, err)

	assert.Equal(t, []grid.Level{1}, m.Levels())
	c, ok := m.Constraint(1)
	require.True(t, ok)
	for _, d := range Directions {
		assert.Equal(t, SetOf(1), c.In(d), "direction %s", d)
	}
}

func TestBuildModelCheckerboard(t *testing.T) {
	sample := grid.MustFromRows([][]grid.Level{
		{1, 2},
		{2, 1},
	})
	m, err := BuildModel(sample)
	require.NoError(t, err)

	one, ok := m.Constraint(1)
	require.True(t, ok)
	assert.Equal(t, SetOf(2), one.Top())
	assert.Equal(t, SetOf(2), one.Bottom())
	assert.Equal(t, SetOf(2), one.Left())
	assert.Equal(t, SetOf(2), one.Right())

	two, ok := m.Constraint(2)
	require.True(t, ok)
	for _, d := range Directions {
		assert.Equal(t, SetOf(1), two.In(d), "direction %s", d)
	}
	assert.True(t, m.IsSymmetric())
}

func TestBuildModelIsolatedLevel(t *testing.T) {
	m, err := BuildModel(grid.MustFromRows([][]grid.Level{{3}}))
	require.NoError(t, err)

	c, ok := m.Constraint(3)
	require.True(t, ok)
	for _, d := range Directions {
		assert.True(t, c.In(d).Empty(), "direction %s should be empty", d)
	}
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, grid.Level(3), m.MaxLevel())
}

func TestBuildModelDirections(t *testing.T) {
	// 1 2 3
	// 4 5 6
	sample := grid.MustFromRows([][]grid.Level{
		{1, 2, 3},
		{4, 5, 6},
	})
	m, err := BuildModel(sample)
	require.NoError(t, err)

	five, _ := m.Constraint(5)
	assert.Equal(t, SetOf(2), five.Top())
	assert.True(t, five.Bottom().Empty())
	assert.Equal(t, SetOf(4), five.Left())
	assert.Equal(t, SetOf(6), five.Right())

	one, _ := m.Constraint(1)
	assert.True(t, one.Top().Empty())
	assert.True(t, one.Left().Empty())
	assert.Equal(t, SetOf(4), one.Bottom())
	assert.Equal(t, SetOf(2), one.Right())

	assert.False(t, m.Has(7), "absent levels get no entry")
	_, ok := m.Constraint(7)
	assert.False(t, ok)
}

func TestBuildModelIdempotent(t *testing.T) {
	sample := grid.MustFromRows([][]grid.Level{
		{1, 2, 2, 3},
		{3, 1, 2, 2},
		{2, 3, 1, 1},
	})
	a, err := BuildModel(sample)
	require.NoError(t, err)
	b, err := BuildModel(sample)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	other, err := BuildModel(grid.MustFromRows([][]grid.Level{{1, 2}}))
	require.NoError(t, err)
	assert.False(t, a.Equal(other))
}

func TestBuildModelRejectsBadSamples(t *testing.T) {
	tests := []struct {
		name   string
		sample grid.Grid
	}{
		{"zero value", grid.Grid{}},
		{"no cells", grid.New(0, 0)},
		{"level zero", grid.New(2, 2)},
		{"short cells", grid.Grid{Width: 3, Height: 3, Cells: []grid.Level{1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildModel(tt.sample)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidSample), "got %v", err)
		})
	}
}

func TestModelAllowed(t *testing.T) {
	m, err := NewModel(map[grid.Level]Constraint{
		1: {Right: SetOf(2)},
		2: {Right: SetOf(1, 3)},
	})
	require.NoError(t, err)

	assert.Equal(t, SetOf(1, 2, 3), m.Allowed(SetOf(1, 2), Right))
	assert.Equal(t, SetOf(2), m.Allowed(SetOf(1, 5), Right), "levels without entry contribute nothing")
	assert.True(t, m.Allowed(SetOf(4, 5), Right).Empty())
	assert.True(t, m.Allowed(SetOf(1, 2), Left).Empty())
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(map[grid.Level]Constraint{
		1: {Right: SetOf(2)},
		2: {},
	})
	require.NoError(t, err)
	assert.False(t, m.IsSymmetric(), "hand-authored rules need not be symmetric")

	_, err = NewModel(map[grid.Level]Constraint{0: {}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = NewModel(map[grid.Level]Constraint{1: {Top: SetOf(0)}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestModelAccessorsReturnCopies(t *testing.T) {
	m, err := BuildModel(grid.MustFromRows([][]grid.Level{{1, 2}}))
	require.NoError(t, err)
	before, err := BuildModel(grid.MustFromRows([][]grid.Level{{1, 2}}))
	require.NoError(t, err)

	c, _ := m.Constraint(1)
	c[Right].Add(9)
	p := m.Present()
	p.Add(9)

	assert.True(t, m.Equal(before))
}
