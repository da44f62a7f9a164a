package wfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/waveflow/pkg/grid"
)

func TestFullSet(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{4, 4},
		{64, 64},
		{65, 65},
		{255, 255},
		{300, 255},
		{-2, 0},
	}
	for _, tt := range tests {
		s := FullSet(tt.n)
		assert.Equal(t, tt.want, s.Len(), "FullSet(%d)", tt.n)
		assert.False(t, s.Has(0), "FullSet(%d) must not contain level 0", tt.n)
	}

	s := FullSet(3)
	assert.Equal(t, []grid.Level{1, 2, 3}, s.Levels())
}

func TestLevelSetAddRemove(t *testing.T) {
	var s LevelSet
	assert.True(t, s.Empty())

	for _, l := range []grid.Level{1, 63, 64, 127, 128, 255} {
		s.Add(l)
		assert.True(t, s.Has(l), "Has(%d) after Add", l)
	}
	assert.Equal(t, 6, s.Len())

	s.Add(64)
	assert.Equal(t, 6, s.Len(), "Add is idempotent")

	s.Remove(64)
	assert.False(t, s.Has(64))
	assert.Equal(t, []grid.Level{1, 63, 127, 128, 255}, s.Levels())
}

func TestLevelSetAlgebra(t *testing.T) {
	a := SetOf(1, 2, 3, 200)
	b := SetOf(2, 3, 4)

	assert.Equal(t, SetOf(1, 2, 3, 4, 200), a.Union(b))
	assert.Equal(t, SetOf(2, 3), a.Intersect(b))
	assert.True(t, SetOf(2, 3).SubsetOf(a))
	assert.False(t, b.SubsetOf(a))
	assert.True(t, LevelSet{}.SubsetOf(a))
}

func TestLevelSetNth(t *testing.T) {
	s := SetOf(5, 70, 130, 250)
	for i, want := range []grid.Level{5, 70, 130, 250} {
		got, ok := s.Nth(i)
		require.True(t, ok)
		assert.Equal(t, want, got, "Nth(%d)", i)
	}
	_, ok := s.Nth(4)
	assert.False(t, ok)
}

func TestLevelSetSingle(t *testing.T) {
	l, ok := SetOf(9).Single()
	assert.True(t, ok)
	assert.Equal(t, grid.Level(9), l)

	_, ok = SetOf(1, 2).Single()
	assert.False(t, ok)

	_, ok = LevelSet{}.Single()
	assert.False(t, ok)
}

func TestLevelSetString(t *testing.T) {
	assert.Equal(t, "{}", LevelSet{}.String())
	assert.Equal(t, "{1, 2, 100}", SetOf(100, 2, 1).String())
}

func TestDirections(t *testing.T) {
	assert.Equal(t, Bottom, Top.Opposite())
	assert.Equal(t, Top, Bottom.Opposite())
	assert.Equal(t, Right, Left.Opposite())
	assert.Equal(t, Left, Right.Opposite())

	for _, d := range Directions {
		dx, dy := d.Offset()
		ox, oy := d.Opposite().Offset()
		assert.Equal(t, 0, dx+ox, "%s offsets must cancel", d)
		assert.Equal(t, 0, dy+oy, "%s offsets must cancel", d)
		assert.Equal(t, 1, abs(dx)+abs(dy), "%s must move one step", d)
	}

	assert.Equal(t, "top", Top.String())
	assert.Equal(t, "invalid", Direction(9).String())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
