package wfc

import (
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

// Constraint holds, per direction, the levels observed next to one level.
type Constraint [NumDirections]LevelSet

// In returns the levels allowed in direction d.
func (c Constraint) In(d Direction) LevelSet { return c[d] }

// Top returns the levels observed directly above.
func (c Constraint) Top() LevelSet { return c[Top] }

// Bottom returns the levels observed directly below.
func (c Constraint) Bottom() LevelSet { return c[Bottom] }

// Left returns the levels observed directly to the left.
func (c Constraint) Left() LevelSet { return c[Left] }

// Right returns the levels observed directly to the right.
func (c Constraint) Right() LevelSet { return c[Right] }

// Model maps each level observed in a sample to its directional constraint.
//
// A Model has no exported mutators and every accessor returns a copy, so a
// built model can be shared freely, including across goroutines.
type Model struct {
	present LevelSet
	rules   [grid.MaxLevels + 1]Constraint
}

// BuildModel scans every cell of sample once and records the levels of its
// existing neighbors in each direction.
//
// Levels absent from the sample get no entry. Because every cell is visited,
// an adjacency seen from one side is also recorded from the other, but the
// model stores exactly what was scanned and never symmetrizes.
//
// An empty sample, or one holding level 0, fails with
// errors.ErrCodeInvalidSample.
func BuildModel(sample grid.Grid) (*Model, error) {
	if err := sample.Validate(0); err != nil {
		return nil, err
	}

	m := &Model{}
	for y := range sample.Height {
		for x := range sample.Width {
			v := sample.At(x, y)
			m.present.Add(v)
			for _, d := range Directions {
				dx, dy := d.Offset()
				nx, ny := x+dx, y+dy
				if !sample.In(nx, ny) {
					continue
				}
				m.rules[v][d].Add(sample.At(nx, ny))
			}
		}
	}
	return m, nil
}

// NewModel builds a model from explicit constraints, for hand-authored rules
// and deserialized models. Level 0 is rejected.
func NewModel(constraints map[grid.Level]Constraint) (*Model, error) {
	m := &Model{}
	for l, c := range constraints {
		if l == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "level 0 is not a valid level")
		}
		for _, d := range Directions {
			if c[d].Has(0) {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"level %d lists level 0 as %s neighbor", l, d)
			}
		}
		m.present.Add(l)
		m.rules[l] = c
	}
	return m, nil
}

// Has reports whether level l has an entry.
func (m *Model) Has(l grid.Level) bool { return m.present.Has(l) }

// Constraint returns the constraint for l and whether l has an entry.
func (m *Model) Constraint(l grid.Level) (Constraint, bool) {
	if !m.present.Has(l) {
		return Constraint{}, false
	}
	return m.rules[l], true
}

// Levels returns the levels with an entry, ascending.
func (m *Model) Levels() []grid.Level { return m.present.Levels() }

// Present returns the set of levels with an entry.
func (m *Model) Present() LevelSet { return m.present }

// Len returns the number of entries.
func (m *Model) Len() int { return m.present.Len() }

// MaxLevel returns the largest level with an entry, or 0 for an empty model.
func (m *Model) MaxLevel() grid.Level {
	var top grid.Level
	m.present.Each(func(l grid.Level) { top = l })
	return top
}

// Allowed returns the union of the d-direction sets of every level in set.
// Levels without an entry contribute nothing.
func (m *Model) Allowed(set LevelSet, d Direction) LevelSet {
	var out LevelSet
	set.Intersect(m.present).Each(func(l grid.Level) {
		out = out.Union(m.rules[l][d])
	})
	return out
}

// Equal reports whether both models hold the same entries.
func (m *Model) Equal(o *Model) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.present == o.present && m.rules == o.rules
}

// IsSymmetric reports whether every recorded adjacency is also recorded from
// the other side. Models from BuildModel always are; hand-authored ones need
// not be.
func (m *Model) IsSymmetric() bool {
	ok := true
	m.present.Each(func(l grid.Level) {
		for _, d := range Directions {
			m.rules[l][d].Each(func(w grid.Level) {
				if !m.present.Has(w) || !m.rules[w][d.Opposite()].Has(l) {
					ok = false
				}
			})
		}
	})
	return ok
}
