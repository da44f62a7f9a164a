package wfc

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/matzehuels/waveflow/pkg/grid"
)

// LevelSet is a set of levels backed by a fixed 256-bit mask, one bit per
// level. It is a value type: copies are independent and comparable with ==.
type LevelSet [4]uint64

// FullSet returns {1..n}. n is clamped to [0, grid.MaxLevels].
func FullSet(n int) LevelSet {
	var s LevelSet
	n = max(0, min(n, grid.MaxLevels))
	for l := 1; l <= n; l++ {
		s[l>>6] |= 1 << (l & 63)
	}
	return s
}

// SetOf returns the set holding the given levels.
func SetOf(levels ...grid.Level) LevelSet {
	var s LevelSet
	for _, l := range levels {
		s.Add(l)
	}
	return s
}

// Has reports whether l is in the set.
func (s LevelSet) Has(l grid.Level) bool { return s[l>>6]&(1<<(l&63)) != 0 }

// Add inserts l.
func (s *LevelSet) Add(l grid.Level) { s[l>>6] |= 1 << (l & 63) }

// Remove deletes l.
func (s *LevelSet) Remove(l grid.Level) { s[l>>6] &^= 1 << (l & 63) }

// Len returns the number of levels in the set.
func (s LevelSet) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1]) +
		bits.OnesCount64(s[2]) + bits.OnesCount64(s[3])
}

// Empty reports whether the set has no levels.
func (s LevelSet) Empty() bool { return s == LevelSet{} }

// Union returns s ∪ o.
func (s LevelSet) Union(o LevelSet) LevelSet {
	return LevelSet{s[0] | o[0], s[1] | o[1], s[2] | o[2], s[3] | o[3]}
}

// Intersect returns s ∩ o.
func (s LevelSet) Intersect(o LevelSet) LevelSet {
	return LevelSet{s[0] & o[0], s[1] & o[1], s[2] & o[2], s[3] & o[3]}
}

// SubsetOf reports whether every level of s is in o.
func (s LevelSet) SubsetOf(o LevelSet) bool { return s.Intersect(o) == s }

// Nth returns the i-th smallest level, for 0 <= i < Len.
func (s LevelSet) Nth(i int) (grid.Level, bool) {
	for w, word := range s {
		c := bits.OnesCount64(word)
		if i >= c {
			i -= c
			continue
		}
		for ; i > 0; i-- {
			word &= word - 1
		}
		return grid.Level(w*64 + bits.TrailingZeros64(word)), true
	}
	return 0, false
}

// Single returns the only level of a one-element set.
func (s LevelSet) Single() (grid.Level, bool) {
	if s.Len() != 1 {
		return 0, false
	}
	return s.Nth(0)
}

// Each calls fn for every level in ascending order.
func (s LevelSet) Each(fn func(grid.Level)) {
	for w, word := range s {
		for word != 0 {
			fn(grid.Level(w*64 + bits.TrailingZeros64(word)))
			word &= word - 1
		}
	}
}

// Levels returns the members in ascending order.
func (s LevelSet) Levels() []grid.Level {
	out := make([]grid.Level, 0, s.Len())
	s.Each(func(l grid.Level) { out = append(out, l) })
	return out
}

// String formats the set as "{1, 2, 5}".
func (s LevelSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.Each(func(l grid.Level) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(strconv.Itoa(int(l)))
	})
	b.WriteByte('}')
	return b.String()
}
