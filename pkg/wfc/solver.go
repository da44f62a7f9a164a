package wfc

import (
	"context"
	"math/rand/v2"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

// Options configures a Solver.
type Options struct {
	// Width and Height are the output size in cells.
	Width  int
	Height int

	// Levels is L; every cell starts with {1..L}.
	Levels int

	// Rand is the source of every random choice. Nil seeds a fresh source
	// from system entropy.
	Rand *rand.Rand

	// MaxAttempts bounds whole-solve restarts after a contradiction.
	// Values below 2 run a single attempt and report the contradiction.
	MaxAttempts int

	// OnStep, if set, is called after every collapse and its propagation.
	// The wave passed in Step must not be modified.
	OnStep func(Step)
}

// Step describes one collapse and the propagation that followed it.
type Step struct {
	Attempt     int
	Iteration   int
	X, Y        int
	Level       grid.Level
	Propagation PropagateStats
	Wave        *Wave
}

// Stats accumulates counters across all attempts of a Solve.
type Stats struct {
	Attempts    int
	Collapses   int
	Propagation PropagateStats
}

// Solver fills a wave under a model. A Solver is not safe for concurrent
// use; the model may be shared between solvers.
type Solver struct {
	model *Model
	opts  Options
	rng   *rand.Rand
	wave  *Wave
	sel   Selector
	prop  *Propagator
	stats Stats
}

// NewRand returns a PCG-backed source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// RandomSeed draws a seed from the runtime's entropy-seeded generator.
func RandomSeed() uint64 { return rand.Uint64() }

// NewSolver validates opts against m and allocates the wave. It fails fast
// on non-positive dimensions, an out-of-range level count, or a model that
// holds levels above opts.Levels.
func NewSolver(m *Model, opts Options) (*Solver, error) {
	if m == nil || m.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSample, "adjacency model is empty")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"output dimensions must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if err := errors.ValidateLevels(opts.Levels); err != nil {
		return nil, err
	}
	if top := int(m.MaxLevel()); top > opts.Levels {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"model holds level %d but only %d levels are configured", top, opts.Levels)
	}

	w, err := NewWave(opts.Width, opts.Height, opts.Levels)
	if err != nil {
		return nil, err
	}
	rng := opts.Rand
	if rng == nil {
		rng = NewRand(RandomSeed())
	}
	return &Solver{
		model: m,
		opts:  opts,
		rng:   rng,
		wave:  w,
		prop:  NewPropagator(m),
	}, nil
}

// Solve runs select → collapse → propagate until no open cell remains and
// extracts the result. ctx is checked between collapses. Every call starts
// from a full wave and fresh stats, drawing on the same random stream, so
// repeated calls yield new grids.
//
// With a single attempt, contradictions are not looked at until extraction,
// which then fails with a *ContradictionError. With MaxAttempts > 1 an
// attempt is abandoned as soon as propagation empties a cell, and the solve
// starts over on a fresh wave.
func (s *Solver) Solve(ctx context.Context) (grid.Grid, error) {
	attempts := max(1, s.opts.MaxAttempts)
	restart := attempts > 1

	s.stats = Stats{}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		s.stats.Attempts = attempt
		s.wave.Reset()
		if err := s.run(ctx, attempt, restart); err != nil {
			return grid.Grid{}, err
		}

		out, err := s.wave.Extract()
		if err == nil {
			return out, nil
		}
		if ce, ok := err.(*ContradictionError); ok {
			ce.Attempts = attempt
		}
		lastErr = err
		if !IsContradiction(err) {
			return grid.Grid{}, err
		}
	}
	return grid.Grid{}, lastErr
}

// run drives one attempt to the Done state. With stopEarly it returns as soon
// as a contradiction appears, leaving the wave for Extract to report.
func (s *Solver) run(ctx context.Context, attempt int, stopEarly bool) error {
	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, y, ok := s.sel.Select(s.wave, s.rng)
		if !ok {
			return nil
		}
		level := Collapse(s.wave, x, y, s.rng)
		ps := s.prop.Propagate(s.wave, x, y)

		s.stats.Collapses++
		s.stats.Propagation.Add(ps)
		if s.opts.OnStep != nil {
			s.opts.OnStep(Step{
				Attempt:     attempt,
				Iteration:   iter,
				X:           x,
				Y:           y,
				Level:       level,
				Propagation: ps,
				Wave:        s.wave,
			})
		}
		if stopEarly && ps.Contradictions > 0 {
			return nil
		}
	}
}

// Stats returns counters accumulated by the last Solve.
func (s *Solver) Stats() Stats { return s.stats }

// Wave returns the solver's wave, reflecting the last attempt.
func (s *Solver) Wave() *Wave { return s.wave }

// Generate learns a model from sample and solves one output grid.
func Generate(ctx context.Context, sample grid.Grid, opts Options) (grid.Grid, *Model, error) {
	m, err := BuildModel(sample)
	if err != nil {
		return grid.Grid{}, nil, err
	}
	s, err := NewSolver(m, opts)
	if err != nil {
		return grid.Grid{}, m, err
	}
	out, err := s.Solve(ctx)
	return out, m, err
}
