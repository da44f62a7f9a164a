// Package wfc implements adjacency model extraction and a Wave Function
// Collapse solver over grids of luminance levels.
//
// # Overview
//
// [BuildModel] scans a sample [grid.Grid] once and records, for every level
// that occurs, which levels were seen immediately above, below, left and
// right of it. The resulting [Model] is immutable.
//
// A [Solver] fills an output-sized [Wave] in which every cell starts with the
// full candidate set {1..L}. It repeats three steps until no open cell is
// left:
//
//  1. [Selector] picks uniformly among the open cells with the fewest
//     candidates (the lowest entropy).
//  2. [Collapse] commits that cell to one randomly chosen candidate.
//  3. [Propagator] pushes the change outward with a FIFO worklist, narrowing
//     neighbor candidate sets until nothing shrinks any more.
//
// # Contradictions
//
// Propagation can empty a cell's candidate set. The solver does not backtrack
// and does not notice this when it happens: selection only ever considers
// cells with more than one candidate, so an empty cell simply stays empty.
// The failure surfaces when the finished wave is extracted into a grid, as a
// [*ContradictionError]. No partial output is returned.
//
// [Options.MaxAttempts] enables a bounded restart policy: a contradiction
// discards the wave and the solve starts over with the next values from the
// same random stream. The default of one attempt is the plain single-shot
// behavior.
//
// # Randomness
//
// All random choices draw from the [*rand.Rand] in [Options.Rand]. Use
// [NewRand] with a fixed seed for reproducible output; when no source is
// given the solver seeds one from system entropy.
//
// # Representation
//
// Candidate sets are [LevelSet] values: fixed-capacity 256-bit sets stored
// in a flat row-major slice, so the propagation loop never allocates.
// Directions form a closed enumeration with a fixed offset table.
package wfc
