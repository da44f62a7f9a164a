package wfc

// PropagateStats summarizes one propagation run.
type PropagateStats struct {
	Visited        int // cells popped from the worklist
	Shrinks        int // neighbor sets that strictly shrank
	Contradictions int // neighbor sets that became empty
}

// Add accumulates o into s.
func (s *PropagateStats) Add(o PropagateStats) {
	s.Visited += o.Visited
	s.Shrinks += o.Shrinks
	s.Contradictions += o.Contradictions
}

// Propagator restores local consistency after a cell changes. It reuses its
// worklist between calls and must not be shared across goroutines.
type Propagator struct {
	model *Model
	queue []int
}

// NewPropagator returns a propagator for m.
func NewPropagator(m *Model) *Propagator {
	return &Propagator{model: m}
}

// compactAt is the consumed-prefix length beyond which the worklist is
// shifted back to the start of its buffer.
const compactAt = 1024

// Propagate runs a FIFO worklist seeded with (x, y). For each popped cell and
// each existing neighbor in direction d, the neighbor's set is intersected
// with the union of the d-direction constraints of the popped cell's
// candidates. A neighbor whose set strictly shrank is stored and enqueued.
//
// Empty intersections are stored like any other; contradictions are counted
// but do not stop propagation. Every enqueue follows a strict shrink, so the
// loop runs at most L times per cell.
func (p *Propagator) Propagate(w *Wave, x, y int) PropagateStats {
	var stats PropagateStats
	p.queue = append(p.queue[:0], w.index(x, y))

	for head := 0; head < len(p.queue); {
		c := p.queue[head]
		head++
		stats.Visited++

		cx, cy := c%w.width, c/w.width
		current := w.cells[c]
		for _, d := range Directions {
			dx, dy := d.Offset()
			nx, ny := cx+dx, cy+dy
			if !w.in(nx, ny) {
				continue
			}
			n := w.index(nx, ny)
			before := w.cells[n]
			after := before.Intersect(p.model.Allowed(current, d))
			if after == before {
				continue
			}
			w.cells[n] = after
			stats.Shrinks++
			if after.Empty() {
				stats.Contradictions++
			}
			p.queue = append(p.queue, n)
		}

		if head > compactAt && head*2 > len(p.queue) {
			k := copy(p.queue, p.queue[head:])
			p.queue = p.queue[:k]
			head = 0
		}
	}
	return stats
}
