// Package autotile derives the rendered variant of a tilled tile from the
// tilled state of its four direct neighbors.
package autotile

import (
	"github.com/zyedidia/generic/mapset"

	"tillcraft.ai/internal/sim/grid"
)

const (
	// Isolated is the index of a tile with no tilled neighbor.
	Isolated = 0
	// AllSides is the index of a tile tilled on every side.
	AllSides = 10
)

const (
	up = 1 << iota
	down
	left
	right
)

// table is indexed by the up|down|left|right neighbor mask.
var table = [16]int{
	0:                       0,
	up:                      12,
	down:                    4,
	up | down:               8,
	left:                    3,
	up | left:               15,
	down | left:             7,
	up | down | left:        11,
	right:                   1,
	up | right:              13,
	down | right:            5,
	up | down | right:       9,
	left | right:            2,
	up | left | right:       14,
	down | left | right:     6,
	up | down | left | right: 10,
}

// Index returns the autotile index of p. A neighbor in an unloaded chunk counts as untilled.
func Index(s *grid.Store, p grid.MapPos) int {
	mask := 0
	if s.TilledOr(grid.AboveOf(p), false) {
		mask |= up
	}
	if s.TilledOr(grid.BelowOf(p), false) {
		mask |= down
	}
	if s.TilledOr(grid.LeftOf(p), false) {
		mask |= left
	}
	if s.TilledOr(grid.RightOf(p), false) {
		mask |= right
	}
	return table[mask]
}

// Update is the freshly derived appearance of one tile.
type Update struct {
	Pos      grid.MapPos
	Tilled   bool
	Autotile int
}

// Propagator collects tiles whose appearance may have changed and recomputes
// them in one pass. Each tile is emitted at most once per Flush.
type Propagator struct {
	seen    mapset.Set[grid.MapPos]
	pending []grid.MapPos
}

func NewPropagator() *Propagator {
	return &Propagator{seen: mapset.New[grid.MapPos]()}
}

// Invalidate marks p for recomputation.
func (pr *Propagator) Invalidate(p grid.MapPos) {
	if pr.seen.Has(p) {
		return
	}
	pr.seen.Put(p)
	pr.pending = append(pr.pending, p)
}

// InvalidateAround marks p and its four neighbors.
func (pr *Propagator) InvalidateAround(p grid.MapPos) {
	pr.Invalidate(p)
	for _, n := range grid.Surrounding(p) {
		pr.Invalidate(n)
	}
}

func (pr *Propagator) Pending() int { return len(pr.pending) }

// Flush recomputes every invalidated tile in invalidation order and resets
// the propagator. Tiles of chunks that are not loaded are dropped.
func (pr *Propagator) Flush(s *grid.Store) []Update {
	if len(pr.pending) == 0 {
		return nil
	}
	out := make([]Update, 0, len(pr.pending))
	for _, p := range pr.pending {
		if !s.Contains(p) {
			continue
		}
		out = append(out, Update{Pos: p, Tilled: s.Tile(p).Tilled, Autotile: Index(s, p)})
	}
	pr.pending = pr.pending[:0]
	pr.seen = mapset.New[grid.MapPos]()
	return out
}
