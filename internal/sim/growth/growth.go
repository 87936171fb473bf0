// Package growth advances planted crops through their growth stages on
// simulation time.
package growth

import (
	"io"
	"log"

	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/items"
)

type SpeciesLookup interface {
	Species(id items.CropID) (catalogs.CropDef, bool)
}

// NewCrop returns a stage-0 crop planted at now.
func NewCrop(def catalogs.CropDef, now float64) grid.Crop {
	c := grid.Crop{Species: def.ID}
	if def.Stages > 1 {
		c.NextStageAt = now + def.GrowthTimePerStage
		c.Scheduled = true
	}
	return c
}

// Advance describes one stage advancement.
type Advance struct {
	Pos      grid.MapPos
	Species  items.CropID
	Stage    uint8
	Terminal bool
}

// Scheduler finds the earliest due crop with a full scan of the store.
// At most one crop advances per Tick; other due crops follow on later ticks
// in (NextStageAt, position) order.
type Scheduler struct {
	species SpeciesLookup
	logger  *log.Logger

	reported map[grid.MapPos]items.CropID
}

func NewScheduler(species SpeciesLookup, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scheduler{species: species, logger: logger, reported: map[grid.MapPos]items.CropID{}}
}

type candidate struct {
	pos  grid.MapPos
	crop grid.Crop
	def  catalogs.CropDef
}

func (s *Scheduler) Tick(store *grid.Store, now float64) (Advance, bool) {
	var best *candidate
	store.EachCrop(func(p grid.MapPos, c grid.Crop) {
		at, ok := c.Next()
		if !ok {
			return
		}
		def, ok := s.species.Species(c.Species)
		if !ok {
			if prev, seen := s.reported[p]; !seen || prev != c.Species {
				s.reported[p] = c.Species
				s.logger.Printf("error: growth: crop at %s has unknown species %d", p, c.Species)
			}
			return
		}
		if best != nil {
			if at > best.crop.NextStageAt {
				return
			}
			if at == best.crop.NextStageAt && !p.Less(best.pos) {
				return
			}
		}
		best = &candidate{pos: p, crop: c, def: def}
	})
	if best == nil || best.crop.NextStageAt > now {
		return Advance{}, false
	}

	c := best.crop
	c.Stage++
	if c.Stage < best.def.FinalStage() {
		c.NextStageAt = now + best.def.GrowthTimePerStage
		c.Scheduled = true
	} else {
		c.NextStageAt = 0
		c.Scheduled = false
	}
	store.InsertCrop(best.pos, c)
	return Advance{Pos: best.pos, Species: c.Species, Stage: c.Stage, Terminal: !c.Scheduled}, true
}

// NextDue returns the earliest scheduled stage time, if any crop is still growing.
func (s *Scheduler) NextDue(store *grid.Store) (float64, bool) {
	var (
		earliest float64
		found    bool
	)
	store.EachCrop(func(_ grid.MapPos, c grid.Crop) {
		if at, ok := c.Next(); ok && (!found || at < earliest) {
			earliest, found = at, true
		}
	})
	return earliest, found
}
