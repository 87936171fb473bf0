// Package interact turns held-interact input over tiles into world changes.
//
// Detection suppresses repeats while the cursor stays on one tile, and
// resolution applies each tool to the grid in event order. Crop removal is
// reported back as notifications for the caller to apply.
package interact

import (
	"io"
	"log"

	"tillcraft.ai/internal/sim/growth"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/items"
)

// TileInteraction is one tool use on one tile, with the tool and rotation
// captured when it was detected.
type TileInteraction struct {
	Pos      grid.MapPos
	Tool     Tool
	Rotation grid.Direction
}

type PlantedCrop struct {
	Pos  grid.MapPos
	Crop grid.Crop
}

type PlacedWall struct {
	Pos  grid.MapPos
	Edge grid.Direction
}

type HarvestedCrop struct {
	Pos     grid.MapPos
	Species items.CropID
}

// Outcome collects the notifications of one Resolve call in emission order.
type Outcome struct {
	// TileUpdates lists tiles whose rendered appearance may have changed:
	// each changed tile followed by its four neighbors.
	TileUpdates []grid.MapPos
	Tilled      []grid.MapPos
	Untilled    []grid.MapPos
	Planted     []PlantedCrop
	Walls       []PlacedWall
	Destroyed   []grid.MapPos
	Harvested   []HarvestedCrop
}

func (o Outcome) Empty() bool {
	return len(o.TileUpdates) == 0 && len(o.Planted) == 0 && len(o.Walls) == 0 &&
		len(o.Destroyed) == 0 && len(o.Harvested) == 0
}

type Resolver struct {
	hotbar   Hotbar
	species  growth.SpeciesLookup
	logger   *log.Logger
	tool     Tool
	rotation grid.Direction

	last    grid.MapPos
	hasLast bool
}

func NewResolver(hotbar Hotbar, species growth.SpeciesLookup, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{hotbar: hotbar, species: species, logger: logger}
}

// SelectSlot activates hotbar slot n. Unbound slots leave the tool unchanged.
func (r *Resolver) SelectSlot(n int) bool {
	t, ok := r.hotbar.Slot(n)
	if ok {
		r.tool = t
	}
	return ok
}

func (r *Resolver) SetTool(t Tool)               { r.tool = t }
func (r *Resolver) Tool() Tool                   { return r.tool }
func (r *Resolver) Rotation() grid.Direction     { return r.rotation }
func (r *Resolver) Rotate(quarterTurns int)      { r.rotation = r.rotation.Rotate(quarterTurns) }
func (r *Resolver) SetRotation(d grid.Direction) { r.rotation = d.Rotate(0) }

// Detect emits one interaction per cursor that moved onto a new tile while
// interact is held. The first tile after a fresh press always fires.
func (r *Resolver) Detect(pressed, justPressed bool, cursors []grid.MapPos) []TileInteraction {
	if justPressed {
		r.hasLast = false
	}
	if !pressed {
		return nil
	}
	var out []TileInteraction
	for _, c := range cursors {
		if r.hasLast && c == r.last {
			continue
		}
		r.last, r.hasLast = c, true
		out = append(out, TileInteraction{Pos: c, Tool: r.tool, Rotation: r.rotation})
	}
	return out
}

// Resolve applies events in order. Failed preconditions are silent no-ops.
// Crops reported in Destroyed are still in the store; the caller removes them.
func (r *Resolver) Resolve(store *grid.Store, now float64, events []TileInteraction) Outcome {
	var out Outcome
	destroyed := map[grid.MapPos]bool{}
	destroy := func(p grid.MapPos) {
		if destroyed[p] {
			return
		}
		destroyed[p] = true
		out.Destroyed = append(out.Destroyed, p)
	}

	for _, ev := range events {
		p := ev.Pos
		switch ev.Tool.Kind {
		case ToolWall:
			if store.Tile(p).Walls.Has(ev.Rotation) {
				continue
			}
			store.SetWall(p, ev.Rotation, true)
			out.Walls = append(out.Walls, PlacedWall{Pos: p, Edge: ev.Rotation})

		case ToolItem:
			switch ev.Tool.Item.Kind {
			case items.KindTool:
				switch ev.Tool.Item.Tool {
				case items.Hoe:
					if store.Tile(p).Tilled {
						continue
					}
					store.SetTilled(p, true)
					out.Tilled = append(out.Tilled, p)
					out.TileUpdates = appendAround(out.TileUpdates, p)

				case items.Pickaxe:
					if _, ok := store.Crop(p); ok {
						destroy(p)
						continue
					}
					if !store.Tile(p).Tilled {
						continue
					}
					store.SetTilled(p, false)
					out.Untilled = append(out.Untilled, p)
					out.TileUpdates = appendAround(out.TileUpdates, p)

				case items.Scythe:
					c, ok := store.Crop(p)
					if !ok || destroyed[p] {
						continue
					}
					def, ok := r.species.Species(c.Species)
					if !ok {
						r.logger.Printf("error: harvest at %s: unknown species %d", p, c.Species)
						continue
					}
					if int(c.Stage)+1 < int(def.Stages) {
						continue
					}
					out.Harvested = append(out.Harvested, HarvestedCrop{Pos: p, Species: c.Species})
					destroy(p)
				}

			case items.KindSeed:
				if !store.Tile(p).Tilled {
					continue
				}
				if _, ok := store.Crop(p); ok {
					continue
				}
				def, ok := r.species.Species(ev.Tool.Item.Crop)
				if !ok {
					r.logger.Printf("error: plant at %s: unknown species %d", p, ev.Tool.Item.Crop)
					continue
				}
				c := growth.NewCrop(def, now)
				store.InsertCrop(p, c)
				out.Planted = append(out.Planted, PlantedCrop{Pos: p, Crop: c})
			}
		}
	}
	return out
}

func appendAround(dst []grid.MapPos, p grid.MapPos) []grid.MapPos {
	dst = append(dst, p)
	n := grid.Surrounding(p)
	return append(dst, n[:]...)
}
