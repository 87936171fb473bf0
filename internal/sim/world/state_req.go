package world

import (
	"context"
	"errors"

	"tillcraft.ai/internal/sim/encoding"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/items"
)

type CropState struct {
	Pos         grid.MapPos  `json:"pos"`
	Species     items.CropID `json:"species"`
	Name        string       `json:"name"`
	Stage       uint8        `json:"stage"`
	NextStageAt *float64     `json:"next_stage_at,omitempty"`
}

type WallState struct {
	Pos   grid.MapPos `json:"pos"`
	Edges []string    `json:"edges"`
}

type InventoryEntry struct {
	Item   string `json:"item"`
	Name   string `json:"name"`
	Amount uint32 `json:"amount"`
}

// StateSnapshot is a point-in-time copy of the player-facing world state.
type StateSnapshot struct {
	WorldID   string           `json:"world_id"`
	Tick      uint64           `json:"tick"`
	Elapsed   float64          `json:"elapsed"`
	Paused    bool             `json:"paused"`
	TimeScale float64          `json:"time_scale"`
	Tool      string           `json:"tool"`
	Rotation  string           `json:"rotation"`
	Tilled    int              `json:"tilled_tiles"`
	Chunks    []ChunkState     `json:"chunks"`
	Walls     []WallState      `json:"walls"`
	Crops     []CropState      `json:"crops"`
	Drops     []ItemDrop       `json:"drops"`
	Inventory []InventoryEntry `json:"inventory"`

	// NextGrowthAt is the earliest pending stage advance, absent when no crop is growing.
	NextGrowthAt *float64 `json:"next_growth_at,omitempty"`
}

// ChunkState carries every tile of a chunk as RLE-encoded tile codes
// (see grid.TileState.Code).
type ChunkState struct {
	Chunk grid.ChunkCoord `json:"chunk"`
	Tiles string          `json:"tiles"`
}

type stateReq struct {
	Resp chan StateSnapshot
}

// RequestState returns a snapshot taken inside the world loop.
func (w *World) RequestState(ctx context.Context) (StateSnapshot, error) {
	if w == nil || w.stateReq == nil {
		return StateSnapshot{}, errors.New("state not available")
	}
	req := stateReq{Resp: make(chan StateSnapshot, 1)}
	select {
	case w.stateReq <- req:
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	}
	select {
	case s := <-req.Resp:
		return s, nil
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	}
}

func (w *World) handleStateReq(req stateReq) {
	if req.Resp == nil {
		return
	}
	select {
	case req.Resp <- w.Snapshot():
	default:
	}
}

// Snapshot builds a StateSnapshot. Call only from the world loop goroutine
// or while the loop is not running.
func (w *World) Snapshot() StateSnapshot {
	s := StateSnapshot{
		WorldID:   w.cfg.ID,
		Tick:      w.tick.Load(),
		Elapsed:   w.clock.Elapsed(),
		Paused:    w.clock.Paused(),
		TimeScale: w.clock.Scale(),
		Tool:      w.resolver.Tool().String(),
		Rotation:  w.resolver.Rotation().String(),
		Tilled:    w.store.TilledCount(),
		Walls:     []WallState{},
		Crops:     []CropState{},
		Drops:     w.Drops(),
		Inventory: []InventoryEntry{},
	}
	for _, cc := range w.store.ChunkCoords() {
		ch, _ := w.store.Chunk(cc)
		s.Chunks = append(s.Chunks, ChunkState{Chunk: cc, Tiles: encoding.EncodeRLE(ch.Codes())})
		for i, t := range ch.Tiles {
			if t.Walls == 0 {
				continue
			}
			ws := WallState{Pos: grid.MapPos{Chunk: cc, Tile: grid.TilePos{X: uint32(i % grid.ChunkSize), Y: uint32(i / grid.ChunkSize)}}}
			for _, d := range t.Walls.Edges() {
				ws.Edges = append(ws.Edges, d.String())
			}
			s.Walls = append(s.Walls, ws)
		}
	}
	if at, ok := w.scheduler.NextDue(w.store); ok {
		s.NextGrowthAt = &at
	}
	w.store.EachCrop(func(p grid.MapPos, c grid.Crop) {
		cs := CropState{Pos: p, Species: c.Species, Stage: c.Stage}
		cs.Name, _ = w.catalogs.CropName(c.Species)
		if at, ok := c.Next(); ok {
			cs.NextStageAt = &at
		}
		s.Crops = append(s.Crops, cs)
	})
	for _, st := range w.inventory.Items() {
		s.Inventory = append(s.Inventory, InventoryEntry{
			Item:   st.Item.String(),
			Name:   st.Item.Name(w.catalogs),
			Amount: st.Amount,
		})
	}
	return s
}
