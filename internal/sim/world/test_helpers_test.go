package world

import (
	"testing"

	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/input"
)

type recBinding struct {
	loaded   []grid.ChunkCoord
	updates  []grid.MapPos
	crops    map[grid.MapPos]uint8
	advances int
	walls    []grid.Direction
	drops    map[uint64]ItemDrop

	// noCropVisuals makes SpawnCrop a no-op so removals report drift.
	noCropVisuals bool
}

func newRecBinding() *recBinding {
	return &recBinding{crops: map[grid.MapPos]uint8{}, drops: map[uint64]ItemDrop{}}
}

func (b *recBinding) LoadChunk(c grid.ChunkCoord) VisualID {
	b.loaded = append(b.loaded, c)
	return VisualID(len(b.loaded))
}

func (b *recBinding) ChunkRoot(c grid.ChunkCoord) (VisualID, bool) {
	for i, l := range b.loaded {
		if l == c {
			return VisualID(i + 1), true
		}
	}
	return 0, false
}

func (b *recBinding) UpdateTile(p grid.MapPos, tilled bool, autotile int) {
	b.updates = append(b.updates, p)
}

func (b *recBinding) SpawnCrop(root VisualID, p grid.MapPos, c grid.Crop) {
	if b.noCropVisuals {
		return
	}
	b.crops[p] = c.Stage
}

func (b *recBinding) AdvanceCrop(p grid.MapPos, stage uint8) {
	b.advances++
	if _, ok := b.crops[p]; ok {
		b.crops[p] = stage
	}
}

func (b *recBinding) RemoveCrop(p grid.MapPos) bool {
	_, ok := b.crops[p]
	delete(b.crops, p)
	return ok
}

func (b *recBinding) SpawnWall(root VisualID, p grid.MapPos, edge grid.Direction) {
	b.walls = append(b.walls, edge)
}

func (b *recBinding) SpawnDrop(d ItemDrop) { b.drops[d.ID] = d }
func (b *recBinding) RemoveDrop(id uint64) { delete(b.drops, id) }

func loadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// newTestWorld runs one simulated second per tick.
func newTestWorld(t *testing.T, mutate func(*WorldConfig)) (*World, *recBinding) {
	t.Helper()
	cfg := WorldConfig{ID: "test", TickRateHz: 20, TimeScale: 20}
	if mutate != nil {
		mutate(&cfg)
	}
	b := newRecBinding()
	w, err := New(cfg, loadCatalogs(t), b, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w, b
}

func tap(a input.Action) []input.Event {
	return []input.Event{{Action: a, Pressed: true}, {Action: a, Pressed: false}}
}

func press(a input.Action) input.Event   { return input.Event{Action: a, Pressed: true} }
func release(a input.Action) input.Event { return input.Event{Action: a, Pressed: false} }

// useTool selects a hotbar slot, then presses interact on p in the following tick.
func useTool(w *World, slot input.Action, p grid.MapPos) {
	ev := append([]input.Event{release(input.Interact)}, tap(slot)...)
	w.StepOnce(StepInput{Events: ev})
	w.StepOnce(StepInput{Events: []input.Event{press(input.Interact)}, Cursors: []grid.MapPos{p}})
}
