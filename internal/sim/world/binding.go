package world

import (
	"tillcraft.ai/internal/sim/grid"
)

// VisualID is an opaque handle issued by the presentation layer.
type VisualID uint64

// Binding receives fire-and-forget notifications after each state change
// commits. The world never reads presentation state to make decisions; the
// boolean results below only feed consistency warnings.
type Binding interface {
	// LoadChunk creates the visual root of a freshly created chunk.
	LoadChunk(c grid.ChunkCoord) VisualID
	ChunkRoot(c grid.ChunkCoord) (VisualID, bool)

	UpdateTile(p grid.MapPos, tilled bool, autotile int)

	SpawnCrop(root VisualID, p grid.MapPos, crop grid.Crop)
	AdvanceCrop(p grid.MapPos, stage uint8)
	// RemoveCrop reports whether a visual was registered at p.
	RemoveCrop(p grid.MapPos) bool

	SpawnWall(root VisualID, p grid.MapPos, edge grid.Direction)

	SpawnDrop(d ItemDrop)
	RemoveDrop(id uint64)
}

// NopBinding drops every notification. Used by headless replays.
type NopBinding struct{}

func (NopBinding) LoadChunk(grid.ChunkCoord) VisualID              { return 0 }
func (NopBinding) ChunkRoot(grid.ChunkCoord) (VisualID, bool)      { return 0, true }
func (NopBinding) UpdateTile(grid.MapPos, bool, int)               {}
func (NopBinding) SpawnCrop(VisualID, grid.MapPos, grid.Crop)      {}
func (NopBinding) AdvanceCrop(grid.MapPos, uint8)                  {}
func (NopBinding) RemoveCrop(grid.MapPos) bool                     { return true }
func (NopBinding) SpawnWall(VisualID, grid.MapPos, grid.Direction) {}
func (NopBinding) SpawnDrop(ItemDrop)                              {}
func (NopBinding) RemoveDrop(uint64)                               {}
