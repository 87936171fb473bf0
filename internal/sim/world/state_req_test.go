package world

import (
	"testing"

	"tillcraft.ai/internal/sim/encoding"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/input"
)

func TestSnapshot_ChunkTilesAndCrops(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	useTool(w, input.Hotbar1, farmTile)
	useTool(w, input.Hotbar5, farmTile)

	s := w.Snapshot()
	if s.Tilled != 1 || len(s.Crops) != 1 || s.Crops[0].Name != "Red Debug Plant" {
		t.Fatalf("snapshot: %+v", s)
	}
	if s.Tool != "SEED:1" {
		t.Fatalf("tool: %s", s.Tool)
	}
	if len(s.Chunks) != 4 {
		t.Fatalf("chunks: %d", len(s.Chunks))
	}
	var found bool
	for _, cs := range s.Chunks {
		codes, err := encoding.DecodeRLE(cs.Tiles, grid.ChunkSize*grid.ChunkSize)
		if err != nil {
			t.Fatalf("decode %s: %v", cs.Chunk, err)
		}
		if len(codes) != grid.ChunkSize*grid.ChunkSize {
			t.Fatalf("chunk %s: %d codes", cs.Chunk, len(codes))
		}
		if cs.Chunk != farmTile.Chunk {
			continue
		}
		found = true
		idx := int(farmTile.Tile.X) + int(farmTile.Tile.Y)*grid.ChunkSize
		if !grid.TileFromCode(codes[idx]).Tilled {
			t.Fatalf("farm tile not tilled in encoded chunk")
		}
	}
	if !found {
		t.Fatalf("farm chunk missing from snapshot")
	}
}

func TestSnapshot_WallsAndNextGrowth(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	if s := w.Snapshot(); s.NextGrowthAt != nil || len(s.Walls) != 0 {
		t.Fatalf("empty world: next=%v walls=%v", s.NextGrowthAt, s.Walls)
	}

	useTool(w, input.Hotbar1, farmTile)
	useTool(w, input.Hotbar4, farmTile)
	useTool(w, input.Hotbar6, farmTile)

	s := w.Snapshot()
	if len(s.Crops) != 1 || s.Crops[0].NextStageAt == nil {
		t.Fatalf("crops: %+v", s.Crops)
	}
	if s.NextGrowthAt == nil || *s.NextGrowthAt != *s.Crops[0].NextStageAt {
		t.Fatalf("next growth: got %v want %v", s.NextGrowthAt, *s.Crops[0].NextStageAt)
	}
	if len(s.Walls) != 1 || s.Walls[0].Pos != farmTile {
		t.Fatalf("walls: %+v", s.Walls)
	}
	if len(s.Walls[0].Edges) != 1 || s.Walls[0].Edges[0] != "NORTH" {
		t.Fatalf("wall edges: %v", s.Walls[0].Edges)
	}
}
