package presentation

import (
	"tillcraft.ai/internal/observerproto"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/world"
)

func chunkArr(c grid.ChunkCoord) [2]int32 { return [2]int32{c.X, c.Y} }
func tileArr(t grid.TilePos) [2]uint32    { return [2]uint32{t.X, t.Y} }

func (s *Scene) rootCmd(c grid.ChunkCoord, id world.VisualID) observerproto.VisualCmd {
	return observerproto.VisualCmd{
		Op:      observerproto.OpChunkRoot,
		Visual:  uint64(id),
		Chunk:   chunkArr(c),
		Pos:     ChunkOrigin(c),
		Texture: grid.Grass.TextureIndex(),
	}
}

// tileCmd describes a tile override on top of the chunk's ground. Untilled
// tiles fall back to the ground texture.
func (s *Scene) tileCmd(p grid.MapPos, tv tileVisual) observerproto.VisualCmd {
	cmd := observerproto.VisualCmd{
		Op:      observerproto.OpTile,
		Parent:  uint64(s.roots[p.Chunk]),
		Chunk:   chunkArr(p.Chunk),
		Tile:    tileArr(p.Tile),
		Pos:     TileOffset(p.Tile),
		Tilled:  tv.tilled,
		Texture: grid.Grass.TextureIndex(),
	}
	if tv.tilled {
		cmd.Texture = tv.autotile
	}
	return cmd
}

func (s *Scene) cropCmd(p grid.MapPos, cv cropVisual) observerproto.VisualCmd {
	cmd := observerproto.VisualCmd{
		Op:      observerproto.OpCropSpawn,
		Visual:  uint64(cv.id),
		Parent:  uint64(cv.parent),
		Chunk:   chunkArr(p.Chunk),
		Tile:    tileArr(p.Tile),
		Pos:     TileOffset(p.Tile),
		Texture: int(cv.stage),
		Crop:    uint32(cv.species),
		Stage:   cv.stage,
	}
	if def, ok := s.species.Species(cv.species); ok {
		cmd.Atlas = def.TextureAtlas
	}
	return cmd
}

func (s *Scene) wallCmd(k wallKey, id, root world.VisualID) observerproto.VisualCmd {
	off, yaw := WallTransform(k.edge)
	return observerproto.VisualCmd{
		Op:     observerproto.OpWallSpawn,
		Visual: uint64(id),
		Parent: uint64(root),
		Chunk:  chunkArr(k.pos.Chunk),
		Tile:   tileArr(k.pos.Tile),
		Pos:    TileOffset(k.pos.Tile).Add(off),
		Yaw:    yaw,
		Edge:   k.edge.String(),
	}
}

func (s *Scene) dropCmd(dv dropVisual) observerproto.VisualCmd {
	d := dv.drop
	cmd := observerproto.VisualCmd{
		Op:     observerproto.OpDropSpawn,
		Visual: uint64(dv.id),
		Chunk:  chunkArr(d.Pos.Chunk),
		Tile:   tileArr(d.Pos.Tile),
		Pos:    WorldPosition(d.Pos),
		Crop:   uint32(d.Item.Crop),
		Item:   d.Item.Name(s.species),
		Amount: d.Amount,
		DropID: d.ID,
	}
	if def, ok := s.species.Species(d.Item.Crop); ok {
		cmd.Atlas = def.HarvestedSprite
	}
	return cmd
}
