package presentation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"tillcraft.ai/internal/sim/grid"
)

// wallInset keeps wall quads just inside the tile edge.
const wallInset = 0.05

// ChunkOrigin is the world-space position of a chunk root.
func ChunkOrigin(c grid.ChunkCoord) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X) * grid.ChunkSize, 0, float32(c.Y) * grid.ChunkSize}
}

// TileOffset is the position of a tile relative to its chunk root.
func TileOffset(t grid.TilePos) mgl32.Vec3 {
	return mgl32.Vec3{float32(t.X), 0, float32(t.Y)}
}

// WorldPosition is the world-space position of a tile.
func WorldPosition(p grid.MapPos) mgl32.Vec3 {
	return ChunkOrigin(p.Chunk).Add(TileOffset(p.Tile))
}

// WallTransform returns the offset from the tile center and the yaw of a wall on edge.
func WallTransform(edge grid.Direction) (mgl32.Vec3, float32) {
	const half = 0.5 - wallInset
	switch edge {
	case grid.East:
		return mgl32.Vec3{half, 1, 0}, math.Pi / 2
	case grid.South:
		return mgl32.Vec3{0, 1, half}, 0
	case grid.West:
		return mgl32.Vec3{-half, 1, 0}, -math.Pi / 2
	default:
		return mgl32.Vec3{0, 1, -half}, math.Pi
	}
}
