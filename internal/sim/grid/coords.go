package grid

import (
	"fmt"
	"math"
)

// ChunkSize is the side length of a square chunk in tiles.
const ChunkSize = 32

type ChunkCoord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

func (c ChunkCoord) String() string { return fmt.Sprintf("[%d, %d]", c.X, c.Y) }

// TilePos is a chunk-local coordinate in [0, ChunkSize).
type TilePos struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

func (p TilePos) String() string { return fmt.Sprintf("[%d, %d]", p.X, p.Y) }

func (p TilePos) index() int {
	return int(p.X) + int(p.Y)*ChunkSize
}

func (p TilePos) valid() bool {
	return p.X < ChunkSize && p.Y < ChunkSize
}

// MapPos addresses one tile in the world.
type MapPos struct {
	Chunk ChunkCoord `json:"chunk"`
	Tile  TilePos    `json:"tile"`
}

func NewMapPos(chunk ChunkCoord, tile TilePos) MapPos {
	return MapPos{Chunk: chunk, Tile: tile}
}

func (p MapPos) String() string { return fmt.Sprintf("%s - %s", p.Chunk, p.Tile) }

// World returns the absolute tile coordinate (chunk * ChunkSize + local).
func (p MapPos) World() (x, y int) {
	return int(p.Chunk.X)*ChunkSize + int(p.Tile.X), int(p.Chunk.Y)*ChunkSize + int(p.Tile.Y)
}

// FromWorld is the inverse of MapPos.World.
func FromWorld(x, y int) MapPos {
	return MapPos{
		Chunk: ChunkCoord{X: int32(floorDiv(x, ChunkSize)), Y: int32(floorDiv(y, ChunkSize))},
		Tile:  TilePos{X: uint32(mod(x, ChunkSize)), Y: uint32(mod(y, ChunkSize))},
	}
}

// FromWorldChecked is FromWorld for untrusted input. It reports false when
// the chunk index does not fit a ChunkCoord instead of wrapping it.
func FromWorldChecked(x, y int) (MapPos, bool) {
	cx, cy := floorDiv(x, ChunkSize), floorDiv(y, ChunkSize)
	if cx < math.MinInt32 || cx > math.MaxInt32 || cy < math.MinInt32 || cy > math.MaxInt32 {
		return MapPos{}, false
	}
	return FromWorld(x, y), true
}

// Less orders positions by chunk (x, then y) and then by tile (y, then x).
func (p MapPos) Less(o MapPos) bool {
	if p.Chunk.X != o.Chunk.X {
		return p.Chunk.X < o.Chunk.X
	}
	if p.Chunk.Y != o.Chunk.Y {
		return p.Chunk.Y < o.Chunk.Y
	}
	if p.Tile.Y != o.Tile.Y {
		return p.Tile.Y < o.Tile.Y
	}
	return p.Tile.X < o.Tile.X
}

// LeftOf returns the tile at x-1, crossing into the western chunk at x == 0.
func LeftOf(p MapPos) MapPos {
	if p.Tile.X == 0 {
		return MapPos{
			Chunk: ChunkCoord{X: p.Chunk.X - 1, Y: p.Chunk.Y},
			Tile:  TilePos{X: ChunkSize - 1, Y: p.Tile.Y},
		}
	}
	return MapPos{Chunk: p.Chunk, Tile: TilePos{X: p.Tile.X - 1, Y: p.Tile.Y}}
}

// RightOf returns the tile at x+1, crossing into the eastern chunk at the edge.
func RightOf(p MapPos) MapPos {
	if p.Tile.X >= ChunkSize-1 {
		return MapPos{
			Chunk: ChunkCoord{X: p.Chunk.X + 1, Y: p.Chunk.Y},
			Tile:  TilePos{X: 0, Y: p.Tile.Y},
		}
	}
	return MapPos{Chunk: p.Chunk, Tile: TilePos{X: p.Tile.X + 1, Y: p.Tile.Y}}
}

// AboveOf returns the tile at y+1.
func AboveOf(p MapPos) MapPos {
	if p.Tile.Y >= ChunkSize-1 {
		return MapPos{
			Chunk: ChunkCoord{X: p.Chunk.X, Y: p.Chunk.Y + 1},
			Tile:  TilePos{X: p.Tile.X, Y: 0},
		}
	}
	return MapPos{Chunk: p.Chunk, Tile: TilePos{X: p.Tile.X, Y: p.Tile.Y + 1}}
}

// BelowOf returns the tile at y-1.
func BelowOf(p MapPos) MapPos {
	if p.Tile.Y == 0 {
		return MapPos{
			Chunk: ChunkCoord{X: p.Chunk.X, Y: p.Chunk.Y - 1},
			Tile:  TilePos{X: p.Tile.X, Y: ChunkSize - 1},
		}
	}
	return MapPos{Chunk: p.Chunk, Tile: TilePos{X: p.Tile.X, Y: p.Tile.Y - 1}}
}

// Surrounding returns the four direct neighbors in left, right, above, below order.
func Surrounding(p MapPos) [4]MapPos {
	return [4]MapPos{LeftOf(p), RightOf(p), AboveOf(p), BelowOf(p)}
}

func floorDiv(a, b int) int {
	q := a / b
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
