package grid

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"
)

// Chunk owns exactly ChunkSize*ChunkSize tiles and at most one crop per tile.
type Chunk struct {
	Coord ChunkCoord
	Tiles [ChunkSize * ChunkSize]TileState

	crops map[TilePos]Crop

	dirty bool
	hash  [32]byte
}

func newChunk(c ChunkCoord) *Chunk {
	ch := &Chunk{
		Coord: c,
		crops: map[TilePos]Crop{},
		dirty: true,
	}
	for i := range ch.Tiles {
		ch.Tiles[i] = TileState{Ground: Grass}
	}
	return ch
}

func (c *Chunk) At(p TilePos) TileState {
	return c.Tiles[p.index()]
}

func (c *Chunk) setTilled(p TilePos, v bool) {
	t := &c.Tiles[p.index()]
	if t.Tilled == v {
		return
	}
	t.Tilled = v
	c.dirty = true
}

func (c *Chunk) setWall(p TilePos, edge Direction, v bool) {
	t := &c.Tiles[p.index()]
	next := t.Walls.With(edge, v)
	if next == t.Walls {
		return
	}
	t.Walls = next
	c.dirty = true
}

func (c *Chunk) Crop(p TilePos) (Crop, bool) {
	cr, ok := c.crops[p]
	return cr, ok
}

func (c *Chunk) CropCount() int { return len(c.crops) }

func (c *Chunk) TilledCount() int {
	n := 0
	for _, t := range c.Tiles {
		if t.Tilled {
			n++
		}
	}
	return n
}

// CropTiles returns the planted tile positions in (y, x) order.
func (c *Chunk) CropTiles() []TilePos {
	out := make([]TilePos, 0, len(c.crops))
	for p := range c.crops {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Digest hashes tiles and crops; it is cached until the chunk changes.
func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [8]byte
		for _, t := range c.Tiles {
			tmp[0] = byte(t.Ground)
			tmp[1] = 0
			if t.Tilled {
				tmp[1] = 1
			}
			tmp[2] = byte(t.Walls)
			h.Write(tmp[:3])
		}
		for _, p := range c.CropTiles() {
			cr := c.crops[p]
			binary.LittleEndian.PutUint32(tmp[:4], p.X)
			binary.LittleEndian.PutUint32(tmp[4:], p.Y)
			h.Write(tmp[:])
			binary.LittleEndian.PutUint32(tmp[:4], uint32(cr.Species))
			tmp[4] = cr.Stage
			tmp[5] = 0
			if cr.Scheduled {
				tmp[5] = 1
			}
			h.Write(tmp[:6])
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(cr.NextStageAt))
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// Codes returns TileState.Code for every tile in index order.
func (c *Chunk) Codes() []uint8 {
	out := make([]uint8, len(c.Tiles))
	for i, t := range c.Tiles {
		out[i] = t.Code()
	}
	return out
}
