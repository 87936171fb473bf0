// Package grid is the chunk-indexed tile storage of the world.
//
// Every chunk inside the active bounds is created up front. Accessing a
// chunk that was never added is a programming error and panics with a
// *MissingChunkError; callers that may legitimately look past the loaded
// region (neighbor lookups at the world edge) use Store.Chunk instead.
//
// A Store is accessed only from the world loop goroutine.
package grid

import (
	"fmt"
	"sort"
)

type MissingChunkError struct {
	Chunk ChunkCoord
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("grid: missing chunk %s", e.Chunk)
}

type Store struct {
	chunks map[ChunkCoord]*Chunk
}

func NewStore() *Store {
	return &Store{chunks: map[ChunkCoord]*Chunk{}}
}

// Preload adds a fresh chunk for every coordinate in the inclusive rectangle min..max.
func (s *Store) Preload(min, max ChunkCoord) {
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			s.AddChunk(ChunkCoord{X: x, Y: y})
		}
	}
}

// AddChunk returns the chunk at c, creating it if needed.
func (s *Store) AddChunk(c ChunkCoord) *Chunk {
	if ch, ok := s.chunks[c]; ok {
		return ch
	}
	ch := newChunk(c)
	s.chunks[c] = ch
	return ch
}

func (s *Store) Chunk(c ChunkCoord) (*Chunk, bool) {
	ch, ok := s.chunks[c]
	return ch, ok
}

func (s *Store) HasChunk(c ChunkCoord) bool {
	_, ok := s.chunks[c]
	return ok
}

// Contains reports whether p addresses a valid tile of a loaded chunk.
func (s *Store) Contains(p MapPos) bool {
	return p.Tile.valid() && s.HasChunk(p.Chunk)
}

func (s *Store) ChunkCount() int { return len(s.chunks) }

// ChunkCoords returns loaded chunk coordinates sorted by x, then y.
func (s *Store) ChunkCoords() []ChunkCoord {
	keys := make([]ChunkCoord, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Y < keys[j].Y
	})
	return keys
}

func (s *Store) mustChunk(c ChunkCoord) *Chunk {
	ch, ok := s.chunks[c]
	if !ok {
		panic(&MissingChunkError{Chunk: c})
	}
	return ch
}

func (s *Store) Tile(p MapPos) TileState {
	return s.mustChunk(p.Chunk).At(p.Tile)
}

// TilledOr reports the tilled flag at p, or fallback when p's chunk is not loaded.
func (s *Store) TilledOr(p MapPos, fallback bool) bool {
	ch, ok := s.chunks[p.Chunk]
	if !ok {
		return fallback
	}
	return ch.At(p.Tile).Tilled
}

func (s *Store) SetTilled(p MapPos, tilled bool) {
	s.mustChunk(p.Chunk).setTilled(p.Tile, tilled)
}

func (s *Store) SetWall(p MapPos, edge Direction, present bool) {
	s.mustChunk(p.Chunk).setWall(p.Tile, edge, present)
}

func (s *Store) Crop(p MapPos) (Crop, bool) {
	return s.mustChunk(p.Chunk).Crop(p.Tile)
}

// InsertCrop stores c at p, replacing any crop already there.
func (s *Store) InsertCrop(p MapPos, c Crop) {
	ch := s.mustChunk(p.Chunk)
	ch.crops[p.Tile] = c
	ch.dirty = true
}

func (s *Store) RemoveCrop(p MapPos) (Crop, bool) {
	ch := s.mustChunk(p.Chunk)
	c, ok := ch.crops[p.Tile]
	if !ok {
		return Crop{}, false
	}
	delete(ch.crops, p.Tile)
	ch.dirty = true
	return c, true
}

func (s *Store) CropCount() int {
	n := 0
	for _, ch := range s.chunks {
		n += len(ch.crops)
	}
	return n
}

func (s *Store) TilledCount() int {
	n := 0
	for _, ch := range s.chunks {
		n += ch.TilledCount()
	}
	return n
}

// EachCrop visits every planted crop in deterministic order.
func (s *Store) EachCrop(fn func(MapPos, Crop)) {
	for _, cc := range s.ChunkCoords() {
		ch := s.chunks[cc]
		for _, tp := range ch.CropTiles() {
			fn(MapPos{Chunk: cc, Tile: tp}, ch.crops[tp])
		}
	}
}
