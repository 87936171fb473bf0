// Package presentation keeps the visual scene that mirrors the simulation
// and streams it as VisualCmd values to observers.
//
// Scene implements world.Binding. Binding methods are called from the world
// loop; Subscribe may be called from any goroutine.
package presentation

import (
	"io"
	"log"
	"sort"
	"sync"

	"tillcraft.ai/internal/observerproto"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/items"
	"tillcraft.ai/internal/sim/world"
)

type tileVisual struct {
	tilled   bool
	autotile int
}

type cropVisual struct {
	id      world.VisualID
	parent  world.VisualID
	species items.CropID
	stage   uint8
}

type wallKey struct {
	pos  grid.MapPos
	edge grid.Direction
}

type dropVisual struct {
	id   world.VisualID
	drop world.ItemDrop
}

type Scene struct {
	species *catalogs.Catalogs
	logger  *log.Logger

	mu      sync.Mutex
	nextID  uint64
	seq     uint64
	roots   map[grid.ChunkCoord]world.VisualID
	tiles   map[grid.MapPos]tileVisual
	crops   map[grid.MapPos]cropVisual
	walls   map[wallKey]world.VisualID
	drops   map[uint64]dropVisual
	subs    map[uint64]chan observerproto.VisualCmd
	nextSub uint64
}

var _ world.Binding = (*Scene)(nil)

func NewScene(species *catalogs.Catalogs, logger *log.Logger) *Scene {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scene{
		species: species,
		logger:  logger,
		roots:   map[grid.ChunkCoord]world.VisualID{},
		tiles:   map[grid.MapPos]tileVisual{},
		crops:   map[grid.MapPos]cropVisual{},
		walls:   map[wallKey]world.VisualID{},
		drops:   map[uint64]dropVisual{},
		subs:    map[uint64]chan observerproto.VisualCmd{},
	}
}

func (s *Scene) newID() world.VisualID {
	s.nextID++
	return world.VisualID(s.nextID)
}

// emitLocked stamps cmd and fans it out. A subscriber that cannot keep up is
// dropped; it has to resubscribe for a fresh snapshot.
func (s *Scene) emitLocked(cmd observerproto.VisualCmd) {
	s.seq++
	cmd.Seq = s.seq
	for id, ch := range s.subs {
		select {
		case ch <- cmd:
		default:
			close(ch)
			delete(s.subs, id)
			s.logger.Printf("observer subscriber %d dropped: buffer full", id)
		}
	}
}

func (s *Scene) LoadChunk(c grid.ChunkCoord) world.VisualID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.roots[c]; ok {
		return id
	}
	id := s.newID()
	s.roots[c] = id
	s.emitLocked(s.rootCmd(c, id))
	return id
}

func (s *Scene) ChunkRoot(c grid.ChunkCoord) (world.VisualID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.roots[c]
	return id, ok
}

func (s *Scene) UpdateTile(p grid.MapPos, tilled bool, autotile int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv := tileVisual{tilled: tilled, autotile: autotile}
	if tilled {
		s.tiles[p] = tv
	} else {
		delete(s.tiles, p)
	}
	s.emitLocked(s.tileCmd(p, tv))
}

func (s *Scene) SpawnCrop(root world.VisualID, p grid.MapPos, crop grid.Crop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.crops[p]; ok {
		s.logger.Printf("warn: crop visual at %s replaced", p)
		s.emitLocked(observerproto.VisualCmd{Op: observerproto.OpCropRemove, Visual: uint64(old.id), Chunk: chunkArr(p.Chunk), Tile: tileArr(p.Tile)})
	}
	cv := cropVisual{id: s.newID(), parent: root, species: crop.Species, stage: crop.Stage}
	s.crops[p] = cv
	s.emitLocked(s.cropCmd(p, cv))
}

func (s *Scene) AdvanceCrop(p grid.MapPos, stage uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cv, ok := s.crops[p]
	if !ok {
		s.logger.Printf("warn: no crop visual at %s to advance", p)
		return
	}
	cv.stage = stage
	s.crops[p] = cv
	cmd := s.cropCmd(p, cv)
	cmd.Op = observerproto.OpCropStage
	s.emitLocked(cmd)
}

func (s *Scene) RemoveCrop(p grid.MapPos) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cv, ok := s.crops[p]
	if !ok {
		return false
	}
	delete(s.crops, p)
	s.emitLocked(observerproto.VisualCmd{Op: observerproto.OpCropRemove, Visual: uint64(cv.id), Chunk: chunkArr(p.Chunk), Tile: tileArr(p.Tile)})
	return true
}

func (s *Scene) SpawnWall(root world.VisualID, p grid.MapPos, edge grid.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := wallKey{pos: p, edge: edge}
	if _, ok := s.walls[k]; ok {
		return
	}
	id := s.newID()
	s.walls[k] = id
	s.emitLocked(s.wallCmd(k, id, root))
}

func (s *Scene) SpawnDrop(d world.ItemDrop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dv := dropVisual{id: s.newID(), drop: d}
	s.drops[d.ID] = dv
	s.emitLocked(s.dropCmd(dv))
}

func (s *Scene) RemoveDrop(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dv, ok := s.drops[id]
	if !ok {
		return
	}
	delete(s.drops, id)
	s.emitLocked(observerproto.VisualCmd{Op: observerproto.OpDropRemove, Visual: uint64(dv.id), DropID: id})
}

// Subscribe returns the current scene as creation commands plus a channel
// carrying every later command. cancel must be called when done.
func (s *Scene) Subscribe(buffer int) (snapshot []observerproto.VisualCmd, updates <-chan observerproto.VisualCmd, cancel func()) {
	if buffer <= 0 {
		buffer = 1024
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot = s.snapshotLocked()
	ch := make(chan observerproto.VisualCmd, buffer)
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
	return snapshot, ch, cancel
}

func (s *Scene) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Scene) snapshotLocked() []observerproto.VisualCmd {
	var out []observerproto.VisualCmd

	chunks := make([]grid.ChunkCoord, 0, len(s.roots))
	for c := range s.roots {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].X != chunks[j].X {
			return chunks[i].X < chunks[j].X
		}
		return chunks[i].Y < chunks[j].Y
	})
	for _, c := range chunks {
		out = append(out, s.rootCmd(c, s.roots[c]))
	}

	for _, p := range sortedPositions(s.tiles) {
		out = append(out, s.tileCmd(p, s.tiles[p]))
	}
	for _, p := range sortedPositions(s.crops) {
		out = append(out, s.cropCmd(p, s.crops[p]))
	}

	walls := make([]wallKey, 0, len(s.walls))
	for k := range s.walls {
		walls = append(walls, k)
	}
	sort.Slice(walls, func(i, j int) bool {
		if walls[i].pos != walls[j].pos {
			return walls[i].pos.Less(walls[j].pos)
		}
		return walls[i].edge < walls[j].edge
	})
	for _, k := range walls {
		root := s.roots[k.pos.Chunk]
		out = append(out, s.wallCmd(k, s.walls[k], root))
	}

	dropIDs := make([]uint64, 0, len(s.drops))
	for id := range s.drops {
		dropIDs = append(dropIDs, id)
	}
	sort.Slice(dropIDs, func(i, j int) bool { return dropIDs[i] < dropIDs[j] })
	for _, id := range dropIDs {
		out = append(out, s.dropCmd(s.drops[id]))
	}

	for i := range out {
		out[i].Seq = s.seq
	}
	return out
}

func sortedPositions[V any](m map[grid.MapPos]V) []grid.MapPos {
	out := make([]grid.MapPos, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
