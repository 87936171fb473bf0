package presentation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"tillcraft.ai/internal/observerproto"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/items"
	"tillcraft.ai/internal/sim/world"
)

func newScene(t *testing.T) *Scene {
	t.Helper()
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return NewScene(cats, nil)
}

func TestLayout(t *testing.T) {
	p := grid.MapPos{Chunk: grid.ChunkCoord{X: -1, Y: 0}, Tile: grid.TilePos{X: 3, Y: 7}}
	if got := WorldPosition(p); got != (mgl32.Vec3{-29, 0, 7}) {
		t.Fatalf("world position: %v", got)
	}
	cases := []struct {
		edge grid.Direction
		off  mgl32.Vec3
		yaw  float32
	}{
		{grid.North, mgl32.Vec3{0, 1, -0.45}, math.Pi},
		{grid.East, mgl32.Vec3{0.45, 1, 0}, math.Pi / 2},
		{grid.South, mgl32.Vec3{0, 1, 0.45}, 0},
		{grid.West, mgl32.Vec3{-0.45, 1, 0}, -math.Pi / 2},
	}
	for _, tc := range cases {
		off, yaw := WallTransform(tc.edge)
		if !off.ApproxEqual(tc.off) || yaw != tc.yaw {
			t.Fatalf("%s: got %v %v", tc.edge, off, yaw)
		}
	}
}

func TestScene_SnapshotThenLiveUpdates(t *testing.T) {
	s := newScene(t)
	root := s.LoadChunk(grid.ChunkCoord{X: 0, Y: 0})
	if again := s.LoadChunk(grid.ChunkCoord{X: 0, Y: 0}); again != root {
		t.Fatalf("loading a chunk twice should reuse its root")
	}
	p := grid.MapPos{Tile: grid.TilePos{X: 1, Y: 1}}
	s.UpdateTile(p, true, 0)
	s.SpawnCrop(root, p, grid.Crop{Species: 1})
	s.SpawnWall(root, p, grid.North)

	snap, updates, cancel := s.Subscribe(16)
	defer cancel()
	ops := []string{}
	for _, c := range snap {
		ops = append(ops, c.Op)
	}
	want := []string{observerproto.OpChunkRoot, observerproto.OpTile, observerproto.OpCropSpawn, observerproto.OpWallSpawn}
	if len(ops) != len(want) {
		t.Fatalf("snapshot ops: %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("snapshot ops: %v", ops)
		}
	}
	if snap[2].Atlas != "sprites/red_debug_plant.png" || snap[2].Parent != uint64(root) {
		t.Fatalf("crop cmd: %+v", snap[2])
	}

	s.AdvanceCrop(p, 2)
	cmd := <-updates
	if cmd.Op != observerproto.OpCropStage || cmd.Stage != 2 || cmd.Texture != 2 {
		t.Fatalf("advance cmd: %+v", cmd)
	}
	if cmd.Seq <= snap[0].Seq {
		t.Fatalf("live seq should follow snapshot seq")
	}

	if !s.RemoveCrop(p) {
		t.Fatalf("remove should find the crop visual")
	}
	if s.RemoveCrop(p) {
		t.Fatalf("second remove should report missing visual")
	}
	if cmd := <-updates; cmd.Op != observerproto.OpCropRemove {
		t.Fatalf("remove cmd: %+v", cmd)
	}
}

func TestScene_DropsAndUntill(t *testing.T) {
	s := newScene(t)
	s.LoadChunk(grid.ChunkCoord{X: 0, Y: 0})
	p := grid.MapPos{Tile: grid.TilePos{X: 2, Y: 5}}
	s.UpdateTile(p, true, 10)
	s.UpdateTile(p, false, 0)
	s.SpawnDrop(world.ItemDrop{ID: 7, Item: items.Crop(0), Amount: 1, Pos: p})

	snap, _, cancel := s.Subscribe(4)
	defer cancel()
	if len(snap) != 2 {
		t.Fatalf("snapshot: %+v", snap)
	}
	d := snap[1]
	if d.Op != observerproto.OpDropSpawn || d.Item != "Blue Debug Plant" || d.Pos != [3]float32{2, 0, 5} {
		t.Fatalf("drop cmd: %+v", d)
	}
	s.RemoveDrop(7)
	snap, _, cancel2 := s.Subscribe(4)
	defer cancel2()
	if len(snap) != 1 {
		t.Fatalf("drop should be gone: %+v", snap)
	}
}

func TestScene_SlowSubscriberDropped(t *testing.T) {
	s := newScene(t)
	_, updates, cancel := s.Subscribe(1)
	defer cancel()
	s.LoadChunk(grid.ChunkCoord{X: 0, Y: 0})
	s.LoadChunk(grid.ChunkCoord{X: 1, Y: 0})
	if s.Subscribers() != 0 {
		t.Fatalf("slow subscriber should be dropped")
	}
	<-updates
	if _, ok := <-updates; ok {
		t.Fatalf("channel should be closed")
	}
}

func TestScene_DrivenByWorld(t *testing.T) {
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	s := NewScene(cats, nil)
	w, err := world.New(world.WorldConfig{TickRateHz: 20}, cats, s, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if _, ok := s.ChunkRoot(grid.ChunkCoord{X: -1, Y: -1}); !ok {
		t.Fatalf("world should load chunk roots into the scene")
	}
	snap, _, cancel := s.Subscribe(0)
	defer cancel()
	if len(snap) != w.Metrics().LoadedChunks {
		t.Fatalf("snapshot roots: got %d want %d", len(snap), w.Metrics().LoadedChunks)
	}
}
