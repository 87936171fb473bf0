package ws

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tillcraft.ai/internal/protocol"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/encoding"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/world"
)

func startServer(t *testing.T) (*world.World, *websocket.Conn) {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test", TickRateHz: 100}, cats, nil, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(NewServer(w, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return w, conn
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, PlayerName: "tester"}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	return welcome
}

func send(t *testing.T, conn *websocket.Conn, raw string) protocol.AckMsg {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack protocol.AckMsg
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	return ack
}

func TestServer_HelloWelcome(t *testing.T) {
	w, conn := startServer(t)
	welcome := hello(t, conn)
	if welcome.Type != protocol.TypeWelcome || welcome.SessionID == "" {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
	if welcome.WorldID != "test" || welcome.WorldParams.ChunkSize != 32 {
		t.Fatalf("world params: %+v", welcome)
	}
	if welcome.CropsDigest != w.Catalogs().Crops.Digest {
		t.Fatalf("crops digest mismatch")
	}
}

func TestServer_InputTillsTile(t *testing.T) {
	w, conn := startServer(t)
	hello(t, conn)

	ack := send(t, conn, `{"type":"INPUT","protocol_version":"0.1","req_id":"r1",
		"events":[{"action":"HOTBAR_1","pressed":true},{"action":"HOTBAR_1","pressed":false},{"action":"INTERACT","pressed":true}],
		"cursors":[[3,4]]}`)
	if !ack.Accepted || ack.AckFor != "r1" {
		t.Fatalf("input rejected: %+v", ack)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		st, err := w.RequestState(ctx)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if st.Tilled == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServer_Rejections(t *testing.T) {
	_, conn := startServer(t)
	hello(t, conn)

	ack := send(t, conn, `{"type":"INPUT","protocol_version":"0.1","req_id":"r2","cursors":[[5000,5000]]}`)
	if ack.Accepted || ack.Code != protocol.ErrInvalidTarget {
		t.Fatalf("expected invalid target, got %+v", ack)
	}

	ack = send(t, conn, `{"type":"INPUT","protocol_version":"0.1","events":[{"action":"JUMP","pressed":true}]}`)
	if ack.Accepted || ack.Code != protocol.ErrBadRequest {
		t.Fatalf("expected bad request, got %+v", ack)
	}

	ack = send(t, conn, `{"type":"INPUT","protocol_version":"9.9"}`)
	if ack.Accepted || ack.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("expected proto bad request, got %+v", ack)
	}

	ack = send(t, conn, `not json`)
	if ack.Accepted || ack.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("expected malformed json rejection, got %+v", ack)
	}
}

func tilledAt(t *testing.T, st world.StateSnapshot, x, y int) bool {
	t.Helper()
	p := grid.FromWorld(x, y)
	for _, cs := range st.Chunks {
		if cs.Chunk != p.Chunk {
			continue
		}
		codes, err := encoding.DecodeRLE(cs.Tiles, grid.ChunkSize*grid.ChunkSize)
		if err != nil {
			t.Fatalf("decode chunk %s: %v", cs.Chunk, err)
		}
		return grid.TileFromCode(codes[int(p.Tile.X)+int(p.Tile.Y)*grid.ChunkSize]).Tilled
	}
	t.Fatalf("chunk %s missing from state", p.Chunk)
	return false
}

func waitTilled(t *testing.T, w *world.World, n int) world.StateSnapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		st, err := w.RequestState(ctx)
		if err != nil {
			t.Fatalf("state (waiting for %d tilled): %v", n, err)
		}
		if st.Tilled >= n {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_PressAndCursorShareATick(t *testing.T) {
	w, conn := startServer(t)
	hello(t, conn)

	if ack := send(t, conn, `{"type":"INPUT","protocol_version":"0.1","req_id":"sel",
		"events":[{"action":"HOTBAR_1","pressed":true},{"action":"HOTBAR_1","pressed":false}]}`); !ack.Accepted {
		t.Fatalf("select: %+v", ack)
	}

	const rounds = 20
	for i := 0; i < rounds; i++ {
		y := 2*i - 20
		park := fmt.Sprintf(`{"type":"INPUT","protocol_version":"0.1","req_id":"park%d",
			"events":[{"action":"INTERACT","pressed":false}],"cursors":[[1,%d]]}`, i, y)
		hit := fmt.Sprintf(`{"type":"INPUT","protocol_version":"0.1","req_id":"hit%d",
			"events":[{"action":"INTERACT","pressed":true}],"cursors":[[9,%d]]}`, i, y)
		if ack := send(t, conn, park); !ack.Accepted {
			t.Fatalf("round %d park: %+v", i, ack)
		}
		if ack := send(t, conn, hit); !ack.Accepted {
			t.Fatalf("round %d hit: %+v", i, ack)
		}
		waitTilled(t, w, i+1)
	}

	st := waitTilled(t, w, rounds)
	if st.Tilled != rounds {
		t.Fatalf("tilled: got %d want %d", st.Tilled, rounds)
	}
	for i := 0; i < rounds; i++ {
		y := 2*i - 20
		if tilledAt(t, st, 1, y) {
			t.Fatalf("round %d: press applied to the previous cursor (1,%d)", i, y)
		}
		if !tilledAt(t, st, 9, y) {
			t.Fatalf("round %d: target (9,%d) not tilled", i, y)
		}
	}
}

func TestServer_FarCursorRejected(t *testing.T) {
	w, conn := startServer(t)
	hello(t, conn)

	far := 32<<32 + 5
	ack := send(t, conn, fmt.Sprintf(`{"type":"INPUT","protocol_version":"0.1","req_id":"far",
		"events":[{"action":"HOTBAR_1","pressed":true},{"action":"HOTBAR_1","pressed":false},{"action":"INTERACT","pressed":true}],
		"cursors":[[%d,7]]}`, far))
	if ack.Accepted || ack.Code != protocol.ErrInvalidTarget {
		t.Fatalf("expected invalid target, got %+v", ack)
	}

	// The batch still went through with an empty cursor set: the hoe is
	// selected but nothing is tilled.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		st, err := w.RequestState(ctx)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if st.Tool == "HOE" {
			if st.Tilled != 0 || tilledAt(t, st, 5, 7) {
				t.Fatalf("far cursor reached a loaded tile: %+v", st.Tilled)
			}
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCursorsInBounds(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test"}, cats, nil, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	s := NewServer(w, nil)

	kept, dropped := s.cursorsInBounds([][2]int{{32<<32 + 5, 7}, {3, 4}, {-32, -32}, {32, 0}, {7, -(32<<32 + 1)}})
	if dropped != 3 {
		t.Fatalf("dropped: got %d want 3 (kept %v)", dropped, kept)
	}
	want := []grid.MapPos{grid.FromWorld(3, 4), grid.FromWorld(-32, -32)}
	if len(kept) != len(want) || kept[0] != want[0] || kept[1] != want[1] {
		t.Fatalf("kept: got %v want %v", kept, want)
	}
}
