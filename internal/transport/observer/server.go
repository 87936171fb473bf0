package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tillcraft.ai/internal/observerproto"
	"tillcraft.ai/internal/presentation"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/world"
)

// maxBatch caps the commands packed into one VISUALS message.
const maxBatch = 256

type Server struct {
	world *world.World
	scene *presentation.Scene
	log   *log.Logger

	upgrader websocket.Upgrader
	sessions atomic.Int64
}

func NewServer(w *world.World, scene *presentation.Scene, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		world: w,
		scene: scene,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Sessions is the number of connected observers.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		cats := s.world.Catalogs()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				TickRateHz: cfg.TickRateHz,
				ChunkSize:  grid.ChunkSize,
				ActiveMin:  [2]int32{cfg.ActiveMin.X, cfg.ActiveMin.Y},
				ActiveMax:  [2]int32{cfg.ActiveMax.X, cfg.ActiveMax.Y},
				TimeScale:  s.world.Metrics().TimeScale,
			},
		}
		for _, id := range cats.CropIDs() {
			def, _ := cats.Species(id)
			resp.Crops = append(resp.Crops, observerproto.CropInfo{
				ID:              uint32(def.ID),
				Name:            def.Name,
				Stages:          int(def.Stages),
				TextureAtlas:    def.TextureAtlas,
				HarvestedSprite: def.HarvestedSprite,
			})
		}
		for _, tool := range cfg.Hotbar {
			resp.Hotbar = append(resp.Hotbar, tool.String())
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		snapshot, updates, unsubscribe := s.scene.Subscribe(4096)
		defer unsubscribe()
		s.sessions.Add(1)
		defer s.sessions.Add(-1)

		if err := writeJSON(conn, observerproto.SnapshotMsg{
			Type:            "SNAPSHOT",
			ProtocolVersion: observerproto.Version,
			Cmds:            snapshot,
		}); err != nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case cmd, ok := <-updates:
					if !ok {
						// The scene dropped us for falling behind.
						_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"), time.Now().Add(time.Second))
						writeErr <- nil
						return
					}
					batch := drain(cmd, updates)
					if err := writeJSON(conn, observerproto.VisualsMsg{
						Type:            "VISUALS",
						ProtocolVersion: observerproto.Version,
						Cmds:            batch,
					}); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: observers only send keepalives; anything else is ignored.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// drain collects first plus whatever is already queued, up to maxBatch.
func drain(first observerproto.VisualCmd, ch <-chan observerproto.VisualCmd) []observerproto.VisualCmd {
	batch := []observerproto.VisualCmd{first}
	for len(batch) < maxBatch {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return batch
			}
			batch = append(batch, cmd)
		default:
			return batch
		}
	}
	return batch
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
