package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tillcraft.ai/internal/protocol"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid := s.handshake(conn)
		if sid == "" {
			return
		}
		s.log.Printf("session %s connected from %s", sid, r.RemoteAddr)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if ack, ok := s.handleMessage(msg); ok {
				if err := writeJSON(conn, ack); err != nil {
					break
				}
			}
		}
		s.log.Printf("session %s closed", sid)
	}
}

func (s *Server) handshake(conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return ""
	}
	if err := protocol.ValidateClientMessage(protocol.TypeHello, msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return ""
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return ""
	}

	cfg := s.world.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		WorldID:         cfg.ID,
		WorldParams: protocol.WorldParams{
			TickRateHz: cfg.TickRateHz,
			ChunkSize:  grid.ChunkSize,
			ActiveMin:  [2]int32{cfg.ActiveMin.X, cfg.ActiveMin.Y},
			ActiveMax:  [2]int32{cfg.ActiveMax.X, cfg.ActiveMax.Y},
		},
		CropsDigest: s.world.Catalogs().Crops.Digest,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return ""
	}
	return welcome.SessionID
}

// handleMessage forwards one client message to the world loop. It returns an
// ACK when the message carried a req_id or was rejected.
func (s *Server) handleMessage(msg []byte) (protocol.AckMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return s.reject("", protocol.ErrProtoBadRequest, "malformed json"), true
	}
	if base.ProtocolVersion != protocol.Version {
		return s.reject("", protocol.ErrProtoBadRequest, "bad protocol_version"), true
	}
	if err := protocol.ValidateClientMessage(base.Type, msg); err != nil {
		return s.reject("", protocol.ErrBadRequest, err.Error()), true
	}

	switch base.Type {
	case protocol.TypeInput:
		var m protocol.InputMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return s.reject(m.ReqID, protocol.ErrBadRequest, err.Error()), true
		}
		batch := world.InputBatch{Events: m.Events}
		dropped := 0
		if m.Cursors != nil {
			batch.Cursors, dropped = s.cursorsInBounds(m.Cursors)
		}
		select {
		case s.world.Inputs() <- batch:
		default:
			return s.reject(m.ReqID, protocol.ErrWorldBusy, "input queue full"), true
		}
		if dropped > 0 {
			return s.reject(m.ReqID, protocol.ErrInvalidTarget, "cursor outside the active area"), true
		}
		return s.accept(m.ReqID)

	case protocol.TypePickup:
		var m protocol.PickupMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return s.reject(m.ReqID, protocol.ErrBadRequest, err.Error()), true
		}
		select {
		case s.world.Pickups() <- m.DropID:
		default:
			return s.reject(m.ReqID, protocol.ErrWorldBusy, "pickup queue full"), true
		}
		return s.accept(m.ReqID)

	default:
		return s.reject("", protocol.ErrBadRequest, "unexpected message type "+base.Type), true
	}
}

// cursorsInBounds converts absolute tile coordinates and drops the ones
// outside the preloaded chunks, including coordinates too large to name a chunk.
func (s *Server) cursorsInBounds(raw [][2]int) ([]grid.MapPos, int) {
	out := make([]grid.MapPos, 0, len(raw))
	dropped := 0
	for _, xy := range raw {
		p, ok := grid.FromWorldChecked(xy[0], xy[1])
		if !ok || !s.world.InBounds(p) {
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

func (s *Server) accept(reqID string) (protocol.AckMsg, bool) {
	if reqID == "" {
		return protocol.AckMsg{}, false
	}
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          reqID,
		Accepted:        true,
		ServerTick:      s.world.CurrentTick(),
		WorldID:         s.world.ID(),
	}, true
}

func (s *Server) reject(reqID, code, message string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          reqID,
		Accepted:        false,
		Code:            code,
		Message:         message,
		ServerTick:      s.world.CurrentTick(),
		WorldID:         s.world.ID(),
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
