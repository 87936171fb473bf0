package protocol

import "tillcraft.ai/internal/sim/input"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldID         string      `json:"world_id"`
	WorldParams     WorldParams `json:"world_params"`
	CropsDigest     string      `json:"crops_digest"`
}

type WorldParams struct {
	TickRateHz int      `json:"tick_rate_hz"`
	ChunkSize  int      `json:"chunk_size"`
	ActiveMin  [2]int32 `json:"active_min"`
	ActiveMax  [2]int32 `json:"active_max"`
}

// INPUT (client -> server). Cursors are absolute tile coordinates; a missing
// cursors field keeps the previous cursor set, an empty one clears it.
type InputMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	ReqID           string        `json:"req_id,omitempty"`
	Events          []input.Event `json:"events,omitempty"`
	Cursors         [][2]int      `json:"cursors,omitempty"`
}

// PICKUP (client -> server)
type PickupMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	DropID          uint64 `json:"drop_id"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
	WorldID         string `json:"world_id,omitempty"`
}
