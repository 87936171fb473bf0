package observerproto

// Version is the observer protocol version (separate from the player input protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	Crops           []CropInfo  `json:"crops"`
	Hotbar          []string    `json:"hotbar"`
}

type WorldParams struct {
	TickRateHz int      `json:"tick_rate_hz"`
	ChunkSize  int      `json:"chunk_size"`
	ActiveMin  [2]int32 `json:"active_min"`
	ActiveMax  [2]int32 `json:"active_max"`
	TimeScale  float64  `json:"time_scale"`
}

type CropInfo struct {
	ID              uint32 `json:"id"`
	Name            string `json:"name"`
	Stages          int    `json:"stages"`
	TextureAtlas    string `json:"texture_atlas,omitempty"`
	HarvestedSprite string `json:"harvested_sprite,omitempty"`
}

// Visual command ops.
const (
	OpChunkRoot  = "CHUNK_ROOT"
	OpTile       = "TILE"
	OpCropSpawn  = "CROP_SPAWN"
	OpCropStage  = "CROP_STAGE"
	OpCropRemove = "CROP_REMOVE"
	OpWallSpawn  = "WALL_SPAWN"
	OpDropSpawn  = "DROP_SPAWN"
	OpDropRemove = "DROP_REMOVE"
)

// VisualCmd creates, updates or removes one visual. Positions of visuals with
// a Parent are relative to the parent chunk root; the rest are world space.
type VisualCmd struct {
	Seq    uint64 `json:"seq"`
	Op     string `json:"op"`
	Visual uint64 `json:"visual,omitempty"`
	Parent uint64 `json:"parent,omitempty"`

	Chunk [2]int32  `json:"chunk"`
	Tile  [2]uint32 `json:"tile"`

	Pos [3]float32 `json:"pos"`
	Yaw float32    `json:"yaw,omitempty"`

	Tilled  bool   `json:"tilled,omitempty"`
	Texture int    `json:"texture"`
	Atlas   string `json:"atlas,omitempty"`

	Crop   uint32 `json:"crop,omitempty"`
	Stage  uint8  `json:"stage,omitempty"`
	Edge   string `json:"edge,omitempty"`
	Item   string `json:"item,omitempty"`
	Amount uint32 `json:"amount,omitempty"`
	DropID uint64 `json:"drop_id,omitempty"`
}

// Server -> Client. Full visual state, sent once after SUBSCRIBE.
type SnapshotMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Cmds            []VisualCmd `json:"cmds"`
}

// Server -> Client. Incremental commands in Seq order.
type VisualsMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Cmds            []VisualCmd `json:"cmds"`
}
