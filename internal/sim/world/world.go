package world

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"tillcraft.ai/internal/sim/autotile"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/clock"
	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/growth"
	"tillcraft.ai/internal/sim/input"
	"tillcraft.ai/internal/sim/interact"
	"tillcraft.ai/internal/sim/items"
)

// StepInput is everything a single tick consumes. It is recorded verbatim in
// the tick journal so a replay can feed it back through StepOnce.
type StepInput struct {
	Events   []input.Event
	Cursors  []grid.MapPos
	Pickups  []uint64
	Controls []Control
}

// InputBatch is the input carried by one client message. The loop applies a
// batch as a unit so its events and cursors land in the same tick. A nil
// Cursors keeps the current cursor set; an empty one clears it.
type InputBatch struct {
	Events  []input.Event
	Cursors []grid.MapPos
}

// World is a single-threaded authoritative farm simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	logger   *log.Logger
	binding  Binding

	tick atomic.Uint64

	store     *grid.Store
	clock     *clock.Clock
	input     input.State
	resolver  *interact.Resolver
	scheduler *growth.Scheduler
	tiles     *autotile.Propagator
	inventory *items.Inventory

	drops      map[uint64]ItemDrop
	nextDropID uint64

	// Latest cursor set reported by the input transport; persists across ticks.
	cursors []grid.MapPos

	inputs   chan InputBatch
	pickups  chan uint64
	control  chan controlReq
	stateReq chan stateReq
	stop     chan struct{}

	// Optional sinks (may be nil). Implemented in internal/persistence/* and internal/telemetry.
	tickLogger  TickLogger
	auditLogger AuditLogger
	telemetry   TelemetrySink

	metrics atomic.Value
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TelemetrySink interface {
	ObserveTick(s TickSample)
}

type TickLogEntry struct {
	Tick     uint64        `json:"tick"`
	Events   []input.Event `json:"events,omitempty"`
	Cursors  []grid.MapPos `json:"cursors,omitempty"`
	Pickups  []uint64      `json:"pickups,omitempty"`
	Controls []Control     `json:"controls,omitempty"`
	Digest   string        `json:"digest"`
}

// Input returns the recorded input of the entry.
func (e TickLogEntry) Input() StepInput {
	return StepInput{Events: e.Events, Cursors: e.Cursors, Pickups: e.Pickups, Controls: e.Controls}
}

type AuditEntry struct {
	Tick   uint64       `json:"tick"`
	Action string       `json:"action"` // e.g. "TILL", "HARVEST"
	Pos    grid.MapPos  `json:"pos"`
	Crop   items.CropID `json:"crop,omitempty"`
	Stage  uint8        `json:"stage,omitempty"`
	Edge   string       `json:"edge,omitempty"`
	Item   string       `json:"item,omitempty"`
	Amount uint32       `json:"amount,omitempty"`
}

// TickSample is the per-tick activity summary handed to the telemetry sink.
type TickSample struct {
	Tick      uint64
	Elapsed   float64
	StepMS    float64
	Tilled    int
	Untilled  int
	Planted   int
	Harvested int
	Destroyed int
	Grown     int
	Walls     int
	Crops     int
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, binding Binding, logger *log.Logger) (*World, error) {
	cfg.applyDefaults()
	if cats == nil {
		return nil, fmt.Errorf("world: missing catalogs")
	}
	if cfg.ActiveMin.X > cfg.ActiveMax.X || cfg.ActiveMin.Y > cfg.ActiveMax.Y {
		return nil, fmt.Errorf("world: active bounds %s..%s are empty", cfg.ActiveMin, cfg.ActiveMax)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if binding == nil {
		binding = NopBinding{}
	}

	w := &World{
		cfg:       cfg,
		catalogs:  cats,
		logger:    logger,
		binding:   binding,
		store:     grid.NewStore(),
		clock:     clock.New(cfg.TimeScale),
		resolver:  interact.NewResolver(cfg.Hotbar, cats, logger),
		scheduler: growth.NewScheduler(cats, logger),
		tiles:     autotile.NewPropagator(),
		inventory: items.NewInventory(),
		drops:     map[uint64]ItemDrop{},
		inputs:    make(chan InputBatch, 256),
		pickups:   make(chan uint64, 64),
		control:   make(chan controlReq, 16),
		stateReq:  make(chan stateReq, 16),
		stop:      make(chan struct{}),
	}
	if cfg.StartPaused {
		w.clock.Pause()
	}
	w.store.Preload(cfg.ActiveMin, cfg.ActiveMax)
	for _, c := range w.store.ChunkCoords() {
		w.binding.LoadChunk(c)
	}
	w.storeMetrics(0)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)       { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)     { w.auditLogger = l }
func (w *World) SetTelemetrySink(s TelemetrySink) { w.telemetry = s }

func (w *World) Inputs() chan<- InputBatch    { return w.inputs }
func (w *World) Pickups() chan<- uint64       { return w.pickups }
func (w *World) CurrentTick() uint64          { return w.tick.Load() }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }
func (w *World) TickDuration() time.Duration  { return time.Second / time.Duration(w.cfg.TickRateHz) }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) ActiveBounds() (lo, hi grid.ChunkCoord) {
	return w.cfg.ActiveMin, w.cfg.ActiveMax
}

// Store, Inventory and Resolver expose loop-owned state for tests and
// replays that drive the world with StepOnce. Do not use them while Run is active.
func (w *World) Store() *grid.Store           { return w.store }
func (w *World) Inventory() *items.Inventory  { return w.inventory }
func (w *World) Resolver() *interact.Resolver { return w.resolver }
func (w *World) Clock() *clock.Clock          { return w.clock }

// InBounds reports whether p lies in a chunk created at startup. It reads
// only immutable config and is safe from any goroutine.
func (w *World) InBounds(p grid.MapPos) bool {
	c := p.Chunk
	return p.Tile.X < grid.ChunkSize && p.Tile.Y < grid.ChunkSize &&
		c.X >= w.cfg.ActiveMin.X && c.X <= w.cfg.ActiveMax.X &&
		c.Y >= w.cfg.ActiveMin.Y && c.Y <= w.cfg.ActiveMax.Y
}

func (w *World) Config() WorldConfig { return w.cfg }
