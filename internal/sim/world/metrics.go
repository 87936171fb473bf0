package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Elapsed   float64 `json:"elapsed"`
	Paused    bool    `json:"paused"`
	TimeScale float64 `json:"time_scale"`

	ActiveTool string `json:"active_tool"`
	Rotation   string `json:"rotation"`

	LoadedChunks   int `json:"loaded_chunks"`
	Crops          int `json:"crops"`
	Drops          int `json:"drops"`
	InventoryItems int `json:"inventory_items"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inputs  int `json:"inputs"`
	Pickups int `json:"pickups"`
	Control int `json:"control"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) storeMetrics(stepMS float64) {
	var held uint32
	for _, st := range w.inventory.Items() {
		held += st.Amount
	}
	w.metrics.Store(WorldMetrics{
		Tick:           w.tick.Load(),
		Elapsed:        w.clock.Elapsed(),
		Paused:         w.clock.Paused(),
		TimeScale:      w.clock.Scale(),
		ActiveTool:     w.resolver.Tool().String(),
		Rotation:       w.resolver.Rotation().String(),
		LoadedChunks:   w.store.ChunkCount(),
		Crops:          w.store.CropCount(),
		Drops:          len(w.drops),
		InventoryItems: int(held),
		QueueDepths: QueueDepths{
			Inputs:  len(w.inputs),
			Pickups: len(w.pickups),
			Control: len(w.control),
		},
		StepMS: stepMS,
	})
}
