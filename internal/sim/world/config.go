package world

import (
	"fmt"

	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/interact"
	"tillcraft.ai/internal/sim/tuning"
)

type WorldConfig struct {
	ID          string
	TickRateHz  int
	TimeScale   float64
	StartPaused bool

	// Every chunk in the inclusive rectangle ActiveMin..ActiveMax is created at startup.
	ActiveMin grid.ChunkCoord
	ActiveMax grid.ChunkCoord

	Hotbar interact.Hotbar
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "farm"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.TimeScale <= 0 {
		c.TimeScale = 1
	}
	if c.ActiveMin == (grid.ChunkCoord{}) && c.ActiveMax == (grid.ChunkCoord{}) {
		c.ActiveMin = grid.ChunkCoord{X: -1, Y: -1}
	}
	if c.Hotbar == nil {
		c.Hotbar = interact.DefaultHotbar()
	}
}

// ConfigFromTuning maps the tuning file onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) (WorldConfig, error) {
	hb, err := interact.ParseHotbar(t.Hotbar)
	if err != nil {
		return WorldConfig{}, fmt.Errorf("tuning: %w", err)
	}
	return WorldConfig{
		ID:          id,
		TickRateHz:  t.TickRateHz,
		TimeScale:   t.TimeScale,
		StartPaused: t.StartPaused,
		ActiveMin:   grid.ChunkCoord{X: t.ActiveChunks.Min.X, Y: t.ActiveChunks.Min.Y},
		ActiveMax:   grid.ChunkCoord{X: t.ActiveChunks.Max.X, Y: t.ActiveChunks.Max.Y},
		Hotbar:      hb,
	}, nil
}
