package tuning

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Tuning struct {
	TickRateHz  int     `yaml:"tick_rate_hz"`
	TimeScale   float64 `yaml:"time_scale"`
	StartPaused bool    `yaml:"start_paused"`

	ActiveChunks ChunkBounds `yaml:"active_chunks"`

	// Hotbar lists the tool binding of slot 1, 2, ... in order.
	Hotbar []string `yaml:"hotbar"`

	Journal   JournalTuning   `yaml:"journal"`
	Index     IndexTuning     `yaml:"index"`
	Telemetry TelemetryTuning `yaml:"telemetry"`
}

type ChunkXY struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
}

// ChunkBounds is an inclusive rectangle of chunk coordinates.
type ChunkBounds struct {
	Min ChunkXY `yaml:"min"`
	Max ChunkXY `yaml:"max"`
}

type JournalTuning struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type IndexTuning struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

type TelemetryTuning struct {
	Enabled     bool   `yaml:"enabled"`
	WindowTicks int    `yaml:"window_ticks"`
	File        string `yaml:"file"`
}

// Defaults returns the embedded reference tuning.
func Defaults() Tuning {
	var t Tuning
	if err := yaml.Unmarshal(defaultsYAML, &t); err != nil {
		panic(fmt.Sprintf("tuning: embedded defaults: %v", err))
	}
	return t
}

// Load reads path over the embedded defaults; keys absent from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0, got %d", t.TickRateHz)
	}
	if t.TimeScale <= 0 {
		return fmt.Errorf("time_scale must be > 0, got %v", t.TimeScale)
	}
	b := t.ActiveChunks
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y {
		return fmt.Errorf("active_chunks: min %v exceeds max %v", b.Min, b.Max)
	}
	if len(t.Hotbar) > 9 {
		return fmt.Errorf("hotbar: at most 9 slots, got %d", len(t.Hotbar))
	}
	if t.Telemetry.Enabled && t.Telemetry.WindowTicks <= 0 {
		return fmt.Errorf("telemetry.window_ticks must be > 0")
	}
	return nil
}
