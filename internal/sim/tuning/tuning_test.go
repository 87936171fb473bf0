package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.TickRateHz != 20 || d.TimeScale != 1 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.ActiveChunks.Min != (ChunkXY{-1, -1}) || d.ActiveChunks.Max != (ChunkXY{0, 0}) {
		t.Fatalf("active chunks: %+v", d.ActiveChunks)
	}
	if len(d.Hotbar) != 6 || d.Hotbar[3] != "SEED:0" || d.Hotbar[5] != "WALL" {
		t.Fatalf("hotbar: %v", d.Hotbar)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_ReferenceFile(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickRateHz <= 0 || len(tu.Hotbar) == 0 {
		t.Fatalf("unexpected tuning: %+v", tu)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("time_scale: 4\nstart_paused: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TimeScale != 4 || !tu.StartPaused {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	if tu.TickRateHz != 20 || len(tu.Hotbar) != 6 {
		t.Fatalf("defaults lost: %+v", tu)
	}
}

func TestLoad_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"zero scale":      "time_scale: 0\n",
		"inverted bounds": "active_chunks:\n  min: {x: 1, y: 0}\n  max: {x: 0, y: 0}\n",
		"bad yaml":        "tick_rate_hz: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
