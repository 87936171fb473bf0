package telemetry

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"tillcraft.ai/internal/sim/world"
)

func TestCollector_WindowsAndCSV(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollectorWriter(&buf, 3, nil)

	steps := []float64{1, 2, 3, 10}
	for i, ms := range steps {
		c.ObserveTick(world.TickSample{Tick: uint64(i), Elapsed: float64(i), StepMS: ms, Tilled: 1, Crops: i})
	}
	last, rows := c.Last()
	if rows != 1 {
		t.Fatalf("rows after one window: %d", rows)
	}
	if last.WindowStartTick != 0 || last.WindowEndTick != 2 || last.Tilled != 3 || last.Crops != 2 {
		t.Fatalf("first window: %+v", last)
	}
	if last.StepMeanMS != 2 || math.Abs(last.StepStdMS-1) > 1e-9 || last.StepMaxMS != 3 {
		t.Fatalf("step stats: %+v", last)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	last, rows = c.Last()
	if rows != 2 || last.WindowStartTick != 3 || last.StepStdMS != 0 || last.StepMaxMS != 10 {
		t.Fatalf("partial window: rows=%d %+v", rows, last)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "window_start,window_end,sim_time") {
		t.Fatalf("csv output:\n%s", buf.String())
	}

	var parsed []WindowStats
	if err := gocsv.UnmarshalString(buf.String(), &parsed); err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(parsed) != 2 || parsed[1].WindowEndTick != 3 {
		t.Fatalf("parsed: %+v", parsed)
	}
}

func TestCollector_DrivenByWorld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "telemetry.csv")
	c, err := NewCollector(path, 2, nil)
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	w, err := world.New(world.WorldConfig{}, mustCatalogs(t), nil, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w.SetTelemetrySink(c)
	for i := 0; i < 4; i++ {
		w.StepOnce(world.StepInput{})
	}
	if _, rows := c.Last(); rows != 2 {
		t.Fatalf("rows: %d", rows)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
