// Package telemetry aggregates per-tick samples into fixed windows and
// writes one CSV row per window.
package telemetry

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"tillcraft.ai/internal/sim/world"
)

// WindowStats summarizes WindowTicks consecutive ticks.
type WindowStats struct {
	WindowStartTick uint64  `csv:"window_start"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Tilled    int `csv:"tilled"`
	Untilled  int `csv:"untilled"`
	Planted   int `csv:"planted"`
	Harvested int `csv:"harvested"`
	Destroyed int `csv:"destroyed"`
	Grown     int `csv:"grown"`
	Walls     int `csv:"walls"`
	Crops     int `csv:"crops"`

	StepMeanMS float64 `csv:"step_mean_ms"`
	StepStdMS  float64 `csv:"step_std_ms"`
	StepMaxMS  float64 `csv:"step_max_ms"`
}

// Collector implements world.TelemetrySink.
type Collector struct {
	window int
	out    io.Writer
	closer io.Closer
	logger *log.Logger

	cur     WindowStats
	steps   []float64
	started bool

	headerWritten bool

	mu   sync.Mutex
	last WindowStats
	rows int
}

var _ world.TelemetrySink = (*Collector)(nil)

// NewCollector writes to a fresh CSV file at path.
func NewCollector(path string, windowTicks int, logger *log.Logger) (*Collector, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	c := NewCollectorWriter(f, windowTicks, logger)
	c.closer = f
	return c, nil
}

func NewCollectorWriter(out io.Writer, windowTicks int, logger *log.Logger) *Collector {
	if windowTicks < 1 {
		windowTicks = 200
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Collector{
		window: windowTicks,
		out:    out,
		logger: logger,
		steps:  make([]float64, 0, windowTicks),
	}
}

func (c *Collector) ObserveTick(s world.TickSample) {
	if !c.started {
		c.cur = WindowStats{WindowStartTick: s.Tick}
		c.steps = c.steps[:0]
		c.started = true
	}
	c.cur.WindowEndTick = s.Tick
	c.cur.SimTimeSec = s.Elapsed
	c.cur.Tilled += s.Tilled
	c.cur.Untilled += s.Untilled
	c.cur.Planted += s.Planted
	c.cur.Harvested += s.Harvested
	c.cur.Destroyed += s.Destroyed
	c.cur.Grown += s.Grown
	c.cur.Walls += s.Walls
	c.cur.Crops = s.Crops
	c.steps = append(c.steps, s.StepMS)

	if len(c.steps) >= c.window {
		c.flushWindow()
	}
}

func (c *Collector) flushWindow() {
	if !c.started || len(c.steps) == 0 {
		return
	}
	c.cur.StepMeanMS, c.cur.StepStdMS = meanStd(c.steps)
	c.cur.StepMaxMS = floats.Max(c.steps)
	c.started = false

	if err := c.write(c.cur); err != nil {
		c.logger.Printf("telemetry: %v", err)
	}
	c.mu.Lock()
	c.last = c.cur
	c.rows++
	c.mu.Unlock()
}

func (c *Collector) write(ws WindowStats) error {
	records := []WindowStats{ws}
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.out); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Last returns the most recent completed window and how many have been written.
// It may be called from any goroutine.
func (c *Collector) Last() (WindowStats, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.rows
}

// Close writes the partial window, if any, and closes the file.
func (c *Collector) Close() error {
	c.flushWindow()
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

func meanStd(x []float64) (mean, std float64) {
	if len(x) < 2 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
