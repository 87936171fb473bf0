package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	persistlog "tillcraft.ai/internal/persistence/log"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/tuning"
	"tillcraft.ai/internal/sim/world"
)

func main() {
	var (
		journalDir = flag.String("journal", "", "journal dir containing ticks/ticks-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldID    = flag.String("world", "farm", "world id")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags|log.Lmicroseconds)

	if *journalDir == "" {
		fmt.Fprintln(os.Stderr, "missing -journal")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	cfg, err := world.ConfigFromTuning(*worldID, tune)
	if err != nil {
		logger.Fatalf("world config: %v", err)
	}
	w, err := world.New(cfg, cats, world.NopBinding{}, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	start := time.Now()
	sum, err := replay(w, *journalDir, *fromTick, *toTick)
	if err != nil {
		logger.Fatalf("replay: %v", err)
	}
	fmt.Printf("replay ok: stepped=%s checked=%s ticks from %s of journal in %s\n",
		humanize.Comma(int64(sum.Stepped)),
		humanize.Comma(int64(sum.Checked)),
		humanize.Bytes(uint64(sum.JournalBytes)),
		time.Since(start).Round(time.Millisecond))
	fmt.Printf("final: tick=%s elapsed=%ss crops=%d tilled=%d inventory=%d\n",
		humanize.Comma(int64(w.CurrentTick())),
		humanize.FtoaWithDigits(w.Clock().Elapsed(), 2),
		w.Store().CropCount(),
		w.Store().TilledCount(),
		len(w.Inventory().Items()))
}

type summary struct {
	Stepped      uint64
	Checked      uint64
	JournalBytes int64
}

var errStop = errors.New("stop")

// replay feeds every journaled tick through StepOnce and compares digests for
// ticks >= verifyFrom. toTick of zero means the whole journal.
func replay(w *world.World, journalDir string, verifyFrom, toTick uint64) (summary, error) {
	var sum summary
	files, err := persistlog.Files(persistlog.TicksDir(journalDir))
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("no journal files found in %s", persistlog.TicksDir(journalDir))
	}
	for _, path := range files {
		if fi, err := os.Stat(path); err == nil {
			sum.JournalBytes += fi.Size()
		}
	}

	err = persistlog.ReadTicks(journalDir, func(entry world.TickLogEntry) error {
		if toTick != 0 && entry.Tick > toTick {
			return errStop
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}
		tick, got := w.StepOnce(entry.Input())
		sum.Stepped++
		if tick >= verifyFrom {
			sum.Checked++
			if got != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return sum, err
	}
	return sum, nil
}
