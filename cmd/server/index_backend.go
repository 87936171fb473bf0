package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tillcraft.ai/internal/persistence/indexdb"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/tuning"
	"tillcraft.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.AuditLogger
	Close() error
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	HarvestCounts(ctx context.Context) ([]indexdb.HarvestCount, error)
	Stats() indexdb.Stats
}

func openRuntimeIndex(worldDir string, tune tuning.Tuning, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB || !tune.Index.Enabled {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("TC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", tune.Index.File)
		logger.Printf("index: sqlite %s", dbPath)
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported TC_INDEX_BACKEND: %s", backend)
	}
}
