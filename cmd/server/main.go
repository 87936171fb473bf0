package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "tillcraft.ai/internal/persistence/log"
	"tillcraft.ai/internal/presentation"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/tuning"
	"tillcraft.ai/internal/sim/world"
	"tillcraft.ai/internal/telemetry"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "farm", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/audit index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

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
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional read model; does not affect sim determinism.
	idx, err := openRuntimeIndex(worldDir, tune, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	cfg, err := world.ConfigFromTuning(*worldID, tune)
	if err != nil {
		logger.Fatalf("world config: %v", err)
	}
	scene := presentation.NewScene(cats, logger)
	w, err := world.New(cfg, cats, scene, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	var tickLog world.TickLogger
	var auditLog world.AuditLogger
	if tune.Journal.Enabled {
		journalDir := filepath.Join(worldDir, tune.Journal.Dir)
		tl := persistlog.NewTickLogger(journalDir)
		al := persistlog.NewAuditLogger(journalDir)
		defer tl.Close()
		defer al.Close()
		tickLog, auditLog = tl, al
		logger.Printf("journal: %s", journalDir)
	}
	var tickIdx world.TickLogger
	var auditIdx world.AuditLogger
	if idx != nil {
		tickIdx, auditIdx = idx, idx
	}
	w.SetTickLogger(multiTickLogger{a: tickLog, b: tickIdx})
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: auditIdx})

	var tele *telemetry.Collector
	if tune.Telemetry.Enabled {
		tele, err = telemetry.NewCollector(filepath.Join(worldDir, tune.Telemetry.File), tune.Telemetry.WindowTicks, logger)
		if err != nil {
			logger.Fatalf("telemetry: %v", err)
		}
		w.SetTelemetrySink(tele)
	}

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := newMux(httpDeps{
		world:       w,
		scene:       scene,
		index:       idx,
		telemetry:   tele,
		logger:      logger,
		enableAdmin: envBool("TC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world=%s chunks=%s..%s tick_rate=%dHz scale=%.2f", cfg.ID, cfg.ActiveMin, cfg.ActiveMax, w.TickRateHz(), tune.TimeScale)
	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// The loop must stop before the deferred journal and index closes run.
	cancel()
	<-worldDone
	if tele != nil {
		_ = tele.Close()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
