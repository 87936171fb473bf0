package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tillcraft.ai/internal/presentation"
	"tillcraft.ai/internal/sim/world"
	"tillcraft.ai/internal/telemetry"
	"tillcraft.ai/internal/transport/observer"
	"tillcraft.ai/internal/transport/ws"
)

type httpDeps struct {
	world     *world.World
	scene     *presentation.Scene
	index     runtimeIndex
	telemetry *telemetry.Collector
	logger    *log.Logger

	enableAdmin bool
}

func newMux(d httpDeps) *http.ServeMux {
	w := d.world
	worldID := w.ID()
	obsSrv := observer.NewServer(w, d.scene, d.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()
		tick := w.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}
		paused := 0
		if m.Paused {
			paused = 1
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP tillcraft_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_tick gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_tick{world=%q} %d\n", worldID, tick)

		fmt.Fprintf(rw, "# HELP tillcraft_world_elapsed_seconds Scaled simulation time.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_elapsed_seconds gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_elapsed_seconds{world=%q} %.3f\n", worldID, m.Elapsed)

		fmt.Fprintf(rw, "# HELP tillcraft_world_paused 1 while the simulation clock is paused.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_paused gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_paused{world=%q} %d\n", worldID, paused)

		fmt.Fprintf(rw, "# HELP tillcraft_world_time_scale Simulation time scale.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_time_scale gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_time_scale{world=%q} %.3f\n", worldID, m.TimeScale)

		fmt.Fprintf(rw, "# HELP tillcraft_world_loaded_chunks Loaded chunk count.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_loaded_chunks gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_loaded_chunks{world=%q} %d\n", worldID, m.LoadedChunks)

		fmt.Fprintf(rw, "# HELP tillcraft_world_crops Planted crop count.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_crops gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_crops{world=%q} %d\n", worldID, m.Crops)

		fmt.Fprintf(rw, "# HELP tillcraft_world_drops Item drops waiting for pickup.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_drops gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_drops{world=%q} %d\n", worldID, m.Drops)

		fmt.Fprintf(rw, "# HELP tillcraft_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "inputs", m.QueueDepths.Inputs)
		fmt.Fprintf(rw, "tillcraft_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "pickups", m.QueueDepths.Pickups)
		fmt.Fprintf(rw, "tillcraft_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "control", m.QueueDepths.Control)

		fmt.Fprintf(rw, "# HELP tillcraft_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_world_step_ms gauge\n")
		fmt.Fprintf(rw, "tillcraft_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

		fmt.Fprintf(rw, "# HELP tillcraft_observer_sessions Connected observer sessions.\n")
		fmt.Fprintf(rw, "# TYPE tillcraft_observer_sessions gauge\n")
		fmt.Fprintf(rw, "tillcraft_observer_sessions{world=%q} %d\n", worldID, obsSrv.Sessions())

		if d.telemetry != nil {
			if win, rows := d.telemetry.Last(); rows > 0 {
				fmt.Fprintf(rw, "# HELP tillcraft_window_step_ms Step time over the last telemetry window.\n")
				fmt.Fprintf(rw, "# TYPE tillcraft_window_step_ms gauge\n")
				fmt.Fprintf(rw, "tillcraft_window_step_ms{world=%q,stat=%q} %.3f\n", worldID, "mean", win.StepMeanMS)
				fmt.Fprintf(rw, "tillcraft_window_step_ms{world=%q,stat=%q} %.3f\n", worldID, "std", win.StepStdMS)
				fmt.Fprintf(rw, "tillcraft_window_step_ms{world=%q,stat=%q} %.3f\n", worldID, "max", win.StepMaxMS)
			}
		}
		if d.index != nil {
			st := d.index.Stats()
			fmt.Fprintf(rw, "# HELP tillcraft_index_queue_depth Index writer backlog.\n")
			fmt.Fprintf(rw, "# TYPE tillcraft_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "tillcraft_index_queue_depth{world=%q} %d\n", worldID, st.QueueDepth)
			fmt.Fprintf(rw, "# HELP tillcraft_index_dropped_total Index writes dropped because the queue was full.\n")
			fmt.Fprintf(rw, "# TYPE tillcraft_index_dropped_total counter\n")
			fmt.Fprintf(rw, "tillcraft_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", st.DropTickTotal)
			fmt.Fprintf(rw, "tillcraft_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "audit", st.DropAuditTotal)
		}
	})

	if d.enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			st, err := w.RequestState(ctx)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusServiceUnavailable)
				return
			}
			writeJSON(rw, http.StatusOK, st)
		})
		mux.HandleFunc("/admin/v1/pause", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			c, err := parseControl(r)
			if err != nil {
				writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			res, err := w.RequestControl(ctx, c)
			if err != nil {
				writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "paused": res.Paused, "scale": res.Scale})
		})
		mux.HandleFunc("/admin/v1/harvests", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if d.index == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			counts, err := d.index.HarvestCounts(r.Context())
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			type row struct {
				Crop  uint32 `json:"crop"`
				Name  string `json:"name"`
				Count int    `json:"count"`
			}
			out := make([]row, 0, len(counts))
			for _, hc := range counts {
				name, _ := w.Catalogs().CropName(hc.Crop)
				out = append(out, row{Crop: uint32(hc.Crop), Name: name, Count: hc.Count})
			}
			writeJSON(rw, http.StatusOK, out)
		})

		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		d.logger.Printf("admin endpoints disabled (TC_ENABLE_ADMIN_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, d.logger).Handler())
	return mux
}

// parseControl reads ?op=PAUSE|RESUME|TOGGLE|SET_SCALE&scale=<f>. A bare
// POST toggles.
func parseControl(r *http.Request) (world.Control, error) {
	q := r.URL.Query()
	op := world.ControlOp(strings.ToUpper(strings.TrimSpace(q.Get("op"))))
	if op == "" {
		op = world.ControlToggle
	}
	c := world.Control{Op: op}
	switch op {
	case world.ControlPause, world.ControlResume, world.ControlToggle:
	case world.ControlSetScale:
		s, err := strconv.ParseFloat(q.Get("scale"), 64)
		if err != nil {
			return world.Control{}, fmt.Errorf("bad scale: %w", err)
		}
		c.Scale = s
	default:
		return world.Control{}, fmt.Errorf("unknown op %q", op)
	}
	return c, nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
