package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tillcraft.ai/internal/persistence/indexdb"
	"tillcraft.ai/internal/presentation"
	"tillcraft.ai/internal/sim/catalogs"
	"tillcraft.ai/internal/sim/world"
)

type testEnv struct {
	world *world.World
	index *indexdb.SQLiteIndex
	srv   *httptest.Server
}

func newTestEnv(t *testing.T, withIndex bool) *testEnv {
	t.Helper()
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	scene := presentation.NewScene(cats, nil)
	w, err := world.New(world.WorldConfig{ID: "farm", TickRateHz: 100}, cats, scene, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	env := &testEnv{world: w}
	deps := httpDeps{world: w, scene: scene, logger: log.New(io.Discard, "", 0), enableAdmin: true}
	if withIndex {
		idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
		if err != nil {
			t.Fatalf("index: %v", err)
		}
		t.Cleanup(func() { _ = idx.Close() })
		env.index = idx
		deps.index = idx
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	env.srv = httptest.NewServer(newMux(deps))
	t.Cleanup(func() {
		env.srv.Close()
		cancel()
		<-done
	})
	return env
}

func TestMux_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)
	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %v %v", resp, err)
	}
	resp.Body.Close()

	resp, err = http.Get(env.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{`tillcraft_world_tick{world="farm"}`, `tillcraft_world_loaded_chunks{world="farm"} 4`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestMux_PauseAndState(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := http.Get(env.srv.URL + "/admin/v1/pause")
	if err != nil {
		t.Fatalf("get pause: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET pause status: %d", resp.StatusCode)
	}

	resp, err = http.Post(env.srv.URL+"/admin/v1/pause?op=pause", "", nil)
	if err != nil {
		t.Fatalf("post pause: %v", err)
	}
	var res struct {
		OK     bool `json:"ok"`
		Paused bool `json:"paused"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&res)
	resp.Body.Close()
	if !res.OK || !res.Paused {
		t.Fatalf("pause result: %+v", res)
	}

	resp, err = http.Post(env.srv.URL+"/admin/v1/pause?op=SET_SCALE&scale=0", "", nil)
	if err != nil {
		t.Fatalf("post scale: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero scale status: %d", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/admin/v1/state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	defer resp.Body.Close()
	var st world.StateSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.WorldID != "farm" || !st.Paused {
		t.Fatalf("state: %+v", st)
	}
}

func TestMux_Harvests(t *testing.T) {
	env := newTestEnv(t, false)
	resp, err := http.Get(env.srv.URL + "/admin/v1/harvests")
	if err != nil {
		t.Fatalf("harvests: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("harvests without index: %d", resp.StatusCode)
	}

	env = newTestEnv(t, true)
	_ = env.index.WriteAudit(world.AuditEntry{Tick: 1, Action: "HARVEST", Crop: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.index.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	resp, err = http.Get(env.srv.URL + "/admin/v1/harvests")
	if err != nil {
		t.Fatalf("harvests: %v", err)
	}
	defer resp.Body.Close()
	var rows []struct {
		Crop  uint32 `json:"crop"`
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Red Debug Plant" || rows[0].Count != 1 {
		t.Fatalf("rows: %+v", rows)
	}
}

func TestParseControl(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/admin/v1/pause", nil)
	c, err := parseControl(r)
	if err != nil || c.Op != world.ControlToggle {
		t.Fatalf("default op: %+v %v", c, err)
	}
	r = httptest.NewRequest(http.MethodPost, "/admin/v1/pause?op=set_scale&scale=2.5", nil)
	c, err = parseControl(r)
	if err != nil || c.Op != world.ControlSetScale || c.Scale != 2.5 {
		t.Fatalf("set scale: %+v %v", c, err)
	}
	r = httptest.NewRequest(http.MethodPost, "/admin/v1/pause?op=explode", nil)
	if _, err := parseControl(r); err == nil {
		t.Fatalf("unknown op should fail")
	}
}
