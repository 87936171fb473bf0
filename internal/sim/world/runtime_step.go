package world

import (
	"time"

	"tillcraft.ai/internal/sim/input"
	"tillcraft.ai/internal/sim/interact"
	"tillcraft.ai/internal/sim/items"
)

// stepInternal runs one tick: controls -> tool input -> clock -> detect ->
// resolve -> destroy/harvest -> pickups -> tile propagation -> growth.
func (w *World) stepInternal(in StepInput) (string, []ControlResult) {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	results := make([]ControlResult, 0, len(in.Controls))
	for _, c := range in.Controls {
		results = append(results, w.applyControl(c))
	}

	for _, ev := range in.Events {
		w.input.Apply(ev)
	}
	for a := input.Hotbar1; a <= input.Hotbar9; a++ {
		if w.input.JustPressed(a) {
			slot, _ := a.HotbarSlot()
			w.resolver.SelectSlot(slot)
		}
	}
	if w.input.JustPressed(input.RotateClockwise) {
		w.resolver.Rotate(1)
	}
	if w.input.JustPressed(input.RotateCounterClockwise) {
		w.resolver.Rotate(-1)
	}
	if w.input.JustPressed(input.TogglePause) {
		w.clock.TogglePause()
	}

	w.clock.Advance(w.TickDuration())
	now := w.clock.Elapsed()

	cursors := w.filterCursors(in.Cursors)
	interactions := w.resolver.Detect(w.input.Pressed(input.Interact), w.input.JustPressed(input.Interact), cursors)
	out := w.resolver.Resolve(w.store, now, interactions)

	sample := TickSample{
		Tick:     nowTick,
		Elapsed:  now,
		Tilled:   len(out.Tilled),
		Untilled: len(out.Untilled),
		Planted:  len(out.Planted),
		Walls:    len(out.Walls),
	}
	w.applyOutcome(nowTick, out, &sample)

	for _, id := range in.Pickups {
		if d, ok := w.pickupDrop(id); ok {
			w.audit(AuditEntry{Tick: nowTick, Action: "PICKUP", Pos: d.Pos, Item: d.Item.String(), Amount: d.Amount})
		}
	}

	for _, p := range out.TileUpdates {
		w.tiles.Invalidate(p)
	}
	for _, u := range w.tiles.Flush(w.store) {
		w.binding.UpdateTile(u.Pos, u.Tilled, u.Autotile)
	}

	if !w.clock.Paused() {
		if adv, ok := w.scheduler.Tick(w.store, now); ok {
			w.binding.AdvanceCrop(adv.Pos, adv.Stage)
			sample.Grown++
			w.audit(AuditEntry{Tick: nowTick, Action: "GROW", Pos: adv.Pos, Crop: adv.Species, Stage: adv.Stage})
		}
	}

	w.input.EndTick()

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Events:   in.Events,
			Cursors:  cursors,
			Pickups:  in.Pickups,
			Controls: in.Controls,
			Digest:   digest,
		})
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	sample.StepMS = stepMS
	sample.Crops = w.store.CropCount()
	if w.telemetry != nil {
		w.telemetry.ObserveTick(sample)
	}

	w.tick.Add(1)
	w.storeMetrics(stepMS)
	return digest, results
}

// applyOutcome commits resolver notifications and mirrors them to the binding.
func (w *World) applyOutcome(nowTick uint64, out interact.Outcome, sample *TickSample) {
	for _, p := range out.Tilled {
		w.audit(AuditEntry{Tick: nowTick, Action: "TILL", Pos: p})
	}
	for _, p := range out.Untilled {
		w.audit(AuditEntry{Tick: nowTick, Action: "UNTILL", Pos: p})
	}
	for _, pc := range out.Planted {
		root, ok := w.binding.ChunkRoot(pc.Pos.Chunk)
		if !ok {
			w.logger.Printf("warn: no visual root for chunk %s; crop at %s has no visual", pc.Pos.Chunk, pc.Pos)
		} else {
			w.binding.SpawnCrop(root, pc.Pos, pc.Crop)
		}
		w.audit(AuditEntry{Tick: nowTick, Action: "PLANT", Pos: pc.Pos, Crop: pc.Crop.Species})
	}
	for _, wl := range out.Walls {
		root, ok := w.binding.ChunkRoot(wl.Pos.Chunk)
		if !ok {
			w.logger.Printf("warn: no visual root for chunk %s; wall at %s %s has no visual", wl.Pos.Chunk, wl.Pos, wl.Edge)
		} else {
			w.binding.SpawnWall(root, wl.Pos, wl.Edge)
		}
		w.audit(AuditEntry{Tick: nowTick, Action: "WALL", Pos: wl.Pos, Edge: wl.Edge.String()})
	}

	for _, p := range out.Destroyed {
		c, ok := w.store.RemoveCrop(p)
		if !ok {
			continue
		}
		sample.Destroyed++
		if !w.binding.RemoveCrop(p) {
			w.logger.Printf("warn: destroyed crop at %s had no visual", p)
		}
		w.audit(AuditEntry{Tick: nowTick, Action: "DESTROY", Pos: p, Crop: c.Species, Stage: c.Stage})
	}
	for _, h := range out.Harvested {
		sample.Harvested++
		d := w.spawnDrop(items.Crop(h.Species), 1, h.Pos)
		w.audit(AuditEntry{Tick: nowTick, Action: "HARVEST", Pos: h.Pos, Crop: h.Species, Item: d.Item.String(), Amount: d.Amount})
	}
}

func (w *World) audit(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(e)
}
