package world

import (
	"context"
	"time"

	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/input"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingEvents []input.Event
	var pendingPickups []uint64
	var pendingControl []controlReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case b := <-w.inputs:
			pendingEvents = append(pendingEvents, b.Events...)
			if b.Cursors != nil {
				w.cursors = b.Cursors
			}
		case id := <-w.pickups:
			pendingPickups = append(pendingPickups, id)
		case req := <-w.control:
			pendingControl = append(pendingControl, req)
		case req := <-w.stateReq:
			w.handleStateReq(req)
		case <-ticker.C:
			controls := make([]Control, 0, len(pendingControl))
			for _, req := range pendingControl {
				controls = append(controls, req.Control)
			}
			_, results := w.stepInternal(StepInput{
				Events:   pendingEvents,
				Cursors:  w.cursors,
				Pickups:  pendingPickups,
				Controls: controls,
			})
			for i, req := range pendingControl {
				if req.Resp == nil {
					continue
				}
				select {
				case req.Resp <- results[i]:
				default:
				}
			}
			// Journal sinks may hold on to the slices; start fresh ones.
			pendingEvents = nil
			pendingPickups = nil
			pendingControl = pendingControl[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(in StepInput) (tick uint64, digest string) {
	tick = w.tick.Load()
	digest, _ = w.stepInternal(in)
	return tick, digest
}

// filterCursors drops targets outside the loaded chunks.
func (w *World) filterCursors(cs []grid.MapPos) []grid.MapPos {
	out := make([]grid.MapPos, 0, len(cs))
	for _, c := range cs {
		if w.store.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}
