package world

import (
	"context"
	"errors"
	"fmt"
)

type ControlOp string

const (
	ControlPause    ControlOp = "PAUSE"
	ControlResume   ControlOp = "RESUME"
	ControlToggle   ControlOp = "TOGGLE"
	ControlSetScale ControlOp = "SET_SCALE"
)

// Control changes the simulation clock at the next tick boundary.
type Control struct {
	Op    ControlOp `json:"op"`
	Scale float64   `json:"scale,omitempty"`
}

type ControlResult struct {
	Paused bool    `json:"paused"`
	Scale  float64 `json:"scale"`
	Err    string  `json:"error,omitempty"`
}

type controlReq struct {
	Control Control
	Resp    chan ControlResult
}

// RequestControl queues c for the next tick and waits for its result.
func (w *World) RequestControl(ctx context.Context, c Control) (ControlResult, error) {
	if w == nil || w.control == nil {
		return ControlResult{}, errors.New("control not available")
	}
	req := controlReq{Control: c, Resp: make(chan ControlResult, 1)}
	select {
	case w.control <- req:
	case <-ctx.Done():
		return ControlResult{}, ctx.Err()
	}
	select {
	case res := <-req.Resp:
		if res.Err != "" {
			return res, errors.New(res.Err)
		}
		return res, nil
	case <-ctx.Done():
		return ControlResult{}, ctx.Err()
	}
}

func (w *World) applyControl(c Control) ControlResult {
	var err error
	switch c.Op {
	case ControlPause:
		w.clock.Pause()
	case ControlResume:
		w.clock.Resume()
	case ControlToggle:
		w.clock.TogglePause()
	case ControlSetScale:
		err = w.clock.SetScale(c.Scale)
	default:
		err = fmt.Errorf("unknown control op %q", c.Op)
	}
	res := ControlResult{Paused: w.clock.Paused(), Scale: w.clock.Scale()}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}
