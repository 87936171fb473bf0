// Package clock keeps scaled simulation time, independent of wall-clock time.
package clock

import (
	"errors"
	"time"
)

// Clock is advanced once per step by the world loop and read by everything else.
type Clock struct {
	elapsed float64
	delta   float64
	scale   float64
	paused  bool
}

func New(scale float64) *Clock {
	if scale <= 0 {
		scale = 1
	}
	return &Clock{scale: scale}
}

// Advance adds realDelta*scale to the elapsed time. While paused the delta is zero.
func (c *Clock) Advance(realDelta time.Duration) {
	if c.paused {
		c.delta = 0
		return
	}
	c.delta = realDelta.Seconds() * c.scale
	c.elapsed += c.delta
}

// Elapsed is the simulation time in seconds.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Delta is the simulation seconds added by the last Advance.
func (c *Clock) Delta() float64 { return c.delta }

func (c *Clock) Scale() float64 { return c.scale }
func (c *Clock) Paused() bool   { return c.paused }

func (c *Clock) SetScale(scale float64) error {
	if scale <= 0 {
		return errors.New("clock: scale must be positive")
	}
	c.scale = scale
	return nil
}

func (c *Clock) Pause()  { c.paused = true }
func (c *Clock) Resume() { c.paused = false }

func (c *Clock) TogglePause() bool {
	c.paused = !c.paused
	return c.paused
}
