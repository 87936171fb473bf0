// Package input tracks the pressed state of abstract player actions across ticks.
package input

import (
	"fmt"
	"strings"
)

type Action uint8

const (
	Interact Action = iota
	Hotbar1
	Hotbar2
	Hotbar3
	Hotbar4
	Hotbar5
	Hotbar6
	Hotbar7
	Hotbar8
	Hotbar9
	RotateClockwise
	RotateCounterClockwise
	TogglePause

	numActions
)

var actionNames = [numActions]string{
	"INTERACT",
	"HOTBAR_1", "HOTBAR_2", "HOTBAR_3", "HOTBAR_4", "HOTBAR_5",
	"HOTBAR_6", "HOTBAR_7", "HOTBAR_8", "HOTBAR_9",
	"ROTATE_CW",
	"ROTATE_CCW",
	"TOGGLE_PAUSE",
}

func (a Action) String() string {
	if a < numActions {
		return actionNames[a]
	}
	return fmt.Sprintf("ACTION_%d", uint8(a))
}

func ParseAction(s string) (Action, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range actionNames {
		if n == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	if a >= numActions {
		return nil, fmt.Errorf("unknown action %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// HotbarSlot returns the 1-based slot of a hotbar action.
func (a Action) HotbarSlot() (int, bool) {
	if a >= Hotbar1 && a <= Hotbar9 {
		return int(a-Hotbar1) + 1, true
	}
	return 0, false
}

// Event is one press or release of an action.
type Event struct {
	Action  Action `json:"action"`
	Pressed bool   `json:"pressed"`
}

type bits uint16

func (b bits) has(a Action) bool { return b&(1<<a) != 0 }

// State is the per-tick view of the action set. Events are applied during a
// tick, queries answer for the tick being built, and EndTick rolls over.
//
// A press and release that both land inside one tick still read as pressed
// and just-pressed for that tick, so short taps are never lost.
type State struct {
	held     bits
	pressed  bits
	released bits
}

func (s *State) Apply(ev Event) {
	if ev.Action >= numActions {
		return
	}
	m := bits(1) << ev.Action
	if ev.Pressed {
		if s.held&m == 0 {
			s.pressed |= m
		}
		s.held |= m
		return
	}
	if s.held&m != 0 {
		s.released |= m
	}
	s.held &^= m
}

func (s *State) Pressed(a Action) bool {
	return s.held.has(a) || s.pressed.has(a)
}

func (s *State) JustPressed(a Action) bool  { return s.pressed.has(a) }
func (s *State) JustReleased(a Action) bool { return s.released.has(a) }

// EndTick clears the edge flags.
func (s *State) EndTick() {
	s.pressed = 0
	s.released = 0
}
