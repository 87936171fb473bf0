package grid

import (
	"fmt"
	"strings"

	"tillcraft.ai/internal/sim/items"
)

type GroundType uint8

const (
	Grass GroundType = iota
)

func (g GroundType) String() string {
	switch g {
	case Grass:
		return "GRASS"
	default:
		return fmt.Sprintf("GROUND_%d", uint8(g))
	}
}

// TextureIndex is the atlas slot used for the untilled ground.
func (g GroundType) TextureIndex() int {
	switch g {
	case Grass:
		return 2
	default:
		return 0
	}
}

// Direction is a cardinal direction and doubles as a tile edge.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [...]string{"NORTH", "EAST", "SOUTH", "WEST"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("DIRECTION_%d", uint8(d))
}

func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == s || n[:1] == s {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("unknown direction %q", s)
}

// Rotate turns d clockwise by quarter turns; negative values turn counter-clockwise.
func (d Direction) Rotate(quarterTurns int) Direction {
	r := (int(d) + quarterTurns) % 4
	if r < 0 {
		r += 4
	}
	return Direction(r)
}

// WallSet holds one independent wall flag per tile edge.
type WallSet uint8

func (w WallSet) Has(edge Direction) bool {
	return w&(1<<edge) != 0
}

func (w WallSet) With(edge Direction, present bool) WallSet {
	if present {
		return w | 1<<edge
	}
	return w &^ (1 << edge)
}

func (w WallSet) Edges() []Direction {
	out := make([]Direction, 0, 4)
	for d := North; d <= West; d++ {
		if w.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

type TileState struct {
	Ground GroundType `json:"ground"`
	Tilled bool       `json:"tilled"`
	Walls  WallSet    `json:"walls"`
}

// Crop is a planted crop instance.
//
// NextStageAt is only meaningful while Scheduled is set; Scheduled is false
// exactly when the crop sits at its species' final stage.
type Crop struct {
	Species     items.CropID `json:"species"`
	Stage       uint8        `json:"stage"`
	NextStageAt float64      `json:"next_stage_at,omitempty"`
	Scheduled   bool         `json:"scheduled"`
}

func (c Crop) Next() (float64, bool) {
	return c.NextStageAt, c.Scheduled
}

// Code packs a tile into one byte: walls in the high nibble, the tilled flag
// in bit 3 and the ground type in bits 0-2.
func (t TileState) Code() uint8 {
	c := uint8(t.Ground)&0x7 | uint8(t.Walls)<<4
	if t.Tilled {
		c |= 1 << 3
	}
	return c
}

func TileFromCode(c uint8) TileState {
	return TileState{Ground: GroundType(c & 0x7), Tilled: c&(1<<3) != 0, Walls: WallSet(c >> 4)}
}
