package interact

import (
	"fmt"
	"strconv"
	"strings"

	"tillcraft.ai/internal/sim/items"
)

type ToolKind uint8

const (
	ToolNone ToolKind = iota
	ToolItem
	ToolWall
)

// Tool is the active tool: nothing, an item (hoe, seed, ...) or wall building.
type Tool struct {
	Kind ToolKind
	Item items.ItemID
}

func ItemTool(id items.ItemID) Tool { return Tool{Kind: ToolItem, Item: id} }
func WallTool() Tool                { return Tool{Kind: ToolWall} }

func (t Tool) String() string {
	switch t.Kind {
	case ToolItem:
		switch t.Item.Kind {
		case items.KindTool:
			return strings.ToUpper(t.Item.Tool.String())
		case items.KindSeed:
			return fmt.Sprintf("SEED:%d", t.Item.Crop)
		case items.KindCrop:
			return fmt.Sprintf("CROP:%d", t.Item.Crop)
		}
		return "NONE"
	case ToolWall:
		return "WALL"
	default:
		return "NONE"
	}
}

// ParseTool accepts the names produced by Tool.String.
func ParseTool(s string) (Tool, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "", "NONE":
		return Tool{}, nil
	case "WALL":
		return WallTool(), nil
	case "HOE":
		return ItemTool(items.Tool(items.Hoe)), nil
	case "PICKAXE":
		return ItemTool(items.Tool(items.Pickaxe)), nil
	case "SCYTHE":
		return ItemTool(items.Tool(items.Scythe)), nil
	}
	if rest, ok := strings.CutPrefix(s, "SEED:"); ok {
		id, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return Tool{}, fmt.Errorf("bad seed id %q: %w", rest, err)
		}
		return ItemTool(items.Seed(items.CropID(id))), nil
	}
	return Tool{}, fmt.Errorf("unknown tool %q", s)
}

// Hotbar maps slot N (1-based) to Hotbar[N-1].
type Hotbar []Tool

func ParseHotbar(names []string) (Hotbar, error) {
	h := make(Hotbar, 0, len(names))
	for i, n := range names {
		t, err := ParseTool(n)
		if err != nil {
			return nil, fmt.Errorf("hotbar slot %d: %w", i+1, err)
		}
		h = append(h, t)
	}
	return h, nil
}

func DefaultHotbar() Hotbar {
	return Hotbar{
		ItemTool(items.Tool(items.Hoe)),
		ItemTool(items.Tool(items.Pickaxe)),
		ItemTool(items.Tool(items.Scythe)),
		ItemTool(items.Seed(0)),
		ItemTool(items.Seed(1)),
		WallTool(),
	}
}

func (h Hotbar) Slot(n int) (Tool, bool) {
	if n < 1 || n > len(h) {
		return Tool{}, false
	}
	return h[n-1], true
}
