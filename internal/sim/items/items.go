// Package items defines item identities and player inventories.
package items

import (
	"fmt"
	"sort"
)

// CropID identifies a crop species.
type CropID uint32

type ToolID uint8

const (
	Hoe ToolID = iota + 1
	Pickaxe
	Scythe
)

func (t ToolID) String() string {
	switch t {
	case Hoe:
		return "Hoe"
	case Pickaxe:
		return "Pickaxe"
	case Scythe:
		return "Scythe"
	default:
		return fmt.Sprintf("Tool(%d)", uint8(t))
	}
}

type Kind uint8

const (
	KindCrop Kind = iota + 1
	KindSeed
	KindTool
)

// ItemID is a tagged variant: Crop and Seed carry a species, Tool carries a tool.
type ItemID struct {
	Kind Kind   `json:"kind"`
	Crop CropID `json:"crop,omitempty"`
	Tool ToolID `json:"tool,omitempty"`
}

func Crop(id CropID) ItemID { return ItemID{Kind: KindCrop, Crop: id} }
func Seed(id CropID) ItemID { return ItemID{Kind: KindSeed, Crop: id} }
func Tool(id ToolID) ItemID { return ItemID{Kind: KindTool, Tool: id} }

func (i ItemID) String() string {
	switch i.Kind {
	case KindCrop:
		return fmt.Sprintf("Crop (ID %d)", i.Crop)
	case KindSeed:
		return fmt.Sprintf("Seed (ID %d)", i.Crop)
	case KindTool:
		return i.Tool.String()
	default:
		return "None"
	}
}

// NameLookup resolves a species display name.
type NameLookup interface {
	CropName(id CropID) (string, bool)
}

// Name returns the display name, falling back to String when the species is unknown.
func (i ItemID) Name(names NameLookup) string {
	switch i.Kind {
	case KindCrop:
		if n, ok := names.CropName(i.Crop); ok {
			return n
		}
	case KindSeed:
		if n, ok := names.CropName(i.Crop); ok {
			return n + " Seed"
		}
	}
	return i.String()
}

func (i ItemID) less(o ItemID) bool {
	if i.Kind != o.Kind {
		return i.Kind < o.Kind
	}
	if i.Crop != o.Crop {
		return i.Crop < o.Crop
	}
	return i.Tool < o.Tool
}

type Stack struct {
	Item   ItemID `json:"item"`
	Amount uint32 `json:"amount"`
}

type Inventory struct {
	items map[ItemID]uint32
}

func NewInventory() *Inventory {
	return &Inventory{items: map[ItemID]uint32{}}
}

func (inv *Inventory) Add(item ItemID, amount uint32) {
	if amount == 0 {
		return
	}
	inv.items[item] += amount
}

func (inv *Inventory) Count(item ItemID) uint32 {
	return inv.items[item]
}

func (inv *Inventory) Empty() bool { return len(inv.items) == 0 }

// Items returns the stacks in a stable order.
func (inv *Inventory) Items() []Stack {
	out := make([]Stack, 0, len(inv.items))
	for it, n := range inv.items {
		out = append(out, Stack{Item: it, Amount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.less(out[j].Item) })
	return out
}
