package world

import (
	"sort"

	"tillcraft.ai/internal/sim/grid"
	"tillcraft.ai/internal/sim/items"
)

// ItemDrop is an item lying on the ground, waiting to be picked up.
type ItemDrop struct {
	ID     uint64       `json:"id"`
	Item   items.ItemID `json:"item"`
	Amount uint32       `json:"amount"`
	Pos    grid.MapPos  `json:"pos"`
}

// WorldPos returns the absolute tile coordinate the drop sits on.
func (d ItemDrop) WorldPos() (x, y int) { return d.Pos.World() }

func (w *World) spawnDrop(item items.ItemID, amount uint32, p grid.MapPos) ItemDrop {
	w.nextDropID++
	d := ItemDrop{ID: w.nextDropID, Item: item, Amount: amount, Pos: p}
	w.drops[d.ID] = d
	w.binding.SpawnDrop(d)
	return d
}

// pickupDrop moves a drop into the inventory. Unknown ids are ignored; the
// drop may already have been collected.
func (w *World) pickupDrop(id uint64) (ItemDrop, bool) {
	d, ok := w.drops[id]
	if !ok {
		return ItemDrop{}, false
	}
	delete(w.drops, id)
	w.inventory.Add(d.Item, d.Amount)
	w.binding.RemoveDrop(id)
	return d, true
}

// Drops returns the drops on the ground ordered by id.
func (w *World) Drops() []ItemDrop {
	out := make([]ItemDrop, 0, len(w.drops))
	for _, d := range w.drops {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
