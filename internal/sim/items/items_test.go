package items

import "testing"

type names map[CropID]string

func (n names) CropName(id CropID) (string, bool) {
	s, ok := n[id]
	return s, ok
}

func TestItemID_Name(t *testing.T) {
	lookup := names{0: "Blue Debug Plant"}
	if got := Seed(0).Name(lookup); got != "Blue Debug Plant Seed" {
		t.Fatalf("seed name: got %q", got)
	}
	if got := Crop(0).Name(lookup); got != "Blue Debug Plant" {
		t.Fatalf("crop name: got %q", got)
	}
	if got := Crop(7).Name(lookup); got != "Crop (ID 7)" {
		t.Fatalf("unknown crop name: got %q", got)
	}
	if got := Tool(Scythe).Name(lookup); got != "Scythe" {
		t.Fatalf("tool name: got %q", got)
	}
}

func TestInventory_AddAndCount(t *testing.T) {
	inv := NewInventory()
	if !inv.Empty() {
		t.Fatalf("new inventory should be empty")
	}
	inv.Add(Crop(1), 2)
	inv.Add(Crop(1), 3)
	inv.Add(Crop(0), 1)
	inv.Add(Seed(0), 0)

	if got := inv.Count(Crop(1)); got != 5 {
		t.Fatalf("count crop 1: got %d want 5", got)
	}
	if got := inv.Count(Seed(0)); got != 0 {
		t.Fatalf("zero add should not create a stack, got %d", got)
	}
	stacks := inv.Items()
	if len(stacks) != 2 || stacks[0].Item != Crop(0) || stacks[1].Item != Crop(1) {
		t.Fatalf("unexpected stacks: %+v", stacks)
	}
}
