package sim

import (
	"math/rand"
	"testing"
)

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(7)) // #nosec G404 -- test determinism
}

func TestTraphouse_CapacityTwo(t *testing.T) {
	b := NewTraphouse(0, Rect{W: 100, H: 100}, 2, testRng())
	if !b.AddLoot(3) || !b.AddLoot(9) {
		t.Fatal("first two adds should succeed")
	}
	if b.AddLoot(11) {
		t.Fatal("third add should be refused at capacity 2")
	}
	if b.HasEmptySlots() || b.FreeSlots() != 0 {
		t.Fatalf("full traphouse reports free=%d", b.FreeSlots())
	}

	got := b.RemoveRandomLoot()
	if got != 3 && got != 9 {
		t.Fatalf("RemoveRandomLoot returned %d, not a stashed id", got)
	}
	if b.LootCount() != 1 || b.Contains(got) {
		t.Fatalf("after removal: count=%d contains=%v", b.LootCount(), b.Contains(got))
	}
	if !b.AddLoot(11) {
		t.Fatal("freed slot should accept a new item")
	}

	b.RemoveRandomLoot()
	b.RemoveRandomLoot()
	if b.RemoveRandomLoot() != NoLoot {
		t.Fatal("empty traphouse should return NoLoot")
	}
}

func TestTraphouse_RefusesNoLoot(t *testing.T) {
	b := NewTraphouse(0, Rect{W: 100, H: 100}, 2, testRng())
	if b.AddLoot(NoLoot) {
		t.Fatal("NoLoot must never occupy a slot")
	}
	if b.Contains(NoLoot) {
		t.Fatal("empty slots must not report containing NoLoot")
	}
}

func TestSafeHouse_Unbounded(t *testing.T) {
	b := NewSafeHouse(0, Rect{W: 100, H: 100}, testRng())
	for i := 0; i < 50; i++ {
		if !b.AddLoot(LootID(i)) {
			t.Fatalf("safe house refused item %d", i)
		}
	}
	if b.LootCount() != 50 || !b.HasEmptySlots() || b.FreeSlots() != -1 {
		t.Fatalf("count=%d empty=%v free=%d", b.LootCount(), b.HasEmptySlots(), b.FreeSlots())
	}
	if !b.RemoveLoot(10) || b.RemoveLoot(10) {
		t.Fatal("RemoveLoot should succeed once")
	}
	ids := b.Loot()
	if ids[9] != 9 || ids[10] != 11 {
		t.Fatalf("removal should keep order, got ...%d,%d...", ids[9], ids[10])
	}
}

func TestBuilding_SolidIsInset(t *testing.T) {
	b := NewTraphouse(0, Rect{X: 100, Y: 100, W: 200, H: 150}, 2, testRng())
	s := b.Solid()
	if s.X != 115 || s.Y != 115 || s.W != 170 || s.H != 120 {
		t.Fatalf("unexpected solid %+v", s)
	}
}
