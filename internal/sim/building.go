package sim

import "math/rand"

// BuildingID indexes World.buildings.
type BuildingID int

// NoBuilding is the zero reference for "not in any building".
const NoBuilding BuildingID = -1

// BuildingKind separates bounded traphouses from the unbounded safe house.
type BuildingKind int

const (
	KindTraphouse BuildingKind = iota
	KindSafeHouse
)

func (k BuildingKind) String() string {
	if k == KindSafeHouse {
		return "safehouse"
	}
	return "traphouse"
}

// collisionInset is how far the solid box sits inside the drawn footprint.
const collisionInset = 15.0

// Building is a fixed rectangle holding loot. A traphouse has a fixed slot
// array; the safe house grows without bound.
type Building struct {
	ID       BuildingID
	Kind     BuildingKind
	Rect     Rect
	OppBlock bool

	capacity int // 0 for unbounded
	slots    []LootID
	rng      *rand.Rand
}

// NewTraphouse builds a traphouse with capacity empty slots.
func NewTraphouse(id BuildingID, r Rect, capacity int, rng *rand.Rand) *Building {
	slots := make([]LootID, capacity)
	for i := range slots {
		slots[i] = NoLoot
	}
	return &Building{ID: id, Kind: KindTraphouse, Rect: r, capacity: capacity, slots: slots, rng: rng}
}

// NewSafeHouse builds the player's unbounded stash.
func NewSafeHouse(id BuildingID, r Rect, rng *rand.Rand) *Building {
	return &Building{ID: id, Kind: KindSafeHouse, Rect: r, rng: rng}
}

// Solid returns the collision box, inset from the footprint.
func (b *Building) Solid() Rect {
	return Rect{
		X: b.Rect.X + collisionInset,
		Y: b.Rect.Y + collisionInset,
		W: b.Rect.W - 2*collisionInset,
		H: b.Rect.H - 2*collisionInset,
	}
}

// Capacity returns the slot count, or 0 for the unbounded safe house.
func (b *Building) Capacity() int { return b.capacity }

// Bounded reports whether the building has a fixed slot array.
func (b *Building) Bounded() bool { return b.Kind == KindTraphouse }

// LootCount returns the number of items stashed here.
func (b *Building) LootCount() int {
	if !b.Bounded() {
		return len(b.slots)
	}
	n := 0
	for _, id := range b.slots {
		if id != NoLoot {
			n++
		}
	}
	return n
}

// HasLoot reports whether at least one item is stashed here.
func (b *Building) HasLoot() bool { return b.LootCount() > 0 }

// HasEmptySlots reports whether AddLoot would succeed.
func (b *Building) HasEmptySlots() bool {
	if !b.Bounded() {
		return true
	}
	return b.LootCount() < b.capacity
}

// FreeSlots returns the number of empty slots. The safe house reports -1.
func (b *Building) FreeSlots() int {
	if !b.Bounded() {
		return -1
	}
	return b.capacity - b.LootCount()
}

// Contains reports whether id sits in one of the slots.
func (b *Building) Contains(id LootID) bool {
	for _, s := range b.slots {
		if s == id && id != NoLoot {
			return true
		}
	}
	return false
}

// Loot returns a copy of the stashed IDs.
func (b *Building) Loot() []LootID {
	out := make([]LootID, 0, len(b.slots))
	for _, id := range b.slots {
		if id != NoLoot {
			out = append(out, id)
		}
	}
	return out
}

// AddLoot puts id into the first free slot. It returns false when full.
// The caller owns the item state transition.
func (b *Building) AddLoot(id LootID) bool {
	if id == NoLoot {
		return false
	}
	if !b.Bounded() {
		b.slots = append(b.slots, id)
		return true
	}
	for i, s := range b.slots {
		if s == NoLoot {
			b.slots[i] = id
			return true
		}
	}
	return false
}

// RemoveLoot clears id from the slots. It returns false when id was absent.
func (b *Building) RemoveLoot(id LootID) bool {
	for i, s := range b.slots {
		if s != id || id == NoLoot {
			continue
		}
		if b.Bounded() {
			b.slots[i] = NoLoot
		} else {
			b.slots = append(b.slots[:i], b.slots[i+1:]...)
		}
		return true
	}
	return false
}

// RemoveRandomLoot takes one item out of a uniformly chosen occupied slot and
// returns it, or NoLoot when the building is empty.
func (b *Building) RemoveRandomLoot() LootID {
	held := b.Loot()
	if len(held) == 0 {
		return NoLoot
	}
	id := held[b.rng.Intn(len(held))]
	b.RemoveLoot(id)
	return id
}
