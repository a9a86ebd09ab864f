package sim

// LootID is a handle into the world's loot table. Loot is never destroyed, so
// an ID stays valid for the whole session.
type LootID int

// NoLoot marks an empty slot or an empty hand.
const NoLoot LootID = -1

// LootState is the exclusive placement of a loot item.
type LootState int

const (
	LootOnFloor LootState = iota
	LootHeld
	LootStashed
)

func (s LootState) String() string {
	switch s {
	case LootOnFloor:
		return "floor"
	case LootHeld:
		return "held"
	case LootStashed:
		return "stashed"
	}
	return "?"
}

// HolderKind says who holds an item.
type HolderKind int

const (
	HolderNone HolderKind = iota
	HolderPlayer
	HolderAgent
)

// Holder is a non-owning reference to whoever carries an item.
type Holder struct {
	Kind  HolderKind
	Agent AgentID // valid when Kind == HolderAgent
}

var noHolder = Holder{Kind: HolderNone, Agent: NoAgent}

// LootItem is a single unit of stock. X,Y is the top-left of its box and only
// means something while the item is on the floor.
type LootItem struct {
	ID       LootID
	X, Y     float64
	VX, VY   float64
	State    LootState
	Holder   Holder
	Building BuildingID // valid when State == LootStashed
}

func newFloorLoot(id LootID, x, y float64) *LootItem {
	return &LootItem{ID: id, X: x, Y: y, State: LootOnFloor, Holder: noHolder, Building: NoBuilding}
}

// Box returns the item's floor rectangle.
func (l *LootItem) Box(size float64) Rect {
	return Rect{X: l.X, Y: l.Y, W: size, H: size}
}

// Unsecured reports whether the item counts toward heat growth: on the floor or
// in the player's hands.
func (l *LootItem) Unsecured() bool {
	return l.State == LootOnFloor || (l.State == LootHeld && l.Holder.Kind == HolderPlayer)
}
