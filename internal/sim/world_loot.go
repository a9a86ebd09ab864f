package sim

import (
	"math"
	"sort"
)

// Every transfer below detaches the item from its source and attaches it to
// its destination before returning. Destination capacity is checked first so
// a refused transfer leaves the item untouched.

func (w *World) lootItem(id LootID) *LootItem {
	if id < 0 || int(id) >= len(w.loot) {
		return nil
	}
	return w.loot[id]
}

func (w *World) detach(it *LootItem) {
	switch it.State {
	case LootStashed:
		if b := w.building(it.Building); b != nil {
			b.RemoveLoot(it.ID)
		}
	case LootHeld:
		switch it.Holder.Kind {
		case HolderAgent:
			if a := w.agent(it.Holder.Agent); a != nil && a.Carried == it.ID {
				a.Carried = NoLoot
			}
		case HolderPlayer:
			if w.player != nil {
				w.player.removeCarried(it.ID)
			}
		}
	}
	it.Holder = noHolder
	it.Building = NoBuilding
}

// giveToAgent moves an item into a's hands. a must be empty-handed.
func (w *World) giveToAgent(id LootID, a *Agent) bool {
	it := w.lootItem(id)
	if it == nil || a == nil || a.Dead || a.Carrying() {
		return false
	}
	w.detach(it)
	it.State = LootHeld
	it.Holder = Holder{Kind: HolderAgent, Agent: a.ID}
	it.VX, it.VY = 0, 0
	a.Carried = id
	return true
}

// giveToPlayer moves an item into the player's carry slots.
func (w *World) giveToPlayer(id LootID) bool {
	it := w.lootItem(id)
	p := w.player
	if it == nil || p == nil || p.Dead || !p.HasFreeSlot() {
		return false
	}
	w.detach(it)
	it.State = LootHeld
	it.Holder = Holder{Kind: HolderPlayer, Agent: NoAgent}
	it.VX, it.VY = 0, 0
	p.carried = append(p.carried, id)
	return true
}

// stashIn moves an item into b.
func (w *World) stashIn(id LootID, b *Building) bool {
	it := w.lootItem(id)
	if it == nil || b == nil || !b.HasEmptySlots() {
		return false
	}
	w.detach(it)
	b.AddLoot(id)
	it.State = LootStashed
	it.Building = b.ID
	it.X, it.Y = b.Rect.CenterX(), b.Rect.CenterY()
	it.VX, it.VY = 0, 0
	return true
}

// dropLoot puts an item on the floor near (x,y), outside building margins and
// inside the world, with a small scatter velocity.
func (w *World) dropLoot(id LootID, x, y float64) {
	it := w.lootItem(id)
	if it == nil {
		return
	}
	w.detach(it)
	lt := &w.tuning.Loot
	box := Rect{X: x - lt.Size/2, Y: y - lt.Size/2, W: lt.Size, H: lt.Size}
	for _, b := range w.buildings {
		box = w.ejectLoot(box, b.Rect.Expand(lt.DropMargin))
	}
	box.X = clamp(box.X, lt.BoundsMargin, w.Width-lt.BoundsMargin-box.W)
	box.Y = clamp(box.Y, lt.BoundsMargin, w.Height-lt.BoundsMargin-box.H)
	ang := w.rng.Float64() * 2 * math.Pi
	it.State = LootOnFloor
	it.X, it.Y = box.X, box.Y
	it.VX = math.Cos(ang) * lt.DropSpeed
	it.VY = math.Sin(ang) * lt.DropSpeed
}

// ejectLoot moves box out of zone through the nearest edge that keeps it
// inside the bounds margin. A box whose centre is outside zone is returned
// unchanged.
func (w *World) ejectLoot(box, zone Rect) Rect {
	cx, cy := box.CenterX(), box.CenterY()
	if !zone.ContainsPoint(cx, cy) {
		return box
	}
	m := w.tuning.Loot.BoundsMargin
	exits := []struct{ d, x, y float64 }{
		{cx - zone.X, zone.X - box.W, box.Y},
		{zone.X + zone.W - cx, zone.X + zone.W, box.Y},
		{cy - zone.Y, box.X, zone.Y - box.H},
		{zone.Y + zone.H - cy, box.X, zone.Y + zone.H},
	}
	sort.SliceStable(exits, func(i, j int) bool { return exits[i].d < exits[j].d })
	for _, e := range exits {
		if e.x >= m && e.y >= m && e.x+box.W <= w.Width-m && e.y+box.H <= w.Height-m {
			return box.At(e.x, e.y)
		}
	}
	return box.At(exits[0].x, exits[0].y)
}

func (w *World) dropFromAgent(a *Agent) {
	if !a.Carrying() {
		return
	}
	id := a.Carried
	w.dropLoot(id, a.CX(), a.CY())
	a.Carried = NoLoot
	w.trace(a, "loot", "drop", "", float64(id))
}

// takeFromBuilding pulls a random item out of b straight into a's hands.
func (w *World) takeFromBuilding(b *Building, a *Agent) LootID {
	if a.Carrying() {
		return NoLoot
	}
	id := b.RemoveRandomLoot()
	it := w.lootItem(id)
	if it == nil {
		return NoLoot
	}
	it.Building = NoBuilding
	it.State = LootHeld
	it.Holder = Holder{Kind: HolderAgent, Agent: a.ID}
	a.Carried = id
	w.trace(a, "loot", "steal", b.Kind.String(), float64(id))
	return id
}

func (w *World) stashFromAgent(a *Agent, b *Building) {
	id := a.Carried
	if w.stashIn(id, b) {
		w.trace(a, "loot", "deposit", b.Kind.String(), float64(id))
	}
}

func (w *World) unsecuredLoot() int {
	n := 0
	for _, it := range w.loot {
		if it.Unsecured() {
			n++
		}
	}
	return n
}

func (w *World) updateFloorLoot(dt float64) {
	lt := &w.tuning.Loot
	f := math.Pow(lt.FloorFriction, dt*60)
	for _, it := range w.loot {
		if it.State != LootOnFloor || (it.VX == 0 && it.VY == 0) {
			continue
		}
		res := MoveWithSliding(it.Box(lt.Size), it.VX, it.VY, dt, w.solids)
		it.X = clamp(res.X, 0, w.Width-lt.Size)
		it.Y = clamp(res.Y, 0, w.Height-lt.Size)
		it.VX, it.VY = res.VX*f, res.VY*f
		if math.Hypot(it.VX, it.VY) < 1 {
			it.VX, it.VY = 0, 0
		}
	}
}

// resolveLootExchange runs the player's stash, pickup and snatch in that
// order. Each item changes owner at most once here.
func (w *World) resolveLootExchange() {
	p := w.player
	if p == nil || p.Dead || w.startupGrace > 0 {
		return
	}
	et := &w.tuning.Economy
	lt := &w.tuning.Loot
	moved := make(map[LootID]bool)

	// Stash everything carried, oldest first.
	if sh := w.safeHouse(); sh != nil && len(p.carried) > 0 && NearRect(p.Box(), sh.Rect, p.ReturnRadius) {
		for _, id := range p.Carried() {
			if !w.stashIn(id, sh) {
				break
			}
			moved[id] = true
			w.stats.LootStashed++
			w.econ.AddHeat(-et.StashRelief)
			w.addXP(lt.XPStash)
			w.emit(Event{Kind: EventLootStashed, Agent: NoAgent, Loot: id, X: sh.Rect.CenterX(), Y: sh.Rect.CenterY()})
			if w.stats.LootStashed%lt.StashesPerPick == 0 {
				w.emit(Event{Kind: EventUpgradeOffered, Agent: NoAgent, Loot: NoLoot, Value: float64(w.stats.LootStashed)})
			}
		}
	}

	// One pickup per cooldown, floor first.
	if w.pickupCooldown <= 0 && p.HasFreeSlot() {
		if id := w.nearestFloorLoot(p, moved); id != NoLoot && w.giveToPlayer(id) {
			moved[id] = true
			w.pickupCooldown = w.tuning.Player.PickupCooldown
			w.econ.AddHeat(et.FloorPickupHeat)
			w.addXP(lt.XPFloorPickup)
			w.stats.LootCollected++
			w.emit(Event{Kind: EventLootPickedUp, Agent: NoAgent, Loot: id, X: p.CX(), Y: p.CY()})
		} else {
			for _, b := range w.buildings {
				if b.Kind != KindTraphouse || !b.HasLoot() || !NearRect(p.Box(), b.Rect, p.PickupRadius) {
					continue
				}
				id := b.RemoveRandomLoot()
				it := w.lootItem(id)
				if it == nil {
					continue
				}
				it.Building = NoBuilding
				it.State = LootHeld
				it.Holder = Holder{Kind: HolderPlayer, Agent: NoAgent}
				p.carried = append(p.carried, id)
				moved[id] = true
				w.pickupCooldown = w.tuning.Player.PickupCooldown
				w.econ.AddHeat(et.TrapPickupHeat)
				w.addXP(lt.XPTrapPickup)
				w.stats.LootCollected++
				w.emit(Event{Kind: EventLootPickedUp, Agent: NoAgent, Loot: id, X: p.CX(), Y: p.CY(), Value: float64(b.ID)})
				break
			}
		}
	}

	// Snatch from carrying hostiles inside the repel radius. Full hands skip
	// the whole pass; the opp keeps its item.
	for _, a := range w.agents {
		if !p.HasFreeSlot() {
			break
		}
		if a.Dead || !a.Role.Hostile() || !a.Carrying() || moved[a.Carried] {
			continue
		}
		if Dist(a.CX(), a.CY(), p.CX(), p.CY()) > p.RepelRadius {
			continue
		}
		id := a.Carried
		if !w.giveToPlayer(id) {
			continue
		}
		moved[id] = true
		w.stats.LootCollected++
		w.econ.AddHeat(et.SnatchHeat)
		w.addXP(lt.XPSnatch)
		w.trace(a, "loot", "snatched", "", float64(id))
		// A knocked-back opp is grounded by its recovery instead.
		if !a.KnockedBack {
			w.setState(a, StateFleeing)
		}
	}
}

func (w *World) nearestFloorLoot(p *Player, skip map[LootID]bool) LootID {
	size := w.tuning.Loot.Size
	best := NoLoot
	bestD := 0.0
	for _, it := range w.loot {
		if it.State != LootOnFloor || skip[it.ID] {
			continue
		}
		if !NearRect(p.Box(), it.Box(size), p.PickupRadius) {
			continue
		}
		d := Dist(p.CX(), p.CY(), it.X+size/2, it.Y+size/2)
		if best == NoLoot || d < bestD {
			best, bestD = it.ID, d
		}
	}
	return best
}

func (w *World) xpToNext(level int) int {
	lt := &w.tuning.Loot
	return int(math.Floor(lt.XPBase * math.Pow(lt.XPGrowth, float64(level-1))))
}

// addXP credits XP with the player multiplier and early bonus, levelling up as
// many times as the total allows.
func (w *World) addXP(base int) {
	lt := &w.tuning.Loot
	mult := 1.0
	if w.player != nil {
		mult = w.player.XPMultiplier
	}
	if w.ElapsedMinutes() < lt.XPEarlyMins {
		mult *= lt.XPEarlyBonus
	}
	w.stats.XP += int(math.Round(float64(base) * mult))
	for w.stats.XPToNext > 0 && w.stats.XP >= w.stats.XPToNext {
		w.stats.XP -= w.stats.XPToNext
		w.stats.PlayerLevel++
		w.stats.XPToNext = w.xpToNext(w.stats.PlayerLevel)
		w.emit(Event{Kind: EventUpgradeOffered, Agent: NoAgent, Loot: NoLoot, Value: float64(w.stats.PlayerLevel)})
	}
}

// ValidateLoot checks every item against its owner and repairs mismatches by
// clearing the bad reference. It returns the number of repairs.
func (w *World) ValidateLoot() int {
	repairs := 0
	warn := func(it *LootItem, what string) {
		repairs++
		w.log.Warn("loot invariant repaired", "loot", int(it.ID), "state", it.State.String(), "repair", what)
	}

	// Which buildings actually list each item.
	listed := make(map[LootID][]*Building)
	for _, b := range w.buildings {
		for _, id := range b.Loot() {
			listed[id] = append(listed[id], b)
		}
	}

	for _, it := range w.loot {
		switch it.State {
		case LootHeld:
			ok := false
			switch it.Holder.Kind {
			case HolderAgent:
				a := w.agent(it.Holder.Agent)
				ok = a != nil && !a.Dead && a.Carried == it.ID
			case HolderPlayer:
				ok = w.player != nil && !w.player.Dead && w.player.holds(it.ID)
			}
			for _, b := range listed[it.ID] {
				b.RemoveLoot(it.ID)
				warn(it, "held item removed from building slot")
			}
			if !ok {
				it.Holder = noHolder
				it.State = LootOnFloor
				warn(it, "held item with invalid holder dropped")
			}
		case LootStashed:
			bs := listed[it.ID]
			home := w.building(it.Building)
			switch {
			case len(bs) == 0:
				it.State = LootOnFloor
				it.Building = NoBuilding
				if home != nil {
					it.X, it.Y = home.Rect.X+home.Rect.W/2, home.Rect.Y+home.Rect.H+w.tuning.Loot.DropMargin
				}
				warn(it, "stashed item missing from every building")
			default:
				keep := bs[0]
				for _, b := range bs {
					if b == home {
						keep = b
					}
				}
				for _, b := range bs {
					if b != keep {
						b.RemoveLoot(it.ID)
						warn(it, "duplicate slot cleared")
					}
				}
				if keep != home {
					it.Building = keep.ID
					warn(it, "building reference corrected")
				}
			}
			it.Holder = noHolder
		case LootOnFloor:
			for _, b := range listed[it.ID] {
				b.RemoveLoot(it.ID)
				warn(it, "floor item removed from building slot")
			}
			it.Holder = noHolder
			it.Building = NoBuilding
		}
	}

	// Holders that point at items they do not own.
	for _, a := range w.agents {
		if !a.Carrying() {
			continue
		}
		it := w.lootItem(a.Carried)
		if it == nil || it.State != LootHeld || it.Holder.Kind != HolderAgent || it.Holder.Agent != a.ID {
			a.Carried = NoLoot
			repairs++
			w.log.Warn("agent carry reference cleared", "agent", int(a.ID))
		}
	}
	if p := w.player; p != nil {
		for _, id := range p.Carried() {
			it := w.lootItem(id)
			if it == nil || it.State != LootHeld || it.Holder.Kind != HolderPlayer {
				p.removeCarried(id)
				repairs++
				w.log.Warn("player carry reference cleared", "loot", int(id))
			}
		}
	}
	return repairs
}
