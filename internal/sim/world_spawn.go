package sim

import "math"

// runSpawners advances the timed spawner and the bulk queue. Both are gated
// by the population cap; a capped timed spawn is skipped, a capped bulk spawn
// stays queued.
func (w *World) runSpawners(dt float64) {
	minutes := w.ElapsedMinutes()
	if w.econ.tickSpawn(dt) && w.Population() < w.econ.MaxPopulation {
		sp := w.pickSpawnPoint()
		a := w.spawnOpp(sp[0], sp[1], w.econ.TierFor(w.econ.Heat, minutes))
		if w.econ.Heat >= w.tuning.Economy.EscalateAt {
			a.Raiding = true
		}
	}
	if w.econ.tickBulk(dt) && w.Population() < w.econ.MaxPopulation {
		w.spawnBulkOpp()
		w.econ.Bulk.Count--
	}
}

// pickSpawnPoint draws a road spawn point away from the safe house, falling
// back to any point after the retry budget.
func (w *World) pickSpawnPoint() [2]float64 {
	et := &w.tuning.Economy
	sh := w.safeHouse()
	for i := 0; i < et.SpawnAttempts; i++ {
		sp := w.spawnPoints[w.rng.Intn(len(w.spawnPoints))]
		if sh == nil || Dist(sp[0], sp[1], sh.Rect.CenterX(), sh.Rect.CenterY()) >= et.MinSpawnDistStash {
			return sp
		}
	}
	return w.spawnPoints[w.rng.Intn(len(w.spawnPoints))]
}

func (w *World) spawnOpp(cx, cy float64, tier int) *Agent {
	return w.addAgent(newStreetAgent(w.newID(), &w.tuning.Agents, tier, cx, cy, w.rng))
}

// spawnBulkOpp places one escalation opp close to the Opp Block, already
// closing in on the player.
func (w *World) spawnBulkOpp() {
	var cx, cy float64
	if ob := w.oppBlockBuilding(); ob != nil {
		ang := w.rng.Float64() * 2 * math.Pi
		r := math.Max(ob.Rect.W, ob.Rect.H)/2 + randRange(w.rng, 30, 80)
		cx = clamp(ob.Rect.CenterX()+math.Cos(ang)*r, 20, w.Width-20)
		cy = clamp(ob.Rect.CenterY()+math.Sin(ang)*r, 20, w.Height-20)
	} else {
		sp := w.pickSpawnPoint()
		cx, cy = sp[0], sp[1]
	}
	a := w.spawnOpp(cx, cy, 3)
	a.IsChaser = true
	w.surround(a)
}

func (w *World) spawnGuard(home *Building, cx, cy, health float64) *Agent {
	return w.addAgent(newGuard(w.newID(), &w.tuning.Agents, cx, cy, home.ID, health, w.rng))
}

// respawnGuards restocks the Opp Block's guard posts after a death. It is
// skipped when there is no Opp Block.
func (w *World) respawnGuards(n int) {
	ob := w.oppBlockBuilding()
	if ob == nil {
		return
	}
	for i := 0; i < n && w.countRole(RoleGuard) < w.tuning.World.GuardCap; i++ {
		off := guardOffsets[w.rng.Intn(len(guardOffsets))]
		w.spawnGuard(ob, ob.Rect.X+off[0], ob.Rect.Y+off[1], w.tuning.Agents.GuardHealth)
	}
}

// surround switches a into the encircling chase.
func (w *World) surround(a *Agent) {
	a.Surrounding = true
	a.orbitRadius = w.tuning.Agents.SurroundRadius
	if px, py, ok := w.playerCentre(); ok {
		a.orbitAngle = HeadingTo(px, py, a.CX(), a.CY())
	} else {
		a.orbitAngle = w.rng.Float64() * 2 * math.Pi
	}
	if a.Role == RoleGuard {
		a.PostAbandoned = true
	}
	if !a.KnockedBack {
		w.setState(a, StateChasing)
	}
}

// escalate is the one-shot batch fired when the latch trips: boss, bulk
// queue, traphouse loot inflation, then mass aggro.
func (w *World) escalate() {
	et := &w.tuning.Economy
	w.emit(Event{Kind: EventEscalationTriggered, Agent: NoAgent, Loot: NoLoot, Value: w.econ.Heat})
	w.log.Info("escalation", "heat", w.econ.Heat, "level", w.Level, "t", w.Elapsed)

	if !w.bossAlive() {
		w.spawnBoss()
	}

	if w.econ.Bulk.Count == 0 {
		w.econ.Bulk.Timer = w.econ.Bulk.Interval
	}
	w.econ.Bulk.Count += et.BulkSpawnCount

	for _, b := range w.buildings {
		if b.Kind != KindTraphouse || !b.HasLoot() {
			continue
		}
		w.stockBuilding(b, b.LootCount()*(et.LootMultiplier-1))
	}

	for _, a := range w.agents {
		if a.Dead || a.Role == RoleAlly || a.Role == RoleBoss {
			continue
		}
		w.surround(a)
	}

	w.emit(Event{Kind: EventUpgradeOffered, Agent: NoAgent, Loot: NoLoot, Value: w.econ.Heat})
}

// spawnBoss places the Top Boy at the Opp Block's front door.
func (w *World) spawnBoss() {
	ob := w.oppBlockBuilding()
	if ob == nil {
		return
	}
	cx := ob.Rect.CenterX()
	cy := ob.Rect.Y + ob.Rect.H + 40
	if cy > w.Height-40 {
		cy = ob.Rect.Y - 40
	}
	b := newBoss(w.newID(), &w.tuning.Agents, &w.tuning.Boss, cx, cy, ob.ID, w.rng)
	b.Alerted = true
	w.addAgent(b)
	w.econ.Boss = b.ID
	w.emit(Event{Kind: EventBossSpawned, Agent: b.ID, Loot: NoLoot, X: b.CX(), Y: b.CY()})
}

// spawnAllies calls in up to n allies around the player without exceeding the
// alive cap. It returns how many arrived.
func (w *World) spawnAllies(n int) int {
	p := w.player
	if p == nil || p.Dead {
		return 0
	}
	room := w.tuning.Allies.MaxAlive - w.countRole(RoleAlly)
	if n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		ang := float64(i)/float64(n)*2*math.Pi + w.rng.Float64()*0.3
		cx := clamp(p.CX()+math.Cos(ang)*60, 30, w.Width-30)
		cy := clamp(p.CY()+math.Sin(ang)*60, 30, w.Height-30)
		w.addAgent(newAlly(w.newID(), &w.tuning.Allies, cx, cy, w.rng))
		w.stats.AlliesCalled++
	}
	if n < 0 {
		return 0
	}
	return n
}

// expandLevel grows the map eastwards after a boss defeat and populates the
// new strip.
func (w *World) expandLevel() {
	wt := &w.tuning.World
	w.pendingExpand = false
	w.Level++
	startX := w.Width
	width := wt.ExpansionWidth
	w.Width += width

	if old := w.oppBlockBuilding(); old != nil {
		old.OppBlock = false
	}
	lots := [][2]float64{
		{startX + 100, 150},
		{startX + width - 330, 150},
		{startX + 100, w.Height - 350},
	}
	for _, l := range lots {
		b := NewTraphouse(BuildingID(len(w.buildings)), Rect{X: l[0], Y: l[1], W: lotW, H: lotH}, 6, w.rng)
		w.buildings = append(w.buildings, b)
		w.stockBuilding(b, 3)
	}
	ob := NewTraphouse(BuildingID(len(w.buildings)),
		Rect{X: startX + width - 330, Y: w.Height - 350, W: lotW, H: lotH}, wt.OppBlockCapacity, w.rng)
	ob.OppBlock = true
	w.buildings = append(w.buildings, ob)
	w.oppID = ob.ID
	w.stockBuilding(ob, wt.OppBlockLoot)
	w.rebuildSolids()

	for _, sp := range baseSpawnPoints {
		w.spawnPoints = append(w.spawnPoints, [2]float64{sp[0] + startX, sp[1]})
	}
	for _, wp := range baseWaypoints {
		w.waypoints = append(w.waypoints, [2]float64{wp[0] + startX, wp[1]})
	}

	for i := 0; i < 4+w.Level; i++ {
		off := guardOffsets[i%len(guardOffsets)]
		w.spawnGuard(ob, ob.Rect.X+off[0], ob.Rect.Y+off[1], w.tuning.Agents.GuardHealth)
	}

	w.econ.AddHeat(-w.tuning.Economy.BossDefeatRelief)
	w.econ.ResetLevel(w.ElapsedMinutes(), w.Population())

	tier := 1 + w.Level/2
	if tier > 3 {
		tier = 3
	}
	for i := 0; i < 5+2*w.Level; i++ {
		if w.Population() >= w.econ.MaxPopulation {
			w.econ.Bulk.Count += 5 + 2*w.Level - i
			break
		}
		sp := baseSpawnPoints[w.rng.Intn(len(baseSpawnPoints))]
		w.spawnOpp(sp[0]+startX, sp[1], tier)
	}

	w.scatterLooseLoot(10, startX, w.Width)

	w.emit(Event{Kind: EventLevelExpanded, Agent: NoAgent, Loot: NoLoot, Value: float64(w.Level)})
	w.log.Info("level expanded", "level", w.Level, "width", w.Width)
}
