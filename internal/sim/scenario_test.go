package sim

import (
	"testing"
)

// dumpLog prints the SimLog to t.Log so it shows with `go test -v`.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

func dumpSummary(t *testing.T, ts *TestSim) {
	t.Helper()
	t.Log(ts.SimLog.Summary(ts.World))
	if r := ts.Reporter(); r != nil {
		t.Log(r.WindowSummary().Format())
	}
}

// Opp Block lot on the first level: column 4, row 3.
const (
	oppBlockX = lotOrigin + 4*lotPitchX
	oppBlockY = lotOrigin + 3*lotPitchY
)

// --- Scenario: flee ---

func TestScenario_OppFleesPlayerWithinOneTick(t *testing.T) {
	t.Log("=== TestScenario_OppFleesPlayerWithinOneTick ===")
	ts := NewTestSim(
		WithSeed(3),
		WithQuietStreets(),
		WithPlayerAt(624, 540),
		WithOpp("o1", 674, 540, 1, false),
	)
	o := ts.Agent("o1")
	p := ts.World.Player()

	ts.Step(Input{})
	if o.State != StateFleeing {
		dumpLog(t, ts)
		t.Fatalf("opp 50px from the player should flee on the first tick, got %s", o.State)
	}
	if n := ts.CountEvents(EventFleeCue); n != 1 {
		t.Fatalf("expected one flee cue, got %d", n)
	}

	start := Dist(o.CX(), o.CY(), p.CX(), p.CY())
	ts.RunTicks(45)
	if d := Dist(o.CX(), o.CY(), p.CX(), p.CY()); d <= start {
		t.Fatalf("fleeing opp should open distance: %.1f -> %.1f", start, d)
	}
	if n := ts.CountEvents(EventFleeCue); n != 1 {
		t.Fatalf("flee cue should not repeat while still fleeing, got %d", n)
	}
}

func TestScenario_ChaserClosesInstead(t *testing.T) {
	ts := NewTestSim(
		WithSeed(3),
		WithQuietStreets(),
		WithPlayerAt(624, 540),
		WithOpp("c1", 774, 540, 2, true),
	)
	ts.Step(Input{})
	if c := ts.Agent("c1"); c.State != StateChasing {
		t.Fatalf("chaser 150px out should chase, got %s", c.State)
	}
	if ts.CountEvents(EventFleeCue) != 0 {
		t.Fatal("a chaser should not cue a flee")
	}
}

// --- Scenario: knockback ---

func TestScenario_KnockbackLastsRecoveryTime(t *testing.T) {
	t.Log("=== TestScenario_KnockbackLastsRecoveryTime ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithOpp("o1", 400, 540, 1, false),
	)
	w := ts.World
	o := ts.Agent("o1")

	item := NoLoot
	for _, it := range w.Loot() {
		if it.State == LootOnFloor {
			item = it.ID
			break
		}
	}
	if item == NoLoot || !w.giveToAgent(item, o) {
		t.Fatal("setup: could not hand the opp an item")
	}

	w.Knockback(o.ID, 1, 0, 200)
	startX := o.X
	// 0.5s at 60Hz is 30 ticks.
	for i := 1; i < 30; i++ {
		ts.Step(Input{})
		if !o.KnockedBack {
			dumpLog(t, ts)
			t.Fatalf("recovered early at tick %d", i)
		}
	}
	ts.Step(Input{})
	if o.KnockedBack {
		t.Fatal("knockback should end after exactly the recovery time")
	}
	if o.X <= startX {
		t.Fatalf("knockback should push along +x: %.1f -> %.1f", startX, o.X)
	}
	if o.Carrying() || w.Loot()[item].State != LootOnFloor {
		t.Fatal("carried item should drop when knockback ends")
	}
	if o.State != StateWandering {
		t.Fatalf("opp should ground to wandering, got %s", o.State)
	}
	if n := w.Stats().OppsRepelled; n != 1 {
		t.Fatalf("knockback should count one repel, got %d", n)
	}
}

// --- Scenario: boss ---

func TestScenario_BossRetreatsAndHoldsFire(t *testing.T) {
	t.Log("=== TestScenario_BossRetreatsAndHoldsFire ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithPlayerAt(300, 540),
		WithBoss("tb", 600, 540),
	)
	tb := ts.Agent("tb")
	tb.Health = 40 // below 30% of 150

	ts.Step(Input{})
	if tb.State != StateRetreating {
		t.Fatalf("hurt boss should retreat, got %s", tb.State)
	}
	for i := 0; i < 60; i++ {
		ts.Step(Input{})
		for _, pr := range ts.World.Projectiles() {
			if pr.Owner == tb.ID {
				t.Fatalf("retreating boss fired at tick %d", ts.World.Tick)
			}
		}
	}
	if tb.State != StateRetreating {
		t.Fatalf("boss should still be retreating, got %s", tb.State)
	}
}

func TestScenario_BossHealsAtHome(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithBoss("tb", oppBlockX+lotW/2, oppBlockY+lotH+34),
	)
	tb := ts.Agent("tb")
	tb.Health = 40

	ts.RunSeconds(8)
	if tb.Health != tb.MaxHealth {
		t.Fatalf("boss should heal to full at home, got %.1f/%.1f", tb.Health, tb.MaxHealth)
	}
	if tb.State == StateRetreating {
		t.Fatal("healed boss should leave the retreat")
	}
	if !CanEnter(tb.Role, tb.State) {
		t.Fatalf("boss in illegal state %s", tb.State)
	}
}

func TestScenario_BossDefeatExpandsLevel(t *testing.T) {
	t.Log("=== TestScenario_BossDefeatExpandsLevel ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithBoss("tb", 700, 540),
		WithHeat(50),
	)
	w := ts.World
	tb := ts.Agent("tb")
	oldOB := w.OppBlock().ID
	oldWidth := w.Width
	oldLoot := len(w.Loot())

	w.DamageAgent(tb.ID, 1e6, DamageFromAlly)
	ts.Step(Input{})
	if ts.CountEvents(EventBossDefeated) != 1 {
		t.Fatal("expected boss-defeated")
	}
	if w.Delayed().Pending(delayedLevelExpand) != 1 {
		t.Fatal("level expansion should be queued")
	}
	if w.Level != 1 {
		t.Fatal("expansion should wait for its delay")
	}

	ts.RunSeconds(2.1)
	dumpSummary(t, ts)
	if w.Level != 2 || ts.CountEvents(EventLevelExpanded) != 1 {
		t.Fatalf("expected level 2, got %d", w.Level)
	}
	if w.Width != oldWidth+w.Tuning().World.ExpansionWidth {
		t.Fatalf("width %.0f, want %.0f", w.Width, oldWidth+w.Tuning().World.ExpansionWidth)
	}
	ob := w.OppBlock()
	if ob == nil || ob.ID == oldOB || ob.Rect.X < oldWidth {
		t.Fatal("a new Opp Block should sit in the new strip")
	}
	if w.Buildings()[oldOB].OppBlock {
		t.Fatal("the old Opp Block should be retired")
	}
	if g := w.countRole(RoleGuard); g != 6 {
		t.Fatalf("expected 4+level guards, got %d", g)
	}
	if pop := w.Population(); pop != 9 {
		t.Fatalf("expected 5+2*level opps, got %d", pop)
	}
	if w.Economy().Heat >= 25 {
		t.Fatalf("boss defeat should relieve heat, got %.1f", w.Economy().Heat)
	}
	if len(w.Loot()) <= oldLoot {
		t.Fatal("the new strip should bring loot")
	}
	if w.Economy().Boss != NoAgent {
		t.Fatal("economy still tracks a dead boss")
	}
}

// --- Scenario: escalation ---

func TestScenario_EscalationAtHeat61(t *testing.T) {
	t.Log("=== TestScenario_EscalationAtHeat61 ===")
	ts := NewTestSim(
		WithSeed(11),
		WithTuning(func(tu *Tuning) { tu.Player.Health = 1e6 }),
		WithHeat(61),
	)
	w := ts.World
	hadLoot := map[BuildingID]bool{}
	for _, b := range w.Buildings() {
		hadLoot[b.ID] = b.HasLoot()
	}

	ts.Step(Input{})
	if n := ts.CountEvents(EventEscalationTriggered); n != 1 {
		t.Fatalf("expected one escalation, got %d", n)
	}
	if n := w.countRole(RoleBoss); n != 1 || ts.CountEvents(EventBossSpawned) != 1 {
		t.Fatalf("expected exactly one boss, got %d", n)
	}
	if q := w.Economy().Bulk.Count; q != w.Tuning().Economy.BulkSpawnCount {
		t.Fatalf("bulk queue = %d, want %d", q, w.Tuning().Economy.BulkSpawnCount)
	}
	for _, b := range w.Buildings() {
		if b.Kind == KindTraphouse && hadLoot[b.ID] && b.FreeSlots() != 0 {
			t.Errorf("traphouse %d holds %d/%d after inflation", b.ID, b.LootCount(), b.Capacity())
		}
	}
	for _, a := range w.Agents() {
		if a.Role == RoleAlly || a.Role == RoleBoss {
			continue
		}
		if !a.Surrounding {
			t.Errorf("%s not surrounding", a.Label)
		}
		if a.State != StateChasing && !a.KnockedBack {
			t.Errorf("%s in %s, want chasing", a.Label, a.State)
		}
	}

	ts.RunTicks(60)
	if n := ts.CountEvents(EventEscalationTriggered); n != 1 {
		t.Fatalf("latched escalation fired again: %d", n)
	}
	if w.Population() <= w.Tuning().World.InitialOpps {
		t.Fatal("bulk queue should be releasing opps")
	}
	if w.Population() > w.Economy().MaxPopulation {
		t.Fatalf("population %d over cap %d", w.Population(), w.Economy().MaxPopulation)
	}

	// Re-arm below 40, then fire again without a second boss.
	w.Economy().Heat = 30
	ts.Step(Input{})
	if w.Economy().EscalationLatched {
		t.Fatal("latch should re-arm below the reset threshold")
	}
	w.Economy().Heat = 65
	ts.Step(Input{})
	if n := ts.CountEvents(EventEscalationTriggered); n != 2 {
		t.Fatalf("expected a second escalation, got %d", n)
	}
	if n := ts.CountEvents(EventBossSpawned); n != 1 {
		t.Fatalf("a live boss should not be duplicated, got %d spawns", n)
	}
}

// --- Scenario: guards ---

func TestScenario_HitGuardAlertsAll(t *testing.T) {
	ts := NewTestSim(WithoutPlayer())
	w := ts.World
	var first *Agent
	for _, a := range w.Agents() {
		if a.Role == RoleGuard {
			first = a
			break
		}
	}
	if first == nil {
		t.Fatal("setup: no guards")
	}
	w.DamageAgent(first.ID, 1, DamageFromWorld)
	for _, a := range w.Agents() {
		if a.Role != RoleGuard {
			continue
		}
		if !a.Alerted || a.State != StateChasing {
			t.Errorf("%s alerted=%v state=%s", a.Label, a.Alerted, a.State)
		}
	}
}

func TestScenario_GuardRespawnsAfterDelay(t *testing.T) {
	ts := NewTestSim(WithoutPlayer())
	w := ts.World
	before := w.countRole(RoleGuard)
	for _, a := range w.Agents() {
		if a.Role == RoleGuard {
			w.DamageAgent(a.ID, 1e6, DamageFromWorld)
			break
		}
	}
	ts.Step(Input{})
	if got := w.countRole(RoleGuard); got != before-1 {
		t.Fatalf("expected %d guards after the kill, got %d", before-1, got)
	}
	if w.Delayed().Pending(delayedGuardRespawn) != 1 {
		t.Fatal("respawn should be queued")
	}
	ts.RunSeconds(w.Tuning().World.GuardRespawnDelay + 0.1)
	want := before - 1 + w.Tuning().World.GuardRespawnCount
	if got := w.countRole(RoleGuard); got != want {
		t.Fatalf("expected %d guards after respawn, got %d", want, got)
	}
}

func TestScenario_KillHeatBySource(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithGuard("g", 700, 540),
		WithOpp("o1", 400, 540, 1, false),
		WithOpp("o2", 300, 540, 1, false),
	)
	w := ts.World
	et := w.Tuning().Economy

	w.DamageAgent(ts.Agent("g").ID, 1e6, DamageFromPlayer)
	if h := w.Economy().Heat; h != et.GuardKillHeat {
		t.Fatalf("guard kill heat = %.1f, want %.1f", h, et.GuardKillHeat)
	}
	w.DamageAgent(ts.Agent("o1").ID, 1e6, DamageFromPlayer)
	if h := w.Economy().Heat; h != et.GuardKillHeat+et.OppKillHeat {
		t.Fatalf("opp kill heat = %.1f", h)
	}
	w.DamageAgent(ts.Agent("o2").ID, 1e6, DamageFromAlly)
	if h := w.Economy().Heat; h != et.GuardKillHeat+et.OppKillHeat {
		t.Fatalf("ally kills should not add heat, got %.1f", h)
	}
	if w.Stats().BodiesDropped != 3 {
		t.Fatalf("bodies = %d", w.Stats().BodiesDropped)
	}
	// Damage on the dead is a no-op.
	w.DamageAgent(ts.Agent("o2").ID, 10, DamageFromPlayer)
	if w.Stats().BodiesDropped != 3 {
		t.Fatal("dead agents must not die twice")
	}
}

// --- Scenario: stealing ---

func TestScenario_OppStealsFromSafeHouse(t *testing.T) {
	t.Log("=== TestScenario_OppStealsFromSafeHouse ===")
	ts := NewTestSim(
		WithSeed(5),
		WithQuietStreets(),
		WithoutPlayer(),
		WithNoFloorLoot(),
		WithOpp("o1", 135, 270, 1, false),
	)
	w := ts.World
	sh := w.SafeHouse()
	stocked := sh.LootCount()
	if stocked == 0 {
		t.Fatal("setup: safe house is empty")
	}
	o := ts.Agent("o1")

	tick := ts.RunUntil(func(ts *TestSim) bool { return o.Carrying() }, 600)
	if tick < 0 {
		dumpLog(t, ts)
		t.Fatal("opp never stole from the safe house")
	}
	if sh.LootCount() != stocked-1 {
		t.Fatalf("safe house holds %d, want %d", sh.LootCount(), stocked-1)
	}
	if !ts.SimLog.HasEntry("loot", "steal", "safehouse") {
		t.Fatal("expected a steal entry in the sim log")
	}
	if it := w.Loot()[o.Carried]; it.State != LootHeld || it.Holder.Agent != o.ID {
		t.Fatalf("stolen item state=%s holder=%d", it.State, it.Holder.Agent)
	}
	if o.State != StateWandering {
		t.Fatalf("a finished grab should send the opp home wandering, got %s", o.State)
	}
}

// --- Scenario: combat ---

func TestScenario_PlayerShotHitsAndKnocksBack(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithPlayerAt(400, 540),
		WithOpp("c1", 520, 540, 2, true),
	)
	c := ts.Agent("c1")
	ts.Step(Input{MoveX: 1, Shoot: true})
	if len(ts.World.Projectiles()) == 0 {
		t.Fatal("shooting should spawn a projectile")
	}
	tick := ts.RunUntil(func(ts *TestSim) bool { return c.Health < c.MaxHealth }, 60)
	if tick < 0 {
		t.Fatal("projectile never hit the opp")
	}
	if want := c.MaxHealth - ts.World.Tuning().Projectiles.FriendlyDamage; c.Health != want {
		t.Fatalf("health %.1f, want %.1f", c.Health, want)
	}
	if !c.KnockedBack {
		t.Fatal("hit should knock the opp back")
	}
}

func TestScenario_AlliesSpreadTargets(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithAlly("a1", 500, 540),
		WithAlly("a2", 520, 540),
		WithOpp("h1", 650, 540, 1, false),
		WithOpp("h2", 300, 540, 1, false),
	)
	ts.Step(Input{})
	a1, a2 := ts.Agent("a1"), ts.Agent("a2")
	if a1.Target != ts.Agent("h1").ID {
		t.Fatalf("a1 should take the nearest hostile, got %d", a1.Target)
	}
	if a2.Target != ts.Agent("h2").ID {
		t.Fatalf("a2 should avoid the taken target, got %d", a2.Target)
	}
	if a1.State != StateHunting || a2.State != StateHunting {
		t.Fatal("allies only hunt")
	}
}

// --- Session ---

func TestScenario_PauseFreezesTicks(t *testing.T) {
	ts := NewTestSim(WithQuietStreets())
	w := ts.World
	ts.Step(Input{})
	if w.Tick != 1 {
		t.Fatalf("tick = %d", w.Tick)
	}
	ts.Step(Input{PauseRequested: true})
	ts.Step(Input{})
	if !w.Paused || w.Tick != 1 {
		t.Fatalf("paused=%v tick=%d", w.Paused, w.Tick)
	}
	ts.Step(Input{PauseRequested: true})
	if w.Paused || w.Tick != 2 {
		t.Fatalf("unpause should resume ticking: paused=%v tick=%d", w.Paused, w.Tick)
	}
}

func TestScenario_SurvivingTargetWins(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithTuning(func(tu *Tuning) { tu.World.TargetMinutes = 0.01 }),
	)
	ts.RunTicks(40)
	w := ts.World
	if w.Outcome != OutcomeWon {
		t.Fatalf("outcome %s, want won", w.Outcome)
	}
	if ts.CountEvents(EventGameWon) != 1 {
		t.Fatal("expected one game-won event")
	}
	tick := w.Tick
	ts.RunTicks(10)
	if w.Tick != tick {
		t.Fatal("a decided session should not advance")
	}
}

func TestScenario_PlayerDeathDropsLoot(t *testing.T) {
	ts := NewTestSim(WithQuietStreets(), WithNoGrace())
	w := ts.World
	var held []LootID
	for _, it := range w.Loot() {
		if it.State == LootOnFloor && len(held) < 2 {
			if w.giveToPlayer(it.ID) {
				held = append(held, it.ID)
			}
		}
	}
	w.damagePlayer(1e6)
	ts.Step(Input{})
	if w.Outcome != OutcomeLost {
		t.Fatalf("outcome %s, want lost", w.Outcome)
	}
	if ts.CountEvents(EventPlayerDied) != 1 {
		t.Fatal("expected player-died")
	}
	for _, id := range held {
		if w.Loot()[id].State != LootOnFloor {
			t.Fatalf("item %d should be on the floor", id)
		}
	}
	if len(w.Player().Carried()) != 0 {
		t.Fatal("dead player still carries loot")
	}
}
