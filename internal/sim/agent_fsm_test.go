package sim

import (
	"math"
	"testing"
)

func angleDiff(a, b float64) float64 {
	return math.Abs(normalizeAngle(a - b))
}

// --- Flee exits ---

func TestScenario_StealerFleesWhenPlayerClosesIn(t *testing.T) {
	t.Log("=== TestScenario_StealerFleesWhenPlayerClosesIn ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithNoFloorLoot(),
		WithPlayerAt(1000, 540),
		WithOpp("o1", 135, 260, 1, false),
	)
	w := ts.World
	o := ts.Agent("o1")
	o.stealTarget = w.SafeHouse().ID
	if !w.setState(o, StateStealing) {
		t.Fatal("setup: opp refused stealing")
	}

	ts.Step(Input{})
	if o.State != StateStealing {
		t.Fatalf("distant player should not interrupt the steal, got %s", o.State)
	}

	p := w.Player()
	p.X, p.Y = o.CX()+60-p.W/2, o.CY()-p.H/2
	ts.Step(Input{})
	if o.State != StateFleeing {
		dumpLog(t, ts)
		t.Fatalf("player inside detection range should break the steal, got %s", o.State)
	}
	if !ts.SimLog.HasEntry("state", "transition", "stealing -> fleeing") {
		t.Fatal("expected a stealing -> fleeing transition in the sim log")
	}
	if o.grabbing || o.grabTimer != 0 {
		t.Fatal("fleeing should abandon the grab")
	}
}

func TestScenario_FleeWithoutPlayerEndsOnTimer(t *testing.T) {
	t.Log("=== TestScenario_FleeWithoutPlayerEndsOnTimer ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithOpp("o1", 400, 540, 1, false),
	)
	w := ts.World
	o := ts.Agent("o1")
	w.setState(o, StateFleeing)

	ts.RunTicks(55)
	if o.State != StateFleeing {
		dumpLog(t, ts)
		t.Fatalf("blind flee ended early at tick %d", w.Tick)
	}
	tick := ts.RunUntil(func(ts *TestSim) bool { return o.State == StateWandering }, 30)
	if tick < 59 || tick > 61 {
		dumpLog(t, ts)
		t.Fatalf("blind flee should end after %.1fs (tick 60), ended at tick %d",
			w.Tuning().Agents.FleeBlindTime, tick)
	}
}

// --- Wandering ---

func TestPickWanderHeading_WaypointWindow(t *testing.T) {
	ts := NewTestSim(
		WithTuning(func(t *Tuning) { t.Agents.HomingChance = 0 }),
		WithQuietStreets(),
		WithoutPlayer(),
		WithOpp("o1", 400, 540, 1, false),
	)
	w := ts.World
	o := ts.Agent("o1")

	// Too close and too far both lie due east; only the south point is valid.
	w.waypoints = [][2]float64{{450, 540}, {1100, 540}, {400, 840}}
	for i := 0; i < 30; i++ {
		if h := w.pickWanderHeading(o); angleDiff(h, math.Pi/2) > 1e-9 {
			t.Fatalf("call %d: heading %.3f, want the in-window waypoint at pi/2", i, h)
		}
	}

	w.waypoints = [][2]float64{{450, 540}, {1100, 540}}
	offEast := 0
	for i := 0; i < 30; i++ {
		h := w.pickWanderHeading(o)
		if h < 0 || h >= 2*math.Pi {
			t.Fatalf("fallback heading %.3f outside [0, 2pi)", h)
		}
		if angleDiff(h, 0) > 0.01 {
			offEast++
		}
	}
	if offEast == 0 {
		t.Fatal("with no waypoint in the window the heading should be random")
	}
}

func TestSteer_DoubleBlockedWanderReaims(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithoutPlayer(),
		WithOpp("o1", 400, 540, 1, false),
	)
	w := ts.World
	o := ts.Agent("o1")
	at := w.Tuning().Agents

	// A pocket: a wall half a pixel to the right and a floor half a pixel below.
	o.X, o.Y = 100, 100
	w.solids = []Rect{
		{X: o.X + o.W + 0.5, Y: 0, W: 50, H: 400},
		{X: 0, Y: o.Y + o.H + 0.5, W: 400, H: 50},
	}
	o.Direction, o.TargetDirection = math.Pi/4, math.Pi/4
	o.turnTimer = 3

	w.steer(o, motion{speed: o.Speed, turn: 0}, 1.0/60)
	if o.X != 100 || o.Y != 100 {
		t.Fatalf("pocketed opp moved to (%.2f,%.2f)", o.X, o.Y)
	}
	left := angleDiff(o.TargetDirection, math.Pi/4+math.Pi/2)
	right := angleDiff(o.TargetDirection, math.Pi/4-math.Pi/2)
	if math.Min(left, right) > 0.25+1e-9 {
		t.Fatalf("re-aim %.3f is not perpendicular to the blocked heading", o.TargetDirection)
	}
	if o.turnTimer != at.StuckReassess {
		t.Fatalf("turn timer %.2f, want the %.2fs reassess", o.turnTimer, at.StuckReassess)
	}

	// Only wandering agents re-aim.
	w.setState(o, StateChasing)
	o.Direction, o.TargetDirection = math.Pi/4, math.Pi/4
	w.steer(o, motion{speed: o.Speed, turn: 0}, 1.0/60)
	if o.TargetDirection != math.Pi/4 {
		t.Fatalf("chasing agent should keep its heading, got %.3f", o.TargetDirection)
	}
}

func TestSteer_EjectsFromBuildingEveryTick(t *testing.T) {
	ts := NewTestSim(WithQuietStreets(), WithoutPlayer())
	w := ts.World
	b := w.Buildings()[5]
	o := w.spawnOpp(b.Rect.CenterX(), b.Rect.CenterY(), 1)
	o.Label = "o1"

	ts.Step(Input{})
	for i, s := range w.solids {
		if o.Box().Overlaps(s) {
			t.Fatalf("opp still overlaps solid %d after one tick: box=%+v", i, o.Box())
		}
	}
	if !NearRect(o.Box(), b.Solid(), w.Tuning().Agents.EjectBuffer+1) {
		t.Fatalf("opp should sit just outside the building, box=%+v", o.Box())
	}
}

// --- Guards ---

func TestScenario_GuardSpotsAtWiderRange(t *testing.T) {
	t.Log("=== TestScenario_GuardSpotsAtWiderRange ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithNoFloorLoot(),
		WithGuard("g", 700, 540),
		WithPlayerAt(870, 540),
		WithHeat(0),
	)
	w := ts.World
	g := ts.Agent("g")
	at := w.Tuning().Agents

	ts.Step(Input{})
	if g.State != StateWandering {
		t.Fatalf("player at 170px is past %.0fpx and should go unseen, got %s",
			at.GuardSpotMul*at.DetectionRange, g.State)
	}

	p := w.Player()
	p.X = 830 - p.W/2
	ts.Step(Input{})
	if g.State != StateChasing {
		dumpLog(t, ts)
		t.Fatalf("player at 130px is inside the guard's spot range, got %s", g.State)
	}
}

func TestScenario_GuardReturnsToPost(t *testing.T) {
	t.Log("=== TestScenario_GuardReturnsToPost ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithNoFloorLoot(),
		WithoutPlayer(),
		WithGuard("g", 700, 540),
		WithHeat(0),
	)
	w := ts.World
	g := ts.Agent("g")
	at := w.Tuning().Agents
	g.X += 200

	ts.Step(Input{})
	if d := angleDiff(g.TargetDirection, HeadingTo(g.CX(), g.CY(), 700, 540)); d > 0.16 {
		t.Fatalf("straying guard should aim at its post, off by %.3f rad", d)
	}
	tick := ts.RunUntil(func(ts *TestSim) bool {
		return Dist(g.CX(), g.CY(), 700, 540) < at.GuardPatrolR
	}, 360)
	if tick < 0 {
		dumpLog(t, ts)
		t.Fatalf("guard never got back within %.0fpx of its post", at.GuardPatrolR)
	}
	if g.State != StateWandering {
		t.Fatalf("patrolling guard left its patrol: %s", g.State)
	}
}

// --- Surround ---

func TestScenario_SurroundOrbitContracts(t *testing.T) {
	t.Log("=== TestScenario_SurroundOrbitContracts ===")
	ts := NewTestSim(
		WithQuietStreets(),
		WithNoFloorLoot(),
		WithPlayerAt(624, 540),
		WithOpp("s1", 804, 540, 3, true),
	)
	w := ts.World
	p := w.Player()
	p.Health, p.MaxHealth = 1e9, 1e9
	s := ts.Agent("s1")
	w.surround(s)
	w.setState(s, StateChasing)
	at := w.Tuning().Agents

	prev := s.orbitRadius
	for i := 0; i < 8*60; i++ {
		ts.Step(Input{})
		if s.State != StateChasing || !s.Surrounding {
			t.Fatalf("tick %d: surrounder dropped out (state=%s)", i, s.State)
		}
		if s.orbitRadius > prev+1e-9 {
			t.Fatalf("tick %d: orbit grew %.2f -> %.2f", i, prev, s.orbitRadius)
		}
		if s.orbitRadius < at.SurroundMinR {
			t.Fatalf("tick %d: orbit %.2f below the %.0f floor", i, s.orbitRadius, at.SurroundMinR)
		}
		prev = s.orbitRadius
	}
	if s.orbitRadius != at.SurroundMinR {
		t.Fatalf("after 8s the orbit should rest at %.0f, got %.2f", at.SurroundMinR, s.orbitRadius)
	}
}

// --- Carrying ---

func TestCarryHome_NoFreeTraphouseDrifts(t *testing.T) {
	ts := NewTestSim(
		WithQuietStreets(),
		WithNoFloorLoot(),
		WithoutPlayer(),
		WithOpp("o1", 400, 540, 1, false),
	)
	w := ts.World
	for _, b := range w.Buildings() {
		if b.Kind == KindTraphouse {
			w.stockBuilding(b, b.FreeSlots())
		}
	}
	if w.nearestFreeTraphouse(400, 540) != nil {
		t.Fatal("setup: a traphouse still has room")
	}
	o := ts.Agent("o1")
	item := w.SafeHouse().Loot()[0]
	if !w.giveToAgent(item, o) {
		t.Fatal("setup: could not hand the opp an item")
	}
	o.carryTimer = 100
	o.depositTimer = 0
	o.TargetDirection = 10

	w.carryHome(o)
	if o.TargetDirection < 0 || o.TargetDirection >= 2*math.Pi {
		t.Fatalf("stale heading kept: %.3f", o.TargetDirection)
	}
	if o.depositTimer <= 0 {
		t.Fatal("the next re-aim should wait on the deposit timer")
	}
	h := o.TargetDirection
	w.carryHome(o)
	if o.TargetDirection != h {
		t.Fatal("heading should hold until the deposit timer runs out")
	}
}
