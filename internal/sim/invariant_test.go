package sim

import (
	"fmt"
	"testing"
)

// --- Invariant helpers ---

// checkLootConservation verifies every item sits in exactly one place and the
// owner agrees.
func checkLootConservation(w *World) error {
	listed := make(map[LootID]int)
	for _, b := range w.buildings {
		for _, id := range b.Loot() {
			listed[id]++
			it := w.lootItem(id)
			if it == nil || it.State != LootStashed || it.Building != b.ID {
				return fmt.Errorf("building %d lists item %d that does not point back", b.ID, id)
			}
		}
	}
	for _, it := range w.loot {
		switch it.State {
		case LootStashed:
			if listed[it.ID] != 1 {
				return fmt.Errorf("stashed item %d listed %d times", it.ID, listed[it.ID])
			}
		case LootHeld:
			if listed[it.ID] != 0 {
				return fmt.Errorf("held item %d also listed in a building", it.ID)
			}
			switch it.Holder.Kind {
			case HolderAgent:
				a := w.agent(it.Holder.Agent)
				if a == nil || a.Carried != it.ID {
					return fmt.Errorf("item %d held by agent %d that does not carry it", it.ID, it.Holder.Agent)
				}
			case HolderPlayer:
				if w.player == nil || !w.player.holds(it.ID) {
					return fmt.Errorf("item %d held by the player but not carried", it.ID)
				}
			default:
				return fmt.Errorf("held item %d has no holder", it.ID)
			}
		case LootOnFloor:
			if listed[it.ID] != 0 || it.Holder.Kind != HolderNone {
				return fmt.Errorf("floor item %d still owned", it.ID)
			}
		}
	}
	for _, a := range w.agents {
		if a.Carrying() {
			it := w.lootItem(a.Carried)
			if it == nil || it.State != LootHeld || it.Holder.Agent != a.ID {
				return fmt.Errorf("%s carries %d which is not held by it", a.Label, a.Carried)
			}
		}
	}
	return nil
}

// invariantWatch checks per-tick invariants and remembers the first failure.
type invariantWatch struct {
	level   int
	cap     int
	failure string
}

func (iw *invariantWatch) check(ts *TestSim) bool {
	w := ts.World
	e := w.Economy()
	fail := func(format string, args ...any) bool {
		iw.failure = fmt.Sprintf("T=%d: ", w.Tick) + fmt.Sprintf(format, args...)
		return true
	}
	if e.Heat < 0 || e.Heat > e.P.HeatMax {
		return fail("heat %.2f out of range", e.Heat)
	}
	if w.Population() > e.MaxPopulation {
		return fail("population %d over cap %d", w.Population(), e.MaxPopulation)
	}
	if w.Level == iw.level && e.MaxPopulation < iw.cap {
		return fail("cap fell from %d to %d within level %d", iw.cap, e.MaxPopulation, w.Level)
	}
	iw.level, iw.cap = w.Level, e.MaxPopulation
	for _, a := range w.agents {
		if !a.Dead && !CanEnter(a.Role, a.State) {
			return fail("%s in illegal state %s for role %s", a.Label, a.State, a.Role)
		}
	}
	if w.countRole(RoleBoss) > 1 {
		return fail("%d bosses alive", w.countRole(RoleBoss))
	}
	if err := checkLootConservation(w); err != nil {
		return fail("%v", err)
	}
	return false
}

func runInvariantSweep(t *testing.T, seed int64, mode AutopilotMode, seconds float64) {
	t.Helper()
	ts := NewTestSim(
		WithSeed(seed),
		WithAutopilot(mode),
		WithReporter(30),
	)
	iw := &invariantWatch{level: ts.World.Level, cap: ts.World.Economy().MaxPopulation}
	ticks := int(seconds / ts.DT)
	if hit := ts.RunUntil(iw.check, ticks); hit >= 0 {
		t.Log(ts.SimLog.FormatRange(hit-30, hit))
		dumpSummary(t, ts)
		t.Fatalf("seed %d %s: %s", seed, mode, iw.failure)
	}
	if n := ts.World.ValidateLoot(); n != 0 {
		t.Fatalf("seed %d %s: validation made %d repairs on a clean run", seed, mode, n)
	}
	dumpSummary(t, ts)
}

func TestInvariants_LongRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("long simulation")
	}
	for _, seed := range []int64{1, 2, 3} {
		for _, mode := range []AutopilotMode{AutopilotLooter, AutopilotHunter} {
			t.Run(fmt.Sprintf("seed%d_%s", seed, mode), func(t *testing.T) {
				runInvariantSweep(t, seed, mode, 180)
			})
		}
	}
}

func TestInvariants_HotStart(t *testing.T) {
	// Starting above the escalation threshold exercises the boss, the bulk
	// queue and mass aggro from the first tick.
	ts := NewTestSim(
		WithSeed(9),
		WithHeat(90),
		WithAutopilot(AutopilotHunter),
		WithTuning(func(tu *Tuning) { tu.Player.Health = 1e6 }),
	)
	iw := &invariantWatch{level: ts.World.Level, cap: ts.World.Economy().MaxPopulation}
	if hit := ts.RunUntil(iw.check, 60*60); hit >= 0 {
		dumpSummary(t, ts)
		t.Fatal(iw.failure)
	}
	if ts.CountEvents(EventEscalationTriggered) == 0 {
		t.Fatal("hot start should escalate")
	}
}

func TestDeterminism_SameSeedSameRun(t *testing.T) {
	run := func() WorldSnapshot {
		ts := NewTestSim(WithSeed(21), WithAutopilot(AutopilotLooter))
		ts.RunSeconds(20)
		return ts.Snapshot()
	}
	a, b := run(), run()
	if a.Tick != b.Tick || a.Heat != b.Heat || len(a.Agents) != len(b.Agents) {
		t.Fatalf("runs diverged: tick %d/%d heat %.4f/%.4f agents %d/%d",
			a.Tick, b.Tick, a.Heat, b.Heat, len(a.Agents), len(b.Agents))
	}
	for i := range a.Agents {
		if a.Agents[i].X != b.Agents[i].X || a.Agents[i].Y != b.Agents[i].Y {
			t.Fatalf("agent %d diverged", i)
		}
	}
}
