package sim

import (
	"fmt"
	"log/slog"
)

// TestSim is a headless harness around World used by tests and batch runs.
// It drives Update at a fixed rate, collects every emitted event and records
// state changes into a SimLog.
type TestSim struct {
	World  *World
	SimLog *SimLog
	Input  Input
	DT     float64

	tuning    Tuning
	seed      int64
	logger    *slog.Logger
	events    []Event
	labels    map[string]AgentID
	autopilot *Autopilot
	reporter  *Reporter
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // tuning, seed, rate, logging, before the world exists
	simOptStreet                      // roster and player edits, after layout
	simOptState                       // economy and flags, after the roster is final
)

// SimOption is a builder step applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithTuning edits the tuning before the world is built.
func WithTuning(edit func(*Tuning)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { edit(&ts.tuning) }}
}

// WithSeed sets the world seed.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.seed = seed }}
}

// WithVerbose enables verbose SimLog entries.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.SimLog = NewSimLog(v) }}
}

// WithTickRate sets ticks per simulated second.
func WithTickRate(hz int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		if hz > 0 {
			ts.DT = 1 / float64(hz)
		}
	}}
}

// WithSlog routes world warnings to l.
func WithSlog(l *slog.Logger) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.logger = l }}
}

// WithQuietStreets removes every generated agent and stops the timed
// spawner, leaving buildings, loot and the player.
func WithQuietStreets() SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		w := ts.World
		for _, a := range w.agents {
			delete(w.byID, a.ID)
		}
		w.agents = nil
		w.econ.SpawnTimer = 1e12
		w.econ.SpawnInterval = 1e12
		w.econ.P.BaseSpawnInterval = 1e12
		w.econ.P.MinSpawnInterval = 1e12
	}}
}

// WithoutPlayer removes the player.
func WithoutPlayer() SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) { ts.World.player = nil }}
}

// WithPlayerAt centres the player on (cx,cy).
func WithPlayerAt(cx, cy float64) SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		if p := ts.World.player; p != nil {
			p.X, p.Y = cx-p.W/2, cy-p.H/2
		}
	}}
}

// WithOpp adds a street opp under label.
func WithOpp(label string, cx, cy float64, tier int, chaser bool) SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		a := ts.World.spawnOpp(cx, cy, tier)
		a.IsChaser = chaser
		ts.label(label, a)
	}}
}

// WithGuard adds a guard posted at (cx,cy) for the current Opp Block.
func WithGuard(label string, cx, cy float64) SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		w := ts.World
		ob := w.oppBlockBuilding()
		if ob == nil {
			return
		}
		ts.label(label, w.spawnGuard(ob, cx, cy, w.tuning.Agents.GuardHealth))
	}}
}

// WithAlly adds an ally.
func WithAlly(label string, cx, cy float64) SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		w := ts.World
		ts.label(label, w.addAgent(newAlly(w.newID(), &w.tuning.Allies, cx, cy, w.rng)))
	}}
}

// WithBoss adds the boss at (cx,cy) and registers it with the economy.
func WithBoss(label string, cx, cy float64) SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		w := ts.World
		home := NoBuilding
		if ob := w.oppBlockBuilding(); ob != nil {
			home = ob.ID
		}
		b := newBoss(w.newID(), &w.tuning.Agents, &w.tuning.Boss, cx, cy, home, w.rng)
		b.Alerted = true
		w.addAgent(b)
		w.econ.Boss = b.ID
		ts.label(label, b)
	}}
}

// WithFloorLoot drops n items at rest around (cx,cy).
func WithFloorLoot(n int, cx, cy float64) SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		w := ts.World
		for i := 0; i < n; i++ {
			w.loot = append(w.loot, newFloorLoot(LootID(len(w.loot)), cx+float64(i%4)*6, cy+float64(i/4)*6))
		}
	}}
}

// WithNoFloorLoot stashes every loose item in the safe house.
func WithNoFloorLoot() SimOption {
	return SimOption{simOptStreet, func(ts *TestSim) {
		w := ts.World
		sh := w.safeHouse()
		for _, it := range w.loot {
			if it.State == LootOnFloor && sh != nil {
				w.stashIn(it.ID, sh)
			}
		}
	}}
}

// WithHeat sets the starting heat.
func WithHeat(h float64) SimOption {
	return SimOption{simOptState, func(ts *TestSim) { ts.World.econ.Heat = h }}
}

// WithNoGrace removes the opening pickup grace period.
func WithNoGrace() SimOption {
	return SimOption{simOptState, func(ts *TestSim) { ts.World.startupGrace = 0 }}
}

// WithAutopilot drives the player with a scripted policy.
func WithAutopilot(mode AutopilotMode) SimOption {
	return SimOption{simOptState, func(ts *TestSim) { ts.autopilot = NewAutopilot(mode) }}
}

// WithReporter samples the world once per simulated second.
func WithReporter(windowSeconds float64) SimOption {
	return SimOption{simOptState, func(ts *TestSim) { ts.reporter = NewReporter(windowSeconds) }}
}

// NewTestSim builds a TestSim in three ordered passes:
//  1. Infrastructure (tuning, seed, rate, logging), then the world is built
//  2. Street edits (roster, player, loot)
//  3. State (heat, grace, drivers)
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		DT:     1.0 / 60,
		SimLog: NewSimLog(false),
		tuning: DefaultTuning(),
		seed:   1,
		labels: make(map[string]AgentID),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	wopts := []Option{WithSimLog(ts.SimLog)}
	if ts.logger != nil {
		wopts = append(wopts, WithLogger(ts.logger))
	}
	ts.World = NewWorld(ts.tuning, ts.seed, wopts...)
	for _, o := range opts {
		if o.kind == simOptStreet {
			o.fn(ts)
		}
	}
	ts.World.rebuildSolids()
	for _, o := range opts {
		if o.kind == simOptState {
			o.fn(ts)
		}
	}
	return ts
}

func (ts *TestSim) label(label string, a *Agent) {
	if label == "" {
		return
	}
	a.Label = label
	ts.labels[label] = a.ID
}

// Agent returns the agent registered under label, or nil once purged.
func (ts *TestSim) Agent(label string) *Agent {
	id, ok := ts.labels[label]
	if !ok {
		return nil
	}
	return ts.World.agent(id)
}

// Step advances one tick with in.
func (ts *TestSim) Step(in Input) {
	ts.World.Update(ts.DT, in)
	ts.collect()
}

// RunTicks advances n ticks using the autopilot, or the held Input.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.tick()
	}
}

// RunSeconds advances by simulated seconds.
func (ts *TestSim) RunSeconds(s float64) {
	ts.RunTicks(int(s/ts.DT + 0.5))
}

// RunUntil advances up to maxTicks, stopping once predicate holds. It returns
// the world tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.tick()
		if predicate(ts) {
			return ts.World.Tick
		}
	}
	return -1
}

func (ts *TestSim) tick() {
	in := ts.Input
	if ts.autopilot != nil {
		in = ts.autopilot.Next(ts.World)
	}
	ts.World.Update(ts.DT, in)
	ts.collect()
}

func (ts *TestSim) collect() {
	evs := ts.World.DrainEvents()
	ts.events = append(ts.events, evs...)
	if ts.autopilot != nil {
		ts.autopilot.HandleEvents(ts.World, evs)
	}
	if ts.reporter != nil {
		ts.reporter.Observe(ts.World)
	}
	w := ts.World
	ts.SimLog.AddVerbose(w.Tick, "--", "economy", "heat", fmt.Sprintf("%.2f", w.econ.Heat), w.econ.Heat)
}

// Events returns every event seen so far.
func (ts *TestSim) Events() []Event { return ts.events }

// CountEvents counts seen events of kind k.
func (ts *TestSim) CountEvents(k EventKind) int {
	n := 0
	for _, e := range ts.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Reporter returns the attached reporter, or nil.
func (ts *TestSim) Reporter() *Reporter { return ts.reporter }

// Snapshot returns the world snapshot.
func (ts *TestSim) Snapshot() WorldSnapshot { return ts.World.Snapshot() }
