package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Garsondee/opp-block/internal/runstore"
	"github.com/Garsondee/opp-block/internal/sim"
)

type runStats struct {
	runIndex int
	seed     int64
	mode     sim.AutopilotMode
	seconds  float64
	outcome  sim.Outcome
	level    int

	firstPickupTick     int
	firstEscalationTick int
	firstBossTick       int
	firstBossDownTick   int
	deathTick           int

	peakHeat    float64
	avgHeat     float64
	peakPop     int
	escalations int
	capRaises   int
	agentDeaths int
	transitions int

	stats         sim.Stats
	windowSummary *sim.WindowReport
}

// runSession plays one seeded session for up to duration simulated seconds,
// stopping early once it is decided. It returns the stats and the world
// summary.
func runSession(runIndex int, seed int64, mode sim.AutopilotMode, tuning sim.Tuning, duration, window float64) (runStats, string) {
	ts := sim.NewTestSim(
		sim.WithTuning(func(t *sim.Tuning) { *t = tuning }),
		sim.WithSeed(seed),
		sim.WithAutopilot(mode),
		sim.WithReporter(window),
	)

	var heatSum float64
	var samples int
	rs := runStats{runIndex: runIndex, seed: seed, mode: mode}
	for s := 0; s < int(duration); s++ {
		ts.RunSeconds(1)
		w := ts.World
		heat := w.Economy().Heat
		heatSum += heat
		samples++
		if heat > rs.peakHeat {
			rs.peakHeat = heat
		}
		if p := w.Population(); p > rs.peakPop {
			rs.peakPop = p
		}
		if w.Outcome != sim.OutcomeRunning {
			break
		}
	}

	w := ts.World
	entries := ts.SimLog.Entries()
	rs.seconds = w.Elapsed
	rs.outcome = w.Outcome
	rs.level = w.Level
	rs.avgHeat = avgFloat(heatSum, samples)
	rs.escalations = w.Economy().Escalations
	rs.firstPickupTick = firstTick(entries, "event", sim.EventLootPickedUp.String(), "")
	rs.firstEscalationTick = firstTick(entries, "event", sim.EventEscalationTriggered.String(), "")
	rs.firstBossTick = firstTick(entries, "event", sim.EventBossSpawned.String(), "")
	rs.firstBossDownTick = firstTick(entries, "event", sim.EventBossDefeated.String(), "")
	rs.deathTick = firstTick(entries, "event", sim.EventPlayerDied.String(), "")
	rs.capRaises = ts.CountEvents(sim.EventPopulationCapIncreased)
	rs.agentDeaths = ts.CountEvents(sim.EventAgentDied)
	rs.transitions = ts.SimLog.CountCategory("state", "transition")
	rs.stats = w.Stats()
	rs.windowSummary = ts.Reporter().WindowSummary()
	return rs, ts.SimLog.Summary(w)
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func printRun(out io.Writer, rs runStats) {
	fmt.Fprintf(out, "--- Run %d (seed=%d mode=%s) ---\n", rs.runIndex, rs.seed, rs.mode)
	fmt.Fprintf(out, "outcome=%s elapsed=%.0fs level=%d\n", rs.outcome, rs.seconds, rs.level)
	fmt.Fprintf(out, "phase_markers: first_pickup=%d escalation=%d boss=%d boss_down=%d death=%d\n",
		rs.firstPickupTick, rs.firstEscalationTick, rs.firstBossTick, rs.firstBossDownTick, rs.deathTick)
	fmt.Fprintf(out, "economy: peak_heat=%.1f avg_heat=%.1f peak_pop=%d escalations=%d cap_raises=%d\n",
		rs.peakHeat, rs.avgHeat, rs.peakPop, rs.escalations, rs.capRaises)
	fmt.Fprintf(out, "player: collected=%d stashed=%d bodies=%d repelled=%d boss_kills=%d level=%d upgrades=%d\n",
		rs.stats.LootCollected, rs.stats.LootStashed, rs.stats.BodiesDropped, rs.stats.OppsRepelled,
		rs.stats.BossKills, rs.stats.PlayerLevel, rs.stats.UpgradesTaken)
	fmt.Fprintf(out, "agents: deaths=%d state_transitions=%d\n", rs.agentDeaths, rs.transitions)
	if rs.windowSummary != nil {
		fmt.Fprintf(out, "last window:\n%s", rs.windowSummary.Format())
	}
	fmt.Fprintln(out)
}

func printAggregate(out io.Writer, all []runStats) {
	var (
		peakSum, avgSum          float64
		escalations, collected   int
		stashed, bossKills, lost int
		escalationTicks          []int
		bossDownTicks            []int
	)
	for _, rs := range all {
		peakSum += rs.peakHeat
		avgSum += rs.avgHeat
		escalations += rs.escalations
		collected += rs.stats.LootCollected
		stashed += rs.stats.LootStashed
		bossKills += rs.stats.BossKills
		if rs.outcome == sim.OutcomeLost {
			lost++
		}
		if rs.firstEscalationTick >= 0 {
			escalationTicks = append(escalationTicks, rs.firstEscalationTick)
		}
		if rs.firstBossDownTick >= 0 {
			bossDownTicks = append(bossDownTicks, rs.firstBossDownTick)
		}
	}
	n := len(all)
	fmt.Fprintln(out, "=== Aggregate ===")
	fmt.Fprintf(out, "runs=%d lost=%d\n", n, lost)
	fmt.Fprintf(out, "avg_per_run: peak_heat=%.1f avg_heat=%.1f escalations=%.1f collected=%.1f stashed=%.1f boss_kills=%.1f\n",
		avgFloat(peakSum, n), avgFloat(avgSum, n), avg(escalations, n), avg(collected, n), avg(stashed, n), avg(bossKills, n))
	fmt.Fprintf(out, "phase_marker_avg_ticks: first_escalation=%s first_boss_down=%s\n",
		avgTickString(escalationTicks), avgTickString(bossDownTicks))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgFloat(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

// toRun maps report stats onto a history row.
func toRun(rs runStats) runstore.Run {
	return runstore.Run{
		Seed:           rs.seed,
		Mode:           rs.mode.String(),
		Duration:       rs.seconds,
		Outcome:        rs.outcome.String(),
		Level:          rs.level,
		PeakHeat:       rs.peakHeat,
		AvgHeat:        rs.avgHeat,
		PeakPopulation: rs.peakPop,
		LootCollected:  rs.stats.LootCollected,
		LootStashed:    rs.stats.LootStashed,
		BossKills:      rs.stats.BossKills,
		Escalations:    rs.escalations,
		PlayerLevel:    rs.stats.PlayerLevel,
	}
}

func recordRuns(ctx context.Context, path string, all []runStats) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := runstore.Open(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	for i, rs := range all {
		if _, err := store.Record(ctx, toRun(rs)); err != nil {
			return i, err
		}
	}
	return len(all), nil
}
