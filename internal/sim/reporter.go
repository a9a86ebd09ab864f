package sim

import (
	"fmt"
	"sort"
	"strings"
)

// TickReport is one sample of the world.
type TickReport struct {
	Tick          int
	Elapsed       float64
	Heat          float64
	Population    int
	MaxPopulation int
	Guards        int
	Allies        int
	BossAlive     bool
	States        map[State]int
	LootFloor     int
	LootHeld      int
	LootStashed   int
}

// WindowReport aggregates samples over the recent window.
type WindowReport struct {
	FromTick      int
	ToTick        int
	SampleCount   int
	AvgHeat       float64
	PeakHeat      float64
	AvgPopulation float64
	PeakPop       int
	StatePct      map[State]float64
	AvgFloorLoot  float64
}

// Reporter samples the world once per simulated second and summarises a
// sliding window.
type Reporter struct {
	history       []TickReport
	windowSeconds float64
	nextSample    float64
}

// NewReporter creates a reporter with the given window length in seconds.
func NewReporter(windowSeconds float64) *Reporter {
	if windowSeconds <= 0 {
		windowSeconds = 10
	}
	return &Reporter{windowSeconds: windowSeconds}
}

// Observe takes a sample if a second has passed since the last one.
func (r *Reporter) Observe(w *World) {
	if w.Elapsed < r.nextSample {
		return
	}
	r.nextSample = w.Elapsed + 1
	r.Collect(w)
}

// Collect records a sample unconditionally.
func (r *Reporter) Collect(w *World) {
	rep := TickReport{
		Tick:          w.Tick,
		Elapsed:       w.Elapsed,
		Heat:          w.econ.Heat,
		Population:    w.Population(),
		MaxPopulation: w.econ.MaxPopulation,
		Guards:        w.countRole(RoleGuard),
		Allies:        w.countRole(RoleAlly),
		BossAlive:     w.bossAlive(),
		States:        make(map[State]int),
	}
	for _, a := range w.agents {
		if !a.Dead {
			rep.States[a.State]++
		}
	}
	for _, it := range w.loot {
		switch it.State {
		case LootOnFloor:
			rep.LootFloor++
		case LootHeld:
			rep.LootHeld++
		case LootStashed:
			rep.LootStashed++
		}
	}
	r.history = append(r.history, rep)

	maxKeep := int(r.windowSeconds) * 2
	if maxKeep < 100 {
		maxKeep = 100
	}
	if len(r.history) > maxKeep {
		r.history = r.history[len(r.history)-maxKeep:]
	}
}

// Latest returns the most recent sample, or nil.
func (r *Reporter) Latest() *TickReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// WindowSummary aggregates the samples inside the window.
func (r *Reporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}
	latest := r.history[len(r.history)-1]
	cutoff := latest.Elapsed - r.windowSeconds
	var window []TickReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Elapsed < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	n := float64(len(window))
	wr := &WindowReport{
		FromTick:    window[len(window)-1].Tick,
		ToTick:      window[0].Tick,
		SampleCount: len(window),
		StatePct:    make(map[State]float64),
	}
	stateTotal := 0.0
	for _, rep := range window {
		wr.AvgHeat += rep.Heat
		wr.AvgPopulation += float64(rep.Population)
		wr.AvgFloorLoot += float64(rep.LootFloor)
		if rep.Heat > wr.PeakHeat {
			wr.PeakHeat = rep.Heat
		}
		if rep.Population > wr.PeakPop {
			wr.PeakPop = rep.Population
		}
		for s, c := range rep.States {
			wr.StatePct[s] += float64(c)
			stateTotal += float64(c)
		}
	}
	wr.AvgHeat /= n
	wr.AvgPopulation /= n
	wr.AvgFloorLoot /= n
	for s := range wr.StatePct {
		wr.StatePct[s] = wr.StatePct[s] / stateTotal * 100
	}
	return wr
}

// Format renders the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "no samples\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Window T=%d..%d (%d samples)\n", wr.FromTick, wr.ToTick, wr.SampleCount)
	fmt.Fprintf(&sb, "  heat avg=%.1f peak=%.1f\n", wr.AvgHeat, wr.PeakHeat)
	fmt.Fprintf(&sb, "  population avg=%.1f peak=%d\n", wr.AvgPopulation, wr.PeakPop)
	fmt.Fprintf(&sb, "  floor loot avg=%.1f\n", wr.AvgFloorLoot)
	states := make([]State, 0, len(wr.StatePct))
	for s := range wr.StatePct {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	sb.WriteString("  states:")
	for _, s := range states {
		fmt.Fprintf(&sb, " %s=%.0f%%", s, wr.StatePct[s])
	}
	sb.WriteByte('\n')
	return sb.String()
}
