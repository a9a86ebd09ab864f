package sim

import "math"

// BulkQueue trickles escalation spawns out of the Opp Block.
type BulkQueue struct {
	Count    int
	Timer    float64
	Interval float64
}

// ThreatEconomy is the heat ("beef") state with its derived population cap,
// spawn cadence and escalation latch. The world passes it explicitly so it can
// be exercised without the rest of the simulation.
type ThreatEconomy struct {
	P EconomyTuning

	Heat              float64 // 0..P.HeatMax
	MaxPopulation     int     // non-decreasing within a level
	SpawnInterval     float64
	SpawnTimer        float64
	Bulk              BulkQueue
	EscalationLatched bool
	Escalations       int
	Boss              AgentID
}

// NewThreatEconomy returns an economy at zero heat.
func NewThreatEconomy(p EconomyTuning) *ThreatEconomy {
	e := &ThreatEconomy{
		P:          p,
		SpawnTimer: p.InitialSpawnDelay,
		Bulk:       BulkQueue{Interval: p.BulkSpawnInterval},
		Boss:       NoAgent,
	}
	e.MaxPopulation = e.PopulationCapFor(0, 0)
	e.SpawnInterval = e.SpawnIntervalFor(0)
	return e
}

// HeatPerUnit is the per-loot-per-second growth for the time band.
func (e *ThreatEconomy) HeatPerUnit(minutes float64) float64 {
	switch {
	case minutes < e.P.EarlyBandMinutes:
		return e.P.HeatPerUnitEarly
	case minutes < e.P.MidBandMinutes:
		return e.P.HeatPerUnitMid
	default:
		return e.P.HeatPerUnitLate
	}
}

// PopulationCapFor derives the population cap from heat and time.
//
//	min(ceiling, base + floor(heat/step) + min(maxTimeBonus, floor(min/minStep)))
func (e *ThreatEconomy) PopulationCapFor(heat, minutes float64) int {
	timeBonus := int(math.Floor(minutes / e.P.MinutesPerPopStep))
	if timeBonus > e.P.MaxTimeBonus {
		timeBonus = e.P.MaxTimeBonus
	}
	n := e.P.BasePopulation + int(math.Floor(heat/e.P.HeatPerPopStep)) + timeBonus
	if n > e.P.PopulationCeiling {
		n = e.P.PopulationCeiling
	}
	return n
}

// SpawnIntervalFor returns seconds between timed spawns at the given heat.
func (e *ThreatEconomy) SpawnIntervalFor(heat float64) float64 {
	return math.Max(e.P.MinSpawnInterval, e.P.BaseSpawnInterval-heat/e.P.HeatMax*e.P.HeatSpawnBonus)
}

// TierFor returns the aggression tier for a new spawn.
func (e *ThreatEconomy) TierFor(heat, minutes float64) int {
	switch {
	case heat >= e.P.Tier3Heat || minutes >= e.P.Tier3Minutes:
		return 3
	case heat >= e.P.Tier2Heat || minutes >= e.P.Tier2Minutes:
		return 2
	default:
		return 1
	}
}

// UpdateHeat integrates one tick of the heat law. Unsecured loot grows heat,
// scaled down by dampening percent; with none, heat decays. The result is
// clamped to [0, HeatMax].
func (e *ThreatEconomy) UpdateHeat(unsecured int, minutes, dampening, dt float64) {
	if unsecured > 0 {
		damp := 1 - clamp(dampening, 0, 100)/100
		e.Heat += float64(unsecured) * e.HeatPerUnit(minutes) * dt * damp
	} else if e.Heat > 0 {
		e.Heat -= e.P.DecayPerSecond * dt
	}
	e.clampHeat()
	e.SpawnInterval = e.SpawnIntervalFor(e.Heat)
}

// RefreshCap raises MaxPopulation to the derived value when it is higher and
// reports whether it rose.
func (e *ThreatEconomy) RefreshCap(minutes float64) bool {
	n := e.PopulationCapFor(e.Heat, minutes)
	if n <= e.MaxPopulation {
		return false
	}
	e.MaxPopulation = n
	return true
}

// CheckEscalation evaluates the hysteresis latch. It returns true exactly
// once per crossing of EscalateAt; the latch re-arms when heat falls below
// ResetBelow.
func (e *ThreatEconomy) CheckEscalation() bool {
	if e.EscalationLatched {
		if e.Heat < e.P.ResetBelow {
			e.EscalationLatched = false
		}
		return false
	}
	if e.Heat >= e.P.EscalateAt {
		e.EscalationLatched = true
		e.Escalations++
		return true
	}
	return false
}

// AddHeat shifts heat by delta and clamps.
func (e *ThreatEconomy) AddHeat(delta float64) {
	e.Heat += delta
	e.clampHeat()
}

// ScaleHeat multiplies heat by f and clamps.
func (e *ThreatEconomy) ScaleHeat(f float64) {
	e.Heat *= f
	e.clampHeat()
}

// ResetLevel recomputes the cap for a new level. The cap never drops below the
// live population so the cap invariant survives the reset.
func (e *ThreatEconomy) ResetLevel(minutes float64, population int) {
	e.MaxPopulation = e.PopulationCapFor(e.Heat, minutes)
	if e.MaxPopulation < population {
		e.MaxPopulation = population
	}
	e.Boss = NoAgent
}

// tickSpawn advances the timed spawner and reports whether a spawn is due.
// A due spawn consumes the timer whether or not the caller can place it.
func (e *ThreatEconomy) tickSpawn(dt float64) bool {
	e.SpawnTimer -= dt
	if e.SpawnTimer > 0 {
		return false
	}
	e.SpawnTimer = e.SpawnInterval
	return true
}

// tickBulk advances the bulk queue and reports whether one queued spawn is
// due. The caller decrements Count once it actually spawns.
func (e *ThreatEconomy) tickBulk(dt float64) bool {
	if e.Bulk.Count <= 0 {
		return false
	}
	e.Bulk.Timer -= dt
	if e.Bulk.Timer > 0 {
		return false
	}
	e.Bulk.Timer = e.Bulk.Interval
	return true
}

func (e *ThreatEconomy) clampHeat() {
	if e.Heat < 0 {
		e.Heat = 0
	}
	if e.Heat > e.P.HeatMax {
		e.Heat = e.P.HeatMax
	}
}
