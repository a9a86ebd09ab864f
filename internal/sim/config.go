package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every balance constant of the simulation. Zero values are
// replaced by defaults in Sanitize, so a yaml file only needs the keys it
// overrides.
type Tuning struct {
	Economy     EconomyTuning    `yaml:"economy"`
	Agents      AgentTuning      `yaml:"agents"`
	Allies      AllyTuning       `yaml:"allies"`
	Boss        BossTuning       `yaml:"boss"`
	Player      PlayerTuning     `yaml:"player"`
	Projectiles ProjectileTuning `yaml:"projectiles"`
	Loot        LootTuning       `yaml:"loot"`
	World       WorldTuning      `yaml:"world"`
}

// EconomyTuning parameterises the heat law, population cap, spawn cadence and
// escalation latch.
type EconomyTuning struct {
	HeatMax float64 `yaml:"heat_max"`

	HeatPerUnitEarly float64 `yaml:"heat_per_unit_early"` // per loot per second, first band
	HeatPerUnitMid   float64 `yaml:"heat_per_unit_mid"`
	HeatPerUnitLate  float64 `yaml:"heat_per_unit_late"`
	EarlyBandMinutes float64 `yaml:"early_band_minutes"`
	MidBandMinutes   float64 `yaml:"mid_band_minutes"`
	DecayPerSecond   float64 `yaml:"decay_per_second"`

	BasePopulation    int     `yaml:"base_population"`
	PopulationCeiling int     `yaml:"population_ceiling"`
	HeatPerPopStep    float64 `yaml:"heat_per_pop_step"`
	MinutesPerPopStep float64 `yaml:"minutes_per_pop_step"`
	MaxTimeBonus      int     `yaml:"max_time_bonus"`

	BaseSpawnInterval float64 `yaml:"base_spawn_interval"`
	MinSpawnInterval  float64 `yaml:"min_spawn_interval"`
	HeatSpawnBonus    float64 `yaml:"heat_spawn_bonus"`
	InitialSpawnDelay float64 `yaml:"initial_spawn_delay"`
	MinSpawnDistStash float64 `yaml:"min_spawn_dist_stash"`
	SpawnAttempts     int     `yaml:"spawn_attempts"`

	Tier3Heat    float64 `yaml:"tier3_heat"`
	Tier3Minutes float64 `yaml:"tier3_minutes"`
	Tier2Heat    float64 `yaml:"tier2_heat"`
	Tier2Minutes float64 `yaml:"tier2_minutes"`

	EscalateAt        float64 `yaml:"escalate_at"`
	ResetBelow        float64 `yaml:"reset_below"`
	BulkSpawnCount    int     `yaml:"bulk_spawn_count"`
	BulkSpawnInterval float64 `yaml:"bulk_spawn_interval"`
	LootMultiplier    int     `yaml:"loot_multiplier"`
	GuardAggroHeat    float64 `yaml:"guard_aggro_heat"`
	BossDefeatRelief  float64 `yaml:"boss_defeat_relief"`

	GuardKillHeat    float64 `yaml:"guard_kill_heat"`
	OppKillHeat      float64 `yaml:"opp_kill_heat"`
	TrapPickupHeat   float64 `yaml:"trap_pickup_heat"`
	FloorPickupHeat  float64 `yaml:"floor_pickup_heat"`
	SnatchHeat       float64 `yaml:"snatch_heat"`
	StashRelief      float64 `yaml:"stash_relief"`
	AllyCallInRelief float64 `yaml:"ally_call_in_relief"`
}

// AgentTuning covers opps and guards. Per-tier arrays are indexed by tier-1.
type AgentTuning struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	DetectionRange   float64 `yaml:"detection_range"`
	StealTargetRange float64 `yaml:"steal_target_range"`
	ChaserChance     float64 `yaml:"chaser_chance"`
	Health           float64 `yaml:"health"`
	GuardHealth      float64 `yaml:"guard_health"`

	Speed         [3]float64 `yaml:"speed"`
	FleeSpeed     [3]float64 `yaml:"flee_speed"`
	ChaseSpeed    [3]float64 `yaml:"chase_speed"`
	StealCooldown [3]float64 `yaml:"steal_cooldown"`
	GrabDelay     [3]float64 `yaml:"grab_delay"`
	CarryMin      [3]float64 `yaml:"carry_min"`
	CarryMax      [3]float64 `yaml:"carry_max"`

	WanderTurnMin   float64 `yaml:"wander_turn_min"`
	WanderTurnMax   float64 `yaml:"wander_turn_max"`
	HomingChance    float64 `yaml:"homing_chance"`
	WaypointMinDist float64 `yaml:"waypoint_min_dist"`
	WaypointMaxDist float64 `yaml:"waypoint_max_dist"`
	StuckReassess   float64 `yaml:"stuck_reassess"`
	EdgeMargin      float64 `yaml:"edge_margin"`
	EjectBuffer     float64 `yaml:"eject_buffer"`
	ReachDist       float64 `yaml:"reach_dist"`
	DepositRange    float64 `yaml:"deposit_range"`
	EmptyStashPause float64 `yaml:"empty_stash_pause"`
	RaidSpeedMul    float64 `yaml:"raid_speed_mul"`

	FleeDropRate     float64 `yaml:"flee_drop_rate"`
	FleeBlindTime    float64 `yaml:"flee_blind_time"`
	FleeExitMul      float64 `yaml:"flee_exit_mul"`
	ChaseEnterMul    float64 `yaml:"chase_enter_mul"`
	ChaseExitMul     float64 `yaml:"chase_exit_mul"`
	GuardSpotMul     float64 `yaml:"guard_spot_mul"`
	GuardPatrolR     float64 `yaml:"guard_patrol_radius"`
	GuardPatrolMul   float64 `yaml:"guard_patrol_speed_mul"`
	GuardTurnMin     float64 `yaml:"guard_turn_min"`
	GuardTurnMax     float64 `yaml:"guard_turn_max"`
	SurroundRadius   float64 `yaml:"surround_radius"`
	SurroundMinR     float64 `yaml:"surround_min_radius"`
	SurroundSpin     float64 `yaml:"surround_spin"`     // rad/s
	SurroundContract float64 `yaml:"surround_contract"` // px/s

	KnockbackRecovery float64 `yaml:"knockback_recovery"`
	KnockbackFriction float64 `yaml:"knockback_friction"` // per 1/60s frame

	ShootCooldown float64 `yaml:"shoot_cooldown"`
	ShootRange    float64 `yaml:"shoot_range"`

	TurnRateWander float64 `yaml:"turn_rate_wander"`
	TurnRatePatrol float64 `yaml:"turn_rate_patrol"`
	TurnRateFlee   float64 `yaml:"turn_rate_flee"`
	TurnRateChase  float64 `yaml:"turn_rate_chase"`
	TurnRateSteal  float64 `yaml:"turn_rate_steal"`
}

// AllyTuning covers the Slew Dem crew and their target allocation.
type AllyTuning struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	MaxAlive         int     `yaml:"max_alive"`
	Health           float64 `yaml:"health"`
	ShootCooldownMin float64 `yaml:"shoot_cooldown_min"`
	ShootCooldownMax float64 `yaml:"shoot_cooldown_max"`
	ShootRangeMin    float64 `yaml:"shoot_range_min"`
	ShootRangeMax    float64 `yaml:"shoot_range_max"`
	SpeedMin         float64 `yaml:"speed_min"`
	SpeedMax         float64 `yaml:"speed_max"`
	ReselectMin      float64 `yaml:"reselect_min"`
	ReselectMax      float64 `yaml:"reselect_max"`
	TargetPenalty    float64 `yaml:"target_penalty"`
	EngageRange      float64 `yaml:"engage_range"`
	StandoffFrac     float64 `yaml:"standoff_frac"`
	StandoffSlack    float64 `yaml:"standoff_slack"`
	SeparationRadius float64 `yaml:"separation_radius"`
	SeparationWeight float64 `yaml:"separation_weight"`
	OrbitMin         float64 `yaml:"orbit_min"`
	OrbitMax         float64 `yaml:"orbit_max"`
	OrbitSpin        float64 `yaml:"orbit_spin"`
	TurnRate         float64 `yaml:"turn_rate"`
}

// BossTuning covers the Top Boy.
type BossTuning struct {
	Health          float64 `yaml:"health"`
	Speed           float64 `yaml:"speed"`
	FleeSpeed       float64 `yaml:"flee_speed"`
	ShootRange      float64 `yaml:"shoot_range"`
	BurstShots      int     `yaml:"burst_shots"`
	BurstGap        float64 `yaml:"burst_gap"`
	BurstCooldown   float64 `yaml:"burst_cooldown"`
	ShotDamage      float64 `yaml:"shot_damage"`
	RetreatFraction float64 `yaml:"retreat_fraction"`
	HealRadius      float64 `yaml:"heal_radius"`
	HealRate        float64 `yaml:"heal_rate"`
	TurnRateRetreat float64 `yaml:"turn_rate_retreat"`
}

// PlayerTuning covers the player's base stats.
type PlayerTuning struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	Speed          float64 `yaml:"speed"`
	PickupRadius   float64 `yaml:"pickup_radius"`
	ReturnRadius   float64 `yaml:"return_radius"`
	RepelRadius    float64 `yaml:"repel_radius"`
	CarrySlots     int     `yaml:"carry_slots"`
	Health         float64 `yaml:"health"`
	ShootCooldown  float64 `yaml:"shoot_cooldown"`
	StartupGrace   float64 `yaml:"startup_grace"`
	PickupCooldown float64 `yaml:"pickup_cooldown"`
}

// ProjectileTuning covers bullets from every side.
type ProjectileTuning struct {
	Size             float64 `yaml:"size"`
	Lifetime         float64 `yaml:"lifetime"`
	FriendlySpeed    float64 `yaml:"friendly_speed"`
	HostileSpeed     float64 `yaml:"hostile_speed"`
	FriendlyDamage   float64 `yaml:"friendly_damage"`
	HostileDamage    float64 `yaml:"hostile_damage"`
	PlayerKnockback  float64 `yaml:"player_knockback"`
	AllyKnockback    float64 `yaml:"ally_knockback"`
	HostileKnockback float64 `yaml:"hostile_knockback"`
}

// LootTuning covers loot drops and XP rewards.
type LootTuning struct {
	Size          float64 `yaml:"size"`
	DropMargin    float64 `yaml:"drop_margin"`
	BoundsMargin  float64 `yaml:"bounds_margin"`
	DropSpeed     float64 `yaml:"drop_speed"`
	FloorFriction float64 `yaml:"floor_friction"` // per 1/60s frame

	XPTrapPickup   int     `yaml:"xp_trap_pickup"`
	XPFloorPickup  int     `yaml:"xp_floor_pickup"`
	XPSnatch       int     `yaml:"xp_snatch"`
	XPStash        int     `yaml:"xp_stash"`
	XPEarlyBonus   float64 `yaml:"xp_early_bonus"`
	XPEarlyMins    float64 `yaml:"xp_early_minutes"`
	XPBase         float64 `yaml:"xp_base"`
	XPGrowth       float64 `yaml:"xp_growth"`
	StashesPerPick int     `yaml:"stashes_per_upgrade"`
}

// WorldTuning covers layout, roster and session parameters.
type WorldTuning struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	ExpansionWidth    float64 `yaml:"expansion_width"`
	InitialOpps       int     `yaml:"initial_opps"`
	InitialGuards     int     `yaml:"initial_guards"`
	LooseLoot         int     `yaml:"loose_loot"`
	TrapCapacity      int     `yaml:"trap_capacity"`
	TrapLootChance    float64 `yaml:"trap_loot_chance"`
	OppBlockCapacity  int     `yaml:"opp_block_capacity"`
	OppBlockLoot      int     `yaml:"opp_block_loot"`
	GuardCap          int     `yaml:"guard_cap"`
	GuardRespawnDelay float64 `yaml:"guard_respawn_delay"`
	GuardRespawnCount int     `yaml:"guard_respawn_count"`
	LevelExpandDelay  float64 `yaml:"level_expand_delay"`
	TargetMinutes     float64 `yaml:"target_minutes"`
	ValidateEvery     float64 `yaml:"validate_every"`
}

// DefaultTuning returns the stock balance.
func DefaultTuning() Tuning {
	return Tuning{
		Economy: EconomyTuning{
			HeatMax:          100,
			HeatPerUnitEarly: 0.05,
			HeatPerUnitMid:   0.03,
			HeatPerUnitLate:  0.01,
			EarlyBandMinutes: 3,
			MidBandMinutes:   5,
			DecayPerSecond:   0.1,

			BasePopulation:    10,
			PopulationCeiling: 25,
			HeatPerPopStep:    10,
			MinutesPerPopStep: 2,
			MaxTimeBonus:      5,

			BaseSpawnInterval: 8,
			MinSpawnInterval:  2,
			HeatSpawnBonus:    6,
			InitialSpawnDelay: 5,
			MinSpawnDistStash: 300,
			SpawnAttempts:     20,

			Tier3Heat:    70,
			Tier3Minutes: 15,
			Tier2Heat:    40,
			Tier2Minutes: 8,

			EscalateAt:        60,
			ResetBelow:        40,
			BulkSpawnCount:    15,
			BulkSpawnInterval: 0.8,
			LootMultiplier:    4,
			GuardAggroHeat:    50,
			BossDefeatRelief:  30,

			GuardKillHeat:    70,
			OppKillHeat:      10,
			TrapPickupHeat:   1,
			FloorPickupHeat:  0.25,
			SnatchHeat:       0.5,
			StashRelief:      2,
			AllyCallInRelief: 15,
		},
		Agents: AgentTuning{
			Width:  32,
			Height: 40,

			DetectionRange:   96,
			StealTargetRange: 1500,
			ChaserChance:     0.5,
			Health:           30,
			GuardHealth:      50,

			Speed:         [3]float64{90, 110, 130},
			FleeSpeed:     [3]float64{120, 140, 160},
			ChaseSpeed:    [3]float64{100, 85, 100},
			StealCooldown: [3]float64{2, 1, 0.5},
			GrabDelay:     [3]float64{1, 0.5, 0.2},
			CarryMin:      [3]float64{8, 5, 3},
			CarryMax:      [3]float64{10, 8, 5},

			WanderTurnMin:   2.5,
			WanderTurnMax:   4.5,
			HomingChance:    0.8,
			WaypointMinDist: 100,
			WaypointMaxDist: 600,
			StuckReassess:   0.5,
			EdgeMargin:      10,
			EjectBuffer:     5,
			ReachDist:       5,
			DepositRange:    50,
			EmptyStashPause: 1,
			RaidSpeedMul:    1.5,

			FleeDropRate:     2,
			FleeBlindTime:    1,
			FleeExitMul:      1.5,
			ChaseEnterMul:    2,
			ChaseExitMul:     3,
			GuardSpotMul:     1.5,
			GuardPatrolR:     80,
			GuardPatrolMul:   0.6,
			GuardTurnMin:     2,
			GuardTurnMax:     3.5,
			SurroundRadius:   180,
			SurroundMinR:     56,
			SurroundSpin:     0.8,
			SurroundContract: 18,

			KnockbackRecovery: 0.5,
			KnockbackFriction: 0.92,

			ShootCooldown: 1.2,
			ShootRange:    350,

			TurnRateWander: 3,
			TurnRatePatrol: 2.5,
			TurnRateFlee:   6,
			TurnRateChase:  5,
			TurnRateSteal:  4,
		},
		Allies: AllyTuning{
			Width:            48,
			Height:           64,
			MaxAlive:         3,
			Health:           100,
			ShootCooldownMin: 0.7,
			ShootCooldownMax: 1.1,
			ShootRangeMin:    250,
			ShootRangeMax:    350,
			SpeedMin:         80,
			SpeedMax:         120,
			ReselectMin:      2,
			ReselectMax:      5,
			TargetPenalty:    150,
			EngageRange:      400,
			StandoffFrac:     0.6,
			StandoffSlack:    20,
			SeparationRadius: 60,
			SeparationWeight: 1.5,
			OrbitMin:         60,
			OrbitMax:         140,
			OrbitSpin:        0.4,
			TurnRate:         5,
		},
		Boss: BossTuning{
			Health:          150,
			Speed:           100,
			FleeSpeed:       150,
			ShootRange:      400,
			BurstShots:      3,
			BurstGap:        0.15,
			BurstCooldown:   2,
			ShotDamage:      20,
			RetreatFraction: 0.3,
			HealRadius:      40,
			HealRate:        15,
			TurnRateRetreat: 6,
		},
		Player: PlayerTuning{
			Width:          48,
			Height:         64,
			Speed:          96,
			PickupRadius:   32,
			ReturnRadius:   32,
			RepelRadius:    48,
			CarrySlots:     5,
			Health:         100,
			ShootCooldown:  0.5,
			StartupGrace:   1,
			PickupCooldown: 0.8,
		},
		Projectiles: ProjectileTuning{
			Size:             8,
			Lifetime:         2,
			FriendlySpeed:    400,
			HostileSpeed:     300,
			FriendlyDamage:   15,
			HostileDamage:    10,
			PlayerKnockback:  200,
			AllyKnockback:    150,
			HostileKnockback: 100,
		},
		Loot: LootTuning{
			Size:           24,
			DropMargin:     30,
			BoundsMargin:   50,
			DropSpeed:      50,
			FloorFriction:  0.9,
			XPTrapPickup:   5,
			XPFloorPickup:  3,
			XPSnatch:       7,
			XPStash:        10,
			XPEarlyBonus:   1.5,
			XPEarlyMins:    2,
			XPBase:         100,
			XPGrowth:       1.45,
			StashesPerPick: 5,
		},
		World: WorldTuning{
			Width:             1344,
			Height:            1152,
			ExpansionWidth:    1344,
			InitialOpps:       4,
			InitialGuards:     10,
			LooseLoot:         8,
			TrapCapacity:      2,
			TrapLootChance:    0.3,
			OppBlockCapacity:  10,
			OppBlockLoot:      6,
			GuardCap:          20,
			GuardRespawnDelay: 7,
			GuardRespawnCount: 2,
			LevelExpandDelay:  2,
			TargetMinutes:     30,
			ValidateEvery:     1,
		},
	}
}

// LoadTuning reads a yaml file over the defaults and sanitizes the result.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	t.Sanitize()
	return t, nil
}

// Sanitize repairs values that would break the simulation: non-positive rates
// and caps fall back to defaults, and the escalation band is kept ordered.
func (t *Tuning) Sanitize() {
	d := DefaultTuning()
	e := &t.Economy
	posF(&e.HeatMax, d.Economy.HeatMax)
	posF(&e.BaseSpawnInterval, d.Economy.BaseSpawnInterval)
	posF(&e.MinSpawnInterval, d.Economy.MinSpawnInterval)
	posF(&e.HeatPerPopStep, d.Economy.HeatPerPopStep)
	posF(&e.MinutesPerPopStep, d.Economy.MinutesPerPopStep)
	posF(&e.BulkSpawnInterval, d.Economy.BulkSpawnInterval)
	posI(&e.PopulationCeiling, d.Economy.PopulationCeiling)
	posI(&e.SpawnAttempts, d.Economy.SpawnAttempts)
	posI(&e.LootMultiplier, d.Economy.LootMultiplier)
	if e.BasePopulation < 0 {
		e.BasePopulation = d.Economy.BasePopulation
	}
	if e.EscalateAt <= 0 || e.EscalateAt > e.HeatMax {
		e.EscalateAt = d.Economy.EscalateAt
	}
	if e.ResetBelow < 0 || e.ResetBelow >= e.EscalateAt {
		e.ResetBelow = e.EscalateAt * 2 / 3
	}

	a := &t.Agents
	posF(&a.Width, d.Agents.Width)
	posF(&a.Height, d.Agents.Height)
	posF(&a.DetectionRange, d.Agents.DetectionRange)
	posF(&a.Health, d.Agents.Health)
	posF(&a.GuardHealth, d.Agents.GuardHealth)
	posF(&a.KnockbackRecovery, d.Agents.KnockbackRecovery)
	posF(&a.ShootCooldown, d.Agents.ShootCooldown)
	if a.KnockbackFriction <= 0 || a.KnockbackFriction > 1 {
		a.KnockbackFriction = d.Agents.KnockbackFriction
	}
	if a.WanderTurnMax < a.WanderTurnMin {
		a.WanderTurnMin, a.WanderTurnMax = a.WanderTurnMax, a.WanderTurnMin
	}

	al := &t.Allies
	posF(&al.Width, d.Allies.Width)
	posF(&al.Height, d.Allies.Height)
	posF(&al.Health, d.Allies.Health)
	posI(&al.MaxAlive, d.Allies.MaxAlive)
	if al.ReselectMax < al.ReselectMin {
		al.ReselectMin, al.ReselectMax = al.ReselectMax, al.ReselectMin
	}
	if al.TargetPenalty < 0 {
		al.TargetPenalty = d.Allies.TargetPenalty
	}

	b := &t.Boss
	posF(&b.Health, d.Boss.Health)
	posI(&b.BurstShots, d.Boss.BurstShots)
	posF(&b.BurstCooldown, d.Boss.BurstCooldown)
	if b.RetreatFraction <= 0 || b.RetreatFraction >= 1 {
		b.RetreatFraction = d.Boss.RetreatFraction
	}

	p := &t.Player
	posF(&p.Width, d.Player.Width)
	posF(&p.Height, d.Player.Height)
	posF(&p.Health, d.Player.Health)
	posI(&p.CarrySlots, d.Player.CarrySlots)

	posF(&t.Projectiles.Size, d.Projectiles.Size)
	posF(&t.Projectiles.Lifetime, d.Projectiles.Lifetime)
	posF(&t.Loot.Size, d.Loot.Size)
	posF(&t.Loot.XPBase, d.Loot.XPBase)
	posI(&t.Loot.StashesPerPick, d.Loot.StashesPerPick)
	if t.Loot.FloorFriction <= 0 || t.Loot.FloorFriction > 1 {
		t.Loot.FloorFriction = d.Loot.FloorFriction
	}

	w := &t.World
	posF(&w.Width, d.World.Width)
	posF(&w.Height, d.World.Height)
	posF(&w.ExpansionWidth, d.World.ExpansionWidth)
	posF(&w.ValidateEvery, d.World.ValidateEvery)
	posF(&w.TargetMinutes, d.World.TargetMinutes)
	posI(&w.TrapCapacity, d.World.TrapCapacity)
	posI(&w.OppBlockCapacity, d.World.OppBlockCapacity)
	posI(&w.GuardCap, d.World.GuardCap)
}

func posF(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

func posI(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}
