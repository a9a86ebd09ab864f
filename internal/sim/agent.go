package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// AgentID is a stable handle into the world roster. IDs are never reused.
type AgentID int

// NoAgent is the empty handle.
const NoAgent AgentID = -1

// Role is the tagged variant of an agent. Each role admits a fixed subset of
// states (see behaviors).
type Role int

const (
	RoleOpp Role = iota
	RoleGuard
	RoleAlly
	RoleBoss
	numRoles
)

func (r Role) String() string {
	switch r {
	case RoleOpp:
		return "opp"
	case RoleGuard:
		return "guard"
	case RoleAlly:
		return "ally"
	case RoleBoss:
		return "boss"
	}
	return "?"
}

// Hostile reports whether the role fights the player.
func (r Role) Hostile() bool { return r != RoleAlly }

// State is the exclusive behaviour state. Knockback is a separate suspend flag.
type State int

const (
	StateWandering State = iota
	StateFleeing
	StateStealing
	StateChasing
	StateHunting
	StateRetreating
	numStates
)

func (s State) String() string {
	switch s {
	case StateWandering:
		return "wandering"
	case StateFleeing:
		return "fleeing"
	case StateStealing:
		return "stealing"
	case StateChasing:
		return "chasing"
	case StateHunting:
		return "hunting"
	case StateRetreating:
		return "retreating"
	}
	return "?"
}

// DamageSource attributes a hit for kill heat and knockback.
type DamageSource int

const (
	DamageFromPlayer DamageSource = iota
	DamageFromAlly
	DamageFromHostile
	DamageFromWorld
)

// Agent is any opp, guard, ally or boss. Position is the top-left of its box.
type Agent struct {
	ID    AgentID
	Role  Role
	Tier  int
	Label string

	X, Y   float64
	W, H   float64
	VX, VY float64

	Direction       float64
	TargetDirection float64
	State           State

	Speed      float64
	FleeSpeed  float64
	ChaseSpeed float64

	Health    float64
	MaxHealth float64
	Dead      bool
	Carried   LootID

	IsChaser      bool
	Surrounding   bool
	Alerted       bool
	Raiding       bool
	PostAbandoned bool

	KnockedBack    bool
	knockbackTimer float64
	kbVX, kbVY     float64

	stealCooldown float64
	grabTimer     float64
	grabbing      bool
	stealTarget   BuildingID
	shootTimer    float64
	shootCooldown float64
	shootRange    float64
	turnTimer     float64
	carryTimer    float64
	fleeTimer     float64
	fleeCued      bool
	depositTimer  float64

	orbitAngle  float64
	orbitRadius float64

	// guard post
	postX, postY float64

	// ally
	Target        AgentID
	reselectTimer float64
	patrolOffset  float64
	preferredDist float64

	// boss
	home BuildingID

	killedBy DamageSource
}

// Box returns the agent's collision rectangle.
func (a *Agent) Box() Rect { return Rect{X: a.X, Y: a.Y, W: a.W, H: a.H} }

// CX returns the horizontal centre.
func (a *Agent) CX() float64 { return a.X + a.W/2 }

// CY returns the vertical centre.
func (a *Agent) CY() float64 { return a.Y + a.H/2 }

// Carrying reports whether the agent holds an item.
func (a *Agent) Carrying() bool { return a.Carried != NoLoot }

// HealthFraction returns health over max health.
func (a *Agent) HealthFraction() float64 {
	if a.MaxHealth <= 0 {
		return 0
	}
	return a.Health / a.MaxHealth
}

// ShootRange returns the agent's firing range.
func (a *Agent) ShootRange() float64 { return a.shootRange }

// Post returns the guard post centre.
func (a *Agent) Post() (float64, float64) { return a.postX, a.postY }

func (a *Agent) centreAt(cx, cy float64) {
	a.X = cx - a.W/2
	a.Y = cy - a.H/2
}

func tierIndex(tier int) int {
	if tier < 1 {
		return 0
	}
	if tier > 3 {
		return 2
	}
	return tier - 1
}

func randRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// newStreetAgent builds an opp of the given tier centred on (cx,cy). Guards and
// the boss start from this and are specialised by their constructors.
func newStreetAgent(id AgentID, t *AgentTuning, tier int, cx, cy float64, rng *rand.Rand) *Agent {
	ti := tierIndex(tier)
	a := &Agent{
		ID:            id,
		Role:          RoleOpp,
		Tier:          ti + 1,
		W:             t.Width,
		H:             t.Height,
		Direction:     rng.Float64() * 2 * math.Pi,
		State:         StateWandering,
		Speed:         t.Speed[ti],
		FleeSpeed:     t.FleeSpeed[ti],
		ChaseSpeed:    t.ChaseSpeed[ti],
		Health:        t.Health,
		MaxHealth:     t.Health,
		Carried:       NoLoot,
		stealTarget:   NoBuilding,
		shootTimer:    rng.Float64(),
		shootCooldown: t.ShootCooldown,
		shootRange:    t.ShootRange,
		turnTimer:     randRange(rng, t.WanderTurnMin, t.WanderTurnMax),
		Target:        NoAgent,
		home:          NoBuilding,
	}
	a.TargetDirection = a.Direction
	a.IsChaser = a.Tier >= 2 && rng.Float64() < t.ChaserChance
	a.centreAt(cx, cy)
	a.Label = fmt.Sprintf("O%d", id)
	return a
}

func newGuard(id AgentID, t *AgentTuning, cx, cy float64, home BuildingID, health float64, rng *rand.Rand) *Agent {
	a := newStreetAgent(id, t, 3, cx, cy, rng)
	a.Role = RoleGuard
	a.IsChaser = false
	a.postX, a.postY = cx, cy
	a.home = home
	a.Health, a.MaxHealth = health, health
	a.turnTimer = randRange(rng, t.GuardTurnMin, t.GuardTurnMax)
	a.Label = fmt.Sprintf("G%d", id)
	return a
}

func newBoss(id AgentID, at *AgentTuning, bt *BossTuning, cx, cy float64, home BuildingID, rng *rand.Rand) *Agent {
	a := newStreetAgent(id, at, 3, cx, cy, rng)
	a.Role = RoleBoss
	a.W, a.H = 48, 64
	a.centreAt(cx, cy)
	a.Health, a.MaxHealth = bt.Health, bt.Health
	a.Speed, a.ChaseSpeed, a.FleeSpeed = bt.Speed, bt.Speed, bt.FleeSpeed
	a.shootRange = bt.ShootRange
	a.shootCooldown = bt.BurstCooldown
	a.IsChaser = true
	a.State = StateChasing
	a.home = home
	a.Label = fmt.Sprintf("TB%d", id)
	return a
}

func newAlly(id AgentID, t *AllyTuning, cx, cy float64, rng *rand.Rand) *Agent {
	a := &Agent{
		ID:            id,
		Role:          RoleAlly,
		Tier:          1,
		W:             t.Width,
		H:             t.Height,
		State:         StateHunting,
		Health:        t.Health,
		MaxHealth:     t.Health,
		Carried:       NoLoot,
		stealTarget:   NoBuilding,
		shootCooldown: randRange(rng, t.ShootCooldownMin, t.ShootCooldownMax),
		shootRange:    randRange(rng, t.ShootRangeMin, t.ShootRangeMax),
		Target:        NoAgent,
		patrolOffset:  rng.Float64() * 2 * math.Pi,
		preferredDist: randRange(rng, t.OrbitMin, t.OrbitMax),
		home:          NoBuilding,
	}
	a.Speed = randRange(rng, t.SpeedMin, t.SpeedMax)
	a.ChaseSpeed = a.Speed
	a.FleeSpeed = a.Speed
	a.Direction = a.patrolOffset
	a.TargetDirection = a.Direction
	a.centreAt(cx, cy)
	a.Label = fmt.Sprintf("A%d", id)
	return a
}
