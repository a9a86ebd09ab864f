package sim

import "math"

// Input is the resolved per-tick control from the host. Move is clamped to unit
// length.
type Input struct {
	MoveX, MoveY   float64
	Shoot          bool
	PauseRequested bool
}

func (in Input) normalized() (float64, float64) {
	m := math.Hypot(in.MoveX, in.MoveY)
	if m <= 1 {
		return in.MoveX, in.MoveY
	}
	return in.MoveX / m, in.MoveY / m
}

// Player is the single controlled character. Its stats are upgradeable.
type Player struct {
	X, Y   float64
	W, H   float64
	FaceX  float64
	FaceY  float64
	Moving bool

	Health    float64
	MaxHealth float64
	Dead      bool

	Speed        float64
	PickupRadius float64
	ReturnRadius float64
	RepelRadius  float64
	CarrySlots   int
	Dampening    float64 // percent, [0,100]
	XPMultiplier float64

	carried    []LootID
	shootTimer float64
}

func newPlayer(t *PlayerTuning, x, y float64) *Player {
	return &Player{
		X: x, Y: y, W: t.Width, H: t.Height,
		FaceY:        1,
		Health:       t.Health,
		MaxHealth:    t.Health,
		Speed:        t.Speed,
		PickupRadius: t.PickupRadius,
		ReturnRadius: t.ReturnRadius,
		RepelRadius:  t.RepelRadius,
		CarrySlots:   t.CarrySlots,
		XPMultiplier: 1,
	}
}

// Box returns the player's collision rectangle.
func (p *Player) Box() Rect { return Rect{X: p.X, Y: p.Y, W: p.W, H: p.H} }

// CX returns the horizontal centre.
func (p *Player) CX() float64 { return p.X + p.W/2 }

// CY returns the vertical centre.
func (p *Player) CY() float64 { return p.Y + p.H/2 }

// Carried returns a copy of the carried loot in pickup order.
func (p *Player) Carried() []LootID {
	return append([]LootID(nil), p.carried...)
}

// HasFreeSlot reports whether the player can carry one more item.
func (p *Player) HasFreeSlot() bool { return len(p.carried) < p.CarrySlots }

func (p *Player) removeCarried(id LootID) bool {
	for i, c := range p.carried {
		if c == id {
			p.carried = append(p.carried[:i], p.carried[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Player) holds(id LootID) bool {
	for _, c := range p.carried {
		if c == id {
			return true
		}
	}
	return false
}

// updatePlayer moves the player and fires along its facing.
func (w *World) updatePlayer(in Input, dt float64) {
	p := w.player
	if p == nil || p.Dead {
		return
	}
	mx, my := in.normalized()
	p.Moving = mx != 0 || my != 0
	if p.Moving {
		m := math.Hypot(mx, my)
		p.FaceX, p.FaceY = mx/m, my/m
		res := MoveWithSliding(p.Box(), mx*p.Speed, my*p.Speed, dt, w.solids)
		p.X, p.Y = res.X, res.Y
	}
	p.X = clamp(p.X, 0, w.Width-p.W)
	p.Y = clamp(p.Y, 0, w.Height-p.H)

	if p.shootTimer > 0 {
		p.shootTimer -= dt
	}
	if in.Shoot && p.shootTimer <= 0 {
		w.spawnProjectile(p.CX(), p.CY(), p.FaceX, p.FaceY, FactionFriendly, DamageFromPlayer, NoAgent,
			w.tuning.Projectiles.FriendlyDamage, w.tuning.Projectiles.PlayerKnockback)
		p.shootTimer = w.tuning.Player.ShootCooldown
	}
}

// damagePlayer applies a hit. Lethal damage drops everything carried and ends
// the session.
func (w *World) damagePlayer(amount float64) {
	p := w.player
	if p == nil || p.Dead {
		return
	}
	p.Health -= amount
	if p.Health > 0 {
		return
	}
	p.Health = 0
	p.Dead = true
	for _, id := range p.Carried() {
		w.dropLoot(id, p.CX(), p.CY())
	}
	w.emit(Event{Kind: EventPlayerDied, Agent: NoAgent, Loot: NoLoot, X: p.CX(), Y: p.CY()})
	w.finish(OutcomeLost)
}
