package sim

import "math"

// Faction decides what a projectile may hit.
type Faction int

const (
	FactionFriendly Faction = iota // player and allies; hits hostile agents
	FactionHostile                 // opps, guards, boss; hits the player and allies
)

// Projectile flies straight until it hits something, a wall, or expires.
type Projectile struct {
	X, Y      float64
	VX, VY    float64
	Damage    float64
	Knockback float64
	Faction   Faction
	Source    DamageSource
	Owner     AgentID
	Life      float64
	Active    bool
}

// Box returns the projectile's rectangle.
func (p *Projectile) Box(size float64) Rect { return Rect{X: p.X, Y: p.Y, W: size, H: size} }

func (w *World) spawnProjectile(cx, cy, dx, dy float64, f Faction, src DamageSource, owner AgentID, dmg, kb float64) {
	m := math.Hypot(dx, dy)
	if m == 0 {
		return
	}
	pt := &w.tuning.Projectiles
	speed := pt.FriendlySpeed
	if f == FactionHostile {
		speed = pt.HostileSpeed
	}
	w.projectiles = append(w.projectiles, &Projectile{
		X:         cx - pt.Size/2,
		Y:         cy - pt.Size/2,
		VX:        dx / m * speed,
		VY:        dy / m * speed,
		Damage:    dmg,
		Knockback: kb,
		Faction:   f,
		Source:    src,
		Owner:     owner,
		Life:      pt.Lifetime,
		Active:    true,
	})
}

// updateProjectiles advances every projectile and resolves hits. A projectile
// deactivates on its first hit.
func (w *World) updateProjectiles(dt float64) {
	size := w.tuning.Projectiles.Size
	for _, pr := range w.projectiles {
		if !pr.Active {
			continue
		}
		pr.Life -= dt
		pr.X += pr.VX * dt
		pr.Y += pr.VY * dt
		box := pr.Box(size)
		if pr.Life <= 0 || pr.X < 0 || pr.Y < 0 || pr.X > w.Width || pr.Y > w.Height {
			pr.Active = false
			continue
		}
		for _, s := range w.solids {
			if box.Overlaps(s) {
				pr.Active = false
				break
			}
		}
		if !pr.Active {
			continue
		}
		w.resolveHit(pr, box)
	}

	live := w.projectiles[:0]
	for _, pr := range w.projectiles {
		if pr.Active {
			live = append(live, pr)
		}
	}
	for i := len(live); i < len(w.projectiles); i++ {
		w.projectiles[i] = nil
	}
	w.projectiles = live
}

func (w *World) resolveHit(pr *Projectile, box Rect) {
	if pr.Faction == FactionHostile {
		if p := w.player; p != nil && !p.Dead && box.Overlaps(p.Box()) {
			pr.Active = false
			w.damagePlayer(pr.Damage)
			return
		}
	}
	for _, a := range w.agents {
		if a.Dead || a.ID == pr.Owner {
			continue
		}
		if (pr.Faction == FactionFriendly) != a.Role.Hostile() {
			continue
		}
		if !box.Overlaps(a.Box()) {
			continue
		}
		pr.Active = false
		if pr.Knockback > 0 {
			w.Knockback(a.ID, pr.VX, pr.VY, pr.Knockback)
		}
		w.DamageAgent(a.ID, pr.Damage, pr.Source)
		return
	}
}
