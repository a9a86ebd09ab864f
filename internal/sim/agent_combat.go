package sim

import "math"

// agentShoot fires at the nearest valid target once the cooldown allows.
// Fleeing hostiles, retreating bosses and knocked-back agents hold fire.
func (w *World) agentShoot(a *Agent) {
	if a.Dead || a.KnockedBack || a.shootTimer > 0 {
		return
	}
	if a.Role.Hostile() && a.State == StateFleeing {
		return
	}
	if a.State == StateRetreating {
		return
	}
	tx, ty, ok := w.shootTargetFor(a)
	if !ok {
		return
	}
	if a.Role == RoleBoss {
		w.bossBurst(a, tx, ty)
		a.shootTimer = w.tuning.Boss.BurstCooldown
		return
	}
	w.fireFrom(a, tx, ty)
	a.shootTimer = a.shootCooldown
}

// shootTargetFor picks the nearest target in range: the player or an ally for
// hostiles, the assigned or nearest hostile for allies.
func (w *World) shootTargetFor(a *Agent) (float64, float64, bool) {
	cx, cy := a.CX(), a.CY()
	best := a.shootRange
	var tx, ty float64
	found := false
	consider := func(x, y float64) {
		if d := Dist(cx, cy, x, y); d <= best {
			best, tx, ty, found = d, x, y, true
		}
	}

	if a.Role == RoleAlly {
		if t := w.agent(a.Target); t != nil && !t.Dead && Dist(cx, cy, t.CX(), t.CY()) <= a.shootRange {
			return t.CX(), t.CY(), true
		}
		for _, o := range w.agents {
			if !o.Dead && o.Role.Hostile() {
				consider(o.CX(), o.CY())
			}
		}
		return tx, ty, found
	}

	if px, py, ok := w.playerCentre(); ok {
		consider(px, py)
	}
	for _, o := range w.agents {
		if !o.Dead && o.Role == RoleAlly {
			consider(o.CX(), o.CY())
		}
	}
	return tx, ty, found
}

func (w *World) fireFrom(a *Agent, tx, ty float64) {
	pt := &w.tuning.Projectiles
	cx, cy := a.CX(), a.CY()
	switch a.Role {
	case RoleAlly:
		w.spawnProjectile(cx, cy, tx-cx, ty-cy, FactionFriendly, DamageFromAlly, a.ID, pt.FriendlyDamage, pt.AllyKnockback)
	case RoleBoss:
		w.spawnProjectile(cx, cy, tx-cx, ty-cy, FactionHostile, DamageFromHostile, a.ID, w.tuning.Boss.ShotDamage, pt.HostileKnockback)
	default:
		w.spawnProjectile(cx, cy, tx-cx, ty-cy, FactionHostile, DamageFromHostile, a.ID, pt.HostileDamage, pt.HostileKnockback)
	}
}

// bossBurst fires the first shot now and queues the rest. Each queued shot
// re-aims at fire time and is dropped if the boss has died or is stunned.
func (w *World) bossBurst(a *Agent, tx, ty float64) {
	bt := &w.tuning.Boss
	w.fireFrom(a, tx, ty)
	id := a.ID
	for i := 1; i < bt.BurstShots; i++ {
		w.delayed.Schedule(float64(i)*bt.BurstGap, id, delayedBurst, func(w *World) {
			b := w.agent(id)
			if b == nil || b.KnockedBack || b.State == StateRetreating {
				return
			}
			if x, y, ok := w.shootTargetFor(b); ok {
				w.fireFrom(b, x, y)
			}
		})
	}
}

// DamageAgent applies a hit. It is a no-op on the dead. Any hit on a guard
// calls every live guard to chase. Lethal damage drops carried loot, counts
// the body and, for player kills, raises heat.
func (w *World) DamageAgent(id AgentID, amount float64, src DamageSource) {
	a := w.agent(id)
	if a == nil || a.Dead || amount <= 0 {
		return
	}
	a.Health -= amount
	w.trace(a, "combat", "hit", "", a.Health)
	if a.Role == RoleGuard {
		w.alertGuards()
	}
	if a.Health > 0 {
		return
	}

	a.Health = 0
	a.Dead = true
	a.killedBy = src
	w.dropFromAgent(a)
	w.stats.BodiesDropped++
	if src == DamageFromPlayer {
		if a.Role == RoleGuard {
			w.econ.AddHeat(w.tuning.Economy.GuardKillHeat)
		} else {
			w.econ.AddHeat(w.tuning.Economy.OppKillHeat)
		}
	}
	if a.Role == RoleGuard {
		w.delayed.Schedule(w.tuning.World.GuardRespawnDelay, NoAgent, delayedGuardRespawn, func(w *World) {
			w.respawnGuards(w.tuning.World.GuardRespawnCount)
		})
	}
	w.emit(Event{Kind: EventAgentDied, Agent: a.ID, Loot: NoLoot, X: a.CX(), Y: a.CY(), Value: float64(a.Role)})
	w.trace(a, "combat", "died", a.Role.String(), 0)
}

func (w *World) alertGuards() {
	for _, g := range w.agents {
		if g.Dead || g.Role != RoleGuard {
			continue
		}
		g.Alerted = true
		if !g.KnockedBack {
			w.setState(g, StateChasing)
		}
	}
}

// updateAlly runs one tick for an ally.
func (w *World) updateAlly(a *Agent, dt float64) {
	if a.Dead {
		return
	}
	a.tickTimers(dt)
	if a.KnockedBack {
		w.updateKnockback(a, dt)
		return
	}
	if a.State != StateHunting {
		a.State = StateHunting
	}
	m := w.hunt(a, dt)
	w.steer(a, m, dt)
	w.agentShoot(a)
}

// hunt keeps an ally at stand-off range from its allocated target, or
// orbiting the player when nothing is in reach.
func (w *World) hunt(a *Agent, dt float64) motion {
	at := &w.tuning.Allies
	t := w.agent(a.Target)
	if t == nil || t.Dead || a.reselectTimer <= 0 {
		a.Target = SelectTarget(
			Allocatee{ID: a.ID, X: a.CX(), Y: a.CY()},
			w.hostilesNear(a.CX(), a.CY(), at.EngageRange),
			w.allyAssignments(),
			at.TargetPenalty,
		)
		a.reselectTimer = randRange(w.rng, at.ReselectMin, at.ReselectMax)
		t = w.agent(a.Target)
	}

	speed := a.Speed
	var dx, dy float64
	switch {
	case t != nil:
		d := Dist(a.CX(), a.CY(), t.CX(), t.CY())
		hx, hy := unit(t.CX()-a.CX(), t.CY()-a.CY())
		standoff := at.StandoffFrac * a.shootRange
		switch {
		case d > standoff+at.StandoffSlack:
			dx, dy = hx, hy
		case d < standoff-at.StandoffSlack:
			dx, dy = -hx, -hy
		default:
			dx, dy = -hy, hx
			speed *= 0.5
		}
	default:
		px, py, ok := w.playerCentre()
		if !ok {
			speed = 0
			break
		}
		ang := a.patrolOffset + w.Elapsed*at.OrbitSpin
		ox := px + math.Cos(ang)*a.preferredDist
		oy := py + math.Sin(ang)*a.preferredDist
		if Dist(a.CX(), a.CY(), ox, oy) < 6 {
			speed = 0
		}
		dx, dy = unit(ox-a.CX(), oy-a.CY())
	}

	sx, sy := w.allySeparation(a)
	vx := dx + sx*at.SeparationWeight
	vy := dy + sy*at.SeparationWeight
	if vx == 0 && vy == 0 {
		return motion{speed: 0, turn: at.TurnRate}
	}
	a.TargetDirection = math.Atan2(vy, vx)
	return motion{speed: speed, turn: at.TurnRate}
}

// allySeparation sums a falloff push away from every other ally in radius.
func (w *World) allySeparation(a *Agent) (float64, float64) {
	r := w.tuning.Allies.SeparationRadius
	var sx, sy float64
	for _, o := range w.agents {
		if o == a || o.Dead || o.Role != RoleAlly {
			continue
		}
		d := Dist(a.CX(), a.CY(), o.CX(), o.CY())
		if d >= r {
			continue
		}
		if d == 0 {
			sx += math.Cos(a.patrolOffset)
			sy += math.Sin(a.patrolOffset)
			continue
		}
		k := (1 - d/r) / d
		sx += (a.CX() - o.CX()) * k
		sy += (a.CY() - o.CY()) * k
	}
	return sx, sy
}

func (w *World) hostilesNear(x, y, r float64) []Hostile {
	var out []Hostile
	for _, o := range w.agents {
		if o.Dead || !o.Role.Hostile() {
			continue
		}
		if Dist(x, y, o.CX(), o.CY()) <= r {
			out = append(out, Hostile{ID: o.ID, X: o.CX(), Y: o.CY()})
		}
	}
	return out
}

func (w *World) allyAssignments() map[AgentID]AgentID {
	m := make(map[AgentID]AgentID)
	for _, o := range w.agents {
		if !o.Dead && o.Role == RoleAlly && o.Target != NoAgent {
			m[o.ID] = o.Target
		}
	}
	return m
}

func unit(x, y float64) (float64, float64) {
	m := math.Hypot(x, y)
	if m == 0 {
		return 0, 0
	}
	return x / m, y / m
}
