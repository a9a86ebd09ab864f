package sim

import "math"

// motion is what a state handler asks of the steering step.
type motion struct {
	speed float64
	turn  float64 // heading lerp rate per second
}

type stateFn func(w *World, a *Agent, dt float64) motion

// behaviors is the role x state dispatch table. A nil entry is an illegal
// combination and setState refuses it.
var behaviors [numRoles][numStates]stateFn

func init() {
	behaviors[RoleOpp][StateWandering] = (*World).wander
	behaviors[RoleOpp][StateFleeing] = (*World).flee
	behaviors[RoleOpp][StateStealing] = (*World).steal
	behaviors[RoleOpp][StateChasing] = (*World).chase

	behaviors[RoleGuard][StateWandering] = (*World).patrol
	behaviors[RoleGuard][StateChasing] = (*World).chase

	behaviors[RoleAlly][StateHunting] = (*World).hunt

	behaviors[RoleBoss][StateWandering] = (*World).wander
	behaviors[RoleBoss][StateChasing] = (*World).chase
	behaviors[RoleBoss][StateRetreating] = (*World).retreat
}

// CanEnter reports whether role r admits state s.
func CanEnter(r Role, s State) bool {
	if r < 0 || r >= numRoles || s < 0 || s >= numStates {
		return false
	}
	return behaviors[r][s] != nil
}

// groundedState is where an agent lands after knockback or a failed
// transition.
func groundedState(a *Agent) State {
	switch a.Role {
	case RoleAlly:
		return StateHunting
	case RoleBoss:
		return StateChasing
	}
	if a.Surrounding || a.Alerted {
		return StateChasing
	}
	return StateWandering
}

// setState moves a into s if the role allows it and runs entry effects.
func (w *World) setState(a *Agent, s State) bool {
	if a.State == s {
		return true
	}
	if !CanEnter(a.Role, s) {
		return false
	}
	from := a.State
	a.State = s
	switch s {
	case StateWandering:
		a.fleeCued = false
		a.grabbing = false
		a.grabTimer = 0
	case StateFleeing:
		w.stats.OppsRepelled++
		a.fleeTimer = w.tuning.Agents.FleeBlindTime
		a.grabbing = false
		a.grabTimer = 0
		if !a.fleeCued {
			a.fleeCued = true
			w.emit(Event{Kind: EventFleeCue, Agent: a.ID, Loot: NoLoot, X: a.CX(), Y: a.CY()})
		}
	case StateStealing:
		a.grabbing = false
		a.grabTimer = 0
	case StateChasing:
		if a.orbitRadius <= 0 {
			a.orbitRadius = w.tuning.Agents.SurroundRadius
		}
	}
	w.trace(a, "state", "transition", from.String()+" -> "+s.String(), 0)
	return true
}

func (a *Agent) tickTimers(dt float64) {
	dec := func(v *float64) {
		if *v > 0 {
			*v -= dt
		}
	}
	dec(&a.stealCooldown)
	dec(&a.shootTimer)
	dec(&a.turnTimer)
	dec(&a.fleeTimer)
	dec(&a.depositTimer)
	dec(&a.reselectTimer)
	if a.Carrying() {
		dec(&a.carryTimer)
	}
}

// updateAgent runs one tick for a non-ally agent.
func (w *World) updateAgent(a *Agent, dt float64) {
	if a.Dead {
		return
	}
	a.tickTimers(dt)
	if a.KnockedBack {
		w.updateKnockback(a, dt)
		return
	}

	switch a.Role {
	case RoleGuard:
		w.guardSense(a)
	case RoleBoss:
		if a.State != StateRetreating && a.HealthFraction() < w.tuning.Boss.RetreatFraction {
			w.setState(a, StateRetreating)
		}
	}

	fn := behaviors[a.Role][a.State]
	if fn == nil {
		a.State = groundedState(a)
		fn = behaviors[a.Role][a.State]
	}
	m := fn(w, a, dt)
	w.steer(a, m, dt)
	w.agentShoot(a)

	if a.Carrying() && a.carryTimer <= 0 {
		w.dropFromAgent(a)
	}
}

func (w *World) guardSense(a *Agent) {
	if a.State != StateWandering {
		return
	}
	t := &w.tuning.Agents
	hot := w.econ.Heat > w.tuning.Economy.GuardAggroHeat
	spotted := false
	if px, py, ok := w.playerCentre(); ok {
		spotted = Dist(a.CX(), a.CY(), px, py) < t.GuardSpotMul*t.DetectionRange
	}
	if a.Alerted || hot || spotted {
		w.setState(a, StateChasing)
	}
}

// wander covers idle roaming, raiding, stealing triggers and depositing.
func (w *World) wander(a *Agent, dt float64) motion {
	t := &w.tuning.Agents
	if px, py, ok := w.playerCentre(); ok {
		d := Dist(a.CX(), a.CY(), px, py)
		if a.IsChaser && d < t.ChaseEnterMul*t.DetectionRange && w.setState(a, StateChasing) {
			return w.chase(a, dt)
		}
		if !a.IsChaser && d < t.DetectionRange && w.setState(a, StateFleeing) {
			return w.flee(a, dt)
		}
	}

	speed := a.Speed
	if a.Carrying() {
		w.carryHome(a)
	} else {
		if sh := w.safeHouse(); sh != nil && CanEnter(a.Role, StateStealing) {
			if a.Raiding && sh.HasLoot() {
				a.stealTarget = sh.ID
				w.setState(a, StateStealing)
				return w.steal(a, dt)
			}
			if a.stealCooldown <= 0 && sh.HasLoot() &&
				Dist(a.CX(), a.CY(), sh.Rect.CenterX(), sh.Rect.CenterY()) <= t.StealTargetRange {
				a.stealTarget = sh.ID
				w.setState(a, StateStealing)
				return w.steal(a, dt)
			}
			if a.Raiding {
				a.TargetDirection = HeadingTo(a.CX(), a.CY(), sh.Rect.CenterX(), sh.Rect.CenterY())
				speed *= t.RaidSpeedMul
			}
		}
		if !a.Raiding && a.turnTimer <= 0 {
			a.turnTimer = randRange(w.rng, t.WanderTurnMin, t.WanderTurnMax)
			a.TargetDirection = w.pickWanderHeading(a)
		}
	}

	w.avoidEdges(a)
	return motion{speed: speed, turn: t.TurnRateWander}
}

// pickWanderHeading homes on the loot-bearing safe house most of the time,
// otherwise heads for a road waypoint in the distance window.
func (w *World) pickWanderHeading(a *Agent) float64 {
	t := &w.tuning.Agents
	cx, cy := a.CX(), a.CY()
	if sh := w.safeHouse(); sh != nil && sh.HasLoot() && w.rng.Float64() < t.HomingChance {
		return HeadingTo(cx, cy, sh.Rect.CenterX(), sh.Rect.CenterY()) + (w.rng.Float64()-0.5)*0.2
	}
	var valid [][2]float64
	for _, wp := range w.waypoints {
		d := Dist(cx, cy, wp[0], wp[1])
		if d > t.WaypointMinDist && d < t.WaypointMaxDist {
			valid = append(valid, wp)
		}
	}
	if len(valid) > 0 {
		wp := valid[w.rng.Intn(len(valid))]
		return HeadingTo(cx, cy, wp[0], wp[1])
	}
	return w.rng.Float64() * 2 * math.Pi
}

// carryHome re-aims a carrying agent at the nearest traphouse with room and
// deposits on arrival.
func (w *World) carryHome(a *Agent) {
	t := &w.tuning.Agents
	b := w.nearestFreeTraphouse(a.CX(), a.CY())
	if b == nil {
		// Nowhere to deposit: drift until a slot opens or the carry timer runs out.
		if a.depositTimer <= 0 {
			a.depositTimer = 1
			a.TargetDirection = w.rng.Float64() * 2 * math.Pi
		}
		return
	}
	if NearRect(a.Box(), b.Rect, t.DepositRange) {
		w.stashFromAgent(a, b)
		return
	}
	if a.depositTimer <= 0 {
		a.depositTimer = 1
		a.TargetDirection = HeadingTo(a.CX(), a.CY(), b.Rect.CenterX(), b.Rect.CenterY())
	}
}

func (w *World) avoidEdges(a *Agent) {
	m := w.tuning.Agents.EdgeMargin
	if a.X < m || a.Y < m || a.X+a.W > w.Width-m || a.Y+a.H > w.Height-m {
		a.TargetDirection = HeadingTo(a.CX(), a.CY(), w.Width/2, w.Height/2) + (w.rng.Float64()-0.5)*0.5
	}
}

func (w *World) flee(a *Agent, dt float64) motion {
	t := &w.tuning.Agents
	px, py, ok := w.playerCentre()
	if !ok {
		if a.fleeTimer <= 0 {
			w.setState(a, StateWandering)
			return motion{speed: a.Speed, turn: t.TurnRateWander}
		}
		return motion{speed: a.FleeSpeed, turn: t.TurnRateFlee}
	}
	if Dist(a.CX(), a.CY(), px, py) > t.FleeExitMul*t.DetectionRange {
		w.setState(a, StateWandering)
		return motion{speed: a.Speed, turn: t.TurnRateWander}
	}
	a.TargetDirection = HeadingTo(px, py, a.CX(), a.CY())
	if a.Carrying() && w.rng.Float64() < t.FleeDropRate*dt {
		w.dropFromAgent(a)
	}
	return motion{speed: a.FleeSpeed, turn: t.TurnRateFlee}
}

func (w *World) steal(a *Agent, dt float64) motion {
	t := &w.tuning.Agents
	ti := tierIndex(a.Tier)
	b := w.building(a.stealTarget)
	if b == nil || a.Carrying() {
		w.setState(a, StateWandering)
		return motion{speed: a.Speed, turn: t.TurnRateWander}
	}
	if px, py, ok := w.playerCentre(); ok && Dist(a.CX(), a.CY(), px, py) < t.DetectionRange {
		if w.setState(a, StateFleeing) {
			return w.flee(a, dt)
		}
	}
	if !b.HasLoot() && !a.grabbing {
		a.stealCooldown = t.EmptyStashPause
		w.setState(a, StateWandering)
		return motion{speed: a.Speed, turn: t.TurnRateWander}
	}

	if NearRect(a.Box(), b.Rect, t.ReachDist) {
		a.grabbing = true
		a.grabTimer += dt
		if a.grabTimer >= t.GrabDelay[ti] {
			if w.takeFromBuilding(b, a) != NoLoot {
				a.stealCooldown = t.StealCooldown[ti]
				a.carryTimer = randRange(w.rng, t.CarryMin[ti], t.CarryMax[ti])
			} else {
				a.stealCooldown = t.EmptyStashPause
			}
			a.Raiding = false
			w.setState(a, StateWandering)
		}
		return motion{speed: 0, turn: t.TurnRateSteal}
	}

	a.TargetDirection = HeadingTo(a.CX(), a.CY(), b.Rect.CenterX(), b.Rect.CenterY())
	speed := a.Speed
	if a.Raiding {
		speed *= t.RaidSpeedMul
	}
	return motion{speed: speed, turn: t.TurnRateSteal}
}

func (w *World) chase(a *Agent, dt float64) motion {
	t := &w.tuning.Agents
	px, py, ok := w.playerCentre()
	if !ok {
		if a.Role != RoleBoss {
			a.Alerted = false
			a.Surrounding = false
		}
		w.setState(a, StateWandering)
		return motion{speed: a.Speed, turn: t.TurnRateWander}
	}
	d := Dist(a.CX(), a.CY(), px, py)
	if d > t.ChaseExitMul*t.DetectionRange && !a.Alerted && !a.Surrounding {
		if w.setState(a, StateWandering) {
			return motion{speed: a.Speed, turn: t.TurnRateWander}
		}
	}

	tx, ty := px, py
	if a.Surrounding {
		a.orbitAngle = normalizeAngle(a.orbitAngle + t.SurroundSpin*dt)
		a.orbitRadius = math.Max(t.SurroundMinR, a.orbitRadius-t.SurroundContract*dt)
		tx += math.Cos(a.orbitAngle) * a.orbitRadius
		ty += math.Sin(a.orbitAngle) * a.orbitRadius
	}
	a.TargetDirection = HeadingTo(a.CX(), a.CY(), tx, ty)
	speed := a.ChaseSpeed
	if Dist(a.CX(), a.CY(), tx, ty) < 8 {
		speed = 0
	}
	return motion{speed: speed, turn: t.TurnRateChase}
}

// patrol keeps a guard near its post until something sets it off.
func (w *World) patrol(a *Agent, dt float64) motion {
	t := &w.tuning.Agents
	d := Dist(a.CX(), a.CY(), a.postX, a.postY)
	if a.turnTimer <= 0 || d > t.GuardPatrolR*1.5 {
		a.turnTimer = randRange(w.rng, t.GuardTurnMin, t.GuardTurnMax)
		if d > t.GuardPatrolR {
			a.TargetDirection = HeadingTo(a.CX(), a.CY(), a.postX, a.postY) + (w.rng.Float64()-0.5)*0.3
		} else {
			a.TargetDirection = w.rng.Float64() * 2 * math.Pi
		}
	}
	w.avoidEdges(a)
	return motion{speed: a.Speed * t.GuardPatrolMul, turn: t.TurnRatePatrol}
}

// retreat sends a hurt boss home to heal. It does not fire while retreating.
func (w *World) retreat(a *Agent, dt float64) motion {
	bt := &w.tuning.Boss
	home := w.building(a.home)
	if home == nil {
		home = w.oppBlockBuilding()
	}
	if home == nil || NearRect(a.Box(), home.Rect, bt.HealRadius) {
		a.Health = math.Min(a.MaxHealth, a.Health+bt.HealRate*dt)
		if a.Health >= a.MaxHealth {
			w.setState(a, StateChasing)
		}
		return motion{speed: 0, turn: bt.TurnRateRetreat}
	}
	a.TargetDirection = HeadingTo(a.CX(), a.CY(), home.Rect.CenterX(), home.Rect.CenterY())
	return motion{speed: a.FleeSpeed, turn: bt.TurnRateRetreat}
}

// steer turns toward the target heading, moves with sliding, and repairs any
// building penetration.
func (w *World) steer(a *Agent, m motion, dt float64) {
	a.Direction = normalizeAngle(LerpAngle(a.Direction, a.TargetDirection, m.turn*dt))
	a.VX = math.Cos(a.Direction) * m.speed
	a.VY = math.Sin(a.Direction) * m.speed
	res := MoveWithSliding(a.Box(), a.VX, a.VY, dt, w.solids)
	a.X, a.Y = res.X, res.Y
	a.VX, a.VY = res.VX, res.VY
	if res.CompletelyStuck && a.State == StateWandering {
		side := math.Pi / 2
		if w.rng.Intn(2) == 0 {
			side = -side
		}
		a.TargetDirection = normalizeAngle(a.Direction + side + (w.rng.Float64()-0.5)*0.5)
		a.turnTimer = w.tuning.Agents.StuckReassess
	}
	w.ejectFromBuildings(a)
	w.clampAgent(a)
}

func (w *World) ejectFromBuildings(a *Agent) {
	buf := w.tuning.Agents.EjectBuffer
	for _, s := range w.solids {
		if x, y, ok := EjectFromRect(a.Box(), s, buf); ok {
			a.X, a.Y = x, y
			return
		}
	}
}

func (w *World) clampAgent(a *Agent) {
	a.X = clamp(a.X, 0, w.Width-a.W)
	a.Y = clamp(a.Y, 0, w.Height-a.H)
}

// Knockback shoves an agent along (dx,dy). While knocked back it ignores every
// other behaviour until the recovery time runs out.
func (w *World) Knockback(id AgentID, dx, dy, force float64) {
	a := w.agent(id)
	if a == nil || a.Dead {
		return
	}
	m := math.Hypot(dx, dy)
	if m == 0 {
		ang := w.rng.Float64() * 2 * math.Pi
		dx, dy, m = math.Cos(ang), math.Sin(ang), 1
	}
	if a.Role.Hostile() {
		w.stats.OppsRepelled++
	}
	a.KnockedBack = true
	a.knockbackTimer = w.tuning.Agents.KnockbackRecovery
	a.kbVX = dx / m * force
	a.kbVY = dy / m * force
	a.fleeCued = false
	a.grabbing = false
	a.grabTimer = 0
	w.trace(a, "combat", "knockback", "", force)
}

func (w *World) updateKnockback(a *Agent, dt float64) {
	a.knockbackTimer -= dt
	res := MoveWithSliding(a.Box(), a.kbVX, a.kbVY, dt, w.solids)
	a.X, a.Y = res.X, res.Y
	f := math.Pow(w.tuning.Agents.KnockbackFriction, dt*60)
	a.kbVX = res.VX * f
	a.kbVY = res.VY * f
	a.VX, a.VY = 0, 0
	w.clampAgent(a)
	if a.knockbackTimer > 1e-9 {
		return
	}
	a.KnockedBack = false
	a.knockbackTimer = 0
	a.kbVX, a.kbVY = 0, 0
	w.dropFromAgent(a)
	w.setState(a, groundedState(a))
}
