package sim

import "math"

// AutopilotMode selects a scripted player policy.
type AutopilotMode int

const (
	AutopilotIdle   AutopilotMode = iota // stands still
	AutopilotLooter                      // collects loot and stashes it
	AutopilotHunter                      // loots and shoots anything close
)

func (m AutopilotMode) String() string {
	switch m {
	case AutopilotIdle:
		return "idle"
	case AutopilotLooter:
		return "looter"
	case AutopilotHunter:
		return "hunter"
	}
	return "?"
}

// ParseAutopilotMode maps a name to a mode. Unknown names yield looter.
func ParseAutopilotMode(s string) AutopilotMode {
	switch s {
	case "idle":
		return AutopilotIdle
	case "hunter":
		return AutopilotHunter
	}
	return AutopilotLooter
}

// Autopilot produces Input for headless runs.
type Autopilot struct {
	Mode AutopilotMode

	lastX, lastY float64
	stuckTicks   int
	detour       int
	detourX      float64
	detourY      float64
	nextUpgrade  int
}

// NewAutopilot returns an autopilot in mode.
func NewAutopilot(mode AutopilotMode) *Autopilot {
	return &Autopilot{Mode: mode}
}

// Next decides this tick's input.
func (ap *Autopilot) Next(w *World) Input {
	p := w.player
	if ap.Mode == AutopilotIdle || p == nil || p.Dead {
		return Input{}
	}
	tx, ty, ok := ap.goal(w, p)
	var in Input
	if ok {
		in.MoveX, in.MoveY = unit(tx-p.CX(), ty-p.CY())
	}

	// Slide off corners: if we have not moved, strafe for a while.
	if math.Hypot(p.X-ap.lastX, p.Y-ap.lastY) < 0.01 && ok {
		ap.stuckTicks++
	} else {
		ap.stuckTicks = 0
	}
	ap.lastX, ap.lastY = p.X, p.Y
	if ap.stuckTicks > 10 {
		ap.stuckTicks = 0
		ap.detour = 40
		ap.detourX, ap.detourY = -in.MoveY, in.MoveX
	}
	if ap.detour > 0 {
		ap.detour--
		in.MoveX, in.MoveY = ap.detourX, ap.detourY
	}

	if ap.Mode == AutopilotHunter {
		if a := nearestHostile(w, p.CX(), p.CY(), 200); a != nil {
			// Face the target for a tick and fire.
			in.MoveX, in.MoveY = unit(a.CX()-p.CX(), a.CY()-p.CY())
			in.Shoot = true
		}
	}
	return in
}

// goal picks where the player should head: home when full, else the nearest
// floor item, else the nearest stocked traphouse.
func (ap *Autopilot) goal(w *World, p *Player) (float64, float64, bool) {
	sh := w.safeHouse()
	if sh != nil && (len(p.carried) >= p.CarrySlots || (len(p.carried) > 0 && w.unsecuredLoot() == len(p.carried))) {
		return sh.Rect.CenterX(), sh.Rect.Y + sh.Rect.H + p.H/2, true
	}
	best := math.Inf(1)
	var gx, gy float64
	found := false
	size := w.tuning.Loot.Size
	for _, it := range w.loot {
		if it.State != LootOnFloor {
			continue
		}
		if d := Dist(p.CX(), p.CY(), it.X+size/2, it.Y+size/2); d < best {
			best, gx, gy, found = d, it.X+size/2, it.Y+size/2, true
		}
	}
	if found {
		return gx, gy, true
	}
	for _, b := range w.buildings {
		if b.Kind != KindTraphouse || b.OppBlock || !b.HasLoot() {
			continue
		}
		x, y := b.Rect.CenterX(), b.Rect.Y+b.Rect.H+p.H/2
		if d := Dist(p.CX(), p.CY(), x, y); d < best {
			best, gx, gy, found = d, x, y, true
		}
	}
	if !found && len(p.carried) > 0 && sh != nil {
		return sh.Rect.CenterX(), sh.Rect.Y + sh.Rect.H + p.H/2, true
	}
	return gx, gy, found
}

// HandleEvents takes offered upgrades in rotation.
func (ap *Autopilot) HandleEvents(w *World, evs []Event) {
	if ap.Mode == AutopilotIdle {
		return
	}
	for _, e := range evs {
		if e.Kind != EventUpgradeOffered {
			continue
		}
		id := Upgrades[ap.nextUpgrade%len(Upgrades)].ID
		ap.nextUpgrade++
		_ = w.ApplyUpgrade(id)
	}
}

func nearestHostile(w *World, x, y, r float64) *Agent {
	var best *Agent
	bestD := r
	for _, a := range w.agents {
		if a.Dead || !a.Role.Hostile() {
			continue
		}
		if d := Dist(x, y, a.CX(), a.CY()); d <= bestD {
			best, bestD = a, d
		}
	}
	return best
}
