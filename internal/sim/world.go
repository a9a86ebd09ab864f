package sim

import (
	"log/slog"
	"math/rand"
)

// Labels for delayed actions.
const (
	delayedBurst        = "burst"
	delayedGuardRespawn = "guard-respawn"
	delayedLevelExpand  = "level-expand"
)

// World owns every entity and advances them in a fixed order. It is not safe
// for concurrent use; hosts call Update from one goroutine.
type World struct {
	tuning Tuning
	rng    *rand.Rand
	log    *slog.Logger
	simLog *SimLog

	Width   float64
	Height  float64
	Level   int
	Tick    int
	Elapsed float64
	Paused  bool
	Outcome Outcome

	buildings []*Building
	solids    []Rect
	safeID    BuildingID
	oppID     BuildingID

	loot        []*LootItem
	agents      []*Agent
	byID        map[AgentID]*Agent
	nextAgent   AgentID
	player      *Player
	projectiles []*Projectile

	econ    *ThreatEconomy
	delayed DelayedQueue
	events  eventQueue

	spawnPoints [][2]float64
	waypoints   [][2]float64

	stats          Stats
	startupGrace   float64
	pickupCooldown float64
	validateTimer  float64
	pendingExpand  bool
}

// Option configures a World.
type Option func(*World)

// WithLogger routes warnings and milestones to l.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithSimLog records state changes and events into sl.
func WithSimLog(sl *SimLog) Option {
	return func(w *World) { w.simLog = sl }
}

// NewWorld lays out the first level and populates it.
func NewWorld(t Tuning, seed int64, opts ...Option) *World {
	t.Sanitize()
	w := &World{
		tuning:        t,
		rng:           rand.New(rand.NewSource(seed)), // #nosec G404 -- gameplay randomness
		log:           slog.New(slog.DiscardHandler),
		Width:         t.World.Width,
		Height:        t.World.Height,
		Level:         1,
		byID:          make(map[AgentID]*Agent),
		safeID:        NoBuilding,
		oppID:         NoBuilding,
		econ:          NewThreatEconomy(t.Economy),
		stats:         Stats{PlayerLevel: 1},
		startupGrace:  t.Player.StartupGrace,
		validateTimer: t.World.ValidateEvery,
	}
	for _, o := range opts {
		o(w)
	}
	w.stats.XPToNext = w.xpToNext(1)
	w.generateLayout()
	return w
}

// Tuning returns the sanitized tuning in use.
func (w *World) Tuning() Tuning { return w.tuning }

// Economy exposes the threat economy.
func (w *World) Economy() *ThreatEconomy { return w.econ }

// Player returns the player, or nil when the world has none.
func (w *World) Player() *Player { return w.player }

// Agents returns the live roster. Callers must not mutate it.
func (w *World) Agents() []*Agent { return w.agents }

// Buildings returns every building.
func (w *World) Buildings() []*Building { return w.buildings }

// Loot returns every loot item.
func (w *World) Loot() []*LootItem { return w.loot }

// Projectiles returns the active projectiles.
func (w *World) Projectiles() []*Projectile { return w.projectiles }

// Delayed exposes the delayed-action queue for inspection.
func (w *World) Delayed() *DelayedQueue { return &w.delayed }

// Agent looks up a roster entry by handle.
func (w *World) Agent(id AgentID) *Agent { return w.agent(id) }

// ElapsedMinutes returns session time in minutes.
func (w *World) ElapsedMinutes() float64 { return w.Elapsed / 60 }

// DrainEvents returns and clears the events emitted since the last drain.
func (w *World) DrainEvents() []Event { return w.events.drain() }

// Update advances the world by dt seconds. It is a no-op once the session is
// decided or while paused.
func (w *World) Update(dt float64, in Input) {
	if w.Outcome != OutcomeRunning {
		return
	}
	if in.PauseRequested {
		w.Paused = !w.Paused
	}
	if w.Paused || dt <= 0 {
		return
	}
	w.Tick++
	w.Elapsed += dt
	if w.Elapsed >= w.tuning.World.TargetMinutes*60 {
		w.emit(Event{Kind: EventGameWon, Agent: NoAgent, Loot: NoLoot})
		w.finish(OutcomeWon)
		return
	}
	if w.startupGrace > 0 {
		w.startupGrace -= dt
	}
	if w.pickupCooldown > 0 {
		w.pickupCooldown -= dt
	}
	minutes := w.ElapsedMinutes()

	// 1. HEAT: integrate the heat law and raise the cap.
	dampening := 0.0
	if w.player != nil {
		dampening = w.player.Dampening
	}
	w.econ.UpdateHeat(w.unsecuredLoot(), minutes, dampening, dt)
	if w.econ.RefreshCap(minutes) {
		w.emit(Event{Kind: EventPopulationCapIncreased, Agent: NoAgent, Loot: NoLoot, Value: float64(w.econ.MaxPopulation)})
	}

	// 2. THRESHOLDS: escalation latch.
	if w.econ.CheckEscalation() {
		w.escalate()
	}

	// 3. PLAYER: movement and shooting.
	w.updatePlayer(in, dt)

	// 4. BUILDINGS: collision boxes follow layout changes.
	w.rebuildSolids()

	// 5. LOOT: scatter velocity on the floor.
	w.updateFloorLoot(dt)

	// 6. AGENTS: every non-ally behaviour. Deaths are purged in 11.
	for i := 0; i < len(w.agents); i++ {
		if a := w.agents[i]; a.Role != RoleAlly {
			w.updateAgent(a, dt)
		}
	}

	// 7. SPAWN: delayed actions, timed spawner, bulk queue.
	w.runDelayed(dt)
	w.runSpawners(dt)

	// 8. LOOT EXCHANGE: stash, pickup, snatch.
	w.resolveLootExchange()

	// 9. PROJECTILES: flight and hits.
	w.updateProjectiles(dt)

	// 10. ALLIES.
	for i := 0; i < len(w.agents); i++ {
		if a := w.agents[i]; a.Role == RoleAlly {
			w.updateAlly(a, dt)
		}
	}

	// 11. PURGE: drop the dead from the roster.
	w.purgeDead()

	w.validateTimer -= dt
	if w.validateTimer <= 0 {
		w.validateTimer = w.tuning.World.ValidateEvery
		w.ValidateLoot()
	}
}

func (w *World) runDelayed(dt float64) {
	for _, act := range w.delayed.advance(dt) {
		if act.owner != NoAgent {
			if o := w.agent(act.owner); o == nil || o.Dead {
				continue
			}
		}
		act.run(w)
	}
}

// purgeDead removes dead agents. A dead boss triggers the level progression.
func (w *World) purgeDead() {
	live := w.agents[:0]
	for _, a := range w.agents {
		if !a.Dead {
			live = append(live, a)
			continue
		}
		if a.Carrying() {
			w.dropFromAgent(a)
		}
		delete(w.byID, a.ID)
		if a.Role == RoleBoss && a.ID == w.econ.Boss {
			w.econ.Boss = NoAgent
			w.stats.BossKills++
			w.emit(Event{Kind: EventBossDefeated, Agent: a.ID, Loot: NoLoot, X: a.CX(), Y: a.CY()})
			w.log.Info("boss defeated", "level", w.Level, "t", w.Elapsed)
			if !w.pendingExpand {
				w.pendingExpand = true
				w.delayed.Schedule(w.tuning.World.LevelExpandDelay, NoAgent, delayedLevelExpand, (*World).expandLevel)
			}
		}
	}
	for i := len(live); i < len(w.agents); i++ {
		w.agents[i] = nil
	}
	w.agents = live
}

func (w *World) addAgent(a *Agent) *Agent {
	w.agents = append(w.agents, a)
	w.byID[a.ID] = a
	w.trace(a, "spawn", a.Role.String(), a.State.String(), float64(a.Tier))
	return a
}

func (w *World) newID() AgentID {
	id := w.nextAgent
	w.nextAgent++
	return id
}

func (w *World) agent(id AgentID) *Agent {
	if id == NoAgent {
		return nil
	}
	return w.byID[id]
}

func (w *World) building(id BuildingID) *Building {
	if id < 0 || int(id) >= len(w.buildings) {
		return nil
	}
	return w.buildings[id]
}

func (w *World) safeHouse() *Building { return w.building(w.safeID) }

func (w *World) oppBlockBuilding() *Building { return w.building(w.oppID) }

// SafeHouse returns the player's stash, or nil.
func (w *World) SafeHouse() *Building { return w.safeHouse() }

// OppBlock returns the current Opp Block, or nil.
func (w *World) OppBlock() *Building { return w.oppBlockBuilding() }

// playerCentre returns the live player's centre.
func (w *World) playerCentre() (float64, float64, bool) {
	if w.player == nil || w.player.Dead {
		return 0, 0, false
	}
	return w.player.CX(), w.player.CY(), true
}

func (w *World) nearestFreeTraphouse(x, y float64) *Building {
	var best *Building
	bestD := 0.0
	for _, b := range w.buildings {
		if b.Kind != KindTraphouse || !b.HasEmptySlots() {
			continue
		}
		d := Dist(x, y, b.Rect.CenterX(), b.Rect.CenterY())
		if best == nil || d < bestD {
			best, bestD = b, d
		}
	}
	return best
}

func (w *World) rebuildSolids() {
	if len(w.solids) == len(w.buildings) {
		return
	}
	w.solids = w.solids[:0]
	for _, b := range w.buildings {
		w.solids = append(w.solids, b.Solid())
	}
}

// Population counts live street opps. Guards, allies and the boss are
// outside the cap.
func (w *World) Population() int {
	n := 0
	for _, a := range w.agents {
		if !a.Dead && a.Role == RoleOpp {
			n++
		}
	}
	return n
}

func (w *World) countRole(r Role) int {
	n := 0
	for _, a := range w.agents {
		if !a.Dead && a.Role == r {
			n++
		}
	}
	return n
}

func (w *World) bossAlive() bool {
	b := w.agent(w.econ.Boss)
	return b != nil && !b.Dead
}

func (w *World) emit(e Event) {
	e.Time = w.Elapsed
	w.events.push(e)
	if w.simLog != nil {
		w.simLog.Add(w.Tick, "--", "event", e.Kind.String(), "", e.Value)
	}
}

func (w *World) trace(a *Agent, category, key, value string, num float64) {
	if w.simLog == nil {
		return
	}
	w.simLog.Add(w.Tick, a.Label, category, key, value, num)
}

func (w *World) finish(o Outcome) {
	if w.Outcome != OutcomeRunning {
		return
	}
	w.Outcome = o
	w.log.Info("session decided", "outcome", o.String(), "t", w.Elapsed, "level", w.Level)
}
