package sim

// Stats are the session counters shown by the HUD and recorded per run.
type Stats struct {
	LootCollected int `json:"loot_collected"`
	LootStashed   int `json:"loot_stashed"`
	BodiesDropped int `json:"bodies_dropped"`
	OppsRepelled  int `json:"opps_repelled"`
	BossKills     int `json:"boss_kills"`
	AlliesCalled  int `json:"allies_called"`
	UpgradesTaken int `json:"upgrades_taken"`
	XP            int `json:"xp"`
	PlayerLevel   int `json:"player_level"`
	XPToNext      int `json:"xp_to_next"`
}

// Stats returns the counters.
func (w *World) Stats() Stats { return w.stats }

// AgentView is a read-only copy of an agent.
type AgentView struct {
	ID          AgentID `json:"id"`
	Label       string  `json:"label"`
	Role        string  `json:"role"`
	State       string  `json:"state"`
	Tier        int     `json:"tier"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
	Direction   float64 `json:"dir"`
	Health      float64 `json:"hp"`
	MaxHealth   float64 `json:"max_hp"`
	Carrying    bool    `json:"carrying"`
	KnockedBack bool    `json:"knocked_back"`
	Surrounding bool    `json:"surrounding"`
	Alerted     bool    `json:"alerted"`
	Target      AgentID `json:"target"`
}

// LootView is a read-only copy of a loot item.
type LootView struct {
	ID       LootID     `json:"id"`
	State    string     `json:"state"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Holder   HolderKind `json:"holder"`
	Agent    AgentID    `json:"agent"`
	Building BuildingID `json:"building"`
}

// BuildingView is a read-only copy of a building.
type BuildingView struct {
	ID       BuildingID `json:"id"`
	Kind     string     `json:"kind"`
	Rect     Rect       `json:"rect"`
	OppBlock bool       `json:"opp_block"`
	Loot     int        `json:"loot"`
	Capacity int        `json:"capacity"`
}

// PlayerView is a read-only copy of the player.
type PlayerView struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
	Health    float64 `json:"hp"`
	MaxHealth float64 `json:"max_hp"`
	Carried   int     `json:"carried"`
	Slots     int     `json:"slots"`
	Dead      bool    `json:"dead"`
}

// ProjectileView is a read-only copy of a projectile.
type ProjectileView struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Friendly bool    `json:"friendly"`
}

// WorldSnapshot is everything a renderer or observer needs for one frame.
type WorldSnapshot struct {
	Tick          int              `json:"tick"`
	Elapsed       float64          `json:"elapsed"`
	Level         int              `json:"level"`
	Width         float64          `json:"width"`
	Height        float64          `json:"height"`
	Paused        bool             `json:"paused"`
	Outcome       Outcome          `json:"outcome"`
	Heat          float64          `json:"heat"`
	Population    int              `json:"population"`
	MaxPopulation int              `json:"max_population"`
	BulkQueued    int              `json:"bulk_queued"`
	Stats         Stats            `json:"stats"`
	Player        *PlayerView      `json:"player,omitempty"`
	Agents        []AgentView      `json:"agents"`
	Loot          []LootView       `json:"loot"`
	Buildings     []BuildingView   `json:"buildings"`
	Projectiles   []ProjectileView `json:"projectiles"`
}

// Snapshot copies the world's observable state.
func (w *World) Snapshot() WorldSnapshot {
	s := WorldSnapshot{
		Tick:          w.Tick,
		Elapsed:       w.Elapsed,
		Level:         w.Level,
		Width:         w.Width,
		Height:        w.Height,
		Paused:        w.Paused,
		Outcome:       w.Outcome,
		Heat:          w.econ.Heat,
		Population:    w.Population(),
		MaxPopulation: w.econ.MaxPopulation,
		BulkQueued:    w.econ.Bulk.Count,
		Stats:         w.stats,
		Agents:        make([]AgentView, 0, len(w.agents)),
		Loot:          make([]LootView, 0, len(w.loot)),
		Buildings:     make([]BuildingView, 0, len(w.buildings)),
		Projectiles:   make([]ProjectileView, 0, len(w.projectiles)),
	}
	if p := w.player; p != nil {
		s.Player = &PlayerView{
			X: p.X, Y: p.Y, W: p.W, H: p.H,
			Health: p.Health, MaxHealth: p.MaxHealth,
			Carried: len(p.carried), Slots: p.CarrySlots, Dead: p.Dead,
		}
	}
	for _, a := range w.agents {
		if a.Dead {
			continue
		}
		s.Agents = append(s.Agents, AgentView{
			ID: a.ID, Label: a.Label, Role: a.Role.String(), State: a.State.String(), Tier: a.Tier,
			X: a.X, Y: a.Y, W: a.W, H: a.H, Direction: a.Direction,
			Health: a.Health, MaxHealth: a.MaxHealth, Carrying: a.Carrying(),
			KnockedBack: a.KnockedBack, Surrounding: a.Surrounding, Alerted: a.Alerted, Target: a.Target,
		})
	}
	for _, it := range w.loot {
		s.Loot = append(s.Loot, LootView{
			ID: it.ID, State: it.State.String(), X: it.X, Y: it.Y,
			Holder: it.Holder.Kind, Agent: it.Holder.Agent, Building: it.Building,
		})
	}
	for _, b := range w.buildings {
		s.Buildings = append(s.Buildings, BuildingView{
			ID: b.ID, Kind: b.Kind.String(), Rect: b.Rect, OppBlock: b.OppBlock,
			Loot: b.LootCount(), Capacity: b.Capacity(),
		})
	}
	for _, pr := range w.projectiles {
		s.Projectiles = append(s.Projectiles, ProjectileView{X: pr.X, Y: pr.Y, Friendly: pr.Faction == FactionFriendly})
	}
	return s
}
