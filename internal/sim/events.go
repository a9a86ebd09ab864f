package sim

// EventKind names a notification emitted to presentation layers.
type EventKind int

const (
	EventPopulationCapIncreased EventKind = iota
	EventEscalationTriggered
	EventBossSpawned
	EventBossDefeated
	EventLevelExpanded
	EventLootPickedUp
	EventLootStashed
	EventAgentDied
	EventPlayerDied
	EventFleeCue
	EventUpgradeOffered
	EventGameWon
)

var eventNames = [...]string{
	EventPopulationCapIncreased: "population-cap-increased",
	EventEscalationTriggered:    "escalation-triggered",
	EventBossSpawned:            "boss-spawned",
	EventBossDefeated:           "boss-defeated",
	EventLevelExpanded:          "level-expanded",
	EventLootPickedUp:           "loot-picked-up",
	EventLootStashed:            "loot-stashed",
	EventAgentDied:              "agent-died",
	EventPlayerDied:             "player-died",
	EventFleeCue:                "flee-cue",
	EventUpgradeOffered:         "upgrade-offered",
	EventGameWon:                "game-won",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// MarshalText lets events serialize by name.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is a fire-and-forget notification. Fields other than Kind and Time are
// filled when they apply to the kind.
type Event struct {
	Kind  EventKind `json:"kind"`
	Time  float64   `json:"time"`
	Agent AgentID   `json:"agent"`
	Loot  LootID    `json:"loot"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Value float64   `json:"value"`
}

// eventQueue buffers events produced during ticks until the host drains them.
type eventQueue struct {
	pending []Event
}

func (q *eventQueue) push(e Event) {
	q.pending = append(q.pending, e)
}

func (q *eventQueue) drain() []Event {
	out := q.pending
	q.pending = nil
	return out
}
