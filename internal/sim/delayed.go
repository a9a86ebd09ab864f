package sim

// delayedAction is a countdown polled once per tick. owner, when set, must still
// be alive at fire time or the action is dropped.
type delayedAction struct {
	remaining float64
	owner     AgentID
	label     string
	run       func(w *World)
}

// DelayedQueue holds burst sub-shots, guard respawns and level expansion.
// Nothing here runs outside the tick.
type DelayedQueue struct {
	items []delayedAction
}

// Schedule queues run to fire after delay seconds.
func (q *DelayedQueue) Schedule(delay float64, owner AgentID, label string, run func(w *World)) {
	q.items = append(q.items, delayedAction{remaining: delay, owner: owner, label: label, run: run})
}

// Len returns the number of pending actions.
func (q *DelayedQueue) Len() int { return len(q.items) }

// Pending counts queued actions with the given label.
func (q *DelayedQueue) Pending(label string) int {
	n := 0
	for _, it := range q.items {
		if it.label == label {
			n++
		}
	}
	return n
}

// advance decrements every countdown and returns the due actions in schedule
// order. Due actions are removed before any of them run, so an action may
// schedule new ones safely.
func (q *DelayedQueue) advance(dt float64) []delayedAction {
	var due []delayedAction
	keep := q.items[:0]
	for _, it := range q.items {
		it.remaining -= dt
		if it.remaining <= 1e-9 {
			due = append(due, it)
			continue
		}
		keep = append(keep, it)
	}
	q.items = keep
	return due
}

func (q *DelayedQueue) clear() { q.items = nil }
