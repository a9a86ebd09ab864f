package sim

// Allocatee is the ally asking for a target.
type Allocatee struct {
	ID   AgentID
	X, Y float64
}

// Hostile is a candidate target.
type Hostile struct {
	ID   AgentID
	X, Y float64
}

// SelectTarget picks the hostile minimising distance plus penalty times the
// number of other allies already on it. assignments maps ally to current
// target; the asking ally's own entry is ignored. Ties go to the earlier
// candidate. It returns NoAgent when there are no candidates.
//
// Each ally runs this on its own every few seconds. The result spreads fire
// but is not a global assignment.
func SelectTarget(ally Allocatee, hostiles []Hostile, assignments map[AgentID]AgentID, penalty float64) AgentID {
	load := make(map[AgentID]int, len(hostiles))
	for who, tgt := range assignments {
		if who == ally.ID {
			continue
		}
		load[tgt]++
	}
	best := NoAgent
	bestScore := 0.0
	for _, h := range hostiles {
		score := Dist(ally.X, ally.Y, h.X, h.Y) + penalty*float64(load[h.ID])
		if best == NoAgent || score < bestScore {
			best, bestScore = h.ID, score
		}
	}
	return best
}
