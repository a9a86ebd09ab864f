package sim

import "testing"

func TestSelectTarget_Nearest(t *testing.T) {
	ally := Allocatee{ID: 1, X: 0, Y: 0}
	hs := []Hostile{{ID: 10, X: 300, Y: 0}, {ID: 11, X: 100, Y: 0}}
	if got := SelectTarget(ally, hs, nil, 150); got != 11 {
		t.Fatalf("expected nearest 11, got %d", got)
	}
}

func TestSelectTarget_PenaltySpreadsFire(t *testing.T) {
	ally := Allocatee{ID: 1, X: 0, Y: 0}
	hs := []Hostile{{ID: 10, X: 100, Y: 0}, {ID: 11, X: 200, Y: 0}}
	assign := map[AgentID]AgentID{2: 10}
	// 10 scores 100+150, 11 scores 200.
	if got := SelectTarget(ally, hs, assign, 150); got != 11 {
		t.Fatalf("expected penalised target to lose, got %d", got)
	}
	if got := SelectTarget(ally, hs, assign, 50); got != 10 {
		t.Fatalf("small penalty should keep nearest, got %d", got)
	}
}

func TestSelectTarget_IgnoresOwnAssignment(t *testing.T) {
	ally := Allocatee{ID: 1, X: 0, Y: 0}
	hs := []Hostile{{ID: 10, X: 100, Y: 0}, {ID: 11, X: 200, Y: 0}}
	assign := map[AgentID]AgentID{1: 10}
	if got := SelectTarget(ally, hs, assign, 150); got != 10 {
		t.Fatalf("own assignment should not count, got %d", got)
	}
}

func TestSelectTarget_TieGoesToEarlier(t *testing.T) {
	ally := Allocatee{ID: 1, X: 0, Y: 0}
	hs := []Hostile{{ID: 20, X: 0, Y: 50}, {ID: 21, X: 50, Y: 0}}
	if got := SelectTarget(ally, hs, nil, 0); got != 20 {
		t.Fatalf("tie should go to earlier candidate, got %d", got)
	}
}

func TestSelectTarget_NoCandidates(t *testing.T) {
	if got := SelectTarget(Allocatee{ID: 1}, nil, nil, 150); got != NoAgent {
		t.Fatalf("expected NoAgent, got %d", got)
	}
}
