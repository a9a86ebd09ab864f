package game

import (
	"math"
	"strings"
	"testing"

	"github.com/Garsondee/opp-block/internal/sim"
)

func TestCameraRoundTrip(t *testing.T) {
	t.Log("=== TestCameraRoundTrip ===")
	c := Camera{X: 500, Y: 400, Zoom: 2, ViewW: 1280, ViewH: 860}
	sx, sy := c.WorldToScreen(500, 400)
	if sx != 640 || sy != 430 {
		t.Fatalf("centre should map to viewport centre, got (%.1f,%.1f)", sx, sy)
	}
	wx, wy := c.ScreenToWorld(100, 50)
	bx, by := c.WorldToScreen(wx, wy)
	if math.Abs(bx-100) > 1e-9 || math.Abs(by-50) > 1e-9 {
		t.Errorf("round trip drifted: (%.3f,%.3f)", bx, by)
	}
}

func TestCameraClampsToWorld(t *testing.T) {
	t.Log("=== TestCameraClampsToWorld ===")
	c := Camera{Zoom: 1, ViewW: 800, ViewH: 600}
	c.Follow(-1000, -1000, 1, 2000, 1500)
	if c.X != 400 || c.Y != 300 {
		t.Errorf("expected clamp to (400,300), got (%.1f,%.1f)", c.X, c.Y)
	}
	c.Follow(5000, 5000, 1, 2000, 1500)
	if c.X != 1600 || c.Y != 1200 {
		t.Errorf("expected clamp to (1600,1200), got (%.1f,%.1f)", c.X, c.Y)
	}

	// A world narrower than the view is centred.
	c.SetZoom(0.4)
	c.Follow(0, 0, 1, 300, 200)
	if c.X != 150 || c.Y != 100 {
		t.Errorf("small world should centre, got (%.1f,%.1f)", c.X, c.Y)
	}
}

func TestCameraZoomLimits(t *testing.T) {
	c := Camera{Zoom: 1}
	c.SetZoom(100)
	if c.Zoom != zoomMax {
		t.Errorf("zoom = %.2f, want %.2f", c.Zoom, zoomMax)
	}
	c.SetZoom(0.01)
	if c.Zoom != zoomMin {
		t.Errorf("zoom = %.2f, want %.2f", c.Zoom, zoomMin)
	}
}

func TestViewportCulling(t *testing.T) {
	c := Camera{X: 500, Y: 500, Zoom: 1, ViewW: 400, ViewH: 400}
	cases := []struct {
		r    sim.Rect
		want bool
	}{
		{sim.Rect{X: 490, Y: 490, W: 20, H: 20}, true},
		{sim.Rect{X: 690, Y: 500, W: 20, H: 20}, true},
		{sim.Rect{X: 720, Y: 500, W: 20, H: 20}, false},
		{sim.Rect{X: 100, Y: 100, W: 50, H: 50}, false},
	}
	for i, tc := range cases {
		if got := c.isInViewport(tc.r, 0); got != tc.want {
			t.Errorf("case %d %+v: got %v, want %v", i, tc.r, got, tc.want)
		}
	}
	if !c.isInViewport(sim.Rect{X: 720, Y: 500, W: 20, H: 20}, 30) {
		t.Error("margin should pull a near-miss into view")
	}
}

func TestEventLogRingOrder(t *testing.T) {
	t.Log("=== TestEventLogRingOrder ===")
	el := NewEventLog()
	for i := 0; i < logMaxEntries+5; i++ {
		el.Add(i, sim.Event{Kind: sim.EventLootPickedUp, Loot: sim.LootID(i)})
	}
	if el.Len() != logMaxEntries {
		t.Fatalf("len = %d, want %d", el.Len(), logMaxEntries)
	}
	got := el.Recent()
	if got[0].Tick != 5 || got[len(got)-1].Tick != logMaxEntries+4 {
		t.Errorf("expected ticks 5..%d, got %d..%d", logMaxEntries+4, got[0].Tick, got[len(got)-1].Tick)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Tick <= got[i-1].Tick {
			t.Fatalf("entries out of order at %d", i)
		}
	}
}

func TestEventLogSkipsFleeCues(t *testing.T) {
	el := NewEventLog()
	el.Add(1, sim.Event{Kind: sim.EventFleeCue})
	el.Add(2, sim.Event{Kind: sim.EventEscalationTriggered, Value: 61})
	el.Note(3, "copied world summary")
	got := el.Recent()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !strings.Contains(got[0].Message, "61") {
		t.Errorf("escalation message should carry the heat: %q", got[0].Message)
	}
	if !got[1].Note {
		t.Error("host note should be flagged")
	}
}

func TestDescribeEventCoversKinds(t *testing.T) {
	kinds := []sim.EventKind{
		sim.EventPopulationCapIncreased, sim.EventEscalationTriggered, sim.EventBossSpawned,
		sim.EventBossDefeated, sim.EventLevelExpanded, sim.EventLootPickedUp, sim.EventLootStashed,
		sim.EventAgentDied, sim.EventPlayerDied, sim.EventUpgradeOffered, sim.EventGameWon,
	}
	for _, k := range kinds {
		if msg := describeEvent(sim.Event{Kind: k}); msg == "" || msg == k.String() {
			t.Errorf("%s has no panel text", k)
		}
	}
}

func TestAgentReport(t *testing.T) {
	t.Log("=== TestAgentReport ===")
	ts := sim.NewTestSim(
		sim.WithQuietStreets(),
		sim.WithoutPlayer(),
		sim.WithOpp("o1", 600, 260, 2, true),
	)
	a := ts.Agent("o1")
	if a == nil {
		t.Fatal("opp missing")
	}
	lines := agentReport(a)
	for _, l := range lines {
		t.Log(l)
	}
	if !strings.Contains(lines[0], "OPP o1") {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.Contains(lines[1], "tier: 2") {
		t.Errorf("state line = %q", lines[1])
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "chaser") {
		t.Errorf("chaser flag missing:\n%s", joined)
	}
}

func TestHUDLines(t *testing.T) {
	s := sim.NewWorld(sim.DefaultTuning(), 1).Snapshot()
	s.Elapsed = 125
	lines := hudLines(s, 2, 1)
	if !strings.HasPrefix(lines[0], "T 02:05  level 1  sim 2.0x") {
		t.Errorf("status line = %q", lines[0])
	}
	found := false
	for _, l := range lines {
		if strings.Contains(l, "1 upgrade(s) waiting") {
			found = true
		}
	}
	if !found {
		t.Error("pending upgrade not shown")
	}
	s.Paused = true
	if l := hudLines(s, 1, 0)[0]; !strings.Contains(l, "PAUSED") {
		t.Errorf("paused line = %q", l)
	}
}
