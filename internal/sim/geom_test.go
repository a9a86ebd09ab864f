package sim

import (
	"math"
	"testing"
)

func TestRect_TouchingEdgesDoNotOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 10, Y: 0, W: 10, H: 10}
	if a.Overlaps(b) {
		t.Fatal("rects sharing an edge should not overlap")
	}
	if !a.Overlaps(b.At(9.5, 0)) {
		t.Fatal("rects sharing interior area should overlap")
	}
}

func TestNearRect_MeasuresFromEdges(t *testing.T) {
	body := Rect{X: 0, Y: 0, W: 10, H: 10}
	target := Rect{X: 30, Y: 0, W: 100, H: 100}
	if NearRect(body, target, 19) {
		t.Fatal("20px gap should not be near at 19px")
	}
	if !NearRect(body, target, 21) {
		t.Fatal("20px gap should be near at 21px")
	}
}

func TestMoveWithSliding_SlidesAlongWall(t *testing.T) {
	body := Rect{X: 0, Y: 0, W: 10, H: 10}
	wall := Rect{X: 20, Y: -100, W: 10, H: 300}

	res := MoveWithSliding(body, 100, 50, 0.2, []Rect{wall})
	if !res.BlockedX || res.BlockedY {
		t.Fatalf("expected X blocked only, got blockedX=%v blockedY=%v", res.BlockedX, res.BlockedY)
	}
	if res.X != 0 || math.Abs(res.Y-10) > 1e-9 {
		t.Fatalf("expected (0,10), got (%.2f,%.2f)", res.X, res.Y)
	}
	if res.VX != 0 || res.VY != 50 {
		t.Fatalf("blocked axis should zero velocity, got (%.1f,%.1f)", res.VX, res.VY)
	}
	if res.CompletelyStuck {
		t.Fatal("sliding body should not be completely stuck")
	}
}

func TestMoveWithSliding_CornerIsStuck(t *testing.T) {
	body := Rect{X: 0, Y: 0, W: 10, H: 10}
	walls := []Rect{
		{X: 10, Y: -50, W: 10, H: 100},
		{X: -50, Y: 10, W: 100, H: 10},
	}
	res := MoveWithSliding(body, 50, 50, 0.1, walls)
	if !res.CompletelyStuck {
		t.Fatalf("expected stuck in corner, got %+v", res)
	}
}

func TestMoveWithSliding_IgnoresFarSolids(t *testing.T) {
	body := Rect{X: 0, Y: 0, W: 10, H: 10}
	far := Rect{X: 500, Y: 500, W: 10, H: 10}
	res := MoveWithSliding(body, 10, 0, 1, []Rect{far})
	if res.X != 10 {
		t.Fatalf("expected free move to x=10, got %.2f", res.X)
	}
}

func TestEjectFromRect_NearestEdge(t *testing.T) {
	target := Rect{X: 0, Y: 0, W: 100, H: 100}
	body := Rect{X: 5, Y: 40, W: 10, H: 10} // centre (10,45), left edge closest
	x, y, ok := EjectFromRect(body, target, 2)
	if !ok {
		t.Fatal("centre inside target should eject")
	}
	if x != -12 || y != 40 {
		t.Fatalf("expected (-12,40), got (%.1f,%.1f)", x, y)
	}

	outside := Rect{X: 200, Y: 200, W: 10, H: 10}
	if _, _, ok := EjectFromRect(outside, target, 2); ok {
		t.Fatal("body outside target should not eject")
	}
}

func TestLerpAngle_ShortestArc(t *testing.T) {
	// 3.0 -> -3.0 crosses pi, not zero.
	got := normalizeAngle(LerpAngle(3.0, -3.0, 0.5))
	if math.Abs(got) < 3.0 {
		t.Fatalf("expected heading near pi, got %.3f", got)
	}
}

func TestLerpAngle_CapsAtTarget(t *testing.T) {
	got := LerpAngle(0, 1, 5)
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("t>1 should land on target, got %.4f", got)
	}
	if LerpAngle(0.3, 1, 0) != 0.3 {
		t.Fatal("t=0 should not move")
	}
}

func TestNormalizeAngle_Range(t *testing.T) {
	for _, a := range []float64{-10, -math.Pi, 0, 4, 7 * math.Pi} {
		n := normalizeAngle(a)
		if n < -math.Pi-1e-9 || n > math.Pi+1e-9 {
			t.Fatalf("normalizeAngle(%.2f) = %.2f out of range", a, n)
		}
		if math.Abs(math.Sin(n)-math.Sin(a)) > 1e-9 || math.Abs(math.Cos(n)-math.Cos(a)) > 1e-9 {
			t.Fatalf("normalizeAngle(%.2f) changed the direction", a)
		}
	}
}
