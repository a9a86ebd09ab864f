package sim

import "math"

// Rect is an axis-aligned rectangle in world pixels. X,Y is the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// CenterX returns the horizontal centre of r.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical centre of r.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Overlaps reports whether r and o share any interior area. Touching edges do
// not count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.X >= o.X+o.W || r.X+r.W <= o.X || r.Y >= o.Y+o.H || r.Y+r.H <= o.Y)
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// ContainsPoint reports whether (px,py) lies strictly inside r.
func (r Rect) ContainsPoint(px, py float64) bool {
	return px > r.X && px < r.X+r.W && py > r.Y && py < r.Y+r.H
}

// At returns a copy of r moved so its top-left is (x,y).
func (r Rect) At(x, y float64) Rect {
	return Rect{X: x, Y: y, W: r.W, H: r.H}
}

// Dist returns the euclidean distance between two points.
func Dist(ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	return math.Sqrt(dx*dx + dy*dy)
}

// HeadingTo returns the angle in radians from (ox,oy) toward (tx,ty).
func HeadingTo(ox, oy, tx, ty float64) float64 {
	return math.Atan2(ty-oy, tx-ox)
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// LerpAngle moves from toward to along the shortest arc. t is the fraction of
// the remaining arc to cover and is capped at 1 so a long tick cannot overshoot.
func LerpAngle(from, to, t float64) float64 {
	if t <= 0 {
		return from
	}
	if t > 1 {
		t = 1
	}
	return from + normalizeAngle(to-from)*t
}

// NearRect reports whether body overlaps target grown by dist on every side.
// Proximity is measured from the edges, not the centre.
func NearRect(body, target Rect, dist float64) bool {
	return body.Overlaps(target.Expand(dist))
}

// EjectFromRect returns a top-left position for body that places it just
// outside target, past the edge nearest to body's centre. ok is false when
// body's centre is not inside target.
func EjectFromRect(body, target Rect, buffer float64) (x, y float64, ok bool) {
	cx, cy := body.CenterX(), body.CenterY()
	if !target.ContainsPoint(cx, cy) {
		return body.X, body.Y, false
	}
	toLeft := cx - target.X
	toRight := target.X + target.W - cx
	toTop := cy - target.Y
	toBottom := target.Y + target.H - cy
	m := math.Min(math.Min(toLeft, toRight), math.Min(toTop, toBottom))

	x, y = body.X, body.Y
	switch m {
	case toLeft:
		x = target.X - body.W - buffer
	case toRight:
		x = target.X + target.W + buffer
	case toTop:
		y = target.Y - body.H - buffer
	default:
		y = target.Y + target.H + buffer
	}
	return x, y, true
}

// MoveResult reports the outcome of an axis-separated move.
type MoveResult struct {
	X, Y            float64
	BlockedX        bool
	BlockedY        bool
	VX, VY          float64 // velocity after blocked components are zeroed
	CompletelyStuck bool
}

// nearbyRadius bounds which obstacles are considered during a move.
const nearbyRadius = 100.0

// MoveWithSliding advances body by (vx,vy)*dt against the solid rectangles.
// X and Y are tested independently so a body blocked on one axis slides along
// the obstacle on the other. A blocked axis has its velocity zeroed.
func MoveWithSliding(body Rect, vx, vy, dt float64, solids []Rect) MoveResult {
	nx := body.X + vx*dt
	ny := body.Y + vy*dt
	res := MoveResult{X: body.X, Y: body.Y, VX: vx, VY: vy}

	near := body.Expand(nearbyRadius)
	canX, canY := true, true
	for _, s := range solids {
		if !near.Overlaps(s) {
			continue
		}
		if canX && body.At(nx, body.Y).Overlaps(s) {
			canX = false
		}
		if canY && body.At(body.X, ny).Overlaps(s) {
			canY = false
		}
		if !canX && !canY {
			break
		}
	}

	if canX {
		res.X = nx
	} else {
		res.BlockedX = true
		res.VX = 0
	}
	if canY {
		res.Y = ny
	} else {
		res.BlockedY = true
		res.VY = 0
	}
	res.CompletelyStuck = res.BlockedX && res.BlockedY
	return res
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
