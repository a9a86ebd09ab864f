package game

import "github.com/Garsondee/opp-block/internal/sim"

const (
	zoomMin = 0.4
	zoomMax = 3.0
)

// Camera maps world coordinates onto the viewport. X/Y is the world point
// at the viewport centre.
type Camera struct {
	X, Y  float64
	Zoom  float64
	ViewW float64
	ViewH float64
}

// WorldToScreen returns viewport-relative pixel coordinates.
func (c Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	return (wx-c.X)*c.Zoom + c.ViewW/2, (wy-c.Y)*c.Zoom + c.ViewH/2
}

// ScreenToWorld inverts WorldToScreen.
func (c Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx-c.ViewW/2)/c.Zoom + c.X, (sy-c.ViewH/2)/c.Zoom + c.Y
}

// SetZoom clamps z into the supported range.
func (c *Camera) SetZoom(z float64) {
	c.Zoom = clampF(z, zoomMin, zoomMax)
}

// Follow eases the centre toward (tx,ty) and keeps the view inside the world.
// A world smaller than the view is centred instead.
func (c *Camera) Follow(tx, ty, ease, worldW, worldH float64) {
	c.X += (tx - c.X) * ease
	c.Y += (ty - c.Y) * ease
	c.clampTo(worldW, worldH)
}

func (c *Camera) clampTo(worldW, worldH float64) {
	halfW := c.ViewW / 2 / c.Zoom
	halfH := c.ViewH / 2 / c.Zoom
	if worldW <= 2*halfW {
		c.X = worldW / 2
	} else {
		c.X = clampF(c.X, halfW, worldW-halfW)
	}
	if worldH <= 2*halfH {
		c.Y = worldH / 2
	} else {
		c.Y = clampF(c.Y, halfH, worldH-halfH)
	}
}

// isInViewport reports whether r, grown by margin world units, is visible.
func (c Camera) isInViewport(r sim.Rect, margin float64) bool {
	halfW := c.ViewW / 2 / c.Zoom
	halfH := c.ViewH / 2 / c.Zoom
	return r.X+r.W+margin >= c.X-halfW && r.X-margin <= c.X+halfW &&
		r.Y+r.H+margin >= c.Y-halfH && r.Y-margin <= c.Y+halfH
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
