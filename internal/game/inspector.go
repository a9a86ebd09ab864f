package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/opp-block/internal/sim"
)

const (
	inspW   = 260
	inspPad = 6
)

// Inspector holds the clicked agent. The handle goes stale once the agent is
// purged and the panel closes itself.
type Inspector struct {
	selected sim.AgentID
	active   bool
}

// handleInspectorClick selects the agent under the cursor, or clears the
// selection on empty ground.
func (g *Game) handleInspectorClick(mx, my int) bool {
	wx, wy := g.cam.ScreenToWorld(float64(mx-g.offX), float64(my-g.offY))
	pick := 12 / g.cam.Zoom
	best := -1.0
	var hit *sim.Agent
	for _, a := range g.world.Agents() {
		if a.Dead {
			continue
		}
		if !a.Box().Expand(pick).ContainsPoint(wx, wy) {
			continue
		}
		d := sim.Dist(wx, wy, a.CX(), a.CY())
		if hit == nil || d < best {
			hit, best = a, d
		}
	}
	if hit == nil {
		g.inspector.active = false
		return false
	}
	g.inspector.selected = hit.ID
	g.inspector.active = true
	return true
}

// inspected returns the selected live agent, or nil.
func (g *Game) inspected() *sim.Agent {
	if !g.inspector.active {
		return nil
	}
	a := g.world.Agent(g.inspector.selected)
	if a == nil || a.Dead {
		g.inspector.active = false
		return nil
	}
	return a
}

// agentReport is the inspector text, also used for the clipboard copy.
func agentReport(a *sim.Agent) []string {
	name := a.Label
	if name == "" {
		name = fmt.Sprintf("#%d", a.ID)
	}
	lines := []string{
		fmt.Sprintf("[ %s %s ]", strings.ToUpper(a.Role.String()), name),
		fmt.Sprintf("state: %s  tier: %d", a.State, a.Tier),
		fmt.Sprintf("hp: %.0f/%.0f", a.Health, a.MaxHealth),
		fmt.Sprintf("pos: (%.0f,%.0f) dir: %.2f", a.CX(), a.CY(), a.Direction),
	}
	var flags []string
	if a.KnockedBack {
		flags = append(flags, "knocked-back")
	}
	if a.Surrounding {
		flags = append(flags, "surrounding")
	}
	if a.IsChaser {
		flags = append(flags, "chaser")
	}
	if a.Alerted {
		flags = append(flags, "alerted")
	}
	if a.Raiding {
		flags = append(flags, "raiding")
	}
	if a.PostAbandoned {
		flags = append(flags, "off-post")
	}
	if a.Carrying() {
		flags = append(flags, fmt.Sprintf("carrying #%d", a.Carried))
	}
	if len(flags) > 0 {
		lines = append(lines, "flags: "+strings.Join(flags, " "))
	}
	if a.Role == sim.RoleAlly && a.Target != sim.NoAgent {
		lines = append(lines, fmt.Sprintf("target: #%d", a.Target))
	}
	return lines
}

// drawInspector renders the panel bottom-right of the viewport.
func (g *Game) drawInspector(screen *ebiten.Image) {
	a := g.inspected()
	if a == nil {
		return
	}
	lines := agentReport(a)
	h := len(lines)*logLineHeight + 2*inspPad
	x := g.offX + g.viewW - inspW - 8
	y := g.offY + g.viewH - h - 8

	border := color.RGBA{R: 80, G: 55, B: 80, A: 255}
	vector.FillRect(screen, float32(x), float32(y), inspW, float32(h), color.RGBA{R: 16, G: 12, B: 18, A: 230}, false)
	vector.StrokeRect(screen, float32(x), float32(y), inspW, float32(h), 1.0, border, false)
	for i, l := range lines {
		drawText(screen, g.face, l, x+inspPad, y+inspPad+i*logLineHeight, color.White)
	}

	// Selection ring in world space.
	sx, sy := g.cam.WorldToScreen(a.CX(), a.CY())
	r := float32((a.W/2 + 6) * g.cam.Zoom)
	vector.StrokeCircle(screen, float32(sx)+float32(g.offX), float32(sy)+float32(g.offY), r, 1.5, color.RGBA{R: 255, G: 255, B: 255, A: 200}, false)
}
