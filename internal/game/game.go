package game

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/opp-block/internal/sim"
)

// borderWidth is the pixel gap between the window edge and the street view.
const borderWidth = 24

const (
	viewWidth  = 1280
	viewHeight = 860
	tickRate   = 60
	camEase    = 0.12
)

// Config selects what the window runs.
type Config struct {
	Tuning    sim.Tuning
	Seed      int64
	Logger    *slog.Logger
	Autopilot string // empty for keyboard control
}

// Game is the ebiten host around a sim.World. It owns the world and calls
// Update from ebiten's update goroutine only.
type Game struct {
	cfg    Config
	world  *sim.World
	simLog *sim.SimLog

	width  int
	height int
	viewW  int
	viewH  int
	offX   int
	offY   int

	cam      Camera
	face     text.Face
	events   *EventLog
	reporter *sim.Reporter
	pilot    *sim.Autopilot

	inspector     Inspector
	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool

	showHUD    bool
	showReport bool
	pauseQueue bool
	upgrades   int // offers not yet taken

	// Simulation speed control.
	simSpeed  float64 // multiplier: 0.5, 1, 2, 4
	tickAccum float64
}

// New builds the window host and the first session.
func New(cfg Config) *Game {
	g := &Game{
		cfg:      cfg,
		width:    borderWidth + viewWidth + borderWidth + logPanelWidth,
		height:   borderWidth + viewHeight + borderWidth,
		viewW:    viewWidth,
		viewH:    viewHeight,
		offX:     borderWidth,
		offY:     borderWidth,
		face:     text.NewGoXFace(basicfont.Face7x13),
		prevKeys: make(map[ebiten.Key]bool),
		showHUD:  true,
		simSpeed: 1,
	}
	g.reset()
	return g
}

// reset starts a fresh session with the configured seed and tuning.
func (g *Game) reset() {
	g.simLog = sim.NewSimLog(false)
	opts := []sim.Option{sim.WithSimLog(g.simLog)}
	if g.cfg.Logger != nil {
		opts = append(opts, sim.WithLogger(g.cfg.Logger))
	}
	g.world = sim.NewWorld(g.cfg.Tuning, g.cfg.Seed, opts...)
	g.events = NewEventLog()
	g.reporter = sim.NewReporter(10)
	g.pilot = nil
	if g.cfg.Autopilot != "" {
		g.pilot = sim.NewAutopilot(sim.ParseAutopilotMode(g.cfg.Autopilot))
	}
	g.upgrades = 0
	g.inspector = Inspector{}
	g.cam = Camera{Zoom: 1, ViewW: float64(g.viewW), ViewH: float64(g.viewH)}
	if p := g.world.Player(); p != nil {
		g.cam.X, g.cam.Y = p.CX(), p.CY()
	}
	g.cam.clampTo(g.world.Width, g.world.Height)
	g.events.Note(0, fmt.Sprintf("seed %d, grab the loot", g.cfg.Seed))
}

// World exposes the hosted world.
func (g *Game) World() *sim.World { return g.world }

func (g *Game) Update() error {
	in := g.handleInput()

	if g.upgrades > 0 && g.pilot == nil {
		return nil
	}

	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		if g.pauseQueue {
			in.PauseRequested = true
			g.pauseQueue = false
		}
		g.step(in)
		in.PauseRequested = false
	}

	if p := g.world.Player(); p != nil && !p.Dead {
		g.cam.Follow(p.CX(), p.CY(), camEase, g.world.Width, g.world.Height)
	} else {
		g.cam.clampTo(g.world.Width, g.world.Height)
	}
	return nil
}

// step runs one world tick and routes its events.
func (g *Game) step(in sim.Input) {
	if g.pilot != nil {
		pilot := g.pilot.Next(g.world)
		pilot.PauseRequested = in.PauseRequested
		in = pilot
	}
	g.world.Update(1.0/tickRate, in)
	evs := g.world.DrainEvents()
	for _, e := range evs {
		g.events.Add(g.world.Tick, e)
		if e.Kind == sim.EventUpgradeOffered && g.pilot == nil {
			g.upgrades++
		}
	}
	if g.pilot != nil {
		g.pilot.HandleEvents(g.world, evs)
	}
	g.reporter.Observe(g.world)
}

// justPressed is edge-triggered on k and records it for the next frame.
func (g *Game) justPressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

// handleInput reads the keyboard and mouse and returns the player's input.
func (g *Game) handleInput() sim.Input {
	cur := map[ebiten.Key]bool{}
	var in sim.Input

	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		in.MoveY--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		in.MoveY++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		in.MoveX--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		in.MoveX++
	}
	in.Shoot = ebiten.IsKeyPressed(ebiten.KeySpace)

	if g.justPressed(cur, ebiten.KeyP) {
		g.pauseQueue = true
	}
	if g.justPressed(cur, ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if g.justPressed(cur, ebiten.KeyR) {
		g.showReport = !g.showReport
	}

	// Zoom: mouse wheel or =/- keys.
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.cam.SetZoom(g.cam.Zoom * (1 + 0.12*wy))
	}
	if g.justPressed(cur, ebiten.KeyEqual) {
		g.cam.SetZoom(g.cam.Zoom * 1.25)
	}
	if g.justPressed(cur, ebiten.KeyMinus) {
		g.cam.SetZoom(g.cam.Zoom / 1.25)
	}

	// Sim speed: ,=slower, .=faster.
	speeds := []float64{0.5, 1, 2, 4}
	if g.justPressed(cur, ebiten.KeyComma) {
		for i := len(speeds) - 1; i >= 0; i-- {
			if speeds[i] < g.simSpeed {
				g.simSpeed = speeds[i]
				break
			}
		}
	}
	if g.justPressed(cur, ebiten.KeyPeriod) {
		for _, s := range speeds {
			if s > g.simSpeed {
				g.simSpeed = s
				break
			}
		}
	}

	// Upgrade menu: 1-4 take an upgrade, U skips it.
	upgradeKeys := []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}
	for i, k := range upgradeKeys {
		if g.justPressed(cur, k) && g.upgrades > 0 && i < len(sim.Upgrades) {
			g.takeUpgrade(sim.Upgrades[i])
		}
	}
	if g.justPressed(cur, ebiten.KeyU) && g.upgrades > 0 {
		g.upgrades--
	}

	if g.justPressed(cur, ebiten.KeyC) {
		if a := g.inspected(); a != nil {
			g.copyToClipboard("agent report", strings.Join(agentReport(a), "\n"))
		}
	}
	if g.justPressed(cur, ebiten.KeyV) {
		g.copyToClipboard("world summary", g.simLog.Summary(g.world))
	}
	if g.justPressed(cur, ebiten.KeyN) && g.world.Outcome != sim.OutcomeRunning {
		g.cfg.Seed++
		g.reset()
	}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if left && !g.prevMouseLeft {
		mx, my := ebiten.CursorPosition()
		g.handleInspectorClick(mx, my)
	}
	g.prevMouseLeft = left

	g.prevKeys = cur
	return in
}

func (g *Game) takeUpgrade(u sim.UpgradeInfo) {
	if err := g.world.ApplyUpgrade(u.ID); err != nil {
		g.events.Note(g.world.Tick, err.Error())
		return
	}
	g.upgrades--
	g.events.Note(g.world.Tick, "took "+u.Name)
}

func (g *Game) copyToClipboard(what, s string) {
	if err := clipboard.WriteAll(s); err != nil {
		g.events.Note(g.world.Tick, "clipboard: "+err.Error())
		return
	}
	g.events.Note(g.world.Tick, "copied "+what)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 10, G: 10, B: 12, A: 255})

	vp := screen.SubImage(image.Rect(g.offX, g.offY, g.offX+g.viewW, g.offY+g.viewH)).(*ebiten.Image)
	g.drawWorld(vp)

	ox, oy := float32(g.offX), float32(g.offY)
	vector.StrokeRect(screen, ox-1, oy-1, float32(g.viewW)+2, float32(g.viewH)+2, 2.0, color.RGBA{R: 90, G: 65, B: 90, A: 255}, false)

	g.events.Draw(screen, g.face, g.offX+g.viewW+g.offX, g.height)
	if g.showHUD {
		g.drawHUD(screen)
	}
	if g.showReport {
		g.drawReport(screen)
	}
	g.drawInspector(screen)
	if g.upgrades > 0 && g.pilot == nil {
		g.drawUpgradeMenu(screen)
	}
	if g.world.Outcome != sim.OutcomeRunning {
		g.drawOutcome(screen)
	}
}

// toScreen maps world coordinates onto window pixels.
func (g *Game) toScreen(wx, wy float64) (float32, float32) {
	sx, sy := g.cam.WorldToScreen(wx, wy)
	return float32(sx) + float32(g.offX), float32(sy) + float32(g.offY)
}

func (g *Game) fillWorldRect(dst *ebiten.Image, r sim.Rect, c color.Color) {
	x, y := g.toScreen(r.X, r.Y)
	z := float32(g.cam.Zoom)
	vector.FillRect(dst, x, y, float32(r.W)*z, float32(r.H)*z, c, false)
}

func (g *Game) drawWorld(dst *ebiten.Image) {
	w := g.world
	z := float32(g.cam.Zoom)

	// Ground, then the street extents.
	dst.Fill(color.RGBA{R: 22, G: 22, B: 26, A: 255})
	g.fillWorldRect(dst, sim.Rect{W: w.Width, H: w.Height}, color.RGBA{R: 44, G: 44, B: 48, A: 255})

	for _, b := range w.Buildings() {
		if !g.cam.isInViewport(b.Rect, 20) {
			continue
		}
		fill := color.RGBA{R: 70, G: 66, B: 60, A: 255}
		switch {
		case b.Kind == sim.KindSafeHouse:
			fill = color.RGBA{R: 40, G: 70, B: 110, A: 255}
		case b.OppBlock:
			fill = color.RGBA{R: 100, G: 36, B: 36, A: 255}
		}
		g.fillWorldRect(dst, b.Rect, fill)
		x, y := g.toScreen(b.Rect.X, b.Rect.Y)
		vector.StrokeRect(dst, x, y, float32(b.Rect.W)*z, float32(b.Rect.H)*z, 1.0, color.RGBA{R: 120, G: 110, B: 100, A: 255}, false)
		label := fmt.Sprintf("%d", b.LootCount())
		if b.Bounded() {
			label = fmt.Sprintf("%d/%d", b.LootCount(), b.Capacity())
		}
		drawText(dst, g.face, label, int(x)+4, int(y)+3, color.RGBA{R: 230, G: 210, B: 120, A: 255})
	}

	size := w.Tuning().Loot.Size
	for _, it := range w.Loot() {
		if it.State != sim.LootOnFloor {
			continue
		}
		r := sim.Rect{X: it.X, Y: it.Y, W: size, H: size}
		if g.cam.isInViewport(r, 4) {
			g.fillWorldRect(dst, r, color.RGBA{R: 240, G: 200, B: 60, A: 255})
		}
	}

	for _, a := range w.Agents() {
		if a.Dead || !g.cam.isInViewport(a.Box(), 8) {
			continue
		}
		g.fillWorldRect(dst, a.Box(), agentColor(a))
		if a.Carrying() {
			g.fillWorldRect(dst, sim.Rect{X: a.CX() - size/2, Y: a.Y - size - 2, W: size, H: size}, color.RGBA{R: 240, G: 200, B: 60, A: 255})
		}
		if a.Health < a.MaxHealth {
			g.drawHealthBar(dst, a.X, a.Y+a.H+2, a.W, a.Health/a.MaxHealth)
		}
	}

	if p := w.Player(); p != nil && !p.Dead {
		g.fillWorldRect(dst, p.Box(), color.RGBA{R: 80, G: 220, B: 230, A: 255})
		cx, cy := g.toScreen(p.CX(), p.CY())
		vector.StrokeLine(dst, cx, cy, cx+float32(p.FaceX*20)*z, cy+float32(p.FaceY*20)*z, 2, color.White, false)
		vector.StrokeCircle(dst, cx, cy, float32(p.PickupRadius)*z, 1, color.RGBA{R: 80, G: 220, B: 230, A: 60}, false)
	}

	for _, pr := range w.Projectiles() {
		if !pr.Active {
			continue
		}
		x, y := g.toScreen(pr.X, pr.Y)
		c := color.RGBA{R: 255, G: 90, B: 80, A: 255}
		if pr.Faction == sim.FactionFriendly {
			c = color.RGBA{R: 250, G: 250, B: 220, A: 255}
		}
		vector.FillCircle(dst, x, y, 3*z, c, false)
	}
}

func agentColor(a *sim.Agent) color.RGBA {
	if a.KnockedBack {
		return color.RGBA{R: 240, G: 240, B: 240, A: 255}
	}
	switch a.Role {
	case sim.RoleGuard:
		return color.RGBA{R: 230, G: 130, B: 40, A: 255}
	case sim.RoleBoss:
		return color.RGBA{R: 170, G: 60, B: 200, A: 255}
	case sim.RoleAlly:
		return color.RGBA{R: 70, G: 200, B: 90, A: 255}
	}
	shade := uint8(150 + 35*a.Tier)
	return color.RGBA{R: shade, G: 40, B: 40, A: 255}
}

func (g *Game) drawHealthBar(dst *ebiten.Image, x, y, w, frac float64) {
	g.fillWorldRect(dst, sim.Rect{X: x, Y: y, W: w, H: 3}, color.RGBA{R: 40, G: 0, B: 0, A: 255})
	g.fillWorldRect(dst, sim.Rect{X: x, Y: y, W: w * clampF(frac, 0, 1), H: 3}, color.RGBA{R: 60, G: 220, B: 60, A: 255})
}

// hudLines is the status block text.
func hudLines(s sim.WorldSnapshot, speed float64, upgrades int) []string {
	mins := int(s.Elapsed) / 60
	secs := int(s.Elapsed) % 60
	speedStr := fmt.Sprintf("%.1fx", speed)
	if s.Paused {
		speedStr = "PAUSED"
	}
	lines := []string{
		fmt.Sprintf("T %02d:%02d  level %d  sim %s", mins, secs, s.Level, speedStr),
		fmt.Sprintf("heat %.1f  opps %d/%d  bulk %d", s.Heat, s.Population, s.MaxPopulation, s.BulkQueued),
	}
	if p := s.Player; p != nil {
		lines = append(lines, fmt.Sprintf("hp %.0f/%.0f  carrying %d/%d", p.Health, p.MaxHealth, p.Carried, p.Slots))
	}
	st := s.Stats
	lines = append(lines,
		fmt.Sprintf("lvl %d  xp %d/%d  stashed %d  bodies %d", st.PlayerLevel, st.XP, st.XPToNext, st.LootStashed, st.BodiesDropped),
	)
	if upgrades > 0 {
		lines = append(lines, fmt.Sprintf("%d upgrade(s) waiting", upgrades))
	}
	lines = append(lines, "WASD move  space shoot  P pause  ,/. speed  R report  H hud")
	return lines
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	s := g.world.Snapshot()
	lines := hudLines(s, g.simSpeed, g.upgrades)
	bx, by := g.offX+8, g.offY+8
	boxW := float32(0)
	for _, l := range lines {
		if w := float32(len(l) * 7); w > boxW {
			boxW = w
		}
	}
	boxH := float32(len(lines)*logLineHeight + 8)
	vector.FillRect(screen, float32(bx), float32(by), boxW+12, boxH, color.RGBA{R: 8, G: 6, B: 10, A: 210}, false)

	// Heat bar along the top of the box.
	heat := clampF(s.Heat/100, 0, 1)
	vector.FillRect(screen, float32(bx), float32(by), (boxW+12)*float32(heat), 3, heatColor(s.Heat), false)
	for i, l := range lines {
		drawText(screen, g.face, l, bx+6, by+4+i*logLineHeight, color.White)
	}
}

func heatColor(h float64) color.RGBA {
	switch {
	case h >= 61:
		return color.RGBA{R: 240, G: 50, B: 40, A: 255}
	case h >= 26:
		return color.RGBA{R: 240, G: 160, B: 40, A: 255}
	}
	return color.RGBA{R: 90, G: 200, B: 90, A: 255}
}

func (g *Game) drawReport(screen *ebiten.Image) {
	body := g.reporter.WindowSummary().Format()
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	x, y := g.offX+8, g.offY+g.viewH-len(lines)*logLineHeight-16
	vector.FillRect(screen, float32(x), float32(y), 520, float32(len(lines)*logLineHeight+8), color.RGBA{R: 8, G: 6, B: 10, A: 220}, false)
	for i, l := range lines {
		drawText(screen, g.face, l, x+6, y+4+i*logLineHeight, color.RGBA{R: 200, G: 200, B: 220, A: 255})
	}
}

func (g *Game) drawUpgradeMenu(screen *ebiten.Image) {
	lines := []string{"UPGRADE READY"}
	for i, u := range sim.Upgrades {
		lines = append(lines, fmt.Sprintf("[%d] %s - %s", i+1, u.Name, u.Description))
	}
	lines = append(lines, "[U] skip")
	w, h := 460, len(lines)*logLineHeight+16
	x := g.offX + (g.viewW-w)/2
	y := g.offY + (g.viewH-h)/2
	vector.FillRect(screen, float32(x), float32(y), float32(w), float32(h), color.RGBA{R: 20, G: 12, B: 24, A: 240}, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1.5, color.RGBA{R: 150, G: 90, B: 170, A: 255}, false)
	for i, l := range lines {
		drawText(screen, g.face, l, x+10, y+8+i*logLineHeight, color.White)
	}
}

func (g *Game) drawOutcome(screen *ebiten.Image) {
	msg := "YOU SURVIVED"
	c := color.RGBA{R: 120, G: 230, B: 120, A: 255}
	if g.world.Outcome == sim.OutcomeLost {
		msg = "DROPPED"
		c = color.RGBA{R: 230, G: 80, B: 70, A: 255}
	}
	msg += "  [N] new session"
	x := g.offX + g.viewW/2 - len(msg)*7/2
	y := g.offY + g.viewH/2
	vector.FillRect(screen, float32(x-10), float32(y-6), float32(len(msg)*7+20), 26, color.RGBA{A: 220}, false)
	drawText(screen, g.face, msg, x, y, c)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowSize is the native window size in pixels.
func (g *Game) WindowSize() (int, int) { return g.width, g.height }
