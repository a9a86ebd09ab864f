package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/opp-block/internal/sim"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 14
)

// EventEntry is a single line in the event log.
type EventEntry struct {
	Tick    int
	Kind    sim.EventKind
	Note    bool // host message, not a world event
	Message string
}

// EventLog is a ring buffer of recent world events rendered in the side panel.
type EventLog struct {
	entries []EventEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]EventEntry, logMaxEntries)}
}

// Add records a world event. Flee cues are too chatty for the panel and are
// skipped.
func (el *EventLog) Add(tick int, e sim.Event) {
	if e.Kind == sim.EventFleeCue {
		return
	}
	el.push(EventEntry{Tick: tick, Kind: e.Kind, Message: describeEvent(e)})
}

// Note records a host message such as a clipboard result.
func (el *EventLog) Note(tick int, msg string) {
	el.push(EventEntry{Tick: tick, Note: true, Message: msg})
}

func (el *EventLog) push(e EventEntry) {
	el.entries[el.head] = e
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Len returns the number of buffered entries.
func (el *EventLog) Len() int { return el.count }

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []EventEntry {
	result := make([]EventEntry, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

func describeEvent(e sim.Event) string {
	switch e.Kind {
	case sim.EventPopulationCapIncreased:
		return fmt.Sprintf("more opps on the road (cap %.0f)", e.Value)
	case sim.EventEscalationTriggered:
		return fmt.Sprintf("ESCALATION at heat %.0f", e.Value)
	case sim.EventBossSpawned:
		return "the Top Boy is out"
	case sim.EventBossDefeated:
		return "Top Boy down"
	case sim.EventLevelExpanded:
		return fmt.Sprintf("new ends opened (level %.0f)", e.Value)
	case sim.EventLootPickedUp:
		return fmt.Sprintf("picked up loot #%d", e.Loot)
	case sim.EventLootStashed:
		return fmt.Sprintf("stashed loot #%d", e.Loot)
	case sim.EventAgentDied:
		return fmt.Sprintf("agent %d dropped", e.Agent)
	case sim.EventPlayerDied:
		return "you got dropped"
	case sim.EventUpgradeOffered:
		return "upgrade ready"
	case sim.EventGameWon:
		return "survived the night"
	}
	return e.Kind.String()
}

func entryColor(e EventEntry) color.RGBA {
	if e.Note {
		return color.RGBA{R: 150, G: 150, B: 150, A: 255}
	}
	switch e.Kind {
	case sim.EventEscalationTriggered, sim.EventBossSpawned, sim.EventPlayerDied:
		return color.RGBA{R: 230, G: 80, B: 70, A: 255}
	case sim.EventBossDefeated, sim.EventLevelExpanded, sim.EventGameWon, sim.EventUpgradeOffered:
		return color.RGBA{R: 120, G: 220, B: 120, A: 255}
	case sim.EventLootPickedUp, sim.EventLootStashed:
		return color.RGBA{R: 230, G: 200, B: 80, A: 255}
	}
	return color.RGBA{R: 190, G: 190, B: 200, A: 255}
}

// Draw renders the log panel on the right side of the screen.
func (el *EventLog) Draw(screen *ebiten.Image, face text.Face, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 12, G: 10, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 70, G: 50, B: 70, A: 255}, false)
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 18, color.RGBA{R: 30, G: 20, B: 30, A: 255}, false)
	drawText(screen, face, "EVENTS", panelX+8, 2, color.White)

	entries := el.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	y := 22
	for i, e := range entries {
		if i >= len(entries)-3 {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 40, G: 30, B: 40, A: 160}, false)
		}
		c := entryColor(e)
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, c, false)
		drawText(screen, face, fmt.Sprintf("%5d %s", e.Tick, e.Message), panelX+12, y, c)
		y += logLineHeight
	}
}

func drawText(dst *ebiten.Image, face text.Face, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	op.LineSpacing = logLineHeight
	text.Draw(dst, s, face, op)
}
