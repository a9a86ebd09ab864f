package sim

import (
	"fmt"
	"sort"
	"strings"
)

// SimLogEntry is one recorded happening during a simulation.
type SimLogEntry struct {
	Tick     int
	Actor    string  // agent label e.g. "O3", "G12", or "--" for world events
	Category string  // state, combat, loot, spawn, event
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=0042] O3    state     transition       wandering -> fleeing
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%04d] %-5s %-9s %-16s %s",
		e.Tick, e.Actor, e.Category, e.Key, e.Value)
}

// SimLog collects structured entries. Unlike the viewer's event panel it is
// unbounded and meant for tests and headless reports.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. Verbose mode also keeps AddVerbose entries.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, actor, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Actor:    actor,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, actor, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, actor, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching category and key. Empty matches anything.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// HasEntry reports whether any entry matches category, key and a value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// FormatRange returns the log filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable digest of the world.
func (sl *SimLog) Summary(w *World) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%04d (%.1fs, level %d) ---\n", w.Tick, w.Elapsed, w.Level)
	e := w.Economy()
	fmt.Fprintf(&sb, "Heat: %.1f  latched=%v  escalations=%d  bulk=%d\n",
		e.Heat, e.EscalationLatched, e.Escalations, e.Bulk.Count)
	fmt.Fprintf(&sb, "Population: %d / %d\n", w.Population(), e.MaxPopulation)

	states := map[string]int{}
	for _, a := range w.Agents() {
		if a.Dead {
			continue
		}
		states[a.Role.String()+"/"+a.State.String()]++
	}
	keys := make([]string, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteString("Agents: ")
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%d  ", k, states[k])
	}
	sb.WriteByte('\n')

	var floor, held, stashed int
	for _, it := range w.Loot() {
		switch it.State {
		case LootOnFloor:
			floor++
		case LootHeld:
			held++
		case LootStashed:
			stashed++
		}
	}
	fmt.Fprintf(&sb, "Loot: floor=%d held=%d stashed=%d\n", floor, held, stashed)
	st := w.Stats()
	fmt.Fprintf(&sb, "Stats: collected=%d stashed=%d bodies=%d repelled=%d xp=%d lvl=%d\n",
		st.LootCollected, st.LootStashed, st.BodiesDropped, st.OppsRepelled, st.XP, st.PlayerLevel)
	return sb.String()
}
