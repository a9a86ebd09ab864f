package sim

// Street grid: 5 columns x 4 rows of 230x200 lots on a 270x280 pitch.
const (
	gridCols    = 5
	gridRows    = 4
	lotW        = 230.0
	lotH        = 200.0
	lotPitchX   = 270.0
	lotPitchY   = 280.0
	lotOrigin   = 20.0
	playerStart = 600.0
	playerRow   = 500.0
)

// baseSpawnPoints sit on roads between lots and along the map edges.
var baseSpawnPoints = [][2]float64{
	{130, 250}, {400, 250}, {670, 250}, {940, 250},
	{130, 540}, {400, 540}, {670, 540}, {940, 540},
	{130, 820}, {400, 820}, {670, 820}, {940, 820},
	{265, 130}, {265, 410}, {265, 690},
	{535, 130}, {535, 410}, {535, 690},
	{805, 130}, {805, 410}, {805, 690},
	{1200, 250}, {1200, 540}, {1200, 820},
	{130, 1000}, {400, 1000}, {670, 1000},
}

// baseWaypoints are road intersections used for idle wandering.
var baseWaypoints = [][2]float64{
	{265, 250}, {535, 250}, {805, 250},
	{265, 540}, {535, 540}, {805, 540},
	{265, 820}, {535, 820}, {805, 820},
	{130, 400}, {130, 680},
	{940, 400}, {940, 680},
}

// guardOffsets are guard posts relative to the Opp Block's top-left, ringing
// the block on all four sides.
var guardOffsets = [][2]float64{
	{30, -50}, {100, -50}, {170, -50},
	{30, lotH + 10}, {100, lotH + 10}, {170, lotH + 10},
	{-50, 50}, {-50, 120},
	{lotW + 10, 50}, {lotW + 10, 120},
}

// roadLines are the horizontal and vertical road centrelines for loose loot.
var (
	roadRows = []float64{230, 510, 790, 1070}
	roadCols = []float64{260, 530, 800, 1070}
)

// generateLayout builds the first level: safe house, traphouses, the Opp
// Block with its guards, loose loot, the player and the opening opps.
func (w *World) generateLayout() {
	wt := &w.tuning.World
	last := gridCols*gridRows - 1
	for i := 0; i <= last; i++ {
		col, row := i%gridCols, i/gridCols
		r := Rect{X: lotOrigin + float64(col)*lotPitchX, Y: lotOrigin + float64(row)*lotPitchY, W: lotW, H: lotH}
		id := BuildingID(len(w.buildings))
		switch i {
		case 0:
			w.buildings = append(w.buildings, NewSafeHouse(id, r, w.rng))
			w.safeID = id
		case last:
			b := NewTraphouse(id, r, wt.OppBlockCapacity, w.rng)
			b.OppBlock = true
			w.buildings = append(w.buildings, b)
			w.oppID = id
			w.stockBuilding(b, wt.OppBlockLoot)
		default:
			b := NewTraphouse(id, r, wt.TrapCapacity, w.rng)
			w.buildings = append(w.buildings, b)
			if w.rng.Float64() < wt.TrapLootChance {
				w.stockBuilding(b, 1)
			}
		}
	}
	w.rebuildSolids()

	w.spawnPoints = append([][2]float64(nil), baseSpawnPoints...)
	w.waypoints = append([][2]float64(nil), baseWaypoints...)

	w.player = newPlayer(&w.tuning.Player, playerStart, playerRow)

	if ob := w.oppBlockBuilding(); ob != nil {
		for i := 0; i < wt.InitialGuards; i++ {
			off := guardOffsets[i%len(guardOffsets)]
			w.spawnGuard(ob, ob.Rect.X+off[0], ob.Rect.Y+off[1], w.tuning.Agents.Health)
		}
	}

	w.scatterLooseLoot(wt.LooseLoot, 0, w.Width)

	for i := 0; i < wt.InitialOpps; i++ {
		sp := w.spawnPoints[w.rng.Intn(len(w.spawnPoints))]
		tier := 1
		if i >= 2 {
			tier = 2
		}
		w.spawnOpp(sp[0], sp[1], tier)
	}
}

// stockBuilding creates n stashed items in b, bounded by free slots.
func (w *World) stockBuilding(b *Building, n int) int {
	added := 0
	for i := 0; i < n && b.HasEmptySlots(); i++ {
		it := newFloorLoot(LootID(len(w.loot)), b.Rect.CenterX(), b.Rect.CenterY())
		if !b.AddLoot(it.ID) {
			break
		}
		it.State = LootStashed
		it.Building = b.ID
		w.loot = append(w.loot, it)
		added++
	}
	return added
}

// scatterLooseLoot drops n items on road lines between minX and maxX, keeping
// clear of every building.
func (w *World) scatterLooseLoot(n int, minX, maxX float64) {
	size := w.tuning.Loot.Size
	for i := 0; i < n; i++ {
		for attempt := 0; attempt < 50; attempt++ {
			var x, y float64
			if w.rng.Float64() < 0.5 {
				y = roadRows[w.rng.Intn(len(roadRows))] + (w.rng.Float64()-0.5)*40
				x = minX + 50 + w.rng.Float64()*(maxX-minX-100)
			} else {
				x = minX + roadCols[w.rng.Intn(len(roadCols))] + (w.rng.Float64()-0.5)*30
				y = 50 + w.rng.Float64()*(w.Height-100)
			}
			if w.clearOfBuildings(Rect{X: x, Y: y, W: size, H: size}, 20) {
				w.loot = append(w.loot, newFloorLoot(LootID(len(w.loot)), x, y))
				break
			}
		}
	}
}

func (w *World) clearOfBuildings(r Rect, margin float64) bool {
	for _, b := range w.buildings {
		if r.Overlaps(b.Rect.Expand(margin)) {
			return false
		}
	}
	return r.X >= 0 && r.Y >= 0 && r.X+r.W <= w.Width && r.Y+r.H <= w.Height
}
