package tilemap

import (
	"math"

	"outbreak.gg/internal/sim/mathx"
)

// clipMargin is how far (in tiles) an actor may leave the map before it is
// considered clipped out of the game layer.
const clipMargin = 200

// Grid is a read-only tile map shared by every actor of a world. Mutators are
// only used while building the map.
type Grid struct {
	Name   string
	Width  int
	Height int

	game    []Tile
	front   []Tile
	tele    []TeleTile
	speedup []Speedup
	tune    []int

	teleOuts  map[int][]mathx.Vec2
	checkOuts map[int][]mathx.Vec2
	spawns    map[int][]mathx.Vec2
}

func New(name string, width, height int) *Grid {
	n := width * height
	return &Grid{
		Name:      name,
		Width:     width,
		Height:    height,
		game:      make([]Tile, n),
		front:     make([]Tile, n),
		tele:      make([]TeleTile, n),
		speedup:   make([]Speedup, n),
		tune:      make([]int, n),
		teleOuts:  map[int][]mathx.Vec2{},
		checkOuts: map[int][]mathx.Vec2{},
		spawns:    map[int][]mathx.Vec2{},
	}
}

func (g *Grid) inBounds(x, y int) bool { return x >= 0 && y >= 0 && x < g.Width && y < g.Height }

func (g *Grid) SetTile(layer Layer, x, y, id, rot int) {
	if !g.inBounds(x, y) {
		return
	}
	t := Tile{ID: uint8(id), Rot: uint8(normalizeRotation(rot))}
	if layer == LayerFront {
		g.front[y*g.Width+x] = t
		return
	}
	g.game[y*g.Width+x] = t
}

func (g *Grid) SetTele(x, y int, kind TeleKind, number int) {
	if !g.inBounds(x, y) {
		return
	}
	i := y*g.Width + x
	g.tele[i] = TeleTile{Kind: kind, Number: number}
	switch kind {
	case TeleOut:
		g.teleOuts[number] = append(g.teleOuts[number], g.TilePos(i))
	case TeleCheckOut:
		g.checkOuts[number] = append(g.checkOuts[number], g.TilePos(i))
	}
}

func (g *Grid) SetSpeedup(x, y int, s Speedup) {
	if g.inBounds(x, y) {
		g.speedup[y*g.Width+x] = s
	}
}

func (g *Grid) SetTune(x, y, zone int) {
	if g.inBounds(x, y) {
		g.tune[y*g.Width+x] = zone
	}
}

// AddSpawn registers a spawn point for team (0 zombies, 1 humans). Team -1
// points are shared by both factions.
func (g *Grid) AddSpawn(team int, pos mathx.Vec2) {
	g.spawns[team] = append(g.spawns[team], pos)
}

func (g *Grid) SpawnPoints(team int) []mathx.Vec2 {
	if pts := g.spawns[team]; len(pts) > 0 {
		return pts
	}
	return g.spawns[-1]
}

// tileCoord rounds to the nearest world unit first so that quantized
// positions and collision tests agree.
func tileCoord(f float64) int { return mathx.FloorDiv(mathx.Round(f), TileSize) }

// PureIndexAt returns the tile index under pos, clamped to the map.
func (g *Grid) PureIndexAt(pos mathx.Vec2) int {
	x := mathx.ClampInt(tileCoord(pos.X), 0, g.Width-1)
	y := mathx.ClampInt(tileCoord(pos.Y), 0, g.Height-1)
	return y*g.Width + x
}

// IndexAt returns the tile index under pos, or -1 when pos is outside the map
// or nothing there takes part in tile resolution.
func (g *Grid) IndexAt(pos mathx.Vec2) int {
	x, y := tileCoord(pos.X), tileCoord(pos.Y)
	if !g.inBounds(x, y) {
		return -1
	}
	i := y*g.Width + x
	if !g.isSpecial(i) {
		return -1
	}
	return i
}

func (g *Grid) isSpecial(i int) bool {
	if special(g.game[i].ID) || special(g.front[i].ID) {
		return true
	}
	if g.tele[i].Kind != TeleNone || g.tune[i] != 0 {
		return true
	}
	s := g.speedup[i]
	return s.Force > 0 || s.MaxSpeed > 0
}

func (g *Grid) valid(i int) bool { return i >= 0 && i < len(g.game) }

func (g *Grid) TileAt(layer Layer, index int) Tile {
	if !g.valid(index) {
		return Tile{}
	}
	if layer == LayerFront {
		return g.front[index]
	}
	return g.game[index]
}

// TilePos returns the centre of the tile at index.
func (g *Grid) TilePos(index int) mathx.Vec2 {
	if !g.valid(index) || g.Width == 0 {
		return mathx.Vec2{}
	}
	x := index % g.Width
	y := index / g.Width
	return mathx.V(float64(x*TileSize+TileSize/2), float64(y*TileSize+TileSize/2))
}

func (g *Grid) Tele(index int) TeleTile {
	if !g.valid(index) {
		return TeleTile{}
	}
	return g.tele[index]
}

// SpeedupAt returns the speed zone at index with its unit direction.
func (g *Grid) SpeedupAt(index int) (Speedup, mathx.Vec2, bool) {
	if !g.valid(index) {
		return Speedup{}, mathx.Vec2{}, false
	}
	s := g.speedup[index]
	if s.Force == 0 && s.MaxSpeed == 0 {
		return s, mathx.Vec2{}, false
	}
	return s, mathx.Dir(float64(s.Angle) * math.Pi / 180), true
}

func (g *Grid) TuneZone(index int) int {
	if !g.valid(index) {
		return 0
	}
	return g.tune[index]
}

func (g *Grid) TeleOuts(number int) []mathx.Vec2  { return g.teleOuts[number] }
func (g *Grid) CheckOuts(number int) []mathx.Vec2 { return g.checkOuts[number] }

func (g *Grid) gameID(x, y float64) uint8 {
	tx := mathx.ClampInt(tileCoord(x), 0, g.Width-1)
	ty := mathx.ClampInt(tileCoord(y), 0, g.Height-1)
	return g.game[ty*g.Width+tx].ID
}

func (g *Grid) frontID(x, y float64) uint8 {
	tx := mathx.ClampInt(tileCoord(x), 0, g.Width-1)
	ty := mathx.ClampInt(tileCoord(y), 0, g.Height-1)
	return g.front[ty*g.Width+tx].ID
}

func (g *Grid) IsSolid(x, y float64) bool  { return g.gameID(x, y) == TileSolid }
func (g *Grid) IsNoHook(x, y float64) bool { return g.gameID(x, y) == TileNoHook }

// IsDeathAt reports a death tile under pos on the game or front layer.
func (g *Grid) IsDeathAt(pos mathx.Vec2) bool {
	return g.gameID(pos.X, pos.Y) == TileDeath || g.frontID(pos.X, pos.Y) == TileDeath
}

// Clipped reports whether pos left the playable area entirely.
func (g *Grid) Clipped(pos mathx.Vec2) bool {
	x, y := tileCoord(pos.X), tileCoord(pos.Y)
	return x < -clipMargin || y < -clipMargin || x > g.Width+clipMargin || y > g.Height+clipMargin
}

// TraversedIndices lists, in travel order and without consecutive
// duplicates, the special tile indices crossed moving from a to b.
func (g *Grid) TraversedIndices(a, b mathx.Vec2) []int {
	d := a.Dist(b)
	steps := int(math.Ceil(d/(TileSize/4))) + 1
	var out []int
	last := -1
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		idx := g.IndexAt(mathx.MixVec(a, b, t))
		if idx < 0 || idx == last {
			continue
		}
		out = append(out, idx)
		last = idx
	}
	return out
}
