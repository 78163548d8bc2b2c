package character

import (
	"sort"
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
	"outbreak.gg/internal/sim/tilemap"
	"outbreak.gg/internal/sim/tuning"
)

const arenaMap = `
name: arena
rows:
  - "####################"
  - "#..................#"
  - "#.~z>.....T..C.....#"
  - "#..................#"
  - "#..........X.......#"
  - "####################"
legend:
  "#": {game: solid}
  "X": {game: death}
  "T": {tele: in, number: 9}
  "C": {tele: check_in, number: 1}
  ">": {game: stop, rot: 270}
  "~": {speedup: {force: 5, angle: 0}}
  "z": {tune: 2}
`

type line struct {
	to   int
	text string
}

type fakeController struct {
	h        *fakeHost
	spawn    mathx.Vec2
	canSpawn bool
	warmup   bool
	infected []int
	holds    []int
	special  int
}

func (f *fakeController) CanSpawn(int) (mathx.Vec2, bool) { return f.spawn, f.canSpawn }

func (f *fakeController) IsFriendlyFire(victim, attacker int) bool {
	v, a := f.h.players[victim], f.h.players[attacker]
	return v != nil && a != nil && v.Team == a.Team
}

func (f *fakeController) OnCharacterSpawn(c *Character) {
	c.IncreaseHealth(MaxHealth)
	c.GiveWeapon(tuning.WeaponHammer, -1)
	if c.Team() == TeamBlue {
		c.GiveWeapon(tuning.WeaponGun, 10)
	}
}

func (f *fakeController) OnCharacterDeath(*Character, int, int) int { return f.special }

func (f *fakeController) Infect(victim *Player, by int) {
	victim.Team = TeamRed
	f.infected = append(f.infected, victim.ID)
	if c := f.h.chars[victim.ID]; c != nil {
		c.SetZomb()
	}
}

func (f *fakeController) OnHoldpoint(n int) { f.holds = append(f.holds, n) }
func (f *fakeController) OnZStop(int)       {}
func (f *fakeController) OnZHoldpoint(int)  {}
func (f *fakeController) Warmup() bool      { return f.warmup }

type fakeHost struct {
	t      *testing.T
	tick   int64
	paused bool
	tun    tuning.Tuning
	grid   *tilemap.Grid
	ctrl   *fakeController
	world  *physics.World

	players map[int]*Player
	chars   map[int]*Character

	events      []protocol.Event
	chats       []line
	broadcasts  []line
	kills       []protocol.KillMsg
	diags       []protocol.Event
	projectiles []Projectile
	walls       []Wall
	turrets     []Turret
	tunings     []int
	removed     int

	nextSnap int
	freed    []int
}

func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()
	return newFakeHostMap(t, arenaMap)
}

func newFakeHostMap(t *testing.T, src string) *fakeHost {
	t.Helper()
	g, err := tilemap.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tun := tuning.Defaults()
	tun.Zones[2] = tuning.Zone{Enter: `Slow zone\nwatch out`, Leave: "bye"}
	h := &fakeHost{
		t:        t,
		tick:     1,
		tun:      tun,
		grid:     g,
		world:    physics.NewWorld(tun.TickRateHz),
		players:  map[int]*Player{},
		chars:    map[int]*Character{},
		nextSnap: 100,
	}
	h.ctrl = &fakeController{h: h}
	return h
}

func tileCentre(x, y int) mathx.Vec2 {
	return mathx.V(float64(x*tilemap.TileSize+tilemap.TileSize/2), float64(y*tilemap.TileSize+tilemap.TileSize/2))
}

func (h *fakeHost) spawn(id, team int, pos mathx.Vec2) *Character {
	p := NewPlayer(id, "p", team)
	h.players[id] = p
	c := Spawn(h, p, pos)
	h.chars[id] = c
	return c
}

func (h *fakeHost) soundCount(name string) int {
	n := 0
	for _, ev := range h.events {
		if ev.Type() == "SOUND" && ev["sound"] == name {
			n++
		}
	}
	return n
}

func (h *fakeHost) Tick() int64                  { return h.tick }
func (h *fakeHost) TickSpeed() int               { return h.tun.TickRateHz }
func (h *fakeHost) Seed() int64                  { return h.tun.Seed }
func (h *fakeHost) Paused() bool                 { return h.paused }
func (h *fakeHost) Tuning() *tuning.Tuning       { return &h.tun }
func (h *fakeHost) Map() MapService              { return h.grid }
func (h *fakeHost) Controller() Controller       { return h.ctrl }
func (h *fakeHost) Core() *physics.World         { return h.world }
func (h *fakeHost) Player(id int) *Player        { return h.players[id] }
func (h *fakeHost) SpawnProjectile(p Projectile) { h.projectiles = append(h.projectiles, p) }
func (h *fakeHost) SpawnWall(w Wall)             { h.walls = append(h.walls, w) }
func (h *fakeHost) SpawnTurret(t Turret)         { h.turrets = append(h.turrets, t) }
func (h *fakeHost) SpawnMine(int, mathx.Vec2)    {}
func (h *fakeHost) DestroyTurret(int)            {}
func (h *fakeHost) Emit(ev protocol.Event)       { h.events = append(h.events, ev) }
func (h *fakeHost) Chat(to int, text string)     { h.chats = append(h.chats, line{to, text}) }
func (h *fakeHost) Broadcast(to int, text string) {
	h.broadcasts = append(h.broadcasts, line{to, text})
}
func (h *fakeHost) PushTuning(_ int, zone int)   { h.tunings = append(h.tunings, zone) }
func (h *fakeHost) Kill(k protocol.KillMsg)      { h.kills = append(h.kills, k) }
func (h *fakeHost) Diagnostic(ev protocol.Event) { h.diags = append(h.diags, ev) }
func (h *fakeHost) FreeSnapID(id int)            { h.freed = append(h.freed, id) }

func (h *fakeHost) TurretsNear(mathx.Vec2, float64) []TurretRef { return nil }

func (h *fakeHost) Character(id int) *Character {
	if c := h.chars[id]; c != nil && c.Alive() {
		return c
	}
	return nil
}

func (h *fakeHost) CharactersNear(pos mathx.Vec2, radius float64) []*Character {
	var ids []int
	for id, c := range h.chars {
		if c.Alive() && c.Pos().Dist(pos) < radius+ProximityRadius {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]*Character, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.chars[id])
	}
	return out
}

func (h *fakeHost) RemoveCharacter(c *Character) {
	delete(h.chars, c.ID())
	c.Destroy()
	h.removed++
}

func (h *fakeHost) NewSnapID() int {
	h.nextSnap++
	return h.nextSnap
}
