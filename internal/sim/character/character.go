package character

import (
	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
	"outbreak.gg/internal/sim/tuning"
)

const (
	MaxHealth = 12000
	MaxArmor  = 10

	// ProximityRadius is the character's radius used for scans and probes.
	ProximityRadius = physics.PhysSize

	numAuxIDs = 4
)

// Emotes.
const (
	EmoteNormal = iota
	EmotePain
	EmoteHappy
	EmoteSurprise
	EmoteAngry
	EmoteBlink
)

type weaponSlot struct {
	Got            bool
	Ammo           int
	AmmoRegenStart int64
}

// Character is one live actor. It is created by Spawn and destroyed by Die or
// Destroy; all mutation happens on the world's tick goroutine.
type Character struct {
	host   Host
	player *Player
	alive  bool

	core physics.Core
	reck Reckoner

	pos     mathx.Vec2
	prevPos mathx.Vec2
	oldPos  mathx.Vec2
	aim     mathx.Vec2

	health int
	armor  int

	weapons      [tuning.NumWeapons]weaponSlot
	queuedWeapon int
	lastWeapon   int
	reloadTimer  int
	regenTime    int
	maxAmmo      int
	attackTick   int64
	lastAction   int64
	lastMove     int64

	damageTaken     int
	damageTakenTick int64

	emote     int
	emoteStop int64

	input     protocol.PlayerInput
	latest    InputPair
	numInputs int

	tuneZone       int
	tuneZoneOld    int
	teleCheckpoint int
	superJump      bool
	refillLatched  bool
	hidden         bool

	hittingDoor   bool
	pushDirection mathx.Vec2

	timers       [numAbilities]int
	subSecond    int
	armorWall    bool
	heartShield  bool
	slowBomb     bool
	fistBomb     bool
	thrownBomb   bool
	hammeredBomb bool
	heartAimed   bool
	burnedFrom   int

	rifleAnchor   placement
	turretAnchors [tuning.NumWeapons]placement
	turretPlaced  [tuning.NumWeapons]bool

	auxIDs [numAuxIDs]int
}

// Spawn creates a character for p at pos and registers its core with the
// host's physics world.
func Spawn(h Host, p *Player, pos mathx.Vec2) *Character {
	ts := h.TickSpeed()
	c := &Character{
		host:         h,
		player:       p,
		alive:        true,
		pos:          pos,
		prevPos:      pos,
		oldPos:       pos,
		emoteStop:    -1,
		lastAction:   -1,
		queuedWeapon: -1,
		lastWeapon:   tuning.WeaponHammer,
		burnedFrom:   p.ID,
		tuneZoneOld:  -1,
	}
	for i := range c.auxIDs {
		c.auxIDs[i] = h.NewSnapID()
	}
	for i := range c.weapons {
		c.weapons[i].AmmoRegenStart = -1
	}

	c.core.ID = p.ID
	c.core.Tuning = h.Tuning().Physics
	c.core.Init(h.Core(), h.Map())
	c.core.Clear()
	c.core.Pos = pos
	c.core.HookPos = pos
	c.core.Reset = true
	h.Core().Set(p.ID, &c.core)

	c.timers[abilityArmorWall] = 10 * ts
	c.timers[abilityHeart] = 1 * ts

	c.tuneZone = h.Map().TuneZone(h.Map().PureIndexAt(pos))
	c.core.Tuning = h.Tuning().ZoneParams(c.tuneZone)
	c.sendZoneMsgs()
	h.PushTuning(p.ID, c.tuneZone)

	c.core.Jumps = 2 + p.JumpBonus
	c.maxAmmo = MaxAmmoFor(p.Stats)

	h.Controller().OnCharacterSpawn(c)

	if p.Team == TeamRed {
		c.core.ActiveWeapon = tuning.WeaponHammer
	} else if p.Team == TeamBlue {
		c.core.ActiveWeapon = tuning.WeaponGun
	}

	h.Broadcast(p.ID, "")
	return c
}

// MaxAmmoFor returns the ammo capacity granted by a progression bracket.
func MaxAmmoFor(s Progression) int {
	switch {
	case s.Level >= 100:
		return 30 + s.AmmoBonus
	case s.Level >= 50:
		return 20 + s.AmmoBonus
	}
	return 10 + s.AmmoBonus
}

// Destroy releases everything the character holds. Safe to call more than once.
func (c *Character) Destroy() {
	for i, id := range c.auxIDs {
		if id >= 0 {
			c.host.FreeSnapID(id)
			c.auxIDs[i] = -1
		}
	}
	if w := c.host.Core(); w.Character(c.player.ID) == &c.core {
		w.Set(c.player.ID, nil)
	}
	c.alive = false
}

func (c *Character) ID() int                     { return c.player.ID }
func (c *Character) Player() *Player             { return c.player }
func (c *Character) Team() int                   { return c.player.Team }
func (c *Character) Alive() bool                 { return c.alive }
func (c *Character) Pos() mathx.Vec2             { return c.pos }
func (c *Character) Core() *physics.Core         { return &c.core }
func (c *Character) Health() int                 { return c.health }
func (c *Character) Armor() int                  { return c.armor }
func (c *Character) ActiveWeapon() int           { return c.core.ActiveWeapon }
func (c *Character) QueuedWeapon() int           { return c.queuedWeapon }
func (c *Character) ReloadTimer() int            { return c.reloadTimer }
func (c *Character) Emote() int                  { return c.emote }
func (c *Character) TuneZone() int               { return c.tuneZone }
func (c *Character) Invisible() bool             { return c.timers[abilityInvis] > 0 }
func (c *Character) ArmorWallActive() bool       { return c.armorWall }
func (c *Character) Reckoner() *Reckoner         { return &c.reck }
func (c *Character) AuxIDs() [numAuxIDs]int      { return c.auxIDs }
func (c *Character) Timer(a Ability) int         { return c.timers[a] }
func (c *Character) Aim() mathx.Vec2             { return c.aim }
func (c *Character) Input() protocol.PlayerInput { return c.input }

// Weapon reports possession and ammo of slot w.
func (c *Character) Weapon(w int) (got bool, ammo int) {
	if w < 0 || w >= len(c.weapons) {
		return false, 0
	}
	return c.weapons[w].Got, c.weapons[w].Ammo
}

// SetReloadTimer is used by entities that impose a weapon cooldown.
func (c *Character) SetReloadTimer(ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	c.reloadTimer = ticks
}

func (c *Character) SetEmote(emote int, stop int64) {
	c.emote = emote
	c.emoteStop = stop
}

// SetZomb switches a converted character to the zombie loadout.
func (c *Character) SetZomb() {
	c.core.ActiveWeapon = tuning.WeaponHammer
	c.lastWeapon = tuning.WeaponNinja
	c.queuedWeapon = -1
	c.armor = 0
	c.armorWall = false
}

// GiveWeapon grants or tops up slot w. It reports whether anything changed.
func (c *Character) GiveWeapon(w, ammo int) bool {
	if w < 0 || w >= len(c.weapons) {
		return false
	}
	s := &c.weapons[w]
	topUp := (w == tuning.WeaponRifle && s.Ammo == 0) || (w != tuning.WeaponRifle && s.Ammo < 5) || !s.Got
	if !topUp {
		return false
	}
	s.Got = true
	if w == tuning.WeaponRifle {
		s.Ammo = mathx.MinInt(2, ammo)
	} else {
		s.Ammo = mathx.MinInt(c.maxAmmo, ammo)
	}
	return true
}

// Ignite sets a human on fire for three seconds, credited to from.
func (c *Character) Ignite(from int) {
	if c.player.Team != TeamBlue {
		return
	}
	c.burnedFrom = from
	c.timers[abilityBurn] = 3 * c.host.TickSpeed()
}

// BlockByObstacle is called by doors and walls that push the character back.
func (c *Character) BlockByObstacle(push mathx.Vec2) {
	c.hittingDoor = true
	c.pushDirection = push
}

// OnPredictedInput feeds the movement input used by the physics core.
func (c *Character) OnPredictedInput(in protocol.PlayerInput) {
	if in != c.input {
		c.lastAction = c.host.Tick()
	}
	c.input = aimFixed(in)
	c.numInputs++
}

// OnDirectInput feeds the input used for weapon edges.
func (c *Character) OnDirectInput(in protocol.PlayerInput) {
	c.latest = c.latest.With(aimFixed(in))
}

// ResetInput simulates releasing every button.
func (c *Character) ResetInput() {
	c.input.Direction = 0
	c.input.Hook = 0
	if c.input.Fire&1 != 0 {
		c.input.Fire++
	}
	c.input.Fire &= inputStateMask
	c.input.Jump = 0
	c.latest = InputPair{Prev: c.input, Cur: c.input}
}

func (c *Character) event(kind string, pos mathx.Vec2) protocol.Event {
	return protocol.Event{
		"type":   kind,
		"client": c.player.ID,
		"x":      mathx.Round(pos.X),
		"y":      mathx.Round(pos.Y),
	}
}

func (c *Character) sound(name string) {
	ev := c.event("SOUND", c.pos)
	ev["sound"] = name
	c.host.Emit(ev)
}

func (c *Character) soundTo(name string, to int) {
	ev := c.event("SOUND", c.pos)
	ev["sound"] = name
	ev["to"] = to
	c.host.Emit(ev)
}

func (c *Character) effect(name string, pos mathx.Vec2) {
	ev := c.event("EFFECT", pos)
	ev["effect"] = name
	c.host.Emit(ev)
}
