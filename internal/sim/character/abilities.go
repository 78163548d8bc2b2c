package character

import (
	"fmt"
	"strings"

	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

// Ability indexes the tick-counted timers.
type Ability int

const (
	abilityHeart Ability = iota
	abilityInvisCooldown
	abilityInvis
	abilityArmorWall
	abilitySlowBomb
	abilityBurn
	numAbilities
)

// Exported aliases for callers that inspect timers.
const (
	AbilityHeart         = abilityHeart
	AbilityInvisCooldown = abilityInvisCooldown
	AbilityInvis         = abilityInvis
	AbilityArmorWall     = abilityArmorWall
	AbilitySlowBomb      = abilitySlowBomb
	AbilityBurn          = abilityBurn
)

const anyTeam = -2

// subSecondTicks drives the fractional part of the status overlays.
const subSecondTicks = 50

type abilitySpec struct {
	name string
	// gate, if set, must hold for the timer to run.
	gate func(c *Character) bool
	// subSecond timers share one fractional display counter.
	subSecond bool

	statusTeam  int
	statusEvery int
	status      func(c *Character, left int) string

	onTick func(c *Character)

	clearTeam int
	clear     bool
	onExpire  func(c *Character)
}

func pad(n int) string { return strings.Repeat("\n", n) }

var abilityTable = [numAbilities]abilitySpec{
	abilityHeart: {name: "heart"},
	abilityInvisCooldown: {
		name:        "invis_cooldown",
		statusTeam:  TeamBlue,
		statusEvery: 50,
		status: func(c *Character, left int) string {
			return fmt.Sprintf("%sCooldown (invis): %d", pad(18), left/c.host.TickSpeed())
		},
		clear:     true,
		clearTeam: anyTeam,
	},
	abilityInvis: {
		name:        "invis",
		subSecond:   true,
		statusTeam:  TeamBlue,
		statusEvery: 2,
		status: func(c *Character, left int) string {
			return fmt.Sprintf("%sInvis: %d.%d", pad(13), left/c.host.TickSpeed(), c.subSecond*2)
		},
		clear:     true,
		clearTeam: TeamBlue,
		onExpire: func(c *Character) {
			if c.player.Team == TeamBlue {
				c.effect("player_spawn", c.pos)
			}
		},
	},
	abilityArmorWall: {
		name:        "armorwall",
		gate:        func(c *Character) bool { return c.armorWall },
		subSecond:   true,
		statusTeam:  anyTeam,
		statusEvery: 1,
		status: func(c *Character, left int) string {
			return fmt.Sprintf("%sArmorwall: %d.%d", pad(13), left/c.host.TickSpeed(), c.subSecond*2)
		},
		clear:     true,
		clearTeam: anyTeam,
		onExpire:  func(c *Character) { c.armorWall = false },
	},
	abilitySlowBomb: {
		name:        "slowbomb",
		subSecond:   true,
		statusTeam:  anyTeam,
		statusEvery: 1,
		status: func(c *Character, left int) string {
			return fmt.Sprintf("%sSlowbomb: %d.%d", pad(13), left/c.host.TickSpeed(), c.subSecond*2)
		},
		onTick: func(c *Character) {
			if c.hammeredBomb {
				c.timers[abilitySlowBomb] = 0
			}
		},
		clear:     true,
		clearTeam: anyTeam,
		onExpire: func(c *Character) {
			c.thrownBomb = false
			c.hammeredBomb = false
			c.subSecond = 0
		},
	},
	abilityBurn: {
		name: "burn",
		onTick: func(c *Character) {
			if c.player.Team != TeamBlue {
				return
			}
			c.core.Vel = c.core.Vel.Scale(0.5)
			if c.timers[abilityBurn]%20 == 0 {
				c.effect("explosion", c.core.Pos)
				c.TakeDamage(mathx.Vec2{}, 1, c.burnedFrom, tuning.WeaponGrenade)
			}
		},
	},
}

func teamMatches(want, team int) bool { return want == anyTeam || want == team }

// tickAbilities decrements every running timer once. Timers never go below
// zero and each activation clears its overlay exactly once.
func (c *Character) tickAbilities() {
	tick := c.host.Tick()
	team := c.player.Team
	for i := range abilityTable {
		spec := &abilityTable[i]
		if c.timers[i] <= 0 {
			continue
		}
		if spec.gate != nil && !spec.gate(c) {
			continue
		}
		if spec.subSecond {
			if c.subSecond <= 0 {
				c.subSecond = subSecondTicks
			}
			c.subSecond--
		}
		c.timers[i]--

		if spec.status != nil && teamMatches(spec.statusTeam, team) && tick%int64(spec.statusEvery) == 0 {
			c.host.Broadcast(c.player.ID, spec.status(c, c.timers[i]))
		}
		if spec.onTick != nil {
			spec.onTick(c)
			if !c.alive {
				return
			}
		}
		if c.timers[i] == 0 {
			if spec.clear && teamMatches(spec.clearTeam, team) {
				c.host.Broadcast(c.player.ID, " ")
			}
			if spec.onExpire != nil {
				spec.onExpire(c)
			}
		}
	}
}

// SwitchShield toggles the human armor wall.
func (c *Character) SwitchShield() {
	if c.player.Team != TeamBlue {
		return
	}
	h := c.host
	if c.timers[abilityArmorWall] == 0 {
		h.Chat(c.player.ID, "You have no armorwall time :(")
		return
	}
	if !c.armorWall {
		if c.timers[abilityInvis] > 0 {
			h.Chat(c.player.ID, "You can't use invisible and armorwall together!")
			return
		}
		c.armorWall = true
		return
	}
	h.Broadcast(c.player.ID, " ")
	c.armorWall = false
	if left := c.timers[abilityInvisCooldown]; left > 0 {
		h.Broadcast(c.player.ID, fmt.Sprintf("%sCooldown (invis): %d", pad(18), left/h.TickSpeed()))
	}
}

func (c *Character) SwitchHeartShield(on bool) { c.heartShield = on }

// SwitchSlowBomb arms or disarms the zombie slow bomb.
func (c *Character) SwitchSlowBomb(on bool) {
	if c.player.Team != TeamRed {
		return
	}
	c.slowBomb = on
	if !on {
		c.fistBomb = false
	}
}

type placement struct {
	at  mathx.Vec2
	set bool
}

// maxPlacementSpan clamps two-click placements.
const maxPlacementSpan = 360

func validatePlacement(m MapService, anchor, at mathx.Vec2) (mathx.Vec2, string, bool) {
	if anchor == at {
		return at, "The second point can not be set here", false
	}
	if hit, _, _ := m.IntersectLine(anchor, at); hit {
		return at, "Wall can't be placed between your points.", false
	}
	if anchor.Dist(at) < 50 {
		return at, "This distance is too short :(", false
	}
	if at.Sub(anchor).Len() > maxPlacementSpan {
		at = anchor.Add(at.Sub(anchor).Normalize().Scale(maxPlacementSpan))
	}
	return at, "", true
}

// PlaceTurret places a turret for the active weapon, once per weapon per life.
// Rifle and grenade turrets span two clicks.
func (c *Character) PlaceTurret() {
	w := c.core.ActiveWeapon
	if w < 0 || w >= tuning.NumWeapons || c.turretPlaced[w] {
		return
	}
	id := c.player.ID
	switch w {
	case tuning.WeaponHammer, tuning.WeaponGun, tuning.WeaponShotgun:
		c.host.SpawnTurret(Turret{Owner: id, Weapon: w, Pos: c.pos})
		c.turretPlaced[w] = true
	case tuning.WeaponRifle, tuning.WeaponGrenade:
		a := &c.turretAnchors[w]
		if !a.set {
			*a = placement{at: c.pos, set: true}
			return
		}
		anchor := a.at
		*a = placement{}
		to, reason, ok := validatePlacement(c.host.Map(), anchor, c.pos)
		if !ok {
			c.host.Chat(id, reason)
			return
		}
		c.host.SpawnTurret(Turret{Owner: id, Weapon: w, Pos: anchor, From: anchor, To: to})
		c.turretPlaced[w] = true
	}
}

// armorWallSegment returns the ends of the wall held in front of the character.
func (c *Character) armorWallSegment() (mathx.Vec2, mathx.Vec2) {
	a := mathx.V(float64(c.input.TargetX), float64(c.input.TargetY)).Angle()
	return c.pos.Add(mathx.Dir(a + 0.4).Scale(80)), c.pos.Add(mathx.Dir(a - 0.4).Scale(80))
}

// pushThroughArmorWall sends zombies that touch the wall back to where they were.
func (c *Character) pushThroughArmorWall() {
	if !c.armorWall || c.player.Team != TeamBlue || c.timers[abilityArmorWall] == 0 {
		return
	}
	from, to := c.armorWallSegment()
	mid := mathx.MixVec(from, to, 0.5)
	for _, z := range c.host.CharactersNear(mid, from.Dist(to)/2+ProximityRadius+2) {
		if z == c || !z.alive || z.player.Team != TeamRed {
			continue
		}
		p := mathx.ClosestPointOnSegment(from, to, z.pos)
		if z.pos.Dist(p) < ProximityRadius+2 {
			push := z.pos.Sub(c.pos)
			z.core.Pos = z.oldPos
			z.core.Vel = z.core.Vel.Add(push.Scale(0.1))
		}
	}
}
