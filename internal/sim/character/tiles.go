package character

import (
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
	"outbreak.gg/internal/sim/tilemap"
	"outbreak.gg/internal/sim/tuning"
)

// InfectedByTile is the infector id passed to the controller when a human
// steps on a conversion tile.
const InfectedByTile = -5

// teleSalt separates teleporter rolls from other deterministic choices.
const teleSalt = 7

// resolveTiles runs the environment pipeline over every index crossed this
// tick. It returns false if the character died.
func (c *Character) resolveTiles() bool {
	m := c.host.Map()
	if c.touchesDeath() {
		c.Die(c.player.ID, tuning.WeaponWorld)
		return false
	}
	indices := m.TraversedIndices(c.prevPos, c.core.Pos)
	if len(indices) == 0 {
		indices = []int{m.IndexAt(c.core.Pos)}
	}
	for _, idx := range indices {
		if !c.handleTile(idx) {
			return false
		}
	}
	return true
}

func (c *Character) touchesDeath() bool {
	m := c.host.Map()
	const r = ProximityRadius / 3
	p := c.core.Pos
	for _, o := range [4]mathx.Vec2{{X: r, Y: -r}, {X: r, Y: r}, {X: -r, Y: -r}, {X: -r, Y: r}} {
		if m.IsDeathAt(p.Add(o)) {
			return true
		}
	}
	return m.Clipped(p)
}

// handleTile applies one index: zones, stoppers, speed zones, teleporters.
func (c *Character) handleTile(index int) bool {
	if index < 0 {
		c.hidden = false
		c.refillLatched = false
		return true
	}
	m := c.host.Map()
	tc := newTileContext(m, index, c.core.Pos)

	if !c.handleZones(tc) {
		return false
	}
	c.handleStoppers(tc, true)
	c.handleSpeedup(tc)
	c.handleTele(index)
	return true
}

func (c *Character) handleZones(tc tileContext) bool {
	h := c.host
	ctrl := h.Controller()
	m := h.Map()

	if t := m.Tele(tc.index); t.Kind == tilemap.TeleCheck && t.Number > 0 {
		c.teleCheckpoint = t.Number
	}

	if id, ok := tc.gameOrFront(tilemap.TileHoldpointBegin, tilemap.TileHoldpointEnd); ok {
		ctrl.OnHoldpoint(id - tilemap.TileHoldpointBegin)
	}
	if c.player.Team == TeamBlue {
		if id, ok := tc.gameOrFront(tilemap.TileZStopBegin, tilemap.TileZStopEnd); ok {
			ctrl.OnZStop(id - tilemap.TileZStopBegin)
		}
		if id, ok := tc.gameOrFront(tilemap.TileZHoldpointBegin, tilemap.TileZHoldpointEnd); ok {
			ctrl.OnZHoldpoint(id - tilemap.TileZHoldpointBegin + tilemap.ZHoldpointOffset)
		}
		if tc.has(tilemap.TileCP) {
			if ctrl.Warmup() {
				c.Die(c.player.ID, tuning.WeaponWorld)
				return false
			}
			ctrl.Infect(c.player, InfectedByTile)
		}
	}

	switch {
	case tc.has(tilemap.TileSuperStart) && !c.superJump:
		c.superJump = true
		h.Chat(c.player.ID, "You have unlimited air jumps")
		if c.core.Jumps == 0 {
			h.PushTuning(c.player.ID, c.tuneZone)
		}
	case tc.has(tilemap.TileSuperEnd) && c.superJump:
		c.superJump = false
		h.Chat(c.player.ID, "You don't have unlimited air jumps")
		if c.core.Jumps == 0 {
			h.PushTuning(c.player.ID, c.tuneZone)
		}
	}

	if tc.has(tilemap.TileWalljump) && c.core.Vel.Y > 0 && c.core.Colliding && c.core.LeftWall {
		c.core.LeftWall = false
		c.core.JumpedTotal = 0
		if c.core.Jumps >= 2 {
			c.core.JumpedTotal = c.core.Jumps - 2
		}
		c.core.Jumped = 1
	}

	if tc.has(tilemap.TileRefillJumps) {
		if !c.refillLatched {
			c.core.JumpedTotal = 0
			c.core.Jumped = 0
			c.refillLatched = true
		}
	} else {
		c.refillLatched = false
	}

	c.hidden = tc.has(tilemap.TileVisible)
	return true
}

// handleStoppers zeroes the velocity component pushing into a stopper. With
// rollback set, a character that already crossed the blocking tile's centre
// is put back where it was at the start of the tick.
func (c *Character) handleStoppers(tc tileContext, rollback bool) {
	m := c.host.Map()
	core := &c.core
	back := func(idx int, crossed func(tile mathx.Vec2) bool) {
		if rollback && crossed(m.TilePos(idx)) {
			core.Pos = c.prevPos
			core.Reset = true
		}
	}

	if core.Vel.X > 0 {
		if idx, ok := tc.blocksPosX(); ok {
			back(idx, func(t mathx.Vec2) bool { return t.X < core.Pos.X })
			core.Vel.X = 0
		}
	}
	if core.Vel.X < 0 {
		if idx, ok := tc.blocksNegX(); ok {
			back(idx, func(t mathx.Vec2) bool { return t.X > core.Pos.X })
			core.Vel.X = 0
		}
	}
	if core.Vel.Y < 0 {
		if idx, ok := tc.blocksNegY(); ok {
			back(idx, func(t mathx.Vec2) bool { return t.Y > core.Pos.Y })
			core.Vel.Y = 0
		}
	}
	if core.Vel.Y > 0 {
		if idx, ok := tc.blocksPosY(); ok {
			back(idx, func(t mathx.Vec2) bool { return t.Y < core.Pos.Y })
			core.Vel.Y = 0
			core.Jumped = 0
			core.JumpedTotal = 0
		}
	}
}

func (c *Character) handleSpeedup(tc tileContext) {
	sp, dir, ok := c.host.Map().SpeedupAt(tc.index)
	if !ok {
		return
	}
	core := &c.core
	if sp.Force == 255 && sp.MaxSpeed > 0 {
		core.Vel = dir.Scale(float64(sp.MaxSpeed / 5))
		c.handleStoppers(tc, false)
		return
	}
	maxSpeed := sp.MaxSpeed
	if maxSpeed > 0 && maxSpeed < 5 {
		maxSpeed = 5
	}
	if maxSpeed > 0 {
		// The step toward max speed is clamped to [-force, force], so a
		// character over the limit is slowed down.
		force := float64(sp.Force)
		left := float64(maxSpeed)/5 - dir.Dot(core.Vel)
		core.Vel = core.Vel.Add(dir.Scale(clampf(left, -force, force)))
	} else {
		core.Vel = core.Vel.Add(dir.Scale(float64(sp.Force)))
	}
	c.handleStoppers(tc, false)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pickDest chooses a destination deterministically. An empty list never
// yields an index.
func (c *Character) pickDest(outs []mathx.Vec2, number int) (mathx.Vec2, bool) {
	if len(outs) == 0 {
		return mathx.Vec2{}, false
	}
	h := c.host
	return outs[mathx.Pick(h.Seed(), h.Tick(), c.player.ID, number*teleSalt, len(outs))], true
}

func (c *Character) spawnFallback() (mathx.Vec2, bool) {
	return c.host.Controller().CanSpawn(c.player.Team)
}

func (c *Character) resetHook() {
	c.core.HookedPlayer = -1
	c.core.HookState = physics.HookRetracted
	c.core.TriggeredEvents |= physics.EventHookRetract
	c.core.HookPos = c.core.Pos
}

func (c *Character) loseWeapons() {
	for w := tuning.WeaponShotgun; w <= tuning.WeaponRifle; w++ {
		c.weapons[w].Got = false
	}
}

func (c *Character) teleportTo(to mathx.Vec2, evil bool) {
	g := c.host.Tuning().Game
	c.core.Pos = to
	c.core.Reset = true
	if evil {
		c.core.Vel = mathx.Vec2{}
		c.host.Core().ReleaseHooked(c.player.ID)
		c.resetHook()
	} else if !g.TeleportHoldHook {
		c.resetHook()
	}
	if g.TeleportLoseWeapons {
		c.loseWeapons()
	}
}

func (c *Character) handleTele(index int) {
	t := c.host.Map().Tele(index)
	switch t.Kind {
	case tilemap.TeleIn, tilemap.TeleEvil:
		to, ok := c.pickDest(c.host.Map().TeleOuts(t.Number), t.Number)
		if !ok {
			to, ok = c.spawnFallback()
		}
		if ok {
			c.teleportTo(to, t.Kind == tilemap.TeleEvil)
		}
	case tilemap.TeleCheckIn, tilemap.TeleCheckEvil:
		evil := t.Kind == tilemap.TeleCheckEvil
		for k := c.teleCheckpoint; k > 0; k-- {
			if to, ok := c.pickDest(c.host.Map().CheckOuts(k), k); ok {
				c.teleportTo(to, evil)
				return
			}
		}
		if to, ok := c.spawnFallback(); ok {
			c.teleportTo(to, evil)
		}
	}
}
