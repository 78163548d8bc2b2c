package character

import (
	"strings"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
)

const (
	SoundJump             = "player_jump"
	SoundAirJump          = "player_airjump"
	SoundHookAttachPlayer = "hook_attach_player"
	SoundHookAttachGround = "hook_attach_ground"
	SoundHookNoAttach     = "hook_noattach"
)

// Tick runs the per-tick step for one character: input, physics, weapons,
// tiles, abilities and obstacle push. Position changes happen later in
// TickDeferred.
func (c *Character) Tick() {
	if !c.alive {
		return
	}
	h := c.host
	now := h.Tick()

	if c.input.Direction != 0 || c.input.Jump != 0 {
		c.lastMove = now
	}
	if c.player.Stats.Frozen {
		c.input.Direction = 0
		c.input.Jump = 0
		c.input.Hook = 0
	}

	c.handleTuneLayer()

	c.core.Input = c.input
	c.core.Tick(true)

	c.handleWeaponSwitch()
	c.handleWeapons()

	c.tickEmotes(now)
	c.fixupJumps()
	if !c.resolveTiles() {
		return
	}

	c.aim = mathx.V(float64(c.latest.Cur.TargetX), float64(c.latest.Cur.TargetY)).Normalize()

	c.tickAbilities()
	if !c.alive {
		return
	}
	c.pushThroughArmorWall()

	if c.hittingDoor {
		c.core.Vel = c.core.Vel.Add(c.pushDirection.Scale(c.core.Vel.Len()))
		if c.core.Jumped&3 != 0 {
			c.core.Jumped &^= 2
		}
	} else {
		c.oldPos = c.core.Pos
	}
	c.hittingDoor = false

	c.latest = c.latest.Settle()
	c.prevPos = c.core.Pos
}

func (c *Character) tickEmotes(now int64) {
	p := c.player
	if p.DefaultEmoteReset >= 0 && p.DefaultEmoteReset <= now {
		p.DefaultEmoteReset = -1
		p.DefaultEmote = EmoteNormal
		c.emote = EmoteNormal
	}
	if c.emoteStop > -1 && c.emoteStop <= now {
		c.emoteStop = -1
		c.emote = p.DefaultEmote
	}
}

func (c *Character) fixupJumps() {
	core := &c.core
	switch {
	case core.Jumps == 0:
		core.Jumped = 3
	case core.Jumps == 1 && core.Jumped > 0:
		core.Jumped = 3
	case core.JumpedTotal < core.Jumps-1 && core.Jumped > 1:
		core.Jumped = 1
	}
	if c.superJump && core.Jumped > 1 {
		core.Jumped = 1
	}
}

// handleTuneLayer swaps the physics set when the character enters another
// tune zone.
func (c *Character) handleTuneLayer() {
	h := c.host
	zone := h.Map().TuneZone(h.Map().PureIndexAt(c.core.Pos))
	c.core.Tuning = h.Tuning().ZoneParams(zone)
	if zone == c.tuneZone {
		return
	}
	c.tuneZoneOld = c.tuneZone
	c.tuneZone = zone
	c.sendZoneMsgs()
	h.PushTuning(c.player.ID, zone)
}

// sendZoneMsgs prints the leave message of the old zone and the enter
// message of the new one. A literal \n in a message starts a new chat line.
func (c *Character) sendZoneMsgs() {
	zones := c.host.Tuning().Zones
	if c.tuneZoneOld >= 0 {
		if z, ok := zones[c.tuneZoneOld]; ok && z.Leave != "" {
			c.chatLines(z.Leave)
		}
	}
	if z, ok := zones[c.tuneZone]; ok && z.Enter != "" {
		c.chatLines(z.Enter)
	}
}

func (c *Character) chatLines(msg string) {
	for _, line := range strings.Split(msg, `\n`) {
		c.host.Chat(c.player.ID, line)
	}
}

// TickDeferred moves the character once every character has ticked.
func (c *Character) TickDeferred() {
	if !c.alive {
		return
	}
	h := c.host
	m := h.Map()
	ts := h.TickSpeed()

	c.reck.Advance(ts, m)

	size := mathx.V(physics.PhysSize, physics.PhysSize)
	stuckBefore := m.TestBox(c.core.Pos, size)
	c.core.Move()
	stuckMoved := m.TestBox(c.core.Pos, size)
	c.core.Quantize()
	stuckQuantized := m.TestBox(c.core.Pos, size)
	if !stuckBefore && (stuckMoved || stuckQuantized) {
		stage := "move"
		if !stuckMoved {
			stage = "quantize"
		}
		h.Diagnostic(protocol.Event{
			"type":   "STUCK",
			"t":      h.Tick(),
			"client": c.player.ID,
			"stage":  stage,
			"x":      c.core.Pos.X,
			"y":      c.core.Pos.Y,
			"vel_x":  c.core.Vel.X,
			"vel_y":  c.core.Vel.Y,
		})
	}
	c.pos = c.core.Pos

	ev := c.core.TriggeredEvents
	switch {
	case ev&physics.EventGroundJump != 0:
		c.sound(SoundJump)
	case ev&physics.EventAirJump != 0:
		c.sound(SoundAirJump)
		c.effect("air_jump", c.pos)
	}
	switch {
	case ev&physics.EventHookAttachPlayer != 0:
		c.sound(SoundHookAttachPlayer)
	case ev&physics.EventHookAttachGround != 0:
		c.sound(SoundHookAttachGround)
	case ev&physics.EventHookHitNoHook != 0:
		c.sound(SoundHookNoAttach)
	}

	c.reck.Reconcile(h.Tick(), ts, &c.core)
}

// TickPaused keeps every tick-stamped timer still while the world is paused.
func (c *Character) TickPaused() {
	c.attackTick++
	c.damageTakenTick++
	c.reck.Tick++
	if c.lastAction != -1 {
		c.lastAction++
	}
	if w := c.core.ActiveWeapon; w >= 0 && w < len(c.weapons) && c.weapons[w].AmmoRegenStart > -1 {
		c.weapons[w].AmmoRegenStart++
	}
	if c.emoteStop > -1 {
		c.emoteStop++
	}
}
