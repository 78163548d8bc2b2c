package physics

import (
	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
)

// Write serializes the core in wire precision. Two cores that would look the
// same to a client compare equal.
func (c *Core) Write() protocol.CharacterCore {
	return protocol.CharacterCore{
		X:            mathx.Round(c.Pos.X),
		Y:            mathx.Round(c.Pos.Y),
		VelX:         mathx.Round(c.Vel.X * 256),
		VelY:         mathx.Round(c.Vel.Y * 256),
		Angle:        c.Angle,
		Direction:    c.Direction,
		Jumped:       c.Jumped,
		HookedPlayer: c.HookedPlayer,
		HookState:    c.HookState,
		HookTick:     c.HookTick,
		HookX:        mathx.Round(c.HookPos.X),
		HookY:        mathx.Round(c.HookPos.Y),
		HookDx:       mathx.Round(c.HookDir.X * 256),
		HookDy:       mathx.Round(c.HookDir.Y * 256),
	}
}

// Read restores the wire fields of a core.
func (c *Core) Read(n protocol.CharacterCore) {
	c.Pos = mathx.V(float64(n.X), float64(n.Y))
	c.Vel = mathx.V(float64(n.VelX)/256, float64(n.VelY)/256)
	c.Angle = n.Angle
	c.Direction = n.Direction
	c.Jumped = n.Jumped
	c.HookedPlayer = n.HookedPlayer
	c.HookState = n.HookState
	c.HookTick = n.HookTick
	c.HookPos = mathx.V(float64(n.HookX), float64(n.HookY))
	c.HookDir = mathx.V(float64(n.HookDx)/256, float64(n.HookDy)/256)
}

// Quantize rounds the core to wire precision so server and client stay in step.
func (c *Core) Quantize() {
	c.Read(c.Write())
}
