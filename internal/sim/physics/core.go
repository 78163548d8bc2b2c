package physics

import (
	"math"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

// PhysSize is the diameter of a character's collision box.
const PhysSize = 28.0

// MaxClients bounds the per-world character table.
const MaxClients = 64

// Hook states.
const (
	HookRetracted    = -1
	HookIdle         = 0
	HookRetractStart = 1
	HookRetractEnd   = 3
	HookFlying       = 4
	HookGrabbed      = 5
)

// Core events, reported through TriggeredEvents for one tick.
const (
	EventGroundJump       = 0x01
	EventAirJump          = 0x02
	EventHookLaunch       = 0x04
	EventHookAttachPlayer = 0x08
	EventHookAttachGround = 0x10
	EventHookHitNoHook    = 0x20
	EventHookRetract      = 0x40
)

// Collision is the subset of the map the core needs.
type Collision interface {
	IsSolid(x, y float64) bool
	IsNoHook(x, y float64) bool
	IntersectLine(a, b mathx.Vec2) (bool, mathx.Vec2, mathx.Vec2)
	TestBox(pos, size mathx.Vec2) bool
	MoveBox(pos, vel, size mathx.Vec2, elasticity float64) (mathx.Vec2, mathx.Vec2)
}

// World holds the cores that can collide with and hook each other.
type World struct {
	TickSpeed  int
	Characters [MaxClients]*Core
}

func NewWorld(tickSpeed int) *World { return &World{TickSpeed: tickSpeed} }

func (w *World) Character(id int) *Core {
	if w == nil || id < 0 || id >= MaxClients {
		return nil
	}
	return w.Characters[id]
}

func (w *World) Set(id int, c *Core) {
	if id >= 0 && id < MaxClients {
		w.Characters[id] = c
	}
}

// ReleaseHooked makes every core that holds id let go.
func (w *World) ReleaseHooked(id int) {
	for _, c := range w.Characters {
		if c != nil && c.HookedPlayer == id {
			c.HookedPlayer = -1
			c.HookState = HookRetracted
			c.TriggeredEvents |= EventHookRetract
		}
	}
}

// Core is the deterministic per-character movement state.
type Core struct {
	World  *World
	Map    Collision
	Tuning tuning.Params
	ID     int

	Pos      mathx.Vec2
	Vel      mathx.Vec2
	HookPos  mathx.Vec2
	HookDir  mathx.Vec2
	HookTick int

	HookState    int
	HookedPlayer int

	Jumped      int
	JumpedTotal int
	Jumps       int

	Direction int
	Angle     int
	Input     protocol.PlayerInput

	TriggeredEvents int
	Colliding       bool
	LeftWall        bool
	ActiveWeapon    int

	// Reset asks the reconciler to resync on the next deferred tick. It is
	// raised whenever the position jumps: spawn, teleport, stopper rollback.
	Reset bool
}

// Init attaches the core to a world and map. State is left untouched so a
// copied core can be re-attached to a private world.
func (c *Core) Init(w *World, m Collision) {
	c.World = w
	c.Map = m
}

// Clear resets all movement state.
func (c *Core) Clear() {
	w, m, p, id := c.World, c.Map, c.Tuning, c.ID
	*c = Core{World: w, Map: m, Tuning: p, ID: id}
	c.HookedPlayer = -1
	c.HookState = HookIdle
	c.Jumps = 2
}

func (c *Core) tickSpeed() int {
	if c.World != nil && c.World.TickSpeed > 0 {
		return c.World.TickSpeed
	}
	return 50
}

// Grounded reports solid ground just under the box.
func (c *Core) Grounded() bool {
	const h = PhysSize / 2
	return c.Map.IsSolid(c.Pos.X+h, c.Pos.Y+h+5) || c.Map.IsSolid(c.Pos.X-h, c.Pos.Y+h+5)
}

func (c *Core) retractHook() {
	c.HookedPlayer = -1
	c.HookState = HookRetracted
	c.HookPos = c.Pos
}

// Tick advances velocity and hook state. Position changes only in Move.
func (c *Core) Tick(useInput bool) {
	p := &c.Tuning
	c.TriggeredEvents = 0

	grounded := c.Grounded()
	if grounded {
		c.LeftWall = true
	}
	targetDir := mathx.V(float64(c.Input.TargetX), float64(c.Input.TargetY)).Normalize()

	c.Vel.Y += p.Gravity

	maxSpeed, accel, friction := p.AirControlSpeed, p.AirControlAccel, p.AirFriction
	if grounded {
		maxSpeed, accel, friction = p.GroundControlSpeed, p.GroundControlAccel, p.GroundFriction
	}

	if useInput {
		c.Direction = c.Input.Direction
		c.Angle = inputAngle(c.Input.TargetX, c.Input.TargetY)

		if c.Input.Jump != 0 {
			if c.Jumped&1 == 0 {
				if grounded {
					c.TriggeredEvents |= EventGroundJump
					c.Vel.Y = -p.GroundJumpImpulse
					c.Jumped |= 1
					c.JumpedTotal = 1
				} else if c.Jumped&2 == 0 {
					c.TriggeredEvents |= EventAirJump
					c.Vel.Y = -p.AirJumpImpulse
					c.Jumped |= 3
					c.JumpedTotal++
				}
			}
		} else {
			c.Jumped &^= 1
		}

		if c.Input.Hook != 0 {
			if c.HookState == HookIdle {
				c.HookState = HookFlying
				c.HookPos = c.Pos.Add(targetDir.Scale(PhysSize * 1.5))
				c.HookDir = targetDir
				c.HookedPlayer = -1
				c.HookTick = 0
				c.TriggeredEvents |= EventHookLaunch
			}
		} else {
			c.HookedPlayer = -1
			c.HookState = HookIdle
			c.HookPos = c.Pos
		}
	}

	switch {
	case c.Direction < 0:
		c.Vel.X = mathx.SaturatedAdd(-maxSpeed, maxSpeed, c.Vel.X, -accel)
	case c.Direction > 0:
		c.Vel.X = mathx.SaturatedAdd(-maxSpeed, maxSpeed, c.Vel.X, accel)
	default:
		c.Vel.X *= friction
	}

	if grounded {
		c.Jumped &^= 2
		c.JumpedTotal = 0
	}

	c.tickHook()
	c.tickInteractions()

	if c.Vel.Len() > 6000 {
		c.Vel = c.Vel.Normalize().Scale(6000)
	}
}

func (c *Core) tickHook() {
	p := &c.Tuning
	switch {
	case c.HookState == HookIdle:
		c.HookedPlayer = -1
		c.HookPos = c.Pos
	case c.HookState >= HookRetractStart && c.HookState < HookRetractEnd:
		c.HookState++
	case c.HookState == HookRetractEnd:
		c.HookState = HookRetracted
		c.TriggeredEvents |= EventHookRetract
	case c.HookState == HookFlying:
		next := c.HookPos.Add(c.HookDir.Scale(p.HookFireSpeed))
		if c.Pos.Dist(next) > p.HookLength {
			c.HookState = HookRetractStart
			next = c.Pos.Add(next.Sub(c.Pos).Normalize().Scale(p.HookLength))
		}

		hitGround, hitNoHook := false, false
		if hit, at, _ := c.Map.IntersectLine(c.HookPos, next); hit {
			if c.Map.IsNoHook(at.X, at.Y) {
				hitNoHook = true
			} else {
				hitGround = true
			}
			next = at
		}

		if c.World != nil && p.PlayerHooking > 0 {
			best := 0.0
			for id, o := range c.World.Characters {
				if o == nil || o == c {
					continue
				}
				closest := mathx.ClosestPointOnSegment(c.HookPos, next, o.Pos)
				if o.Pos.Dist(closest) < PhysSize+2 {
					d := c.HookPos.Dist(o.Pos)
					if c.HookedPlayer == -1 || d < best {
						c.TriggeredEvents |= EventHookAttachPlayer
						c.HookState = HookGrabbed
						c.HookedPlayer = id
						best = d
					}
				}
			}
		}

		if c.HookState == HookFlying {
			if hitGround {
				c.TriggeredEvents |= EventHookAttachGround
				c.HookState = HookGrabbed
			} else if hitNoHook {
				c.TriggeredEvents |= EventHookHitNoHook
				c.HookState = HookRetractStart
			}
			c.HookPos = next
		}
	}

	if c.HookState != HookGrabbed {
		return
	}
	if c.HookedPlayer != -1 {
		if o := c.World.Character(c.HookedPlayer); o != nil {
			c.HookPos = o.Pos
		} else {
			c.retractHook()
		}
	}
	if c.HookedPlayer == -1 && c.HookPos.Dist(c.Pos) > 46 {
		hv := c.HookPos.Sub(c.Pos).Normalize().Scale(p.HookDragAccel)
		if hv.Y > 0 {
			hv.Y *= 0.3
		}
		if (hv.X < 0 && c.Direction < 0) || (hv.X > 0 && c.Direction > 0) {
			hv.X *= 0.95
		} else {
			hv.X *= 0.75
		}
		nv := c.Vel.Add(hv)
		if nv.Len() < p.HookDragSpeed || nv.Len() < c.Vel.Len() {
			c.Vel = nv
		}
	}
	c.HookTick++
	limit := int(float64(c.tickSpeed()) * p.HookDuration)
	if c.HookedPlayer != -1 && (c.HookTick > limit || c.World.Character(c.HookedPlayer) == nil) {
		c.retractHook()
	}
}

func (c *Core) tickInteractions() {
	if c.World == nil {
		return
	}
	p := &c.Tuning
	for id, o := range c.World.Characters {
		if o == nil || o == c {
			continue
		}
		d := c.Pos.Dist(o.Pos)
		dir := c.Pos.Sub(o.Pos).Normalize()
		if p.PlayerCollision > 0 && d < PhysSize*1.25 && d > 0 {
			a := PhysSize*1.45 - d
			velocity := 0.5
			if c.Vel.Len() > 0.0001 {
				velocity = 1 - (c.Vel.Normalize().Dot(dir)+1)/2
			}
			c.Vel = c.Vel.Add(dir.Scale(a * velocity * 0.75)).Scale(0.85)
		}
		if c.HookedPlayer == id && p.PlayerHooking > 0 && d > PhysSize*1.5 {
			accel := p.HookDragAccel * (d / p.HookLength)
			s := p.HookDragSpeed
			o.Vel.X = mathx.SaturatedAdd(-s, s, o.Vel.X, accel*dir.X*1.5)
			o.Vel.Y = mathx.SaturatedAdd(-s, s, o.Vel.Y, accel*dir.Y*1.5)
			c.Vel.X = mathx.SaturatedAdd(-s, s, c.Vel.X, -accel*dir.X*0.25)
			c.Vel.Y = mathx.SaturatedAdd(-s, s, c.Vel.Y, -accel*dir.Y*0.25)
		}
	}
}

func velocityRamp(value, start, rng, curvature float64) float64 {
	if value < start || rng == 0 {
		return 1
	}
	return 1.0 / math.Pow(curvature, (value-start)/rng)
}

// Move applies velocity to position against the map and other cores.
func (c *Core) Move() {
	p := &c.Tuning
	ramp := velocityRamp(c.Vel.Len()*50, p.VelrampStart, p.VelrampRange, p.VelrampCurvature)
	c.Vel.X *= ramp
	oldVelX := c.Vel.X

	size := mathx.V(PhysSize, PhysSize)
	next, vel := c.Map.MoveBox(c.Pos, c.Vel, size, 0)
	c.Vel = vel
	c.Colliding = oldVelX != 0 && c.Vel.X == 0

	if ramp != 0 {
		c.Vel.X /= ramp
	}

	if c.World != nil && p.PlayerCollision > 0 {
		d := c.Pos.Dist(next)
		end := int(d + 1)
		last := c.Pos
		for i := 0; i <= end && end > 1; i++ {
			pos := mathx.MixVec(c.Pos, next, float64(i)/float64(end))
			blocked := false
			for _, o := range c.World.Characters {
				if o == nil || o == c {
					continue
				}
				if pos.Dist(o.Pos) < PhysSize && c.Pos.Dist(o.Pos) >= PhysSize {
					blocked = true
					break
				}
			}
			if blocked {
				next = last
				break
			}
			last = pos
		}
	}
	c.Pos = next
}

func inputAngle(tx, ty int) int {
	if tx == 0 {
		return int(math.Atan(float64(ty)) * 256)
	}
	a := math.Atan(float64(ty) / float64(tx))
	if tx < 0 {
		a += math.Pi
	}
	return int(a * 256)
}
