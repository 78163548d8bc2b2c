package character

import (
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
	"outbreak.gg/internal/sim/tuning"
)

const envMap = `
name: env
rows:
  - "####################"
  - "#..................#"
  - "#.a.b.e...k........#"
  - "#..................#"
  - "#..o....q.......I..#"
  - "####################"
legend:
  "#": {game: solid}
  "a": {speedup: {force: 255, max_speed: 20, angle: 0}}
  "b": {speedup: {force: 2, max_speed: 20, angle: 0}}
  "e": {tele: evil, number: 3}
  "I": {tele: in, number: 3}
  "o": {tele: out, number: 3}
  "k": {tele: check_in, number: 1}
  "q": {tele: check_out, number: 1}
`

func TestStopper_ZeroesOpposingComponent(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))
	stop := tileCentre(4, 2)
	idx := h.grid.PureIndexAt(stop)

	// Still left of the stopper's centre: no rollback.
	c.prevPos = tileCentre(3, 2)
	c.core.Pos = stop.Add(mathx.V(-5, 0))
	c.core.Vel = mathx.V(3, 1)
	c.handleStoppers(newTileContext(h.Map(), idx, c.core.Pos), true)
	if c.core.Vel != mathx.V(0, 1) {
		t.Fatalf("vel: got %v want (0,1)", c.core.Vel)
	}
	if c.core.Pos != stop.Add(mathx.V(-5, 0)) {
		t.Fatalf("rolled back without crossing: %v", c.core.Pos)
	}

	// Past the centre: rolled back to the previous position.
	c.core.Pos = stop.Add(mathx.V(5, 0))
	c.core.Vel = mathx.V(3, 0)
	c.handleStoppers(newTileContext(h.Map(), idx, c.core.Pos), true)
	if c.core.Pos != c.prevPos {
		t.Fatalf("pos: got %v want %v", c.core.Pos, c.prevPos)
	}

	// Moving away is not blocked.
	c.core.Pos = stop
	c.core.Vel = mathx.V(-3, 0)
	c.handleStoppers(newTileContext(h.Map(), idx, c.core.Pos), true)
	if c.core.Vel.X != -3 {
		t.Fatalf("vel.x: got %v want -3", c.core.Vel.X)
	}
}

func TestResolveTiles_StopperAfterSpeedZone(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))

	// Speed zone only: accelerated.
	c.prevPos = tileCentre(1, 2)
	c.core.Pos = tileCentre(2, 2)
	c.core.Vel = mathx.V(2, 0)
	if !c.resolveTiles() {
		t.Fatalf("died")
	}
	if c.core.Vel.X != 7 {
		t.Fatalf("speed zone: got %v want 7", c.core.Vel.X)
	}

	// Speed zone, tune zone, stopper: the stopper wins because it comes last.
	c.prevPos = tileCentre(1, 2)
	c.core.Pos = tileCentre(4, 2).Add(mathx.V(-5, 0))
	c.core.Vel = mathx.V(2, 0)
	if got := h.grid.TraversedIndices(c.prevPos, c.core.Pos); len(got) != 3 {
		t.Fatalf("traversed: got %v want 3 indices", got)
	}
	if !c.resolveTiles() {
		t.Fatalf("died")
	}
	if c.core.Vel.X != 0 {
		t.Fatalf("vel.x: got %v want 0", c.core.Vel.X)
	}
}

func TestResolveTiles_DeathTile(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))
	c.prevPos = c.core.Pos
	c.core.Pos = tileCentre(11, 4)
	if c.resolveTiles() {
		t.Fatalf("survived a death tile")
	}
	if len(h.kills) != 1 || h.kills[0].Weapon != tuning.WeaponWorld || h.kills[0].Killer != 1 {
		t.Fatalf("kills: %+v", h.kills)
	}
	if c.Health() != 0 {
		t.Fatalf("health after world death: got %d want 0", c.Health())
	}
}

func TestTele_EmptyDestinationsFallBackToSpawn(t *testing.T) {
	h := newFakeHost(t)
	h.ctrl.spawn, h.ctrl.canSpawn = tileCentre(15, 3), true
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))

	c.core.Pos = tileCentre(10, 2)
	c.handleTele(h.grid.PureIndexAt(c.core.Pos))
	if c.core.Pos != h.ctrl.spawn {
		t.Fatalf("tele in: got %v want %v", c.core.Pos, h.ctrl.spawn)
	}

	c.core.Pos = tileCentre(13, 2)
	c.handleTele(h.grid.PureIndexAt(c.core.Pos))
	if c.core.Pos != h.ctrl.spawn {
		t.Fatalf("checkpoint tele: got %v want %v", c.core.Pos, h.ctrl.spawn)
	}

	h.ctrl.canSpawn = false
	c.core.Pos = tileCentre(10, 2)
	c.handleTele(h.grid.PureIndexAt(c.core.Pos))
	if c.core.Pos != tileCentre(10, 2) {
		t.Fatalf("moved without a destination: %v", c.core.Pos)
	}
}

func TestTuneZone_ChatLinesAndPush(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))
	c.core.Pos = tileCentre(3, 2)
	c.handleTuneLayer()
	if c.TuneZone() != 2 {
		t.Fatalf("zone: got %d want 2", c.TuneZone())
	}
	if len(h.chats) != 2 || h.chats[0].text != "Slow zone" || h.chats[1].text != "watch out" {
		t.Fatalf("chats: %v", h.chats)
	}
	if h.tunings[len(h.tunings)-1] != 2 {
		t.Fatalf("tuning push: %v", h.tunings)
	}

	c.core.Pos = tileCentre(6, 3)
	c.handleTuneLayer()
	if h.chats[len(h.chats)-1].text != "bye" {
		t.Fatalf("leave line: %v", h.chats)
	}
}

func TestSpeedup_Zones(t *testing.T) {
	cases := []struct {
		name string
		x    int
		vel  mathx.Vec2
		want mathx.Vec2
	}{
		{"forced terminal velocity", 2, mathx.V(-3, 5), mathx.V(4, 0)},
		{"accelerates by force", 4, mathx.V(1, 0), mathx.V(3, 0)},
		{"tops out at max speed", 4, mathx.V(3.5, 0), mathx.V(4, 0)},
		{"at max speed", 4, mathx.V(4, 0), mathx.V(4, 0)},
		{"slowed when over max speed", 4, mathx.V(10, 0), mathx.V(8, 0)},
		{"slightly over max speed", 4, mathx.V(5, 0), mathx.V(4, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHostMap(t, envMap)
			c := h.spawn(1, TeamBlue, tileCentre(6, 3))
			pos := tileCentre(tc.x, 2)
			c.core.Pos = pos
			c.core.Vel = tc.vel
			c.handleSpeedup(newTileContext(h.Map(), h.grid.PureIndexAt(pos), pos))
			if c.core.Vel != tc.want {
				t.Fatalf("vel: got %v want %v", c.core.Vel, tc.want)
			}
		})
	}
}

func TestTele_EvilStopsAndReleasesHooks(t *testing.T) {
	h := newFakeHostMap(t, envMap)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))
	other := h.spawn(2, TeamBlue, tileCentre(12, 3))
	other.core.HookedPlayer = 1
	other.core.HookState = physics.HookGrabbed
	c.core.HookedPlayer = 2
	c.core.HookState = physics.HookGrabbed
	c.core.Vel = mathx.V(5, 3)
	c.core.Reset = false

	c.core.Pos = tileCentre(6, 2)
	c.handleTele(h.grid.PureIndexAt(c.core.Pos))
	if c.core.Pos != tileCentre(3, 4) {
		t.Fatalf("pos: got %v want %v", c.core.Pos, tileCentre(3, 4))
	}
	if c.core.Vel != (mathx.Vec2{}) {
		t.Fatalf("vel: got %v want zero", c.core.Vel)
	}
	if c.core.HookState != physics.HookRetracted || c.core.HookedPlayer != -1 {
		t.Fatalf("own hook: state=%d hooked=%d", c.core.HookState, c.core.HookedPlayer)
	}
	if other.core.HookedPlayer != -1 || other.core.HookState != physics.HookRetracted {
		t.Fatalf("hooker not released: state=%d hooked=%d", other.core.HookState, other.core.HookedPlayer)
	}
	if !c.core.Reset {
		t.Fatalf("teleport did not flag a resync")
	}
}

func TestTele_HookAndWeaponOptions(t *testing.T) {
	cases := []struct {
		name        string
		x, y        int
		holdHook    bool
		loseWeapons bool
		wantHook    int
		wantShotgun bool
	}{
		{"plain", 16, 4, false, false, physics.HookRetracted, true},
		{"hold hook", 16, 4, true, false, physics.HookGrabbed, true},
		{"lose weapons", 16, 4, false, true, physics.HookRetracted, false},
		{"evil ignores hold hook", 6, 2, true, false, physics.HookRetracted, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHostMap(t, envMap)
			h.tun.Game.TeleportHoldHook = tc.holdHook
			h.tun.Game.TeleportLoseWeapons = tc.loseWeapons
			c := h.spawn(1, TeamBlue, tileCentre(6, 3))
			c.GiveWeapon(tuning.WeaponShotgun, 10)
			c.core.HookState = physics.HookGrabbed
			c.core.Vel = mathx.V(2, 0)

			c.core.Pos = tileCentre(tc.x, tc.y)
			c.handleTele(h.grid.PureIndexAt(c.core.Pos))
			if c.core.Pos != tileCentre(3, 4) {
				t.Fatalf("pos: got %v want %v", c.core.Pos, tileCentre(3, 4))
			}
			if c.core.HookState != tc.wantHook {
				t.Fatalf("hook state: got %d want %d", c.core.HookState, tc.wantHook)
			}
			if got := c.weapons[tuning.WeaponShotgun].Got; got != tc.wantShotgun {
				t.Fatalf("shotgun: got %v want %v", got, tc.wantShotgun)
			}
			if !c.weapons[tuning.WeaponGun].Got || !c.weapons[tuning.WeaponHammer].Got {
				t.Fatalf("gun and hammer must survive a teleport")
			}
		})
	}
}

func TestTele_CheckpointSearchesBackward(t *testing.T) {
	h := newFakeHostMap(t, envMap)
	h.ctrl.spawn, h.ctrl.canSpawn = tileCentre(15, 3), true
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))

	// Checkpoints 3 and 2 have no exits; checkpoint 1 does.
	c.teleCheckpoint = 3
	c.core.Pos = tileCentre(10, 2)
	c.handleTele(h.grid.PureIndexAt(c.core.Pos))
	if c.core.Pos != tileCentre(8, 4) {
		t.Fatalf("pos: got %v want %v", c.core.Pos, tileCentre(8, 4))
	}

	// No checkpoint reached yet: spawn fallback.
	c.teleCheckpoint = 0
	c.core.Pos = tileCentre(10, 2)
	c.handleTele(h.grid.PureIndexAt(c.core.Pos))
	if c.core.Pos != h.ctrl.spawn {
		t.Fatalf("pos: got %v want %v", c.core.Pos, h.ctrl.spawn)
	}
}

func TestTick_TeleportResyncsImmediately(t *testing.T) {
	h := newFakeHostMap(t, envMap)
	c := h.spawn(1, TeamBlue, tileCentre(13, 4))
	for i := 0; i < 20; i++ {
		c.Tick()
		c.TickDeferred()
		h.tick++
	}

	dest := tileCentre(3, 4)
	c.OnPredictedInput(protocol.PlayerInput{Direction: 1, TargetX: 10})
	for i := 0; i < 100; i++ {
		c.Tick()
		if c.core.Pos != dest {
			c.TickDeferred()
			h.tick++
			continue
		}
		if !c.core.Reset {
			t.Fatalf("teleport at tick %d did not flag a resync", h.tick)
		}
		c.TickDeferred()
		if c.Reckoner().Tick != h.tick || c.core.Reset {
			t.Fatalf("resync: reckoned tick %d want %d (reset=%v)", c.Reckoner().Tick, h.tick, c.core.Reset)
		}
		return
	}
	t.Fatalf("never walked into the teleporter: pos %v", c.Pos())
}
