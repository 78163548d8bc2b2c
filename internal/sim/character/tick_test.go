package character

import (
	"testing"

	"outbreak.gg/internal/protocol"
)

func TestTick_SettlesOnFloor(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))
	for i := 0; i < 100; i++ {
		c.Tick()
		c.TickDeferred()
		h.tick++
	}
	if !c.Alive() {
		t.Fatalf("died")
	}
	if !c.Core().Grounded() || c.Core().Vel.Y != 0 {
		t.Fatalf("not resting: pos=%v vel=%v", c.Pos(), c.Core().Vel)
	}
	if len(h.diags) != 0 {
		t.Fatalf("diagnostics: %v", h.diags)
	}
	if c.Reckoner().Tick == 0 {
		t.Fatalf("never reckoned")
	}
}

func TestTick_WalkAndJumpFromInput(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	start := c.Pos()
	c.OnPredictedInput(protocol.PlayerInput{Direction: 1, TargetX: 10})
	for i := 0; i < 10; i++ {
		c.Tick()
		c.TickDeferred()
		h.tick++
	}
	if c.Pos().X <= start.X {
		t.Fatalf("did not walk: %v -> %v", start, c.Pos())
	}
	c.OnPredictedInput(protocol.PlayerInput{Direction: 1, TargetX: 10, Jump: 1})
	c.Tick()
	c.TickDeferred()
	if h.soundCount(SoundJump) != 1 {
		t.Fatalf("jump sounds: got %d want 1", h.soundCount(SoundJump))
	}
}

func TestTick_FrozenIgnoresMovement(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.Player().Stats.Frozen = true
	c.OnPredictedInput(protocol.PlayerInput{Direction: 1, Jump: 1, Hook: 1, TargetX: 10})
	c.Tick()
	if in := c.Core().Input; in.Direction != 0 || in.Jump != 0 || in.Hook != 0 {
		t.Fatalf("frozen input reached the core: %+v", in)
	}
}

func TestTickPaused_ShiftsTimers(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.attackTick = 5
	c.emoteStop = 20
	c.lastAction = -1
	c.reck.Tick = 9
	c.TickPaused()
	if c.attackTick != 6 || c.emoteStop != 21 || c.lastAction != -1 || c.reck.Tick != 10 {
		t.Fatalf("attack=%d emoteStop=%d lastAction=%d reck=%d", c.attackTick, c.emoteStop, c.lastAction, c.reck.Tick)
	}
}

func TestResetInput_ReleasesFire(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.OnPredictedInput(protocol.PlayerInput{Fire: 3, Direction: -1, Jump: 1})
	c.ResetInput()
	in := c.Input()
	if in.Fire&1 != 0 || in.Direction != 0 || in.Jump != 0 {
		t.Fatalf("input after reset: %+v", in)
	}
}
