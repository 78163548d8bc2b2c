package worldtest

import (
	"encoding/json"
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/character"
	"outbreak.gg/internal/sim/rules"
	"outbreak.gg/internal/sim/tuning"
	world "outbreak.gg/internal/sim/world"
)

func TestInfection_PatientZeroAfterWarmup(t *testing.T) {
	tun := tuning.Defaults()
	tun.Game.WarmupTicks = 10
	h := NewHarness(t, world.WorldConfig{ID: "yard", Tuning: tun})
	a := h.Join("alice")
	h.Join("bob")
	h.Join("carol")

	if !h.W.Rules().Started() {
		t.Fatalf("round should start once two players are in")
	}
	if len(h.Messages(a, protocol.TypeChat)) == 0 {
		t.Fatalf("expected the round start chat")
	}

	zombies := func() int {
		n := 0
		for _, p := range h.W.Players() {
			if p.Team == character.TeamRed {
				n++
			}
		}
		return n
	}
	for h.W.Rules().Warmup() {
		if zombies() != 0 {
			t.Fatalf("infection during warmup at tick %d", h.W.CurrentTick())
		}
		h.StepN(1)
	}
	h.StepN(3)
	if got := zombies(); got != 1 {
		t.Fatalf("zombies after warmup: got %d want 1", got)
	}

	kills := h.Messages(a, protocol.TypeKill)
	if len(kills) != 1 {
		t.Fatalf("KILL messages: got %d want 1", len(kills))
	}
	var k protocol.KillMsg
	if err := json.Unmarshal(kills[0], &k); err != nil {
		t.Fatalf("KILL: %v", err)
	}
	if k.Killer != tuning.WeaponGame || k.ModeSpecial != rules.SpecialInfected {
		t.Fatalf("KILL: got %+v", k)
	}
	if got := h.W.Rules().Scores().Infections; got != 1 {
		t.Fatalf("infections: got %d want 1", got)
	}
}

func TestInfection_LateJoinerIsZombie(t *testing.T) {
	tun := tuning.Defaults()
	tun.Game.WarmupTicks = 2
	h := NewHarness(t, world.WorldConfig{ID: "yard", Tuning: tun})
	h.Join("alice")
	h.Join("bob")
	h.StepN(5)

	late := h.Join("dave")
	if p := h.W.Player(late.ID); p == nil || p.Team != character.TeamRed {
		t.Fatalf("late joiner should be a zombie")
	}
	spec := h.Spectate("eve")
	if p := h.W.Player(spec.ID); p == nil || p.Team != character.TeamSpectators {
		t.Fatalf("spectator team")
	}
}
