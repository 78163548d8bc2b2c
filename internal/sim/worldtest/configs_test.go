package worldtest

import (
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/tilemap"
	"outbreak.gg/internal/sim/tuning"
	world "outbreak.gg/internal/sim/world"
)

func TestShippedConfigs_LoadAndRun(t *testing.T) {
	tun, err := tuning.Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("tuning: %v", err)
	}
	if tun.ZoneParams(1).Gravity != 0.25 {
		t.Fatalf("zone 1 gravity: got %v want 0.25", tun.ZoneParams(1).Gravity)
	}
	g, err := tilemap.Load("../../../configs/map.yaml")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(g.SpawnPoints(1)) == 0 || len(g.SpawnPoints(0)) == 0 {
		t.Fatalf("map needs spawns for both teams")
	}
	if len(g.TeleOuts(1)) == 0 || len(g.TeleOuts(2)) == 0 {
		t.Fatalf("every tele in needs an out")
	}

	h := NewHarness(t, world.WorldConfig{ID: "shipped", Tuning: tun, Map: g})
	a := h.Join("alice")
	b := h.Join("bob")
	for i := 0; i < 300; i++ {
		h.Step([]world.InputEnvelope{
			Input(a, protocol.PlayerInput{Direction: 1, Jump: (i / 20) & 1, TargetX: 100, Fire: i / 5}),
			Input(b, protocol.PlayerInput{Direction: -1, Hook: (i / 30) & 1, TargetX: -100, TargetY: -100}),
		}, nil)
	}
	if got := h.W.Metrics().Players; got != 2 {
		t.Fatalf("players: got %d want 2", got)
	}
}
