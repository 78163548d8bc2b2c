package character

import (
	"strings"
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
)

func clears(h *fakeHost) int {
	n := 0
	for _, b := range h.broadcasts {
		if b.text == " " {
			n++
		}
	}
	return n
}

func TestAbilityTimers_StopAtZeroAndClearOnce(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.timers = [numAbilities]int{}
	c.timers[abilityInvis] = 3

	for i := 0; i < 10; i++ {
		c.tickAbilities()
		h.tick++
		if c.timers[abilityInvis] < 0 {
			t.Fatalf("timer went negative: %d", c.timers[abilityInvis])
		}
	}
	if c.Invisible() {
		t.Fatalf("still invisible")
	}
	if n := clears(h); n != 1 {
		t.Fatalf("clear broadcasts: got %d want 1", n)
	}
}

func TestAbilityTimers_ArmorWallOnlyRunsWhileRaised(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	budget := c.Timer(AbilityArmorWall)
	if budget != 10*h.TickSpeed() {
		t.Fatalf("armor wall budget: got %d", budget)
	}
	c.tickAbilities()
	if c.Timer(AbilityArmorWall) != budget {
		t.Fatalf("lowered wall consumed budget")
	}
	c.SwitchShield()
	if !c.ArmorWallActive() {
		t.Fatalf("shield not raised")
	}
	c.tickAbilities()
	if c.Timer(AbilityArmorWall) != budget-1 {
		t.Fatalf("raised wall: got %d want %d", c.Timer(AbilityArmorWall), budget-1)
	}
	c.timers[abilityArmorWall] = 1
	c.tickAbilities()
	if c.ArmorWallActive() {
		t.Fatalf("wall still raised after budget ran out")
	}
	c.SwitchShield()
	if got := h.chats[len(h.chats)-1].text; got != "You have no armorwall time :(" {
		t.Fatalf("chat: got %q", got)
	}
}

func TestHumanHammer_InvisAndArmorWallExclusive(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.SwitchShield()
	c.core.ActiveWeapon = 0
	c.OnDirectInput(protocol.PlayerInput{Fire: 1, TargetX: 10})
	c.handleWeapons()

	// Raised wall rejects invisibility and leaves the cooldown untouched.
	if c.Invisible() || !c.ArmorWallActive() {
		t.Fatalf("invisible=%v armorwall=%v", c.Invisible(), c.ArmorWallActive())
	}
	if c.Timer(AbilityInvisCooldown) != 0 {
		t.Fatalf("cooldown: got %d want 0", c.Timer(AbilityInvisCooldown))
	}
	if got := h.chats[len(h.chats)-1].text; got != "You can't use invisible and armorwall together!" {
		t.Fatalf("chat: got %q", got)
	}

	// Wall lowered: the hammer turns invisible and the wall can't come back up.
	c.SwitchShield()
	c.reloadTimer = 0
	c.OnDirectInput(protocol.PlayerInput{Fire: 3, TargetX: 10})
	c.handleWeapons()
	if !c.Invisible() {
		t.Fatalf("expected invisibility once the wall is down")
	}
	if c.Timer(AbilityInvisCooldown) != 30*h.TickSpeed() {
		t.Fatalf("cooldown: got %d", c.Timer(AbilityInvisCooldown))
	}
	c.SwitchShield()
	if c.ArmorWallActive() {
		t.Fatalf("shield raised while invisible")
	}
}

func TestStatusOverlay_Padding(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.timers = [numAbilities]int{}
	c.timers[abilityInvis] = 2 * h.TickSpeed()
	h.tick = 10
	c.tickAbilities()
	got := h.broadcasts[len(h.broadcasts)-1].text
	if !strings.HasPrefix(got, strings.Repeat("\n", 13)+"Invis: 1.") {
		t.Fatalf("overlay: %q", got)
	}
}

func TestBurn_DamagesFromIgniter(t *testing.T) {
	h := newFakeHost(t)
	human := h.spawn(1, TeamBlue, tileCentre(6, 4))
	zombie := h.spawn(2, TeamRed, tileCentre(9, 4))
	human.Ignite(zombie.ID())
	human.core.Vel = mathx.V(8, 0)
	for i := 0; i < 20; i++ {
		human.tickAbilities()
	}
	if human.Health() != MaxHealth-1 {
		t.Fatalf("health: got %d want %d", human.Health(), MaxHealth-1)
	}
	if human.core.Vel.X >= 8 {
		t.Fatalf("burn did not slow: %v", human.core.Vel)
	}
	zombie.Ignite(human.ID())
	if zombie.Timer(AbilityBurn) != 0 {
		t.Fatalf("zombie ignited")
	}
}

func TestSlowBomb_CommandAndThrow(t *testing.T) {
	h := newFakeHost(t)
	z := h.spawn(1, TeamRed, tileCentre(6, 4))
	z.SwitchSlowBomb(true)
	z.OnDirectInput(protocol.PlayerInput{NextWeapon: 2})
	z.handleWeaponSwitch()
	z.latest = z.latest.Settle()
	if !z.fistBomb {
		t.Fatalf("bomb not aimed")
	}
	z.OnDirectInput(protocol.PlayerInput{NextWeapon: 2, Fire: 1, TargetX: 10})
	z.handleWeapons()
	if len(h.projectiles) != 1 || h.projectiles[0].Weapon != 0 {
		t.Fatalf("projectiles: %+v", h.projectiles)
	}
	if z.Timer(AbilitySlowBomb) != 3*h.TickSpeed() {
		t.Fatalf("fuse: got %d", z.Timer(AbilitySlowBomb))
	}
}

func TestPlaceTurret_OncePerWeapon(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 4))
	c.PlaceTurret()
	c.PlaceTurret()
	if len(h.turrets) != 1 {
		t.Fatalf("turrets: got %d want 1", len(h.turrets))
	}
}
