package character

import (
	"testing"

	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

func TestTakeDamage_DiesOnceWithKillRecord(t *testing.T) {
	h := newFakeHost(t)
	h.ctrl.special = 7
	zombie := h.spawn(1, TeamRed, tileCentre(6, 3))
	human := h.spawn(2, TeamBlue, tileCentre(8, 3))

	if got := zombie.Health(); got != MaxHealth {
		t.Fatalf("spawn health: got %d want %d", got, MaxHealth)
	}
	if !zombie.TakeDamage(mathx.Vec2{}, 6500, human.ID(), tuning.WeaponGun) {
		t.Fatalf("first hit rejected")
	}
	if !zombie.Alive() || zombie.Health() != MaxHealth-6500 {
		t.Fatalf("after first hit: alive=%v health=%d", zombie.Alive(), zombie.Health())
	}
	zombie.TakeDamage(mathx.Vec2{}, 6500, human.ID(), tuning.WeaponGun)
	if zombie.Alive() {
		t.Fatalf("expected death")
	}
	if zombie.Health() != 0 {
		t.Fatalf("health: got %d want 0", zombie.Health())
	}
	if zombie.TakeDamage(mathx.Vec2{}, 6500, human.ID(), tuning.WeaponGun) {
		t.Fatalf("dead character accepted damage")
	}
	zombie.Die(human.ID(), tuning.WeaponGun)

	if len(h.kills) != 1 || h.removed != 1 {
		t.Fatalf("kills=%d removed=%d want 1/1", len(h.kills), h.removed)
	}
	k := h.kills[0]
	if k.Killer != 2 || k.Victim != 1 || k.Weapon != tuning.WeaponGun || k.ModeSpecial != 7 {
		t.Fatalf("kill record: %+v", k)
	}
	if len(h.freed) != numAuxIDs {
		t.Fatalf("freed snap ids: got %d want %d", len(h.freed), numAuxIDs)
	}
	if h.world.Character(1) != nil {
		t.Fatalf("core still registered")
	}
}

func TestTakeDamage_AwardsExperienceAndSpree(t *testing.T) {
	h := newFakeHost(t)
	h.tun.Game.KillingSpree = 1
	zombie := h.spawn(1, TeamRed, tileCentre(6, 3))
	human := h.spawn(2, TeamBlue, tileCentre(8, 3))
	human.Player().Stats.Level = 60

	zombie.TakeDamage(mathx.Vec2{}, MaxHealth, human.ID(), tuning.WeaponGun)

	p := human.Player()
	if p.KillingSpree != 1 {
		t.Fatalf("spree: got %d want 1", p.KillingSpree)
	}
	// 3 + 60/40 = 4 exp at the normal factor stays below level 60.
	if p.Stats.Exp != 4 {
		t.Fatalf("exp: got %d want 4", p.Stats.Exp)
	}
	found := false
	for _, l := range h.chats {
		if l.text == "p is on killing spree!" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing spree announcement in %v", h.chats)
	}
}

func TestTakeDamage_FriendlyFireRejected(t *testing.T) {
	h := newFakeHost(t)
	a := h.spawn(1, TeamBlue, tileCentre(6, 3))
	b := h.spawn(2, TeamBlue, tileCentre(8, 3))
	if a.TakeDamage(mathx.Vec2{}, 100, b.ID(), tuning.WeaponGun) {
		t.Fatalf("friendly fire accepted")
	}
	if a.Health() != MaxHealth {
		t.Fatalf("health changed: %d", a.Health())
	}
}

func TestTakeDamage_SelfKnockbackOnlyWhenEnabled(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamRed, tileCentre(6, 3))
	c.TakeDamage(mathx.V(4, 0), 0, c.ID(), tuning.WeaponGrenade)
	if c.Core().Vel.X != 0 {
		t.Fatalf("self knockback applied while disabled: %v", c.Core().Vel)
	}
	h.tun.Game.SelfKnockback = true
	c.TakeDamage(mathx.V(4, 0), 0, c.ID(), tuning.WeaponGrenade)
	if c.Core().Vel.X != 4 {
		t.Fatalf("self knockback: got %v want 4 unscaled", c.Core().Vel.X)
	}
}

func TestIncreaseHealthArmor_Clamp(t *testing.T) {
	h := newFakeHost(t)
	c := h.spawn(1, TeamBlue, tileCentre(6, 3))
	if c.IncreaseHealth(1) {
		t.Fatalf("IncreaseHealth at cap reported a change")
	}
	c.TakeDamage(mathx.Vec2{}, 500, -1, tuning.WeaponWorld)
	if !c.IncreaseHealth(100000) || c.Health() != MaxHealth {
		t.Fatalf("health: got %d want %d", c.Health(), MaxHealth)
	}
	if !c.IncreaseArmor(15) || c.Armor() != MaxArmor {
		t.Fatalf("armor: got %d want %d", c.Armor(), MaxArmor)
	}
	if c.IncreaseArmor(1) {
		t.Fatalf("IncreaseArmor at cap reported a change")
	}
}
