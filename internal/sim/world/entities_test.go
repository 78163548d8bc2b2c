package world

import (
	"testing"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/character"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

type spawner struct {
	entityBase
	ticks *int
	spawn bool
}

func (s *spawner) tick(w *World) {
	*s.ticks++
	if s.spawn {
		s.spawn = false
		w.addEntity(&spawner{entityBase: entityBase{kind: kindMine}, ticks: s.ticks})
	}
}

func (s *spawner) snap(character.Viewer) []protocol.SnapItem { return nil }

func TestTickEntities_AppendedEntitiesRunSamePass(t *testing.T) {
	w := newTestWorld(t)
	n := 0
	w.addEntity(&spawner{entityBase: entityBase{kind: kindMine}, ticks: &n, spawn: true})
	w.tickEntities()
	if n != 2 {
		t.Fatalf("ticks: got %d want 2", n)
	}
	if len(w.entities) != 2 {
		t.Fatalf("entities: got %d want 2", len(w.entities))
	}
}

func TestReapEntities_FreesSnapIDOnce(t *testing.T) {
	w := newTestWorld(t)
	n := 0
	w.addEntity(&spawner{entityBase: entityBase{kind: kindMine}, ticks: &n})
	w.entities[0].base().dead = true
	w.reapEntities()
	w.reapEntities()
	if len(w.entities) != 0 || w.snapID.used() != 0 || w.snapID.doubleFrees != 0 {
		t.Fatalf("reap: entities=%d used=%d double=%d", len(w.entities), w.snapID.used(), w.snapID.doubleFrees)
	}
}

// twoTeams joins a human (id 0) and a second player moved to the zombies (id 1).
func twoTeams(t *testing.T) (*World, *character.Character, *character.Character) {
	t.Helper()
	w := newTestWorld(t)
	join(t, w, "human", false)
	join(t, w, "zombie", false)
	w.Player(1).Team = character.TeamRed
	h, z := w.Character(0), w.Character(1)
	if h == nil || z == nil {
		t.Fatalf("expected both characters spawned")
	}
	return w, h, z
}

func TestProjectile_HitsEnemyAndDisappears(t *testing.T) {
	w, _, z := twoTeams(t)
	w.SpawnProjectile(character.Projectile{
		Owner:    0,
		Type:     tuning.WeaponGun,
		Weapon:   tuning.WeaponGun,
		Pos:      z.Pos().Sub(mathx.V(30, 0)),
		Dir:      mathx.V(1, 0),
		Lifetime: 10,
		Damage:   2,
	})
	w.tickEntities()
	if got := z.Health(); got != character.MaxHealth-2 {
		t.Fatalf("zombie health: got %d want %d", got, character.MaxHealth-2)
	}
	if len(w.entities) != 0 {
		t.Fatalf("projectile should be removed after the hit")
	}
}

func TestProjectile_PassesAllies(t *testing.T) {
	w, h, _ := twoTeams(t)
	join(t, w, "ally", false)
	ally := w.Character(2)
	if ally == nil {
		t.Fatalf("ally not spawned")
	}
	w.SpawnProjectile(character.Projectile{
		Owner:    h.ID(),
		Type:     tuning.WeaponGun,
		Weapon:   tuning.WeaponGun,
		Pos:      ally.Pos().Sub(mathx.V(20, 0)),
		Dir:      mathx.V(0, -1),
		Lifetime: 10,
		Damage:   2,
	})
	w.tickEntities()
	if got := ally.Health(); got != character.MaxHealth {
		t.Fatalf("ally health: got %d want %d", got, character.MaxHealth)
	}
}

func TestMine_ExplodesUnderHuman(t *testing.T) {
	w, h, z := twoTeams(t)
	w.SpawnMine(z.ID(), h.Pos())
	w.tickEntities()
	if got := h.Health(); got != character.MaxHealth-int(explosionDamage) {
		t.Fatalf("human health: got %d want %d", got, character.MaxHealth-int(explosionDamage))
	}
	if len(w.entities) != 0 {
		t.Fatalf("mine should be consumed")
	}
}

func TestMine_HiddenFromHumans(t *testing.T) {
	w, h, z := twoTeams(t)
	w.SpawnMine(z.ID(), z.Pos())
	human := character.Viewer{ID: h.ID(), Team: character.TeamBlue, ViewPos: z.Pos()}
	zombie := character.Viewer{ID: z.ID(), Team: character.TeamRed, ViewPos: z.Pos()}
	if items := w.entities[0].snap(human); len(items) != 0 {
		t.Fatalf("human sees mine: %+v", items)
	}
	if items := w.entities[0].snap(zombie); len(items) != 1 || items[0].Subtype != SubtypeMine {
		t.Fatalf("zombie view: got %+v", items)
	}
}

func TestSlowBomb_IgnitesHumansInRadius(t *testing.T) {
	w, h, z := twoTeams(t)
	w.SpawnProjectile(character.Projectile{
		Owner:    z.ID(),
		Type:     tuning.WeaponGrenade,
		Weapon:   tuning.WeaponHammer,
		Pos:      h.Pos().Sub(mathx.V(10, 0)),
		Dir:      mathx.V(1, 0),
		Lifetime: 1,
	})
	w.tickEntities()
	if h.Timer(character.AbilityBurn) == 0 {
		t.Fatalf("human should be burning")
	}
	if z.Timer(character.AbilityBurn) != 0 {
		t.Fatalf("zombie must not burn")
	}
}

func TestTurret_DestroyedByID(t *testing.T) {
	w, h, _ := twoTeams(t)
	w.SpawnTurret(character.Turret{Owner: h.ID(), Weapon: tuning.WeaponGun, Pos: h.Pos()})
	refs := w.TurretsNear(h.Pos(), 25)
	if len(refs) != 1 || refs[0].Owner != h.ID() {
		t.Fatalf("turrets near: got %+v", refs)
	}
	w.DestroyTurret(refs[0].ID)
	w.tickEntities()
	if len(w.TurretsNear(h.Pos(), 25)) != 0 {
		t.Fatalf("turret should be gone")
	}
}

func TestTurret_ShootsVisibleZombie(t *testing.T) {
	w, h, z := twoTeams(t)
	w.SpawnTurret(character.Turret{Owner: h.ID(), Weapon: tuning.WeaponGun, Pos: z.Pos().Add(mathx.V(200, 0))})
	w.tickEntities()
	shots := 0
	for _, e := range w.entities {
		if b := e.base(); b.kind == kindProjectile && b.owner == h.ID() {
			shots++
		}
	}
	if shots != 1 {
		t.Fatalf("turret shots: got %d want 1", shots)
	}
}

func TestTurret_DiesWithInfectedOwner(t *testing.T) {
	w, h, _ := twoTeams(t)
	w.SpawnTurret(character.Turret{Owner: h.ID(), Weapon: tuning.WeaponHammer, Pos: h.Pos()})
	w.Player(h.ID()).Team = character.TeamRed
	w.tickEntities()
	if len(w.entities) != 0 {
		t.Fatalf("turret should be removed once its owner is a zombie")
	}
}
