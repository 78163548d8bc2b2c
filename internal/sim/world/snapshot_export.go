package world

import (
	"outbreak.gg/internal/persistence/snapshot"
	"outbreak.gg/internal/sim/tuning"
)

var entityKindNames = map[entityKind]string{
	kindProjectile: "projectile",
	kindWall:       "wall",
	kindTurret:     "turret",
	kindMine:       "mine",
}

func (w *World) ExportSnapshot(nowTick int64, digest string) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:   snapshot.Version,
			WorldID:   w.cfg.ID,
			SessionID: w.session.ID.String(),
			Tick:      nowTick,
			Digest:    digest,
		},
		Seed:         w.tun.Seed,
		TickRate:     w.tun.TickRateHz,
		MapName:      w.grid.Name,
		MapDigest:    w.grid.Digest(),
		TuningDigest: w.tun.Digest(),
		Paused:       w.paused,
		SnapIDsInUse: w.snapID.used(),
	}

	w.arena.each(func(s *slot) {
		p := s.player
		snap.Players = append(snap.Players, snapshot.PlayerV1{
			ID:           p.ID,
			Name:         p.Name,
			Team:         p.Team,
			Level:        p.Stats.Level,
			Exp:          p.Stats.Exp,
			KillingSpree: p.KillingSpree,
			RespawnTick:  p.RespawnTick,
			LifeActive:   p.LifeActive,
		})
		c := s.char
		if c == nil || !c.Alive() {
			return
		}
		n := c.Core().Write()
		cv := snapshot.CharacterV1{
			ID:     p.ID,
			X:      n.X,
			Y:      n.Y,
			VelX:   n.VelX,
			VelY:   n.VelY,
			Health: c.Health(),
			Armor:  c.Armor(),
			Weapon: c.ActiveWeapon(),
			Ammo:   make([]int, tuning.NumWeapons),
		}
		for wpn := range cv.Ammo {
			got, ammo := c.Weapon(wpn)
			if !got {
				ammo = -1
			}
			cv.Ammo[wpn] = ammo
		}
		snap.Characters = append(snap.Characters, cv)
	})

	for _, e := range w.entities {
		b := e.base()
		x, y := snapAt(b.pos)
		snap.Entities = append(snap.Entities, snapshot.EntityV1{
			Kind:     entityKindNames[b.kind],
			ID:       b.id,
			Owner:    b.owner,
			X:        x,
			Y:        y,
			Lifetime: b.lifetime,
		})
	}

	s := w.rules.Scores()
	snap.Rules = snapshot.RulesV1{
		Started:     w.rules.Started(),
		Infections:  s.Infections,
		Rounds:      s.Rounds,
		Holdpoints:  copyIntMap(s.Holdpoints),
		ZStops:      copyIntMap(s.ZStops),
		ZHoldpoints: copyIntMap(s.ZHoldpoints),
	}
	return snap
}

func copyIntMap(m map[int]int) map[int]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
