package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"outbreak.gg/internal/sim/tuning"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes everything that must match between a live run and its
// replay. Client channels and the session id are excluded.
func (w *World) stateDigest(nowTick int64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, nowTick)
	h.Write([]byte{boolByte(w.paused)})
	digestWriteU64(h, &tmp, w.grid.Digest())

	w.digestPlayers(h, &tmp)
	w.digestEntities(h, &tmp)
	w.digestRules(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestPlayers(h hashWriter, tmp *[8]byte) {
	w.arena.each(func(s *slot) {
		p := s.player
		digestWriteI64(h, tmp, int64(p.ID))
		h.Write([]byte(p.Name))
		digestWriteI64(h, tmp, int64(p.Team))
		digestWriteI64(h, tmp, p.RespawnTick)
		digestWriteI64(h, tmp, int64(p.Stats.Level))
		digestWriteI64(h, tmp, int64(p.Stats.Exp))
		digestWriteI64(h, tmp, int64(p.KillingSpree))
		h.Write([]byte{boolByte(p.LifeActive)})

		c := s.char
		if c == nil || !c.Alive() {
			h.Write([]byte{0})
			return
		}
		h.Write([]byte{1})
		n := c.Core().Write()
		for _, v := range [...]int{n.X, n.Y, n.VelX, n.VelY, n.Angle, n.Direction, n.Jumped, n.HookedPlayer, n.HookState, n.HookTick, n.HookX, n.HookY} {
			digestWriteI64(h, tmp, int64(v))
		}
		digestWriteI64(h, tmp, int64(c.Health()))
		digestWriteI64(h, tmp, int64(c.Armor()))
		digestWriteI64(h, tmp, int64(c.ActiveWeapon()))
		for wpn := 0; wpn < tuning.NumWeapons; wpn++ {
			got, ammo := c.Weapon(wpn)
			h.Write([]byte{boolByte(got)})
			digestWriteI64(h, tmp, int64(ammo))
		}
	})
}

func (w *World) digestEntities(h hashWriter, tmp *[8]byte) {
	for _, e := range w.entities {
		b := e.base()
		digestWriteI64(h, tmp, int64(b.kind))
		digestWriteI64(h, tmp, int64(b.id))
		digestWriteI64(h, tmp, int64(b.owner))
		x, y := snapAt(b.pos)
		digestWriteI64(h, tmp, int64(x))
		digestWriteI64(h, tmp, int64(y))
		digestWriteI64(h, tmp, int64(b.lifetime))
	}
}

func (w *World) digestRules(h hashWriter, tmp *[8]byte) {
	s := w.rules.Scores()
	h.Write([]byte{boolByte(w.rules.Started())})
	digestWriteI64(h, tmp, int64(s.Infections))
	digestWriteI64(h, tmp, int64(s.Rounds))
	for _, m := range []map[int]int{s.Holdpoints, s.ZStops, s.ZHoldpoints} {
		writeSortedIntMap(h, tmp, m)
	}
}

func writeSortedIntMap(h hashWriter, tmp *[8]byte, m map[int]int) {
	keys := make([]int, 0, len(m))
	for k, v := range m {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	digestWriteU64(h, tmp, uint64(len(keys)))
	for _, k := range keys {
		digestWriteI64(h, tmp, int64(k))
		digestWriteI64(h, tmp, int64(m[k]))
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
