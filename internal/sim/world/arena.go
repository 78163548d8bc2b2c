package world

import (
	"sort"

	"outbreak.gg/internal/sim/character"
)

// Handle names a player slot. A handle goes stale when the slot is released,
// even if the id is handed out again.
type Handle struct {
	ID  int    `json:"id"`
	Gen uint32 `json:"gen"`
}

type slot struct {
	gen    uint32
	used   bool
	player *character.Player
	char   *character.Character
	client *clientState
}

// arena holds the player slots. Ids are reused lowest first so that joins
// replay to the same ids.
type arena struct {
	slots []slot
	free  []int // descending; the lowest id is at the end
}

func newArena(capacity int) *arena {
	a := &arena{slots: make([]slot, capacity)}
	for id := capacity - 1; id >= 0; id-- {
		a.free = append(a.free, id)
	}
	return a
}

func (a *arena) alloc() (*slot, Handle, bool) {
	if len(a.free) == 0 {
		return nil, Handle{}, false
	}
	id := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	s := &a.slots[id]
	s.used = true
	return s, Handle{ID: id, Gen: s.gen}, true
}

func (a *arena) release(id int) {
	if id < 0 || id >= len(a.slots) || !a.slots[id].used {
		return
	}
	s := &a.slots[id]
	*s = slot{gen: s.gen + 1}
	a.free = append(a.free, id)
	sort.Sort(sort.Reverse(sort.IntSlice(a.free)))
}

func (a *arena) get(id int) *slot {
	if id < 0 || id >= len(a.slots) || !a.slots[id].used {
		return nil
	}
	return &a.slots[id]
}

// resolve returns the slot only if h is still current.
func (a *arena) resolve(h Handle) *slot {
	s := a.get(h.ID)
	if s == nil || s.gen != h.Gen {
		return nil
	}
	return s
}

// each visits used slots in id order.
func (a *arena) each(fn func(s *slot)) {
	for i := range a.slots {
		if a.slots[i].used {
			fn(&a.slots[i])
		}
	}
}

func (a *arena) count() int { return len(a.slots) - len(a.free) }
