package world

// maxSnapIDs bounds the ids handed out for auxiliary snapshot objects.
const maxSnapIDs = 1 << 14

// snapIDPool hands out snapshot object ids above the character range.
// Released ids are reused oldest first.
type snapIDPool struct {
	next  int
	free  []int
	inUse map[int]bool

	doubleFrees int
}

func newSnapIDPool(first int) *snapIDPool {
	return &snapIDPool{next: first, inUse: map[int]bool{}}
}

// alloc returns -1 when the pool is exhausted.
func (p *snapIDPool) alloc() int {
	var id int
	switch {
	case len(p.free) > 0:
		id = p.free[0]
		p.free = p.free[1:]
	case p.next < maxSnapIDs:
		id = p.next
		p.next++
	default:
		return -1
	}
	p.inUse[id] = true
	return id
}

func (p *snapIDPool) release(id int) {
	if !p.inUse[id] {
		p.doubleFrees++
		return
	}
	delete(p.inUse, id)
	p.free = append(p.free, id)
}

func (p *snapIDPool) used() int { return len(p.inUse) }
