package world

import "testing"

func TestArena_ReusesLowestIDWithNewGeneration(t *testing.T) {
	a := newArena(4)
	_, h0, _ := a.alloc()
	_, h1, _ := a.alloc()
	_, h2, _ := a.alloc()
	if h0.ID != 0 || h1.ID != 1 || h2.ID != 2 {
		t.Fatalf("ids: got %d %d %d", h0.ID, h1.ID, h2.ID)
	}
	a.release(h2.ID)
	a.release(h0.ID)
	_, h, _ := a.alloc()
	if h.ID != 0 || h.Gen != 1 {
		t.Fatalf("realloc: got %+v want {0 1}", h)
	}
	if a.resolve(h0) != nil {
		t.Fatalf("stale handle resolved")
	}
	if a.resolve(h) == nil || a.resolve(h1) == nil {
		t.Fatalf("live handles must resolve")
	}
	if got := a.count(); got != 2 {
		t.Fatalf("count: got %d want 2", got)
	}
}

func TestArena_Full(t *testing.T) {
	a := newArena(1)
	if _, _, ok := a.alloc(); !ok {
		t.Fatalf("first alloc failed")
	}
	if _, _, ok := a.alloc(); ok {
		t.Fatalf("alloc past capacity succeeded")
	}
	a.release(0)
	a.release(0)
	if len(a.free) != 1 {
		t.Fatalf("double release grew the free list: %v", a.free)
	}
}

func TestSnapIDPool_ReleaseExactlyOnce(t *testing.T) {
	p := newSnapIDPool(64)
	a, b := p.alloc(), p.alloc()
	if a != 64 || b != 65 {
		t.Fatalf("ids: got %d %d want 64 65", a, b)
	}
	p.release(a)
	p.release(a)
	if p.doubleFrees != 1 {
		t.Fatalf("double frees: got %d want 1", p.doubleFrees)
	}
	if got := p.alloc(); got != a {
		t.Fatalf("reuse: got %d want %d", got, a)
	}
	if got := p.used(); got != 2 {
		t.Fatalf("used: got %d want 2", got)
	}
}
