package world

import (
	"math"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/character"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

// Snapshot subtypes of world objects. Turret subtypes add the weapon.
const (
	SubtypeTurret = 10
	SubtypeMine   = 20
)

const (
	explosionRadius = 135.0
	explosionInner  = 48.0
	explosionDamage = 6.0
	slowBombRadius  = 64.0
	mineRadius      = 28.0
	turretRange     = 400.0
	turretPushRange = 48.0

	wallSeconds   = 20
	turretSeconds = 30
	mineSeconds   = 60
)

type entityKind int

const (
	kindProjectile entityKind = iota + 1
	kindWall
	kindTurret
	kindMine
)

type entityBase struct {
	kind     entityKind
	id       int
	owner    int
	pos      mathx.Vec2
	start    int64
	lifetime int
	dead     bool
}

func (b *entityBase) base() *entityBase { return b }

type entity interface {
	base() *entityBase
	tick(w *World)
	snap(view character.Viewer) []protocol.SnapItem
}

func (w *World) addEntity(e entity) {
	b := e.base()
	b.id = w.NewSnapID()
	if b.id < 0 {
		w.Diagnostic(protocol.Event{"type": "SNAP_IDS_EXHAUSTED", "client": b.owner})
		return
	}
	b.start = w.Tick()
	w.entities = append(w.entities, e)
}

// tickEntities runs every entity once. Entities spawned while the loop runs
// are appended and ticked in the same pass.
func (w *World) tickEntities() {
	for i := 0; i < len(w.entities); i++ {
		e := w.entities[i]
		if e.base().dead {
			continue
		}
		e.tick(w)
	}
	w.reapEntities()
}

func (w *World) reapEntities() {
	kept := w.entities[:0]
	for _, e := range w.entities {
		if b := e.base(); b.dead {
			w.FreeSnapID(b.id)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(w.entities); i++ {
		w.entities[i] = nil
	}
	w.entities = kept
}

func (w *World) SpawnProjectile(p character.Projectile) {
	w.addEntity(&projectile{
		entityBase: entityBase{kind: kindProjectile, owner: p.Owner, pos: p.Pos, lifetime: p.Lifetime},
		spec:       p,
		from:       p.Pos,
	})
}

func (w *World) SpawnWall(wl character.Wall) {
	w.addEntity(&wall{
		entityBase: entityBase{kind: kindWall, owner: wl.Owner, pos: wl.To, lifetime: wallSeconds * w.TickSpeed()},
		from:       wl.From,
	})
}

func (w *World) SpawnTurret(t character.Turret) {
	w.addEntity(&turret{
		entityBase: entityBase{kind: kindTurret, owner: t.Owner, pos: t.Pos, lifetime: turretSeconds * w.TickSpeed()},
		weapon:     t.Weapon,
		from:       t.From,
		to:         t.To,
	})
}

func (w *World) SpawnMine(owner int, pos mathx.Vec2) {
	w.addEntity(&mine{entityBase{kind: kindMine, owner: owner, pos: pos, lifetime: mineSeconds * w.TickSpeed()}})
}

func (w *World) TurretsNear(pos mathx.Vec2, radius float64) []character.TurretRef {
	var out []character.TurretRef
	for _, e := range w.entities {
		b := e.base()
		if b.kind == kindTurret && !b.dead && b.pos.Dist(pos) < radius {
			out = append(out, character.TurretRef{ID: b.id, Owner: b.owner, Pos: b.pos})
		}
	}
	return out
}

func (w *World) DestroyTurret(id int) {
	for _, e := range w.entities {
		if b := e.base(); b.kind == kindTurret && b.id == id {
			b.dead = true
		}
	}
}

// charactersWithin returns live characters whose centre is within r of pos.
func (w *World) charactersWithin(pos mathx.Vec2, r float64) []*character.Character {
	var out []*character.Character
	for _, c := range w.characters() {
		if c.Pos().Dist(pos) <= r {
			out = append(out, c)
		}
	}
	return out
}

func (w *World) effect(name string, owner int, pos mathx.Vec2) {
	w.Emit(protocol.Event{
		"type":   "EFFECT",
		"effect": name,
		"client": owner,
		"x":      mathx.Round(pos.X),
		"y":      mathx.Round(pos.Y),
	})
}

// explode damages everyone in the blast radius, scaled by distance from the
// inner radius outwards.
func (w *World) explode(pos mathx.Vec2, owner, weapon int, strength float64, minDamage int) {
	w.effect("explosion", owner, pos)
	for _, c := range w.charactersWithin(pos, explosionRadius) {
		d := c.Pos().Sub(pos)
		f := 1 - clamp01((d.Len()-explosionInner)/(explosionRadius-explosionInner))
		if f <= 0 {
			continue
		}
		dir := d.Normalize()
		if dir.IsZero() {
			dir = mathx.V(0, -1)
		}
		dmg := int(explosionDamage * f)
		if dmg < minDamage {
			dmg = minDamage
		}
		c.TakeDamage(dir.Scale(strength*f), dmg, owner, weapon)
	}
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }

func snapAt(v mathx.Vec2) (int, int) { return mathx.Round(v.X), mathx.Round(v.Y) }

type projectile struct {
	entityBase
	spec character.Projectile
	from mathx.Vec2
}

func (p *projectile) speed(w *World) float64 {
	t := w.tun.Physics
	switch p.spec.Type {
	case tuning.WeaponShotgun:
		return t.ShotgunSpeed
	case tuning.WeaponGrenade:
		return t.GrenadeSpeed
	}
	return t.GunSpeed
}

func (p *projectile) slowBomb() bool {
	return p.spec.Type == tuning.WeaponGrenade && p.spec.Weapon == tuning.WeaponHammer
}

func (p *projectile) tick(w *World) {
	prev := p.pos
	p.pos = prev.Add(p.spec.Dir.Scale(p.speed(w) / float64(w.TickSpeed())))
	p.lifetime--

	hitWall, at, _ := w.grid.IntersectLine(prev, p.pos)
	if hitWall {
		p.pos = at
	}
	target := w.projectileTarget(p.owner, prev, p.pos)
	if target == nil && !hitWall && p.lifetime > 0 && !w.grid.Clipped(p.pos) {
		return
	}
	p.dead = true
	if target != nil {
		p.pos = mathx.ClosestPointOnSegment(prev, p.pos, target.Pos())
	}

	switch {
	case p.slowBomb():
		w.effect("slow_bomb", p.owner, p.pos)
		for _, c := range w.charactersWithin(p.pos, slowBombRadius) {
			c.Ignite(p.owner)
		}
	case p.spec.Explosive:
		w.explode(p.pos, p.owner, p.spec.Weapon, p.spec.Force, p.spec.Damage)
	case target != nil:
		target.TakeDamage(p.spec.Dir.Normalize().Scale(p.spec.Force), p.spec.Damage, p.owner, p.spec.Weapon)
	}
}

// projectileTarget finds the first enemy of owner touched by the segment a-b.
func (w *World) projectileTarget(owner int, a, b mathx.Vec2) *character.Character {
	team := character.TeamSpectators
	if p := w.Player(owner); p != nil {
		team = p.Team
	}
	var best *character.Character
	bestDist := math.Inf(1)
	for _, c := range w.characters() {
		if c.ID() == owner || c.Team() == team {
			continue
		}
		at := mathx.ClosestPointOnSegment(a, b, c.Pos())
		if at.Dist(c.Pos()) >= character.ProximityRadius {
			continue
		}
		if d := a.Dist(at); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (p *projectile) snap(view character.Viewer) []protocol.SnapItem {
	if character.NetworkClipped(view, p.pos) {
		return nil
	}
	x, y := snapAt(p.pos)
	fx, fy := snapAt(p.from)
	return []protocol.SnapItem{{ID: p.id, Kind: protocol.ItemProjectile, X: x, Y: y, FromX: fx, FromY: fy, StartTick: p.start, Subtype: p.spec.Type}}
}

// wall is a laser segment that holds zombies back.
type wall struct {
	entityBase
	from mathx.Vec2
}

func (wl *wall) tick(w *World) {
	wl.lifetime--
	if wl.lifetime <= 0 {
		wl.dead = true
		return
	}
	for _, c := range w.characters() {
		if c.Team() != character.TeamRed {
			continue
		}
		at := mathx.ClosestPointOnSegment(wl.from, wl.pos, c.Pos())
		d := c.Pos().Sub(at)
		if d.Len() < character.ProximityRadius {
			c.BlockByObstacle(d.Normalize())
		}
	}
}

func (wl *wall) snap(view character.Viewer) []protocol.SnapItem {
	mid := mathx.MixVec(wl.from, wl.pos, 0.5)
	if character.NetworkClipped(view, mid) {
		return nil
	}
	x, y := snapAt(wl.pos)
	fx, fy := snapAt(wl.from)
	return []protocol.SnapItem{{ID: wl.id, Kind: protocol.ItemLaser, X: x, Y: y, FromX: fx, FromY: fy, StartTick: wl.start}}
}

type turret struct {
	entityBase
	weapon   int
	from, to mathx.Vec2
	reload   int
}

func (t *turret) tick(w *World) {
	t.lifetime--
	if p := w.Player(t.owner); t.lifetime <= 0 || p == nil || p.Team != character.TeamBlue {
		t.dead = true
		return
	}
	if t.reload > 0 {
		t.reload--
		return
	}
	ts := w.TickSpeed()
	switch t.weapon {
	case tuning.WeaponRifle:
		for _, c := range w.characters() {
			if c.Team() != character.TeamRed {
				continue
			}
			if mathx.ClosestPointOnSegment(t.from, t.to, c.Pos()).Dist(c.Pos()) < character.ProximityRadius {
				c.TakeDamage(mathx.Vec2{}, 2, t.owner, tuning.WeaponRifle)
				t.reload = ts / 2
			}
		}
	case tuning.WeaponHammer:
		for _, c := range w.charactersWithin(t.pos, turretPushRange) {
			if c.Team() != character.TeamRed {
				continue
			}
			c.TakeDamage(c.Pos().Sub(t.pos).Normalize().Scale(8), 1, t.owner, tuning.WeaponHammer)
			t.reload = ts
		}
	default:
		target := t.target(w)
		if target == nil {
			return
		}
		dir := target.Pos().Sub(t.pos).Normalize()
		switch t.weapon {
		case tuning.WeaponGrenade:
			target.GrenadeFire(t.owner, t.pos)
			t.reload = ts
		case tuning.WeaponShotgun:
			for _, a := range [3]float64{-0.1, 0, 0.1} {
				w.SpawnProjectile(t.shot(w, tuning.WeaponShotgun, mathx.Dir(dir.Angle()+a), 1))
			}
			t.reload = ts
		default:
			w.SpawnProjectile(t.shot(w, tuning.WeaponGun, dir, 1))
			t.reload = ts / 2
		}
	}
}

func (t *turret) shot(w *World, weapon int, dir mathx.Vec2, dmg int) character.Projectile {
	return character.Projectile{
		Owner:    t.owner,
		Type:     weapon,
		Weapon:   weapon,
		Pos:      t.pos,
		Dir:      dir,
		Lifetime: w.TickSpeed(),
		Damage:   dmg,
		Force:    1,
	}
}

// target picks the nearest visible zombie in range.
func (t *turret) target(w *World) *character.Character {
	var best *character.Character
	bestDist := turretRange
	for _, c := range w.characters() {
		if c.Team() != character.TeamRed {
			continue
		}
		d := c.Pos().Dist(t.pos)
		if d >= bestDist {
			continue
		}
		if hit, _, _ := w.grid.IntersectLine(t.pos, c.Pos()); hit {
			continue
		}
		best, bestDist = c, d
	}
	return best
}

func (t *turret) snap(view character.Viewer) []protocol.SnapItem {
	if character.NetworkClipped(view, t.pos) {
		return nil
	}
	x, y := snapAt(t.pos)
	return []protocol.SnapItem{{ID: t.id, Kind: protocol.ItemPickup, X: x, Y: y, StartTick: t.start, Subtype: SubtypeTurret + t.weapon}}
}

// mine is dropped by zombie hammers and blows up under a human.
type mine struct {
	entityBase
}

func (m *mine) tick(w *World) {
	m.lifetime--
	if m.lifetime <= 0 {
		m.dead = true
		return
	}
	for _, c := range w.charactersWithin(m.pos, mineRadius+character.ProximityRadius/2) {
		if c.Team() == character.TeamBlue {
			m.dead = true
			w.explode(m.pos, m.owner, tuning.WeaponHammer, 4, 1)
			return
		}
	}
}

// Mines are only shown to zombies.
func (m *mine) snap(view character.Viewer) []protocol.SnapItem {
	if view.ID != -1 && view.Team != character.TeamRed {
		return nil
	}
	if character.NetworkClipped(view, m.pos) {
		return nil
	}
	x, y := snapAt(m.pos)
	return []protocol.SnapItem{{ID: m.id, Kind: protocol.ItemPickup, X: x, Y: y, StartTick: m.start, Subtype: SubtypeMine}}
}
