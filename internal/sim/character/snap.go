package character

import (
	"math"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

// View distances for network clipping.
const (
	viewWidth   = 1000
	viewHeight  = 800
	viewMaxDist = 4000
)

// Aux item subtypes.
const (
	SubtypeArmor = iota + 1
	SubtypeHeart
	SubtypeSlowBomb
	SubtypeInvis
)

// SnapView is what one observer receives for one character.
type SnapView struct {
	Character *protocol.CharacterSnap
	Items     []protocol.SnapItem
}

// NetworkClipped reports whether pos is outside the viewer's area of
// interest. Viewer -1 sees everything.
func NetworkClipped(view Viewer, pos mathx.Vec2) bool {
	if view.ID == -1 {
		return false
	}
	d := pos.Sub(view.ViewPos)
	if math.Abs(d.X) > viewWidth || math.Abs(d.Y) > viewHeight {
		return true
	}
	return d.Len() > viewMaxDist
}

func (c *Character) allyOf(view Viewer) bool {
	return view.ID == -1 || view.ID == c.player.ID || view.Team == c.player.Team
}

// Snap builds the character as seen by view.
func (c *Character) Snap(view Viewer) SnapView {
	var out SnapView
	if !c.alive || NetworkClipped(view, c.pos) {
		return out
	}
	self := view.ID == c.player.ID
	if c.Invisible() && c.player.Team == TeamBlue && !self && view.ID != -1 {
		return out
	}

	if c.allyOf(view) {
		out.Items = c.auxItems()
	}
	if c.hidden && !self && view.ID != -1 {
		return out
	}
	cs := c.snapCharacter(view)
	out.Character = &cs
	return out
}

func (c *Character) snapCharacter(view Viewer) protocol.CharacterSnap {
	h := c.host
	now := h.Tick()
	tick, core := c.reck.Snapshot(h.Paused(), &c.core)
	core.Tick = tick
	core.Direction = c.input.Direction

	cs := protocol.CharacterSnap{
		ID:            c.player.ID,
		CharacterCore: core,
		Emote:         c.emote,
		AttackTick:    c.attackTick,
		Weapon:        c.core.ActiveWeapon,
		PlayerFlags:   c.player.PlayerFlags,
	}

	if c.emote == EmoteNormal && 250-((now-c.lastAction)%250) < 5 {
		cs.Emote = EmoteBlink
	}
	if c.player.RangeUpgrade {
		cs.Emote = EmoteAngry
	}
	if c.player.Stats.Frozen {
		cs.Emote = EmoteBlink
		cs.Weapon = tuning.WeaponNinja
	}

	following := view.SpectatorID == c.player.ID
	if view.ID == c.player.ID || view.ID == -1 || following {
		cs.Health = ((c.health * 1000) / MaxHealth * 10) / 1000
		cs.Armor = c.armor
		if w := c.core.ActiveWeapon; w >= 0 && w < len(c.weapons) && c.weapons[w].Ammo > 0 {
			cs.AmmoCount = c.weapons[w].Ammo
		}
	}
	return cs
}

// auxItems lists the cosmetic objects owned by this character, capped to
// the ids reserved at spawn.
func (c *Character) auxItems() []protocol.SnapItem {
	var items []protocol.SnapItem
	add := func(it protocol.SnapItem) {
		if len(items) >= numAuxIDs || c.auxIDs[len(items)] < 0 {
			return
		}
		it.ID = c.auxIDs[len(items)]
		items = append(items, it)
	}
	now := c.host.Tick()
	at := func(v mathx.Vec2) (int, int) { return mathx.Round(v.X), mathx.Round(v.Y) }

	if c.armorWall && c.timers[abilityArmorWall] > 0 {
		from, to := c.armorWallSegment()
		for _, p := range [3]mathx.Vec2{from, mathx.MixVec(from, to, 0.5), to} {
			x, y := at(p)
			add(protocol.SnapItem{Kind: protocol.ItemPickup, X: x, Y: y, Subtype: SubtypeArmor})
		}
	}
	if c.heartShield && c.player.Team == TeamRed {
		x, y := at(c.pos.Add(mathx.Dir(float64(now%50) / 50 * 2 * math.Pi).Scale(40)))
		fx, fy := at(c.pos)
		add(protocol.SnapItem{Kind: protocol.ItemLaser, X: x, Y: y, FromX: fx, FromY: fy, StartTick: now, Subtype: SubtypeHeart})
	}
	if c.slowBomb && c.fistBomb {
		x, y := at(c.pos.Add(mathx.V(0, -48)))
		add(protocol.SnapItem{Kind: protocol.ItemProjectile, X: x, Y: y, StartTick: now, Subtype: SubtypeSlowBomb})
	}
	if c.Invisible() {
		x, y := at(c.pos.Add(mathx.V(0, -56)))
		add(protocol.SnapItem{Kind: protocol.ItemPickup, X: x, Y: y, Subtype: SubtypeInvis})
	}
	return items
}
