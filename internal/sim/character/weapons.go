package character

import (
	"math"

	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

type weaponClass int

const (
	classContact weaponClass = iota
	classProjectile
	classSpread
	classPlacement
	classNoop
)

// fireFunc performs one shot. It returns false when the shot was rejected
// and must not count as an attack.
type fireFunc func(c *Character, dir, start mathx.Vec2) bool

type weaponSpec struct {
	class    weaponClass
	fullAuto func(c *Character) bool
	fire     fireFunc
}

func always(*Character) bool { return true }
func never(*Character) bool  { return false }

var weaponTable = [tuning.NumWeapons]weaponSpec{
	tuning.WeaponHammer: {
		class: classContact,
		fullAuto: func(c *Character) bool {
			return c.player.Stats.Level >= 10 && !c.thrownBomb
		},
		fire: fireHammer,
	},
	tuning.WeaponGun:     {class: classProjectile, fullAuto: always, fire: fireGun},
	tuning.WeaponShotgun: {class: classSpread, fullAuto: always, fire: fireShotgun},
	tuning.WeaponGrenade: {class: classProjectile, fullAuto: always, fire: fireGrenade},
	tuning.WeaponRifle:   {class: classPlacement, fullAuto: never, fire: fireRifle},
	tuning.WeaponNinja:   {class: classNoop, fullAuto: never, fire: func(*Character, mathx.Vec2, mathx.Vec2) bool { return true }},
}

// Sounds.
const (
	SoundWeaponSwitch = "weapon_switch"
	SoundWeaponNoAmmo = "weapon_noammo"
	SoundHammerFire   = "hammer_fire"
	SoundGunFire      = "gun_fire"
	SoundShotgunFire  = "shotgun_fire"
	SoundGrenadeFire  = "grenade_fire"
	SoundTurretDown   = "turret_destroyed"
)

func (c *Character) setWeapon(w int) {
	if w == c.core.ActiveWeapon || c.player.Team == TeamRed {
		return
	}
	c.lastWeapon = c.core.ActiveWeapon
	c.queuedWeapon = -1
	c.core.ActiveWeapon = w
	c.sound(SoundWeaponSwitch)
	if c.core.ActiveWeapon < 0 || c.core.ActiveWeapon >= tuning.NumWeapons {
		c.core.ActiveWeapon = 0
	}
}

func (c *Character) doWeaponSwitch() {
	if c.reloadTimer != 0 || c.queuedWeapon == -1 {
		return
	}
	c.setWeapon(c.queuedWeapon)
}

func (c *Character) handleWeaponSwitch() {
	wanted := c.core.ActiveWeapon
	if c.queuedWeapon != -1 {
		wanted = c.queuedWeapon
	}

	anything := false
	for i := 0; i < tuning.NumWeapons-1; i++ {
		if c.weapons[i].Got {
			anything = true
		}
	}
	if !anything || c.player.Stats.Frozen {
		return
	}

	newHeart := c.host.Tuning().Game.NewHeart
	zombie := c.player.Team == TeamRed

	next := c.latest.NextPresses()
	if next < 128 {
		for next > 0 {
			if zombie && !c.player.LifeActive && newHeart {
				c.heartAimed = true
			}
			if zombie && c.slowBomb && !c.fistBomb {
				c.fistBomb = true
			}
			wanted = (wanted + 1) % tuning.NumWeapons
			if c.weapons[wanted].Got {
				next--
			}
		}
	}

	prev := c.latest.PrevPresses()
	if prev < 128 {
		for prev > 0 {
			if zombie && !c.player.LifeActive && newHeart {
				c.heartAimed = false
			}
			if zombie && c.slowBomb && c.fistBomb {
				c.fistBomb = false
			}
			wanted--
			if wanted < 0 {
				wanted = tuning.NumWeapons - 1
			}
			if c.weapons[wanted].Got {
				prev--
			}
		}
	}

	if c.latest.Cur.WantedWeapon != 0 {
		wanted = c.latest.Cur.WantedWeapon - 1
	}

	if wanted >= 0 && wanted < tuning.NumWeapons && wanted != c.core.ActiveWeapon && c.weapons[wanted].Got {
		c.queuedWeapon = wanted
	}
	c.doWeaponSwitch()
}

func (c *Character) fireWeapon() {
	if c.reloadTimer != 0 || c.player.Stats.Frozen {
		return
	}
	c.doWeaponSwitch()

	w := c.core.ActiveWeapon
	spec := weaponTable[w]
	dir := mathx.V(float64(c.latest.Cur.TargetX), float64(c.latest.Cur.TargetY)).Normalize()

	willFire := c.latest.FirePresses() > 0
	if spec.fullAuto(c) && c.latest.FireHeld() {
		willFire = true
	}
	if !willFire {
		return
	}

	ts := c.host.TickSpeed()
	if c.weapons[w].Ammo == 0 {
		c.reloadTimer = 125 * ts / 1000
		c.sound(SoundWeaponNoAmmo)
		return
	}

	start := c.pos.Add(dir.Scale(ProximityRadius * 0.75))
	if !spec.fire(c, dir, start) {
		return
	}

	c.attackTick = c.host.Tick()
	if c.weapons[w].Ammo > 0 {
		c.weapons[w].Ammo--
	}
	if c.reloadTimer == 0 {
		delay := c.core.Tuning.FireDelay(w)
		c.reloadTimer = int(delay * float64(ts) / float64(1000+c.player.Stats.Handling*16))
	}
}

func (c *Character) handleWeapons() {
	if c.reloadTimer > 0 {
		c.reloadTimer--
		return
	}
	c.fireWeapon()

	w := c.core.ActiveWeapon
	slot := &c.weapons[w]

	if c.player.Stats.AmmoRegen >= 1 && slot.Ammo < c.maxAmmo && (w == tuning.WeaponShotgun || w == tuning.WeaponGrenade) {
		if c.regenTime > 0 {
			c.regenTime--
		} else {
			c.regenTime = 160 - c.player.Stats.AmmoRegen*2 - 5
			slot.Ammo++
		}
	}

	spec := c.host.Tuning().Weapon(w)
	if spec.AmmoRegenMs == 0 {
		return
	}
	if c.reloadTimer > 0 {
		slot.AmmoRegenStart = -1
		return
	}
	now := c.host.Tick()
	if slot.AmmoRegenStart < 0 {
		slot.AmmoRegenStart = now
	}
	if now-slot.AmmoRegenStart >= int64(spec.AmmoRegenMs*c.host.TickSpeed()/1000) {
		slot.Ammo = mathx.MinInt(slot.Ammo+1, spec.MaxAmmo)
		slot.AmmoRegenStart = -1
	}
}

func fireHammer(c *Character, dir, start mathx.Vec2) bool {
	c.sound(SoundHammerFire)
	hits := 0
	if c.player.Team == TeamRed {
		hits = c.zombieHammer(dir, start)
	} else {
		hits = c.humanHammer(start)
	}
	if hits > 0 {
		c.reloadTimer = c.host.TickSpeed() / 3
	}
	return true
}

// mineSalt separates the mine roll from other deterministic choices.
const mineSalt = 150

func (c *Character) zombieHammer(dir, start mathx.Vec2) int {
	h := c.host
	ts := h.TickSpeed()
	id := c.player.ID

	if mathx.Pick(h.Seed(), h.Tick(), id, mineSalt, 150) == 15 {
		h.SpawnMine(id, c.pos)
	}

	newHeart := h.Tuning().Game.NewHeart
	if !c.player.LifeActive && c.timers[abilityHeart] == 0 && (c.heartAimed || !newHeart) {
		c.player.LifeActive = true
	}

	if c.slowBomb && c.fistBomb {
		h.SpawnProjectile(Projectile{
			Owner:    id,
			Type:     tuning.WeaponGrenade,
			Weapon:   tuning.WeaponHammer,
			Pos:      c.pos,
			Dir:      dir,
			Lifetime: int(float64(ts) * c.core.Tuning.GrenadeLifetime),
			Force:    17,
		})
		c.sound(SoundGrenadeFire)
		c.slowBomb = false
		c.fistBomb = false
		c.thrownBomb = true
		c.hammeredBomb = false
		c.timers[abilitySlowBomb] = 3 * ts
	} else if !c.hammeredBomb && c.thrownBomb {
		c.hammeredBomb = true
	}

	for _, t := range h.TurretsNear(c.pos, 25) {
		if hit, _, _ := h.Map().IntersectLine(c.pos, t.Pos); hit {
			continue
		}
		if h.Character(t.Owner) != nil {
			c.soundTo(SoundTurretDown, t.Owner)
		}
		c.effect("hammer_hit", t.Pos)
		h.DestroyTurret(t.ID)
		c.awardExperience(1, c.player)
	}

	radius := ProximityRadius * 0.76
	if c.player.RangeUpgrade {
		radius = ProximityRadius * 2
	}
	hits := 0
	for _, target := range h.CharactersNear(start, radius) {
		if target == c || !target.alive || target.player.Team == TeamRed {
			continue
		}
		if hit, _, _ := h.Map().IntersectLine(start, target.pos); hit {
			continue
		}
		c.hammerHitEffect(target, start)
		if !target.Invisible() {
			h.Controller().Infect(target.player, id)
		}
		hits++
	}
	return hits
}

func (c *Character) humanHammer(start mathx.Vec2) int {
	h := c.host
	ts := h.TickSpeed()
	switch {
	case c.timers[abilityInvisCooldown] > 0:
	case c.armorWall:
		h.Chat(c.player.ID, "You can't use invisible and armorwall together!")
	default:
		c.effect("player_spawn", c.pos)
		c.timers[abilityInvis] = 5 * ts
		c.timers[abilityInvisCooldown] = 30 * ts
	}

	hits := 0
	for _, target := range h.CharactersNear(start, ProximityRadius*0.5) {
		if target == c || !target.alive || target.player.Team != TeamRed {
			continue
		}
		c.hammerHitEffect(target, start)
		dmg := 3 + c.player.Stats.Damage
		if c.player.Stats.VIP {
			dmg = 1 + c.player.Stats.Damage*5
		}
		target.TakeDamage(mathx.Vec2{}, dmg, c.player.ID, tuning.WeaponHammer)
		hits++
	}
	return hits
}

func (c *Character) hammerHitEffect(target *Character, start mathx.Vec2) {
	d := target.pos.Sub(start)
	if d.Len() > 0 {
		c.effect("hammer_hit", target.pos.Sub(d.Normalize().Scale(ProximityRadius*0.5)))
		return
	}
	c.effect("hammer_hit", start)
}

func fireGun(c *Character, dir, start mathx.Vec2) bool {
	g := c.host.Tuning().Game
	c.host.SpawnProjectile(Projectile{
		Owner:     c.player.ID,
		Type:      tuning.WeaponGun,
		Weapon:    tuning.WeaponGun,
		Pos:       start,
		Dir:       dir,
		Lifetime:  int(float64(c.host.TickSpeed()) * c.core.Tuning.GunLifetime),
		Damage:    2 + c.player.Stats.Damage,
		Explosive: g.KillingSpree > 0 && c.player.KillingSpree >= g.KillingSpree,
		Force:     22,
	})
	c.sound(SoundGunFire)
	return true
}

// ShotSpread returns the number of shotgun pellets for a level.
func ShotSpread(level int) int {
	n := 5 + level/10
	if n > 15 {
		n = 15 + level/70
		if n > 36 {
			n = 36
		}
	}
	return n
}

func fireShotgun(c *Character, dir, start mathx.Vec2) bool {
	level := c.player.Stats.Level
	n := ShotSpread(level)
	base := dir.Angle()
	lifetime := int(float64(c.host.TickSpeed()) * 1.5)
	for i := -n / 2; i <= n/2; i++ {
		a := base + 0.06*float64(i)
		v := 1 - (math.Abs(float64(i))/float64(n))/2
		speed := 1.2
		if level <= 19 {
			speed = mathx.Mix(c.core.Tuning.ShotgunSpeeddiff, 1.2, v)
		}
		c.host.SpawnProjectile(Projectile{
			Owner:    c.player.ID,
			Type:     tuning.WeaponShotgun,
			Weapon:   tuning.WeaponShotgun,
			Pos:      start,
			Dir:      mathx.Dir(a).Scale(speed),
			Lifetime: lifetime,
			Damage:   1 + c.player.Stats.Damage/5,
			Force:    1,
		})
	}
	c.sound(SoundShotgunFire)
	return true
}

func fireGrenade(c *Character, dir, start mathx.Vec2) bool {
	c.host.SpawnProjectile(Projectile{
		Owner:     c.player.ID,
		Type:      tuning.WeaponGrenade,
		Weapon:    tuning.WeaponGrenade,
		Pos:       start,
		Dir:       dir,
		Lifetime:  int(float64(c.host.TickSpeed()) * c.core.Tuning.GrenadeLifetime),
		Explosive: true,
		Force:     17,
	})
	c.sound(SoundGrenadeFire)
	return true
}

func fireRifle(c *Character, _, _ mathx.Vec2) bool {
	if !c.rifleAnchor.set {
		c.rifleAnchor = placement{at: c.pos, set: true}
		return true
	}
	anchor := c.rifleAnchor.at
	c.rifleAnchor = placement{}
	to, reason, ok := validatePlacement(c.host.Map(), anchor, c.pos)
	if !ok {
		c.weapons[tuning.WeaponRifle].Ammo = 2
		c.host.Chat(c.player.ID, reason)
		return false
	}
	c.host.SpawnWall(Wall{Owner: c.player.ID, From: anchor, To: to})
	return true
}

// GrenadeFire launches an explosive grenade from pos towards the character.
// Turrets use it to shoot at their target.
func (c *Character) GrenadeFire(owner int, pos mathx.Vec2) {
	dir := c.pos.Sub(pos).Normalize()
	c.host.SpawnProjectile(Projectile{
		Owner:     owner,
		Type:      tuning.WeaponGrenade,
		Weapon:    tuning.WeaponGrenade,
		Pos:       pos.Add(dir),
		Dir:       dir,
		Lifetime:  int(float64(c.host.TickSpeed()) * c.core.Tuning.GrenadeLifetime),
		Damage:    1,
		Explosive: true,
		Force:     17,
	})
	ev := c.event("SOUND", pos)
	ev["sound"] = SoundGrenadeFire
	c.host.Emit(ev)
}
