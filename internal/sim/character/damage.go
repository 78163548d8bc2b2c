package character

import (
	"fmt"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

const (
	SoundHit       = "hit"
	SoundPainShort = "pain_short"
	SoundPainLong  = "pain_long"
	SoundDie       = "die"
)

// damageWindow is how long hits keep accumulating into one indicator fan.
const damageWindow = 25

func knockbackScale(weapon int) float64 {
	switch weapon {
	case tuning.WeaponShotgun:
		return 3.6
	case tuning.WeaponGun:
		return 0.5
	case tuning.WeaponGrenade:
		return 2.1
	}
	return 1
}

// TakeDamage applies a hit from player from. It reports whether the hit
// landed; friendly fire is rejected before any state changes except knockback.
func (c *Character) TakeDamage(force mathx.Vec2, dmg, from, weapon int) bool {
	if !c.alive {
		return false
	}
	h := c.host
	if from == c.player.ID {
		if h.Tuning().Game.SelfKnockback {
			c.core.Vel = c.core.Vel.Add(force)
		}
	} else {
		c.core.Vel = c.core.Vel.Add(force.Scale(knockbackScale(weapon)))
	}

	if from >= 0 && h.Controller().IsFriendlyFire(c.player.ID, from) {
		return false
	}

	now := h.Tick()
	if now < c.damageTakenTick+damageWindow {
		c.damageTaken++
	} else {
		c.damageTaken = 0
	}
	c.damageTakenTick = now
	c.damageIndicator(dmg)

	c.health = mathx.ClampInt(c.health-dmg, 0, MaxHealth)

	if from >= 0 && from != c.player.ID && h.Player(from) != nil {
		c.soundTo(SoundHit, from)
	}

	if c.health <= 0 {
		if from >= 0 && from != c.player.ID {
			if killer := h.Player(from); killer != nil {
				bonus := h.Tuning().Game.ExpBonus
				c.awardExperience(3+(killer.Stats.Level/40)*bonus, killer)
				killer.KillingSpree++
				if spree := h.Tuning().Game.KillingSpree; spree > 0 && killer.KillingSpree == spree {
					h.Chat(-1, fmt.Sprintf("%s is on killing spree!", killer.Name))
				}
			}
		}
		c.Die(from, weapon)
		return true
	}

	if dmg > 2 {
		c.sound(SoundPainLong)
	} else {
		c.sound(SoundPainShort)
	}
	c.SetEmote(EmotePain, now+int64(500*h.TickSpeed()/1000))
	return true
}

func (c *Character) damageIndicator(dmg int) {
	amount := dmg
	if dmg > 50 {
		amount = 25
	}
	ev := c.event("EFFECT", c.pos)
	ev["effect"] = "damage_ind"
	ev["angle"] = float64(c.damageTaken) * 0.25
	ev["amount"] = amount
	c.host.Emit(ev)
}

// awardExperience credits exp to p, scaled by the player's bracket.
func (c *Character) awardExperience(exp int, p *Player) {
	if p == nil {
		return
	}
	g := c.host.Tuning().Game
	factor := g.ExpFactor
	switch {
	case p.Stats.Frozen:
		factor = 0
	case p.Stats.VIP:
		factor = g.ExpFactorVIP
	case p.Stats.Level < 50:
		factor = g.ExpFactorNovice
	}
	p.Stats.Exp += exp * factor
	if p.Stats.Exp >= p.Stats.Level {
		p.Stats.Exp = 0
		p.Stats.Level++
		if ch := c.host.Character(p.ID); ch != nil {
			ch.SetEmote(EmoteHappy, c.host.Tick()+int64(c.host.TickSpeed()))
		}
		return
	}
	c.host.Broadcast(p.ID, fmt.Sprintf("%sExp %d/%d", pad(15), p.Stats.Exp, p.Stats.Level))
}

// Die removes the character from the world. Only the first call has effect.
func (c *Character) Die(killer, weapon int) {
	if !c.alive {
		return
	}
	h := c.host
	now := h.Tick()
	c.health = 0
	c.player.RespawnTick = now + int64(h.TickSpeed()/2)
	special := h.Controller().OnCharacterDeath(c, killer, weapon)

	h.Kill(protocol.KillMsg{
		Type:            protocol.TypeKill,
		ProtocolVersion: h.Tuning().ProtocolVersion,
		Tick:            now,
		Killer:          killer,
		Victim:          c.player.ID,
		Weapon:          weapon,
		ModeSpecial:     special,
	})
	c.sound(SoundDie)
	c.player.DieTick = now
	c.effect("death", c.pos)
	h.RemoveCharacter(c)
	c.alive = false
}

// IncreaseHealth reports false when health is already full.
func (c *Character) IncreaseHealth(amount int) bool {
	if c.health >= MaxHealth {
		return false
	}
	c.health = mathx.ClampInt(c.health+amount, 0, MaxHealth)
	return true
}

// IncreaseArmor reports false when armor is already full.
func (c *Character) IncreaseArmor(amount int) bool {
	if c.armor >= MaxArmor {
		return false
	}
	c.armor = mathx.ClampInt(c.armor+amount, 0, MaxArmor)
	return true
}
