// Package rules implements the infection match: humans hold out against
// zombies, and every human killed or hammered joins the zombies.
package rules

import (
	"fmt"
	"sort"

	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/character"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/tuning"
)

// Mode-special tags carried by kill records.
const (
	SpecialNone = iota
	SpecialInfected
	SpecialHeart
	SpecialRoundEnd
)

// World is what the rules need from the simulation.
type World interface {
	Tick() int64
	Seed() int64
	Tuning() *tuning.Tuning
	Character(id int) *character.Character
	Player(id int) *character.Player
	Players() []*character.Player
	Chat(to int, text string)
	Kill(k protocol.KillMsg)
}

// SpawnSource lists the spawn points of a map.
type SpawnSource interface {
	SpawnPoints(team int) []mathx.Vec2
}

// Scores counts tile objectives touched this round.
type Scores struct {
	Holdpoints  map[int]int `json:"holdpoints"`
	ZStops      map[int]int `json:"zstops"`
	ZHoldpoints map[int]int `json:"zholdpoints"`
	Infections  int         `json:"infections"`
	Rounds      int         `json:"rounds"`
}

// Infection is the match controller. It is driven from the world goroutine.
type Infection struct {
	w      World
	spawns SpawnSource

	started     bool
	startTick   int64
	patientZero bool
	spawnTurn   int

	scores Scores
}

func New(w World, spawns SpawnSource) *Infection {
	r := &Infection{w: w, spawns: spawns}
	r.resetScores()
	return r
}

func (r *Infection) resetScores() {
	rounds := r.scores.Rounds
	r.scores = Scores{
		Holdpoints:  map[int]int{},
		ZStops:      map[int]int{},
		ZHoldpoints: map[int]int{},
		Rounds:      rounds,
	}
}

func (r *Infection) Scores() Scores { return r.scores }
func (r *Infection) Started() bool  { return r.started }

// Warmup reports whether infection is still disabled for this round.
func (r *Infection) Warmup() bool {
	if !r.started {
		return true
	}
	return r.w.Tick() < r.startTick+int64(r.w.Tuning().Game.WarmupTicks)
}

func (r *Infection) playing() []*character.Player {
	var out []*character.Player
	for _, p := range r.w.Players() {
		if p.Team != character.TeamSpectators {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tick advances the round: start once two players are in, pick the first
// zombie after warmup, and restart when no human is left.
func (r *Infection) Tick() {
	players := r.playing()
	now := r.w.Tick()
	if !r.started {
		if len(players) >= 2 {
			r.started = true
			r.startTick = now
			r.w.Chat(-1, "The round has started. Warmup!")
		}
		return
	}
	if r.Warmup() {
		return
	}

	var humans, zombies []*character.Player
	for _, p := range players {
		if p.Team == character.TeamBlue {
			humans = append(humans, p)
		} else {
			zombies = append(zombies, p)
		}
	}
	if !r.patientZero {
		r.patientZero = true
		if len(zombies) == 0 && len(humans) > 0 {
			p := humans[mathx.Pick(r.w.Seed(), now, 0, len(humans), len(humans))]
			r.Infect(p, tuning.WeaponGame)
		}
		return
	}
	if len(humans) == 0 && len(players) > 0 {
		r.endRound(players)
	}
}

func (r *Infection) endRound(players []*character.Player) {
	r.w.Chat(-1, "Zombies win!")
	now := r.w.Tick()
	for _, p := range players {
		if c := r.w.Character(p.ID); c != nil {
			c.Die(p.ID, tuning.WeaponGame)
		}
		p.Team = character.TeamBlue
		p.RespawnTick = now
		p.KillingSpree = 0
		p.LifeActive = false
	}
	r.scores.Rounds++
	r.resetScores()
	r.started = false
	r.patientZero = false
}

// CanSpawn picks a free spawn point for team, rotating between calls.
func (r *Infection) CanSpawn(team int) (mathx.Vec2, bool) {
	pts := r.spawns.SpawnPoints(team)
	if len(pts) == 0 {
		return mathx.Vec2{}, false
	}
	for i := 0; i < len(pts); i++ {
		p := pts[(r.spawnTurn+i)%len(pts)]
		if !r.occupied(p) {
			r.spawnTurn = (r.spawnTurn + i + 1) % len(pts)
			return p, true
		}
	}
	return mathx.Vec2{}, false
}

func (r *Infection) occupied(pos mathx.Vec2) bool {
	for _, p := range r.w.Players() {
		if c := r.w.Character(p.ID); c != nil && c.Pos().Dist(pos) < character.ProximityRadius {
			return true
		}
	}
	return false
}

// IsFriendlyFire rejects damage between members of the same faction.
func (r *Infection) IsFriendlyFire(victim, attacker int) bool {
	if victim == attacker {
		return false
	}
	v, a := r.w.Player(victim), r.w.Player(attacker)
	if v == nil || a == nil {
		return false
	}
	return v.Team == a.Team
}

// OnCharacterSpawn hands out the faction loadout.
func (r *Infection) OnCharacterSpawn(c *character.Character) {
	c.IncreaseHealth(character.MaxHealth)
	c.GiveWeapon(tuning.WeaponHammer, -1)
	if c.Team() == character.TeamRed {
		c.SetZomb()
		return
	}
	c.IncreaseArmor(5)
	c.GiveWeapon(tuning.WeaponGun, r.w.Tuning().Weapon(tuning.WeaponGun).MaxAmmo)
	c.GiveWeapon(tuning.WeaponShotgun, r.w.Tuning().Weapon(tuning.WeaponShotgun).MaxAmmo)
	c.GiveWeapon(tuning.WeaponGrenade, r.w.Tuning().Weapon(tuning.WeaponGrenade).MaxAmmo)
	c.GiveWeapon(tuning.WeaponRifle, 2)
}

// OnCharacterDeath converts dead humans once the round is live and lets a
// zombie with an active heart come straight back.
func (r *Infection) OnCharacterDeath(c *character.Character, killer, weapon int) int {
	p := c.Player()
	switch {
	case p.Team == character.TeamBlue && r.started && !r.Warmup() && weapon != tuning.WeaponGame:
		p.Team = character.TeamRed
		r.scores.Infections++
		return SpecialInfected
	case p.Team == character.TeamRed && p.LifeActive:
		p.LifeActive = false
		p.RespawnTick = r.w.Tick()
		return SpecialHeart
	}
	if weapon == tuning.WeaponGame {
		return SpecialRoundEnd
	}
	return SpecialNone
}

// Infect turns victim into a zombie. by is the infector's id, or a
// negative pseudo source.
func (r *Infection) Infect(victim *character.Player, by int) {
	if victim == nil || victim.Team != character.TeamBlue {
		return
	}
	victim.Team = character.TeamRed
	victim.KillingSpree = 0
	r.scores.Infections++
	if c := r.w.Character(victim.ID); c != nil {
		c.SetZomb()
	}
	weapon := tuning.WeaponHammer
	if by < 0 {
		weapon = tuning.WeaponGame
	}
	r.w.Kill(protocol.KillMsg{
		Type:            protocol.TypeKill,
		ProtocolVersion: r.w.Tuning().ProtocolVersion,
		Tick:            r.w.Tick(),
		Killer:          by,
		Victim:          victim.ID,
		Weapon:          weapon,
		ModeSpecial:     SpecialInfected,
	})
	r.w.Chat(-1, fmt.Sprintf("%s has been infected", victim.Name))
}

func (r *Infection) OnHoldpoint(n int)  { r.scores.Holdpoints[n]++ }
func (r *Infection) OnZStop(n int)      { r.scores.ZStops[n]++ }
func (r *Infection) OnZHoldpoint(n int) { r.scores.ZHoldpoints[n]++ }

var _ character.Controller = (*Infection)(nil)
