package tuning

import "sort"

// Params is the physics and weapon tuning set pushed into the character core.
// Tune zones override individual entries by yaml name.
type Params struct {
	GroundControlSpeed float64 `yaml:"ground_control_speed" json:"ground_control_speed"`
	GroundControlAccel float64 `yaml:"ground_control_accel" json:"ground_control_accel"`
	GroundFriction     float64 `yaml:"ground_friction" json:"ground_friction"`
	GroundJumpImpulse  float64 `yaml:"ground_jump_impulse" json:"ground_jump_impulse"`
	AirJumpImpulse     float64 `yaml:"air_jump_impulse" json:"air_jump_impulse"`
	AirControlSpeed    float64 `yaml:"air_control_speed" json:"air_control_speed"`
	AirControlAccel    float64 `yaml:"air_control_accel" json:"air_control_accel"`
	AirFriction        float64 `yaml:"air_friction" json:"air_friction"`
	HookLength         float64 `yaml:"hook_length" json:"hook_length"`
	HookFireSpeed      float64 `yaml:"hook_fire_speed" json:"hook_fire_speed"`
	HookDragAccel      float64 `yaml:"hook_drag_accel" json:"hook_drag_accel"`
	HookDragSpeed      float64 `yaml:"hook_drag_speed" json:"hook_drag_speed"`
	HookDuration       float64 `yaml:"hook_duration" json:"hook_duration"`
	Gravity            float64 `yaml:"gravity" json:"gravity"`
	VelrampStart       float64 `yaml:"velramp_start" json:"velramp_start"`
	VelrampRange       float64 `yaml:"velramp_range" json:"velramp_range"`
	VelrampCurvature   float64 `yaml:"velramp_curvature" json:"velramp_curvature"`

	GunSpeed         float64 `yaml:"gun_speed" json:"gun_speed"`
	GunLifetime      float64 `yaml:"gun_lifetime" json:"gun_lifetime"`
	ShotgunSpeed     float64 `yaml:"shotgun_speed" json:"shotgun_speed"`
	ShotgunSpeeddiff float64 `yaml:"shotgun_speeddiff" json:"shotgun_speeddiff"`
	ShotgunLifetime  float64 `yaml:"shotgun_lifetime" json:"shotgun_lifetime"`
	GrenadeSpeed     float64 `yaml:"grenade_speed" json:"grenade_speed"`
	GrenadeLifetime  float64 `yaml:"grenade_lifetime" json:"grenade_lifetime"`
	LaserReach       float64 `yaml:"laser_reach" json:"laser_reach"`

	PlayerCollision float64 `yaml:"player_collision" json:"player_collision"`
	PlayerHooking   float64 `yaml:"player_hooking" json:"player_hooking"`

	HammerFireDelay  float64 `yaml:"hammer_fire_delay" json:"hammer_fire_delay"`
	GunFireDelay     float64 `yaml:"gun_fire_delay" json:"gun_fire_delay"`
	ShotgunFireDelay float64 `yaml:"shotgun_fire_delay" json:"shotgun_fire_delay"`
	GrenadeFireDelay float64 `yaml:"grenade_fire_delay" json:"grenade_fire_delay"`
	RifleFireDelay   float64 `yaml:"rifle_fire_delay" json:"rifle_fire_delay"`
	NinjaFireDelay   float64 `yaml:"ninja_fire_delay" json:"ninja_fire_delay"`
}

func DefaultParams() Params {
	return Params{
		GroundControlSpeed: 10,
		GroundControlAccel: 100.0 / 50,
		GroundFriction:     0.5,
		GroundJumpImpulse:  13.2,
		AirJumpImpulse:     12,
		AirControlSpeed:    250.0 / 50,
		AirControlAccel:    1.5,
		AirFriction:        0.95,
		HookLength:         380,
		HookFireSpeed:      80,
		HookDragAccel:      3,
		HookDragSpeed:      15,
		HookDuration:       1.25,
		Gravity:            0.5,
		VelrampStart:       550,
		VelrampRange:       2000,
		VelrampCurvature:   1.4,
		GunSpeed:           2200,
		GunLifetime:        2,
		ShotgunSpeed:       2750,
		ShotgunSpeeddiff:   0.8,
		ShotgunLifetime:    0.2,
		GrenadeSpeed:       1000,
		GrenadeLifetime:    2,
		LaserReach:         800,
		PlayerCollision:    1,
		PlayerHooking:      1,
		HammerFireDelay:    125,
		GunFireDelay:       125,
		ShotgunFireDelay:   500,
		GrenadeFireDelay:   500,
		RifleFireDelay:     800,
		NinjaFireDelay:     800,
	}
}

var paramIndex = map[string]func(p *Params) *float64{
	"ground_control_speed": func(p *Params) *float64 { return &p.GroundControlSpeed },
	"ground_control_accel": func(p *Params) *float64 { return &p.GroundControlAccel },
	"ground_friction":      func(p *Params) *float64 { return &p.GroundFriction },
	"ground_jump_impulse":  func(p *Params) *float64 { return &p.GroundJumpImpulse },
	"air_jump_impulse":     func(p *Params) *float64 { return &p.AirJumpImpulse },
	"air_control_speed":    func(p *Params) *float64 { return &p.AirControlSpeed },
	"air_control_accel":    func(p *Params) *float64 { return &p.AirControlAccel },
	"air_friction":         func(p *Params) *float64 { return &p.AirFriction },
	"hook_length":          func(p *Params) *float64 { return &p.HookLength },
	"hook_fire_speed":      func(p *Params) *float64 { return &p.HookFireSpeed },
	"hook_drag_accel":      func(p *Params) *float64 { return &p.HookDragAccel },
	"hook_drag_speed":      func(p *Params) *float64 { return &p.HookDragSpeed },
	"hook_duration":        func(p *Params) *float64 { return &p.HookDuration },
	"gravity":              func(p *Params) *float64 { return &p.Gravity },
	"velramp_start":        func(p *Params) *float64 { return &p.VelrampStart },
	"velramp_range":        func(p *Params) *float64 { return &p.VelrampRange },
	"velramp_curvature":    func(p *Params) *float64 { return &p.VelrampCurvature },
	"gun_speed":            func(p *Params) *float64 { return &p.GunSpeed },
	"gun_lifetime":         func(p *Params) *float64 { return &p.GunLifetime },
	"shotgun_speed":        func(p *Params) *float64 { return &p.ShotgunSpeed },
	"shotgun_speeddiff":    func(p *Params) *float64 { return &p.ShotgunSpeeddiff },
	"shotgun_lifetime":     func(p *Params) *float64 { return &p.ShotgunLifetime },
	"grenade_speed":        func(p *Params) *float64 { return &p.GrenadeSpeed },
	"grenade_lifetime":     func(p *Params) *float64 { return &p.GrenadeLifetime },
	"laser_reach":          func(p *Params) *float64 { return &p.LaserReach },
	"player_collision":     func(p *Params) *float64 { return &p.PlayerCollision },
	"player_hooking":       func(p *Params) *float64 { return &p.PlayerHooking },
	"hammer_fire_delay":    func(p *Params) *float64 { return &p.HammerFireDelay },
	"gun_fire_delay":       func(p *Params) *float64 { return &p.GunFireDelay },
	"shotgun_fire_delay":   func(p *Params) *float64 { return &p.ShotgunFireDelay },
	"grenade_fire_delay":   func(p *Params) *float64 { return &p.GrenadeFireDelay },
	"rifle_fire_delay":     func(p *Params) *float64 { return &p.RifleFireDelay },
	"ninja_fire_delay":     func(p *Params) *float64 { return &p.NinjaFireDelay },
}

// With returns a copy of p with the named overrides applied. Unknown names are ignored.
func (p Params) With(overrides map[string]float64) Params {
	for k, v := range overrides {
		if f, ok := paramIndex[k]; ok {
			*f(&p) = v
		}
	}
	return p
}

// FireDelay returns the fire delay in milliseconds for weapon w.
func (p Params) FireDelay(w int) float64 {
	switch w {
	case WeaponHammer:
		return p.HammerFireDelay
	case WeaponGun:
		return p.GunFireDelay
	case WeaponShotgun:
		return p.ShotgunFireDelay
	case WeaponGrenade:
		return p.GrenadeFireDelay
	case WeaponRifle:
		return p.RifleFireDelay
	case WeaponNinja:
		return p.NinjaFireDelay
	}
	return 0
}

// Map flattens p for the TUNING push message.
func (p Params) Map() map[string]float64 {
	out := make(map[string]float64, len(paramIndex))
	for k, f := range paramIndex {
		out[k] = *f(&p)
	}
	return out
}

func ParamNames() []string {
	out := make([]string, 0, len(paramIndex))
	for k := range paramIndex {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
