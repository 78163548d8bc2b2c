package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weapon slots. The pseudo weapons are used as damage sources only.
const (
	WeaponHammer = iota
	WeaponGun
	WeaponShotgun
	WeaponGrenade
	WeaponRifle
	WeaponNinja
	NumWeapons

	WeaponGame  = -3
	WeaponSelf  = -2
	WeaponWorld = -1
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int   `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int   `yaml:"snapshot_every_ticks"`
	MaxPlayers         int   `yaml:"max_players"`
	Seed               int64 `yaml:"seed"`

	Physics Params       `yaml:"physics"`
	Zones   map[int]Zone `yaml:"zones"`
	Weapons []Weapon     `yaml:"weapons"`
	Game    Game         `yaml:"game"`
}

// Zone overrides a subset of Params inside a tune zone.
type Zone struct {
	Params map[string]float64 `yaml:"params"`
	Enter  string             `yaml:"enter"`
	Leave  string             `yaml:"leave"`
}

type Weapon struct {
	Name        string `yaml:"name"`
	MaxAmmo     int    `yaml:"max_ammo"`
	AmmoRegenMs int    `yaml:"ammo_regen_ms"`
}

type Game struct {
	ExpFactor           int  `yaml:"exp_factor"`
	ExpFactorVIP        int  `yaml:"exp_factor_vip"`
	ExpFactorNovice     int  `yaml:"exp_factor_novice"`
	ExpBonus            int  `yaml:"exp_bonus"`
	KillingSpree        int  `yaml:"killing_spree"`
	TeleportHoldHook    bool `yaml:"teleport_hold_hook"`
	TeleportLoseWeapons bool `yaml:"teleport_lose_weapons"`
	SelfKnockback       bool `yaml:"self_knockback"`
	NewHeart            bool `yaml:"new_heart"`
	WarmupTicks         int  `yaml:"warmup_ticks"`
	RespawnDelayMs      int  `yaml:"respawn_delay_ms"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         50,
		SnapshotEveryTicks: 3000,
		MaxPlayers:         32,
		Seed:               1337,
		Physics:            DefaultParams(),
		Zones:              map[int]Zone{},
		Weapons: []Weapon{
			{Name: "hammer", MaxAmmo: -1},
			{Name: "gun", MaxAmmo: 10, AmmoRegenMs: 500},
			{Name: "shotgun", MaxAmmo: 10},
			{Name: "grenade", MaxAmmo: 10},
			{Name: "rifle", MaxAmmo: 10},
			{Name: "ninja", MaxAmmo: 10},
		},
		Game: Game{
			ExpFactor:       1,
			ExpFactorVIP:    2,
			ExpFactorNovice: 2,
			ExpBonus:        1,
			KillingSpree:    5,
			WarmupTicks:     500,
			RespawnDelayMs:  500,
		},
	}
}

// Load reads a tuning file on top of Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if len(t.Weapons) != NumWeapons {
		return fmt.Errorf("weapons: got %d entries want %d", len(t.Weapons), NumWeapons)
	}
	for id, z := range t.Zones {
		if id <= 0 {
			return fmt.Errorf("zones: id %d reserved for the default set", id)
		}
		for k := range z.Params {
			if _, ok := paramIndex[k]; !ok {
				return fmt.Errorf("zones[%d]: unknown param %q", id, k)
			}
		}
	}
	return nil
}

// ZoneParams returns the physics set active inside tune zone id. Zone 0 and
// unknown zones use the default set.
func (t Tuning) ZoneParams(id int) Params {
	z, ok := t.Zones[id]
	if !ok || id == 0 {
		return t.Physics
	}
	return t.Physics.With(z.Params)
}

func (t Tuning) Weapon(w int) Weapon {
	if w < 0 || w >= len(t.Weapons) {
		return Weapon{}
	}
	return t.Weapons[w]
}

// Digest identifies a tuning set in the WELCOME payload and snapshot headers.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
