package character

import (
	"outbreak.gg/internal/protocol"
	"outbreak.gg/internal/sim/mathx"
	"outbreak.gg/internal/sim/physics"
	"outbreak.gg/internal/sim/tilemap"
	"outbreak.gg/internal/sim/tuning"
)

// Teams.
const (
	TeamSpectators = -1
	TeamRed        = 0 // zombies
	TeamBlue       = 1 // humans
)

// MapService is the read-only tile map shared by every character.
type MapService interface {
	physics.Collision
	IndexAt(pos mathx.Vec2) int
	PureIndexAt(pos mathx.Vec2) int
	TileAt(layer tilemap.Layer, index int) tilemap.Tile
	TilePos(index int) mathx.Vec2
	IsDeathAt(pos mathx.Vec2) bool
	Clipped(pos mathx.Vec2) bool
	Tele(index int) tilemap.TeleTile
	SpeedupAt(index int) (tilemap.Speedup, mathx.Vec2, bool)
	TuneZone(index int) int
	TeleOuts(number int) []mathx.Vec2
	CheckOuts(number int) []mathx.Vec2
	TraversedIndices(a, b mathx.Vec2) []int
}

// Controller holds the match rules.
type Controller interface {
	CanSpawn(team int) (mathx.Vec2, bool)
	IsFriendlyFire(victim, attacker int) bool
	OnCharacterSpawn(c *Character)
	// OnCharacterDeath returns the mode-specific tag carried by the kill record.
	OnCharacterDeath(c *Character, killer, weapon int) int
	Infect(victim *Player, by int)
	OnHoldpoint(n int)
	OnZStop(n int)
	OnZHoldpoint(n int)
	Warmup() bool
}

// Projectile describes a projectile the world should spawn.
type Projectile struct {
	Owner     int
	Type      int // weapon the projectile looks like
	Weapon    int // weapon credited for damage
	Pos       mathx.Vec2
	Dir       mathx.Vec2
	Lifetime  int
	Damage    int
	Explosive bool
	Force     float64
}

// Wall is a placed segment that blocks zombies.
type Wall struct {
	Owner    int
	From, To mathx.Vec2
}

type Turret struct {
	Owner    int
	Weapon   int
	Pos      mathx.Vec2
	From, To mathx.Vec2
}

type TurretRef struct {
	ID    int
	Owner int
	Pos   mathx.Vec2
}

// Host is the world a character lives in.
type Host interface {
	Tick() int64
	TickSpeed() int
	Seed() int64
	Paused() bool
	Tuning() *tuning.Tuning
	Map() MapService
	Controller() Controller
	Core() *physics.World

	Character(id int) *Character
	Player(id int) *Player
	CharactersNear(pos mathx.Vec2, radius float64) []*Character

	SpawnProjectile(p Projectile)
	SpawnWall(w Wall)
	SpawnTurret(t Turret)
	SpawnMine(owner int, pos mathx.Vec2)
	TurretsNear(pos mathx.Vec2, radius float64) []TurretRef
	DestroyTurret(id int)

	Emit(ev protocol.Event)
	Chat(to int, text string)
	Broadcast(to int, text string)
	PushTuning(to int, zone int)
	Kill(k protocol.KillMsg)
	Diagnostic(ev protocol.Event)

	// RemoveCharacter drops c from the live set and calls c.Destroy.
	RemoveCharacter(c *Character)
	NewSnapID() int
	FreeSnapID(id int)
}

// Progression is the account data that scales weapons and rewards.
type Progression struct {
	Level     int  `json:"level"`
	Exp       int  `json:"exp"`
	Damage    int  `json:"damage"`
	Handling  int  `json:"handling"`
	AmmoBonus int  `json:"ammo_bonus"`
	AmmoRegen int  `json:"ammo_regen"`
	VIP       bool `json:"vip"`
	Frozen    bool `json:"frozen"`
}

// Player is the per-connection state that outlives a character.
type Player struct {
	ID    int
	Name  string
	Team  int
	Stats Progression

	JumpBonus    int
	RangeUpgrade bool
	KillingSpree int
	LifeActive   bool

	DefaultEmote      int
	DefaultEmoteReset int64

	RespawnTick int64
	DieTick     int64
	ViewPos     mathx.Vec2
	SpectatorID int
	PlayerFlags int
}

func NewPlayer(id int, name string, team int) *Player {
	return &Player{ID: id, Name: name, Team: team, DefaultEmoteReset: -1, SpectatorID: -1}
}

// Viewer is the observer a snapshot is built for. ID -1 sees everything.
type Viewer struct {
	ID          int
	Team        int
	ViewPos     mathx.Vec2
	SpectatorID int
}
