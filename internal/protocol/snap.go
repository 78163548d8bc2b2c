package protocol

// CharacterCore is the serialized physics state of a character. Two cores are
// considered equal for dead reckoning when every field matches.
type CharacterCore struct {
	Tick         int64 `json:"tick"`
	X            int   `json:"x"`
	Y            int   `json:"y"`
	VelX         int   `json:"vel_x"`
	VelY         int   `json:"vel_y"`
	Angle        int   `json:"angle"`
	Direction    int   `json:"direction"`
	Jumped       int   `json:"jumped"`
	HookedPlayer int   `json:"hooked_player"`
	HookState    int   `json:"hook_state"`
	HookTick     int   `json:"hook_tick"`
	HookX        int   `json:"hook_x"`
	HookY        int   `json:"hook_y"`
	HookDx       int   `json:"hook_dx"`
	HookDy       int   `json:"hook_dy"`
}

// CharacterSnap is one character as seen by one observer.
type CharacterSnap struct {
	ID int `json:"id"`
	CharacterCore

	Emote       int   `json:"emote"`
	AttackTick  int64 `json:"attack_tick"`
	Weapon      int   `json:"weapon"`
	AmmoCount   int   `json:"ammo_count"`
	Health      int   `json:"health"`
	Armor       int   `json:"armor"`
	PlayerFlags int   `json:"player_flags"`
}

// Auxiliary snap item kinds.
const (
	ItemPickup     = "pickup"
	ItemLaser      = "laser"
	ItemProjectile = "projectile"
)

// SnapItem is an auxiliary cosmetic object (pickups, lasers, markers).
type SnapItem struct {
	ID        int    `json:"id"`
	Kind      string `json:"kind"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	FromX     int    `json:"from_x,omitempty"`
	FromY     int    `json:"from_y,omitempty"`
	StartTick int64  `json:"start_tick,omitempty"`
	Subtype   int    `json:"subtype,omitempty"`
}

// SNAP (server -> client)
type SnapMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Tick            int64           `json:"tick"`
	Characters      []CharacterSnap `json:"characters"`
	Items           []SnapItem      `json:"items,omitempty"`
	Events          []Event         `json:"events,omitempty"`
}

// KILL (server -> all clients)
type KillMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int64  `json:"tick"`
	Killer          int    `json:"killer"`
	Victim          int    `json:"victim"`
	Weapon          int    `json:"weapon"`
	ModeSpecial     int    `json:"mode_special"`
}

// CHAT (server -> client)
type ChatMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int64  `json:"tick"`
	Text            string `json:"text"`
}

// BROADCAST (server -> client). Text is the status overlay; leading newlines
// position it vertically on the client.
type BroadcastMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int64  `json:"tick"`
	Text            string `json:"text"`
}

// TUNING (server -> client)
type TuningMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	Tick            int64              `json:"tick"`
	Zone            int                `json:"zone"`
	Params          map[string]float64 `json:"params"`
}
