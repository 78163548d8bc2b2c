package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	PlayerName      string            `json:"player_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	Spectate        bool              `json:"spectate,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	ClientID        int         `json:"client_id"`
	Team            int         `json:"team"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz   int    `json:"tick_rate_hz"`
	MapName      string `json:"map_name"`
	MapWidth     int    `json:"map_width"`
	MapHeight    int    `json:"map_height"`
	Seed         int64  `json:"seed"`
	TuningDigest string `json:"tuning_digest,omitempty"`
}

// PlayerInput mirrors the per-tick input object sent by clients.
// Fire, NextWeapon and PrevWeapon are edge counters: the low bit carries the
// held state and every press/release increments the counter.
type PlayerInput struct {
	Direction    int `json:"direction"`
	TargetX      int `json:"target_x"`
	TargetY      int `json:"target_y"`
	Jump         int `json:"jump"`
	Fire         int `json:"fire"`
	Hook         int `json:"hook"`
	PlayerFlags  int `json:"player_flags"`
	WantedWeapon int `json:"wanted_weapon"`
	NextWeapon   int `json:"next_weapon"`
	PrevWeapon   int `json:"prev_weapon"`
}

// INPUT (client -> server)
type InputMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            int64       `json:"tick"`
	Predicted       bool        `json:"predicted,omitempty"`
	Input           PlayerInput `json:"input"`
}

// Ability commands accepted in CMD messages.
const (
	CmdShield      = "shield"
	CmdHeartShield = "heart_shield"
	CmdSlowBomb    = "slow_bomb"
	CmdTurret      = "turret"

	// CmdFollow points a spectator's view at Target while On, free view otherwise.
	CmdFollow = "follow"
)

// CMD (client -> server)
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`
	On              bool   `json:"on,omitempty"`
	Target          int    `json:"target,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
