package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeInput     = "INPUT"
	TypeCmd       = "CMD"
	TypeSnap      = "SNAP"
	TypeChat      = "CHAT"
	TypeBroadcast = "BROADCAST"
	TypeKill      = "KILL"
	TypeTuning    = "TUNING"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Event is a loosely typed world event (sounds, effects, diagnostics).
// Every event carries at least "t" (tick) and "type".
type Event map[string]interface{}

func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}
