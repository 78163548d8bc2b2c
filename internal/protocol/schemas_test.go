package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"outbreak.gg/internal/protocol"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, raw []byte) {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate(t, compileSchema(t, "hello.schema.json"), []byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "player_name":"nameless tee",
	  "capabilities":{"max_queue":8}
	}`))

	validate(t, compileSchema(t, "input.schema.json"), []byte(`{
	  "type":"INPUT",
	  "protocol_version":"1.0",
	  "tick":120,
	  "input":{"direction":-1,"target_x":10,"target_y":-3,"jump":0,"fire":3,"hook":0,
	           "player_flags":0,"wanted_weapon":0,"next_weapon":2,"prev_weapon":0}
	}`))

	validate(t, compileSchema(t, "cmd.schema.json"), []byte(`{
	  "type":"CMD",
	  "protocol_version":"1.0",
	  "name":"shield"
	}`))
}

// Server-produced messages are marshalled from the Go structs so that schema
// drift in either direction is caught.
func TestSchemas_ValidateServerMessages(t *testing.T) {
	welcome, _ := json.Marshal(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "7f1c6f0e-5b8f-4a59-9a7e-7a0d2a1b3c4d",
		ClientID:        3,
		Team:            1,
		WorldParams:     protocol.WorldParams{TickRateHz: 50, MapName: "arena", MapWidth: 40, MapHeight: 20, Seed: 7},
	})
	validate(t, compileSchema(t, "welcome.schema.json"), welcome)

	snap, _ := json.Marshal(protocol.SnapMsg{
		Type:            protocol.TypeSnap,
		ProtocolVersion: protocol.Version,
		Tick:            99,
		Characters: []protocol.CharacterSnap{{
			ID:            3,
			CharacterCore: protocol.CharacterCore{Tick: 90, X: 320, Y: 160, HookedPlayer: -1},
			Weapon:        1,
			AmmoCount:     10,
			Health:        10,
		}},
		Items: []protocol.SnapItem{{ID: 70, Kind: protocol.ItemPickup, X: 400, Y: 160}},
	})
	validate(t, compileSchema(t, "snap.schema.json"), snap)

	kill, _ := json.Marshal(protocol.KillMsg{
		Type:            protocol.TypeKill,
		ProtocolVersion: protocol.Version,
		Tick:            12,
		Killer:          1,
		Victim:          2,
		Weapon:          0,
	})
	validate(t, compileSchema(t, "kill.schema.json"), kill)
}
