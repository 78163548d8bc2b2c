package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version   int    `json:"version"`
	WorldID   string `json:"world_id"`
	SessionID string `json:"session_id"`
	Tick      int64  `json:"tick"`
	// Digest is the state digest of Tick, for replay verification.
	Digest string `json:"digest"`
}

// SnapshotV1 is a read model of one world tick. It is written for
// inspection and replay checks; characters are not restored from it.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed         int64  `json:"seed"`
	TickRate     int    `json:"tick_rate_hz"`
	MapName      string `json:"map_name"`
	MapDigest    uint64 `json:"map_digest"`
	TuningDigest string `json:"tuning_digest"`
	Paused       bool   `json:"paused,omitempty"`

	Players    []PlayerV1    `json:"players"`
	Characters []CharacterV1 `json:"characters"`
	Entities   []EntityV1    `json:"entities,omitempty"`
	Rules      RulesV1       `json:"rules"`

	SnapIDsInUse int `json:"snap_ids_in_use"`
}

type PlayerV1 struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Team         int    `json:"team"`
	Level        int    `json:"level"`
	Exp          int    `json:"exp"`
	KillingSpree int    `json:"killing_spree,omitempty"`
	RespawnTick  int64  `json:"respawn_tick"`
	LifeActive   bool   `json:"life_active,omitempty"`
}

type CharacterV1 struct {
	ID     int   `json:"id"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
	VelX   int   `json:"vel_x"`
	VelY   int   `json:"vel_y"`
	Health int   `json:"health"`
	Armor  int   `json:"armor"`
	Weapon int   `json:"weapon"`
	Ammo   []int `json:"ammo"` // -1 for weapons not held
}

type EntityV1 struct {
	Kind     string `json:"kind"`
	ID       int    `json:"id"`
	Owner    int    `json:"owner"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Lifetime int    `json:"lifetime"`
}

type RulesV1 struct {
	Started     bool        `json:"started"`
	Infections  int         `json:"infections"`
	Rounds      int         `json:"rounds"`
	Holdpoints  map[int]int `json:"holdpoints,omitempty"`
	ZStops      map[int]int `json:"zstops,omitempty"`
	ZHoldpoints map[int]int `json:"zholdpoints,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is duplicated inside the gob payload.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
