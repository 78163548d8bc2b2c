package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"outbreak.gg/internal/persistence/snapshot"
)

type RoundArchiveMeta struct {
	Round      int    `json:"round"`
	Tick       int64  `json:"tick"`
	WorldID    string `json:"world_id"`
	SessionID  string `json:"session_id"`
	Seed       int64  `json:"seed"`
	Snapshot   string `json:"snapshot"`
	Digest     string `json:"digest"`
	Players    int    `json:"players"`
	Infections int    `json:"infections"`
	CreatedAt  string `json:"created_at"`
}

// ArchiveRoundSnapshot keeps the first snapshot taken after a round ended,
// copied into worldDir/archives/round_<NNN>/ with a meta.json beside it.
// Later snapshots of the same round are ignored.
func ArchiveRoundSnapshot(worldDir, snapshotPath string, snap snapshot.SnapshotV1) (round int, archivedPath string, archived bool, err error) {
	round = snap.Rules.Rounds
	if round <= 0 {
		return 0, "", false, nil
	}

	archiveDir := filepath.Join(worldDir, "archives", fmt.Sprintf("round_%03d", round))
	if _, err := os.Stat(filepath.Join(archiveDir, "meta.json")); err == nil {
		return round, "", false, nil
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := RoundArchiveMeta{
		Round:      round,
		Tick:       snap.Header.Tick,
		WorldID:    snap.Header.WorldID,
		SessionID:  snap.Header.SessionID,
		Seed:       snap.Seed,
		Snapshot:   filepath.Base(dst),
		Digest:     snap.Header.Digest,
		Players:    len(snap.Players),
		Infections: snap.Rules.Infections,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return 0, "", false, err
	}
	return round, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
