package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"outbreak.gg/internal/persistence/snapshot"
)

func writeSnap(t *testing.T, dir string, snap snapshot.SnapshotV1) string {
	t.Helper()
	path := filepath.Join(dir, "snapshots", "snap.snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	return path
}

func TestArchiveRoundSnapshot_FirstSnapshotPerRound(t *testing.T) {
	dir := t.TempDir()
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, WorldID: "w1", Tick: 3000, Digest: "d"},
		Seed:   42,
		Rules:  snapshot.RulesV1{Rounds: 2, Infections: 3},
	}
	path := writeSnap(t, dir, snap)

	round, archived, ok, err := ArchiveRoundSnapshot(dir, path, snap)
	if err != nil || !ok {
		t.Fatalf("archive: ok=%v err=%v", ok, err)
	}
	if round != 2 || filepath.Base(filepath.Dir(archived)) != "round_002" {
		t.Fatalf("archive: round=%d path=%s", round, archived)
	}
	if _, err := snapshot.ReadSnapshot(archived); err != nil {
		t.Fatalf("archived snapshot unreadable: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(filepath.Dir(archived), "meta.json"))
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	var meta RoundArchiveMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		t.Fatalf("meta json: %v", err)
	}
	if meta.Tick != 3000 || meta.Infections != 3 || meta.Seed != 42 {
		t.Fatalf("meta: got %+v", meta)
	}

	snap.Header.Tick = 6000
	if _, _, ok, err := ArchiveRoundSnapshot(dir, path, snap); err != nil || ok {
		t.Fatalf("second snapshot of round 2: ok=%v err=%v", ok, err)
	}
}

func TestArchiveRoundSnapshot_SkipsFirstRound(t *testing.T) {
	dir := t.TempDir()
	snap := snapshot.SnapshotV1{Header: snapshot.Header{Version: snapshot.Version, Tick: 3000}}
	path := writeSnap(t, dir, snap)
	if _, _, ok, err := ArchiveRoundSnapshot(dir, path, snap); err != nil || ok {
		t.Fatalf("round 0: ok=%v err=%v", ok, err)
	}
}
