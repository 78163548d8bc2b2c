package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"outbreak.gg/internal/persistence/snapshot"
	"outbreak.gg/internal/sim/tuning"
	"outbreak.gg/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the tick and event logs.
// Writes are queued and applied by a single writer goroutine; when the queue
// is full the write is dropped and counted.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick     atomic.Uint64
	dropEvent    atomic.Uint64
	dropSnapshot atomic.Uint64
}

var (
	_ world.TickLogger  = (*SQLiteIndex)(nil)
	_ world.EventLogger = (*SQLiteIndex)(nil)
)

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvent
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	event    world.EventEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick       int64
	Path       string
	Digest     string
	MapName    string
	Players    int
	Characters int
	Entities   int
	Infections int
}

// KillRow is one indexed kill.
type KillRow struct {
	Tick        int64 `json:"tick"`
	Killer      int   `json:"killer"`
	Victim      int   `json:"victim"`
	Weapon      int   `json:"weapon"`
	ModeSpecial int   `json:"mode_special"`
}

type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTickTotal     uint64 `json:"drop_tick_total"`
	DropEventTotal    uint64 `json:"drop_event_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			joins INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			inputs INTEGER NOT NULL,
			cmds INTEGER NOT NULL,
			paused INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS joins (
			tick INTEGER NOT NULL,
			client_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			spectate INTEGER NOT NULL,
			PRIMARY KEY (tick, client_id)
		);`,
		`CREATE TABLE IF NOT EXISTS leaves (
			tick INTEGER NOT NULL,
			client_id INTEGER NOT NULL,
			PRIMARY KEY (tick, client_id)
		);`,
		`CREATE TABLE IF NOT EXISTS kills (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			killer INTEGER NOT NULL,
			victim INTEGER NOT NULL,
			weapon INTEGER NOT NULL,
			mode_special INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_victim_tick ON kills(victim, tick);`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			client_id INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_kind_tick ON diagnostics(kind, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			map_name TEXT NOT NULL,
			players INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			entities INTEGER NOT NULL,
			infections INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropEventTotal:    s.dropEvent.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// The JSONL tick log remains the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteEvent(entry world.EventEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: entry}:
	default:
		s.dropEvent.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Digest:     snap.Header.Digest,
		MapName:    snap.MapName,
		Players:    len(snap.Players),
		Characters: len(snap.Characters),
		Entities:   len(snap.Entities),
		Infections: snap.Rules.Infections,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertTuning stores the tuning values the world runs with, keyed by digest.
func (s *SQLiteIndex) UpsertTuning(worldID string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('world_id',?)`, worldID); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`, "tuning", tune.Digest(), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentKills returns up to limit kills, newest first.
func (s *SQLiteIndex) RecentKills(ctx context.Context, limit int) ([]KillRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT tick,killer,victim,weapon,mode_special FROM kills ORDER BY tick DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []KillRow{}
	for rows.Next() {
		var k KillRow
		if err := rows.Scan(&k.Tick, &k.Killer, &k.Victim, &k.Weapon, &k.ModeSpecial); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// TickDigest returns the recorded digest for tick, if indexed.
func (s *SQLiteIndex) TickDigest(ctx context.Context, tick int64) (string, bool, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM ticks WHERE tick=?`, tick).Scan(&d)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return d, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,joins,leaves,inputs,cmds,paused) VALUES(?,?,?,?,?,?,?)`)
	insertJoin, _ := s.db.Prepare(`INSERT OR REPLACE INTO joins(tick,client_id,name,spectate) VALUES(?,?,?,?)`)
	insertLeave, _ := s.db.Prepare(`INSERT OR REPLACE INTO leaves(tick,client_id) VALUES(?,?)`)
	insertKill, _ := s.db.Prepare(`INSERT OR REPLACE INTO kills(tick,seq,killer,victim,weapon,mode_special) VALUES(?,?,?,?,?,?)`)
	insertDiag, _ := s.db.Prepare(`INSERT OR REPLACE INTO diagnostics(tick,seq,kind,client_id,raw_json) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,digest,map_name,players,characters,entities,infections) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertJoin, insertLeave, insertKill, insertDiag, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastEventTick int64 = -1
		eventSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			t := r.tick
			if !exec(insertTick, t.Tick, t.Digest, len(t.Joins), len(t.Leaves), len(t.Inputs), len(t.Cmds), boolInt(t.Paused)) {
				continue
			}
			for _, j := range t.Joins {
				if !exec(insertJoin, t.Tick, j.ClientID, j.Name, boolInt(j.Spectate)) {
					break
				}
			}
			for _, id := range t.Leaves {
				if !exec(insertLeave, t.Tick, id) {
					break
				}
			}

		case reqEvent:
			e := r.event
			if e.Tick != lastEventTick {
				lastEventTick = e.Tick
				eventSeq = 0
			}
			seq := eventSeq
			eventSeq++
			switch {
			case e.Kill != nil:
				exec(insertKill, e.Tick, seq, e.Kill.Killer, e.Kill.Victim, e.Kill.Weapon, e.Kill.ModeSpecial)
			case e.Event != nil:
				raw, _ := json.Marshal(e.Event)
				client := -1
				if c, ok := e.Event["client"].(int); ok {
					client = c
				}
				exec(insertDiag, e.Tick, seq, e.Event.Type(), client, string(raw))
			}

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.Tick, sn.Path, sn.Digest, sn.MapName, sn.Players, sn.Characters, sn.Entities, sn.Infections)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
