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

	"stagecraft.dev/internal/persistence/journal"
	"stagecraft.dev/internal/persistence/snapshot"
	"stagecraft.dev/internal/sim/world"
)

// SQLiteIndex catalogs worlds, ticks, snapshots and recordings so the
// authoring library can browse runs without scanning journal files. Writes
// are queued to a single writer goroutine; when the queue is full entries
// are dropped, the JSONL journal stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTicks      atomic.Uint64
	dropSnapshots  atomic.Uint64
	dropRecordings atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
	reqRecording
)

type req struct {
	kind reqKind

	worldID   string
	tick      journal.TickEntry
	snapshot  snapshotRow
	recording recordingRow
}

type snapshotRow struct {
	Tick    uint64
	Path    string
	Digest  string
	RNGSeed int64
	RNGPos  uint64
	SavedAt string
}

type recordingRow struct {
	RecordingID string
	Name        string
	StageID     string
	Tick        uint64
	Actions     int
	Conditions  int
	RawJSON     string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style tick stream; NORMAL durability is enough
	// for a secondary index.
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
		`CREATE TABLE IF NOT EXISTS worlds (
			world_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			stages INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			actors INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			rng_pos INTEGER NOT NULL,
			input_json TEXT,
			PRIMARY KEY (world_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			rng_seed INTEGER NOT NULL,
			rng_pos INTEGER NOT NULL,
			saved_at TEXT NOT NULL,
			PRIMARY KEY (world_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS recordings (
			world_id TEXT NOT NULL,
			recording_id TEXT NOT NULL,
			name TEXT,
			stage_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			conditions INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (world_id, recording_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_stage ON recordings(world_id, stage_id);`,
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

func (s *SQLiteIndex) WriteTick(worldID string, e journal.TickEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, worldID: worldID, tick: e}:
	default:
		s.dropTicks.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(worldID, path string, h snapshot.Header) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:    h.Tick,
		Path:    path,
		Digest:  h.Digest,
		RNGSeed: h.RNGSeed,
		RNGPos:  h.RNGPos,
		SavedAt: h.SavedAt,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, worldID: worldID, snapshot: r}:
	default:
		s.dropSnapshots.Add(1)
	}
}

func (s *SQLiteIndex) RecordRecording(worldID string, e journal.RecordingEntry, raw []byte) {
	if s == nil || s.closed.Load() {
		return
	}
	r := recordingRow{
		RecordingID: e.RecordingID,
		Name:        e.Name,
		StageID:     e.StageID,
		Tick:        e.Tick,
		Actions:     e.Actions,
		Conditions:  e.Conditions,
		RawJSON:     string(raw),
	}
	select {
	case s.ch <- req{kind: reqRecording, worldID: worldID, recording: r}:
	default:
		s.dropRecordings.Add(1)
	}
}

// UpsertWorld writes the worlds row synchronously. It runs at save points,
// not per tick, so blocking is fine.
func (s *SQLiteIndex) UpsertWorld(w *world.World) error {
	if s == nil {
		return nil
	}
	actors := 0
	for _, id := range w.StageOrder {
		if st := w.Stage(id); st != nil {
			actors += len(st.Actors)
		}
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
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO worlds(world_id,name,stages,characters,actors,tick,digest,updated_at) VALUES(?,?,?,?,?,?,?,?)`,
		w.ID, w.Name, len(w.Stages), len(w.Characters), actors, int64(w.Tick), world.Digest(w), now,
	); err != nil {
		return err
	}
	return tx.Commit()
}

type Stats struct {
	QueueDepth         int
	QueueCapacity      int
	DropTickTotal      uint64
	DropSnapshotTotal  uint64
	DropRecordingTotal uint64
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:         len(s.ch),
		QueueCapacity:      cap(s.ch),
		DropTickTotal:      s.dropTicks.Load(),
		DropSnapshotTotal:  s.dropSnapshots.Load(),
		DropRecordingTotal: s.dropRecordings.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(world_id,tick,digest,rng_pos,input_json) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(world_id,tick,path,digest,rng_seed,rng_pos,saved_at) VALUES(?,?,?,?,?,?,?)`)
	insertRecording, _ := s.db.Prepare(`INSERT OR REPLACE INTO recordings(world_id,recording_id,name,stage_id,tick,actions,conditions,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
		if insertRecording != nil {
			_ = insertRecording.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 1000
		commitMaxWait = 2 * time.Second
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
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			if insertTick == nil {
				continue
			}
			var inputJSON any
			if r.tick.Input != nil {
				b, _ := json.Marshal(r.tick.Input)
				inputJSON = string(b)
			}
			if _, err := tx.Stmt(insertTick).Exec(
				r.worldID,
				int64(r.tick.Tick),
				r.tick.Digest,
				int64(r.tick.RNGPos),
				inputJSON,
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqSnapshot:
			if insertSnapshot == nil {
				continue
			}
			sn := r.snapshot
			if _, err := tx.Stmt(insertSnapshot).Exec(
				r.worldID,
				int64(sn.Tick),
				sn.Path,
				sn.Digest,
				sn.RNGSeed,
				int64(sn.RNGPos),
				sn.SavedAt,
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqRecording:
			if insertRecording == nil {
				continue
			}
			rc := r.recording
			if _, err := tx.Stmt(insertRecording).Exec(
				r.worldID,
				rc.RecordingID,
				rc.Name,
				rc.StageID,
				int64(rc.Tick),
				rc.Actions,
				rc.Conditions,
				rc.RawJSON,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}
