package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/persistence/journal"
	"stagecraft.dev/internal/persistence/snapshot"
	"stagecraft.dev/internal/sim/world"
)

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIndex_TicksPersistAcrossClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	entries := []journal.TickEntry{
		{Tick: 0, RNGPos: 0, Digest: "d0"},
		{Tick: 1, RNGPos: 3, Digest: "d1", Input: &interchange.InputDoc{Key: "ArrowRight"}},
		{Tick: 2, RNGPos: 5, Digest: "d2"},
	}
	for _, e := range entries {
		if err := idx.WriteTick("w_1", e); err != nil {
			t.Fatalf("write tick %d: %v", e.Tick, err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db := openRaw(t, path)
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ticks WHERE world_id='w_1'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(entries) {
		t.Fatalf("tick rows = %d, want %d", n, len(entries))
	}

	var digest string
	var rngPos int64
	var inputJSON sql.NullString
	err = db.QueryRow(`SELECT digest, rng_pos, input_json FROM ticks WHERE world_id='w_1' AND tick=1`).
		Scan(&digest, &rngPos, &inputJSON)
	if err != nil {
		t.Fatalf("query tick 1: %v", err)
	}
	if digest != "d1" || rngPos != 3 {
		t.Fatalf("tick 1 row = (%q,%d), want (d1,3)", digest, rngPos)
	}
	if !inputJSON.Valid || inputJSON.String != `{"key":"ArrowRight"}` {
		t.Fatalf("tick 1 input_json = %+v", inputJSON)
	}

	err = db.QueryRow(`SELECT input_json FROM ticks WHERE world_id='w_1' AND tick=0`).Scan(&inputJSON)
	if err != nil {
		t.Fatalf("query tick 0: %v", err)
	}
	if inputJSON.Valid {
		t.Fatalf("tick 0 input_json should be NULL, got %q", inputJSON.String)
	}
}

func TestSQLiteIndex_WriteAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.WriteTick("w_1", journal.TickEntry{Tick: 9, Digest: "dx"}); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	idx.RecordSnapshot("w_1", "x.wrld.zst", snapshot.Header{Tick: 9})

	db := openRaw(t, path)
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("ticks after close = %d, want 0", n)
	}
}

func TestSQLiteIndex_SnapshotAndRecordingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	idx.RecordSnapshot("w_1", "/data/w_1/snapshots/000040.wrld.zst", snapshot.Header{
		Version: 1,
		WorldID: "w_1",
		Tick:    40,
		Digest:  "abc",
		RNGSeed: 7,
		RNGPos:  99,
		SavedAt: "2026-08-22T00:00:00Z",
	})
	idx.RecordRecording("w_1", journal.RecordingEntry{
		Tick:        40,
		RecordingID: "rec_1",
		Name:        "push crate",
		StageID:     "stage_main",
		Actions:     3,
		Conditions:  2,
	}, []byte(`{"stageId":"stage_main"}`))

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db := openRaw(t, path)

	var tick, rngSeed, rngPos int64
	var snapPath, digest string
	err = db.QueryRow(`SELECT tick, path, digest, rng_seed, rng_pos FROM snapshots WHERE world_id='w_1'`).
		Scan(&tick, &snapPath, &digest, &rngSeed, &rngPos)
	if err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if tick != 40 || digest != "abc" || rngSeed != 7 || rngPos != 99 {
		t.Fatalf("snapshot row = (%d,%q,%d,%d)", tick, digest, rngSeed, rngPos)
	}
	if snapPath != "/data/w_1/snapshots/000040.wrld.zst" {
		t.Fatalf("snapshot path = %q", snapPath)
	}

	var name, stageID, raw string
	var actions, conditions int
	err = db.QueryRow(`SELECT name, stage_id, actions, conditions, raw_json FROM recordings WHERE recording_id='rec_1'`).
		Scan(&name, &stageID, &actions, &conditions, &raw)
	if err != nil {
		t.Fatalf("query recording: %v", err)
	}
	if name != "push crate" || stageID != "stage_main" || actions != 3 || conditions != 2 {
		t.Fatalf("recording row = (%q,%q,%d,%d)", name, stageID, actions, conditions)
	}
	if raw != `{"stageId":"stage_main"}` {
		t.Fatalf("recording raw_json = %q", raw)
	}
}

func TestSQLiteIndex_UpsertWorld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	w := world.NewWorld("w_idx")
	w.Name = "Index Me"
	st := &world.Stage{
		ID: "stage_main", Name: "Main", Width: 4, Height: 3,
		Actors:     map[string]*world.Actor{},
		ActorOrder: []string{},
	}
	w.Stages[st.ID] = st
	w.StageOrder = append(w.StageOrder, st.ID)
	w.SelectedStageID = st.ID
	for _, id := range []string{"actor_1", "actor_2"} {
		st.Actors[id] = &world.Actor{ID: id, Variables: map[string]string{}}
		st.ActorOrder = append(st.ActorOrder, id)
	}
	w.Tick = 17
	wantDigest := world.Digest(w)

	if err := idx.UpsertWorld(w); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	w.Name = "Renamed"
	w.Tick = 18
	wantDigest2 := world.Digest(w)
	if err := idx.UpsertWorld(w); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db := openRaw(t, path)
	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM worlds`).Scan(&rows); err != nil {
		t.Fatalf("count worlds: %v", err)
	}
	if rows != 1 {
		t.Fatalf("worlds rows = %d, want 1 (upsert should replace)", rows)
	}

	var name, digest string
	var stages, actors, tick int
	err = db.QueryRow(`SELECT name, stages, actors, tick, digest FROM worlds WHERE world_id='w_idx'`).
		Scan(&name, &stages, &actors, &tick, &digest)
	if err != nil {
		t.Fatalf("query world: %v", err)
	}
	if name != "Renamed" || stages != 1 || actors != 2 || tick != 18 {
		t.Fatalf("world row = (%q,%d,%d,%d)", name, stages, actors, tick)
	}
	if digest != wantDigest2 || digest == wantDigest {
		t.Fatalf("world digest = %q, want %q", digest, wantDigest2)
	}
}

func TestStats_CountsDrops(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}

	if err := s.WriteTick("w_1", journal.TickEntry{Tick: 0}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := s.WriteTick("w_1", journal.TickEntry{Tick: 1}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	s.RecordSnapshot("w_1", "p", snapshot.Header{})

	st := s.Stats()
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue = %d/%d, want 1/1", st.QueueDepth, st.QueueCapacity)
	}
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal = %d, want 1", st.DropTickTotal)
	}
	if st.DropSnapshotTotal != 1 {
		t.Fatalf("DropSnapshotTotal = %d, want 1", st.DropSnapshotTotal)
	}
}
