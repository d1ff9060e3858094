package world

import (
	"testing"

	"stagecraft.dev/internal/sim/catalogs"
)

func TestStartingState_SaveAndRestore(t *testing.T) {
	w := newTestWorld()

	saved, err := SaveStartingState(w, "main", "thumb_1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if w.Stage("main").Starting != nil {
		t.Fatalf("save leaked into the input world")
	}
	want := Digest(saved)

	moved, _ := ApplyActions(saved, []Action{
		MoveAction{Delta: &Position{1, 1}},
		VariableAction{VariableID: "hp", Op: catalogs.OpSet, Value: constant("9")},
	}, selfCtx("main", "actor_1", Position{2, 2}))
	if Digest(moved) == want {
		t.Fatalf("mutation did not change the digest")
	}

	restored, err := RestoreStartingState(moved, "main")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := Digest(restored); got != want {
		t.Fatalf("restore digest = %s, want %s", got, want)
	}
	if got := mustActor(t, restored, "main", "actor_1").Pos; got != (Position{2, 2}) {
		t.Fatalf("actor back at %+v, want 2,2", got)
	}
	if got := mustActor(t, moved, "main", "actor_1").Pos; got != (Position{3, 3}) {
		t.Fatalf("restore mutated its input world: %+v", got)
	}
}

func TestStartingState_RestoreDropsCreatedActors(t *testing.T) {
	w, err := SaveStartingState(newTestWorld(), "main", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	grown, _ := ApplyActions(w, []Action{
		CreateAction{CharacterID: "cat", Offset: Position{1, 0}},
	}, selfCtx("main", "actor_1", Position{2, 2}))
	if len(grown.Stage("main").Actors) != 2 {
		t.Fatalf("create failed")
	}

	restored, err := RestoreStartingState(grown, "main")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	s := restored.Stage("main")
	if len(s.Actors) != 1 || len(s.ActorOrder) != 1 || s.ActorOrder[0] != "actor_1" {
		t.Fatalf("restore kept created actors: %v", s.ActorOrder)
	}
	// Ids stay monotonic so a post-restore create cannot collide with one
	// recorded before the restore.
	if restored.NextActorNum != 3 {
		t.Fatalf("NextActorNum = %d, want 3", restored.NextActorNum)
	}
}

func TestStartingState_SaveOverwritesPrevious(t *testing.T) {
	w, err := SaveStartingState(newTestWorld(), "main", "old")
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	moved, _ := ApplyActions(w, []Action{MoveAction{Delta: &Position{3, 0}}},
		selfCtx("main", "actor_1", Position{2, 2}))
	w2, err := SaveStartingState(moved, "main", "new")
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if got := w2.Stage("main").Starting.Thumbnail; got != "new" {
		t.Fatalf("thumbnail = %q, want new", got)
	}

	back, _ := ApplyActions(w2, []Action{MoveAction{Delta: &Position{-3, 0}}},
		selfCtx("main", "actor_1", Position{5, 2}))
	restored, err := RestoreStartingState(back, "main")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := mustActor(t, restored, "main", "actor_1").Pos; got != (Position{5, 2}) {
		t.Fatalf("restored to %+v, want the second save point 5,2", got)
	}
}

func TestStartingState_Errors(t *testing.T) {
	w := newTestWorld()

	if _, err := SaveStartingState(w, "nope", ""); err == nil {
		t.Fatalf("expected error for missing stage")
	}
	if _, err := RestoreStartingState(w, "nope"); err == nil {
		t.Fatalf("expected error for missing stage")
	}
	if _, err := RestoreStartingState(w, "main"); err == nil {
		t.Fatalf("expected error when no starting state is saved")
	}
}
