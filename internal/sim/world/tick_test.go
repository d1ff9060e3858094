package world

import (
	"testing"

	"stagecraft.dev/internal/sim/catalogs"
)

func TestAdvance_RulesSeeTickStartSnapshot(t *testing.T) {
	w := newTestWorld()
	dog := addCharacter(w, "dog")
	defineVariable(dog, "seen", "0")
	placeActor(w, "main", "dog", "actor_2", 5, 5)

	setRules(w, alwaysRule("raise", GlobalAction{GlobalID: "flag", Op: catalogs.OpSet, Value: constant("1")}))
	dog.Rules = []RuleNode{
		guardedRule("watch", cond(GlobalRef{GlobalID: "flag"}, "=", constant("1")),
			VariableAction{VariableID: "seen", Op: catalogs.OpSet, Value: constant("1")}),
	}

	w1, _ := Advance(w, NewRNG(1))
	if g := w1.Global("flag"); g == nil || g.Value != "1" {
		t.Fatalf("flag not raised: %+v", g)
	}
	if got := mustActor(t, w1, "main", "actor_2").Variables["seen"]; got == "1" {
		t.Fatalf("watcher reacted to a same-tick write")
	}

	w2, _ := Advance(w1, NewRNG(2))
	if got := mustActor(t, w2, "main", "actor_2").Variables["seen"]; got != "1" {
		t.Fatalf("watcher missed the raised flag on the next tick: seen=%q", got)
	}
}

func TestAdvance_ActorOrderDecidesLastWrite(t *testing.T) {
	w := newTestWorld()
	placeActor(w, "main", "cat", "actor_2", 5, 5)
	mustActor(t, w, "main", "actor_1").Variables["hp"] = "1"
	mustActor(t, w, "main", "actor_2").Variables["hp"] = "2"

	setRules(w, alwaysRule("claim", GlobalAction{GlobalID: "last", Op: catalogs.OpSet, Value: selfVar("hp")}))

	w1, trace := Advance(w, NewRNG(1))
	if g := w1.Global("last"); g == nil || g.Value != "2" {
		t.Fatalf("later actor should apply last: %+v", g)
	}
	if len(trace.Actors) != 2 || trace.Actors[0].ActorID != "actor_1" || trace.Actors[1].ActorID != "actor_2" {
		t.Fatalf("walk order: %+v", trace.Actors)
	}
}

func TestAdvance_FramesAndCreation(t *testing.T) {
	w := newTestWorld()
	setRules(w, alwaysRule("spawn", CreateAction{CharacterID: "cat", Offset: Position{1, 0}}))

	w1, _ := Advance(w, NewRNG(1))
	if got := mustActor(t, w1, "main", "actor_1").Frame; got != 1 {
		t.Fatalf("surviving actor frame = %d, want 1", got)
	}
	if got := mustActor(t, w1, "main", "actor_2").Frame; got != 0 {
		t.Fatalf("created actor frame = %d, want 0", got)
	}
	if w1.NextActorNum != 3 {
		t.Fatalf("NextActorNum = %d", w1.NextActorNum)
	}
}

func TestAdvance_DeletedActorSkipsFrameBump(t *testing.T) {
	w := newTestWorld()
	setRules(w, alwaysRule("die", DeleteAction{}))

	w1, _ := Advance(w, NewRNG(1))
	if w1.Stage("main").Actor("actor_1") != nil {
		t.Fatalf("actor survived its own delete")
	}
	if got := len(w1.Stage("main").ActorOrder); got != 0 {
		t.Fatalf("actor order after delete: %v", w1.Stage("main").ActorOrder)
	}
}

func TestAdvance_InputConsumedAfterOneTick(t *testing.T) {
	w := newTestWorld()
	setRules(w, guardedRule("onkey", cond(GlobalRef{GlobalID: "keypress"}, "=", constant("ArrowUp")),
		addHP("1")))

	fed := WithInput(w, InputState{Key: "ArrowUp"})
	if w.Input.Key != "" {
		t.Fatalf("WithInput mutated the receiver")
	}

	w1, _ := Advance(fed, NewRNG(1))
	if got := mustActor(t, w1, "main", "actor_1").Variables["hp"]; got != "4" {
		t.Fatalf("keypress rule did not fire: hp=%q", got)
	}
	if w1.Input != (InputState{}) {
		t.Fatalf("input survived the tick: %+v", w1.Input)
	}

	w2, _ := Advance(w1, NewRNG(2))
	if got := mustActor(t, w2, "main", "actor_1").Variables["hp"]; got != "4" {
		t.Fatalf("keypress rule fired without input: hp=%q", got)
	}
}

func TestAdvance_CountersAndImmutability(t *testing.T) {
	w := newTestWorld()
	w.Tick = 41
	setRules(w, alwaysRule("r", addHP("1")))
	before := Digest(w)

	w1, trace := Advance(w, NewRNG(1))
	if w1.Tick != 42 {
		t.Fatalf("tick = %d, want 42", w1.Tick)
	}
	if trace.Tick != 41 {
		t.Fatalf("trace tick = %d, want the tick that was computed", trace.Tick)
	}
	if Digest(w) != before {
		t.Fatalf("Advance mutated its input")
	}
}

func TestAdvance_EmptyWorld(t *testing.T) {
	w := NewWorld("empty")
	w1, trace := Advance(w, NewRNG(1))
	if w1.Tick != 1 || len(trace.Actors) != 0 || len(trace.Applied) != 0 {
		t.Fatalf("empty world advance: tick=%d trace=%+v", w1.Tick, trace)
	}
}
