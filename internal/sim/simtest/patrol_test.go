package simtest

import (
	"testing"

	"stagecraft.dev/internal/sim/catalogs"
	"stagecraft.dev/internal/sim/world"
)

func patrolRules() world.RuleNode {
	hp := func(id string) world.Value { return world.ActorRef{VariableID: id} }
	c := func(v string) world.Value { return world.Constant{Value: v} }
	when := func(id string, conds []world.Condition, acts ...world.Action) *world.Rule {
		return &world.Rule{ID: id, Enabled: true, Conditions: conds, Actions: acts}
	}
	eq := func(id, v string) world.Condition {
		return world.Condition{ID: "c_" + id, Enabled: true, Left: hp(id), Comparator: "=", Right: c(v)}
	}
	lt := func(id, v string) world.Condition {
		return world.Condition{ID: "c_" + id + "_lt", Enabled: true, Left: hp(id), Comparator: "<", Right: c(v)}
	}

	return &world.FlowGroup{
		ID: "g_patrol", Enabled: true, Behavior: catalogs.BehaviorFirst,
		Children: []world.RuleNode{
			when("r_go_right",
				[]world.Condition{eq("dir", "1"), lt("steps", "3")},
				world.MoveAction{Delta: &world.Position{X: 1}},
				world.VariableAction{VariableID: "steps", Op: catalogs.OpAdd, Value: world.Constant{Value: "1"}},
			),
			when("r_turn_left",
				[]world.Condition{eq("dir", "1")},
				world.VariableAction{VariableID: "dir", Op: catalogs.OpSet, Value: world.Constant{Value: "0"}},
				world.VariableAction{VariableID: "steps", Op: catalogs.OpSet, Value: world.Constant{Value: "0"}},
			),
			when("r_go_left",
				[]world.Condition{eq("dir", "0"), lt("steps", "3")},
				world.MoveAction{Delta: &world.Position{X: -1}},
				world.VariableAction{VariableID: "steps", Op: catalogs.OpAdd, Value: world.Constant{Value: "1"}},
			),
			when("r_turn_right",
				nil,
				world.VariableAction{VariableID: "dir", Op: catalogs.OpSet, Value: world.Constant{Value: "1"}},
				world.VariableAction{VariableID: "steps", Op: catalogs.OpSet, Value: world.Constant{Value: "0"}},
			),
		},
	}
}

func TestPatrol_WalksAndTurns(t *testing.T) {
	h := NewHarness(t, 1)
	h.DefineVariable("cat", "dir", "1")
	h.DefineVariable("cat", "steps", "0")
	h.SetRules("cat", patrolRules())

	wantX := []int{3, 4, 5, 5, 4, 3, 2, 2, 3, 4, 5, 5}
	for i, want := range wantX {
		h.Step()
		if got := h.Actor("main", "actor_1").Pos.X; got != want {
			t.Fatalf("tick %d: x=%d want %d", i+1, got, want)
		}
	}
}

func TestPatrol_StepBackRestoresEveryTick(t *testing.T) {
	h := NewHarness(t, 1)
	h.DefineVariable("cat", "dir", "1")
	h.DefineVariable("cat", "steps", "0")
	h.SetRules("cat", patrolRules())

	digests := []string{h.Digest()}
	for i := 0; i < 6; i++ {
		h.Step()
		digests = append(digests, h.Digest())
	}

	for i := len(digests) - 2; i >= 0; i-- {
		if !h.StepBack() {
			t.Fatalf("history exhausted at %d", i)
		}
		if got := h.Digest(); got != digests[i] {
			t.Fatalf("step back to tick %d: digest mismatch", i)
		}
	}
	if h.StepBack() {
		t.Fatalf("expected empty history at the start")
	}
}

func TestPatrol_RoundTripKeepsBehavior(t *testing.T) {
	h := NewHarness(t, 1)
	h.DefineVariable("cat", "dir", "1")
	h.DefineVariable("cat", "steps", "0")
	h.SetRules("cat", patrolRules())

	h.StepN(4)
	h.RoundTrip()
	h.StepN(3)

	if got := h.Actor("main", "actor_1").Pos.X; got != 3 {
		t.Fatalf("post round-trip x=%d want 3", got)
	}
}
