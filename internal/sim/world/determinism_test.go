package world

import (
	"testing"

	"stagecraft.dev/internal/sim/catalogs"
)

// chaosWorld mixes every source of branching: random groups, loop counts
// read from state, creation and deletion.
func chaosWorld() *World {
	w := newTestWorld()
	placeActor(w, "main", "cat", "actor_2", 7, 5)
	setGlobal(w, "spawned", "0")

	setRules(w,
		&FlowGroup{
			ID: "g_wander", Enabled: true, Behavior: catalogs.BehaviorRandom,
			Children: []RuleNode{
				alwaysRule("r_n", MoveAction{Delta: &Position{0, -1}}),
				alwaysRule("r_s", MoveAction{Delta: &Position{0, 1}}),
				alwaysRule("r_e", MoveAction{Delta: &Position{1, 0}}),
				alwaysRule("r_w", MoveAction{Delta: &Position{-1, 0}}),
			},
		},
		&FlowGroup{
			ID: "g_tax", Enabled: true, Behavior: catalogs.BehaviorLoop,
			LoopCount: constant("2"),
			Children:  []RuleNode{alwaysRule("r_tick", addHP("1"))},
		},
		guardedRule("r_spawn",
			cond(GlobalRef{GlobalID: "spawned"}, "<", constant("3")),
			CreateAction{CharacterID: "cat", Offset: Position{1, 1}},
			GlobalAction{GlobalID: "spawned", Op: catalogs.OpAdd, Value: constant("1")},
		),
	)
	return w
}

func runTicks(w *World, rng *RNG, n int) []string {
	digests := make([]string, 0, n)
	for i := 0; i < n; i++ {
		w, _ = Advance(w, rng)
		digests = append(digests, Digest(w))
	}
	return digests
}

func TestDeterminism_SameSeedSameDigests(t *testing.T) {
	a := runTicks(chaosWorld(), NewRNG(42), 30)
	b := runTicks(chaosWorld(), NewRNG(42), 30)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest mismatch at tick %d:\n%s\n%s", i+1, a[i], b[i])
		}
	}
}

func TestDeterminism_DifferentSeedsDiverge(t *testing.T) {
	a := runTicks(chaosWorld(), NewRNG(1), 20)
	b := runTicks(chaosWorld(), NewRNG(2), 20)
	for i := range a {
		if a[i] != b[i] {
			return
		}
	}
	t.Fatalf("20 ticks with different seeds never diverged")
}

func TestDeterminism_ResumeFromEncodedSnapshot(t *testing.T) {
	w := chaosWorld()
	rng := NewRNG(7)
	for i := 0; i < 10; i++ {
		w, _ = Advance(w, rng)
	}

	blob, err := EncodeWorld(w)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	restored, err := DecodeWorld(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if Digest(restored) != Digest(w) {
		t.Fatalf("snapshot does not capture the live state")
	}
	resumedRNG := RestoreRNG(rng.Seed(), rng.Position())

	a := runTicks(w, rng, 10)
	b := runTicks(restored, resumedRNG, 10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("resumed run diverged at tick %d", i+1)
		}
	}
}
