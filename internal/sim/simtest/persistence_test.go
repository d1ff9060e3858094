package simtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/persistence/journal"
	"stagecraft.dev/internal/persistence/snapshot"
	"stagecraft.dev/internal/sim/catalogs"
	"stagecraft.dev/internal/sim/world"
)

func wanderRules() world.RuleNode {
	step := func(id string, dx, dy int) *world.Rule {
		return &world.Rule{ID: id, Enabled: true, Actions: []world.Action{
			world.MoveAction{Delta: &world.Position{X: dx, Y: dy}},
		}}
	}
	return &world.FlowGroup{
		ID: "g_wander", Enabled: true, Behavior: catalogs.BehaviorRandom,
		Children: []world.RuleNode{
			step("r_n", 0, -1),
			step("r_s", 0, 1),
			step("r_e", 1, 0),
			step("r_w", -1, 0),
		},
	}
}

func TestPersistence_SnapshotResumeMatchesLiveRun(t *testing.T) {
	h := NewHarness(t, 21)
	h.SetRules("cat", wanderRules())
	h.StepN(5)

	path := filepath.Join(t.TempDir(), "5.wrld.zst")
	if _, err := snapshot.WriteSnapshot(path, h.W, h.RNG.Seed(), h.RNG.Position()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	restored, hdr, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if hdr.Tick != 5 {
		t.Fatalf("header tick %d want 5", hdr.Tick)
	}
	if hdr.Digest != world.Digest(restored) {
		t.Fatalf("header digest does not match the restored world")
	}

	resumed := NewHarnessWithWorld(t, restored, 0)
	resumed.RNG = world.RestoreRNG(hdr.RNGSeed, hdr.RNGPos)

	for i := 0; i < 8; i++ {
		h.Step()
		resumed.Step()
		if h.Digest() != resumed.Digest() {
			t.Fatalf("resumed run diverged at tick %d", i+1)
		}
	}
}

func TestPersistence_JournalReplayVerifies(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "0.wrld.zst")

	h := NewHarness(t, 33)
	h.SetRules("cat", wanderRules())
	if _, err := snapshot.WriteSnapshot(snapPath, h.W, h.RNG.Seed(), h.RNG.Position()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	logger := journal.NewTickLogger(dir)
	inputs := []world.InputState{
		{},
		{ClickedActorID: "actor_1"},
		{},
		{Key: "ArrowUp"},
		{},
		{},
	}
	for _, in := range inputs {
		tick := h.W.Tick
		pos := h.RNG.Position()
		var doc *interchange.InputDoc
		if in != (world.InputState{}) {
			doc = &interchange.InputDoc{ClickedActorID: in.ClickedActorID, Key: in.Key}
		}
		h.StepWithInput(in)
		if err := logger.WriteTick(journal.TickEntry{Tick: tick, Input: doc, RNGPos: pos, Digest: h.Digest()}); err != nil {
			t.Fatalf("journal tick %d: %v", tick, err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close journal: %v", err)
	}

	w, hdr, err := snapshot.ReadSnapshot(snapPath)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	rng := world.RestoreRNG(hdr.RNGSeed, hdr.RNGPos)

	files, err := journal.Files(filepath.Join(dir, "ticks"), "ticks")
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	checked := 0
	for _, p := range files {
		err := journal.ForEachTick(p, func(e journal.TickEntry) error {
			if e.Tick != w.Tick {
				return fmt.Errorf("tick mismatch: entry=%d world=%d", e.Tick, w.Tick)
			}
			if e.RNGPos != rng.Position() {
				return fmt.Errorf("rng position mismatch at tick %d: entry=%d live=%d", e.Tick, e.RNGPos, rng.Position())
			}
			if e.Input != nil {
				w = world.WithInput(w, world.InputState{
					ClickedActorID: e.Input.ClickedActorID,
					Key:            e.Input.Key,
				})
			}
			w, _ = world.Advance(w, rng)
			if got := world.Digest(w); got != e.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", e.Tick, got, e.Digest)
			}
			checked++
			return nil
		})
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
	}
	if checked != len(inputs) {
		t.Fatalf("checked %d ticks want %d", checked, len(inputs))
	}
}
