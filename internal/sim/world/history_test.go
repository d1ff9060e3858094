package world

import "testing"

func TestHistory_PushAndStepBack(t *testing.T) {
	h := NewHistory(8)
	w := newTestWorld()
	w1, _ := Advance(w, NewRNG(1))

	h.Push(w)
	h.Push(w1)

	got, ok := h.StepBack()
	if !ok || got != w1 {
		t.Fatalf("StepBack should return the newest snapshot")
	}
	got, ok = h.StepBack()
	if !ok || got != w {
		t.Fatalf("StepBack should walk backwards in order")
	}
	if _, ok := h.StepBack(); ok {
		t.Fatalf("empty history should report false")
	}
}

func TestHistory_CapEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	worlds := make([]*World, 5)
	cur := newTestWorld()
	for i := range worlds {
		worlds[i] = cur
		h.Push(cur)
		cur, _ = Advance(cur, NewRNG(int64(i)))
	}

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	for i := 4; i >= 2; i-- {
		got, ok := h.StepBack()
		if !ok || got != worlds[i] {
			t.Fatalf("expected snapshot %d", i)
		}
	}
	if _, ok := h.StepBack(); ok {
		t.Fatalf("evicted snapshots should be gone")
	}
}

func TestHistory_ZeroLimitUsesDefault(t *testing.T) {
	h := NewHistory(0)
	w := newTestWorld()
	for i := 0; i < DefaultHistoryCap+10; i++ {
		h.Push(w)
	}
	if h.Len() != DefaultHistoryCap {
		t.Fatalf("len = %d, want %d", h.Len(), DefaultHistoryCap)
	}
	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("clear left %d entries", h.Len())
	}
}

func TestHistory_RestoredSnapshotReplaysIdentically(t *testing.T) {
	h := NewHistory(4)
	w := newTestWorld()
	setRules(w, alwaysRule("r", addHP("1")))

	h.Push(w)
	w1, _ := Advance(w, NewRNG(1))

	prev, ok := h.StepBack()
	if !ok {
		t.Fatalf("step back failed")
	}
	redo, _ := Advance(prev, NewRNG(1))
	if Digest(redo) != Digest(w1) {
		t.Fatalf("replaying from a restored snapshot diverged")
	}
}
