package simtest

import (
	"testing"

	"stagecraft.dev/internal/sim/catalogs"
	"stagecraft.dev/internal/sim/world"
)

// Harness drives a world through exported APIs only, so tests can live
// outside the world package. Step pushes the pre-tick snapshot into the
// harness history, the way a host implements step-with-undo.
type Harness struct {
	T   *testing.T
	W   *world.World
	RNG *world.RNG

	History   *world.History
	LastTrace *world.TickTrace
}

// NewHarness builds the stock scene: a 10x8 stage "main", a character "cat"
// with idle and walk appearances plus an hp variable defaulting to "3", and
// actor_1 at (2, 2).
func NewHarness(t *testing.T, seed int64) *Harness {
	t.Helper()

	h := NewHarnessWithWorld(t, world.NewWorld("w_sim"), seed)
	h.AddStage("main", 10, 8)
	h.AddCharacter("cat", "idle", "walk")
	h.DefineVariable("cat", "hp", "3")
	h.PlaceActor("main", "cat", "actor_1", 2, 2)
	h.W.NextActorNum = 2
	return h
}

func NewHarnessWithWorld(t *testing.T, w *world.World, seed int64) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	return &Harness{
		T:       t,
		W:       w,
		RNG:     world.NewRNG(seed),
		History: world.NewHistory(0),
	}
}

func (h *Harness) AddStage(id string, width, height int) *world.Stage {
	h.T.Helper()
	s := &world.Stage{
		ID:     id,
		Name:   id,
		Width:  width,
		Height: height,
		Actors: map[string]*world.Actor{},
	}
	h.W.Stages[id] = s
	h.W.StageOrder = append(h.W.StageOrder, id)
	if h.W.SelectedStageID == "" {
		h.W.SelectedStageID = id
	}
	return s
}

func (h *Harness) AddCharacter(id string, appearances ...string) *world.Character {
	h.T.Helper()
	if len(appearances) == 0 {
		h.T.Fatalf("AddCharacter %q: need at least one appearance", id)
	}
	c := &world.Character{
		ID:        id,
		Name:      id,
		Variables: map[string]*world.VariableDef{},
		Spritesheet: world.Spritesheet{
			DefaultAppearance: appearances[0],
			Appearances:       map[string]*world.Appearance{},
		},
	}
	for _, ap := range appearances {
		c.Spritesheet.Appearances[ap] = &world.Appearance{ID: ap, Name: ap, Width: 1, Height: 1}
		c.Spritesheet.AppearanceOrder = append(c.Spritesheet.AppearanceOrder, ap)
	}
	h.W.Characters[id] = c
	h.W.CharacterOrder = append(h.W.CharacterOrder, id)
	return c
}

func (h *Harness) DefineVariable(charID, varID, def string) {
	h.T.Helper()
	c := h.W.Character(charID)
	if c == nil {
		h.T.Fatalf("DefineVariable: unknown character %q", charID)
	}
	c.Variables[varID] = &world.VariableDef{ID: varID, Name: varID, Default: def}
	c.VariableOrder = append(c.VariableOrder, varID)
}

func (h *Harness) PlaceActor(stageID, charID, actorID string, x, y int) *world.Actor {
	h.T.Helper()
	s := h.W.Stage(stageID)
	if s == nil {
		h.T.Fatalf("PlaceActor: unknown stage %q", stageID)
	}
	c := h.W.Character(charID)
	if c == nil {
		h.T.Fatalf("PlaceActor: unknown character %q", charID)
	}
	a := &world.Actor{
		ID:          actorID,
		CharacterID: charID,
		Pos:         world.Position{X: x, Y: y},
		Appearance:  c.Spritesheet.DefaultAppearance,
		Transform:   catalogs.TransformNone,
		Variables:   map[string]string{},
	}
	s.Actors[actorID] = a
	s.ActorOrder = append(s.ActorOrder, actorID)
	return a
}

func (h *Harness) SetGlobal(id, value string) {
	h.T.Helper()
	if g := h.W.Globals[id]; g != nil {
		g.Value = value
		return
	}
	h.W.Globals[id] = &world.Global{ID: id, Name: id, Value: value}
	h.W.GlobalOrder = append(h.W.GlobalOrder, id)
}

func (h *Harness) SetRules(charID string, nodes ...world.RuleNode) {
	h.T.Helper()
	c := h.W.Character(charID)
	if c == nil {
		h.T.Fatalf("SetRules: unknown character %q", charID)
	}
	c.Rules = nodes
}

// Step simulates one tick. The pre-tick snapshot goes into History first.
func (h *Harness) Step() *world.TickTrace {
	h.T.Helper()
	h.History.Push(h.W)
	next, trace := world.Advance(h.W, h.RNG)
	h.W = next
	h.LastTrace = trace
	return trace
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.Step()
	}
}

func (h *Harness) StepWithInput(in world.InputState) *world.TickTrace {
	h.T.Helper()
	h.W = world.WithInput(h.W, in)
	return h.Step()
}

func (h *Harness) StepBack() bool {
	h.T.Helper()
	prev, ok := h.History.StepBack()
	if ok {
		h.W = prev
	}
	return ok
}

func (h *Harness) Actor(stageID, actorID string) *world.Actor {
	h.T.Helper()
	s := h.W.Stage(stageID)
	if s == nil {
		h.T.Fatalf("missing stage %q", stageID)
	}
	a := s.Actor(actorID)
	if a == nil {
		h.T.Fatalf("missing actor %q on stage %q", actorID, stageID)
	}
	return a
}

func (h *Harness) GlobalValue(id string) string {
	g := h.W.Globals[id]
	if g == nil {
		return ""
	}
	return g.Value
}

func (h *Harness) Digest() string {
	return world.Digest(h.W)
}

// RoundTrip encodes the world, decodes it back and swaps it in, failing the
// test if anything is lost.
func (h *Harness) RoundTrip() {
	h.T.Helper()
	blob, err := world.EncodeWorld(h.W)
	if err != nil {
		h.T.Fatalf("encode world: %v", err)
	}
	restored, err := world.DecodeWorld(blob)
	if err != nil {
		h.T.Fatalf("decode world: %v", err)
	}
	if world.Digest(restored) != world.Digest(h.W) {
		h.T.Fatalf("round trip changed the world digest")
	}
	h.W = restored
}
