package world

import (
	"testing"

	"stagecraft.dev/internal/sim/catalogs"
)

// newTestWorld builds a minimal world: one 10x8 stage, one character with two
// appearances and an "hp" variable, one actor parked at (2,2).
func newTestWorld() *World {
	w := NewWorld("w_test")
	w.Name = "test world"
	addStage(w, "main", 10, 8)
	w.SelectedStageID = "main"
	c := addCharacter(w, "cat")
	defineVariable(c, "hp", "3")
	placeActor(w, "main", "cat", "actor_1", 2, 2)
	w.NextActorNum = 2
	return w
}

func addStage(w *World, id string, width, height int) *Stage {
	s := &Stage{ID: id, Name: id, Width: width, Height: height, Actors: map[string]*Actor{}}
	w.Stages[id] = s
	w.StageOrder = append(w.StageOrder, id)
	return s
}

func addCharacter(w *World, id string) *Character {
	c := &Character{
		ID:   id,
		Name: id,
		Spritesheet: Spritesheet{
			DefaultAppearance: "idle",
			Appearances: map[string]*Appearance{
				"idle": {ID: "idle", Name: "idle", Width: 1, Height: 1, Filled: []bool{true}},
				"walk": {ID: "walk", Name: "walk", Width: 1, Height: 1, Filled: []bool{true}},
			},
			AppearanceOrder: []string{"idle", "walk"},
		},
	}
	w.Characters[id] = c
	w.CharacterOrder = append(w.CharacterOrder, id)
	return c
}

func defineVariable(c *Character, id, def string) {
	if c.Variables == nil {
		c.Variables = map[string]*VariableDef{}
	}
	c.Variables[id] = &VariableDef{ID: id, Name: id, Default: def}
	c.VariableOrder = append(c.VariableOrder, id)
}

func placeActor(w *World, stageID, characterID, id string, x, y int) *Actor {
	s := w.Stages[stageID]
	a := &Actor{
		ID:          id,
		CharacterID: characterID,
		Pos:         Position{x, y},
		Appearance:  w.Characters[characterID].Spritesheet.DefaultAppearance,
		Transform:   catalogs.TransformNone,
		Variables:   map[string]string{},
	}
	s.Actors[id] = a
	s.ActorOrder = append(s.ActorOrder, id)
	return a
}

func setGlobal(w *World, id, value string) {
	if _, ok := w.Globals[id]; !ok {
		w.GlobalOrder = append(w.GlobalOrder, id)
	}
	w.Globals[id] = &Global{ID: id, Name: id, Value: value}
}

func mustActor(t *testing.T, w *World, stageID, actorID string) *Actor {
	t.Helper()
	s := w.Stage(stageID)
	if s == nil {
		t.Fatalf("missing stage %q", stageID)
	}
	a := s.Actor(actorID)
	if a == nil {
		t.Fatalf("missing actor %q on stage %q", actorID, stageID)
	}
	return a
}

func constant(v string) Value { return Constant{Value: v} }

func selfVar(id string) Value { return ActorRef{VariableID: id} }

func cond(left Value, cmp string, right Value) Condition {
	return Condition{ID: "c_" + cmp, Enabled: true, Left: left, Comparator: cmp, Right: right}
}
