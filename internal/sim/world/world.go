package world

import "encoding/json"

// World is one immutable simulation snapshot. Mutating entry points
// (Advance, ApplyActions) return a new snapshot built by path copy: only the
// touched stage, actor and global records are reallocated, everything else is
// shared with the input. Callers must not write through a snapshot.
type World struct {
	ID   string
	Name string

	Stages     map[string]*Stage
	StageOrder []string

	Characters     map[string]*Character
	CharacterOrder []string

	Globals     map[string]*Global
	GlobalOrder []string

	// SelectedStageID backs the selectedStageId built-in global.
	SelectedStageID string

	// Input is the host-fed input for the next tick. Advance consumes it.
	Input InputState

	NextActorNum int
	Tick         uint64

	extra map[string]json.RawMessage
}

type InputState struct {
	ClickedActorID string
	Key            string
}

type Stage struct {
	ID         string
	Name       string
	Width      int
	Height     int
	Background string

	Actors     map[string]*Actor
	ActorOrder []string

	// Starting is the designer's saved reset point, untouched by ticks.
	Starting *StartingState

	extra map[string]json.RawMessage
}

type StartingState struct {
	Actors     map[string]*Actor
	ActorOrder []string
	Thumbnail  string
}

// Actor fields are normalized on load and creation: Appearance always names
// a sheet entry and Transform always names a group element.
type Actor struct {
	ID          string
	CharacterID string
	Pos         Position
	Appearance  string
	Transform   string
	Variables   map[string]string
	Frame       int

	extra map[string]json.RawMessage
}

// Character is static during simulation and shared across snapshots.
type Character struct {
	ID   string
	Name string

	Variables     map[string]*VariableDef
	VariableOrder []string

	Spritesheet Spritesheet
	Rules       []RuleNode

	extra map[string]json.RawMessage
}

type VariableDef struct {
	ID      string
	Name    string
	Default string
}

type Spritesheet struct {
	DefaultAppearance string
	Appearances       map[string]*Appearance
	AppearanceOrder   []string
}

// Appearance is one sprite cell grid. Filled is the row-major occupancy
// mask; nil means every cell is occupied.
type Appearance struct {
	ID     string
	Name   string
	Width  int
	Height int
	Filled []bool

	extra map[string]json.RawMessage
}

type Global struct {
	ID    string
	Name  string
	Value string

	extra map[string]json.RawMessage
}

func NewWorld(id string) *World {
	return &World{
		ID:         id,
		Stages:     map[string]*Stage{},
		Characters: map[string]*Character{},
		Globals:    map[string]*Global{},
	}
}

func (w *World) Stage(id string) *Stage {
	return w.Stages[id]
}

func (w *World) Character(id string) *Character {
	return w.Characters[id]
}

func (w *World) Global(id string) *Global {
	return w.Globals[id]
}

func (s *Stage) Actor(id string) *Actor {
	return s.Actors[id]
}

// defaultVariables builds a fresh variable map from the character's defaults.
func (c *Character) defaultVariables() map[string]string {
	vars := make(map[string]string, len(c.Variables))
	for id, def := range c.Variables {
		vars[id] = def.Default
	}
	return vars
}

// appearanceOrDefault returns id when the sheet defines it, else the sheet
// default.
func (c *Character) appearanceOrDefault(id string) string {
	if _, ok := c.Spritesheet.Appearances[id]; ok {
		return id
	}
	return c.Spritesheet.DefaultAppearance
}

func (c *Character) appearance(id string) *Appearance {
	return c.Spritesheet.Appearances[id]
}
