package world

import (
	"encoding/json"
	"fmt"

	"stagecraft.dev/internal/interchange"
)

// Action is the closed set of world mutations a rule can bind. Kind returns
// the wire name used in documents and dispatch tables.
type Action interface {
	Kind() string
	isAction()
}

// CreateAction places a new actor of CharacterID at the context anchor plus
// Offset. InitialValues override the character defaults; Appearance, when it
// names a sheet entry, overrides the sheet default.
type CreateAction struct {
	CharacterID   string
	Offset        Position
	InitialValues map[string]string
	Appearance    string

	extra map[string]json.RawMessage
}

// MoveAction repositions an actor. Exactly one of Offset (anchor-relative)
// or Delta (relative to the actor's current cell) is set.
type MoveAction struct {
	ActorID string
	Offset  *Position
	Delta   *Position

	extra map[string]json.RawMessage
}

type DeleteAction struct {
	ActorID string

	extra map[string]json.RawMessage
}

// VariableAction writes an actor variable, or a world global when Scope is
// the global scope marker.
type VariableAction struct {
	Scope      string
	ActorID    string
	VariableID string
	Op         string
	Value      Value

	extra map[string]json.RawMessage
}

type AppearanceAction struct {
	ActorID    string
	Appearance string

	extra map[string]json.RawMessage
}

type TransformAction struct {
	ActorID   string
	Op        string
	Transform string

	extra map[string]json.RawMessage
}

type GlobalAction struct {
	GlobalID string
	Op       string
	Value    Value

	extra map[string]json.RawMessage
}

func (CreateAction) Kind() string     { return interchange.ActionCreate }
func (MoveAction) Kind() string       { return interchange.ActionMove }
func (DeleteAction) Kind() string     { return interchange.ActionDelete }
func (VariableAction) Kind() string   { return interchange.ActionVariable }
func (AppearanceAction) Kind() string { return interchange.ActionAppearance }
func (TransformAction) Kind() string  { return interchange.ActionTransform }
func (GlobalAction) Kind() string     { return interchange.ActionGlobal }

func (CreateAction) isAction()     {}
func (MoveAction) isAction()       {}
func (DeleteAction) isAction()     {}
func (VariableAction) isAction()   {}
func (AppearanceAction) isAction() {}
func (TransformAction) isAction()  {}
func (GlobalAction) isAction()     {}

var supportedActionKinds = []string{
	interchange.ActionCreate,
	interchange.ActionMove,
	interchange.ActionDelete,
	interchange.ActionVariable,
	interchange.ActionAppearance,
	interchange.ActionTransform,
	interchange.ActionGlobal,
}

func validateDispatchMap[T any](name string, handlers map[string]T, supported []string) error {
	allowed := make(map[string]struct{}, len(supported))
	for _, k := range supported {
		if k == "" {
			return fmt.Errorf("%s: empty supported key", name)
		}
		if _, ok := allowed[k]; ok {
			return fmt.Errorf("%s: duplicate supported key %q", name, k)
		}
		allowed[k] = struct{}{}
	}
	if len(handlers) != len(allowed) {
		return fmt.Errorf("%s size mismatch: got=%d want=%d", name, len(handlers), len(allowed))
	}
	for k := range handlers {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("%s has unsupported key %q", name, k)
		}
	}
	for k := range allowed {
		if _, ok := handlers[k]; !ok {
			return fmt.Errorf("%s missing key %q", name, k)
		}
	}
	return nil
}
