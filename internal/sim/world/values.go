package world

import (
	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/sim/catalogs"
)

// Value is the closed set of rule operands.
type Value interface {
	isValue()
}

// ActorRef reads a variable or built-in field of an actor on the acting
// actor's stage. An empty ActorID means the acting actor itself.
type ActorRef struct {
	ActorID    string
	VariableID string
}

// GlobalRef reads a world global or one of the host-fed built-ins.
type GlobalRef struct {
	GlobalID string
}

type Constant struct {
	Value string
}

func (ActorRef) isValue()  {}
func (GlobalRef) isValue() {}
func (Constant) isValue()  {}

// resolveValue evaluates one operand against a snapshot. The second return
// is an error code; resolution failures are ordinary outcomes, not Go
// errors, so a broken reference fails one condition instead of a tick.
func resolveValue(w *World, stageID, selfID string, v Value) (string, string) {
	switch ref := v.(type) {
	case Constant:
		return ref.Value, ""

	case GlobalRef:
		switch ref.GlobalID {
		case "click":
			return w.Input.ClickedActorID, ""
		case "keypress":
			return w.Input.Key, ""
		case "selectedStageId":
			return w.SelectedStageID, ""
		}
		g := w.Global(ref.GlobalID)
		if g == nil {
			return "", interchange.ErrNoGlobal
		}
		return g.Value, ""

	case ActorRef:
		st := w.Stage(stageID)
		if st == nil {
			return "", interchange.ErrNoStage
		}
		id := ref.ActorID
		if id == "" {
			id = selfID
		}
		a := st.Actor(id)
		if a == nil {
			return "", interchange.ErrNoActor
		}
		if catalogs.IsActorBuiltin(ref.VariableID) {
			switch ref.VariableID {
			case "appearance":
				return a.Appearance, ""
			case "transform":
				return a.Transform, ""
			}
		}
		if val, ok := a.Variables[ref.VariableID]; ok {
			return val, ""
		}
		c := w.Character(a.CharacterID)
		if c != nil {
			if def, ok := c.Variables[ref.VariableID]; ok {
				return def.Default, ""
			}
		}
		return "", interchange.ErrUnresolved

	default:
		return "", interchange.ErrInternal
	}
}

// explicitActorRef reports the explicit actor id a value reads, if any.
// Self references (empty ActorID) and non-actor values return false.
func explicitActorRef(v Value) (string, bool) {
	ref, ok := v.(ActorRef)
	if !ok || ref.ActorID == "" {
		return "", false
	}
	return ref.ActorID, true
}
