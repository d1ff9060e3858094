package world

import (
	"encoding/json"

	"stagecraft.dev/internal/interchange"
	simenc "stagecraft.dev/internal/sim/encoding"
)

// ToDoc renders a snapshot as an interchange document. The build is fully
// deterministic: identical worlds produce byte-identical EncodeWorld output.
func ToDoc(w *World) *interchange.WorldDoc {
	doc := &interchange.WorldDoc{
		Doc:             interchange.DocWorld,
		FormatVersion:   interchange.FormatVersion,
		ID:              w.ID,
		Name:            w.Name,
		Stages:          make(map[string]*interchange.StageDoc, len(w.Stages)),
		StageOrder:      orderSlice(w.StageOrder),
		Characters:      make(map[string]*interchange.CharacterDoc, len(w.Characters)),
		CharacterOrder:  orderSlice(w.CharacterOrder),
		SelectedStageID: w.SelectedStageID,
		NextActorNum:    w.NextActorNum,
		Tick:            w.Tick,
		Extra:           w.extra,
	}
	if w.Input != (InputState{}) {
		doc.Input = &interchange.InputDoc{
			ClickedActorID: w.Input.ClickedActorID,
			Key:            w.Input.Key,
		}
	}
	for id, s := range w.Stages {
		doc.Stages[id] = stageToDoc(s)
	}
	for id, c := range w.Characters {
		doc.Characters[id] = characterToDoc(c)
	}
	if len(w.Globals) > 0 {
		doc.Globals = make(map[string]*interchange.GlobalDoc, len(w.Globals))
		for id, g := range w.Globals {
			doc.Globals[id] = &interchange.GlobalDoc{ID: g.ID, Name: g.Name, Value: g.Value, Extra: g.extra}
		}
		doc.GlobalOrder = append([]string(nil), w.GlobalOrder...)
	}
	return doc
}

// EncodeWorld is the canonical file form: indented JSON plus a newline.
func EncodeWorld(w *World) ([]byte, error) {
	b, err := json.MarshalIndent(ToDoc(w), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func stageToDoc(s *Stage) *interchange.StageDoc {
	doc := &interchange.StageDoc{
		ID:         s.ID,
		Name:       s.Name,
		Width:      s.Width,
		Height:     s.Height,
		Background: s.Background,
		Actors:     make(map[string]*interchange.ActorDoc, len(s.Actors)),
		ActorOrder: orderSlice(s.ActorOrder),
		Extra:      s.extra,
	}
	for id, a := range s.Actors {
		doc.Actors[id] = actorToDoc(a)
	}
	if s.Starting != nil {
		st := &interchange.StartingDoc{
			Actors:     make(map[string]*interchange.ActorDoc, len(s.Starting.Actors)),
			ActorOrder: orderSlice(s.Starting.ActorOrder),
			Thumbnail:  s.Starting.Thumbnail,
		}
		for id, a := range s.Starting.Actors {
			st.Actors[id] = actorToDoc(a)
		}
		doc.Starting = st
	}
	return doc
}

func actorToDoc(a *Actor) *interchange.ActorDoc {
	doc := &interchange.ActorDoc{
		ID:          a.ID,
		CharacterID: a.CharacterID,
		X:           a.Pos.X,
		Y:           a.Pos.Y,
		Appearance:  a.Appearance,
		Transform:   a.Transform,
		Frame:       a.Frame,
		Extra:       a.extra,
	}
	if len(a.Variables) > 0 {
		doc.Variables = make(map[string]string, len(a.Variables))
		for k, v := range a.Variables {
			doc.Variables[k] = v
		}
	}
	return doc
}

func characterToDoc(c *Character) *interchange.CharacterDoc {
	doc := &interchange.CharacterDoc{
		ID:    c.ID,
		Name:  c.Name,
		Extra: c.extra,
		Spritesheet: interchange.SpritesheetDoc{
			DefaultAppearance: c.Spritesheet.DefaultAppearance,
			Appearances:       make(map[string]*interchange.AppearanceDoc, len(c.Spritesheet.Appearances)),
			AppearanceOrder:   append([]string(nil), c.Spritesheet.AppearanceOrder...),
		},
	}
	if len(c.Variables) > 0 {
		doc.Variables = make(map[string]*interchange.VariableDefDoc, len(c.Variables))
		for id, def := range c.Variables {
			doc.Variables[id] = &interchange.VariableDefDoc{ID: def.ID, Name: def.Name, Default: def.Default}
		}
		doc.VariableOrder = append([]string(nil), c.VariableOrder...)
	}
	for id, ap := range c.Spritesheet.Appearances {
		doc.Spritesheet.Appearances[id] = appearanceToDoc(ap)
	}
	for _, n := range c.Rules {
		doc.Rules = append(doc.Rules, nodeToDoc(n))
	}
	return doc
}

func appearanceToDoc(ap *Appearance) *interchange.AppearanceDoc {
	doc := &interchange.AppearanceDoc{
		ID:     ap.ID,
		Name:   ap.Name,
		Width:  ap.Width,
		Height: ap.Height,
		Extra:  ap.extra,
	}
	if ap.Filled != nil {
		doc.Filled = simenc.EncodeMask(ap.Filled)
	}
	return doc
}

func nodeToDoc(n RuleNode) *interchange.RuleNodeDoc {
	switch node := n.(type) {
	case *Rule:
		doc := &interchange.RuleNodeDoc{
			NodeType: interchange.NodeRule,
			ID:       node.ID,
			Name:     node.Name,
			Enabled:  enabledFlag(node.Enabled),
			Extra:    node.extra,
		}
		for _, c := range node.Conditions {
			doc.Conditions = append(doc.Conditions, conditionToDoc(c))
		}
		for _, a := range node.Actions {
			doc.Actions = append(doc.Actions, actionToDoc(a))
		}
		return doc

	case *EventGroup:
		doc := &interchange.RuleNodeDoc{
			NodeType: interchange.NodeEventGroup,
			ID:       node.ID,
			Name:     node.Name,
			Extra:    node.extra,
		}
		for _, child := range node.Children {
			doc.Children = append(doc.Children, nodeToDoc(child))
		}
		return doc

	case *FlowGroup:
		doc := &interchange.RuleNodeDoc{
			NodeType: interchange.NodeFlowGroup,
			ID:       node.ID,
			Name:     node.Name,
			Enabled:  enabledFlag(node.Enabled),
			Behavior: node.Behavior,
			Extra:    node.extra,
		}
		if node.LoopCount != nil {
			v := valueToDoc(node.LoopCount)
			doc.LoopCount = &v
		}
		if node.Check != nil {
			chk := &interchange.CheckDoc{}
			for _, c := range node.Check.Conditions {
				chk.Conditions = append(chk.Conditions, conditionToDoc(c))
			}
			if node.Check.Extent != nil {
				chk.Extent = extentToDoc(*node.Check.Extent)
			}
			doc.Check = chk
		}
		for _, child := range node.Children {
			doc.Children = append(doc.Children, nodeToDoc(child))
		}
		return doc
	}
	return nil
}

// enabledFlag omits the default (enabled) and writes only explicit opt-outs.
func enabledFlag(enabled bool) *bool {
	if enabled {
		return nil
	}
	f := false
	return &f
}

func conditionToDoc(c Condition) *interchange.ConditionDoc {
	return &interchange.ConditionDoc{
		ID:         c.ID,
		Enabled:    enabledFlag(c.Enabled),
		Left:       valueToDoc(c.Left),
		Comparator: c.Comparator,
		Right:      valueToDoc(c.Right),
		Extra:      c.extra,
	}
}

func valueToDoc(v Value) interchange.ValueDoc {
	switch val := v.(type) {
	case ActorRef:
		return interchange.ValueDoc{
			ValueType:  interchange.ValueActor,
			ActorID:    val.ActorID,
			VariableID: val.VariableID,
		}
	case GlobalRef:
		return interchange.ValueDoc{ValueType: interchange.ValueGlobal, GlobalID: val.GlobalID}
	case Constant:
		return interchange.ValueDoc{ValueType: interchange.ValueConstant, Value: val.Value}
	}
	return interchange.ValueDoc{}
}

func actionToDoc(a Action) *interchange.ActionDoc {
	switch act := a.(type) {
	case CreateAction:
		doc := &interchange.ActionDoc{
			ActionType:  interchange.ActionCreate,
			CharacterID: act.CharacterID,
			OffsetX:     intPtr(act.Offset.X),
			OffsetY:     intPtr(act.Offset.Y),
			Appearance:  act.Appearance,
			Extra:       act.extra,
		}
		if len(act.InitialValues) > 0 {
			doc.InitialValues = make(map[string]string, len(act.InitialValues))
			for k, v := range act.InitialValues {
				doc.InitialValues[k] = v
			}
		}
		return doc

	case MoveAction:
		doc := &interchange.ActionDoc{ActionType: interchange.ActionMove, ActorID: act.ActorID, Extra: act.extra}
		if act.Offset != nil {
			doc.OffsetX = intPtr(act.Offset.X)
			doc.OffsetY = intPtr(act.Offset.Y)
		}
		if act.Delta != nil {
			doc.DeltaX = intPtr(act.Delta.X)
			doc.DeltaY = intPtr(act.Delta.Y)
		}
		return doc

	case DeleteAction:
		return &interchange.ActionDoc{ActionType: interchange.ActionDelete, ActorID: act.ActorID, Extra: act.extra}

	case VariableAction:
		v := valueToDoc(act.Value)
		return &interchange.ActionDoc{
			ActionType: interchange.ActionVariable,
			Scope:      act.Scope,
			ActorID:    act.ActorID,
			VariableID: act.VariableID,
			Op:         act.Op,
			Value:      &v,
			Extra:      act.extra,
		}

	case AppearanceAction:
		return &interchange.ActionDoc{
			ActionType: interchange.ActionAppearance,
			ActorID:    act.ActorID,
			Appearance: act.Appearance,
			Extra:      act.extra,
		}

	case TransformAction:
		return &interchange.ActionDoc{
			ActionType: interchange.ActionTransform,
			ActorID:    act.ActorID,
			Op:         act.Op,
			Transform:  act.Transform,
			Extra:      act.extra,
		}

	case GlobalAction:
		v := valueToDoc(act.Value)
		return &interchange.ActionDoc{
			ActionType: interchange.ActionGlobal,
			GlobalID:   act.GlobalID,
			Op:         act.Op,
			Value:      &v,
			Extra:      act.extra,
		}
	}
	return nil
}

func extentToDoc(e Extent) *interchange.ExtentDoc {
	doc := &interchange.ExtentDoc{XMin: e.XMin, YMin: e.YMin, XMax: e.XMax, YMax: e.YMax}
	if len(e.Ignored) > 0 {
		mask := make([]bool, e.Width()*e.Height())
		for off := range e.Ignored {
			x, y := off.X-e.XMin, off.Y-e.YMin
			if x < 0 || x >= e.Width() || y < 0 || y >= e.Height() {
				continue
			}
			mask[y*e.Width()+x] = true
		}
		doc.Ignored = simenc.EncodeMask(mask)
	}
	return doc
}

func intPtr(v int) *int { return &v }

// orderSlice copies an order list; empty orders encode as [] rather than null.
func orderSlice(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return append([]string(nil), s...)
}

// RecordingToDoc renders a synthesized recording for storage or transfer.
func RecordingToDoc(rec *Recording, prefs RecordingPrefs, id, name string) *interchange.RecordingDoc {
	doc := &interchange.RecordingDoc{
		Doc:           interchange.DocRecording,
		FormatVersion: interchange.FormatVersion,
		ID:            id,
		Name:          name,
		StageID:       rec.StageID,
		Extent:        *extentToDoc(rec.Extent),
		AnchorActorID: rec.AnchorActorID,
	}
	for _, c := range rec.Conditions {
		doc.Conditions = append(doc.Conditions, conditionToDoc(c))
	}
	for _, a := range rec.Actions {
		doc.Actions = append(doc.Actions, actionToDoc(a))
	}
	if len(prefs.VariableOps) > 0 {
		doc.VariableOps = make(map[string]string, len(prefs.VariableOps))
		for k, v := range prefs.VariableOps {
			doc.VariableOps[k] = v
		}
	}
	return doc
}

// EncodeRecording is the canonical file form: indented JSON plus a newline.
func EncodeRecording(rec *Recording, prefs RecordingPrefs, id, name string) ([]byte, error) {
	b, err := json.MarshalIndent(RecordingToDoc(rec, prefs, id, name), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
