package world

import (
	"encoding/json"
	"fmt"
	"sort"

	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/sim/catalogs"
	simenc "stagecraft.dev/internal/sim/encoding"
)

// FromDoc builds a runtime snapshot from an interchange document. Structural
// problems (unknown enum values, malformed masks, impossible shapes) are
// errors; reference problems (an actor naming a missing character) are left
// for evaluation, which fails them condition by condition.
func FromDoc(doc *interchange.WorldDoc) (*World, error) {
	if doc.FormatVersion != "" && doc.FormatVersion != interchange.FormatVersion {
		return nil, fmt.Errorf("unsupported format_version %q", doc.FormatVersion)
	}
	if doc.Doc != "" && doc.Doc != interchange.DocWorld {
		return nil, fmt.Errorf("not a world document: %q", doc.Doc)
	}

	w := NewWorld(doc.ID)
	w.Name = doc.Name
	w.SelectedStageID = doc.SelectedStageID
	w.NextActorNum = doc.NextActorNum
	w.Tick = doc.Tick
	w.extra = doc.Extra
	if doc.Input != nil {
		w.Input = InputState{
			ClickedActorID: doc.Input.ClickedActorID,
			Key:            doc.Input.Key,
		}
	}

	for id, cd := range doc.Characters {
		c, err := characterFromDoc(cd)
		if err != nil {
			return nil, fmt.Errorf("character %q: %w", id, err)
		}
		c.ID = id
		w.Characters[id] = c
	}
	w.CharacterOrder = normalizeOrder(doc.CharacterOrder, mapKeys(doc.Characters))

	for id, sd := range doc.Stages {
		s, err := stageFromDoc(sd, w)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", id, err)
		}
		s.ID = id
		w.Stages[id] = s
	}
	w.StageOrder = normalizeOrder(doc.StageOrder, mapKeys(doc.Stages))

	for id, gd := range doc.Globals {
		w.Globals[id] = &Global{ID: id, Name: gd.Name, Value: gd.Value, extra: gd.Extra}
	}
	w.GlobalOrder = normalizeOrder(doc.GlobalOrder, mapKeys(doc.Globals))

	if w.SelectedStageID == "" && len(w.StageOrder) > 0 {
		w.SelectedStageID = w.StageOrder[0]
	}
	return w, nil
}

// DecodeWorld parses and builds in one step.
func DecodeWorld(b []byte) (*World, error) {
	var doc interchange.WorldDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse world: %w", err)
	}
	return FromDoc(&doc)
}

// DecodeRecording parses and builds a recording document.
func DecodeRecording(b []byte) (*Recording, RecordingPrefs, error) {
	var doc interchange.RecordingDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, RecordingPrefs{}, fmt.Errorf("parse recording: %w", err)
	}
	return RecordingFromDoc(&doc)
}

// normalizeOrder keeps the declared order for known ids, drops stale ids and
// appends undeclared ids sorted, so every map entry has exactly one slot.
func normalizeOrder(order []string, all []string) []string {
	known := make(map[string]bool, len(all))
	for _, id := range all {
		known[id] = true
	}
	out := make([]string, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, id := range order {
		if known[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	rest := make([]string, 0, len(all))
	for _, id := range all {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func stageFromDoc(doc *interchange.StageDoc, w *World) (*Stage, error) {
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("grid %dx%d not positive", doc.Width, doc.Height)
	}
	s := &Stage{
		Name:       doc.Name,
		Width:      doc.Width,
		Height:     doc.Height,
		Background: doc.Background,
		Actors:     make(map[string]*Actor, len(doc.Actors)),
		extra:      doc.Extra,
	}
	for id, ad := range doc.Actors {
		a, err := actorFromDoc(ad, s, w)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", id, err)
		}
		a.ID = id
		s.Actors[id] = a
	}
	s.ActorOrder = normalizeOrder(doc.ActorOrder, mapKeys(doc.Actors))

	if doc.Starting != nil {
		st := &StartingState{
			Actors:    make(map[string]*Actor, len(doc.Starting.Actors)),
			Thumbnail: doc.Starting.Thumbnail,
		}
		for id, ad := range doc.Starting.Actors {
			a, err := actorFromDoc(ad, s, w)
			if err != nil {
				return nil, fmt.Errorf("starting actor %q: %w", id, err)
			}
			a.ID = id
			st.Actors[id] = a
		}
		st.ActorOrder = normalizeOrder(doc.Starting.ActorOrder, mapKeys(doc.Starting.Actors))
		s.Starting = st
	}
	return s, nil
}

func actorFromDoc(doc *interchange.ActorDoc, s *Stage, w *World) (*Actor, error) {
	if doc.Transform != "" && !catalogs.IsTransform(doc.Transform) {
		return nil, fmt.Errorf("unknown transform %q", doc.Transform)
	}
	a := &Actor{
		CharacterID: doc.CharacterID,
		Pos:         clampToStage(Position{doc.X, doc.Y}, s),
		Appearance:  doc.Appearance,
		Transform:   doc.Transform,
		Frame:       doc.Frame,
		Variables:   make(map[string]string, len(doc.Variables)),
		extra:       doc.Extra,
	}
	for k, v := range doc.Variables {
		a.Variables[k] = v
	}
	if a.Transform == "" {
		a.Transform = catalogs.TransformNone
	}
	// Appearance falls back to the sheet default; sheet edits can orphan
	// an actor's stored id.
	if c := w.Character(a.CharacterID); c != nil {
		a.Appearance = c.appearanceOrDefault(a.Appearance)
	}
	return a, nil
}

func characterFromDoc(doc *interchange.CharacterDoc) (*Character, error) {
	c := &Character{
		Name:  doc.Name,
		extra: doc.Extra,
		Spritesheet: Spritesheet{
			DefaultAppearance: doc.Spritesheet.DefaultAppearance,
			Appearances:       make(map[string]*Appearance, len(doc.Spritesheet.Appearances)),
		},
	}
	if len(doc.Variables) > 0 {
		c.Variables = make(map[string]*VariableDef, len(doc.Variables))
		for id, vd := range doc.Variables {
			c.Variables[id] = &VariableDef{ID: id, Name: vd.Name, Default: vd.Default}
		}
		c.VariableOrder = normalizeOrder(doc.VariableOrder, mapKeys(doc.Variables))
	}
	for id, ad := range doc.Spritesheet.Appearances {
		ap, err := appearanceFromDoc(ad)
		if err != nil {
			return nil, fmt.Errorf("appearance %q: %w", id, err)
		}
		ap.ID = id
		c.Spritesheet.Appearances[id] = ap
	}
	c.Spritesheet.AppearanceOrder = normalizeOrder(doc.Spritesheet.AppearanceOrder, mapKeys(doc.Spritesheet.Appearances))
	if c.Spritesheet.DefaultAppearance == "" && len(c.Spritesheet.AppearanceOrder) > 0 {
		c.Spritesheet.DefaultAppearance = c.Spritesheet.AppearanceOrder[0]
	}
	for _, nd := range doc.Rules {
		n, err := nodeFromDoc(nd)
		if err != nil {
			return nil, err
		}
		c.Rules = append(c.Rules, n)
	}
	return c, nil
}

func appearanceFromDoc(doc *interchange.AppearanceDoc) (*Appearance, error) {
	if doc.Width < 0 || doc.Height < 0 {
		return nil, fmt.Errorf("grid %dx%d negative", doc.Width, doc.Height)
	}
	ap := &Appearance{
		Name:   doc.Name,
		Width:  doc.Width,
		Height: doc.Height,
		extra:  doc.Extra,
	}
	if doc.Filled != "" {
		mask, err := simenc.DecodeMask(doc.Filled)
		if err != nil {
			return nil, fmt.Errorf("filled mask: %w", err)
		}
		if len(mask) != doc.Width*doc.Height {
			return nil, fmt.Errorf("filled mask covers %d cells, grid has %d", len(mask), doc.Width*doc.Height)
		}
		ap.Filled = mask
	}
	return ap, nil
}

func nodeFromDoc(doc *interchange.RuleNodeDoc) (RuleNode, error) {
	switch doc.NodeType {
	case interchange.NodeRule:
		r := &Rule{ID: doc.ID, Name: doc.Name, Enabled: enabledValue(doc.Enabled), extra: doc.Extra}
		for _, cd := range doc.Conditions {
			c, err := conditionFromDoc(cd)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", doc.ID, err)
			}
			r.Conditions = append(r.Conditions, c)
		}
		for _, ad := range doc.Actions {
			a, err := actionFromDoc(ad)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", doc.ID, err)
			}
			r.Actions = append(r.Actions, a)
		}
		return r, nil

	case interchange.NodeEventGroup:
		g := &EventGroup{ID: doc.ID, Name: doc.Name, extra: doc.Extra}
		for _, child := range doc.Children {
			n, err := nodeFromDoc(child)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, n)
		}
		return g, nil

	case interchange.NodeFlowGroup:
		if !catalogs.IsBehavior(doc.Behavior) {
			return nil, fmt.Errorf("group %q: unknown behavior %q", doc.ID, doc.Behavior)
		}
		g := &FlowGroup{
			ID:       doc.ID,
			Name:     doc.Name,
			Enabled:  enabledValue(doc.Enabled),
			Behavior: doc.Behavior,
			extra:    doc.Extra,
		}
		if doc.LoopCount != nil {
			v, err := valueFromDoc(*doc.LoopCount)
			if err != nil {
				return nil, fmt.Errorf("group %q loop count: %w", doc.ID, err)
			}
			g.LoopCount = v
		}
		if doc.Check != nil {
			chk := &Check{}
			for _, cd := range doc.Check.Conditions {
				c, err := conditionFromDoc(cd)
				if err != nil {
					return nil, fmt.Errorf("group %q check: %w", doc.ID, err)
				}
				chk.Conditions = append(chk.Conditions, c)
			}
			if doc.Check.Extent != nil {
				e, err := extentFromDoc(doc.Check.Extent)
				if err != nil {
					return nil, fmt.Errorf("group %q check: %w", doc.ID, err)
				}
				chk.Extent = &e
			}
			g.Check = chk
		}
		for _, child := range doc.Children {
			n, err := nodeFromDoc(child)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, n)
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown node_type %q", doc.NodeType)
}

func enabledValue(flag *bool) bool {
	return flag == nil || *flag
}

func conditionFromDoc(doc *interchange.ConditionDoc) (Condition, error) {
	if !catalogs.IsComparator(doc.Comparator) {
		return Condition{}, fmt.Errorf("condition %q: unknown comparator %q", doc.ID, doc.Comparator)
	}
	left, err := valueFromDoc(doc.Left)
	if err != nil {
		return Condition{}, fmt.Errorf("condition %q: %w", doc.ID, err)
	}
	right, err := valueFromDoc(doc.Right)
	if err != nil {
		return Condition{}, fmt.Errorf("condition %q: %w", doc.ID, err)
	}
	return Condition{
		ID:         doc.ID,
		Enabled:    enabledValue(doc.Enabled),
		Left:       left,
		Comparator: doc.Comparator,
		Right:      right,
		extra:      doc.Extra,
	}, nil
}

func valueFromDoc(doc interchange.ValueDoc) (Value, error) {
	switch doc.ValueType {
	case interchange.ValueActor:
		if doc.VariableID == "" {
			return nil, fmt.Errorf("actor value without variable_id")
		}
		return ActorRef{ActorID: doc.ActorID, VariableID: doc.VariableID}, nil
	case interchange.ValueGlobal:
		if doc.GlobalID == "" {
			return nil, fmt.Errorf("global value without global_id")
		}
		return GlobalRef{GlobalID: doc.GlobalID}, nil
	case interchange.ValueConstant:
		return Constant{Value: doc.Value}, nil
	}
	return nil, fmt.Errorf("unknown value_type %q", doc.ValueType)
}

func actionFromDoc(doc *interchange.ActionDoc) (Action, error) {
	switch doc.ActionType {
	case interchange.ActionCreate:
		if doc.CharacterID == "" {
			return nil, fmt.Errorf("create action without character_id")
		}
		a := CreateAction{
			CharacterID: doc.CharacterID,
			Offset:      Position{intValue(doc.OffsetX), intValue(doc.OffsetY)},
			Appearance:  doc.Appearance,
			extra:       doc.Extra,
		}
		if len(doc.InitialValues) > 0 {
			a.InitialValues = make(map[string]string, len(doc.InitialValues))
			for k, v := range doc.InitialValues {
				a.InitialValues[k] = v
			}
		}
		return a, nil

	case interchange.ActionMove:
		hasOffset := doc.OffsetX != nil || doc.OffsetY != nil
		hasDelta := doc.DeltaX != nil || doc.DeltaY != nil
		if hasOffset == hasDelta {
			return nil, fmt.Errorf("move action needs exactly one of offset or delta")
		}
		a := MoveAction{ActorID: doc.ActorID, extra: doc.Extra}
		if hasOffset {
			a.Offset = &Position{intValue(doc.OffsetX), intValue(doc.OffsetY)}
		} else {
			a.Delta = &Position{intValue(doc.DeltaX), intValue(doc.DeltaY)}
		}
		return a, nil

	case interchange.ActionDelete:
		return DeleteAction{ActorID: doc.ActorID, extra: doc.Extra}, nil

	case interchange.ActionVariable:
		if doc.VariableID == "" {
			return nil, fmt.Errorf("variable action without variable_id")
		}
		if !catalogs.IsVariableOp(doc.Op) {
			return nil, fmt.Errorf("variable action: unknown op %q", doc.Op)
		}
		v, err := operandFromDoc(doc.Value)
		if err != nil {
			return nil, fmt.Errorf("variable action: %w", err)
		}
		return VariableAction{
			Scope:      doc.Scope,
			ActorID:    doc.ActorID,
			VariableID: doc.VariableID,
			Op:         doc.Op,
			Value:      v,
			extra:      doc.Extra,
		}, nil

	case interchange.ActionAppearance:
		if doc.Appearance == "" {
			return nil, fmt.Errorf("appearance action without appearance")
		}
		return AppearanceAction{ActorID: doc.ActorID, Appearance: doc.Appearance, extra: doc.Extra}, nil

	case interchange.ActionTransform:
		op := doc.Op
		if op == "" {
			op = catalogs.OpSet
		}
		if !catalogs.IsTransformOp(op) {
			return nil, fmt.Errorf("transform action: unknown op %q", doc.Op)
		}
		if !catalogs.IsTransform(doc.Transform) {
			return nil, fmt.Errorf("transform action: unknown transform %q", doc.Transform)
		}
		return TransformAction{ActorID: doc.ActorID, Op: op, Transform: doc.Transform, extra: doc.Extra}, nil

	case interchange.ActionGlobal:
		if doc.GlobalID == "" {
			return nil, fmt.Errorf("global action without global_id")
		}
		if !catalogs.IsVariableOp(doc.Op) {
			return nil, fmt.Errorf("global action: unknown op %q", doc.Op)
		}
		v, err := operandFromDoc(doc.Value)
		if err != nil {
			return nil, fmt.Errorf("global action: %w", err)
		}
		return GlobalAction{GlobalID: doc.GlobalID, Op: doc.Op, Value: v, extra: doc.Extra}, nil
	}
	return nil, fmt.Errorf("unknown action_type %q", doc.ActionType)
}

// operandFromDoc treats a missing operand as the empty constant.
func operandFromDoc(doc *interchange.ValueDoc) (Value, error) {
	if doc == nil {
		return Constant{}, nil
	}
	return valueFromDoc(*doc)
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func extentFromDoc(doc *interchange.ExtentDoc) (Extent, error) {
	e := Extent{XMin: doc.XMin, YMin: doc.YMin, XMax: doc.XMax, YMax: doc.YMax}.normalize()
	if doc.Ignored != "" {
		mask, err := simenc.DecodeMask(doc.Ignored)
		if err != nil {
			return Extent{}, fmt.Errorf("ignored mask: %w", err)
		}
		if len(mask) != e.Width()*e.Height() {
			return Extent{}, fmt.Errorf("ignored mask covers %d cells, extent has %d", len(mask), e.Width()*e.Height())
		}
		e.Ignored = make(map[Position]bool)
		for i, bit := range mask {
			if bit {
				e.Ignored[Position{e.XMin + i%e.Width(), e.YMin + i/e.Width()}] = true
			}
		}
	}
	return e, nil
}

// RecordingFromDoc rebuilds a recording and its preferences.
func RecordingFromDoc(doc *interchange.RecordingDoc) (*Recording, RecordingPrefs, error) {
	if doc.FormatVersion != "" && doc.FormatVersion != interchange.FormatVersion {
		return nil, RecordingPrefs{}, fmt.Errorf("unsupported format_version %q", doc.FormatVersion)
	}
	if doc.Doc != "" && doc.Doc != interchange.DocRecording {
		return nil, RecordingPrefs{}, fmt.Errorf("not a recording document: %q", doc.Doc)
	}
	extent, err := extentFromDoc(&doc.Extent)
	if err != nil {
		return nil, RecordingPrefs{}, err
	}
	rec := &Recording{
		StageID:       doc.StageID,
		Extent:        extent,
		AnchorActorID: doc.AnchorActorID,
	}
	for _, cd := range doc.Conditions {
		c, err := conditionFromDoc(cd)
		if err != nil {
			return nil, RecordingPrefs{}, err
		}
		rec.Conditions = append(rec.Conditions, c)
	}
	for _, ad := range doc.Actions {
		a, err := actionFromDoc(ad)
		if err != nil {
			return nil, RecordingPrefs{}, err
		}
		rec.Actions = append(rec.Actions, a)
	}
	prefs := RecordingPrefs{}
	if len(doc.VariableOps) > 0 {
		prefs.VariableOps = make(map[string]string, len(doc.VariableOps))
		for k, v := range doc.VariableOps {
			prefs.VariableOps[k] = v
		}
	}
	return rec, prefs, nil
}
