package world

import (
	"fmt"
	"strconv"

	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/sim/catalogs"
)

// ActionContext fixes how an action batch resolves: offsets are relative to
// Anchor, empty actor ids mean SelfID, and every target lives on StageID.
// The rule walker anchors at the acting actor's cell; recording replay
// anchors at the recording extent's origin.
type ActionContext struct {
	StageID string
	SelfID  string
	Anchor  Position
}

// ActionTrace reports one applied or refused action. Refusals carry a code
// and never abort the batch.
type ActionTrace struct {
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"`
	Applied bool   `json:"applied"`
	Code    string `json:"code,omitempty"`
}

type actionApplyFunc func(d *draft, ctx ActionContext, act Action) ActionTrace

var actionApply = map[string]actionApplyFunc{
	interchange.ActionCreate:     applyCreate,
	interchange.ActionMove:       applyMove,
	interchange.ActionDelete:     applyDelete,
	interchange.ActionVariable:   applyVariable,
	interchange.ActionAppearance: applyAppearance,
	interchange.ActionTransform:  applyTransform,
	interchange.ActionGlobal:     applyGlobal,
}

func init() {
	if err := validateDispatchMap("actionApply", actionApply, supportedActionKinds); err != nil {
		panic(fmt.Sprintf("world: %v", err))
	}
}

// ApplyActions runs a batch strictly in order against one evolving draft and
// returns the resulting snapshot. The input world is never modified.
func ApplyActions(w *World, acts []Action, ctx ActionContext) (*World, []ActionTrace) {
	d := newDraft(w)
	traces := applyToDraft(d, acts, ctx)
	return d.world(), traces
}

func applyToDraft(d *draft, acts []Action, ctx ActionContext) []ActionTrace {
	traces := make([]ActionTrace, 0, len(acts))
	for _, act := range acts {
		fn, ok := actionApply[act.Kind()]
		if !ok {
			traces = append(traces, ActionTrace{Kind: act.Kind(), Code: interchange.ErrBadOp})
			continue
		}
		traces = append(traces, fn(d, ctx, act))
	}
	return traces
}

// targetID substitutes the acting actor for empty ids.
func targetID(ctx ActionContext, id string) string {
	if id == "" {
		return ctx.SelfID
	}
	return id
}

func applyCreate(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(CreateAction)
	tr := ActionTrace{Kind: a.Kind()}

	c := d.world().Character(a.CharacterID)
	if c == nil {
		tr.Code = interchange.ErrNoCharacter
		return tr
	}
	st := d.editStage(ctx.StageID)
	if st == nil {
		tr.Code = interchange.ErrNoStage
		return tr
	}

	id := fmt.Sprintf("actor_%d", d.world().NextActorNum)
	d.world().NextActorNum++

	vars := c.defaultVariables()
	for k, v := range a.InitialValues {
		vars[k] = v
	}
	na := &Actor{
		ID:          id,
		CharacterID: c.ID,
		Pos:         clampToStage(ctx.Anchor.Add(a.Offset), st),
		Appearance:  c.appearanceOrDefault(a.Appearance),
		Transform:   catalogs.TransformNone,
		Variables:   vars,
	}
	d.insertActor(ctx.StageID, na)
	tr.Target = id
	tr.Applied = true
	return tr
}

func applyMove(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(MoveAction)
	id := targetID(ctx, a.ActorID)
	tr := ActionTrace{Kind: a.Kind(), Target: id}

	ac := d.editActor(ctx.StageID, id)
	if ac == nil {
		tr.Code = interchange.ErrNoActor
		return tr
	}
	st := d.stage(ctx.StageID)

	var next Position
	switch {
	case a.Offset != nil:
		next = ctx.Anchor.Add(*a.Offset)
	case a.Delta != nil:
		next = ac.Pos.Add(*a.Delta)
	default:
		tr.Code = interchange.ErrBadOp
		return tr
	}
	ac.Pos = clampToStage(next, st)
	tr.Applied = true
	return tr
}

func applyDelete(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(DeleteAction)
	id := targetID(ctx, a.ActorID)
	tr := ActionTrace{Kind: a.Kind(), Target: id}

	if !d.removeActor(ctx.StageID, id) {
		tr.Code = interchange.ErrNoActor
		return tr
	}
	tr.Applied = true
	return tr
}

func applyVariable(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(VariableAction)
	if a.Scope == interchange.ScopeGlobal {
		return writeGlobal(d, ctx, a.Kind(), a.VariableID, a.Op, a.Value)
	}
	id := targetID(ctx, a.ActorID)
	tr := ActionTrace{Kind: a.Kind(), Target: id}

	if !catalogs.IsVariableOp(a.Op) {
		tr.Code = interchange.ErrBadOp
		return tr
	}
	val, code := resolveValue(d.world(), ctx.StageID, ctx.SelfID, a.Value)
	if code != "" {
		tr.Code = code
		return tr
	}
	ac := d.editActor(ctx.StageID, id)
	if ac == nil {
		tr.Code = interchange.ErrNoActor
		return tr
	}
	base, ok := ac.Variables[a.VariableID]
	if !ok {
		base = varDefault(d.world(), ac, a.VariableID)
	}
	ac.Variables[a.VariableID] = applyOp(base, a.Op, val)
	tr.Applied = true
	return tr
}

func applyAppearance(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(AppearanceAction)
	id := targetID(ctx, a.ActorID)
	tr := ActionTrace{Kind: a.Kind(), Target: id}

	st := d.stage(ctx.StageID)
	if st == nil {
		tr.Code = interchange.ErrNoStage
		return tr
	}
	cur := st.Actor(id)
	if cur == nil {
		tr.Code = interchange.ErrNoActor
		return tr
	}
	c := d.world().Character(cur.CharacterID)
	if c == nil {
		tr.Code = interchange.ErrNoCharacter
		return tr
	}
	if _, ok := c.Spritesheet.Appearances[a.Appearance]; !ok {
		tr.Code = interchange.ErrBadAppearance
		return tr
	}
	ac := d.editActor(ctx.StageID, id)
	if ac.Appearance != a.Appearance {
		ac.Appearance = a.Appearance
		ac.Frame = 0
	}
	tr.Applied = true
	return tr
}

func applyTransform(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(TransformAction)
	id := targetID(ctx, a.ActorID)
	tr := ActionTrace{Kind: a.Kind(), Target: id}

	if !catalogs.IsTransform(a.Transform) {
		tr.Code = interchange.ErrBadTransform
		return tr
	}
	if !catalogs.IsTransformOp(a.Op) {
		tr.Code = interchange.ErrBadOp
		return tr
	}
	ac := d.editActor(ctx.StageID, id)
	if ac == nil {
		tr.Code = interchange.ErrNoActor
		return tr
	}
	switch a.Op {
	case catalogs.OpSet:
		ac.Transform = a.Transform
	case catalogs.OpAdd:
		next, ok := catalogs.ComposeTransform(ac.Transform, a.Transform)
		if !ok {
			tr.Code = interchange.ErrBadTransform
			return tr
		}
		ac.Transform = next
	}
	tr.Applied = true
	return tr
}

func applyGlobal(d *draft, ctx ActionContext, act Action) ActionTrace {
	a := act.(GlobalAction)
	return writeGlobal(d, ctx, a.Kind(), a.GlobalID, a.Op, a.Value)
}

// writeGlobal backs both GLOBAL actions and globally scoped VARIABLE
// actions. Unknown globals are declared on first write, the way the
// authoring tool grows its global list.
func writeGlobal(d *draft, ctx ActionContext, kind, globalID, op string, v Value) ActionTrace {
	tr := ActionTrace{Kind: kind, Target: globalID}
	if globalID == "" || catalogs.IsGlobalBuiltin(globalID) {
		tr.Code = interchange.ErrNoGlobal
		return tr
	}
	if !catalogs.IsVariableOp(op) {
		tr.Code = interchange.ErrBadOp
		return tr
	}
	val, code := resolveValue(d.world(), ctx.StageID, ctx.SelfID, v)
	if code != "" {
		tr.Code = code
		return tr
	}
	w := d.editGlobals()
	g := w.Globals[globalID]
	if g == nil {
		g = &Global{ID: globalID}
		w.GlobalOrder = append(w.GlobalOrder, globalID)
	}
	ng := *g
	ng.Value = applyOp(ng.Value, op, val)
	w.Globals[globalID] = &ng
	tr.Applied = true
	return tr
}

// applyOp computes the stored string for set/add/subtract. Arithmetic
// coerces non-numeric operands to zero and formats the result without a
// trailing fraction, so integer counters stay integer shaped.
func applyOp(base, op, operand string) string {
	if op == catalogs.OpSet {
		return operand
	}
	bf, ok := parseNumber(base)
	if !ok {
		bf = 0
	}
	of, ok := parseNumber(operand)
	if !ok {
		of = 0
	}
	if op == catalogs.OpSubtract {
		of = -of
	}
	return strconv.FormatFloat(bf+of, 'f', -1, 64)
}

// varDefault looks up the character default for a variable id, for actors
// whose map has no explicit entry yet.
func varDefault(w *World, a *Actor, varID string) string {
	c := w.Character(a.CharacterID)
	if c == nil {
		return ""
	}
	if def, ok := c.Variables[varID]; ok {
		return def.Default
	}
	return ""
}
