package world

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"stagecraft.dev/internal/sim/catalogs"
)

// ErrCannotSynthesize means no actor ties the two frames together: nothing
// inside the extent exists on both sides of the demonstration.
var ErrCannotSynthesize = errors.New("recording: no anchor actor inside the extent")

// RecordingPrefs carries the author's choices that a bare diff cannot
// recover. VariableOps maps a variable or global id to add or subtract;
// diffs on those ids become arithmetic steps instead of plain sets.
type RecordingPrefs struct {
	VariableOps map[string]string
}

// Recording is a synthesized demonstration: draft conditions describing the
// before scene and the action list that rewrites it into the after scene.
// Action offsets are relative to the extent origin, so replaying with an
// anchor at Extent.Origin reproduces the after scene.
type Recording struct {
	StageID       string
	Extent        Extent
	AnchorActorID string
	Conditions    []Condition
	Actions       []Action
}

// DiffWorlds synthesizes a Recording as a keyed outer join over actor ids
// on one stage, restricted to actors whose footprint touches the extent in
// either world. Output order is fixed by the before stage's actor order,
// then created actors in after order, then globals in declaration order, so
// re-recording the same pair is byte identical.
func DiffWorlds(before, after *World, stageID string, extent Extent, prefs RecordingPrefs) (*Recording, error) {
	bs := before.Stage(stageID)
	if bs == nil {
		return nil, fmt.Errorf("recording: stage %q missing in before world", stageID)
	}
	as := after.Stage(stageID)
	if as == nil {
		return nil, fmt.Errorf("recording: stage %q missing in after world", stageID)
	}
	extent = extent.normalize()
	origin := extent.Origin()

	relevantBefore := map[string]bool{}
	for _, id := range bs.ActorOrder {
		if a := bs.Actors[id]; a != nil && touchesExtent(before, a, extent, Position{}) {
			relevantBefore[id] = true
		}
	}
	relevantAfter := map[string]bool{}
	for _, id := range as.ActorOrder {
		if a := as.Actors[id]; a != nil && touchesExtent(after, a, extent, Position{}) {
			relevantAfter[id] = true
		}
	}

	rec := &Recording{StageID: stageID, Extent: extent}
	for _, id := range bs.ActorOrder {
		if relevantBefore[id] && as.Actors[id] != nil {
			rec.AnchorActorID = id
			break
		}
	}
	if rec.AnchorActorID == "" {
		return nil, ErrCannotSynthesize
	}

	rec.Conditions = synthesizeConditions(bs, relevantBefore)

	for _, id := range bs.ActorOrder {
		ba := bs.Actors[id]
		if ba == nil {
			continue
		}
		aa := as.Actors[id]
		if aa == nil {
			if relevantBefore[id] {
				rec.Actions = append(rec.Actions, DeleteAction{ActorID: id})
			}
			continue
		}
		if !relevantBefore[id] && !relevantAfter[id] {
			continue
		}
		rec.Actions = append(rec.Actions, diffActor(before, ba, aa, origin, prefs)...)
	}

	for _, id := range as.ActorOrder {
		if bs.Actors[id] != nil || !relevantAfter[id] {
			continue
		}
		aa := as.Actors[id]
		vars := make(map[string]string, len(aa.Variables))
		for k, v := range aa.Variables {
			vars[k] = v
		}
		rec.Actions = append(rec.Actions, CreateAction{
			CharacterID:   aa.CharacterID,
			Offset:        aa.Pos.Sub(origin),
			InitialValues: vars,
			Appearance:    aa.Appearance,
		})
	}

	rec.Actions = append(rec.Actions, diffGlobals(before, after, prefs)...)
	numberConditions(rec.Conditions)
	return rec, nil
}

// synthesizeConditions drafts the trigger scene: one appearance equality per
// in-extent actor, plus a transform equality when it is not the identity.
func synthesizeConditions(bs *Stage, relevant map[string]bool) []Condition {
	var conds []Condition
	for _, id := range bs.ActorOrder {
		if !relevant[id] {
			continue
		}
		a := bs.Actors[id]
		conds = append(conds, Condition{
			Enabled:    true,
			Left:       ActorRef{ActorID: id, VariableID: "appearance"},
			Comparator: "=",
			Right:      Constant{Value: a.Appearance},
		})
		if a.Transform != "" && a.Transform != catalogs.TransformNone {
			conds = append(conds, Condition{
				Enabled:    true,
				Left:       ActorRef{ActorID: id, VariableID: "transform"},
				Comparator: "=",
				Right:      Constant{Value: a.Transform},
			})
		}
	}
	return conds
}

// diffActor emits the per-actor rewrite: move, variable steps in sorted key
// order, then appearance and transform changes.
func diffActor(before *World, ba, aa *Actor, origin Position, prefs RecordingPrefs) []Action {
	var acts []Action

	if ba.Pos != aa.Pos {
		off := aa.Pos.Sub(origin)
		acts = append(acts, MoveAction{ActorID: ba.ID, Offset: &off})
	}

	keys := make(map[string]bool, len(ba.Variables)+len(aa.Variables))
	for k := range ba.Variables {
		keys[k] = true
	}
	for k := range aa.Variables {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	defaults := func(id string) string { return varDefault(before, ba, id) }
	for _, k := range sorted {
		bv, ok := ba.Variables[k]
		if !ok {
			bv = defaults(k)
		}
		av, ok := aa.Variables[k]
		if !ok {
			av = defaults(k)
		}
		if bv == av {
			continue
		}
		acts = append(acts, variableStep(ba.ID, k, bv, av, prefs))
	}

	if ba.Appearance != aa.Appearance {
		acts = append(acts, AppearanceAction{ActorID: ba.ID, Appearance: aa.Appearance})
	}
	if ba.Transform != aa.Transform {
		acts = append(acts, TransformAction{ActorID: ba.ID, Op: catalogs.OpSet, Transform: aa.Transform})
	}
	return acts
}

// variableStep prefers the author's recorded arithmetic op when both sides
// are numeric; anything else becomes a set of the after value.
func variableStep(actorID, varID, bv, av string, prefs RecordingPrefs) Action {
	if op := prefs.VariableOps[varID]; op == catalogs.OpAdd || op == catalogs.OpSubtract {
		bf, bok := parseNumber(bv)
		af, aok := parseNumber(av)
		if bok && aok {
			delta := af - bf
			if op == catalogs.OpSubtract {
				delta = -delta
			}
			return VariableAction{
				ActorID:    actorID,
				VariableID: varID,
				Op:         op,
				Value:      Constant{Value: strconv.FormatFloat(delta, 'f', -1, 64)},
			}
		}
	}
	return VariableAction{
		ActorID:    actorID,
		VariableID: varID,
		Op:         catalogs.OpSet,
		Value:      Constant{Value: av},
	}
}

func diffGlobals(before, after *World, prefs RecordingPrefs) []Action {
	var acts []Action
	seen := map[string]bool{}
	order := append(append([]string(nil), before.GlobalOrder...), after.GlobalOrder...)
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		var bv, av string
		if g := before.Global(id); g != nil {
			bv = g.Value
		}
		if g := after.Global(id); g != nil {
			av = g.Value
		}
		if bv == av {
			continue
		}
		acts = append(acts, globalStep(id, bv, av, prefs))
	}
	return acts
}

func globalStep(globalID, bv, av string, prefs RecordingPrefs) Action {
	if op := prefs.VariableOps[globalID]; op == catalogs.OpAdd || op == catalogs.OpSubtract {
		bf, bok := parseNumber(bv)
		af, aok := parseNumber(av)
		if bok && aok {
			delta := af - bf
			if op == catalogs.OpSubtract {
				delta = -delta
			}
			return GlobalAction{
				GlobalID: globalID,
				Op:       op,
				Value:    Constant{Value: strconv.FormatFloat(delta, 'f', -1, 64)},
			}
		}
	}
	return GlobalAction{GlobalID: globalID, Op: catalogs.OpSet, Value: Constant{Value: av}}
}

func numberConditions(conds []Condition) {
	for i := range conds {
		conds[i].ID = fmt.Sprintf("cond_%d", i+1)
	}
}
