package world

import "fmt"

// SaveStartingState records the stage's current actors as its reset point.
// The saved records are shared with the snapshot; the no-write contract on
// snapshots keeps them stable while ticks continue.
func SaveStartingState(w *World, stageID, thumbnail string) (*World, error) {
	src := w.Stage(stageID)
	if src == nil {
		return nil, fmt.Errorf("starting state: stage %q not found", stageID)
	}
	d := newDraft(w)
	s := d.editStage(stageID)
	st := &StartingState{
		Actors:     make(map[string]*Actor, len(src.Actors)),
		ActorOrder: append([]string(nil), src.ActorOrder...),
		Thumbnail:  thumbnail,
	}
	for id, a := range src.Actors {
		st.Actors[id] = a
	}
	s.Starting = st
	return d.world(), nil
}

// RestoreStartingState rewinds the stage to its saved reset point. The
// starting snapshot itself survives, so restore can run any number of times.
// NextActorNum never rewinds; ids stay unique across restores.
func RestoreStartingState(w *World, stageID string) (*World, error) {
	src := w.Stage(stageID)
	if src == nil {
		return nil, fmt.Errorf("starting state: stage %q not found", stageID)
	}
	if src.Starting == nil {
		return nil, fmt.Errorf("starting state: stage %q has none saved", stageID)
	}
	d := newDraft(w)
	s := d.editStage(stageID)
	s.Actors = make(map[string]*Actor, len(src.Starting.Actors))
	for id, a := range src.Starting.Actors {
		s.Actors[id] = a
	}
	s.ActorOrder = append([]string(nil), src.Starting.ActorOrder...)
	return d.world(), nil
}
