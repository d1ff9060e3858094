package world

// draft tracks copy-on-write edits against one snapshot. Reads go through
// the draft so an editor sees its own writes; everything untouched stays
// shared with the source world.
type draft struct {
	w             *World
	editedStages  map[string]bool
	editedActors  map[stageActor]bool
	editedGlobals bool
}

type stageActor struct {
	stageID string
	actorID string
}

func newDraft(w *World) *draft {
	cp := *w
	cp.Stages = make(map[string]*Stage, len(w.Stages))
	for id, s := range w.Stages {
		cp.Stages[id] = s
	}
	cp.StageOrder = append([]string(nil), w.StageOrder...)
	return &draft{
		w:            &cp,
		editedStages: map[string]bool{},
		editedActors: map[stageActor]bool{},
	}
}

func (d *draft) world() *World { return d.w }

func (d *draft) stage(id string) *Stage { return d.w.Stages[id] }

// editStage returns a stage the draft owns, cloning the record and its actor
// map once. Actor values stay shared until editActor touches them.
func (d *draft) editStage(id string) *Stage {
	s := d.w.Stages[id]
	if s == nil {
		return nil
	}
	if d.editedStages[id] {
		return s
	}
	cp := *s
	cp.Actors = make(map[string]*Actor, len(s.Actors))
	for aid, a := range s.Actors {
		cp.Actors[aid] = a
	}
	cp.ActorOrder = append([]string(nil), s.ActorOrder...)
	d.w.Stages[id] = &cp
	d.editedStages[id] = true
	return &cp
}

// editActor returns an actor the draft owns, cloning the record and its
// variable map once.
func (d *draft) editActor(stageID, actorID string) *Actor {
	s := d.editStage(stageID)
	if s == nil {
		return nil
	}
	a := s.Actors[actorID]
	if a == nil {
		return nil
	}
	key := stageActor{stageID, actorID}
	if d.editedActors[key] {
		return a
	}
	cp := *a
	cp.Variables = make(map[string]string, len(a.Variables))
	for k, v := range a.Variables {
		cp.Variables[k] = v
	}
	s.Actors[actorID] = &cp
	d.editedActors[key] = true
	return &cp
}

// editGlobals clones the global map and order once and returns the world.
func (d *draft) editGlobals() *World {
	if d.editedGlobals {
		return d.w
	}
	gl := make(map[string]*Global, len(d.w.Globals))
	for id, g := range d.w.Globals {
		gl[id] = g
	}
	d.w.Globals = gl
	d.w.GlobalOrder = append([]string(nil), d.w.GlobalOrder...)
	d.editedGlobals = true
	return d.w
}

// insertActor adds a freshly created actor to a stage the draft owns.
func (d *draft) insertActor(stageID string, a *Actor) {
	s := d.editStage(stageID)
	if s == nil {
		return
	}
	s.Actors[a.ID] = a
	s.ActorOrder = append(s.ActorOrder, a.ID)
	d.editedActors[stageActor{stageID, a.ID}] = true
}

// removeActor deletes an actor from a stage the draft owns.
func (d *draft) removeActor(stageID, actorID string) bool {
	s := d.editStage(stageID)
	if s == nil {
		return false
	}
	if _, ok := s.Actors[actorID]; !ok {
		return false
	}
	delete(s.Actors, actorID)
	order := s.ActorOrder[:0]
	for _, id := range s.ActorOrder {
		if id != actorID {
			order = append(order, id)
		}
	}
	s.ActorOrder = order
	return true
}
