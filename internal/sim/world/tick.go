package world

// TickTrace is the diagnostic record of one Advance: every actor's walk and
// every action application, in order. It is a side channel; nothing in it
// feeds back into the world.
type TickTrace struct {
	Tick    uint64        `json:"tick"`
	Actors  []ActorTrace  `json:"actors,omitempty"`
	Applied []ActionTrace `json:"applied,omitempty"`
}

// Advance computes one tick with default limits.
func Advance(w *World, rng *RNG) (*World, *TickTrace) {
	return AdvanceOpts(w, rng, Options{})
}

// AdvanceOpts computes one tick: every actor's rules evaluate against the
// tick-start snapshot, then all bound actions apply to one evolving draft in
// stage order, actor insertion order, bind order. Finally animation frames
// bump, the pending input is consumed and the tick counter moves.
func AdvanceOpts(w *World, rng *RNG, opts Options) (*World, *TickTrace) {
	trace := &TickTrace{Tick: w.Tick}

	var walks []WalkResult
	for _, stageID := range w.StageOrder {
		st := w.Stages[stageID]
		if st == nil {
			continue
		}
		for _, actorID := range st.ActorOrder {
			res := walkRuleTree(w, stageID, actorID, rng, opts)
			trace.Actors = append(trace.Actors, res.Trace)
			if len(res.Actions) > 0 {
				walks = append(walks, res)
			}
		}
	}

	d := newDraft(w)
	for _, walk := range walks {
		trace.Applied = append(trace.Applied, applyToDraft(d, walk.Actions, walk.Ctx)...)
	}

	// Frames advance for actors that entered the tick and survived it;
	// actors created this tick stay on frame zero until the next one.
	for _, stageID := range w.StageOrder {
		st := w.Stages[stageID]
		if st == nil {
			continue
		}
		for _, actorID := range st.ActorOrder {
			cur := d.stage(stageID)
			if cur == nil || cur.Actor(actorID) == nil {
				continue
			}
			d.editActor(stageID, actorID).Frame++
		}
	}

	out := d.world()
	out.Input = InputState{}
	out.Tick++
	return out, trace
}

// WithInput returns a snapshot carrying host input for the next Advance.
func WithInput(w *World, in InputState) *World {
	cp := *w
	cp.Input = in
	return &cp
}
