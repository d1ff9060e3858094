package world

import (
	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/sim/catalogs"
)

// DefaultMaxLoopIterations caps LOOP groups when no tuning is supplied.
const DefaultMaxLoopIterations = 100

// Options carries per-run evaluation limits.
type Options struct {
	MaxLoopIterations int
}

func (o Options) maxLoop() int {
	if o.MaxLoopIterations > 0 {
		return o.MaxLoopIterations
	}
	return DefaultMaxLoopIterations
}

// NodeTrace reports one walked rule tree node.
type NodeTrace struct {
	NodeID     string           `json:"node_id"`
	Kind       string           `json:"kind"`
	Matched    bool             `json:"matched"`
	Fired      bool             `json:"fired,omitempty"`
	Code       string           `json:"code,omitempty"`
	Iterations int              `json:"iterations,omitempty"`
	Conditions []ConditionTrace `json:"conditions,omitempty"`
	Check      []ConditionTrace `json:"check,omitempty"`
	Children   []NodeTrace      `json:"children,omitempty"`
}

// ActorTrace reports one actor's walk. Code is set when the walk could not
// run at all (missing actor, stage or character).
type ActorTrace struct {
	ActorID     string      `json:"actor_id"`
	CharacterID string      `json:"character_id,omitempty"`
	Code        string      `json:"code,omitempty"`
	Nodes       []NodeTrace `json:"nodes,omitempty"`
}

// WalkResult is one actor's bound actions plus the context they must be
// applied under.
type WalkResult struct {
	Actions []Action
	Ctx     ActionContext
	Trace   ActorTrace
}

// WalkRuleTree evaluates one actor's rules against a snapshot and collects
// the actions that fired. The snapshot is not modified: the walker keeps a
// private draft so an actor observes its own earlier actions (and LOOP
// iterations), while other actors walked from the same snapshot do not.
func WalkRuleTree(w *World, stageID, actorID string, rng *RNG) WalkResult {
	return walkRuleTree(w, stageID, actorID, rng, Options{})
}

func walkRuleTree(w *World, stageID, actorID string, rng *RNG, opts Options) WalkResult {
	res := WalkResult{Trace: ActorTrace{ActorID: actorID}}
	if rng == nil {
		rng = NewRNG(0)
	}

	st := w.Stage(stageID)
	if st == nil {
		res.Trace.Code = interchange.ErrNoStage
		return res
	}
	a := st.Actor(actorID)
	if a == nil {
		res.Trace.Code = interchange.ErrNoActor
		return res
	}
	c := w.Character(a.CharacterID)
	if c == nil {
		res.Trace.Code = interchange.ErrNoCharacter
		res.Trace.CharacterID = a.CharacterID
		return res
	}
	res.Trace.CharacterID = c.ID
	res.Ctx = ActionContext{StageID: stageID, SelfID: actorID, Anchor: a.Pos}

	wk := &walker{
		d:       newDraft(w),
		ctx:     res.Ctx,
		rng:     rng,
		maxLoop: opts.maxLoop(),
	}
	res.Trace.Nodes = wk.walkNodes(c.Rules)
	res.Actions = wk.bound
	return res
}

type walker struct {
	d       *draft
	ctx     ActionContext
	rng     *RNG
	maxLoop int
	bound   []Action
}

func (wk *walker) walkNodes(nodes []RuleNode) []NodeTrace {
	traces := make([]NodeTrace, 0, len(nodes))
	for _, n := range nodes {
		traces = append(traces, wk.walkNode(n))
	}
	return traces
}

func (wk *walker) walkNode(n RuleNode) NodeTrace {
	switch node := n.(type) {
	case *Rule:
		return wk.walkRule(node)
	case *EventGroup:
		tr := NodeTrace{NodeID: node.ID, Kind: interchange.NodeEventGroup}
		tr.Children = wk.walkNodes(node.Children)
		tr.Matched = anyMatched(tr.Children)
		return tr
	case *FlowGroup:
		return wk.walkFlowGroup(node)
	default:
		return NodeTrace{Kind: "UNKNOWN", Code: interchange.ErrInternal}
	}
}

func (wk *walker) walkRule(r *Rule) NodeTrace {
	tr := NodeTrace{NodeID: r.ID, Kind: interchange.NodeRule}
	if !r.Enabled {
		return tr
	}
	matched, condTraces := evaluateConditions(wk.d.world(), wk.ctx.StageID, wk.ctx.SelfID, r.Conditions)
	tr.Conditions = condTraces
	tr.Matched = matched
	if !matched {
		return tr
	}
	if len(r.Actions) > 0 {
		wk.bound = append(wk.bound, r.Actions...)
		applyToDraft(wk.d, r.Actions, wk.ctx)
		tr.Fired = true
	}
	return tr
}

func (wk *walker) walkFlowGroup(g *FlowGroup) NodeTrace {
	tr := NodeTrace{NodeID: g.ID, Kind: interchange.NodeFlowGroup}
	if !g.Enabled {
		return tr
	}
	if g.Check != nil {
		pass, checkTraces := wk.checkGate(g.Check)
		tr.Check = checkTraces
		if !pass {
			return tr
		}
	}

	switch g.Behavior {
	case catalogs.BehaviorFirst:
		tr.Children = wk.walkUntilMatch(g.Children, nil)

	case catalogs.BehaviorAll:
		tr.Children = wk.walkNodes(g.Children)

	case catalogs.BehaviorRandom:
		tr.Children = wk.walkUntilMatch(g.Children, wk.rng.Perm(len(g.Children)))

	case catalogs.BehaviorLoop:
		n := wk.loopCount(g.LoopCount)
		tr.Iterations = n
		for i := 0; i < n; i++ {
			tr.Children = append(tr.Children, wk.walkNodes(g.Children)...)
		}

	default:
		tr.Code = interchange.ErrBadBehavior
		return tr
	}
	tr.Matched = anyMatched(tr.Children)
	return tr
}

// walkUntilMatch walks children in the given order (identity when order is
// nil) and stops after the first matching child.
func (wk *walker) walkUntilMatch(children []RuleNode, order []int) []NodeTrace {
	traces := make([]NodeTrace, 0, len(children))
	for i := range children {
		idx := i
		if order != nil {
			idx = order[i]
		}
		tr := wk.walkNode(children[idx])
		traces = append(traces, tr)
		if tr.Matched {
			break
		}
	}
	return traces
}

// loopCount resolves the iteration count once at group entry. A missing
// count runs the group a single time; non-numeric values count as zero; the
// result clamps into [0, maxLoop].
func (wk *walker) loopCount(v Value) int {
	if v == nil {
		return 1
	}
	raw, code := resolveValue(wk.d.world(), wk.ctx.StageID, wk.ctx.SelfID, v)
	if code != "" {
		return 0
	}
	f, ok := parseNumber(raw)
	if !ok {
		return 0
	}
	n := int(f)
	if n < 0 {
		n = 0
	}
	if n > wk.maxLoop {
		n = wk.maxLoop
	}
	return n
}

// checkGate evaluates a spatial gate. The extent anchors at the acting
// actor's walk-entry cell. A condition whose referenced actor stands on an
// ignored cell is skipped; a referenced actor outside the extent, or gone,
// fails the gate.
func (wk *walker) checkGate(chk *Check) (bool, []ConditionTrace) {
	w := wk.d.world()
	st := w.Stage(wk.ctx.StageID)
	traces := make([]ConditionTrace, 0, len(chk.Conditions))

	for _, c := range chk.Conditions {
		if !c.Enabled {
			continue
		}
		skip := false
		failed := false
		for _, v := range []Value{c.Left, c.Right} {
			id, ok := explicitActorRef(v)
			if !ok {
				continue
			}
			ref := st.Actor(id)
			if ref == nil {
				traces = append(traces, ConditionTrace{ConditionID: c.ID, Code: interchange.ErrNoActor})
				failed = true
				break
			}
			if chk.Extent == nil {
				continue
			}
			if chk.Extent.Ignores(wk.ctx.Anchor, ref.Pos) {
				skip = true
				continue
			}
			if !chk.Extent.Contains(wk.ctx.Anchor, ref.Pos) {
				traces = append(traces, ConditionTrace{ConditionID: c.ID, Code: interchange.ErrOutOfExtent})
				failed = true
				break
			}
		}
		if failed {
			return false, traces
		}
		if skip {
			continue
		}
		tr := EvaluateCondition(w, wk.ctx.StageID, wk.ctx.SelfID, c)
		traces = append(traces, tr)
		if !tr.Passed {
			return false, traces
		}
	}
	return true, traces
}

func anyMatched(traces []NodeTrace) bool {
	for _, tr := range traces {
		if tr.Matched {
			return true
		}
	}
	return false
}
