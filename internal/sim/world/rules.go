package world

import "encoding/json"

// RuleNode is the closed set of rule tree nodes. Trees are built once at
// load and never mutated during simulation; snapshots share them by pointer.
type RuleNode interface {
	NodeID() string
	isRuleNode()
}

type Rule struct {
	ID         string
	Name       string
	Enabled    bool
	Conditions []Condition
	Actions    []Action

	extra map[string]json.RawMessage
}

// EventGroup is organizational: every child is walked.
type EventGroup struct {
	ID       string
	Name     string
	Children []RuleNode

	extra map[string]json.RawMessage
}

// FlowGroup gates and sequences its children by Behavior. LoopCount is
// resolved once on entry for LOOP groups; Check, when present, must pass
// before any child runs.
type FlowGroup struct {
	ID        string
	Name      string
	Enabled   bool
	Behavior  string
	LoopCount Value
	Check     *Check
	Children  []RuleNode

	extra map[string]json.RawMessage
}

// Check is a spatial gate: Conditions evaluate with Extent anchored at the
// acting actor.
type Check struct {
	Conditions []Condition
	Extent     *Extent
}

type Condition struct {
	ID         string
	Enabled    bool
	Left       Value
	Comparator string
	Right      Value

	extra map[string]json.RawMessage
}

func (r *Rule) NodeID() string       { return r.ID }
func (g *EventGroup) NodeID() string { return g.ID }
func (g *FlowGroup) NodeID() string  { return g.ID }

func (*Rule) isRuleNode()       {}
func (*EventGroup) isRuleNode() {}
func (*FlowGroup) isRuleNode()  {}
