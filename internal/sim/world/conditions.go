package world

import (
	"strconv"
	"strings"

	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/sim/catalogs"
)

// ConditionTrace reports one evaluated condition for diagnostics. Code is
// set on defined failures (unresolved references, non-numeric operands for
// ordered comparators, unknown comparator).
type ConditionTrace struct {
	ConditionID string `json:"condition_id,omitempty"`
	Passed      bool   `json:"passed"`
	Left        string `json:"left"`
	Right       string `json:"right"`
	Code        string `json:"code,omitempty"`
}

// EvaluateCondition resolves both operands against the snapshot and applies
// the comparator. Any failure to resolve fails the condition; it never
// returns a Go error.
func EvaluateCondition(w *World, stageID, selfID string, c Condition) ConditionTrace {
	tr := ConditionTrace{ConditionID: c.ID}

	left, code := resolveValue(w, stageID, selfID, c.Left)
	if code != "" {
		tr.Code = code
		return tr
	}
	right, code := resolveValue(w, stageID, selfID, c.Right)
	if code != "" {
		tr.Code = code
		return tr
	}
	tr.Left, tr.Right = left, right
	tr.Passed, tr.Code = compare(left, c.Comparator, right)
	return tr
}

// evaluateConditions is the AND over enabled conditions; an empty or fully
// disabled list passes.
func evaluateConditions(w *World, stageID, selfID string, conds []Condition) (bool, []ConditionTrace) {
	traces := make([]ConditionTrace, 0, len(conds))
	pass := true
	for _, c := range conds {
		if !c.Enabled {
			continue
		}
		tr := EvaluateCondition(w, stageID, selfID, c)
		traces = append(traces, tr)
		if !tr.Passed {
			pass = false
		}
	}
	return pass, traces
}

// compare applies one comparator. Equality is numeric when both operands
// parse as numbers, so "5" = "5.0" holds; ordered comparators require
// numeric operands; the text comparators never parse.
func compare(left, cmp, right string) (bool, string) {
	switch cmp {
	case "contains":
		return strings.Contains(left, right), ""
	case "starts-with":
		return strings.HasPrefix(left, right), ""
	case "ends-with":
		return strings.HasSuffix(left, right), ""
	}
	if !catalogs.IsComparator(cmp) {
		return false, interchange.ErrBadComparator
	}

	lf, lok := parseNumber(left)
	rf, rok := parseNumber(right)
	numeric := lok && rok

	if catalogs.OrderedComparators[cmp] {
		if !numeric {
			return false, interchange.ErrNotNumeric
		}
		switch cmp {
		case "<":
			return lf < rf, ""
		case "<=":
			return lf <= rf, ""
		case ">":
			return lf > rf, ""
		case ">=":
			return lf >= rf, ""
		}
	}

	eq := left == right
	if numeric {
		eq = lf == rf
	}
	if cmp == "!=" {
		return !eq, ""
	}
	return eq, ""
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
