package world

// DefaultHistoryCap bounds step-back depth when no tuning is supplied.
const DefaultHistoryCap = 64

// History is a bounded stack of snapshots backing step-back. Snapshots are
// immutable, so holding them is cheap: consecutive entries share every
// untouched stage and actor.
type History struct {
	limit int
	snaps []*World
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryCap
	}
	return &History{limit: limit}
}

// Push records a snapshot, evicting the oldest entry at capacity.
func (h *History) Push(w *World) {
	h.snaps = append(h.snaps, w)
	if len(h.snaps) > h.limit {
		n := copy(h.snaps, h.snaps[len(h.snaps)-h.limit:])
		for i := n; i < len(h.snaps); i++ {
			h.snaps[i] = nil
		}
		h.snaps = h.snaps[:n]
	}
}

// StepBack pops the most recent snapshot. On an empty history it reports
// false and callers leave the current world in place.
func (h *History) StepBack() (*World, bool) {
	if len(h.snaps) == 0 {
		return nil, false
	}
	w := h.snaps[len(h.snaps)-1]
	h.snaps[len(h.snaps)-1] = nil
	h.snaps = h.snaps[:len(h.snaps)-1]
	return w, true
}

func (h *History) Len() int { return len(h.snaps) }

func (h *History) Clear() {
	for i := range h.snaps {
		h.snaps[i] = nil
	}
	h.snaps = h.snaps[:0]
}
