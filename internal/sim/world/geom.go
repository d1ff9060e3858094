package world

type Position struct {
	X int
	Y int
}

func (p Position) Add(q Position) Position {
	return Position{p.X + q.X, p.Y + q.Y}
}

func (p Position) Sub(q Position) Position {
	return Position{p.X - q.X, p.Y - q.Y}
}

// clampToStage pulls a position back inside the stage grid.
func clampToStage(p Position, s *Stage) Position {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if s.Width > 0 && p.X > s.Width-1 {
		p.X = s.Width - 1
	}
	if s.Height > 0 && p.Y > s.Height-1 {
		p.Y = s.Height - 1
	}
	return p
}

// Extent is an inclusive cell rectangle with an optional set of interior
// cells excluded from matching. Bounds are offsets: rule checks anchor them
// at the acting actor, recordings at the stage origin.
type Extent struct {
	XMin, YMin int
	XMax, YMax int

	// Ignored holds excluded offsets within the bounds.
	Ignored map[Position]bool
}

func (e Extent) Width() int  { return e.XMax - e.XMin + 1 }
func (e Extent) Height() int { return e.YMax - e.YMin + 1 }

// normalize orders the bounds so XMin<=XMax and YMin<=YMax.
func (e Extent) normalize() Extent {
	if e.XMin > e.XMax {
		e.XMin, e.XMax = e.XMax, e.XMin
	}
	if e.YMin > e.YMax {
		e.YMin, e.YMax = e.YMax, e.YMin
	}
	return e
}

// Contains reports whether cell falls inside the rectangle anchored at
// anchor. Ignored cells still count as inside; see Ignores.
func (e Extent) Contains(anchor, cell Position) bool {
	rel := cell.Sub(anchor)
	return rel.X >= e.XMin && rel.X <= e.XMax && rel.Y >= e.YMin && rel.Y <= e.YMax
}

// Ignores reports whether cell lands on an excluded offset.
func (e Extent) Ignores(anchor, cell Position) bool {
	if len(e.Ignored) == 0 {
		return false
	}
	return e.Ignored[cell.Sub(anchor)]
}

// Origin is the top-left offset of the rectangle.
func (e Extent) Origin() Position {
	return Position{e.XMin, e.YMin}
}

// footprint returns the absolute cells an actor occupies: its appearance
// mask anchored at its position, or just its position when the character or
// sheet entry is unknown.
func footprint(w *World, a *Actor) []Position {
	c := w.Character(a.CharacterID)
	if c == nil {
		return []Position{a.Pos}
	}
	ap := c.appearance(a.Appearance)
	if ap == nil || ap.Width <= 0 || ap.Height <= 0 {
		return []Position{a.Pos}
	}
	cells := make([]Position, 0, ap.Width*ap.Height)
	for y := 0; y < ap.Height; y++ {
		for x := 0; x < ap.Width; x++ {
			if ap.Filled != nil && !ap.Filled[y*ap.Width+x] {
				continue
			}
			cells = append(cells, Position{a.Pos.X + x, a.Pos.Y + y})
		}
	}
	if len(cells) == 0 {
		return []Position{a.Pos}
	}
	return cells
}

// touchesExtent reports whether any footprint cell of a falls on a
// non-ignored cell of e anchored at anchor.
func touchesExtent(w *World, a *Actor, e Extent, anchor Position) bool {
	for _, cell := range footprint(w, a) {
		if e.Contains(anchor, cell) && !e.Ignores(anchor, cell) {
			return true
		}
	}
	return false
}
