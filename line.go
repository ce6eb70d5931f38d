package ramped

// Line represents a line segment, in display space when part of
// [Drawables].
type Line struct {
	// The line's start point.
	P0 Point
	// The line's end point.
	P1 Point
}

// Length returns the length of the line.
func (l Line) Length() float64 {
	return l.P1.Sub(l.P0).Hypot()
}

// Eval evaluates the line at parameter t, interpolating linearly between the
// start and end points.
func (l Line) Eval(t float64) Point {
	return l.P0.Lerp(l.P1, t)
}
