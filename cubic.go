package ramped

// CubicBez is a single cubic Bézier segment.
type CubicBez struct {
	P0 Point
	P1 Point
	P2 Point
	P3 Point
}

func (c CubicBez) Eval(t float64) Point {
	mt := 1.0 - t
	a := Vec2(c.P0).Mul(mt * mt * mt)
	b := Vec2(c.P1).Mul(mt * mt * 3.0)
	cc := Vec2(c.P2).Mul(mt * 3.0)
	d := Vec2(c.P3)
	v := a.Add(b.Add(cc.Add(d.Mul(t)).Mul(t)).Mul(t))
	return Point(v)
}

// Split subdivides the cubic at parameter t, using de Casteljau.
func (c CubicBez) Split(t float64) (CubicBez, CubicBez) {
	l1 := c.P0.Lerp(c.P1, t)
	m := c.P1.Lerp(c.P2, t)
	r2 := c.P2.Lerp(c.P3, t)
	l2 := l1.Lerp(m, t)
	r1 := m.Lerp(r2, t)
	mid := l2.Lerp(r1, t)
	return CubicBez{c.P0, l1, l2, mid}, CubicBez{mid, r1, r2, c.P3}
}

// solveForX finds the Bézier parameter whose x-coordinate reaches pos, by
// stepping the parameter at a fixed resolution and stopping at the first
// sample at or past pos. The cubic is not uniformly parameterized in x, so
// this is a cheap approximation rather than a root-find; the resolution
// matches the visible curve tolerance of the editor.
func (c CubicBez) solveForX(pos float64, steps int) float64 {
	u := 1.0
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if c.Eval(t).X >= pos {
			u = t
			break
		}
	}
	return u
}
