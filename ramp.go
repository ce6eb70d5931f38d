package ramped

import (
	"errors"
	"fmt"
)

// Basis selects the interpolation basis of a ramp segment. All segments of a
// ramp must share one basis; mixed ramps are rejected.
type Basis int

const (
	BasisBezier Basis = iota + 1
	BasisLinear
)

func (b Basis) String() string {
	switch b {
	case BasisBezier:
		return "Bezier"
	case BasisLinear:
		return "Linear"
	default:
		return fmt.Sprintf("Basis(%d)", int(b))
	}
}

// ErrUnsupportedRamp is reported when a ramp cannot be represented by the
// editor: a mixed or unknown basis, or a key count that does not match the
// declared basis. The curve is left untouched; callers may offer
// [DefaultRamp] as a replacement.
var ErrUnsupportedRamp = errors.New("unsupported ramp")

// Ramp is the portable keyframe representation exchanged with the host
// parameter binding: a flat ordered list of (position, value) keys plus a
// basis tag per key.
//
// For a Bézier ramp of N knots the list has 3N-2 entries: the first knot
// contributes [anchor, out], interior knots contribute [in, anchor, out], and
// the last knot contributes [in, anchor]. For a Linear ramp each entry is one
// knot's anchor.
type Ramp struct {
	Bases  []Basis   `json:"bases"`
	Keys   []float64 `json:"keys"`
	Values []float64 `json:"values"`
}

// BezierRamp returns a ramp with a uniform Bézier basis over the given keys.
func BezierRamp(keys, values []float64) Ramp {
	return uniformRamp(BasisBezier, keys, values)
}

// LinearRamp returns a ramp with a uniform Linear basis over the given keys.
func LinearRamp(keys, values []float64) Ramp {
	return uniformRamp(BasisLinear, keys, values)
}

func uniformRamp(basis Basis, keys, values []float64) Ramp {
	bases := make([]Basis, len(keys))
	for i := range bases {
		bases[i] = basis
	}
	return Ramp{Bases: bases, Keys: keys, Values: values}
}

// DefaultRamp returns the default two-knot shape: a smooth diagonal from
// (0, 0) to (1, 1) with symmetric one-third handles.
func DefaultRamp() Ramp {
	return BezierRamp(
		[]float64{0, 1.0 / 3.0, 2.0 / 3.0, 1},
		[]float64{0, 1.0 / 3.0, 2.0 / 3.0, 1},
	)
}

// Len returns the number of keys.
func (r Ramp) Len() int {
	return len(r.Keys)
}

// Basis returns the uniform basis of the ramp. It reports false for an empty
// ramp or one with mixed bases.
func (r Ramp) Basis() (Basis, bool) {
	if len(r.Bases) == 0 {
		return 0, false
	}
	basis := r.Bases[0]
	for _, b := range r.Bases[1:] {
		if b != basis {
			return 0, false
		}
	}
	return basis, true
}

// NumKnots returns the number of curve knots the ramp describes. The ramp
// must be valid.
func (r Ramp) NumKnots() int {
	basis, _ := r.Basis()
	if basis == BasisBezier {
		return (r.Len() + 2) / 3
	}
	return r.Len()
}

// Validate reports whether the ramp can be loaded into a curve. All failure
// modes wrap [ErrUnsupportedRamp].
func (r Ramp) Validate() error {
	if len(r.Keys) != len(r.Values) || len(r.Keys) != len(r.Bases) {
		return fmt.Errorf("%w: %d keys, %d values, %d bases", ErrUnsupportedRamp, len(r.Keys), len(r.Values), len(r.Bases))
	}
	basis, ok := r.Basis()
	if !ok {
		return fmt.Errorf("%w: empty or mixed basis", ErrUnsupportedRamp)
	}
	switch basis {
	case BasisBezier:
		// 3N-2 keys for N >= 2 knots.
		if n := r.Len(); n < 4 || n%3 != 1 {
			return fmt.Errorf("%w: %d keys do not form a Bezier ramp", ErrUnsupportedRamp, n)
		}
	case BasisLinear:
		if n := r.Len(); n < 2 {
			return fmt.Errorf("%w: %d keys do not form a Linear ramp", ErrUnsupportedRamp, n)
		}
	default:
		return fmt.Errorf("%w: basis %v", ErrUnsupportedRamp, basis)
	}
	return nil
}

// Lookup evaluates the ramp at the given domain position. Positions outside
// the key range clamp to the end values. The ramp must be valid.
//
// Bézier segments are not uniformly parameterized in x, so evaluation steps
// the segment parameter at [RampSampleSteps] resolution and interpolates
// between the bracketing samples.
func (r Ramp) Lookup(pos float64) float64 {
	if r.Len() == 0 {
		return 0
	}
	basis, _ := r.Basis()
	if basis == BasisLinear {
		return r.lookupLinear(pos)
	}
	return r.lookupBezier(pos)
}

func (r Ramp) lookupLinear(pos float64) float64 {
	if pos <= r.Keys[0] {
		return r.Values[0]
	}
	last := r.Len() - 1
	if pos >= r.Keys[last] {
		return r.Values[last]
	}
	for i := 0; i < last; i++ {
		k0, k1 := r.Keys[i], r.Keys[i+1]
		if pos < k0 || pos >= k1 {
			continue
		}
		if k1-k0 < Epsilon {
			return r.Values[i]
		}
		t := (pos - k0) / (k1 - k0)
		return r.Values[i] + t*(r.Values[i+1]-r.Values[i])
	}
	return r.Values[last]
}

func (r Ramp) lookupBezier(pos float64) float64 {
	last := r.Len() - 1
	if pos <= r.Keys[0] {
		return r.Values[0]
	}
	if pos >= r.Keys[last] {
		return r.Values[last]
	}
	// Anchors sit at indices 0, 3, 6, ...
	for a := 0; a+3 <= last; a += 3 {
		b := a + 3
		if pos < r.Keys[a] || pos >= r.Keys[b] {
			continue
		}
		seg := CubicBez{
			Pt(r.Keys[a], r.Values[a]),
			Pt(r.Keys[a+1], r.Values[a+1]),
			Pt(r.Keys[a+2], r.Values[a+2]),
			Pt(r.Keys[b], r.Values[b]),
		}
		prev := seg.P0
		for i := 1; i <= RampSampleSteps; i++ {
			t := float64(i) / RampSampleSteps
			cur := seg.Eval(t)
			if cur.X >= pos {
				if cur.X-prev.X < Epsilon {
					return cur.Y
				}
				f := (pos - prev.X) / (cur.X - prev.X)
				return prev.Y + f*(cur.Y-prev.Y)
			}
			prev = cur
		}
		return seg.P3.Y
	}
	return r.Values[last]
}
