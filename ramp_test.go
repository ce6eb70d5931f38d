package ramped

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRampValidate(t *testing.T) {
	tests := []struct {
		name string
		ramp Ramp
		ok   bool
	}{
		{"default", DefaultRamp(), true},
		{"bezier three knots", BezierRamp(
			[]float64{0, 0.1, 0.4, 0.5, 0.6, 0.9, 1},
			[]float64{0, 0.1, 0.4, 0.5, 0.6, 0.9, 1},
		), true},
		{"bezier wrong count", BezierRamp([]float64{0, 0.5, 1}, []float64{0, 0.5, 1}), false},
		{"bezier single key", BezierRamp([]float64{0}, []float64{0}), false},
		{"linear", LinearRamp([]float64{0, 1}, []float64{0, 1}), true},
		{"linear single key", LinearRamp([]float64{0}, []float64{0}), false},
		{"empty", Ramp{}, false},
		{"length mismatch", Ramp{
			Bases:  []Basis{BasisBezier, BasisBezier},
			Keys:   []float64{0, 1},
			Values: []float64{0},
		}, false},
		{"mixed basis", Ramp{
			Bases:  []Basis{BasisBezier, BasisLinear},
			Keys:   []float64{0, 1},
			Values: []float64{0, 1},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ramp.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrUnsupportedRamp)
			}
		})
	}
}

func TestRampNumKnots(t *testing.T) {
	assert.Equal(t, 2, DefaultRamp().NumKnots())
	assert.Equal(t, 3, BezierRamp(make([]float64, 7), make([]float64, 7)).NumKnots())
	assert.Equal(t, 3, LinearRamp(make([]float64, 3), make([]float64, 3)).NumKnots())
}

func TestRampBasis(t *testing.T) {
	basis, ok := DefaultRamp().Basis()
	assert.True(t, ok)
	assert.Equal(t, BasisBezier, basis)

	_, ok = Ramp{}.Basis()
	assert.False(t, ok)

	_, ok = Ramp{Bases: []Basis{BasisBezier, BasisLinear}}.Basis()
	assert.False(t, ok)
}

func TestRampLookupLinear(t *testing.T) {
	r := LinearRamp([]float64{0, 0.5, 1}, []float64{0, 1, 0})

	assert.InDelta(t, 0.5, r.Lookup(0.25), 1e-9)
	assert.InDelta(t, 1.0, r.Lookup(0.5), 1e-9)
	assert.InDelta(t, 0.5, r.Lookup(0.75), 1e-9)

	// positions outside the key range clamp to the end values
	assert.InDelta(t, 0.0, r.Lookup(-1), 1e-9)
	assert.InDelta(t, 0.0, r.Lookup(2), 1e-9)
}

func TestRampLookupBezier(t *testing.T) {
	// the default ramp is exactly the diagonal
	r := DefaultRamp()
	for _, x := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		assert.InDelta(t, x, r.Lookup(x), 1e-3, "at %v", x)
	}
	assert.InDelta(t, 0.0, r.Lookup(-0.5), 1e-9)
	assert.InDelta(t, 1.0, r.Lookup(1.5), 1e-9)
}
