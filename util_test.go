package ramped

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

// approx compares floats and float-bearing structs with a tolerance loose
// enough for the fixed-step parameter search.
func approx() cmp.Option {
	return cmpopts.EquateApprox(0, 1e-3)
}
