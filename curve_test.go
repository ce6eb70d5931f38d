package ramped

import (
	"errors"
	"testing"
)

type countingObserver struct {
	changes int
}

func (o *countingObserver) CurveChanged() { o.changes++ }

// memBinding is an in-memory host parameter.
type memBinding struct {
	ramp    Ramp
	rampErr error
	setErr  error
	reads   int
	writes  int
}

func (b *memBinding) Ramp() (Ramp, error) {
	b.reads++
	return b.ramp, b.rampErr
}

func (b *memBinding) SetRamp(r Ramp) error {
	b.writes++
	if b.setErr != nil {
		return b.setErr
	}
	b.ramp = r
	return nil
}

func assertKeysOrdered(t *testing.T, r Ramp) {
	t.Helper()
	for i := 1; i < r.Len(); i++ {
		if r.Keys[i] < r.Keys[i-1] {
			t.Fatalf("keys out of order: %v", r.Keys)
		}
	}
}

func TestNewCurveDefaultShape(t *testing.T) {
	c := NewCurve()

	diff(t, 2, c.Len())
	diff(t, Pt(0, 0), c.Knot(0).Position())
	diff(t, Pt(1, 1), c.Knot(1).Position())

	r := c.ToRamp()
	diff(t, DefaultRamp().Keys, r.Keys, approx())
	diff(t, DefaultRamp().Values, r.Values, approx())
}

func TestToRampKeyLayout(t *testing.T) {
	c := NewCurve()
	c.AddKnotAt(0.5)

	r := c.ToRamp()
	// three knots: [anchor out] [in anchor out] [in anchor]
	diff(t, 7, r.Len())
	diff(t, []float64{0, 1.0 / 6, 1.0 / 3, 0.5, 2.0 / 3, 5.0 / 6, 1}, r.Keys, approx())
	assertKeysOrdered(t, r)
}

func TestInsertionPreservesShape(t *testing.T) {
	c := NewCurve()
	c.AddKnotAt(0.3)
	c.AddKnotAt(0.7)

	r := c.ToRamp()
	for _, x := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		got := r.Lookup(x)
		if got < x-2e-3 || got > x+2e-3 {
			t.Errorf("Lookup(%v) = %v after insertion, want %v", x, got, x)
		}
	}
	assertKeysOrdered(t, r)
}

func TestAddKnotAtOutsideDomain(t *testing.T) {
	c := NewCurve()
	if c.AddKnotAt(-0.2) != nil {
		t.Error("insertion left of the domain should fail")
	}
	if c.AddKnotAt(1.5) != nil {
		t.Error("insertion right of the domain should fail")
	}
	diff(t, 2, c.Len())
}

func TestRemoveKnot(t *testing.T) {
	c := NewCurve()
	c.AddKnotAt(0.5)

	if c.RemoveKnot(0) {
		t.Error("removing an end knot should fail")
	}
	if !c.RemoveKnot(1) {
		t.Error("removing an interior knot should succeed")
	}
	diff(t, 2, c.Len())
	if c.RemoveKnot(1) {
		t.Error("a curve keeps at least two knots")
	}

	diff(t, 0, c.Knot(0).Index())
	diff(t, 1, c.Knot(1).Index())
	if !c.Knot(1).IsLast() {
		t.Error("last flag not restored after removal")
	}
}

func TestInsertionShrinksNeighborHandles(t *testing.T) {
	c := NewCurve()
	firstOut := c.Knot(0).OutOffset().Hypot()
	lastIn := c.Knot(1).InOffset().Hypot()

	if c.AddKnotAt(0.5) == nil {
		t.Fatal("insertion failed")
	}

	if got := c.Knot(0).OutOffset().Hypot(); got >= firstOut {
		t.Errorf("first knot out handle not shrunk: %v -> %v", firstOut, got)
	}
	if got := c.Knot(2).InOffset().Hypot(); got >= lastIn {
		t.Errorf("last knot in handle not shrunk: %v -> %v", lastIn, got)
	}
}

func TestRampRoundTrip(t *testing.T) {
	c1 := NewCurve()
	mid := c1.AddKnotAt(0.5)
	mid.ktype = Broken
	mid.inOffset = Vec(-0.1, 0.05)
	mid.setDisplayPositions()
	c1.syncRamp()

	r := c1.ToRamp()

	c2 := NewCurve()
	if err := c2.LoadRamp(r); err != nil {
		t.Fatal(err)
	}

	diff(t, 3, c2.Len())
	got := c2.ToRamp()
	diff(t, r.Keys, got.Keys, approx())
	diff(t, r.Values, got.Values, approx())

	diff(t, Smooth, c2.Knot(0).Type())
	diff(t, Broken, c2.Knot(1).Type())
	diff(t, Smooth, c2.Knot(2).Type())
}

func TestLoadRampReconstructsCorners(t *testing.T) {
	c1 := NewCurve()
	mid := c1.AddKnotAt(0.5)
	mid.Anchor().DoubleClick() // corner

	c2 := NewCurve()
	if err := c2.LoadRamp(c1.ToRamp()); err != nil {
		t.Fatal(err)
	}
	diff(t, Corner, c2.Knot(1).Type())
	if c2.Knot(1).HandlesVisible() {
		t.Error("corner knot should hide its handles")
	}
}

func TestLoadLinearRamp(t *testing.T) {
	c := NewCurve()
	err := c.LoadRamp(LinearRamp([]float64{0, 0.5, 1}, []float64{0, 1, 0}))
	if err != nil {
		t.Fatal(err)
	}

	diff(t, 3, c.Len())
	for i := 0; i < c.Len(); i++ {
		diff(t, Corner, c.Knot(i).Type())
		diff(t, Vec2{}, c.Knot(i).InOffset())
		diff(t, Vec2{}, c.Knot(i).OutOffset())
	}

	// zero-length handles keep the segments linear
	r := c.ToRamp()
	diff(t, 0.5, r.Lookup(0.25), approx())
	diff(t, 0.5, r.Lookup(0.75), approx())
}

func TestLoadRampRejectsUnsupported(t *testing.T) {
	c := NewCurve()
	c.AddKnotAt(0.5)

	err := c.LoadRamp(BezierRamp([]float64{0, 1}, []float64{0, 1}))
	if !errors.Is(err, ErrUnsupportedRamp) {
		t.Fatalf("got %v, want ErrUnsupportedRamp", err)
	}
	// the curve is left untouched
	diff(t, 3, c.Len())
}

func TestClampLoopCoupling(t *testing.T) {
	c := NewCurve()

	c.SetLooped(true)
	if !c.Clamped() || !c.Looping() {
		t.Fatal("looping should force clamped mode")
	}
	diff(t, 0.0, c.Knot(0).Position().X)
	diff(t, 1.0, c.Knot(1).Position().X)
	diff(t, c.Knot(0).Position().Y, c.Knot(1).Position().Y)

	c.SetClamped(false)
	if c.Looping() {
		t.Fatal("disabling clamped mode should disable looping")
	}
}

func TestSetClampedCommits(t *testing.T) {
	c := NewCurve()
	a := c.Knot(0).Anchor()
	a.Press(0)
	a.Drag(Pt(0.1, 0))
	a.Release()

	b := &memBinding{}
	c.SetBinding(b)
	c.SetClamped(true)

	// the forced repositioning reaches the host immediately
	diff(t, 1, b.writes)
	diff(t, 0.0, b.ramp.Keys[0])
}

func TestLoadRampKeepsClampedPinning(t *testing.T) {
	b := &memBinding{}
	c := NewCurve()
	c.SetBinding(b)
	c.SetClamped(true)
	writes := b.writes

	err := c.LoadRamp(BezierRamp(
		[]float64{0.1, 0.3, 0.6, 0.9},
		[]float64{0, 0.5, 0.5, 1},
	))
	if err != nil {
		t.Fatal(err)
	}

	// end knots are re-pinned, and the reload is not echoed to the host
	diff(t, 0.0, c.Knot(0).Position().X)
	diff(t, 1.0, c.Knot(1).Position().X)
	diff(t, writes, b.writes)
}

func TestSetBorders(t *testing.T) {
	c := NewCurve()
	c.SetDisplaySize(100, 100)

	c.SetBorders(0, 2)
	bottom, top := c.Borders()
	diff(t, 0.0, bottom)
	diff(t, 2.0, top)
	// the vertical ratio halves the projected y
	diff(t, Pt(100, 50), c.MapToDisplay(Pt(1, 1)))

	// an inverted range is corrected to one unit of height
	c.SetBorders(1, 0.5)
	bottom, top = c.Borders()
	diff(t, 1.0, bottom)
	diff(t, 2.0, top)
}

func TestSilhouetteCoversViewport(t *testing.T) {
	c := NewCurve()
	c.SetDisplaySize(200, 100)

	shape := c.Silhouette()
	if len(shape) < ShapeSteps {
		t.Fatalf("silhouette has only %d elements", len(shape))
	}
	diff(t, MoveTo(Pt(-shapeOverscan, 0)), shape[0])
	diff(t, LineTo(Pt(200+shapeOverscan, 0)), shape[len(shape)-2])
	diff(t, ClosePath(), shape[len(shape)-1])
}

func TestObserverNotified(t *testing.T) {
	c := NewCurve()
	obs := &countingObserver{}
	c.SetObserver(obs)

	c.AddKnotAt(0.5)
	if obs.changes == 0 {
		t.Error("observer not notified on insertion")
	}
}

func TestCommitPushesToBinding(t *testing.T) {
	c := NewCurve()
	b := &memBinding{}
	c.SetBinding(b)

	c.AddKnotAt(0.5)
	diff(t, 1, b.writes)
	diff(t, 7, b.ramp.Len())
}

func TestCommitFailureKeepsState(t *testing.T) {
	c := NewCurve()
	b := &memBinding{setErr: errors.New("locked parm")}
	c.SetBinding(b)

	c.AddKnotAt(0.5)
	diff(t, 3, c.Len())
}

func TestControlAt(t *testing.T) {
	c := NewCurve()
	c.SetDisplaySize(100, 100)
	k := c.AddKnotAt(0.5)

	if got := c.ControlAt(Pt(52, 48)); got != k.Anchor() {
		t.Errorf("anchor hit returned %v", got)
	}
	if got := c.ControlAt(Pt(67, 66)); got != k.Handle(HandleOut) {
		t.Errorf("handle hit returned %v", got)
	}
	if got := c.ControlAt(Pt(10, 80)); got != nil {
		t.Errorf("empty space returned %v", got)
	}

	// hidden handles do not take hits
	k.SetType(Corner)
	if got := c.ControlAt(Pt(67, 66)); got != nil {
		t.Errorf("hidden handle returned %v", got)
	}
}

func TestDrawables(t *testing.T) {
	c := NewCurve()
	c.AddKnotAt(0.5)

	d := c.Drawables()
	// 3 anchors + 4 handles, one tangent line per handle
	diff(t, 7, len(d.Controls))
	diff(t, 4, len(d.HandleLines))

	// the first tangent line spans the first knot's anchor to its out handle
	ln := d.HandleLines[0]
	diff(t, c.Knot(0).Anchor().Pos(), ln.Eval(0))
	diff(t, c.Knot(0).Handle(HandleOut).Pos(), ln.Eval(1))
	diff(t, Vec(1.0/6, 1.0/6).Hypot(), ln.Length(), approx())

	c.Knot(1).SetType(Corner)
	d = c.Drawables()
	diff(t, 5, len(d.Controls))
	diff(t, 2, len(d.HandleLines))
}
