package ramped

import "math"

// Editor is one editing session: it owns a curve, tracks the viewport
// geometry and interaction toggles, and mediates between the curve and the
// host binding. It implements [Viewport] for its curve. Sessions are
// independent; hosts embedding several editors create one Editor each.
type Editor struct {
	curve   *Curve
	binding Binding

	width  float64
	height float64

	snapEnabled bool
	gridStep    float64
	autoExtend  bool

	pendingReload bool
}

// NewEditor returns a session holding a fresh default curve.
func NewEditor() *Editor {
	e := &Editor{
		gridStep:   DefaultGridStep,
		autoExtend: true,
		width:      1,
		height:     1,
	}
	e.curve = NewCurve()
	e.curve.SetViewport(e)
	return e
}

// Curve returns the session's curve.
func (e *Editor) Curve() *Curve { return e.curve }

// Resize updates the display-space viewport dimensions. Zero or negative
// dimensions are ignored.
func (e *Editor) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	e.width = width
	e.height = height
	e.curve.SetDisplaySize(width, height)
}

// SetBorders sets the semantic vertical display range.
func (e *Editor) SetBorders(bottom, top float64) {
	e.curve.SetBorders(bottom, top)
}

// FitToViewport tightens the vertical borders to exactly the curve's value
// bounds.
func (e *Editor) FitToViewport() {
	e.curve.SetBorders(e.curve.MinY(), e.curve.MaxY())
}

// ExtendViewport grows the vertical borders so the whole curve stays
// visible. Borders only ever grow here; use [Editor.FitToViewport] to
// shrink them back.
func (e *Editor) ExtendViewport() {
	bottom, top := e.curve.Borders()
	newBottom := math.Min(bottom, e.curve.MinY())
	newTop := math.Max(top, e.curve.MaxY())
	if newBottom != bottom || newTop != top {
		e.curve.SetBorders(newBottom, newTop)
	}
}

// AutoExtend reports whether the viewport grows automatically after drags.
func (e *Editor) AutoExtend() bool { return e.autoExtend }

// SetAutoExtend toggles automatic viewport extension after drags.
func (e *Editor) SetAutoExtend(enabled bool) { e.autoExtend = enabled }

// SetSnap toggles grid snapping of dragged positions.
func (e *Editor) SetSnap(enabled bool) { e.snapEnabled = enabled }

// SnapEnabled reports whether grid snapping is on.
func (e *Editor) SnapEnabled() bool { return e.snapEnabled }

// SetGridStep sets the curve-space spacing of the snap grid. Non-positive
// steps are ignored.
func (e *Editor) SetGridStep(step float64) {
	if step <= 0 {
		return
	}
	e.gridStep = step
}

// SnapPosition snaps a display-space position onto the nearest grid lines,
// per axis, when it lies within [SnapDistance] display units of them. With
// snapping off the position passes through untouched.
func (e *Editor) SnapPosition(pos *Point) {
	if !e.snapEnabled {
		return
	}
	cp := e.curve.MapToCurve(*pos)
	snapped := e.curve.MapToDisplay(Pt(
		math.Round(cp.X/e.gridStep)*e.gridStep,
		math.Round(cp.Y/e.gridStep)*e.gridStep,
	))
	if math.Abs(snapped.X-pos.X) <= SnapDistance {
		pos.X = snapped.X
	}
	if math.Abs(snapped.Y-pos.Y) <= SnapDistance {
		pos.Y = snapped.Y
	}
}

// CurvePointAt returns the display-space point on the curve above the given
// display-space x, for hover previews of a prospective insertion.
func (e *Editor) CurvePointAt(displayX float64) Point {
	x := clamp(displayX/e.width, 0, 1)
	return e.curve.MapToDisplay(Pt(x, e.curve.ramp.Lookup(x)))
}

// InsertAt inserts a new knot on the curve at the given display-space x.
// Returns nil when the position falls outside every segment.
func (e *Editor) InsertAt(displayX float64) *Knot {
	return e.curve.AddKnotAt(displayX / e.width)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AttachBinding connects the session to a host parameter and loads its
// current ramp. An unreadable or unsupported host ramp falls back to
// [DefaultRamp] so the session always starts editable.
func (e *Editor) AttachBinding(b Binding) {
	e.binding = b
	e.curve.SetBinding(b)
	e.reload()
}

func (e *Editor) reload() {
	if e.binding == nil {
		return
	}
	r, err := e.binding.Ramp()
	if err == nil {
		err = e.curve.LoadRamp(r)
	}
	if err != nil {
		Logger().Warn("falling back to default ramp", "err", err)
		if err := e.curve.LoadRamp(DefaultRamp()); err != nil {
			Logger().Error("default ramp rejected", "err", err)
		}
	}
}

// NotifyRampChanged marks the host ramp as changed out from under the
// session. The reload happens on the next [Editor.Tick], so a burst of host
// notifications costs a single reload.
func (e *Editor) NotifyRampChanged() {
	e.pendingReload = true
}

// Tick performs at most one deferred reload. Hosts call it from their idle
// or frame loop.
func (e *Editor) Tick() {
	if !e.pendingReload {
		return
	}
	e.pendingReload = false
	e.reload()
}
