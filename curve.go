package ramped

import (
	"math"
	"slices"
	"sort"
)

// Viewport is the curve-facing contract of the editor/viewport coordinator:
// grid snapping of proposed drag positions and the auto-extend policy.
type Viewport interface {
	// SnapPosition snaps a proposed display-space position in place.
	SnapPosition(pos *Point)
	// AutoExtend reports whether the viewport should grow after a drag.
	AutoExtend() bool
	// ExtendViewport grows the vertical range to cover the curve.
	ExtendViewport()
}

// Binding is the host parameter the curve persists to. The engine's
// in-memory state stays authoritative: a failed commit is logged, not rolled
// back.
type Binding interface {
	// Ramp returns the host's current keyframe representation.
	Ramp() (Ramp, error)
	// SetRamp commits a keyframe representation to the host.
	SetRamp(Ramp) error
}

// ChangeObserver is notified after every curve change, once the drawable
// primitives are up to date.
type ChangeObserver interface {
	CurveChanged()
}

// Drawables is the set of visual primitives the rendering collaborator
// draws: the filled curve silhouette, the knot and handle point controls,
// and the dashed tangent lines connecting anchors to handles. Everything is
// in display space.
type Drawables struct {
	Silhouette  BezPath
	Controls    []*PointControl
	HandleLines []Line
}

// shapeOverscan extends the silhouette past the horizontal viewport edges so
// the fill has no visible seams.
const shapeOverscan = 100.0

// Curve owns the ordered knot sequence and everything that operates on it as
// a whole: coordinate mapping, vertical borders, insertion by projection,
// the clamped/looping boundary policy, and conversion to and from the
// portable keyframe representation. A curve is never empty; a new one
// carries the default two-knot shape.
type Curve struct {
	knots []*Knot

	bottomBorder  float64
	topBorder     float64
	verticalRatio float64

	displayWidth  float64
	displayHeight float64

	minY float64
	maxY float64

	selection []*Knot
	hovered   *PointControl

	clamped bool
	looping bool

	ramp  Ramp
	shape BezPath

	binding  Binding
	viewport Viewport
	observer ChangeObserver
}

// NewCurve returns a curve holding the default two-knot diagonal shape.
func NewCurve() *Curve {
	c := &Curve{
		topBorder:     1,
		verticalRatio: 1,
		maxY:          1,
		displayWidth:  1,
		displayHeight: 1,
	}
	third := Vec(1.0/3.0, 1.0/3.0)
	in := third.Negate()
	c.AddKnot(Pt(0, 0), nil, &third, -1)
	c.AddKnot(Pt(1, 1), &in, nil, -1)
	c.syncRamp()
	c.rebuildShape()
	return c
}

// SetBinding attaches the host parameter binding.
func (c *Curve) SetBinding(b Binding) { c.binding = b }

// SetViewport attaches the editor/viewport coordinator.
func (c *Curve) SetViewport(v Viewport) { c.viewport = v }

// SetObserver attaches the change observer.
func (c *Curve) SetObserver(o ChangeObserver) { c.observer = o }

// Len returns the number of knots.
func (c *Curve) Len() int { return len(c.knots) }

// Knot returns the i-th knot in domain order.
func (c *Curve) Knot(i int) *Knot { return c.knots[i] }

// Knots returns the knots in domain order. The slice is shared; treat it as
// read-only.
func (c *Curve) Knots() []*Knot { return c.knots }

// Selection returns the currently selected knots.
func (c *Curve) Selection() []*Knot { return c.selection }

// HoveredControl returns the control under the pointer, if any.
func (c *Curve) HoveredControl() *PointControl { return c.hovered }

// Clamped reports whether the first and last knots are pinned to the domain
// extremes.
func (c *Curve) Clamped() bool { return c.clamped }

// Looping reports whether the curve's ends are kept value- and
// tangent-continuous.
func (c *Curve) Looping() bool { return c.looping }

// Borders returns the semantic vertical display range.
func (c *Curve) Borders() (bottom, top float64) {
	return c.bottomBorder, c.topBorder
}

// MinY and MaxY bound the values of all keys, recomputed on every ramp
// rebuild.
func (c *Curve) MinY() float64 { return c.minY }
func (c *Curve) MaxY() float64 { return c.maxY }

func (c *Curve) displayTransform() Affine {
	return Scale(c.displayWidth, c.displayHeight/c.verticalRatio)
}

// MapToDisplay maps a curve-space point into display space.
func (c *Curve) MapToDisplay(p Point) Point {
	return p.Transform(c.displayTransform())
}

// MapToCurve maps a display-space point into curve space.
func (c *Curve) MapToCurve(p Point) Point {
	return p.Transform(c.displayTransform().Invert())
}

func (c *Curve) mapVecToCurve(v Vec2) Vec2 {
	return c.displayTransform().Invert().TransformVec(v)
}

// SetDisplaySize updates the display-space viewport dimensions and
// reprojects every knot and the silhouette. Zero or negative dimensions are
// ignored.
func (c *Curve) SetDisplaySize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.displayWidth = width
	c.displayHeight = height
	c.resetDisplayPositions()
	c.rebuildShape()
}

// DisplaySize returns the display-space viewport dimensions.
func (c *Curve) DisplaySize() (width, height float64) {
	return c.displayWidth, c.displayHeight
}

// SetBorders sets the semantic vertical display range. An inverted or
// collapsed range is auto-corrected to one unit of height. Every knot is
// reprojected since the vertical ratio changed.
func (c *Curve) SetBorders(bottom, top float64) {
	if top-bottom < Epsilon {
		top = bottom + 1
	}
	c.bottomBorder = bottom
	c.topBorder = top
	c.verticalRatio = top - bottom
	Logger().Debug("set curve borders", "bottom", bottom, "top", top, "ratio", c.verticalRatio)
	c.resetDisplayPositions()
	c.rebuildShape()
}

func (c *Curve) nextKnot(k *Knot) *Knot {
	if k.index < len(c.knots)-1 {
		return c.knots[k.index+1]
	}
	return nil
}

func (c *Curve) prevKnot(k *Knot) *Knot {
	if k.index > 0 {
		return c.knots[k.index-1]
	}
	return nil
}

func (c *Curve) firstKnot() *Knot {
	if len(c.knots) == 0 {
		return nil
	}
	return c.knots[0]
}

func (c *Curve) lastKnot() *Knot {
	if len(c.knots) == 0 {
		return nil
	}
	return c.knots[len(c.knots)-1]
}

// AddKnot creates a knot and inserts it at insertIndex, or appends it when
// insertIndex is negative. A nil in or out offset means the knot has no
// handle on that side.
func (c *Curve) AddKnot(position Point, in, out *Vec2, insertIndex int) *Knot {
	k := newKnot(c, len(c.knots), position, in, out)
	if insertIndex < 0 {
		c.knots = append(c.knots, k)
	} else {
		c.knots = slices.Insert(c.knots, insertIndex, k)
	}
	c.reindexKnots()
	return k
}

// RemoveKnot removes the interior knot at index i. The end knots and the
// two-knot minimum are preserved; removing them reports false.
func (c *Curve) RemoveKnot(i int) bool {
	if i <= 0 || i >= len(c.knots)-1 || len(c.knots) <= 2 {
		return false
	}
	k := c.knots[i]
	if k.selected {
		c.RemoveFromSelection(k)
	}
	if c.hovered == k.anchor || c.hovered == k.in || c.hovered == k.out {
		c.hovered = nil
	}
	c.knots = slices.Delete(c.knots, i, i+1)
	c.reindexKnots()
	c.resetDisplayPositions()
	c.syncRamp()
	c.rebuildShape()
	c.commit()
	return true
}

func (c *Curve) reindexKnots() {
	for i, k := range c.knots {
		k.index = i
		k.isFirst = i == 0
		k.isLast = i == len(c.knots)-1
	}
}

func (c *Curve) resetDisplayPositions() {
	for _, k := range c.knots {
		k.setDisplayPositions()
	}
}

func (c *Curve) snapPosition(pos *Point) {
	if c.viewport != nil {
		c.viewport.SnapPosition(pos)
	}
}

// SelectKnot makes k the sole selected knot.
func (c *Curve) SelectKnot(k *Knot) {
	for _, kn := range c.knots {
		kn.selected = false
		kn.anchor.setSelected(false)
	}
	k.selected = true
	k.anchor.setSelected(true)
	c.selection = []*Knot{k}
}

// AddToSelection adds k to the selection.
func (c *Curve) AddToSelection(k *Knot) {
	if k.selected {
		return
	}
	k.selected = true
	k.anchor.setSelected(true)
	c.selection = append(c.selection, k)
}

// RemoveFromSelection removes k from the selection.
func (c *Curve) RemoveFromSelection(k *Knot) {
	k.selected = false
	k.anchor.setSelected(false)
	c.selection = slices.DeleteFunc(c.selection, func(kn *Knot) bool { return kn == k })
}

// ClearSelection deselects every knot.
func (c *Curve) ClearSelection() {
	for _, kn := range c.selection {
		kn.selected = false
		kn.anchor.setSelected(false)
	}
	c.selection = nil
}

// syncRamp rebuilds the cached keyframe representation and the value
// bounds.
func (c *Curve) syncRamp() {
	c.ramp = c.buildRamp()
}

func (c *Curve) buildRamp() Ramp {
	keys := make([]float64, 0, 3*len(c.knots)-2)
	values := make([]float64, 0, cap(keys))

	c.minY = 0.0
	c.maxY = 1.0
	see := func(y float64) {
		if y < c.minY {
			c.minY = y
		}
		if y > c.maxY {
			c.maxY = y
		}
	}

	for _, k := range c.knots {
		if k.in != nil {
			pos := k.position.Translate(k.inOffset)
			keys = append(keys, pos.X)
			values = append(values, pos.Y)
			see(pos.Y)
		}

		keys = append(keys, k.position.X)
		values = append(values, k.position.Y)
		see(k.position.Y)

		if k.out != nil {
			pos := k.position.Translate(k.outOffset)
			keys = append(keys, pos.X)
			values = append(values, pos.Y)
			see(pos.Y)
		}
	}

	return BezierRamp(keys, values)
}

// ToRamp returns the curve's portable keyframe representation.
func (c *Curve) ToRamp() Ramp {
	return c.buildRamp()
}

// commit pushes the current keyframe representation to the host binding.
// The in-memory curve stays the source of truth if the host rejects it.
func (c *Curve) commit() {
	if c.binding == nil {
		return
	}
	if err := c.binding.SetRamp(c.ramp); err != nil {
		Logger().Warn("host binding rejected ramp", "err", err)
	}
}

// LoadRamp replaces the curve's knots with the contents of a keyframe
// representation. Knot types are reconstructed from the handle geometry. An
// unsupported ramp is rejected with the curve left untouched, so the caller
// can offer a fallback such as [DefaultRamp].
func (c *Curve) LoadRamp(r Ramp) error {
	if err := r.Validate(); err != nil {
		return err
	}
	basis, _ := r.Basis()

	c.knots = nil
	c.selection = nil
	c.hovered = nil

	switch basis {
	case BasisLinear:
		c.loadLinear(r)
	default:
		c.loadBezier(r)
	}

	c.reindexKnots()
	if c.clamped {
		// re-pin without writing the freshly read ramp back to the host
		c.pinEndKnots()
	}
	c.resetDisplayPositions()
	c.syncRamp()
	c.rebuildShape()
	Logger().Debug("loaded ramp", "basis", basis, "knots", len(c.knots))
	return nil
}

func (c *Curve) loadLinear(r Ramp) {
	var zeroIn, zeroOut Vec2
	for i := range r.Keys {
		pos := Pt(r.Keys[i], r.Values[i])
		var in, out *Vec2
		if i > 0 {
			in = &zeroIn
		}
		if i < len(r.Keys)-1 {
			out = &zeroOut
		}
		k := c.AddKnot(pos, in, out, -1)
		k.SetType(Corner)
	}
}

func (c *Curve) loadBezier(r Ramp) {
	numKnots := r.NumKnots()
	for i := 0; i < numKnots; i++ {
		switch {
		case i == 0:
			pos := Pt(r.Keys[0], r.Values[0])
			out := Pt(r.Keys[1], r.Values[1]).Sub(pos)
			c.AddKnot(pos, nil, &out, -1)
		case i == numKnots-1:
			idx := i * 3
			pos := Pt(r.Keys[idx], r.Values[idx])
			in := Pt(r.Keys[idx-1], r.Values[idx-1]).Sub(pos)
			c.AddKnot(pos, &in, nil, -1)
		default:
			idx := i * 3
			pos := Pt(r.Keys[idx], r.Values[idx])
			in := Pt(r.Keys[idx-1], r.Values[idx-1]).Sub(pos)
			out := Pt(r.Keys[idx+1], r.Values[idx+1]).Sub(pos)
			c.AddKnot(pos, &in, &out, -1)
		}
	}
	for _, k := range c.knots {
		k.SetType(detectKnotType(k))
	}
}

// detectKnotType reconstructs a knot's tangent coupling mode from its handle
// geometry: zero-length handles make a Corner, anti-parallel handles a
// Smooth knot, anything else Broken. A lone nonzero end handle counts as
// Smooth.
func detectKnotType(k *Knot) KnotType {
	inLen := k.inOffset.Hypot()
	outLen := k.outOffset.Hypot()
	hasIn := k.in != nil && inLen >= Epsilon
	hasOut := k.out != nil && outLen >= Epsilon

	switch {
	case !hasIn && !hasOut:
		return Corner
	case hasIn != hasOut:
		return Smooth
	}

	in := k.inOffset.Div(inLen)
	out := k.outOffset.Div(outLen)
	if math.Abs(in.Cross(out)) < 1e-6 && in.Dot(out) < 0 {
		return Smooth
	}
	return Broken
}

// knotIndicesFromPos returns the indices of the knots bracketing the domain
// position, or (-1, -1) if it falls outside every segment.
func (c *Curve) knotIndicesFromPos(pos float64) (int, int) {
	for i := 0; i < len(c.knots)-1; i++ {
		left := c.knots[i].position.X
		right := c.knots[i+1].position.X
		if left <= pos && right > pos {
			return i, i + 1
		}
	}
	return -1, -1
}

// AddKnotAt inserts a new knot at the given domain position by projecting it
// onto the existing segment. The segment parameter is found by fixed-step
// sampling, the new handles come from de Casteljau subdivision at that
// parameter, and the anchor's value comes from the keyframe representation,
// which is the authoritative value source. The bracketing knots' facing
// offsets shrink by the subdivision factor, floored at epsilon. Returns nil
// when pos lies outside every segment.
func (c *Curve) AddKnotAt(pos float64) *Knot {
	left, right := c.knotIndicesFromPos(pos)
	if left < 0 {
		return nil
	}
	lk, rk := c.knots[left], c.knots[right]

	seg := CubicBez{
		lk.position,
		lk.position.Translate(lk.outOffset),
		rk.position.Translate(rk.inOffset),
		rk.position,
	}
	u := seg.solveForX(pos, RampSampleSteps)
	lhalf, rhalf := seg.Split(u)

	anchor := Pt(pos, c.ramp.Lookup(pos))
	in := floorInOffset(lhalf.P2.Sub(lhalf.P3))
	out := floorOutOffset(rhalf.P1.Sub(rhalf.P0))

	lk.outOffset = floorOutOffset(lk.outOffset.Mul(u))
	rk.inOffset = floorInOffset(rk.inOffset.Mul(1 - u))

	k := c.AddKnot(anchor, &in, &out, right)

	c.resetDisplayPositions()
	c.syncRamp()
	c.rebuildShape()
	c.commit()
	Logger().Debug("inserted knot", "pos", pos, "u", u, "index", k.index)
	return k
}

// floorOutOffset keeps an out-offset on the right side of its anchor with at
// least epsilon length along the domain axis.
func floorOutOffset(v Vec2) Vec2 {
	if v.X < Epsilon {
		v.X = Epsilon
	}
	return v
}

// floorInOffset keeps an in-offset on the left side of its anchor with at
// least epsilon length along the domain axis.
func floorInOffset(v Vec2) Vec2 {
	if v.X > -Epsilon {
		v.X = -Epsilon
	}
	return v
}

// SetClamped pins or unpins the end knots to the domain extremes. Disabling
// clamped mode also disables looping, which depends on it.
func (c *Curve) SetClamped(clamped bool) {
	first, last := c.firstKnot(), c.lastKnot()
	if first == nil || last == nil {
		return
	}
	c.clamped = clamped
	if clamped {
		c.pinEndKnots()
		c.syncRamp()
		c.rebuildShape()
		c.commit()
		return
	}
	first.limitHorizontally = false
	last.limitHorizontally = false
	if c.looping {
		c.SetLooped(false)
	}
}

// pinEndKnots moves the end knots onto the domain extremes and pins their
// x-coordinates there.
func (c *Curve) pinEndKnots() {
	first, last := c.firstKnot(), c.lastKnot()
	first.limitHorizontally, first.limitX = true, 0
	last.limitHorizontally, last.limitX = true, 1
	first.position.X = 0
	last.position.X = 1
	first.setDisplayPositions()
	last.setDisplayPositions()
}

// SetLooped makes the curve's ends value-continuous for cyclic use. Looping
// requires clamped endpoints, so enabling it forces clamped mode first; the
// last knot takes the first knot's value and its in-handle is re-aimed
// anti-parallel to the first knot's out-handle, seeding one shared smooth
// tangent across the seam.
func (c *Curve) SetLooped(looped bool) {
	if !looped {
		c.looping = false
		return
	}
	if !c.clamped {
		c.SetClamped(true)
	}
	c.looping = true

	first, last := c.firstKnot(), c.lastKnot()
	if first == nil || last == nil || first == last {
		return
	}
	last.position.Y = first.position.Y
	if first.out != nil && last.in != nil && first.outOffset.Hypot() >= Epsilon {
		dir := first.outOffset.Negate().Normalize()
		last.inOffset = dir.Mul(last.inOffset.Hypot())
	}
	last.setDisplayPositions()
	c.syncRamp()
	c.rebuildShape()
	c.commit()
}

// rebuildShape resamples the filled curve silhouette. The domain is sampled
// at [ShapeSteps] resolution with extra samples snapped exactly onto each
// knot's x-coordinate, so corners stay sharp instead of being interpolated
// away.
func (c *Curve) rebuildShape() {
	xs := make([]float64, 0, ShapeSteps+1+len(c.knots))
	for i := 0; i <= ShapeSteps; i++ {
		xs = append(xs, float64(i)/ShapeSteps)
	}
	for _, k := range c.knots {
		if k.position.X > 0 && k.position.X < 1 {
			xs = append(xs, k.position.X)
		}
	}
	sort.Float64s(xs)

	var path BezPath
	path.MoveTo(Pt(-shapeOverscan, 0))
	prev := math.Inf(-1)
	for _, x := range xs {
		if x-prev < Epsilon {
			continue
		}
		prev = x
		path.LineTo(c.MapToDisplay(Pt(x, c.ramp.Lookup(x))))
	}
	path.LineTo(Pt(c.displayWidth+shapeOverscan, 0))
	path.ClosePath()
	c.shape = path

	if c.observer != nil {
		c.observer.CurveChanged()
	}
}

// Silhouette returns the current filled silhouette path, in display space.
func (c *Curve) Silhouette() BezPath {
	return c.shape.Clone()
}

// ControlAt returns the control under the display-space position, for hosts
// routing pointer events. Handles win over anchors and later knots over
// earlier ones, matching the draw order. Returns nil when the position hits
// nothing.
func (c *Curve) ControlAt(pos Point) *PointControl {
	for i := len(c.knots) - 1; i >= 0; i-- {
		k := c.knots[i]
		if k.handlesVisible {
			if k.in != nil && k.in.Contains(pos) {
				return k.in
			}
			if k.out != nil && k.out.Contains(pos) {
				return k.out
			}
		}
		if k.anchor.Contains(pos) {
			return k.anchor
		}
	}
	return nil
}

// Drawables collects the current visual primitives for the rendering
// collaborator.
func (c *Curve) Drawables() Drawables {
	d := Drawables{Silhouette: c.shape.Clone()}
	for _, k := range c.knots {
		d.Controls = append(d.Controls, k.anchor)
		if !k.handlesVisible {
			continue
		}
		if k.in != nil {
			d.Controls = append(d.Controls, k.in)
			d.HandleLines = append(d.HandleLines, Line{k.displayPos, k.inDisplayPos})
		}
		if k.out != nil {
			d.Controls = append(d.Controls, k.out)
			d.HandleLines = append(d.HandleLines, Line{k.displayPos, k.outDisplayPos})
		}
	}
	return d
}
