package ramped

import (
	"fmt"
	"math"
)

// KnotType governs how a knot's two tangent handles are coupled.
type KnotType int

const (
	// Smooth keeps the handles anti-parallel: dragging one rotates the
	// other to point exactly opposite, preserving its length.
	Smooth KnotType = iota + 1
	// Broken lets each handle move independently.
	Broken
	// Corner collapses both handles to zero length.
	Corner
)

func (t KnotType) String() string {
	switch t {
	case Smooth:
		return "Smooth"
	case Broken:
		return "Broken"
	case Corner:
		return "Corner"
	default:
		return fmt.Sprintf("KnotType(%d)", int(t))
	}
}

// HandleKind identifies one of a knot's two tangent handles.
type HandleKind int

const (
	HandleIn HandleKind = iota
	HandleOut
)

func (h HandleKind) opposite() HandleKind {
	if h == HandleIn {
		return HandleOut
	}
	return HandleIn
}

func (h HandleKind) String() string {
	if h == HandleIn {
		return "in"
	}
	return "out"
}

const (
	anchorRadius = 6
	handleRadius = 5
)

// Knot is one vertex of the piecewise curve: a curve-space anchor with up to
// two tangent handles. The first knot has no in-handle and the last knot no
// out-handle. Knot implements [DragObserver] for its three point controls and
// mirrors its curve-space state into display space, remapping explicitly
// after every interaction step.
type Knot struct {
	curve *Curve
	index int

	ktype KnotType

	position  Point // curve space
	inOffset  Vec2  // curve space, X <= 0
	outOffset Vec2  // curve space, X >= 0

	isFirst bool
	isLast  bool

	// limitHorizontally pins the anchor's x-coordinate to limitX (in curve
	// space); clamped mode uses it for the domain endpoints.
	limitHorizontally bool
	limitX            float64

	// clampByLine rescales an out-of-range handle along its original
	// direction instead of clipping the x-coordinate, avoiding handle
	// inversion.
	clampByLine bool

	anchor *PointControl
	in     *PointControl // nil for the first knot
	out    *PointControl // nil for the last knot

	displayPos    Point
	inDisplayPos  Point
	outDisplayPos Point
	inDisplayOff  Vec2
	outDisplayOff Vec2

	handlesVisible bool

	selected bool
	// clickedWhileSelected disambiguates select from re-click-to-isolate:
	// a click without drag on an already-selected knot collapses the
	// selection to just that knot on release.
	clickedWhileSelected bool
}

func newKnot(curve *Curve, index int, position Point, in, out *Vec2) *Knot {
	k := &Knot{
		curve:          curve,
		index:          index,
		ktype:          Smooth,
		position:       position,
		clampByLine:    true,
		handlesVisible: true,
	}

	k.anchor = NewPointControl(curve.MapToDisplay(position), anchorRadius, StyleSquare)
	k.anchor.SetSelectable(true)
	k.anchor.SetObserver(k)

	if in != nil {
		k.inOffset = *in
		k.in = NewPointControl(curve.MapToDisplay(position.Translate(*in)), handleRadius, StyleCircle)
		k.in.SetObserver(k)
	}
	if out != nil {
		k.outOffset = *out
		k.out = NewPointControl(curve.MapToDisplay(position.Translate(*out)), handleRadius, StyleCircle)
		k.out.SetObserver(k)
	}

	k.setDisplayPositions()
	return k
}

// Type returns the knot's tangent coupling mode.
func (k *Knot) Type() KnotType { return k.ktype }

// Position returns the knot's curve-space anchor position.
func (k *Knot) Position() Point { return k.position }

// InOffset returns the curve-space vector from the anchor to the in-handle.
// It is zero when the handle is absent.
func (k *Knot) InOffset() Vec2 { return k.inOffset }

// OutOffset returns the curve-space vector from the anchor to the
// out-handle. It is zero when the handle is absent.
func (k *Knot) OutOffset() Vec2 { return k.outOffset }

// Index returns the knot's position in the curve's knot sequence.
func (k *Knot) Index() int { return k.index }

func (k *Knot) IsFirst() bool  { return k.isFirst }
func (k *Knot) IsLast() bool   { return k.isLast }
func (k *Knot) Selected() bool { return k.selected }

// Anchor returns the knot's anchor control.
func (k *Knot) Anchor() *PointControl { return k.anchor }

// Handle returns the requested tangent handle control, or nil if the knot
// does not have it.
func (k *Knot) Handle(which HandleKind) *PointControl {
	if which == HandleIn {
		return k.in
	}
	return k.out
}

// HandlesVisible reports whether the tangent handles should be drawn.
// Corner knots hide theirs.
func (k *Knot) HandlesVisible() bool { return k.handlesVisible }

// SetType changes the tangent coupling mode.
//
// Switching to Corner zeroes both offsets and hides the handles. Switching
// back to Smooth rebuilds the offsets from the chord between the neighboring
// knots, so re-expanded handles approximate a smooth pass-through rather than
// restoring their prior lengths.
func (k *Knot) SetType(t KnotType) {
	switch {
	case t == Smooth && k.ktype != Smooth:
		prev := k.curve.prevKnot(k)
		next := k.curve.nextKnot(k)

		prevPos := k.position
		if prev != nil {
			prevPos = prev.position
		}
		nextPos := k.position
		if next != nil {
			nextPos = next.position
		}

		grad := nextPos.Sub(prevPos)
		if math.Abs(grad.X) < Epsilon {
			grad = Vec(1, 0)
		} else {
			grad = grad.Div(grad.X)
		}

		if prev != nil {
			prevOut := prev.position.Translate(prev.outOffset)
			ratio := 0.5 * (k.position.X - prevOut.X)
			k.inOffset = grad.Mul(ratio).Negate()
		}
		if next != nil {
			nextIn := next.position.Translate(next.inOffset)
			ratio := 0.5 * (nextIn.X - k.position.X)
			k.outOffset = grad.Mul(ratio)
		}

		k.handlesVisible = true
		k.setDisplayPositions()
		k.ktype = Smooth

	case t == Corner:
		k.handlesVisible = false
		k.inOffset = Vec2{}
		k.outOffset = Vec2{}
		k.setDisplayPositions()
		k.ktype = Corner

	default:
		k.ktype = t
	}
}

// handleDisplayOffset returns the display-space offset of the given handle.
func (k *Knot) handleDisplayOffset(which HandleKind) Vec2 {
	if which == HandleIn {
		return k.inDisplayOff
	}
	return k.outDisplayOff
}

func (k *Knot) setHandleDisplayOffset(which HandleKind, off Vec2) {
	if which == HandleIn {
		k.inDisplayOff = off
	} else {
		k.outDisplayOff = off
	}
}

func (k *Knot) syncHandleDisplayOffset(which HandleKind) {
	if which == HandleIn {
		k.inDisplayOff = k.inDisplayPos.Sub(k.displayPos)
	} else {
		k.outDisplayOff = k.outDisplayPos.Sub(k.displayPos)
	}
}

func (k *Knot) syncDisplayOffsets() {
	k.inDisplayOff = k.inDisplayPos.Sub(k.displayPos)
	k.outDisplayOff = k.outDisplayPos.Sub(k.displayPos)
}

func (k *Knot) setAnchorDisplayPos(pos Point) {
	k.anchor.SetPos(pos)
	k.displayPos = pos
}

// setHandleDisplayPos records a handle's display position. A missing handle
// has no drag target; its logical position is the anchor itself. With
// syncControl the point control is repositioned under suspended
// notifications so constraint propagation cannot re-enter the move handler.
func (k *Knot) setHandleDisplayPos(which HandleKind, pos Point, syncControl bool) {
	ctl := k.Handle(which)
	if ctl == nil {
		if which == HandleIn {
			k.inDisplayPos = k.displayPos
		} else {
			k.outDisplayPos = k.displayPos
		}
		return
	}
	if syncControl {
		ctl.suspendNotifications()
		ctl.SetPos(pos)
		ctl.restoreNotifications()
	}
	if which == HandleIn {
		k.inDisplayPos = pos
	} else {
		k.outDisplayPos = pos
	}
}

// setDisplayPositions projects the knot's curve-space state into display
// space.
func (k *Knot) setDisplayPositions() {
	k.setAnchorDisplayPos(k.curve.MapToDisplay(k.position))
	k.setHandleDisplayPos(HandleIn, k.curve.MapToDisplay(k.position.Translate(k.inOffset)), true)
	k.setHandleDisplayPos(HandleOut, k.curve.MapToDisplay(k.position.Translate(k.outOffset)), true)
	k.syncDisplayOffsets()
}

// remapFromDisplay rebuilds curve-space state from the display positions and
// offsets. Called when a drag gesture ends.
func (k *Knot) remapFromDisplay() {
	k.position = k.curve.MapToCurve(k.displayPos)
	k.inOffset = k.curve.mapVecToCurve(k.inDisplayOff)
	k.outOffset = k.curve.mapVecToCurve(k.outDisplayOff)
}

// remapFromControls rebuilds curve-space state from the control positions.
// Called on every interaction step so curve space is never stale for longer
// than one step.
func (k *Knot) remapFromControls() {
	kp := k.displayPos
	k.position = k.curve.MapToCurve(kp)
	k.inOffset = k.curve.mapVecToCurve(k.inDisplayPos.Sub(kp))
	k.outOffset = k.curve.mapVecToCurve(k.outDisplayPos.Sub(kp))
}

// constrainOutHandle clamps the out-handle against the next knot's in-handle
// (or the viewport edge) and the anchor, repositions the control, and
// returns the resolved position. When clampByLine is set an out-of-range
// handle is rescaled along its direction so the offset shrinks
// proportionally instead of snapping to the limit.
func (k *Knot) constrainOutHandle(knotPos Point) Point {
	if k.out == nil {
		k.setHandleDisplayPos(HandleOut, k.displayPos, true)
		return k.displayPos
	}

	rightLimit := k.curve.displayWidth
	if next := k.curve.nextKnot(k); next != nil && next.in != nil {
		rightLimit = next.in.Pos().X
	}

	desired := knotPos.Translate(k.outDisplayOff)
	if desired.X >= rightLimit {
		if k.clampByLine && math.Abs(k.outDisplayOff.X) > Epsilon {
			factor := (rightLimit - knotPos.X) / k.outDisplayOff.X
			desired = knotPos.Translate(k.outDisplayOff.Mul(factor))
			desired.X -= Epsilon
		} else {
			desired.X = rightLimit - Epsilon
		}
	}

	if leftLimit := k.displayPos.X; desired.X <= leftLimit+Epsilon {
		desired.X = leftLimit + Epsilon
	}

	k.setHandleDisplayPos(HandleOut, desired, true)
	return desired
}

// constrainInHandle is the mirror of constrainOutHandle for the in-handle.
func (k *Knot) constrainInHandle(knotPos Point) Point {
	if k.in == nil {
		k.setHandleDisplayPos(HandleIn, k.displayPos, true)
		return k.displayPos
	}

	leftLimit := 0.0
	if prev := k.curve.prevKnot(k); prev != nil && prev.out != nil {
		leftLimit = prev.out.Pos().X
	}

	desired := knotPos.Translate(k.inDisplayOff)
	if desired.X <= leftLimit {
		if k.clampByLine && math.Abs(k.inDisplayOff.X) > Epsilon {
			factor := -(knotPos.X - leftLimit) / k.inDisplayOff.X
			desired = knotPos.Translate(k.inDisplayOff.Mul(factor))
			desired.X += Epsilon
		} else {
			desired.X = leftLimit + Epsilon
		}
	}

	if rightLimit := k.displayPos.X; desired.X >= rightLimit-Epsilon {
		desired.X = rightLimit - Epsilon
	}

	k.setHandleDisplayPos(HandleIn, desired, true)
	return desired
}

func (k *Knot) constrainHandle(which HandleKind, knotPos Point) Point {
	if which == HandleIn {
		return k.constrainInHandle(knotPos)
	}
	return k.constrainOutHandle(knotPos)
}

// moveDisplay moves the anchor to pos, clamping against the neighboring
// knots' handles, the viewport edges, and the pinned x-coordinate, then
// re-resolves both handles. Returns the clamped position.
func (k *Knot) moveDisplay(pos Point) Point {
	k.displayPos = pos

	rightLimit := k.curve.displayWidth
	if next := k.curve.nextKnot(k); next != nil && next.in != nil {
		rightLimit = next.in.Pos().X
	}
	leftLimit := 0.0
	if prev := k.curve.prevKnot(k); prev != nil && prev.out != nil {
		leftLimit = prev.out.Pos().X
	}

	outOfLimits := false
	if pos.X >= rightLimit {
		outOfLimits = true
		pos.X = rightLimit - Epsilon
		if k.isLast {
			pos.X = rightLimit
		}
	}
	if pos.X <= leftLimit {
		outOfLimits = true
		pos.X = leftLimit + Epsilon
		if k.isFirst {
			pos.X = leftLimit
		}
	}
	if k.limitHorizontally {
		outOfLimits = true
		pos.X = k.limitX * k.curve.displayWidth
	}

	if outOfLimits {
		k.anchor.suspendNotifications()
		k.setAnchorDisplayPos(pos)
		k.anchor.restoreNotifications()
	} else {
		k.displayPos = pos
	}

	k.constrainOutHandle(pos)
	k.constrainInHandle(pos)
	return pos
}

// moveAnchor handles an anchor drag step: snap, clamp, translate the rest of
// the selection by the same resolved delta, and mirror the y-coordinate onto
// the opposite end knot when looping.
func (k *Knot) moveAnchor(pos *Point) {
	k.curve.snapPosition(pos)
	prev := k.displayPos
	*pos = k.moveDisplay(*pos)
	delta := pos.Sub(prev)

	if len(k.curve.selection) > 1 {
		for _, other := range k.curve.selection {
			if other == k {
				continue
			}
			target := other.moveDisplay(other.displayPos.Translate(delta))
			other.anchor.suspendNotifications()
			other.anchor.SetPos(target)
			other.anchor.restoreNotifications()
			other.remapFromControls()
		}
	}

	if k.curve.looping && (k.isFirst || k.isLast) {
		var seam *Knot
		if k.isFirst {
			seam = k.curve.lastKnot()
		} else {
			seam = k.curve.firstKnot()
		}
		if seam != nil && seam != k {
			target := seam.moveDisplay(Pt(seam.displayPos.X, pos.Y))
			seam.anchor.suspendNotifications()
			seam.anchor.SetPos(target)
			seam.anchor.restoreNotifications()
			seam.remapFromControls()
		}
	}

	k.pointsChanged()
}

// moveHandle handles a tangent-handle drag step: snap, constrain, and for
// Smooth knots rotate the opposite handle anti-parallel while preserving its
// length. When looping, the opposite handle of an end knot lives on the
// curve's other end, so the loop seam keeps one shared tangent.
func (k *Knot) moveHandle(which HandleKind, pos *Point) {
	k.curve.snapPosition(pos)

	k.setHandleDisplayPos(which, *pos, false)
	k.syncHandleDisplayOffset(which)
	moved := k.constrainHandle(which, k.displayPos)
	k.syncHandleDisplayOffset(which)
	*pos = moved

	opp := which.opposite()
	oppKnot := k
	if k.curve.looping {
		if k.isLast && which == HandleIn {
			oppKnot = k.curve.firstKnot()
		}
		if k.isFirst && which == HandleOut {
			oppKnot = k.curve.lastKnot()
		}
	}

	if oppKnot.Handle(opp) == nil || k.ktype != Smooth {
		k.pointsChanged()
		return
	}

	off := k.handleDisplayOffset(which)
	if off.Hypot() < Epsilon {
		// too short to define a direction
		k.pointsChanged()
		return
	}

	length := oppKnot.handleDisplayOffset(opp).Hypot()
	dir := off.Negate().Normalize()
	oppKnot.setHandleDisplayOffset(opp, dir.Mul(length))
	oppKnot.constrainHandle(opp, oppKnot.displayPos)

	k.pointsChanged()
	if oppKnot != k {
		oppKnot.pointsChanged()
	}
}

// finishDrag commits a drag gesture: remap the selection back into curve
// space, optionally auto-extend the viewport, and push the ramp to the host
// binding. A click without drag on an already-selected knot isolates the
// selection instead.
func (k *Knot) finishDrag(moved bool) {
	if moved {
		for _, kn := range k.curve.selection {
			kn.syncDisplayOffsets()
			kn.remapFromDisplay()
		}
		if vp := k.curve.viewport; vp != nil && vp.AutoExtend() {
			vp.ExtendViewport()
		}
		k.curve.commit()
		Logger().Debug("finish moving", "knot", k.index)
	} else if k.clickedWhileSelected {
		k.curve.SelectKnot(k)
	}
}

func (k *Knot) onSelected(mods Modifiers) {
	k.clickedWhileSelected = false
	if mods&ModExtendSelection != 0 {
		if !k.selected {
			k.curve.AddToSelection(k)
		} else if len(k.curve.selection) > 1 {
			k.curve.RemoveFromSelection(k)
		}
		return
	}
	if !k.selected {
		k.curve.SelectKnot(k)
	} else {
		k.clickedWhileSelected = true
	}
}

func (k *Knot) toggleCorner() {
	switch k.ktype {
	case Smooth, Broken:
		k.SetType(Corner)
	case Corner:
		k.SetType(Smooth)
	default:
		return
	}
	k.pointsChanged()
	k.curve.commit()
}

func (k *Knot) pointsChanged() {
	k.remapFromControls()
	k.curve.syncRamp()
	k.curve.rebuildShape()
}

// StartMove implements [DragObserver]. Dragging a handle with a tangent
// modifier held switches the coupling mode for the gesture.
func (k *Knot) StartMove(c *PointControl) {
	if c == k.anchor {
		return
	}
	switch {
	case c.Mods()&ModSmoothTangent != 0:
		k.ktype = Smooth
	case c.Mods()&ModBreakTangent != 0:
		k.ktype = Broken
	}
}

// Move implements [DragObserver].
func (k *Knot) Move(c *PointControl, delta Vec2, pos *Point) {
	switch c {
	case k.anchor:
		k.moveAnchor(pos)
	case k.in:
		k.moveHandle(HandleIn, pos)
	case k.out:
		k.moveHandle(HandleOut, pos)
	}
}

// FinishMove implements [DragObserver].
func (k *Knot) FinishMove(c *PointControl, moved bool) {
	k.finishDrag(moved)
}

// Hover implements [DragObserver].
func (k *Knot) Hover(c *PointControl, state bool) {
	if state {
		k.curve.hovered = c
	} else if k.curve.hovered == c {
		k.curve.hovered = nil
	}
}

// Select implements [DragObserver].
func (k *Knot) Select(c *PointControl) {
	if c == k.anchor {
		k.onSelected(c.Mods())
	}
}

// DoubleClick implements [DragObserver]. Double-clicking the anchor toggles
// between Corner and Smooth.
func (k *Knot) DoubleClick(c *PointControl) {
	if c == k.anchor {
		k.toggleCorner()
	}
}
