package ramped

// ControlStyle selects the visual shape of a point control. Knot anchors are
// squares, tangent handles circles.
type ControlStyle int

const (
	StyleCircle ControlStyle = iota + 1
	StyleSquare
)

// Modifiers is the keyboard modifier state captured when a pointer press is
// forwarded to a control.
type Modifiers uint8

const (
	// ModExtendSelection adds the pressed knot to the selection instead of
	// replacing it.
	ModExtendSelection Modifiers = 1 << iota
	// ModBreakTangent detaches the two tangent handles for the duration of
	// the drag.
	ModBreakTangent
	// ModSmoothTangent re-couples the two tangent handles for the duration
	// of the drag.
	ModSmoothTangent
)

// DragObserver receives the interaction notifications of a [PointControl].
// [Knot] implements it for its anchor and handle controls.
type DragObserver interface {
	// StartMove is invoked once per drag gesture, before the first Move.
	StartMove(c *PointControl)
	// Move is invoked with the drag delta and the proposed new position,
	// before the position is committed. The observer may clamp the proposed
	// position in place.
	Move(c *PointControl, delta Vec2, pos *Point)
	// FinishMove is invoked on release. moved is false for a plain click.
	FinishMove(c *PointControl, moved bool)
	// Hover is invoked when the pointer enters or leaves the control.
	Hover(c *PointControl, state bool)
	// Select is invoked on press of a selectable control.
	Select(c *PointControl)
	// DoubleClick is invoked on double-click of the control.
	DoubleClick(c *PointControl)
}

// PointControl is a draggable, hoverable display-space handle. It has no
// curve semantics of its own; it reports gestures to its observer and lets
// the observer veto or clamp positions.
type PointControl struct {
	pos        Point
	radius     float64
	style      ControlStyle
	observer   DragObserver
	selectable bool

	hovered  bool
	selected bool

	// notify gates Move dispatch. It is enabled for the duration of a drag
	// gesture and suspended while the observer repositions controls
	// programmatically, so constraint propagation cannot re-enter the move
	// handler.
	notify     bool
	lastNotify bool

	dragging bool
	hasMoved bool
	mods     Modifiers
}

// NewPointControl returns a control at the given display-space position.
func NewPointControl(pos Point, radius float64, style ControlStyle) *PointControl {
	return &PointControl{
		pos:    pos,
		radius: radius,
		style:  style,
	}
}

// SetObserver attaches the observer receiving this control's notifications.
func (c *PointControl) SetObserver(o DragObserver) {
	c.observer = o
}

// SetSelectable marks the control as participating in selection.
func (c *PointControl) SetSelectable(selectable bool) {
	c.selectable = selectable
}

// Pos returns the control's display-space position.
func (c *PointControl) Pos() Point {
	return c.pos
}

// Radius returns the control's current radius, grown by [HoverScale] while
// hovered.
func (c *PointControl) Radius() float64 {
	if c.hovered {
		return c.radius * HoverScale
	}
	return c.radius
}

// Contains reports whether a display-space position falls inside the
// control's current hit area.
func (c *PointControl) Contains(pos Point) bool {
	return c.pos.Distance(pos) <= c.Radius()
}

func (c *PointControl) Style() ControlStyle { return c.style }
func (c *PointControl) Hovered() bool       { return c.hovered }
func (c *PointControl) Selected() bool      { return c.selected }

// Mods returns the modifier state captured at the start of the current
// gesture.
func (c *PointControl) Mods() Modifiers {
	return c.mods
}

// SetPos repositions the control. While notifications are live (mid-drag,
// not suspended) the observer's Move runs first and may adjust the position;
// programmatic repositioning outside a gesture commits silently.
func (c *PointControl) SetPos(pos Point) {
	if c.notify && c.observer != nil {
		c.observer.Move(c, pos.Sub(c.pos), &pos)
	}
	c.pos = pos
}

// suspendNotifications turns off Move dispatch, remembering the previous
// state for restoreNotifications.
func (c *PointControl) suspendNotifications() {
	c.lastNotify = c.notify
	c.notify = false
}

func (c *PointControl) restoreNotifications() {
	c.notify = c.lastNotify
}

// Press begins a drag gesture. mods is the keyboard state at press time.
func (c *PointControl) Press(mods Modifiers) {
	c.mods = mods
	c.dragging = true
	c.hasMoved = false
	c.notify = true
	c.lastNotify = true
	if c.selectable && c.observer != nil {
		c.observer.Select(c)
	}
}

// Drag proposes a new position for the control. The observer's StartMove
// runs before the first move of a gesture; Move may clamp the proposed
// position before it is committed.
func (c *PointControl) Drag(pos Point) {
	if !c.dragging {
		return
	}
	if c.notify && c.observer != nil {
		if !c.hasMoved {
			c.observer.StartMove(c)
		}
		c.observer.Move(c, pos.Sub(c.pos), &pos)
	}
	c.hasMoved = true
	c.pos = pos
}

// Release ends the gesture. A release with no intervening drag is reported
// as a plain click (moved == false); there is no cancel, every gesture
// commits.
func (c *PointControl) Release() {
	if !c.dragging {
		return
	}
	c.notify = false
	c.lastNotify = false
	if c.observer != nil {
		c.observer.FinishMove(c, c.hasMoved)
	}
	c.dragging = false
	c.hasMoved = false
	c.mods = 0
}

// DoubleClick forwards a double-click on the control.
func (c *PointControl) DoubleClick() {
	if c.observer != nil {
		c.observer.DoubleClick(c)
	}
}

// SetHovered updates the hover state and notifies the observer. Hover and
// selection are independent visual states.
func (c *PointControl) SetHovered(state bool) {
	if c.hovered == state {
		return
	}
	c.hovered = state
	if c.observer != nil {
		c.observer.Hover(c, state)
	}
}

func (c *PointControl) setSelected(selected bool) {
	c.selected = selected
}
