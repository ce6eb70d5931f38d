package ramped

const (
	// Epsilon is the minimum handle length and segment gap, in both curve
	// space and display space. Rescale divisions are guarded with it so
	// degenerate tangents cannot blow up.
	Epsilon = 1e-4

	// ShapeSteps is the sampling resolution of the filled curve silhouette
	// across the domain.
	ShapeSteps = 100

	// RampSampleSteps is the parameter search resolution used by ramp
	// evaluation and knot insertion.
	RampSampleSteps = 50

	// SnapDistance is the distance, in display units, within which a dragged
	// position snaps to a grid line.
	SnapDistance = 8.0

	// DefaultGridStep is the grid spacing in curve space.
	DefaultGridStep = 0.1

	// HoverScale is the factor by which a hovered control grows.
	HoverScale = 1.2
)
