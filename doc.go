// Package ramped implements an interactive editor engine for transfer
// curves built from piecewise cubic Bezier segments. It covers the drag and
// constraint logic for knots and their tangent handles, projection-based
// knot insertion, clamped and looping boundary policies, and conversion to
// and from a flat keyframe representation, leaving rendering and input
// collection to the embedding host.
package ramped
