package navgraph

import "errors"

var (
	// ErrNoGraphData is returned when a feed decodes but carries no waypoints.
	ErrNoGraphData = errors.New("navgraph: feed contains no waypoints")

	errDegenerateRing = errors.New("navgraph: area polygon has no extent")
)
