package gesture

// Release thresholds. Vertical distances are percent of viewport height,
// velocities percent of viewport height per millisecond (upward positive).
const (
	DockThreshold   = 2.5
	CommitThreshold = 25.0
	FlickVelocity   = 0.4
	SwipeThreshold  = 50.0 // px
	SlopPx          = 10.0
	VelocityWindow  = 5
	DefaultDotPitch = 20.0 // px, dot width plus gap
)
