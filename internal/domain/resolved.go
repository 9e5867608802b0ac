package domain

// A StopRequest augmented with a geocoded coordinate. Every ResolvedStop
// traces back to exactly one StopRequest; a request that cannot be
// resolved yields no ResolvedStop and is reported as unresolved instead.
type ResolvedStop struct {
	Request    StopRequest
	Coordinate Coordinates
	Formatted  string
	Confidence float64
}

// A stop sequence proven to satisfy ordering, capacity and time-window
// invariants: pickup index precedes its matching delivery index, and the
// running load never goes negative or over the declared capacity at any
// prefix of the sequence. Ready for routing.
type ValidatedPlanInput struct {
	Stops       []ResolvedStop
	Constraints Constraints
}
