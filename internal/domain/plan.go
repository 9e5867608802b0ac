package domain

// A single visited point in a computed route, annotated with leg and
// cumulative travel metrics from the routing service. LegGeometry is the
// road-following polyline from the previous waypoint, empty when the
// routing service did not supply one.
type Waypoint struct {
	Reference                 string
	Action                    StopAction
	Coordinate                Coordinates
	LegDistanceMeters         int
	LegDurationSeconds        int
	CumulativeDistanceMeters  int
	CumulativeDurationSeconds int
	LegGeometry               []Coordinates
}

// The terminal artifact returned to the caller: an ordered, fully
// annotated path keyed to the originating command. A RoutePlan is never
// mutated after construction. Warnings carry non-fatal annotations such
// as tolerated unresolved references.
type RoutePlan struct {
	CommandID            string
	Waypoints            []Waypoint
	TotalDistanceMeters  int
	TotalDurationSeconds int
	Warnings             []string
}
