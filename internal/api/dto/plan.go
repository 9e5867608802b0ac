package dto

type PlanRouteRequest struct {
	Command string `json:"command"`
	UserID  string `json:"user_id"`
	Locale  string `json:"locale"`
}

type WaypointResponse struct {
	Reference                 string  `json:"reference"`
	Action                    string  `json:"action"`
	Lon                       float64 `json:"lon"`
	Lat                       float64 `json:"lat"`
	LegDistanceMeters         int     `json:"leg_distance_meters"`
	LegDurationSeconds        int     `json:"leg_duration_seconds"`
	CumulativeDistanceMeters  int     `json:"cumulative_distance_meters"`
	CumulativeDurationSeconds int     `json:"cumulative_duration_seconds"`
	// Road polyline from the previous waypoint as [lon, lat] pairs.
	LegGeometry [][2]float64 `json:"leg_geometry,omitempty"`
}

type RoutePlanResponse struct {
	CommandID            string             `json:"command_id"`
	Waypoints            []WaypointResponse `json:"waypoints"`
	TotalDistanceMeters  int                `json:"total_distance_meters"`
	TotalDurationSeconds int                `json:"total_duration_seconds"`
	Warnings             []string           `json:"warnings,omitempty"`
}
