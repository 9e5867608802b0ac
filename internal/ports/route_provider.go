package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Travel metrics for one leg between consecutive waypoints. Geometry is
// the road-following polyline for the leg; providers that cannot supply
// one leave it empty.
type RouteLeg struct {
	DistanceMeters  int
	DurationSeconds int
	Geometry        []domain.Coordinates
}

// Options forwarded to the routing service for one request.
// Reoptimize lets the service reorder the waypoint sequence; it defaults
// to off because the validated order must not be silently changed.
type RouteOptions struct {
	AvoidHighways bool
	Reoptimize    bool
}

// Port: a boundary to the external routing service.
type RouteProvider interface {
	// Connect the ordered waypoints by road and return one leg per hop
	// (len(legs) == len(waypoints)-1). Implementations preserve waypoint
	// order unless opts.Reoptimize is set and the service supports it.
	Route(ctx context.Context, waypoints []domain.Coordinates, opts RouteOptions) ([]RouteLeg, error)
}
