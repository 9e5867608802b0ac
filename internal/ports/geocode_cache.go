package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Port: a persistent cache mapping normalized location references to
// coordinates, consulted by geocoding adapters before calling the
// external service. Keys are expected to be normalized by the caller.
type GeocodeCache interface {
	// Fetch cached coordinates for the given references. References with
	// no cached entry are simply absent from the result.
	GetMany(ctx context.Context, references []string) (map[string]domain.Coordinates, error)
	// Store reference -> coordinate mappings.
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
