package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// A single geocoding candidate with the provider's confidence score.
type GeocodeCandidate struct {
	Coordinate domain.Coordinates
	Formatted  string
	Confidence float64
}

// Port: a boundary for resolving free-text location references to
// coordinate candidates.
type GeocodeProvider interface {
	// Return candidate coordinates for one reference, in provider order.
	// An empty slice means the reference is unknown to the provider.
	Geocode(ctx context.Context, reference string) ([]GeocodeCandidate, error)
}
