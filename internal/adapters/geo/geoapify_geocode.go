package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
)

type geocodeResponse struct {
	Features []struct {
		Properties struct {
			Lon       float64 `json:"lon"`
			Lat       float64 `json:"lat"`
			Formatted string  `json:"formatted"`
			Rank      struct {
				Confidence float64 `json:"confidence"`
			} `json:"rank"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves one reference to candidate coordinates using the
// Geoapify geocoding API (/v1/geocode/search). A cache hit returns the
// previously stored winning coordinate without an external call. An empty
// candidate list is not an error; it means the reference is unknown.
func (g *GeoapifyClient) Geocode(ctx context.Context, reference string) (_ []ports.GeocodeCandidate, err error) {
	defer obs.Time(ctx, "geoapify.Geocode")(&err)

	norm := normalize(reference)
	if norm == "" {
		return nil, errors.New("geoapify geocode: reference must be non-empty")
	}

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Printf("geocode cache read failed: %v", err)
		} else if coord, ok := hits[norm]; ok {
			return []ports.GeocodeCandidate{{
				Coordinate: coord,
				Formatted:  reference,
				Confidence: 1,
			}}, nil
		}
	}

	req, err := g.newRequest(ctx, g.baseURL+"/v1/geocode/search")
	if err != nil {
		return nil, fmt.Errorf("geoapify geocode: %w", err)
	}
	q := req.URL.Query()
	q.Set("text", norm)
	q.Set("limit", "5")
	req.URL.RawQuery = q.Encode()

	resp, err := g.do(req)
	if err != nil {
		return nil, fmt.Errorf("geoapify geocode %q: %w", norm,
			services.Unavailable("geocoding service call failed", err))
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("geoapify geocode %q: %w", norm,
			services.Unavailable("geocoding response is not valid JSON", err))
	}

	candidates := make([]ports.GeocodeCandidate, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		candidates = append(candidates, ports.GeocodeCandidate{
			Coordinate: domain.Coordinates{Lon: f.Properties.Lon, Lat: f.Properties.Lat},
			Formatted:  f.Properties.Formatted,
			Confidence: f.Properties.Rank.Confidence,
		})
	}

	// Cache the winning candidate under the normalized key, using the
	// same selection rule as the resolver (highest confidence, ties by
	// provider order) so cached answers match fresh ones.
	if g.cache != nil && len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Confidence > best.Confidence {
				best = c
			}
		}
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: best.Coordinate}); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return candidates, nil
}
