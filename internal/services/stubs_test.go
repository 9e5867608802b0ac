package services

import (
	"context"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"sync"
)

// Test doubles for the three outbound ports. The geocoder counts calls
// per normalized reference so deduplication is observable.

type stubReasoner struct {
	answer []byte
	err    error
	calls  int
}

func (s *stubReasoner) ExtractIntent(ctx context.Context, query string, userID string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

// stubGeocoder keys its fixtures by normalized reference, as the real
// adapter keys its cache, and records the raw spelling of every call.
type stubGeocoder struct {
	mu         sync.Mutex
	calls      map[string]int
	rawRefs    []string
	candidates map[string][]ports.GeocodeCandidate
	errs       map[string]error
}

func newStubGeocoder() *stubGeocoder {
	return &stubGeocoder{
		calls:      map[string]int{},
		candidates: map[string][]ports.GeocodeCandidate{},
		errs:       map[string]error{},
	}
}

func (s *stubGeocoder) Geocode(ctx context.Context, reference string) ([]ports.GeocodeCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := normalizeReference(reference)
	s.calls[norm]++
	s.rawRefs = append(s.rawRefs, reference)
	if err, ok := s.errs[norm]; ok {
		return nil, err
	}
	return s.candidates[norm], nil
}

func (s *stubGeocoder) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

type stubRouter struct {
	legs         []ports.RouteLeg
	err          error
	calls        int
	gotWaypoints []domain.Coordinates
	gotOpts      ports.RouteOptions
}

func (s *stubRouter) Route(ctx context.Context, waypoints []domain.Coordinates, opts ports.RouteOptions) ([]ports.RouteLeg, error) {
	s.calls++
	s.gotWaypoints = waypoints
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.legs, nil
}
