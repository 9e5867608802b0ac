package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"strings"

	"golang.org/x/sync/errgroup"
)

const defaultFanOutLimit = 4

// LocationResolver resolves free-text location references to coordinates.
// Distinct references are geocoded at most once per request and the
// per-reference calls run concurrently, bounded by FanOutLimit to respect
// upstream rate limits.
type LocationResolver struct {
	Provider ports.GeocodeProvider
	// Maximum number of concurrent geocoding calls. Zero means the default.
	FanOutLimit int
}

// Outcome of geocoding one distinct reference.
type refResolution struct {
	best      *ports.GeocodeCandidate
	transport bool
}

// normalizeReference produces the dedup key for a reference: lowercased
// with whitespace collapsed.
func normalizeReference(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Resolve geocodes every distinct reference in the intent and maps the
// results back onto the stop sequence. The second return value lists the
// stop requests whose reference could not be resolved; partial resolution
// is not an error. It fails with UPSTREAM_UNAVAILABLE only when the
// geocoding service was unreachable for every single reference.
func (r *LocationResolver) Resolve(ctx context.Context, intent domain.RouteIntent) ([]domain.ResolvedStop, []domain.StopRequest, error) {
	limit := r.FanOutLimit
	if limit <= 0 {
		limit = defaultFanOutLimit
	}

	// Distinct references in first-appearance order, keyed by normalized
	// text. The provider receives the original spelling of the first
	// appearance; normalization is only the dedup key, scoped to one
	// request.
	index := make(map[string]int)
	refs := make([]string, 0, len(intent.Stops))
	for _, stop := range intent.Stops {
		norm := normalizeReference(stop.Reference)
		if norm == "" {
			continue
		}
		if _, ok := index[norm]; ok {
			continue
		}
		index[norm] = len(refs)
		refs = append(refs, stop.Reference)
	}

	outcomes := make([]refResolution, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			candidates, err := r.Provider.Geocode(gctx, ref)
			if err != nil {
				// Individual failures become unresolved references; only
				// the all-failed case is promoted to an error below.
				outcomes[i] = refResolution{transport: true}
				return nil
			}
			outcomes[i] = refResolution{best: pickCandidate(candidates)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("resolve locations: %w", err)
	}

	if len(refs) > 0 {
		failed := 0
		for _, o := range outcomes {
			if o.transport {
				failed++
			}
		}
		if failed == len(refs) {
			return nil, nil, fmt.Errorf("resolve locations: %w",
				Unavailable("geocoding service unreachable for every reference", nil))
		}
	}

	resolved := make([]domain.ResolvedStop, 0, len(intent.Stops))
	unresolved := make([]domain.StopRequest, 0)
	for _, stop := range intent.Stops {
		norm := normalizeReference(stop.Reference)
		i, ok := index[norm]
		if !ok || outcomes[i].best == nil {
			unresolved = append(unresolved, stop)
			continue
		}

		best := outcomes[i].best
		resolved = append(resolved, domain.ResolvedStop{
			Request:    stop,
			Coordinate: best.Coordinate,
			Formatted:  best.Formatted,
			Confidence: best.Confidence,
		})
	}

	return resolved, unresolved, nil
}

// pickCandidate selects the highest-confidence candidate; ties keep the
// earlier one so provider order breaks them.
func pickCandidate(candidates []ports.GeocodeCandidate) *ports.GeocodeCandidate {
	var best *ports.GeocodeCandidate
	for i := range candidates {
		if best == nil || candidates[i].Confidence > best.Confidence {
			best = &candidates[i]
		}
	}
	return best
}
