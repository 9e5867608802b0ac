package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"strings"
)

type routingResponse struct {
	Features []struct {
		Properties struct {
			Legs []struct {
				Distance float64 `json:"distance"`
				Time     float64 `json:"time"`
			} `json:"legs"`
		} `json:"properties"`
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// legGeometries decodes the feature geometry into one polyline per leg.
// The routing API answers with a MultiLineString holding one linestring
// per hop; anything else (or a count mismatch) yields no geometry, since
// geometry is decoration on top of the leg metrics.
func legGeometries(geomType string, raw json.RawMessage, legCount int) [][]domain.Coordinates {
	if geomType != "MultiLineString" || len(raw) == 0 {
		return nil
	}

	var lines [][][]float64
	if err := json.Unmarshal(raw, &lines); err != nil || len(lines) != legCount {
		return nil
	}

	out := make([][]domain.Coordinates, legCount)
	for i, line := range lines {
		polyline := make([]domain.Coordinates, 0, len(line))
		for _, pt := range line {
			if len(pt) < 2 {
				return nil
			}
			polyline = append(polyline, domain.Coordinates{Lon: pt[0], Lat: pt[1]})
		}
		out[i] = polyline
	}
	return out
}

// Route connects the ordered waypoints using the Geoapify routing API
// (/v1/routing) and returns one leg of travel metrics per hop. The
// waypoint order is always preserved: the plain routing API has no
// sequence re-optimization, so a request with Reoptimize set is rejected
// rather than silently honored with the original order.
func (g *GeoapifyClient) Route(ctx context.Context, waypoints []domain.Coordinates, opts ports.RouteOptions) (_ []ports.RouteLeg, err error) {
	defer obs.Time(ctx, "geoapify.Route")(&err)

	if len(waypoints) < 2 {
		return []ports.RouteLeg{}, nil
	}

	if opts.Reoptimize {
		return nil, fmt.Errorf("geoapify route: %w",
			services.RoutingFailure("route re-optimization is not supported by this provider", nil))
	}

	parts := make([]string, 0, len(waypoints))
	for _, w := range waypoints {
		parts = append(parts, fmt.Sprintf("lonlat:%f,%f", w.Lon, w.Lat))
	}

	req, err := g.newRequest(ctx, g.baseURL+"/v1/routing")
	if err != nil {
		return nil, fmt.Errorf("geoapify route: %w", err)
	}
	q := req.URL.Query()
	q.Set("waypoints", strings.Join(parts, "|"))
	q.Set("mode", g.mode)
	q.Set("details", "route_details")
	if opts.AvoidHighways {
		q.Set("avoid", "highways")
	}
	req.URL.RawQuery = q.Encode()

	resp, err := g.do(req)
	if err != nil {
		// A 400 from the routing API means the waypoints themselves are
		// unroutable (no road path), which is a property of the request.
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("geoapify route: %w",
				services.RoutingFailure("no road path connects the requested stops", err))
		}
		return nil, fmt.Errorf("geoapify route: %w",
			services.Unavailable("routing service call failed", err))
	}
	defer resp.Body.Close()

	var decoded routingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("geoapify route: %w",
			services.Unavailable("routing response is not valid JSON", err))
	}

	if len(decoded.Features) == 0 {
		return nil, fmt.Errorf("geoapify route: %w",
			services.RoutingFailure("routing service returned no route", nil))
	}

	feature := decoded.Features[0]
	rawLegs := feature.Properties.Legs
	geometries := legGeometries(feature.Geometry.Type, feature.Geometry.Coordinates, len(rawLegs))

	legs := make([]ports.RouteLeg, 0, len(rawLegs))
	for i, l := range rawLegs {
		leg := ports.RouteLeg{
			DistanceMeters:  int(math.Round(l.Distance)),
			DurationSeconds: int(math.Round(l.Time)),
		}
		if geometries != nil {
			leg.Geometry = geometries[i]
		}
		legs = append(legs, leg)
	}

	return legs, nil
}
