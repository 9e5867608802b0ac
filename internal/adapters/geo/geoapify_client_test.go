package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"testing"
	"time"
)

type fakeCache struct {
	store map[string]domain.Coordinates
	puts  map[string]domain.Coordinates
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		store: map[string]domain.Coordinates{},
		puts:  map[string]domain.Coordinates{},
	}
}

func (f *fakeCache) GetMany(ctx context.Context, references []string) (map[string]domain.Coordinates, error) {
	out := map[string]domain.Coordinates{}
	for _, ref := range references {
		if c, ok := f.store[ref]; ok {
			out[ref] = c
		}
	}
	return out, nil
}

func (f *fakeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	for ref, c := range results {
		f.store[ref] = c
		f.puts[ref] = c
	}
	return nil
}

func newTestClient(t *testing.T, cache ports.GeocodeCache, handler http.HandlerFunc) (*GeoapifyClient, *int) {
	t.Helper()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewGeoapifyClient("test-key", cache, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = srv.URL
	return client, &calls
}

const geocodeBody = `{
	"features": [
		{"properties": {"lon": 103.8, "lat": 1.28, "formatted": "Warehouse A, Singapore", "rank": {"confidence": 0.95}}},
		{"properties": {"lon": 103.9, "lat": 1.30, "formatted": "Warehouse A (old)", "rank": {"confidence": 0.4}}}
	]
}`

func TestGeocodeParsesCandidates(t *testing.T) {
	var gotQuery map[string]string
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"path":   r.URL.Path,
			"text":   r.URL.Query().Get("text"),
			"apiKey": r.URL.Query().Get("apiKey"),
			"limit":  r.URL.Query().Get("limit"),
		}
		w.Write([]byte(geocodeBody))
	})

	candidates, err := client.Geocode(context.Background(), "Warehouse   A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["path"] != "/v1/geocode/search" {
		t.Fatalf("path = %q", gotQuery["path"])
	}
	if gotQuery["text"] != "warehouse a" {
		t.Fatalf("text param = %q, want normalized reference", gotQuery["text"])
	}
	if gotQuery["apiKey"] != "test-key" || gotQuery["limit"] != "5" {
		t.Fatalf("query = %v", gotQuery)
	}

	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[0].Coordinate.Lon != 103.8 || candidates[0].Confidence != 0.95 {
		t.Fatalf("first candidate = %+v", candidates[0])
	}
}

func TestGeocodeEmptyResultIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	})

	candidates, err := client.Geocode(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("unknown reference must not be an error, got: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %d, want 0", len(candidates))
	}
}

func TestGeocodeCacheHitSkipsExternalCall(t *testing.T) {
	cache := newFakeCache()
	cache.store["warehouse a"] = domain.Coordinates{Lon: 103.8, Lat: 1.28}

	client, calls := newTestClient(t, cache, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geocodeBody))
	})

	candidates, err := client.Geocode(context.Background(), "Warehouse A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *calls != 0 {
		t.Fatalf("external calls = %d, want 0 on a cache hit", *calls)
	}
	if len(candidates) != 1 || candidates[0].Confidence != 1 {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestGeocodeCachesWinningCandidate(t *testing.T) {
	cache := newFakeCache()
	client, _ := newTestClient(t, cache, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geocodeBody))
	})

	if _, err := client.Geocode(context.Background(), "Warehouse A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, ok := cache.puts["warehouse a"]
	if !ok {
		t.Fatal("winning candidate was not cached")
	}
	if stored.Lon != 103.8 {
		t.Fatalf("cached coordinate = %+v, want the highest-confidence candidate", stored)
	}
}

func TestGeocodeServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Geocode(context.Background(), "Warehouse A")
	pe, ok := services.AsPlanError(err)
	if !ok {
		t.Fatalf("expected a PlanError, got %v", err)
	}
	if pe.Kind != services.KindUpstreamUnavailable {
		t.Fatalf("kind = %s, want %s", pe.Kind, services.KindUpstreamUnavailable)
	}
}

const routingBody = `{
	"features": [
		{
			"properties": {"legs": [
				{"distance": 1234.4, "time": 300.6},
				{"distance": 500.0, "time": 120.2}
			]},
			"geometry": {
				"type": "MultiLineString",
				"coordinates": [
					[[103.8, 1.28], [103.78, 1.3], [103.75, 1.33]],
					[[103.75, 1.33], [103.7, 1.30]]
				]
			}
		}
	]
}`

func TestRouteParsesLegs(t *testing.T) {
	var gotWaypoints, gotMode, gotAvoid, gotDetails string
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotWaypoints = r.URL.Query().Get("waypoints")
		gotMode = r.URL.Query().Get("mode")
		gotAvoid = r.URL.Query().Get("avoid")
		gotDetails = r.URL.Query().Get("details")
		w.Write([]byte(routingBody))
	})

	waypoints := []domain.Coordinates{
		{Lon: 103.8, Lat: 1.28},
		{Lon: 103.75, Lat: 1.33},
		{Lon: 103.7, Lat: 1.30},
	}
	legs, err := client.Route(context.Background(), waypoints, ports.RouteOptions{AvoidHighways: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMode != "drive" || gotAvoid != "highways" || gotDetails != "route_details" {
		t.Fatalf("mode = %q avoid = %q details = %q", gotMode, gotAvoid, gotDetails)
	}
	if gotWaypoints != "lonlat:103.800000,1.280000|lonlat:103.750000,1.330000|lonlat:103.700000,1.300000" {
		t.Fatalf("waypoints param = %q", gotWaypoints)
	}

	if len(legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(legs))
	}
	if legs[0].DistanceMeters != 1234 || legs[0].DurationSeconds != 301 {
		t.Fatalf("first leg = %+v, want rounded metrics", legs[0])
	}
	if len(legs[0].Geometry) != 3 || len(legs[1].Geometry) != 2 {
		t.Fatalf("leg geometry = %d/%d points, want 3/2", len(legs[0].Geometry), len(legs[1].Geometry))
	}
	if legs[0].Geometry[1].Lon != 103.78 || legs[0].Geometry[1].Lat != 1.3 {
		t.Fatalf("geometry point = %+v", legs[0].Geometry[1])
	}
}

func TestRouteWithoutGeometryStillReturnsLegs(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": [{"properties": {"legs": [{"distance": 100, "time": 10}]}}]}`))
	})

	waypoints := []domain.Coordinates{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}
	legs, err := client.Route(context.Background(), waypoints, ports.RouteOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 1 || legs[0].Geometry != nil {
		t.Fatalf("legs = %+v, want one leg with no geometry", legs)
	}
}

func TestRouteSingleWaypointSkipsCall(t *testing.T) {
	client, calls := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(routingBody))
	})

	legs, err := client.Route(context.Background(), []domain.Coordinates{{Lon: 1, Lat: 1}}, ports.RouteOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 0 || *calls != 0 {
		t.Fatalf("legs = %d calls = %d", len(legs), *calls)
	}
}

func TestRouteRejectsReoptimize(t *testing.T) {
	client, calls := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(routingBody))
	})

	waypoints := []domain.Coordinates{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}
	_, err := client.Route(context.Background(), waypoints, ports.RouteOptions{Reoptimize: true})
	pe, ok := services.AsPlanError(err)
	if !ok || pe.Kind != services.KindRoutingFailed {
		t.Fatalf("expected %s, got %v", services.KindRoutingFailed, err)
	}
	if *calls != 0 {
		t.Fatalf("external calls = %d, want 0", *calls)
	}
}

func TestRouteBadRequestIsRoutingFailure(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "could not connect waypoints", http.StatusBadRequest)
	})

	waypoints := []domain.Coordinates{{Lon: 103.8, Lat: 1.28}, {Lon: 96.8, Lat: -12.1}}
	_, err := client.Route(context.Background(), waypoints, ports.RouteOptions{})
	pe, ok := services.AsPlanError(err)
	if !ok {
		t.Fatalf("expected a PlanError, got %v", err)
	}
	if pe.Kind != services.KindRoutingFailed {
		t.Fatalf("kind = %s, want %s", pe.Kind, services.KindRoutingFailed)
	}
}

func TestRouteServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	})

	waypoints := []domain.Coordinates{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}
	_, err := client.Route(context.Background(), waypoints, ports.RouteOptions{})
	pe, ok := services.AsPlanError(err)
	if !ok || pe.Kind != services.KindUpstreamUnavailable {
		t.Fatalf("expected %s, got %v", services.KindUpstreamUnavailable, err)
	}
}

func TestRouteEmptyFeaturesIsRoutingFailure(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	})

	waypoints := []domain.Coordinates{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}
	_, err := client.Route(context.Background(), waypoints, ports.RouteOptions{})
	pe, ok := services.AsPlanError(err)
	if !ok || pe.Kind != services.KindRoutingFailed {
		t.Fatalf("expected %s, got %v", services.KindRoutingFailed, err)
	}
}
