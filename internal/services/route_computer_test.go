package services

import (
	"context"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"testing"
)

func resolvedAt(ref string, action domain.StopAction, lon, lat float64) domain.ResolvedStop {
	return domain.ResolvedStop{
		Request:    domain.StopRequest{Reference: ref, Action: action},
		Coordinate: domain.Coordinates{Lon: lon, Lat: lat},
	}
}

func TestComputeAnnotatesWaypoints(t *testing.T) {
	router := &stubRouter{legs: []ports.RouteLeg{
		{DistanceMeters: 1000, DurationSeconds: 300, Geometry: []domain.Coordinates{
			{Lon: 103.8, Lat: 1.28}, {Lon: 103.78, Lat: 1.3}, {Lon: 103.75, Lat: 1.33},
		}},
		{DistanceMeters: 500, DurationSeconds: 120},
	}}

	input := domain.ValidatedPlanInput{
		Stops: []domain.ResolvedStop{
			resolvedAt("Warehouse A", domain.ActionPickup, 103.8, 1.28),
			resolvedAt("Store B", domain.ActionDelivery, 103.75, 1.33),
			resolvedAt("Store C", domain.ActionDelivery, 103.7, 1.30),
		},
		Constraints: domain.Constraints{AvoidHighways: true},
	}

	computer := &RouteComputer{Provider: router}
	plan, err := computer.Compute(context.Background(), "cmd-1", input, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.CommandID != "cmd-1" {
		t.Fatalf("command id = %q", plan.CommandID)
	}
	if len(plan.Waypoints) != 3 {
		t.Fatalf("waypoints = %d, want 3", len(plan.Waypoints))
	}
	if plan.Waypoints[0].LegDistanceMeters != 0 || plan.Waypoints[0].LegGeometry != nil {
		t.Fatalf("first waypoint has a leg: %+v", plan.Waypoints[0])
	}
	if len(plan.Waypoints[1].LegGeometry) != 3 {
		t.Fatalf("leg geometry = %d points, want 3", len(plan.Waypoints[1].LegGeometry))
	}
	if plan.Waypoints[2].CumulativeDistanceMeters != 1500 {
		t.Fatalf("cumulative distance = %d, want 1500", plan.Waypoints[2].CumulativeDistanceMeters)
	}
	if plan.TotalDurationSeconds != 420 {
		t.Fatalf("total duration = %d, want 420", plan.TotalDurationSeconds)
	}

	if !router.gotOpts.AvoidHighways {
		t.Fatal("avoid highways constraint was not forwarded")
	}
	if router.gotOpts.Reoptimize {
		t.Fatal("re-optimization must default to off")
	}
	// The validated order must reach the provider unchanged.
	if router.gotWaypoints[0].Lon != 103.8 || router.gotWaypoints[2].Lon != 103.7 {
		t.Fatalf("waypoint order changed: %+v", router.gotWaypoints)
	}
}

func TestComputeSingleStopSkipsRouting(t *testing.T) {
	router := &stubRouter{}

	input := domain.ValidatedPlanInput{
		Stops: []domain.ResolvedStop{resolvedAt("Warehouse A", domain.ActionPickup, 103.8, 1.28)},
	}

	computer := &RouteComputer{Provider: router}
	plan, err := computer.Compute(context.Background(), "cmd-1", input, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if router.calls != 0 {
		t.Fatalf("routing calls = %d, want 0 for a single stop", router.calls)
	}
	if len(plan.Waypoints) != 1 || plan.TotalDistanceMeters != 0 {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestComputeAttachesWarningsAtConstruction(t *testing.T) {
	router := &stubRouter{legs: []ports.RouteLeg{{DistanceMeters: 1, DurationSeconds: 1}}}

	input := domain.ValidatedPlanInput{
		Stops: []domain.ResolvedStop{
			resolvedAt("Warehouse A", domain.ActionPickup, 103.8, 1.28),
			resolvedAt("Store B", domain.ActionDelivery, 103.75, 1.33),
		},
	}
	warnings := []string{`proceeding without 1 unresolved stop(s): "Store C"`}

	computer := &RouteComputer{Provider: router}
	plan, err := computer.Compute(context.Background(), "cmd-1", input, warnings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Warnings) != 1 || plan.Warnings[0] != warnings[0] {
		t.Fatalf("warnings = %v", plan.Warnings)
	}
}

func TestComputeClassifiesNoPath(t *testing.T) {
	router := &stubRouter{err: RoutingFailure("no road path connects the requested stops", nil)}

	input := domain.ValidatedPlanInput{
		Stops: []domain.ResolvedStop{
			resolvedAt("Warehouse A", domain.ActionPickup, 103.8, 1.28),
			resolvedAt("Island B", domain.ActionDelivery, 96.8, -12.1),
		},
	}

	computer := &RouteComputer{Provider: router}
	_, err := computer.Compute(context.Background(), "cmd-1", input, nil)
	pe, ok := AsPlanError(err)
	if !ok {
		t.Fatalf("expected a PlanError, got %v", err)
	}
	if pe.Kind != KindRoutingFailed {
		t.Fatalf("kind = %s, want %s", pe.Kind, KindRoutingFailed)
	}
}

func TestComputeLegCountMismatch(t *testing.T) {
	router := &stubRouter{legs: []ports.RouteLeg{{DistanceMeters: 1, DurationSeconds: 1}}}

	input := domain.ValidatedPlanInput{
		Stops: []domain.ResolvedStop{
			resolvedAt("A", domain.ActionPickup, 0, 0),
			resolvedAt("B", domain.ActionDelivery, 1, 1),
			resolvedAt("C", domain.ActionDelivery, 2, 2),
		},
	}

	computer := &RouteComputer{Provider: router}
	_, err := computer.Compute(context.Background(), "cmd-1", input, nil)
	pe, ok := AsPlanError(err)
	if !ok || pe.Kind != KindRoutingFailed {
		t.Fatalf("expected %s, got %v", KindRoutingFailed, err)
	}
}
