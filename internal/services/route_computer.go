package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// RouteComputer submits a validated, geocoded stop sequence to the
// external routing service and normalizes its response into a RoutePlan.
// The validated stop order is preserved; Reoptimize is a deployment-level
// opt-in and defaults to off, since reordering could reintroduce an
// ordering violation the validator already ruled out.
type RouteComputer struct {
	Provider   ports.RouteProvider
	Reoptimize bool
}

// Compute routes the stop sequence and annotates each waypoint with leg
// and cumulative metrics. Warnings accumulated by earlier stages are
// attached at construction so the returned plan is complete. It fails
// with ROUTING_FAILED when the service cannot connect the sequence and
// UPSTREAM_UNAVAILABLE on transport failure.
func (c *RouteComputer) Compute(ctx context.Context, commandID string, input domain.ValidatedPlanInput, warnings []string) (*domain.RoutePlan, error) {
	stops := input.Stops
	plan := &domain.RoutePlan{
		CommandID: commandID,
		Waypoints: make([]domain.Waypoint, 0, len(stops)),
		Warnings:  warnings,
	}
	if len(stops) == 0 {
		return plan, nil
	}

	var legs []ports.RouteLeg
	if len(stops) > 1 {
		coords := make([]domain.Coordinates, 0, len(stops))
		for _, s := range stops {
			coords = append(coords, s.Coordinate)
		}

		opts := ports.RouteOptions{
			AvoidHighways: input.Constraints.AvoidHighways,
			Reoptimize:    c.Reoptimize,
		}

		var err error
		legs, err = c.Provider.Route(ctx, coords, opts)
		if err != nil {
			if _, ok := AsPlanError(err); ok {
				return nil, fmt.Errorf("compute route: %w", err)
			}
			return nil, fmt.Errorf("compute route: %w", Unavailable("routing service call failed", err))
		}
		if len(legs) != len(stops)-1 {
			return nil, fmt.Errorf("compute route: %w",
				RoutingFailure(fmt.Sprintf("routing service returned %d legs for %d stops", len(legs), len(stops)), nil))
		}
	}

	cumulativeMeters := 0
	cumulativeSeconds := 0
	for i, s := range stops {
		wp := domain.Waypoint{
			Reference:  s.Request.Reference,
			Action:     s.Request.Action,
			Coordinate: s.Coordinate,
		}
		if i > 0 {
			leg := legs[i-1]
			wp.LegDistanceMeters = leg.DistanceMeters
			wp.LegDurationSeconds = leg.DurationSeconds
			wp.LegGeometry = leg.Geometry
			cumulativeMeters += leg.DistanceMeters
			cumulativeSeconds += leg.DurationSeconds
		}
		wp.CumulativeDistanceMeters = cumulativeMeters
		wp.CumulativeDurationSeconds = cumulativeSeconds
		plan.Waypoints = append(plan.Waypoints, wp)
	}

	plan.TotalDistanceMeters = cumulativeMeters
	plan.TotalDurationSeconds = cumulativeSeconds

	return plan, nil
}
