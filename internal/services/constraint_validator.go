package services

import (
	"fmt"
	"route-planner-service/internal/domain"
)

// Average straight-line travel speed used for the cheap time-window
// estimate (meters per second, roughly 50 km/h). Straight-line distance
// at this speed underestimates real road travel, so a stop that already
// misses its window under the estimate is provably infeasible.
const defaultAverageSpeedMPS = 13.9

// ConstraintValidator checks a resolved stop sequence for internal
// consistency in a single in-order walk. It reports the first violation
// encountered in stop order and never attempts repair, keeping error
// messages reproducible for identical input.
type ConstraintValidator struct {
	// Speed for the straight-line travel estimate. Zero means the default.
	AverageSpeedMPS float64
}

// Validate walks the stop sequence once, maintaining the running load and
// a cumulative travel-time estimate. On success the returned sequence is
// the input sequence unchanged (order-preserving when valid).
func (v *ConstraintValidator) Validate(stops []domain.ResolvedStop, constraints domain.Constraints) (domain.ValidatedPlanInput, error) {
	speed := v.AverageSpeedMPS
	if speed <= 0 {
		speed = defaultAverageSpeedMPS
	}

	load := 0
	pickedUp := make(map[string]bool)
	elapsed := 0.0

	for i, stop := range stops {
		req := stop.Request

		if i > 0 {
			meters := stops[i-1].Coordinate.HaversineMeters(stop.Coordinate)
			elapsed += meters / speed
		}

		switch req.Action {
		case domain.ActionPickup:
			if req.ShipmentID != "" {
				pickedUp[req.ShipmentID] = true
			}
			load += req.Weight
			if constraints.VehicleCapacity > 0 && load > constraints.VehicleCapacity {
				return domain.ValidatedPlanInput{}, fmt.Errorf("validate stops: %w",
					Violation(ReasonCapacityExceeded,
						"stop %d (%s): running load %d exceeds vehicle capacity %d",
						i, req.Reference, load, constraints.VehicleCapacity))
			}

		case domain.ActionDelivery:
			if req.ShipmentID != "" && !pickedUp[req.ShipmentID] {
				return domain.ValidatedPlanInput{}, fmt.Errorf("validate stops: %w",
					Violation(ReasonOrderViolation,
						"stop %d (%s): delivery for shipment %q precedes its pickup",
						i, req.Reference, req.ShipmentID))
			}
			if req.Weight > load {
				return domain.ValidatedPlanInput{}, fmt.Errorf("validate stops: %w",
					Violation(ReasonOrderViolation,
						"stop %d (%s): delivering %d with only %d on board",
						i, req.Reference, req.Weight, load))
			}
			load -= req.Weight

		default:
			return domain.ValidatedPlanInput{}, fmt.Errorf("validate stops: %w",
				Violation(ReasonOrderViolation, "stop %d (%s): unknown action %q", i, req.Reference, req.Action))
		}

		if req.Window != nil {
			if !req.Window.Valid() {
				return domain.ValidatedPlanInput{}, fmt.Errorf("validate stops: %w",
					Violation(ReasonTimeWindowConflict,
						"stop %d (%s): time window [%d, %d] is contradictory",
						i, req.Reference, req.Window.StartSeconds, req.Window.EndSeconds))
			}
			if elapsed > float64(req.Window.EndSeconds) {
				return domain.ValidatedPlanInput{}, fmt.Errorf("validate stops: %w",
					Violation(ReasonTimeWindowConflict,
						"stop %d (%s): earliest arrival estimate %ds is past window end %ds",
						i, req.Reference, int(elapsed), req.Window.EndSeconds))
			}
			// Arriving early means waiting for the window to open.
			if elapsed < float64(req.Window.StartSeconds) {
				elapsed = float64(req.Window.StartSeconds)
			}
		}
	}

	return domain.ValidatedPlanInput{Stops: stops, Constraints: constraints}, nil
}
