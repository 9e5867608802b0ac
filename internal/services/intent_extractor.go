package services

import (
	"context"
	"encoding/json"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// Wire shape the reasoning service is instructed to produce. Extra keys
// are tolerated; type mismatches and missing fields are parse failures.
type intentPayload struct {
	Stops []struct {
		Reference  string `json:"reference"`
		Action     string `json:"action"`
		ShipmentID string `json:"shipment_id"`
		Weight     int    `json:"weight"`
		TimeWindow []int  `json:"time_window"`
	} `json:"stops"`
	Constraints struct {
		VehicleCapacity int  `json:"vehicle_capacity"`
		AvoidHighways   bool `json:"avoid_highways"`
	} `json:"constraints"`
}

// IntentExtractor turns a raw command into a structured RouteIntent via
// the external reasoning service. It makes exactly one outbound call per
// invocation; retry policy belongs to the orchestrator.
type IntentExtractor struct {
	Provider ports.ReasoningProvider
}

// Extract sends the command text to the reasoning service and validates
// the structured response. A response that does not contain a recognizable
// stop list fails with an INTENT_PARSE_ERROR classification; transport
// failures surface as UPSTREAM_UNAVAILABLE.
func (e *IntentExtractor) Extract(ctx context.Context, cmd domain.Command) (domain.RouteIntent, error) {
	payload, err := e.Provider.ExtractIntent(ctx, cmd.Text, cmd.UserID)
	if err != nil {
		if _, ok := AsPlanError(err); ok {
			return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", err)
		}
		return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", Unavailable("reasoning service call failed", err))
	}

	var decoded intentPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("reasoning response is not valid intent JSON"))
	}

	if len(decoded.Stops) == 0 {
		return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("reasoning response contains no stops"))
	}

	intent := domain.RouteIntent{
		Stops: make([]domain.StopRequest, 0, len(decoded.Stops)),
		Constraints: domain.Constraints{
			VehicleCapacity: decoded.Constraints.VehicleCapacity,
			AvoidHighways:   decoded.Constraints.AvoidHighways,
		},
	}

	for i, s := range decoded.Stops {
		if s.Reference == "" {
			return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("stop %d has no location reference", i))
		}

		var action domain.StopAction
		switch s.Action {
		case string(domain.ActionPickup):
			action = domain.ActionPickup
		case string(domain.ActionDelivery):
			action = domain.ActionDelivery
		default:
			return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("stop %d has unknown action %q", i, s.Action))
		}

		if s.Weight < 0 {
			return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("stop %d has negative weight %d", i, s.Weight))
		}

		var window *domain.TimeWindow
		if len(s.TimeWindow) > 0 {
			if len(s.TimeWindow) != 2 {
				return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("stop %d time window must be [start, end] seconds", i))
			}
			window = &domain.TimeWindow{StartSeconds: s.TimeWindow[0], EndSeconds: s.TimeWindow[1]}
		}

		intent.Stops = append(intent.Stops, domain.StopRequest{
			Reference:  s.Reference,
			Action:     action,
			ShipmentID: s.ShipmentID,
			Weight:     s.Weight,
			Window:     window,
		})
	}

	if decoded.Constraints.VehicleCapacity < 0 {
		return domain.RouteIntent{}, fmt.Errorf("extract intent: %w", ParseFailure("vehicle capacity must not be negative"))
	}

	return intent, nil
}
