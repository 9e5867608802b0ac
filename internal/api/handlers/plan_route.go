package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/services"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanRouteHandler exposes the single planning operation: a natural
// language command in, a route plan or failure report out.
type PlanRouteHandler struct {
	Planner *services.Orchestrator
}

func (h *PlanRouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.PlanRouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	command := strings.TrimSpace(req.Command)
	if command == "" {
		writeError(w, r, http.StatusBadRequest, "command is required")
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "anonymous"
	}

	cmd := domain.Command{
		CommandID:  uuid.NewString(),
		Text:       command,
		UserID:     userID,
		Locale:     req.Locale,
		ReceivedAt: time.Now().UTC(),
	}

	plan, failure := h.Planner.PlanRoute(r.Context(), cmd)
	if failure != nil {
		writeJSON(w, r, statusForKind(failure.Kind), failure)
		return
	}

	res := dto.RoutePlanResponse{
		CommandID:            plan.CommandID,
		Waypoints:            make([]dto.WaypointResponse, 0, len(plan.Waypoints)),
		TotalDistanceMeters:  plan.TotalDistanceMeters,
		TotalDurationSeconds: plan.TotalDurationSeconds,
		Warnings:             plan.Warnings,
	}
	for _, wp := range plan.Waypoints {
		var geometry [][2]float64
		for _, c := range wp.LegGeometry {
			geometry = append(geometry, [2]float64{c.Lon, c.Lat})
		}
		res.Waypoints = append(res.Waypoints, dto.WaypointResponse{
			Reference:                 wp.Reference,
			Action:                    string(wp.Action),
			Lon:                       wp.Coordinate.Lon,
			Lat:                       wp.Coordinate.Lat,
			LegDistanceMeters:         wp.LegDistanceMeters,
			LegDurationSeconds:        wp.LegDurationSeconds,
			CumulativeDistanceMeters:  wp.CumulativeDistanceMeters,
			CumulativeDurationSeconds: wp.CumulativeDurationSeconds,
			LegGeometry:               geometry,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
