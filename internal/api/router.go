package api

import (
	"net/http"
	"route-planner-service/internal/api/handlers"
	"route-planner-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner *services.Orchestrator) http.Handler {
	mux := http.NewServeMux()

	planHandler := &handlers.PlanRouteHandler{Planner: planner}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/api/v1/plan-route", planHandler.PlanRoute)

	return loggingMiddleware(mux)
}
