package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"route-planner-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// statusForKind maps failure kinds onto HTTP statuses: upstream faults are
// gateway errors, malformed reasoning output and impossible geometry are
// unprocessable, and constraint violations blame the request.
func statusForKind(kind string) int {
	switch services.ErrorKind(kind) {
	case services.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case services.KindIntentParse:
		return http.StatusUnprocessableEntity
	case services.KindConstraintViolation:
		return http.StatusBadRequest
	case services.KindRoutingFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
