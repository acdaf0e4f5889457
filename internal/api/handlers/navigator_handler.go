package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/hospital-cost-navigator/internal/application/services"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

const maxQuestionLength = 1000

// NavigatorHandler exposes the provider search and free-text question
// endpoints.
type NavigatorHandler struct {
	navigator *services.NavigatorService
}

// NewNavigatorHandler creates a new navigator handler
func NewNavigatorHandler(navigator *services.NavigatorService) *NavigatorHandler {
	return &NavigatorHandler{navigator: navigator}
}

// SearchProviders handles GET /api/providers?drg=&zip=&radius_km=
func (h *NavigatorHandler) SearchProviders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	drg := query.Get("drg")
	zip := query.Get("zip")

	var radiusKm *float64
	if raw := query.Get("radius_km"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
		radiusKm = &value
	}

	results, err := h.navigator.SearchProviders(r.Context(), drg, zip, radiusKm)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": results,
		"count":     len(results),
	})
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /api/ask
func (h *NavigatorHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "request body must be JSON with a question field")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondWithError(w, http.StatusBadRequest, "question must not be empty")
		return
	}
	if len(req.Question) > maxQuestionLength {
		respondWithError(w, http.StatusBadRequest, "question is too long")
		return
	}

	result, err := h.navigator.Ask(r.Context(), req.Question)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// respondWithAppError maps the error taxonomy onto HTTP statuses. Unknown
// locations and invalid input are the caller's problem; an unavailable
// backend is retryable and reports 503.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeUnknownLocation:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeUnavailable:
			respondWithError(w, http.StatusServiceUnavailable, appErr.Message)
		default:
			observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("request failed")
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
