package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospital-cost-navigator/internal/api/handlers"
	"github.com/zatekoja/hospital-cost-navigator/internal/application/services"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

type stubGeocoder struct{}

func (stubGeocoder) Resolve(_ context.Context, postalCode string) (*entities.Location, error) {
	if postalCode == "10001" {
		return &entities.Location{Latitude: 40.7506, Longitude: -73.9972}, nil
	}
	return nil, apperrors.NewUnknownLocationError(postalCode)
}

type stubRepo struct {
	candidates []*entities.Candidate
	err        error
}

func (r *stubRepo) SearchCandidates(_ context.Context, _ repositories.CoarseFilter) ([]*entities.Candidate, error) {
	return r.candidates, r.err
}

func newTestHandler(repo *stubRepo) *handlers.NavigatorHandler {
	cfg := config.SearchConfig{DefaultRadiusKm: 40, MaxRadiusKm: 500, DefaultLimit: 10, MaxLimit: 50}
	navigator := services.NewNavigatorService(
		services.NewExtractionService(services.NewPatternExtractor(), nil, nil),
		services.NewIntentGuardService(stubGeocoder{}, cfg),
		services.NewSearchPlannerService(repo, nil),
		services.NewRankingService(),
		cfg,
	)
	return handlers.NewNavigatorHandler(navigator)
}

func nearbyCandidate() *entities.Candidate {
	return &entities.Candidate{
		ProviderID:  "330101",
		Name:        "Downtown Medical Center",
		City:        "New York",
		State:       "NY",
		ZipCode:     "10001",
		AverageCost: 70000,
		Latitude:    40.7606,
		Longitude:   -73.9972,
	}
}

func TestSearchProviders_Success(t *testing.T) {
	handler := newTestHandler(&stubRepo{candidates: []*entities.Candidate{nearbyCandidate()}})

	req := httptest.NewRequest("GET", "/api/providers?drg=470&zip=10001&radius_km=40", nil)
	w := httptest.NewRecorder()

	handler.SearchProviders(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Providers []map[string]interface{} `json:"providers"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "Downtown Medical Center", response.Providers[0]["name"])
}

func TestSearchProviders_MissingDRG(t *testing.T) {
	handler := newTestHandler(&stubRepo{})

	req := httptest.NewRequest("GET", "/api/providers?zip=10001", nil)
	w := httptest.NewRecorder()

	handler.SearchProviders(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchProviders_BadRadius(t *testing.T) {
	handler := newTestHandler(&stubRepo{})

	req := httptest.NewRequest("GET", "/api/providers?drg=470&zip=10001&radius_km=abc", nil)
	w := httptest.NewRecorder()

	handler.SearchProviders(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchProviders_UnknownZip(t *testing.T) {
	handler := newTestHandler(&stubRepo{})

	req := httptest.NewRequest("GET", "/api/providers?drg=470&zip=99999", nil)
	w := httptest.NewRecorder()

	handler.SearchProviders(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchProviders_StorageDown(t *testing.T) {
	handler := newTestHandler(&stubRepo{err: apperrors.NewUnavailableError("database unavailable", nil)})

	req := httptest.NewRequest("GET", "/api/providers?drg=470&zip=10001", nil)
	w := httptest.NewRecorder()

	handler.SearchProviders(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAsk_Success(t *testing.T) {
	handler := newTestHandler(&stubRepo{candidates: []*entities.Candidate{nearbyCandidate()}})

	body := `{"question":"Who is cheapest for DRG 470 near 10001?"}`
	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		InScope bool   `json:"in_scope"`
		Answer  string `json:"answer"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.InScope)
	assert.Contains(t, response.Answer, "Downtown Medical Center")
}

func TestAsk_OutOfScope(t *testing.T) {
	handler := newTestHandler(&stubRepo{})

	body := `{"question":"what's the weather today?"}`
	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	// Out of scope is a successful classification, not an error.
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		InScope bool   `json:"in_scope"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.InScope)
	assert.NotEmpty(t, response.Reason)
}

func TestAsk_EmptyBody(t *testing.T) {
	handler := newTestHandler(&stubRepo{})

	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk_MalformedJSON(t *testing.T) {
	handler := newTestHandler(&stubRepo{})

	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(`{"question":`))
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
