package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

type stubGeocoder struct {
	known map[string]entities.Location
}

func (g *stubGeocoder) Resolve(_ context.Context, postalCode string) (*entities.Location, error) {
	if !entities.ValidPostalCode(postalCode) {
		return nil, apperrors.NewValidationError("postal code must be 5 digits")
	}
	loc, ok := g.known[postalCode]
	if !ok {
		return nil, apperrors.NewUnknownLocationError(postalCode)
	}
	return &loc, nil
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		DefaultRadiusKm: 40,
		MaxRadiusKm:     500,
		DefaultLimit:    10,
		MaxLimit:        50,
	}
}

func newTestGuard() *IntentGuardService {
	geocoder := &stubGeocoder{known: map[string]entities.Location{
		"10001": {Latitude: 40.7506, Longitude: -73.9972},
	}}
	return NewIntentGuardService(geocoder, testSearchConfig())
}

func TestClassify_OutOfScopeQuestion(t *testing.T) {
	guard := newTestGuard()

	decision, err := guard.Classify(context.Background(), "what's the weather today?", &entities.QuerySpecDraft{})
	require.NoError(t, err)

	assert.True(t, decision.OutOfScope)
	assert.NotEmpty(t, decision.Reason)
	assert.Nil(t, decision.Spec)
}

func TestClassify_MissingLocation(t *testing.T) {
	guard := newTestGuard()

	decision, err := guard.Classify(context.Background(), "cheapest hospital for DRG 470", &entities.QuerySpecDraft{ProcedureCode: "470"})
	require.NoError(t, err)

	assert.True(t, decision.OutOfScope)
	assert.Contains(t, decision.Reason, "ZIP")
}

func TestClassify_PromotesWithDefaults(t *testing.T) {
	guard := newTestGuard()

	decision, err := guard.Classify(context.Background(), "", &entities.QuerySpecDraft{
		ProcedureCode: "470",
		PostalCode:    "10001",
	})
	require.NoError(t, err)
	require.False(t, decision.OutOfScope)
	require.NotNil(t, decision.Spec)

	spec := decision.Spec
	assert.Equal(t, "470", spec.ProcedureCode)
	assert.InDelta(t, 40.0, spec.RadiusKm, 0.001)
	assert.Equal(t, 10, spec.Limit)
	assert.Equal(t, entities.IntentCheapest, spec.Intent)
	assert.InDelta(t, 40.7506, spec.Origin.Latitude, 0.0001)
}

func TestClassify_ClampsRadiusAndLimit(t *testing.T) {
	guard := newTestGuard()
	radius := 9000.0
	limit := 200

	decision, err := guard.Classify(context.Background(), "", &entities.QuerySpecDraft{
		ProcedureCode: "470",
		PostalCode:    "10001",
		RadiusKm:      &radius,
		Limit:         &limit,
	})
	require.NoError(t, err)
	require.NotNil(t, decision.Spec)

	assert.InDelta(t, 500.0, decision.Spec.RadiusKm, 0.001)
	assert.Equal(t, 50, decision.Spec.Limit)
}

func TestClassify_NonPositiveRadiusFallsBackToDefault(t *testing.T) {
	guard := newTestGuard()
	radius := 0.0

	decision, err := guard.Classify(context.Background(), "", &entities.QuerySpecDraft{
		ProcedureCode: "470",
		PostalCode:    "10001",
		RadiusKm:      &radius,
	})
	require.NoError(t, err)
	require.NotNil(t, decision.Spec)

	assert.InDelta(t, 40.0, decision.Spec.RadiusKm, 0.001)
}

func TestClassify_InvalidIntentDropped(t *testing.T) {
	guard := newTestGuard()

	decision, err := guard.Classify(context.Background(), "", &entities.QuerySpecDraft{
		ProcedureCode: "470",
		PostalCode:    "10001",
		Intent:        entities.RankingIntent("priciest"),
		Origin:        entities.OriginInference,
	})
	require.NoError(t, err)
	require.NotNil(t, decision.Spec)

	assert.Equal(t, entities.IntentCheapest, decision.Spec.Intent)
}

func TestClassify_UnknownPostalCodeIsAnError(t *testing.T) {
	guard := newTestGuard()

	_, err := guard.Classify(context.Background(), "", &entities.QuerySpecDraft{
		ProcedureCode: "470",
		PostalCode:    "00000",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownLocation))
}
