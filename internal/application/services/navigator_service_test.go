package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

func newTestNavigator(repo *stubCoarseRepo) *NavigatorService {
	cfg := testSearchConfig()
	extractor := NewExtractionService(NewPatternExtractor(), nil, nil)
	guard := newTestGuard()
	planner := NewSearchPlannerService(repo, nil)
	return NewNavigatorService(extractor, guard, planner, NewRankingService(), cfg)
}

func testCandidates(origin entities.Location) []*entities.Candidate {
	near := &entities.Candidate{
		ProviderID: "330101", Name: "Downtown Medical Center",
		City: "New York", State: "NY", AverageCost: 84621,
	}
	near.Latitude, near.Longitude = northOf(origin, 2.3)

	mid := &entities.Candidate{
		ProviderID: "330102", Name: "Riverside Hospital",
		City: "New York", State: "NY", AverageCost: 70000,
	}
	mid.Latitude, mid.Longitude = northOf(origin, 10.1)

	far := &entities.Candidate{
		ProviderID: "330103", Name: "Upstate General",
		City: "Albany", State: "NY", AverageCost: 60000,
	}
	far.Latitude, far.Longitude = northOf(origin, 50.0)

	return []*entities.Candidate{near, mid, far}
}

func TestAsk_CheapestEndToEnd(t *testing.T) {
	origin := entities.Location{Latitude: 40.7506, Longitude: -73.9972}
	repo := &stubCoarseRepo{candidates: testCandidates(origin)}
	nav := newTestNavigator(repo)

	result, err := nav.Ask(context.Background(), "Who is cheapest for DRG 470 near 10001?")
	require.NoError(t, err)

	require.True(t, result.InScope)
	assert.Equal(t, entities.IntentCheapest, result.Intent)
	// The 50 km provider is outside the default 40 km radius, so the
	// cheapest in-radius offering wins despite the cheaper one far away.
	require.Len(t, result.Results, 2)
	assert.Equal(t, 70000.0, result.Results[0].AverageCost)
	assert.Equal(t, 84621.0, result.Results[1].AverageCost)
	assert.Contains(t, result.Answer, "Riverside Hospital")
	assert.Contains(t, result.Answer, "$70000.00")
}

func TestAsk_OutOfScope(t *testing.T) {
	nav := newTestNavigator(&stubCoarseRepo{})

	result, err := nav.Ask(context.Background(), "what's the weather today?")
	require.NoError(t, err)

	assert.False(t, result.InScope)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, result.Results)
}

func TestAsk_AverageCostOverExactRadius(t *testing.T) {
	origin := entities.Location{Latitude: 40.7506, Longitude: -73.9972}
	repo := &stubCoarseRepo{candidates: testCandidates(origin)}
	nav := newTestNavigator(repo)

	result, err := nav.Ask(context.Background(), "average cost of DRG 470 within 40 km of 10001")
	require.NoError(t, err)

	require.True(t, result.InScope)
	require.NotNil(t, result.AverageCost)
	// Mean of the two in-radius offerings only.
	assert.InDelta(t, 77310.5, *result.AverageCost, 0.01)
	assert.Contains(t, result.Answer, "average cost")
}

func TestAsk_AverageCountSurvivesResultLimit(t *testing.T) {
	origin := entities.Location{Latitude: 40.7506, Longitude: -73.9972}
	candidates := make([]*entities.Candidate, 0, 15)
	for i := 0; i < 15; i++ {
		c := &entities.Candidate{
			ProviderID: fmt.Sprintf("3301%02d", i),
			Name:       fmt.Sprintf("Hospital %d", i),
			City:       "New York", State: "NY",
			AverageCost: 1000,
		}
		c.Latitude, c.Longitude = northOf(origin, float64(i+1))
		candidates = append(candidates, c)
	}
	nav := newTestNavigator(&stubCoarseRepo{candidates: candidates})

	result, err := nav.Ask(context.Background(), "average cost of DRG 470 within 40 km of 10001")
	require.NoError(t, err)

	require.True(t, result.InScope)
	// The default limit pages the results, but the aggregate still covers
	// every in-radius offering.
	assert.Len(t, result.Results, 10)
	assert.Equal(t, 15, result.AverageCount)
	require.NotNil(t, result.AverageCost)
	assert.InDelta(t, 1000.0, *result.AverageCost, 0.01)
	assert.Contains(t, result.Answer, "across 15 offerings")
}

func TestAsk_NoResults(t *testing.T) {
	repo := &stubCoarseRepo{}
	nav := newTestNavigator(repo)

	result, err := nav.Ask(context.Background(), "cheapest for DRG 470 near 10001")
	require.NoError(t, err)

	require.True(t, result.InScope)
	assert.Empty(t, result.Results)
	assert.Contains(t, result.Answer, "No hospitals")
}

func TestAsk_EmptyQuestion(t *testing.T) {
	nav := newTestNavigator(&stubCoarseRepo{})

	_, err := nav.Ask(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAsk_UnknownZip(t *testing.T) {
	nav := newTestNavigator(&stubCoarseRepo{})

	_, err := nav.Ask(context.Background(), "cheapest for DRG 470 near 00000")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownLocation))
}

func TestSearchProviders_StructuredPath(t *testing.T) {
	origin := entities.Location{Latitude: 40.7506, Longitude: -73.9972}
	repo := &stubCoarseRepo{candidates: testCandidates(origin)}
	nav := newTestNavigator(repo)

	radius := 40.0
	results, err := nav.SearchProviders(context.Background(), "470", "10001", &radius)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 70000.0, results[0].AverageCost)
	assert.Equal(t, "470", repo.lastFilter.ProcedureCode)
}

func TestSearchProviders_ValidatesInput(t *testing.T) {
	nav := newTestNavigator(&stubCoarseRepo{})

	_, err := nav.SearchProviders(context.Background(), "", "10001", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = nav.SearchProviders(context.Background(), "470", "1234", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	bad := -5.0
	_, err = nav.SearchProviders(context.Background(), "470", "10001", &bad)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
