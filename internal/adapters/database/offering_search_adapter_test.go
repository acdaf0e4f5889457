package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

func newMockAdapter(t *testing.T) (*OfferingSearchAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOfferingSearchAdapter(postgres.NewClientFromDB(db)), mock
}

func candidateColumns() []string {
	return []string{
		"provider_id", "name", "city", "state", "zip_code",
		"latitude", "longitude", "ms_drg_definition", "average_covered_charges", "rating",
	}
}

func TestSearchCandidates_TextMatchIsParameterized(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	filter := repositories.CoarseFilter{
		ProcedureText: "joint replacement",
		Box:           repositories.BoundingBox{MinLat: 40.0, MaxLat: 41.0, MinLon: -75.0, MaxLon: -73.0},
	}

	rows := sqlmock.NewRows(candidateColumns()).
		AddRow("330123", "NYU Hospitals Center", "New York", "NY", "10016",
			40.742, -73.974, "470 - MAJOR JOINT REPLACEMENT", 84621.0, 9).
		AddRow("330456", "Mount Sinai", "New York", "NY", "10029",
			40.789, -73.952, "470 - MAJOR JOINT REPLACEMENT", 70000.0, nil)

	// The fuzzy fragment and box bounds must travel as bound args, never
	// spliced into the SQL text.
	mock.ExpectQuery(`SELECT .+ FROM "procedure_offerings"`).
		WithArgs(40.0, 41.0, -75.0, -73.0, "%joint replacement%", int64(500)).
		WillReturnRows(rows)

	candidates, err := adapter.SearchCandidates(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "330123", candidates[0].ProviderID)
	require.NotNil(t, candidates[0].Rating)
	assert.Equal(t, 9, *candidates[0].Rating)
	assert.Nil(t, candidates[1].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCandidates_ExactCodeMatch(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	filter := repositories.CoarseFilter{
		ProcedureCode: "470",
		Box:           repositories.BoundingBox{MinLat: 40.0, MaxLat: 41.0, MinLon: -75.0, MaxLon: -73.0},
		Limit:         50,
	}

	mock.ExpectQuery(`SELECT .+ FROM "procedure_offerings"`).
		WithArgs(40.0, 41.0, -75.0, -73.0, "470", int64(50)).
		WillReturnRows(sqlmock.NewRows(candidateColumns()))

	candidates, err := adapter.SearchCandidates(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCandidates_WildcardsInTextAreEscaped(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	filter := repositories.CoarseFilter{
		ProcedureText: "100% hip_fix",
		Box:           repositories.BoundingBox{MinLat: 40.0, MaxLat: 41.0, MinLon: -75.0, MaxLon: -73.0},
	}

	mock.ExpectQuery(`SELECT .+ FROM "procedure_offerings"`).
		WithArgs(40.0, 41.0, -75.0, -73.0, `%100\% hip\_fix%`, int64(500)).
		WillReturnRows(sqlmock.NewRows(candidateColumns()))

	_, err := adapter.SearchCandidates(context.Background(), filter)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCandidates_StorageFailureIsUnavailable(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "procedure_offerings"`).
		WillReturnError(assert.AnError)

	_, err := adapter.SearchCandidates(context.Background(), repositories.CoarseFilter{
		ProcedureText: "knee",
		Box:           repositories.BoundingBox{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}
