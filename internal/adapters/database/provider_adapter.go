package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

// ProviderAdapter reads the provider reference data. Used by the indexer and
// for point lookups; request-time search goes through the search adapters.
type ProviderAdapter struct {
	client *postgres.Client
}

var _ repositories.ProviderRepository = (*ProviderAdapter)(nil)

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) *ProviderAdapter {
	return &ProviderAdapter{client: client}
}

// GetByID returns one provider by its business key.
func (a *ProviderAdapter) GetByID(ctx context.Context, providerID string) (*entities.Provider, error) {
	const query = `
		SELECT provider_id, name, city, state, zip_code, latitude, longitude
		FROM providers
		WHERE provider_id = $1
	`

	provider := &entities.Provider{}
	err := a.client.DBX().GetContext(ctx, provider, query, providerID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", providerID))
	}
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to get provider", err)
	}

	return provider, nil
}

// offeringRow is the scan target for the indexing join.
type offeringRow struct {
	ProviderID    string        `db:"provider_id"`
	Name          string        `db:"name"`
	City          string        `db:"city"`
	State         string        `db:"state"`
	ZipCode       string        `db:"zip_code"`
	Latitude      float64       `db:"latitude"`
	Longitude     float64       `db:"longitude"`
	DRGDefinition string        `db:"ms_drg_definition"`
	AverageCost   float64       `db:"average_covered_charges"`
	Rating        sql.NullInt64 `db:"rating"`
}

// ListOfferingRows streams every provider+offering+rating row for indexing.
func (a *ProviderAdapter) ListOfferingRows(ctx context.Context, fn func(*entities.Candidate) error) (int, error) {
	const query = `
		SELECT p.provider_id, p.name, p.city, p.state, p.zip_code,
		       p.latitude, p.longitude,
		       o.ms_drg_definition, o.average_covered_charges,
		       r.rating
		FROM procedure_offerings o
		JOIN providers p ON p.provider_id = o.provider_id
		LEFT JOIN ratings r ON r.provider_id = p.provider_id
		WHERE p.latitude IS NOT NULL AND p.longitude IS NOT NULL
		ORDER BY p.provider_id, o.ms_drg_definition
	`

	rows, err := a.client.DBX().QueryxContext(ctx, query)
	if err != nil {
		return 0, apperrors.NewUnavailableError("failed to list offering rows", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var row offeringRow
		if err := rows.StructScan(&row); err != nil {
			return count, apperrors.NewInternalError("failed to scan offering row", err)
		}

		candidate := &entities.Candidate{
			ProviderID:    row.ProviderID,
			Name:          row.Name,
			City:          row.City,
			State:         row.State,
			ZipCode:       row.ZipCode,
			ProcedureText: row.DRGDefinition,
			AverageCost:   row.AverageCost,
			Latitude:      row.Latitude,
			Longitude:     row.Longitude,
		}
		if row.Rating.Valid {
			score := int(row.Rating.Int64)
			candidate.Rating = &score
		}

		if err := fn(candidate); err != nil {
			return count, err
		}
		count++
	}

	if err := rows.Err(); err != nil {
		return count, apperrors.NewUnavailableError("error iterating offering rows", err)
	}

	return count, nil
}
