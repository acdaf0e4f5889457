package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

// coarseCandidateCap bounds the coarse result set before the exact distance
// phase. The bounding box already narrows candidates; this is the hard stop.
const coarseCandidateCap = 500

// OfferingSearchAdapter implements the coarse candidate filter with
// parameterized SQL. Every user-derived value (procedure text, coordinates)
// travels as a bound argument; no query string is ever assembled from input.
type OfferingSearchAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.OfferingSearchRepository = (*OfferingSearchAdapter)(nil)

// NewOfferingSearchAdapter creates a new offering search adapter
func NewOfferingSearchAdapter(client *postgres.Client) *OfferingSearchAdapter {
	return &OfferingSearchAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// SearchCandidates returns provider+offering rows matching the coarse filter.
func (a *OfferingSearchAdapter) SearchCandidates(ctx context.Context, filter repositories.CoarseFilter) ([]*entities.Candidate, error) {
	limit := filter.Limit
	if limit <= 0 || limit > coarseCandidateCap {
		limit = coarseCandidateCap
	}

	ds := a.db.Select(
		goqu.I("p.provider_id"),
		goqu.I("p.name"),
		goqu.I("p.city"),
		goqu.I("p.state"),
		goqu.I("p.zip_code"),
		goqu.I("p.latitude"),
		goqu.I("p.longitude"),
		goqu.I("o.ms_drg_definition"),
		goqu.I("o.average_covered_charges"),
		goqu.I("r.rating"),
	).
		From(goqu.T("procedure_offerings").As("o")).
		Join(goqu.T("providers").As("p"), goqu.On(goqu.Ex{"p.provider_id": goqu.I("o.provider_id")})).
		LeftJoin(goqu.T("ratings").As("r"), goqu.On(goqu.Ex{"r.provider_id": goqu.I("p.provider_id")})).
		Where(
			goqu.I("p.latitude").IsNotNull(),
			goqu.I("p.longitude").IsNotNull(),
			goqu.I("p.latitude").Between(goqu.Range(filter.Box.MinLat, filter.Box.MaxLat)),
			goqu.I("p.longitude").Between(goqu.Range(filter.Box.MinLon, filter.Box.MaxLon)),
		)

	if filter.ProcedureCode != "" {
		ds = ds.Where(goqu.I("o.drg_code").Eq(filter.ProcedureCode))
	} else {
		ds = ds.Where(goqu.I("o.ms_drg_definition").ILike("%" + escapeLike(filter.ProcedureText) + "%"))
	}

	ds = ds.Order(goqu.I("p.provider_id").Asc(), goqu.I("o.ms_drg_definition").Asc()).
		Limit(uint(limit))

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build candidate query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to query candidates", err)
	}
	defer rows.Close()

	var candidates []*entities.Candidate
	for rows.Next() {
		candidate := &entities.Candidate{}
		var rating sql.NullInt64

		err := rows.Scan(
			&candidate.ProviderID,
			&candidate.Name,
			&candidate.City,
			&candidate.State,
			&candidate.ZipCode,
			&candidate.Latitude,
			&candidate.Longitude,
			&candidate.ProcedureText,
			&candidate.AverageCost,
			&rating,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan candidate", err)
		}

		if rating.Valid {
			score := int(rating.Int64)
			candidate.Rating = &score
		}

		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUnavailableError("error iterating candidates", err)
	}

	return candidates, nil
}

// escapeLike neutralizes LIKE wildcards in user text so the fragment matches
// literally inside the pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
