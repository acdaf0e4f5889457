package repositories

import (
	"context"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
)

// BoundingBox is the coarse spatial pre-filter around a query origin. It only
// narrows candidates; the exact radius contract is enforced afterwards with
// haversine distance.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// CoarseFilter describes phase one of the search plan. Exactly one of
// ProcedureCode / ProcedureText is set. All values are passed to storage as
// bound parameters.
type CoarseFilter struct {
	ProcedureCode string
	ProcedureText string
	Box           BoundingBox
	Limit         int
}

// OfferingSearchRepository executes the coarse candidate filter against the
// relational read models (providers, procedure offerings, ratings).
type OfferingSearchRepository interface {
	// SearchCandidates returns provider+offering rows matching the filter,
	// left-joined with ratings. DistanceKm is not populated here.
	SearchCandidates(ctx context.Context, filter CoarseFilter) ([]*entities.Candidate, error)
}

// OfferingFuzzySearchRepository is the search-engine coarse filter: typo
// tolerant text match over procedure descriptions combined with a geo radius
// filter.
type OfferingFuzzySearchRepository interface {
	// SearchOfferings returns candidates whose procedure text approximately
	// matches query, within radiusKm of the origin.
	SearchOfferings(ctx context.Context, params FuzzySearchParams) ([]*entities.Candidate, error)

	// Index upserts one offering document into the search collection.
	Index(ctx context.Context, candidate *entities.Candidate) error
}

// FuzzySearchParams are the bound values for the search-engine coarse filter.
type FuzzySearchParams struct {
	Query     string
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

// ProviderRepository reads the provider reference data directly. Used by the
// indexer and for point lookups; never for request-time search.
type ProviderRepository interface {
	// GetByID returns one provider by its business key.
	GetByID(ctx context.Context, providerID string) (*entities.Provider, error)

	// ListOfferingRows streams every provider+offering+rating row for
	// indexing, invoking fn per row. Returns the number of rows visited.
	ListOfferingRows(ctx context.Context, fn func(*entities.Candidate) error) (int, error)
}
