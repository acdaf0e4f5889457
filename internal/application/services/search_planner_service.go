package services

import (
	"context"
	"math"
	"time"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
)

const kmPerDegreeLat = 111.045

// SearchPlannerService runs the two-phase candidate search: a coarse
// bounding-box pass in storage, then an exact great-circle pass in memory.
// The coarse phase may over-select near the box corners; the exact phase is
// the radius contract.
type SearchPlannerService struct {
	coarse repositories.OfferingSearchRepository
	fuzzy  repositories.OfferingFuzzySearchRepository
}

func NewSearchPlannerService(coarse repositories.OfferingSearchRepository, fuzzy repositories.OfferingFuzzySearchRepository) *SearchPlannerService {
	return &SearchPlannerService{coarse: coarse, fuzzy: fuzzy}
}

// Plan returns every candidate within spec.RadiusKm of spec.Origin whose
// offering matches the procedure, each with DistanceKm attached. Ranking and
// the result limit are applied by the caller; the planner never truncates
// below the coarse cap.
func (s *SearchPlannerService) Plan(ctx context.Context, spec *entities.QuerySpec) ([]*entities.Candidate, error) {
	ctx, span := observability.StartSpan(ctx, "SearchPlanner.Plan")
	defer span.End()
	start := time.Now()

	candidates, err := s.coarseCandidates(ctx, spec)
	if err != nil {
		return nil, err
	}

	within := make([]*entities.Candidate, 0, len(candidates))
	for _, c := range candidates {
		d := haversineKm(spec.Origin.Latitude, spec.Origin.Longitude, c.Latitude, c.Longitude)
		if d > spec.RadiusKm {
			continue
		}
		c.DistanceKm = math.Round(d*10) / 10
		within = append(within, c)
	}

	observability.LoggerFromContext(ctx).Debug().
		Int("coarse", len(candidates)).
		Int("within_radius", len(within)).
		Dur("elapsed", time.Since(start)).
		Msg("search plan executed")

	return within, nil
}

func (s *SearchPlannerService) coarseCandidates(ctx context.Context, spec *entities.QuerySpec) ([]*entities.Candidate, error) {
	value, exact := spec.ProcedureMatch()

	// Fuzzy text goes through the typo-tolerant index when one is wired;
	// exact DRG codes always take the SQL path.
	if !exact && s.fuzzy != nil {
		candidates, err := s.fuzzy.SearchOfferings(ctx, repositories.FuzzySearchParams{
			Query:     value,
			Latitude:  spec.Origin.Latitude,
			Longitude: spec.Origin.Longitude,
			RadiusKm:  spec.RadiusKm,
		})
		if err == nil {
			return candidates, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Msg("fuzzy search unavailable, using bounding-box filter")
	}

	filter := repositories.CoarseFilter{
		Box: BoundingBoxAround(spec.Origin, spec.RadiusKm),
	}
	if exact {
		filter.ProcedureCode = value
	} else {
		filter.ProcedureText = value
	}
	return s.coarse.SearchCandidates(ctx, filter)
}

// BoundingBoxAround returns a latitude/longitude box that fully contains the
// circle of radiusKm around origin. The longitude span widens with latitude;
// near the poles it degrades to the full range rather than dividing by ~0.
func BoundingBoxAround(origin entities.Location, radiusKm float64) repositories.BoundingBox {
	latDelta := radiusKm / kmPerDegreeLat

	cosLat := math.Cos(origin.Latitude * math.Pi / 180.0)
	lonDelta := 180.0
	if cosLat > 1e-6 {
		lonDelta = radiusKm / (kmPerDegreeLat * cosLat)
	}

	return repositories.BoundingBox{
		MinLat: origin.Latitude - latDelta,
		MaxLat: origin.Latitude + latDelta,
		MinLon: origin.Longitude - lonDelta,
		MaxLon: origin.Longitude + lonDelta,
	}
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
