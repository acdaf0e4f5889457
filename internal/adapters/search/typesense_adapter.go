package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	tsclient "github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter is the typo-tolerant coarse filter: approximate text match
// over procedure descriptions combined with a geo radius filter. It only
// narrows candidates; the exact haversine phase still enforces the radius.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.OfferingFuzzySearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the offerings collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts one offering document into the search collection.
func (a *TypesenseAdapter) Index(ctx context.Context, candidate *entities.Candidate) error {
	document := map[string]interface{}{
		"id":                      candidate.ProviderID + ":" + candidate.ProcedureText,
		"provider_id":             candidate.ProviderID,
		"name":                    candidate.Name,
		"city":                    candidate.City,
		"state":                   candidate.State,
		"zip_code":                candidate.ZipCode,
		"drg_definition":          candidate.ProcedureText,
		"average_covered_charges": candidate.AverageCost,
		"location":                []float64{candidate.Latitude, candidate.Longitude},
	}
	if candidate.Rating != nil {
		document["rating"] = *candidate.Rating
	}

	_, err := a.client.Client().Collection(tsclient.OfferingsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index offering: %w", err)
	}

	return nil
}

// SearchOfferings returns candidates whose procedure text approximately
// matches the query, within radiusKm of the origin. The query travels in the
// Q parameter, never inside the filter expression.
func (a *TypesenseAdapter) SearchOfferings(ctx context.Context, params repositories.FuzzySearchParams) ([]*entities.Candidate, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(params.Query),
		QueryBy:  pointer.String("drg_definition"),
		FilterBy: pointer.String(fmt.Sprintf("location:(%f, %f, %f km)", params.Latitude, params.Longitude, params.RadiusKm)),
		SortBy:   pointer.String("_text_match:desc,average_covered_charges:asc"),
		PerPage:  pointer.Int(limit),
		NumTypos: pointer.String("2"),
		Prefix:   pointer.String("true"),
	}

	result, err := a.client.Client().Collection(tsclient.OfferingsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search offerings: %w", err)
	}

	candidates := []*entities.Candidate{}
	if result.Hits == nil {
		return candidates, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		candidates = append(candidates, documentToCandidate(*hit.Document))
	}

	return candidates, nil
}

// documentToCandidate rebuilds a candidate from a Typesense document.
func documentToCandidate(doc map[string]interface{}) *entities.Candidate {
	candidate := &entities.Candidate{}

	if v, ok := doc["provider_id"].(string); ok {
		candidate.ProviderID = v
	}
	if v, ok := doc["name"].(string); ok {
		candidate.Name = v
	}
	if v, ok := doc["city"].(string); ok {
		candidate.City = v
	}
	if v, ok := doc["state"].(string); ok {
		candidate.State = v
	}
	if v, ok := doc["zip_code"].(string); ok {
		candidate.ZipCode = v
	}
	if v, ok := doc["drg_definition"].(string); ok {
		candidate.ProcedureText = v
	}
	if v, ok := doc["average_covered_charges"].(float64); ok {
		candidate.AverageCost = v
	}
	if v, ok := doc["rating"].(float64); ok {
		score := int(v)
		candidate.Rating = &score
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		if lat, ok := loc[0].(float64); ok {
			candidate.Latitude = lat
		}
		if lon, ok := loc[1].(float64); ok {
			candidate.Longitude = lon
		}
	}

	return candidate
}
