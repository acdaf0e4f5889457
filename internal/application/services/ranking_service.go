package services

import (
	"sort"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
)

// RankingService orders candidates by the query's intent. Every intent is a
// total order ending in a provider-id tie-break, so equal inputs always
// produce identical output slices. The limit is applied after sorting.
type RankingService struct{}

func NewRankingService() *RankingService {
	return &RankingService{}
}

// Rank sorts the candidates for the given intent and truncates to limit.
// The input slice is reordered in place; the returned slice aliases it.
func (s *RankingService) Rank(candidates []*entities.Candidate, intent entities.RankingIntent, limit int) []*entities.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	switch intent {
	case entities.IntentCheapest:
		sort.SliceStable(candidates, func(i, j int) bool {
			return lessByCost(candidates[i], candidates[j])
		})
	case entities.IntentBestRated:
		candidates = dedupeByProvider(candidates)
		sort.SliceStable(candidates, func(i, j int) bool {
			return lessByRating(candidates[i], candidates[j])
		})
	default:
		// top_n, average_cost, and default order by proximity.
		sort.SliceStable(candidates, func(i, j int) bool {
			return lessByDistance(candidates[i], candidates[j])
		})
	}

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func lessByCost(a, b *entities.Candidate) bool {
	if a.AverageCost != b.AverageCost {
		return a.AverageCost < b.AverageCost
	}
	if a.DistanceKm != b.DistanceKm {
		return a.DistanceKm < b.DistanceKm
	}
	return a.ProviderID < b.ProviderID
}

func lessByRating(a, b *entities.Candidate) bool {
	// Unrated providers sort after every rated one.
	switch {
	case a.Rating != nil && b.Rating == nil:
		return true
	case a.Rating == nil && b.Rating != nil:
		return false
	case a.Rating != nil && b.Rating != nil && *a.Rating != *b.Rating:
		return *a.Rating > *b.Rating
	}
	return lessByCost(a, b)
}

func lessByDistance(a, b *entities.Candidate) bool {
	if a.DistanceKm != b.DistanceKm {
		return a.DistanceKm < b.DistanceKm
	}
	if a.AverageCost != b.AverageCost {
		return a.AverageCost < b.AverageCost
	}
	return a.ProviderID < b.ProviderID
}

// dedupeByProvider keeps one offering per provider: the best rated, then the
// cheapest among equals. Rating questions are about hospitals, not about the
// cheapest line item a hospital happens to bill.
func dedupeByProvider(candidates []*entities.Candidate) []*entities.Candidate {
	best := make(map[string]*entities.Candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		current, seen := best[c.ProviderID]
		if !seen {
			best[c.ProviderID] = c
			order = append(order, c.ProviderID)
			continue
		}
		if lessByRating(c, current) {
			best[c.ProviderID] = c
		}
	}

	deduped := make([]*entities.Candidate, 0, len(order))
	for _, id := range order {
		deduped = append(deduped, best[id])
	}
	return deduped
}
