package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

// providersLimit caps the structured provider search independently of the
// per-question result limit.
const providersLimit = 100

// AskResult is the answer to a free-text question. When the question is out
// of scope, InScope is false and Reason explains why; otherwise Answer holds
// a natural-language summary and Results the ranked candidates.
type AskResult struct {
	InScope     bool                   `json:"in_scope"`
	Reason      string                 `json:"reason,omitempty"`
	Answer      string                 `json:"answer,omitempty"`
	Intent      entities.RankingIntent `json:"intent,omitempty"`
	Results     []*entities.Candidate  `json:"results,omitempty"`
	AverageCost *float64               `json:"average_cost,omitempty"`
	// AverageCount is the number of offerings behind AverageCost, which can
	// exceed len(Results) because the aggregate runs before the limit.
	AverageCount int `json:"average_count,omitempty"`
}

// NavigatorService is the query-resolution pipeline: extract parameters,
// guard scope, plan the candidate search, rank, and phrase an answer.
type NavigatorService struct {
	extractor *ExtractionService
	guard     *IntentGuardService
	planner   *SearchPlannerService
	ranker    *RankingService
	cfg       config.SearchConfig
}

func NewNavigatorService(extractor *ExtractionService, guard *IntentGuardService, planner *SearchPlannerService, ranker *RankingService, cfg config.SearchConfig) *NavigatorService {
	return &NavigatorService{
		extractor: extractor,
		guard:     guard,
		planner:   planner,
		ranker:    ranker,
		cfg:       cfg,
	}
}

// Ask answers a free-text question end to end.
func (s *NavigatorService) Ask(ctx context.Context, question string) (*AskResult, error) {
	ctx, span := observability.StartSpan(ctx, "Navigator.Ask")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.NewValidationError("question must not be empty")
	}

	draft, err := s.extractor.Extract(ctx, question)
	if err != nil {
		return nil, err
	}

	decision, err := s.guard.Classify(ctx, question, draft)
	if err != nil {
		return nil, err
	}
	if decision.OutOfScope {
		return &AskResult{InScope: false, Reason: decision.Reason}, nil
	}

	spec := decision.Spec
	candidates, err := s.planner.Plan(ctx, spec)
	if err != nil {
		return nil, err
	}

	result := &AskResult{InScope: true, Intent: spec.Intent}

	if spec.Intent == entities.IntentAverageCost {
		// The aggregate covers every candidate inside the exact radius,
		// not just the ones that survive the result limit.
		if avg, n := averageCost(candidates); n > 0 {
			rounded := math.Round(avg*100) / 100
			result.AverageCost = &rounded
			result.AverageCount = n
		}
	}

	result.Results = s.ranker.Rank(candidates, spec.Intent, spec.Limit)
	result.Answer = s.phraseAnswer(spec, result)
	return result, nil
}

// SearchProviders is the structured search path: an explicit DRG, ZIP, and
// radius with no free text to interpret. It shares the guard's validation
// and clamping with the question path.
func (s *NavigatorService) SearchProviders(ctx context.Context, drg, zip string, radiusKm *float64) ([]*entities.Candidate, error) {
	ctx, span := observability.StartSpan(ctx, "Navigator.SearchProviders")
	defer span.End()

	if strings.TrimSpace(drg) == "" {
		return nil, apperrors.NewValidationError("drg is required")
	}
	if strings.TrimSpace(zip) == "" {
		return nil, apperrors.NewValidationError("zip is required")
	}
	if radiusKm != nil && *radiusKm <= 0 {
		return nil, apperrors.NewValidationError("radius_km must be greater than zero")
	}

	draft := &entities.QuerySpecDraft{
		PostalCode: strings.TrimSpace(zip),
		RadiusKm:   radiusKm,
		Intent:     entities.IntentCheapest,
		Origin:     entities.OriginPattern,
	}
	if isDRGCode(drg) {
		draft.ProcedureCode = strings.TrimSpace(drg)
	} else {
		draft.ProcedureText = strings.TrimSpace(drg)
	}
	if !entities.ValidPostalCode(draft.PostalCode) {
		return nil, apperrors.NewValidationError("zip must be a 5-digit postal code")
	}

	decision, err := s.guard.Classify(ctx, "", draft)
	if err != nil {
		return nil, err
	}
	if decision.OutOfScope {
		return nil, apperrors.NewValidationError(decision.Reason)
	}

	candidates, err := s.planner.Plan(ctx, decision.Spec)
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(candidates, entities.IntentCheapest, providersLimit), nil
}

func isDRGCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func averageCost(candidates []*entities.Candidate) (float64, int) {
	if len(candidates) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, c := range candidates {
		sum += c.AverageCost
	}
	return sum / float64(len(candidates)), len(candidates)
}

func (s *NavigatorService) phraseAnswer(spec *entities.QuerySpec, result *AskResult) string {
	procedure := describeProcedure(spec)

	if len(result.Results) == 0 {
		return fmt.Sprintf("No hospitals offering %s were found within %.0f km of your location.", procedure, spec.RadiusKm)
	}

	top := result.Results[0]
	switch spec.Intent {
	case entities.IntentBestRated:
		if top.Rating != nil {
			return fmt.Sprintf("The highest rated hospital offering %s within %.0f km is %s in %s, %s (rating %d/10), charging $%.2f about %.1f km away.",
				procedure, spec.RadiusKm, top.Name, top.City, top.State, *top.Rating, top.AverageCost, top.DistanceKm)
		}
		return fmt.Sprintf("%s in %s, %s offers %s within %.0f km, charging $%.2f about %.1f km away. No rating is available for it.",
			top.Name, top.City, top.State, procedure, spec.RadiusKm, top.AverageCost, top.DistanceKm)
	case entities.IntentAverageCost:
		if result.AverageCost != nil {
			return fmt.Sprintf("The average cost of %s within %.0f km is $%.2f across %d offerings.",
				procedure, spec.RadiusKm, *result.AverageCost, result.AverageCount)
		}
		return fmt.Sprintf("No cost data for %s was found within %.0f km.", procedure, spec.RadiusKm)
	case entities.IntentTopN, entities.IntentDefault:
		return fmt.Sprintf("Found %d hospitals offering %s within %.0f km. The closest is %s in %s, %s, %.1f km away, charging $%.2f.",
			len(result.Results), procedure, spec.RadiusKm, top.Name, top.City, top.State, top.DistanceKm, top.AverageCost)
	default:
		return fmt.Sprintf("The cheapest hospital offering %s within %.0f km is %s in %s, %s, charging $%.2f about %.1f km away.",
			procedure, spec.RadiusKm, top.Name, top.City, top.State, top.AverageCost, top.DistanceKm)
	}
}

func describeProcedure(spec *entities.QuerySpec) string {
	if spec.ProcedureCode != "" {
		return "DRG " + spec.ProcedureCode
	}
	return fmt.Sprintf("%q", spec.ProcedureText)
}
