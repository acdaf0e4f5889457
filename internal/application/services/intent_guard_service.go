package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/providers"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
)

// ScopeDecision is the outcome of classifying a question. Out-of-scope is a
// result, not an error: OutOfScope true with a Reason, Spec nil. In-scope
// yields the promoted, immutable QuerySpec.
type ScopeDecision struct {
	OutOfScope bool
	Reason     string
	Spec       *entities.QuerySpec
}

var scopeKeywordRe = regexp.MustCompile(`(?i)\b(hospital|provider|cost|price|charge|cheap|cheapest|affordable|expensive|drg|procedure|surgery|surgical|treatment|rating|rated|quality|care|medical|clinic)\b`)

var (
	outOfScopeCounterOnce sync.Once
	outOfScopeCounter     metric.Int64Counter
)

// IntentGuardService decides whether a question is answerable, and if so
// promotes the extracted draft into a bounded QuerySpec. All clamping of
// numeric inputs happens here, nowhere downstream.
type IntentGuardService struct {
	geocoder providers.Geocoder
	cfg      config.SearchConfig
}

func NewIntentGuardService(geocoder providers.Geocoder, cfg config.SearchConfig) *IntentGuardService {
	outOfScopeCounterOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("hospital-cost-navigator/intent-guard")
		outOfScopeCounter, _ = meter.Int64Counter("out_of_scope_total",
			metric.WithDescription("Questions classified as outside hospital cost search"))
	})
	return &IntentGuardService{geocoder: geocoder, cfg: cfg}
}

// Classify promotes the draft when the question is in scope. The draft is
// revalidated field by field no matter which extractor produced it; a
// malformed field is dropped before clamping, never clamped into validity.
func (s *IntentGuardService) Classify(ctx context.Context, question string, draft *entities.QuerySpecDraft) (*ScopeDecision, error) {
	logger := observability.LoggerFromContext(ctx)

	if draft == nil {
		draft = &entities.QuerySpecDraft{}
	}

	if reason := s.scopeReason(question, draft); reason != "" {
		if outOfScopeCounter != nil {
			outOfScopeCounter.Add(ctx, 1)
		}
		logger.Info().Str("reason", reason).Msg("question classified out of scope")
		return &ScopeDecision{OutOfScope: true, Reason: reason}, nil
	}

	spec, err := s.promote(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &ScopeDecision{Spec: spec}, nil
}

// scopeReason returns a non-empty human-readable reason when the question
// cannot be answered by a procedure cost search.
func (s *IntentGuardService) scopeReason(question string, draft *entities.QuerySpecDraft) string {
	if !draft.HasProcedureMatch() {
		if question != "" && !scopeKeywordRe.MatchString(question) {
			return "I can only answer questions about hospital procedure costs and quality. Try asking about a procedure (for example a DRG code) near a ZIP code."
		}
		return "I could not identify a procedure in your question. Mention a DRG code or a procedure description."
	}
	if !entities.ValidPostalCode(strings.TrimSpace(draft.PostalCode)) {
		return "I could not identify a location in your question. Include a 5-digit ZIP code."
	}
	return ""
}

// promote builds the immutable QuerySpec: drop invalid optional fields,
// apply defaults, clamp to configured bounds, and resolve the postal code
// to coordinates. A postal code that fails to resolve surfaces as an
// unknown-location error rather than an out-of-scope result.
func (s *IntentGuardService) promote(ctx context.Context, draft *entities.QuerySpecDraft) (*entities.QuerySpec, error) {
	origin, err := s.geocoder.Resolve(ctx, strings.TrimSpace(draft.PostalCode))
	if err != nil {
		return nil, err
	}

	radius := s.cfg.DefaultRadiusKm
	if draft.RadiusKm != nil && *draft.RadiusKm > 0 {
		radius = *draft.RadiusKm
	}
	if radius > s.cfg.MaxRadiusKm {
		radius = s.cfg.MaxRadiusKm
	}

	limit := s.cfg.DefaultLimit
	if draft.Limit != nil && *draft.Limit >= 1 {
		limit = *draft.Limit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	intent := draft.Intent
	if intent == "" || !intent.IsValid() {
		intent = entities.IntentCheapest
	}

	return &entities.QuerySpec{
		ProcedureCode: strings.TrimSpace(draft.ProcedureCode),
		ProcedureText: strings.TrimSpace(draft.ProcedureText),
		Origin:        *origin,
		RadiusKm:      radius,
		Intent:        intent,
		Limit:         limit,
	}, nil
}
