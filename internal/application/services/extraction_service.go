package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/providers"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
)

// QueryExtractor turns a free-text question into a draft query. A nil draft
// with a nil error means the extractor could not find anything usable.
type QueryExtractor interface {
	Extract(ctx context.Context, question string) (*entities.QuerySpecDraft, error)
}

const milesPerKm = 0.621371

var (
	drgCodeRe   = regexp.MustCompile(`(?i)\bdrg\s*#?\s*(\d{1,3})\b`)
	bareCodeRe  = regexp.MustCompile(`\b(\d{3})\b`)
	postalRe    = regexp.MustCompile(`\b(\d{5})\b`)
	radiusRe    = regexp.MustCompile(`(?i)\b(?:within|in|under)\s+(\d+(?:\.\d+)?)\s*(kilometers?|kms?|miles?|mi)\b`)
	topNRe      = regexp.MustCompile(`(?i)\btop\s+(\d+)\b`)
	procTextRe  = regexp.MustCompile(`(?i)\b(?:for|of)\s+(.+?)\s+(?:near|within|around|in|close to)\b`)
	quotedRe    = regexp.MustCompile(`"([^"]+)"`)
	cheapestRe  = regexp.MustCompile(`(?i)\b(cheapest|lowest|least expensive|most affordable|affordable)\b`)
	bestRatedRe = regexp.MustCompile(`(?i)\b(best[\s-]?rated|highest[\s-]?rated|top[\s-]?rated|best)\b`)
	averageRe   = regexp.MustCompile(`(?i)\b(average|avg|typical|mean)\s+(cost|price|charge)`)
)

// PatternExtractor is the deterministic extractor. It recognizes a small
// grammar over the question text: DRG codes, 5-digit ZIP codes, a radius
// with unit, and ranking superlatives.
type PatternExtractor struct{}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract never returns an error: a question the grammar cannot parse yields
// an empty draft, which the downstream guard classifies as out of scope.
func (e *PatternExtractor) Extract(_ context.Context, question string) (*entities.QuerySpecDraft, error) {
	draft := &entities.QuerySpecDraft{Origin: entities.OriginPattern}
	q := strings.TrimSpace(question)

	if m := postalRe.FindStringSubmatch(q); m != nil {
		draft.PostalCode = m[1]
	}

	if m := drgCodeRe.FindStringSubmatch(q); m != nil {
		draft.ProcedureCode = m[1]
	} else {
		draft.ProcedureCode = bareCode(q)
	}

	if draft.ProcedureCode == "" {
		if m := quotedRe.FindStringSubmatch(q); m != nil {
			draft.ProcedureText = strings.TrimSpace(m[1])
		} else if m := procTextRe.FindStringSubmatch(q); m != nil {
			text := strings.TrimSpace(m[1])
			if text != "" && !postalRe.MatchString(text) {
				draft.ProcedureText = text
			}
		}
	}

	if m := radiusRe.FindStringSubmatch(q); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil && value > 0 {
			unit := strings.ToLower(m[2])
			if strings.HasPrefix(unit, "mi") {
				value = value / milesPerKm
			}
			draft.RadiusKm = &value
		}
	}

	if m := topNRe.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			draft.Limit = &n
			draft.Intent = entities.IntentTopN
		}
	}

	switch {
	case averageRe.MatchString(q):
		draft.Intent = entities.IntentAverageCost
	case cheapestRe.MatchString(q):
		draft.Intent = entities.IntentCheapest
	case draft.Intent == entities.IntentTopN:
		// keep top_n from the top-N clause above
	case bestRatedRe.MatchString(q):
		draft.Intent = entities.IntentBestRated
	}

	return draft, nil
}

// bareCode finds a standalone 3-digit number to treat as a DRG code. Digits
// already claimed by the ZIP, radius, or top-N clauses are off limits, so
// "within 250 km" or "top 100" never masquerades as a procedure code.
func bareCode(q string) string {
	var claimed [][]int
	for _, re := range []*regexp.Regexp{postalRe, radiusRe, topNRe} {
		if loc := re.FindStringIndex(q); loc != nil {
			claimed = append(claimed, loc)
		}
	}
	for _, m := range bareCodeRe.FindAllStringSubmatchIndex(q, -1) {
		if overlapsAny(claimed, m[2], m[3]) {
			continue
		}
		return q[m[2]:m[3]]
	}
	return ""
}

func overlapsAny(spans [][]int, start, end int) bool {
	for _, span := range spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

// InferenceExtractor delegates to a model-backed provider. Its output is
// untrusted: the provider already drops malformed fields, and the guard
// revalidates whatever remains.
type InferenceExtractor struct {
	provider providers.QueryInferenceProvider
}

func NewInferenceExtractor(provider providers.QueryInferenceProvider) *InferenceExtractor {
	return &InferenceExtractor{provider: provider}
}

func (e *InferenceExtractor) Extract(ctx context.Context, question string) (*entities.QuerySpecDraft, error) {
	return e.provider.InferQueryDraft(ctx, question)
}

var (
	extractionMetricsOnce     sync.Once
	extractionCounter         metric.Int64Counter
	extractionFallbackCounter metric.Int64Counter
)

func initExtractionMetrics() {
	meter := otel.GetMeterProvider().Meter("hospital-cost-navigator/extraction")
	extractionCounter, _ = meter.Int64Counter("extraction_total",
		metric.WithDescription("Parameter extraction attempts by origin"))
	extractionFallbackCounter, _ = meter.Int64Counter("extraction_fallback_total",
		metric.WithDescription("Inference extractions that fell back to the pattern grammar"))
}

// ExtractionService runs the inference extractor first when one is
// configured and falls back to the pattern grammar whenever inference
// fails, times out, or produces nothing usable. Callers never see
// inference errors; the fallback is silent.
type ExtractionService struct {
	pattern      QueryExtractor
	inference    QueryExtractor
	cache        providers.CacheProvider
	cacheTTLSecs int
}

func NewExtractionService(pattern QueryExtractor, inference QueryExtractor, cache providers.CacheProvider) *ExtractionService {
	extractionMetricsOnce.Do(initExtractionMetrics)
	return &ExtractionService{
		pattern:      pattern,
		inference:    inference,
		cache:        cache,
		cacheTTLSecs: int((24 * time.Hour).Seconds()),
	}
}

// Extract produces a draft for the question. The returned draft is always
// non-nil and carries the origin of the extractor that produced it.
func (s *ExtractionService) Extract(ctx context.Context, question string) (*entities.QuerySpecDraft, error) {
	logger := observability.LoggerFromContext(ctx)

	if cached := s.cachedDraft(ctx, question); cached != nil {
		return cached, nil
	}

	if s.inference != nil {
		draft, err := s.inference.Extract(ctx, question)
		if err == nil && draft != nil && !draft.Empty() {
			s.recordExtraction(ctx, entities.OriginInference)
			s.storeDraft(ctx, question, draft)
			return draft, nil
		}
		if err != nil {
			logger.Warn().Err(err).Msg("query inference failed, falling back to pattern extraction")
		}
		if extractionFallbackCounter != nil {
			extractionFallbackCounter.Add(ctx, 1)
		}
	}

	draft, err := s.pattern.Extract(ctx, question)
	if err != nil {
		return nil, err
	}
	s.recordExtraction(ctx, entities.OriginPattern)
	s.storeDraft(ctx, question, draft)
	return draft, nil
}

func (s *ExtractionService) recordExtraction(ctx context.Context, origin entities.DraftOrigin) {
	if extractionCounter == nil {
		return
	}
	extractionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("origin", string(origin))))
}

func draftCacheKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	return "draft:" + normalized
}

func (s *ExtractionService) cachedDraft(ctx context.Context, question string) *entities.QuerySpecDraft {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, draftCacheKey(question))
	if err != nil || len(raw) == 0 {
		return nil
	}
	var draft entities.QuerySpecDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil
	}
	return &draft
}

func (s *ExtractionService) storeDraft(ctx context.Context, question string, draft *entities.QuerySpecDraft) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return
	}
	// Cache failures only cost us a recompute.
	_ = s.cache.Set(ctx, draftCacheKey(question), raw, s.cacheTTLSecs)
}
