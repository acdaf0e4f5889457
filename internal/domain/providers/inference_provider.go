package providers

import (
	"context"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
)

// QueryInferenceProvider asks an external NL model to turn a free-form
// question into a structured query draft. The draft is advisory: callers must
// revalidate every field before it can reach the search planner.
type QueryInferenceProvider interface {
	InferQueryDraft(ctx context.Context, question string) (*entities.QuerySpecDraft, error)
}
