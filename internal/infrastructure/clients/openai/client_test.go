package openai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
)

func TestTokenBucket_CloseStopsRefill(t *testing.T) {
	// 600 rpm gives a 100ms refill interval, so closing right after the
	// burst is drained leaves no window for a stray tick.
	bucket := newTokenBucket(600, 1)
	require.NoError(t, bucket.Wait(context.Background()))

	bucket.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	err := bucket.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientClose_Idempotent(t *testing.T) {
	client, err := NewClient(&config.OpenAIConfig{APIKey: "test-key"})
	require.NoError(t, err)

	client.Close()
	client.Close()
}
