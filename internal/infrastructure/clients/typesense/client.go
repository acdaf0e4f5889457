package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
	"github.com/zatekoja/hospital-cost-navigator/pkg/retry"
)

const (
	// OfferingsCollection holds one document per (provider, procedure) pair.
	OfferingsCollection = "procedure_offerings"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryConfig := retry.DefaultConfig()
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).
				Msg("Typesense connection attempt failed, retrying")
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the offerings collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == OfferingsCollection {
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: OfferingsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "provider_id", Type: "string", Facet: pointer.True()},
			{Name: "name", Type: "string"},
			{Name: "city", Type: "string", Optional: pointer.True()},
			{Name: "state", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "zip_code", Type: "string", Optional: pointer.True()},
			{Name: "drg_definition", Type: "string"},
			{Name: "average_covered_charges", Type: "float"},
			{Name: "rating", Type: "int32", Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
		},
		DefaultSortingField: pointer.String("average_covered_charges"),
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", OfferingsCollection).Msg("created Typesense collection")
	return nil
}
