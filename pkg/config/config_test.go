package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_SearchBounds(t *testing.T) {
	// Setup environment variables
	os.Setenv("SEARCH_DEFAULT_RADIUS_KM", "25")
	os.Setenv("SEARCH_MAX_LIMIT", "20")
	defer func() {
		os.Unsetenv("SEARCH_DEFAULT_RADIUS_KM")
		os.Unsetenv("SEARCH_MAX_LIMIT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 25.0, cfg.Search.DefaultRadiusKm)
	assert.Equal(t, 20, cfg.Search.MaxLimit)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("SEARCH_DEFAULT_RADIUS_KM")
	os.Unsetenv("SEARCH_MAX_RADIUS_KM")
	os.Unsetenv("OPENAI_TIMEOUT")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, 40.0, cfg.Search.DefaultRadiusKm)
	assert.Equal(t, 500.0, cfg.Search.MaxRadiusKm)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.Equal(t, 5*time.Second, cfg.OpenAI.Timeout)
}

func TestLoad_OpenAITimeout(t *testing.T) {
	os.Setenv("OPENAI_TIMEOUT", "2s")
	defer os.Unsetenv("OPENAI_TIMEOUT")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.OpenAI.Timeout)
}
