package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tahles")
	t.Setenv("CRAWL_MAX_PAGES", "")
	t.Setenv("CRAWL_PACE_MIN_MS", "")
	t.Setenv("CRAWL_PACE_MAX_MS", "")
	t.Setenv("CRAWL_SOURCES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.PaceMin)
	assert.Equal(t, 3*time.Second, cfg.PaceMax)
	assert.Empty(t, cfg.Sources)
}

func TestLoadSourcesList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tahles")
	t.Setenv("CRAWL_SOURCES", "titti, sexfire ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"titti", "sexfire"}, cfg.Sources)
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
}

func TestValidatePaceWindow(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tahles")
	t.Setenv("CRAWL_PACE_MIN_MS", "2000")
	t.Setenv("CRAWL_PACE_MAX_MS", "1000")
	_, err := Load()
	require.Error(t, err)
}
