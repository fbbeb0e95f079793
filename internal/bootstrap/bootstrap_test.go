package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pantry-planner/internal/config"
	"pantry-planner/internal/settings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AIProvider:           config.ProviderGroq,
		GroqAPIKey:           "test",
		GroqModel:            "test-model",
		AIRateLimitPerMinute: 60,
		AITimeout:            time.Second,
		DatabasePath:         filepath.Join(t.TempDir(), "pantry.db"),
	}
}

func TestNewEphemeral(t *testing.T) {
	s, err := New(context.Background(), testConfig(t), zap.NewNop(), Options{Ephemeral: true})
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.App.Loaded())
	assert.Nil(t, s.Metrics)
	assert.Nil(t, s.Ghost)
	assert.NotNil(t, s.Importer)
}

func TestNewPersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	s, err := New(ctx, cfg, zap.NewNop(), Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	require.NotNil(t, s.Metrics)

	st := settings.Default()
	st.HouseholdSize = 4
	require.NoError(t, s.App.UpdateSettings(ctx, st))
	require.NoError(t, s.Close())

	s, err = New(ctx, cfg, zap.NewNop(), Options{})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 4, s.App.Settings().HouseholdSize)
}

func TestNewWiresGhost(t *testing.T) {
	cfg := testConfig(t)
	cfg.GhostURL = "http://ghost.test"
	cfg.GhostContentKey = "key"

	s, err := New(context.Background(), cfg, zap.NewNop(), Options{Ephemeral: true})
	require.NoError(t, err)
	defer s.Close()
	assert.NotNil(t, s.Ghost)
}
