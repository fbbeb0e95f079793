package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pantry-planner/internal/database"
	"pantry-planner/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.db")
	db, err := database.NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL), path
}

func TestStoreDailyUsage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Analyst", PromptTokens: 100, CompletionTokens: 20, Success: true, Timestamp: now}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Planner", PromptTokens: 50, CompletionTokens: 10, Success: false, Timestamp: now}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Planner", PromptTokens: 1, Timestamp: now.AddDate(0, 0, -40)}))

	usage, err := s.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, now.Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 150, usage[0].TotalPrompt)
	assert.Equal(t, 30, usage[0].TotalCompletion)
	assert.Equal(t, 2, usage[0].TotalExecution)
	assert.Equal(t, 1, usage[0].Failures)

	removed, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	r := NewRecorder(s, c, nil)

	meta := shared.AgentMeta{
		AgentName: "Analyst",
		Usage:     shared.TokenUsage{PromptTokens: 12, CompletionTokens: 3, Model: "gemini"},
		Latency:   time.Second,
	}
	r.Record(ctx, meta, nil)
	r.Record(ctx, meta, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.aiRequestsTotal.WithLabelValues("Analyst", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.aiRequestsTotal.WithLabelValues("Analyst", "error")))
	assert.Equal(t, 24.0, testutil.ToFloat64(c.aiTokensTotal.WithLabelValues("Analyst", "prompt")))

	usage, err := s.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 2, usage[0].TotalExecution)
	assert.Equal(t, 1, usage[0].Failures)

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestRecorderWithoutSinks(t *testing.T) {
	r := NewRecorder(nil, nil, nil)
	assert.NotPanics(t, func() {
		r.Record(context.Background(), shared.AgentMeta{AgentName: "x"}, nil)
	})
}

func TestGetSysHealth(t *testing.T) {
	_, path := newTestStore(t)
	h := GetSysHealth(path)
	assert.Positive(t, h.Goroutines)
	assert.True(t, strings.HasSuffix(h.DatabaseSize, "B"))

	missing := GetSysHealth(filepath.Join(os.TempDir(), "does-not-exist.db"))
	assert.Equal(t, "0 B", missing.DatabaseSize)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
