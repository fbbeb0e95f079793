package metrics

import (
	"context"

	"pantry-planner/internal/shared"

	"go.uber.org/zap"
)

// Recorder fans AI call metadata out to the SQLite store and Prometheus.
// Either sink may be nil. Recording never fails the call being measured.
type Recorder struct {
	store     *Store
	collector *Collector
	logger    *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store *Store, collector *Collector, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, collector: collector, logger: logger}
}

// Record stores meta; callErr is the outcome of the measured call.
func (r *Recorder) Record(ctx context.Context, meta shared.AgentMeta, callErr error) {
	success := callErr == nil
	if r.collector != nil {
		r.collector.observe(meta.AgentName, meta.Latency.Seconds(), meta.Usage.PromptTokens, meta.Usage.CompletionTokens, success)
	}
	if r.store != nil {
		if err := r.store.RecordMeta(ctx, meta, success); err != nil {
			r.logger.Warn("failed to record execution metric", zap.String("agent", meta.AgentName), zap.Error(err))
		}
	}
}
