// Package bootstrap wires configuration, storage, the AI gateway and the
// application core the same way for every binary.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"pantry-planner/internal/app"
	"pantry-planner/internal/clipper"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/gateway"
	"pantry-planner/internal/ghost"
	"pantry-planner/internal/importer"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options tune how services are built.
type Options struct {
	// Ephemeral keeps all state in memory and skips the SQLite database.
	Ephemeral bool
	// Registry receives the Prometheus collectors; nil disables them.
	Registry prometheus.Registerer
}

// Services is the wired application.
type Services struct {
	Config   *config.Config
	Logger   *zap.Logger
	App      *app.App
	Gateway  *gateway.Gateway
	Importer *importer.Importer
	// Ghost is nil when no blog is configured.
	Ghost *ghost.Client
	// Metrics is nil for ephemeral runs.
	Metrics *metrics.Store

	closers []func() error
}

// New builds every service and loads the persisted state.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger}

	backend := storage.Backend(storage.NewMemoryBackend())
	if !opts.Ephemeral {
		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		backend = storage.NewSQLBackend(db.SQL)
		s.Metrics = metrics.NewStore(db.SQL)
	}

	gen, err := llm.New(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize %s client: %w", cfg.AIProvider, err)
	}
	if c, ok := gen.(llm.Closer); ok {
		s.closers = append(s.closers, c.Close)
	}

	var collector *metrics.Collector
	if opts.Registry != nil {
		collector = metrics.NewCollector(opts.Registry)
	}
	recorder := metrics.NewRecorder(s.Metrics, collector, logger)

	s.Gateway = gateway.New(gen, recorder, logger.Named("gateway"))
	s.App = app.New(storage.NewStore(backend, logger.Named("storage")), s.Gateway, logger.Named("app"))
	s.App.Load(ctx)

	var posts importer.PostSource
	if cfg.HasGhost() {
		s.Ghost = ghost.NewClient(cfg)
		posts = s.Ghost
	}
	s.Importer = importer.New(s.Gateway, s.App, clipper.New(cfg.AITimeout), posts, logger.Named("importer"))

	return s, nil
}

// Close releases the database and the AI client.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
