package main

import (
	"context"
	"os"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/gateway"
	"github.com/nulzo/epoch/internal/journal"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/llm/factory"
	"github.com/nulzo/epoch/internal/platform/logger"
	"github.com/nulzo/epoch/internal/platform/otel"
	"github.com/nulzo/epoch/internal/store"
	"github.com/nulzo/epoch/internal/store/sqlite"
	"go.uber.org/zap"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	factory  *factory.Factory
	repo     store.Repository
	ingestor journal.Ingestor
	service  gateway.Service
	shutdown otel.Shutdown
}

// newApp loads configuration and wires the service. withJournal opens the
// sqlite journal when DATABASE_DSN is set.
func newApp(ctx context.Context, withJournal bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.Get()

	shutdown, err := otel.InitTracer(cfg.Tracing, log, os.Stderr)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, shutdown: shutdown, ingestor: journal.Discard{}}

	a.factory = factory.New(
		config.NewResolverFrom(cfg),
		factory.WithLogger(log),
		factory.WithClientContext(llm.StaticClientContext{
			Origin: cfg.OpenRouter.SiteURL,
			Title:  cfg.OpenRouter.AppTitle,
		}),
	)

	if withJournal && cfg.Database.DSN != "" {
		repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
		if err != nil {
			return nil, err
		}
		a.repo = repo
		a.ingestor = journal.NewIngestor(log.Named("journal"), repo)
		a.ingestor.Start(ctx)
	}

	a.service = gateway.NewService(log.Named("gateway"), a.factory, a.repo, a.ingestor, cfg.LLM.Timeout)
	return a, nil
}

func (a *app) close(ctx context.Context) {
	a.ingestor.Stop()
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close journal", zap.Error(err))
		}
	}
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn("Failed to flush traces", zap.Error(err))
	}
}
