package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "helpdesk",
		Short:         "Helpdesk ticketing API",
		Long:          `Serves the helpdesk REST API and manages its database schema and seed data.`,
		SilenceUsage:  true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

// runtime holds what every subcommand needs before doing its own work.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func bootstrap() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger}, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}

// connectPostgres opens the pool and fails when no DSN is configured.
func (r *runtime) connectPostgres(ctx context.Context) (*persistence.Postgres, error) {
	pg, err := persistence.NewPostgres(ctx, r.cfg.Postgres, r.logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.PoolHandle() == nil {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return pg, nil
}
