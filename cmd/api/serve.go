package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger

	pg, err := rt.connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	tx := persistence.NewTxManager(pool)
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewTicketReplyRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	grants := auth.NewPermissionCache(roleRepo, redis.Handle(), cfg.RBAC.CacheTTL(), logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.App.Name, cfg.Auth.AccessTokenTTLMinutes)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := worker.NewNotificationWorker(
		service.NewNotificationService(logger, cfg.Notification),
		logger,
		cfg.Notification.QueueSize,
		cfg.Notification.Workers,
	)
	notifications.Subscribe(dispatcher)

	activity := service.NewActivityService(activityRepo)
	users := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		RoleRepo:   roleRepo,
		Tx:         tx,
		Auditor:    activity,
		Grants:     grants,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	services := httptransport.Services{
		Auth: service.NewAuthService(service.AuthDependencies{
			UserRepo:     userRepo,
			Grants:       grants,
			UserService:  users,
			TokenManager: tokens,
		}),
		Tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo: ticketRepo,
			UserRepo:   userRepo,
			Tx:         tx,
			Auditor:    activity,
			Codes:      service.NewCodeGenerator(),
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		Replies: service.NewTicketReplyService(service.TicketReplyDependencies{
			ReplyRepo:  replyRepo,
			TicketRepo: ticketRepo,
			UserRepo:   userRepo,
			Tx:         tx,
			Auditor:    activity,
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		Users: users,
		Roles: service.NewRoleService(service.RoleDependencies{
			RoleRepo:       roleRepo,
			PermissionRepo: permissionRepo,
			Tx:             tx,
			Grants:         grants,
			Logger:         logger,
		}),
		Permissions: service.NewPermissionService(permissionRepo, grants),
		Categories: service.NewCategoryService(service.CategoryDependencies{
			CategoryRepo: categoryRepo,
			Tx:           tx,
			Auditor:      activity,
		}),
		Activity: activity,
	}

	dependencies := map[string]handlers.Pinger{"postgres": pg}
	if redis.Handle() != nil {
		dependencies["redis"] = redis
	}

	app, err := httptransport.NewApp(httptransport.AppOptions{
		Name:     cfg.App.Name,
		Version:  cfg.App.Version,
		Services: services,
		Users:    userRepo,
		Grants:   grants,
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Pagination: handlers.Pagination{
			DefaultPerPage: cfg.Pagination.DefaultPerPage,
			MaxPerPage:     cfg.Pagination.MaxPerPage,
		},
		Timeout:      cfg.App.RequestTimeout(),
		Dependencies: dependencies,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return notifications.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}
