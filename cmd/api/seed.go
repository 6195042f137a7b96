package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the permission catalogue, default roles and the super admin",
		Long: `Seed is idempotent. Missing permissions and roles are created, role grants are
re-synced and the administrator from SEED_ADMIN_* is created when absent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			ctx := cmd.Context()
			pg, err := rt.connectPostgres(ctx)
			if err != nil {
				return err
			}
			defer pg.Close()

			redis := persistence.NewRedis(rt.cfg.Redis, rt.logger)
			defer redis.Close()

			pool := pg.PoolHandle()
			roles := repository.NewRoleRepository(pool)
			seeder := service.NewSeedService(service.SeedDependencies{
				UserRepo:       repository.NewUserRepository(pool),
				RoleRepo:       roles,
				PermissionRepo: repository.NewPermissionRepository(pool),
				Tx:             persistence.NewTxManager(pool),
				Grants:         auth.NewPermissionCache(roles, redis.Handle(), rt.cfg.RBAC.CacheTTL(), rt.logger),
				BcryptCost:     rt.cfg.Auth.BcryptCost,
				Logger:         rt.logger,
			})
			if err := seeder.Seed(ctx, rt.cfg.Seed); err != nil {
				return err
			}
			rt.logger.Info("seed complete", zap.String("admin_email", rt.cfg.Seed.AdminEmail))
			return nil
		},
	}
}
