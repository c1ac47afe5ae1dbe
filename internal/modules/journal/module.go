package journal

import (
	"context"

	"go.uber.org/fx"

	"captrader/internal/modules/config"
	"captrader/internal/modules/journal/service"
	"captrader/pkg/db"
	"captrader/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (service.Journal, error) {
				if cfg.DB == "" {
					logger.Info("no DATABASE_DSN, trade journal disabled")
					return service.NewNoop(), nil
				}
				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, err
				}
				return service.NewPgJournal(ctx, db.NewPgTxManager(pool))
			},
		),
	)
}
