package engine

import (
	"context"

	"go.uber.org/fx"

	"captrader/internal/modules/engine/service"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			service.NewEngine,
		),
		fx.Invoke(func(lc fx.Lifecycle, e *service.Engine, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go e.RunTradeLoop(ctx)
					go e.RunReconcileLoop(ctx)
					return nil
				},
			})
		}),
	)
}
