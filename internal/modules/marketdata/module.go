package marketdata

import (
	"context"

	"go.uber.org/fx"

	"captrader/internal/modules/marketdata/service"
	"captrader/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			service.NewProvider,
			service.NewStreamer,
		),
		fx.Invoke(func(lc fx.Lifecycle, streamer *service.Streamer, ctx context.Context) {
			if !streamer.Enabled() {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("quote streamer started")
						streamer.Run(ctx)
					}()
					return nil
				},
			})
		}),
	)
}
