package capital

import (
	"go.uber.org/fx"

	"captrader/internal/modules/capital/service"
)

func Module() fx.Option {
	return fx.Module("capital",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) service.Broker { return c },
		),
	)
}
