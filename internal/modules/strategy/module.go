package strategy

import (
	"go.uber.org/fx"

	"captrader/internal/modules/strategy/service"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewStrategy,
		),
	)
}
