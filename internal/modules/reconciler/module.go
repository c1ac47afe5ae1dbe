package reconciler

import (
	"go.uber.org/fx"

	"captrader/internal/modules/reconciler/service"
)

func Module() fx.Option {
	return fx.Module("reconciler",
		fx.Provide(
			service.NewReconciler,
		),
	)
}
