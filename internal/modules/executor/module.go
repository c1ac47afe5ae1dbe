package executor

import (
	"go.uber.org/fx"

	"captrader/internal/modules/executor/service"
	reconcilersvc "captrader/internal/modules/reconciler/service"
)

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			func(r *reconcilersvc.Reconciler) service.Verifier { return r },
			service.NewExecutor,
		),
	)
}
