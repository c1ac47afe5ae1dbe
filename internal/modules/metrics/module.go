package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"captrader/internal/modules/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RunHTTP(lc fx.Lifecycle, cfg *config.Config) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Service.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("metrics",
		fx.Invoke(RunHTTP),
	)
}
