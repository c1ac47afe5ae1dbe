package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"captrader/internal/modules/capital"
	"captrader/internal/modules/config"
	"captrader/internal/modules/engine"
	"captrader/internal/modules/executor"
	"captrader/internal/modules/health"
	"captrader/internal/modules/journal"
	"captrader/internal/modules/marketdata"
	"captrader/internal/modules/metrics"
	"captrader/internal/modules/reconciler"
	"captrader/internal/modules/strategy"
	"captrader/internal/modules/webhook"
	"captrader/internal/notify"
	"captrader/pkg/logger"
	"captrader/pkg/tracing"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newNotifier,
		),
		fx.Invoke(initTracing),
		config.Module(),
		capital.Module(),
		metrics.Module(),
		marketdata.Module(),
		strategy.Module(),
		journal.Module(),
		reconciler.Module(),
		executor.Module(),
		engine.Module(),
		webhook.Module(),
		health.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		logger.Fatal("start: %v", err)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		logger.Error("stop: %v", err)
	}
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Error("telegram init failed, falling back to stdout: %v", err)
			return notify.NewStdout()
		}
		return tg
	}
	return notify.NewStdout()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
