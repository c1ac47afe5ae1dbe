package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
	executor "captrader/internal/modules/executor/service"
	health "captrader/internal/modules/health/service"
	marketdata "captrader/internal/modules/marketdata/service"
	"captrader/internal/modules/metrics"
	reconciler "captrader/internal/modules/reconciler/service"
	strategy "captrader/internal/modules/strategy/service"
	"captrader/pkg/logger"
)

// symbolPacing spaces broker calls inside one cycle so a long symbol
// list does not burst into the rate limit.
const symbolPacing = time.Second

// Engine owns the two long-lived loops: the trading cycle over the
// configured symbols and the position reconciliation pass. It also
// carries the reactive entry point used by the webhook listener.
type Engine struct {
	cfg         *config.Config
	instruments *config.Instruments
	broker      capital.Broker
	provider    *marketdata.Provider
	strategy    strategy.Strategy
	executor    *executor.Executor
	reconciler  *reconciler.Reconciler
	state       *health.State
}

func NewEngine(
	cfg *config.Config,
	instruments *config.Instruments,
	broker capital.Broker,
	provider *marketdata.Provider,
	stg strategy.Strategy,
	exec *executor.Executor,
	rec *reconciler.Reconciler,
	state *health.State,
) *Engine {
	return &Engine{
		cfg:         cfg,
		instruments: instruments,
		broker:      broker,
		provider:    provider,
		strategy:    stg,
		executor:    exec,
		reconciler:  rec,
		state:       state,
	}
}

// RunTradeLoop repairs leftover positions, flips readiness and then runs
// the trading cycle until ctx is cancelled.
func (e *Engine) RunTradeLoop(ctx context.Context) {
	e.reconciler.RepairMissing(ctx)
	e.state.SetReady(true)
	logger.Info("trading loop started: strategy=%s symbols=%v interval=%s",
		e.strategy.Name(), e.instruments.Symbols, e.cfg.Trading.Interval)

	ticker := time.NewTicker(e.cfg.Trading.Interval)
	defer ticker.Stop()

	e.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.cycle(ctx)
		}
	}
}

// RunReconcileLoop runs ReconcileAll on its own cadence, independently of
// the trading cycle.
func (e *Engine) RunReconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Trading.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reconciler.ReconcileAll(ctx)
		}
	}
}

func (e *Engine) cycle(ctx context.Context) {
	defer e.state.TouchCycle(time.Now())

	balance, err := e.broker.GetAccountBalance(ctx)
	if err != nil {
		logger.Error("account balance: %v", err)
		return
	}

	for i, symbol := range e.instruments.Symbols {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(symbolPacing):
			}
		}
		e.evaluateSymbol(ctx, symbol, balance)
	}
}

func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, balance float64) {
	history, err := e.provider.History(ctx, symbol)
	if err != nil {
		logger.Error("price history %s: %v", symbol, err)
		return
	}

	intent := e.strategy.Evaluate(symbol, history, balance)
	if intent == nil {
		return
	}
	metrics.Signals.WithLabelValues(e.strategy.Name(), string(intent.Side)).Inc()
	logger.Info("signal: %s %s @ %.2f (%s)", intent.Side, symbol, intent.ReferencePrice, intent.Reason)

	if _, err := e.executor.Execute(ctx, *intent); err != nil {
		logger.Error("execute %s %s: %v", intent.Side, symbol, err)
	}
}

// Trigger is the reactive path: an externally supplied signal goes
// straight to the executor, bypassing the strategy. Validation mirrors
// what the webhook contract promises before any broker call is made.
func (e *Engine) Trigger(ctx context.Context, symbol, action string, price float64) (models.OrderResult, error) {
	if symbol == "" {
		return models.OrderResult{}, fmt.Errorf("symbol is required")
	}
	side := models.Side(action)
	if !side.Valid() {
		return models.OrderResult{}, fmt.Errorf("action must be BUY or SELL, got %q", action)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return models.OrderResult{}, fmt.Errorf("price must be a positive number, got %f", price)
	}

	metrics.Signals.WithLabelValues("webhook", string(side)).Inc()
	return e.executor.Execute(ctx, models.TradeIntent{
		Symbol:         symbol,
		Side:           side,
		ReferencePrice: price,
		Mode:           "WEBHOOK",
		Reason:         "external signal",
	})
}
