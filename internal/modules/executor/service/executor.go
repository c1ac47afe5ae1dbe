package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"captrader/internal/levels"
	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
	journal "captrader/internal/modules/journal/service"
	"captrader/internal/modules/metrics"
	"captrader/internal/notify"
	"captrader/pkg/logger"
)

// settleDelay is how long to wait after a placement before asking the
// broker whether the deal actually opened with its protective levels.
const settleDelay = 2 * time.Second

// Verifier checks a freshly placed order once it has settled.
type Verifier interface {
	VerifyAfterOpen(ctx context.Context, dealReference string)
}

type distEntry struct {
	spec      models.DistanceSpec
	fetchedAt time.Time
}

// Executor turns trade intents into broker orders. It owns the
// protective-level attachment and the market distance cache; order
// placement itself is never retried.
type Executor struct {
	cfg         *config.Config
	instruments *config.Instruments
	broker      capital.Broker
	verifier    Verifier
	journal     journal.Journal
	notifier    notify.Notifier

	distMu    sync.Mutex
	distances map[string]distEntry
}

func NewExecutor(
	cfg *config.Config,
	instruments *config.Instruments,
	broker capital.Broker,
	verifier Verifier,
	j journal.Journal,
	n notify.Notifier,
) *Executor {
	return &Executor{
		cfg:         cfg,
		instruments: instruments,
		broker:      broker,
		verifier:    verifier,
		journal:     j,
		notifier:    n,
		distances:   make(map[string]distEntry),
	}
}

// Execute places a force-open order for the intent with take-profit and
// stop-loss attached. On success it schedules a post-settle verification
// of the new deal and returns without waiting for it.
func (e *Executor) Execute(ctx context.Context, intent models.TradeIntent) (models.OrderResult, error) {
	if !intent.Side.Valid() {
		return models.OrderResult{}, fmt.Errorf("execute %s: invalid side %q", intent.Symbol, intent.Side)
	}
	if intent.ReferencePrice <= 0 {
		return models.OrderResult{}, fmt.Errorf("execute %s: invalid reference price %f", intent.Symbol, intent.ReferencePrice)
	}

	spec, err := e.distanceSpec(ctx, intent.Symbol)
	if err != nil {
		metrics.OrdersPlaced.WithLabelValues(string(intent.Side), "error").Inc()
		return models.OrderResult{}, fmt.Errorf("distance spec %s: %w", intent.Symbol, err)
	}

	size := e.orderSize(ctx, intent)
	lv := levels.Protective(intent.Side, intent.ReferencePrice, e.cfg.Trading.ProtectiveOffset, spec.MinDistance)

	res, err := e.broker.PlaceOrder(ctx, capital.OrderRequest{
		Symbol:     intent.Symbol,
		Direction:  intent.Side,
		Size:       size,
		TakeProfit: lv.TakeProfit,
		StopLoss:   lv.StopLoss,
	})
	if err != nil {
		outcome := "error"
		if capital.IsRejected(err) {
			outcome = "rejected"
		}
		metrics.OrdersPlaced.WithLabelValues(string(intent.Side), outcome).Inc()
		logger.Error("order %s %s size=%f failed: %v", intent.Side, intent.Symbol, size, err)
		return models.OrderResult{}, err
	}

	metrics.OrdersPlaced.WithLabelValues(string(intent.Side), "ok").Inc()
	logger.Info("order placed: %s %s size=%f ref=%s tp=%.2f sl=%.2f (%s)",
		intent.Side, intent.Symbol, size, res.DealReference, *lv.TakeProfit, *lv.StopLoss, intent.Reason)
	e.notifier.Sendf("📈 %s %s size=%f @ %.2f tp=%.2f sl=%.2f",
		intent.Side, intent.Symbol, size, intent.ReferencePrice, *lv.TakeProfit, *lv.StopLoss)
	e.journal.Record(ctx, journal.Entry{
		Kind:          "ORDER",
		Symbol:        intent.Symbol,
		Side:          string(intent.Side),
		DealReference: res.DealReference,
		Level:         intent.ReferencePrice,
		Size:          size,
		Detail:        intent.Reason,
	})

	e.scheduleVerify(res.DealReference)
	return res, nil
}

// orderSize resolves the deal size: the strategy's risk-derived size when
// it produced one, otherwise the per-instrument lot table, floored at the
// broker's minimum deal size when that is known.
func (e *Executor) orderSize(ctx context.Context, intent models.TradeIntent) float64 {
	size := intent.Size
	if size <= 0 {
		size = e.instruments.LotSize(intent.Symbol)
	}
	minLot, err := e.broker.GetMinLotSize(ctx, intent.Symbol)
	if err != nil {
		logger.Warn("min lot size %s unavailable: %v", intent.Symbol, err)
		return size
	}
	if minLot > 0 && size < minLot {
		logger.Info("size %f below broker minimum for %s, raising to %f", size, intent.Symbol, minLot)
		size = minLot
	}
	return size
}

// distanceSpec is a fetch-through cache over the market details endpoint.
// Distance rules change rarely, so entries live for Cache.DistanceTTL.
func (e *Executor) distanceSpec(ctx context.Context, symbol string) (models.DistanceSpec, error) {
	e.distMu.Lock()
	entry, ok := e.distances[symbol]
	e.distMu.Unlock()
	if ok && time.Since(entry.fetchedAt) < e.cfg.Cache.DistanceTTL {
		return entry.spec, nil
	}

	spec, err := e.broker.GetMarketDistanceSpec(ctx, symbol)
	if err != nil {
		if ok {
			// Stale beats nothing when the refresh fails.
			return entry.spec, nil
		}
		return models.DistanceSpec{}, err
	}

	e.distMu.Lock()
	e.distances[symbol] = distEntry{spec: spec, fetchedAt: time.Now()}
	e.distMu.Unlock()
	return spec, nil
}

func (e *Executor) scheduleVerify(dealReference string) {
	if e.verifier == nil || dealReference == "" {
		return
	}
	go func() {
		time.Sleep(settleDelay)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		e.verifier.VerifyAfterOpen(ctx, dealReference)
	}()
}
