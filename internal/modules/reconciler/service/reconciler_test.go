package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
	health "captrader/internal/modules/health/service"
	journal "captrader/internal/modules/journal/service"
	"captrader/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

type levelCall struct {
	dealID string
	level  float64
}

type fakeBroker struct {
	mu sync.Mutex

	positions     []models.Position
	positionsErr  error
	details       map[string]models.Position
	confirmations map[string]models.Confirmation
	distance      models.DistanceSpec

	tpErr func(dealID string) error

	tpCalls []levelCall
	slCalls []levelCall
}

func (f *fakeBroker) Authenticate(context.Context) (models.SessionTokens, error) {
	return models.SessionTokens{}, nil
}
func (f *fakeBroker) GetAccountBalance(context.Context) (float64, error) { return 0, nil }
func (f *fakeBroker) GetPrices(context.Context, string, int) (*models.PriceHistory, error) {
	return models.NewPriceHistory(0), nil
}

func (f *fakeBroker) GetPositions(context.Context) ([]models.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeBroker) GetPositionDetail(_ context.Context, dealID string) (models.Position, error) {
	pos, ok := f.details[dealID]
	if !ok {
		return models.Position{}, fmt.Errorf("unknown deal %s", dealID)
	}
	return pos, nil
}

func (f *fakeBroker) PlaceOrder(context.Context, capital.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func (f *fakeBroker) SetTakeProfit(_ context.Context, dealID string, level float64) error {
	if f.tpErr != nil {
		if err := f.tpErr(dealID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.tpCalls = append(f.tpCalls, levelCall{dealID, level})
	f.mu.Unlock()
	return nil
}

func (f *fakeBroker) SetStopLoss(_ context.Context, dealID string, level float64) error {
	f.mu.Lock()
	f.slCalls = append(f.slCalls, levelCall{dealID, level})
	f.mu.Unlock()
	return nil
}

func (f *fakeBroker) ClosePosition(context.Context, string) error { return nil }

func (f *fakeBroker) GetConfirmation(_ context.Context, ref string) (models.Confirmation, error) {
	conf, ok := f.confirmations[ref]
	if !ok {
		return models.Confirmation{}, fmt.Errorf("unknown reference %s", ref)
	}
	return conf, nil
}

func (f *fakeBroker) GetMarketDistanceSpec(context.Context, string) (models.DistanceSpec, error) {
	if f.distance.MinDistance == 0 {
		return models.DistanceSpec{MinDistance: 0.1}, nil
	}
	return f.distance, nil
}

func (f *fakeBroker) GetMinLotSize(context.Context, string) (float64, error) { return 0, nil }

type silentNotifier struct{}

func (silentNotifier) Send(string)          {}
func (silentNotifier) Sendf(string, ...any) {}

func reconcilerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Trading.ProtectiveOffset = 0.005
	cfg.Trading.TPMovePct = 0.005
	cfg.Trading.BreakevenTrigger = 0.01
	return cfg
}

func newTestReconciler(cfg *config.Config, broker capital.Broker) *Reconciler {
	return NewReconciler(cfg, broker, journal.NewNoop(), silentNotifier{}, health.NewState())
}

func fp(v float64) *float64 { return &v }

func TestVerifyAfterOpenRepairsMissingTakeProfit(t *testing.T) {
	broker := &fakeBroker{
		confirmations: map[string]models.Confirmation{
			"R1": {
				DealReference: "R1",
				AffectedDeals: []models.AffectedDeal{{DealID: "D1", Status: "OPENED"}},
			},
		},
		details: map[string]models.Position{
			"D1": {DealID: "D1", Symbol: "BTCUSD", Direction: models.SideBuy, EntryPrice: 100},
		},
		distance: models.DistanceSpec{MinDistance: 0.3},
	}
	r := newTestReconciler(reconcilerConfig(), broker)

	r.VerifyAfterOpen(context.Background(), "R1")

	require.Len(t, broker.tpCalls, 1)
	assert.Equal(t, levelCall{"D1", 100.5}, broker.tpCalls[0])
	assert.Empty(t, broker.slCalls, "missing stop-loss is logged, not repaired, by default")
}

func TestVerifyAfterOpenIsIdempotent(t *testing.T) {
	broker := &fakeBroker{
		confirmations: map[string]models.Confirmation{
			"R1": {DealReference: "R1", DealID: "D1"},
		},
		details: map[string]models.Position{
			"D1": {
				DealID: "D1", Symbol: "BTCUSD", Direction: models.SideBuy, EntryPrice: 100,
				Levels: models.ProtectiveLevels{TakeProfit: fp(100.5), StopLoss: fp(99.5)},
			},
		},
	}
	r := newTestReconciler(reconcilerConfig(), broker)

	r.VerifyAfterOpen(context.Background(), "R1")
	r.VerifyAfterOpen(context.Background(), "R1")

	assert.Empty(t, broker.tpCalls, "present take-profit is never overwritten")
	assert.Empty(t, broker.slCalls)
}

func TestVerifyAfterOpenRepairsStopLossWhenEnabled(t *testing.T) {
	broker := &fakeBroker{
		confirmations: map[string]models.Confirmation{
			"R1": {DealReference: "R1", DealID: "D1"},
		},
		details: map[string]models.Position{
			"D1": {DealID: "D1", Symbol: "BTCUSD", Direction: models.SideBuy, EntryPrice: 100,
				Levels: models.ProtectiveLevels{TakeProfit: fp(100.5)}},
		},
		distance: models.DistanceSpec{MinDistance: 0.3},
	}
	cfg := reconcilerConfig()
	cfg.Trading.RepairStopLoss = true
	r := newTestReconciler(cfg, broker)

	r.VerifyAfterOpen(context.Background(), "R1")

	require.Len(t, broker.slCalls, 1)
	assert.Equal(t, levelCall{"D1", 99.5}, broker.slCalls[0])
}

func TestReconcileAllRepairsNakedPositions(t *testing.T) {
	broker := &fakeBroker{
		positions: []models.Position{
			{DealID: "D1", Symbol: "BTCUSD", Direction: models.SideBuy, EntryPrice: 200},
		},
		distance: models.DistanceSpec{MinDistance: 0.3},
	}
	r := newTestReconciler(reconcilerConfig(), broker)

	r.ReconcileAll(context.Background())

	require.Len(t, broker.tpCalls, 1)
	assert.Equal(t, levelCall{"D1", 201.0}, broker.tpCalls[0])
}

func TestRatchetNeverRetreats(t *testing.T) {
	cfg := reconcilerConfig()

	t.Run("buy ratchets up", func(t *testing.T) {
		broker := &fakeBroker{positions: []models.Position{
			{DealID: "D1", Direction: models.SideBuy, EntryPrice: 100,
				Levels: models.ProtectiveLevels{TakeProfit: fp(100.2)}},
		}}
		newTestReconciler(cfg, broker).ReconcileAll(context.Background())
		require.Len(t, broker.tpCalls, 1)
		assert.Equal(t, levelCall{"D1", 100.5}, broker.tpCalls[0])
	})

	t.Run("buy above target stays", func(t *testing.T) {
		broker := &fakeBroker{positions: []models.Position{
			{DealID: "D1", Direction: models.SideBuy, EntryPrice: 100,
				Levels: models.ProtectiveLevels{TakeProfit: fp(101)}},
		}}
		newTestReconciler(cfg, broker).ReconcileAll(context.Background())
		assert.Empty(t, broker.tpCalls)
	})

	t.Run("sell ratchets down", func(t *testing.T) {
		broker := &fakeBroker{positions: []models.Position{
			{DealID: "D1", Direction: models.SideSell, EntryPrice: 100,
				Levels: models.ProtectiveLevels{TakeProfit: fp(99.8)}},
		}}
		newTestReconciler(cfg, broker).ReconcileAll(context.Background())
		require.Len(t, broker.tpCalls, 1)
		assert.Equal(t, levelCall{"D1", 99.5}, broker.tpCalls[0])
	})

	t.Run("sell below target stays", func(t *testing.T) {
		broker := &fakeBroker{positions: []models.Position{
			{DealID: "D1", Direction: models.SideSell, EntryPrice: 100,
				Levels: models.ProtectiveLevels{TakeProfit: fp(99)}},
		}}
		newTestReconciler(cfg, broker).ReconcileAll(context.Background())
		assert.Empty(t, broker.tpCalls)
	})
}

func TestBreakevenMovesStopToEntryOnce(t *testing.T) {
	pos := models.Position{
		DealID: "D1", Direction: models.SideBuy, EntryPrice: 100, MarketBid: 102,
		Levels: models.ProtectiveLevels{TakeProfit: fp(100.5), StopLoss: fp(99.5)},
	}
	broker := &fakeBroker{positions: []models.Position{pos}}
	r := newTestReconciler(reconcilerConfig(), broker)

	r.ReconcileAll(context.Background())
	require.Len(t, broker.slCalls, 1)
	assert.Equal(t, levelCall{"D1", 100.0}, broker.slCalls[0])

	// Once the stop sits at entry a second pass changes nothing.
	pos.Levels.StopLoss = fp(100)
	broker.positions = []models.Position{pos}
	broker.slCalls = nil
	r.ReconcileAll(context.Background())
	assert.Empty(t, broker.slCalls)
}

func TestBreakevenNotTriggeredBelowThreshold(t *testing.T) {
	broker := &fakeBroker{positions: []models.Position{
		{DealID: "D1", Direction: models.SideBuy, EntryPrice: 100, MarketBid: 100.5,
			Levels: models.ProtectiveLevels{TakeProfit: fp(100.5), StopLoss: fp(99.5)}},
	}}
	newTestReconciler(reconcilerConfig(), broker).ReconcileAll(context.Background())
	assert.Empty(t, broker.slCalls)
}

func TestReconcileIsolatesPerPositionFailures(t *testing.T) {
	positions := make([]models.Position, 0, 5)
	for i := 1; i <= 5; i++ {
		positions = append(positions, models.Position{
			DealID:     fmt.Sprintf("D%d", i),
			Symbol:     "BTCUSD",
			Direction:  models.SideBuy,
			EntryPrice: 100,
		})
	}
	broker := &fakeBroker{
		positions: positions,
		distance:  models.DistanceSpec{MinDistance: 0.3},
		tpErr: func(dealID string) error {
			if dealID == "D3" {
				return errors.New("connection reset")
			}
			return nil
		},
	}

	newTestReconciler(reconcilerConfig(), broker).ReconcileAll(context.Background())

	repaired := make([]string, 0, len(broker.tpCalls))
	for _, c := range broker.tpCalls {
		repaired = append(repaired, c.dealID)
	}
	assert.Equal(t, []string{"D1", "D2", "D4", "D5"}, repaired)
}
