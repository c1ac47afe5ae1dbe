package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
)

type fakeBroker struct {
	priceCalls int
	bids       []float64
}

func (f *fakeBroker) GetPrices(_ context.Context, _ string, max int) (*models.PriceHistory, error) {
	f.priceCalls++
	h := models.NewPriceHistory(max)
	for _, b := range f.bids {
		h.Append(models.PriceQuote{Bid: b, Ask: b, Timestamp: time.Now()})
	}
	return h, nil
}

func (f *fakeBroker) Authenticate(context.Context) (models.SessionTokens, error) {
	return models.SessionTokens{}, nil
}
func (f *fakeBroker) GetAccountBalance(context.Context) (float64, error)      { return 0, nil }
func (f *fakeBroker) GetPositions(context.Context) ([]models.Position, error) { return nil, nil }
func (f *fakeBroker) GetPositionDetail(context.Context, string) (models.Position, error) {
	return models.Position{}, nil
}
func (f *fakeBroker) PlaceOrder(context.Context, capital.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}
func (f *fakeBroker) SetTakeProfit(context.Context, string, float64) error { return nil }
func (f *fakeBroker) SetStopLoss(context.Context, string, float64) error   { return nil }
func (f *fakeBroker) ClosePosition(context.Context, string) error          { return nil }
func (f *fakeBroker) GetConfirmation(context.Context, string) (models.Confirmation, error) {
	return models.Confirmation{}, nil
}
func (f *fakeBroker) GetMarketDistanceSpec(context.Context, string) (models.DistanceSpec, error) {
	return models.DistanceSpec{}, nil
}
func (f *fakeBroker) GetMinLotSize(context.Context, string) (float64, error) { return 0, nil }

func providerConfig(ttl time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.Cache.PriceTTL = ttl
	cfg.Strategy.HistorySize = 100
	return cfg
}

func TestHistoryServedFromCacheWithinTTL(t *testing.T) {
	broker := &fakeBroker{bids: []float64{100, 101}}
	p := NewProvider(providerConfig(time.Minute), broker)

	_, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)
	h, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)

	assert.Equal(t, 1, broker.priceCalls)
	assert.Equal(t, []float64{100, 101}, h.Bids())
}

func TestHistoryRefetchedAfterTTL(t *testing.T) {
	broker := &fakeBroker{bids: []float64{100}}
	p := NewProvider(providerConfig(10*time.Millisecond), broker)

	_, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)

	assert.Equal(t, 2, broker.priceCalls)
}

func TestHistoryCachedPerSymbol(t *testing.T) {
	broker := &fakeBroker{bids: []float64{100}}
	p := NewProvider(providerConfig(time.Minute), broker)

	_, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)
	_, err = p.History(context.Background(), "ETHUSD")
	require.NoError(t, err)

	assert.Equal(t, 2, broker.priceCalls)
}

func TestAppendLiveExtendsCachedSeries(t *testing.T) {
	broker := &fakeBroker{bids: []float64{100}}
	p := NewProvider(providerConfig(time.Minute), broker)

	_, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)

	p.AppendLive("BTCUSD", models.PriceQuote{Bid: 101, Ask: 101.2, Timestamp: time.Now()})

	h, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101}, h.Bids())
}

func TestAppendLiveDropsUnknownSymbols(t *testing.T) {
	broker := &fakeBroker{bids: []float64{100}}
	p := NewProvider(providerConfig(time.Minute), broker)

	// No cached entry yet, so the quote has nowhere to land.
	p.AppendLive("BTCUSD", models.PriceQuote{Bid: 101})

	h, err := p.History(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, h.Bids())
}
