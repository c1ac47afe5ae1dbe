package service

import (
	"fmt"
	"math"
	"sync"

	"captrader/internal/models"
	"captrader/internal/modules/config"
)

// TrendFollowing enters on the tick where the short SMA crosses above the
// long SMA with RSI confirmation, and exits a tracked position on the
// opposite cross or overbought RSI. It keeps its own one-position-per-
// symbol map (distinct from the broker's listing) so it never pyramids.
type TrendFollowing struct {
	mu  sync.Mutex
	cfg *config.Config

	open map[string]float64 // symbol -> size
}

func NewTrendFollowing(cfg *config.Config) *TrendFollowing {
	return &TrendFollowing{
		cfg:  cfg,
		open: make(map[string]float64),
	}
}

func (s *TrendFollowing) Name() string { return "trend" }

func (s *TrendFollowing) Evaluate(symbol string, history *models.PriceHistory, balance float64) *models.TradeIntent {
	shortN := s.cfg.Strategy.SMAShort
	longN := s.cfg.Strategy.SMALong

	closes := history.Bids()
	// One extra point needed to see the previous SMA pair.
	if len(closes) < longN+1 {
		return nil
	}

	last := len(closes) - 1
	shortNow := SMAAt(closes, shortN, last)
	longNow := SMAAt(closes, longN, last)
	shortPrev := SMAAt(closes, shortN, last-1)
	longPrev := SMAAt(closes, longN, last-1)
	rsi := RSI(closes, s.cfg.Strategy.RSIPeriod)
	if math.IsNaN(shortNow) || math.IsNaN(longNow) || math.IsNaN(shortPrev) || math.IsNaN(longPrev) || math.IsNaN(rsi) {
		return nil
	}

	price := closes[last]

	s.mu.Lock()
	defer s.mu.Unlock()

	size, hasPosition := s.open[symbol]

	if !hasPosition {
		crossedUp := shortNow > longNow && shortPrev <= longPrev
		if !crossedUp || rsi >= s.cfg.Strategy.RSIOverbought {
			return nil
		}

		entrySize, ok := s.sizeByRisk(closes, price, balance)
		if !ok {
			// Fail closed: no stop distance means no position.
			return nil
		}

		s.open[symbol] = entrySize
		return &models.TradeIntent{
			Symbol:         symbol,
			Side:           models.SideBuy,
			ReferencePrice: price,
			Size:           entrySize,
			Mode:           "TREND",
			Reason:         fmt.Sprintf("SMA %d/%d crossover, RSI %.1f", shortN, longN, rsi),
		}
	}

	crossedDown := shortNow < longNow && shortPrev >= longPrev
	if crossedDown || rsi > s.cfg.Strategy.RSIOverbought {
		delete(s.open, symbol)
		return &models.TradeIntent{
			Symbol:         symbol,
			Side:           models.SideSell,
			ReferencePrice: price,
			Size:           size,
			Mode:           "TREND",
			Reason:         "trend reversal or overbought exit",
		}
	}
	return nil
}

// sizeByRisk sizes an entry so a 2-ATR adverse move costs riskPct of the
// balance. The price series carries no candle extremes, so highs and lows
// are approximated around the close the same way the backtest data is.
func (s *TrendFollowing) sizeByRisk(closes []float64, price, balance float64) (float64, bool) {
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	for i, c := range closes {
		highs[i] = c * 1.001
		lows[i] = c * 0.999
	}

	atr := ATR(highs, lows, closes, s.cfg.Strategy.ATRPeriod)
	if math.IsNaN(atr) || atr <= 0 {
		return 0, false
	}

	stopPrice := price - atr*2
	stopDistance := price - stopPrice
	if stopPrice <= 0 || stopDistance <= 0 {
		return 0, false
	}

	riskAmount := balance * s.cfg.Trading.RiskPct
	if riskAmount <= 0 {
		return 0, false
	}
	return riskAmount / stopDistance, true
}
