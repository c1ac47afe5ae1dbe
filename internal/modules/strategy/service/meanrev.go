package service

import (
	"fmt"
	"math"

	"captrader/internal/models"
	"captrader/internal/modules/config"
)

// MeanReversion is the simpler stateless variant: compare the latest
// close to the rolling mean of the window. Above the mean is a BUY,
// below is a SELL. Sizing is left to the executor's lot table.
type MeanReversion struct {
	cfg *config.Config
}

func NewMeanReversion(cfg *config.Config) *MeanReversion {
	return &MeanReversion{cfg: cfg}
}

func (s *MeanReversion) Name() string { return "meanrev" }

func (s *MeanReversion) Evaluate(symbol string, history *models.PriceHistory, _ float64) *models.TradeIntent {
	closes := history.Bids()
	if len(closes) < s.cfg.Strategy.ATRPeriod {
		return nil
	}

	price := closes[len(closes)-1]
	mean := Mean(closes)
	if math.IsNaN(mean) || price <= 0 {
		return nil
	}

	side := models.SideSell
	if price > mean {
		side = models.SideBuy
	}

	return &models.TradeIntent{
		Symbol:         symbol,
		Side:           side,
		ReferencePrice: price,
		Mode:           "SCALP",
		Reason:         fmt.Sprintf("close %.2f vs mean %.2f", price, mean),
	}
}
