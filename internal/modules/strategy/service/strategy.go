package service

import "captrader/internal/models"

// Strategy maps a price history plus account balance to a trade intent.
// nil means hold. Insufficient or bad data is always a hold, never an
// error; thin series are routine right after startup.
type Strategy interface {
	Name() string
	Evaluate(symbol string, history *models.PriceHistory, balance float64) *models.TradeIntent
}
