package models

import "time"

// ProtectiveLevels is the canonical in-engine shape for TP/SL. The broker
// spells these fields several ways (limitLevel/profitLevel, stopLevel);
// the capital adapter folds all spellings into this type and nothing past
// that boundary sees the raw names.
type ProtectiveLevels struct {
	TakeProfit *float64
	StopLoss   *float64
}

func (p ProtectiveLevels) HasTakeProfit() bool { return p.TakeProfit != nil }
func (p ProtectiveLevels) HasStopLoss() bool   { return p.StopLoss != nil }

// Position is a read-through snapshot of a broker-side open deal. The broker
// owns it; nothing here is authoritative. A position that disappears from a
// listing is closed, there is no close event.
type Position struct {
	DealID     string
	Symbol     string
	Direction  Side
	EntryPrice float64
	Size       float64
	Levels     ProtectiveLevels
	OpenedAt   time.Time

	// Market snapshot carried by the listing, used for breakeven checks.
	MarketBid   float64
	MarketOffer float64
}

// UnrealizedFraction is the open profit as a fraction of entry price,
// positive when the position is in profit. Zero when the listing carried no
// usable market price.
func (p Position) UnrealizedFraction() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	switch p.Direction {
	case SideBuy:
		if p.MarketBid <= 0 {
			return 0
		}
		return (p.MarketBid - p.EntryPrice) / p.EntryPrice
	case SideSell:
		if p.MarketOffer <= 0 {
			return 0
		}
		return (p.EntryPrice - p.MarketOffer) / p.EntryPrice
	}
	return 0
}
