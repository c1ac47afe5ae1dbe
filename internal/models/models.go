package models

import "time"

type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// Opposite returns the closing direction for a position opened with s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// TradeIntent is what a strategy hands to the executor. Consumed once.
type TradeIntent struct {
	Symbol         string
	Side           Side
	ReferencePrice float64
	Size           float64 // 0 = executor falls back to the instrument lot size
	Mode           string  // "SCALP", "WEBHOOK", ...
	Reason         string
}

type OrderResult struct {
	DealReference string
	DealID        string
}

// SessionTokens are the broker session credentials. Fungible: a later
// refresh overwriting an earlier one is harmless.
type SessionTokens struct {
	CST           string
	SecurityToken string
	Expiry        time.Time
}

func (t SessionTokens) Valid(now time.Time) bool {
	return t.CST != "" && t.SecurityToken != "" && now.Before(t.Expiry)
}

// DistanceSpec is the broker-enforced minimum gap between entry price and a
// protective level.
type DistanceSpec struct {
	MinDistance float64
}

type AffectedDeal struct {
	DealID string
	Status string // "OPENED", "DELETED", ...
}

// Confirmation is the broker's answer to "what happened to deal reference X".
type Confirmation struct {
	DealReference string
	DealID        string
	Status        string
	Epic          string
	Level         float64
	Direction     Side
	AffectedDeals []AffectedDeal
}

// OpenedDealID picks the deal this confirmation opened: the first affected
// deal with status OPENED, otherwise the confirmation's own dealId.
func (c Confirmation) OpenedDealID() string {
	for _, d := range c.AffectedDeals {
		if d.Status == "OPENED" && d.DealID != "" {
			return d.DealID
		}
	}
	return c.DealID
}
