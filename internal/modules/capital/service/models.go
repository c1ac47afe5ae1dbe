package service

import (
	"time"

	"captrader/internal/models"
)

// Raw broker DTOs. The broker is inconsistent about protective-level field
// names across endpoints (limitLevel vs profitLevel, stopLevel vs stopLoss)
// and omits fields that are not populated yet, so everything optional is a
// pointer and both spellings are accepted. Canonical types leave this file
// only through the adapters below.

type rawPrice struct {
	Bid *float64 `json:"bid"`
	Ask *float64 `json:"ask"`
}

type rawCandle struct {
	SnapshotTime string   `json:"snapshotTime"`
	OpenPrice    rawPrice `json:"openPrice"`
	ClosePrice   rawPrice `json:"closePrice"`
	HighPrice    rawPrice `json:"highPrice"`
	LowPrice     rawPrice `json:"lowPrice"`
}

type pricesResponse struct {
	Prices []rawCandle `json:"prices"`
}

type rawPosition struct {
	DealID      string   `json:"dealId"`
	Direction   string   `json:"direction"`
	Size        float64  `json:"size"`
	Level       float64  `json:"level"`
	CreatedDate string   `json:"createdDate"`
	LimitLevel  *float64 `json:"limitLevel"`
	ProfitLevel *float64 `json:"profitLevel"`
	StopLevel   *float64 `json:"stopLevel"`
	StopLoss    *float64 `json:"stopLoss"`
}

type rawMarket struct {
	Epic  string  `json:"epic"`
	Bid   float64 `json:"bid"`
	Offer float64 `json:"offer"`
}

type positionEnvelope struct {
	Position rawPosition `json:"position"`
	Market   rawMarket   `json:"market"`
}

type positionsResponse struct {
	Positions []positionEnvelope `json:"positions"`
}

type rawAffectedDeal struct {
	DealID string `json:"dealId"`
	Status string `json:"status"`
}

type confirmationResponse struct {
	DealReference string            `json:"dealReference"`
	DealID        string            `json:"dealId"`
	Status        string            `json:"status"`
	Epic          string            `json:"epic"`
	Level         float64           `json:"level"`
	Direction     string            `json:"direction"`
	AffectedDeals []rawAffectedDeal `json:"affectedDeals"`
}

type marketDetailsResponse struct {
	MinNormalStopOrLimitDistance *float64 `json:"minNormalStopOrLimitDistance"`
	MinStopDistance              *float64 `json:"minStopDistance"`
	MinDealSize                  *float64 `json:"minDealSize"`
}

type orderResponse struct {
	DealReference string `json:"dealReference"`
	DealID        string `json:"dealId"`
}

type rawAccount struct {
	AccountType string `json:"accountType"`
	Balance     struct {
		Balance   float64 `json:"balance"`
		Available float64 `json:"available"`
	} `json:"balance"`
}

type accountsResponse struct {
	Accounts []rawAccount `json:"accounts"`
}

const brokerTimeLayout = "2006-01-02T15:04:05.000"

func parseBrokerTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{brokerTimeLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (e positionEnvelope) toModel() models.Position {
	p := models.Position{
		DealID:      e.Position.DealID,
		Symbol:      e.Market.Epic,
		Direction:   models.Side(e.Position.Direction),
		EntryPrice:  e.Position.Level,
		Size:        e.Position.Size,
		OpenedAt:    parseBrokerTime(e.Position.CreatedDate),
		MarketBid:   e.Market.Bid,
		MarketOffer: e.Market.Offer,
	}

	if e.Position.LimitLevel != nil {
		p.Levels.TakeProfit = e.Position.LimitLevel
	} else if e.Position.ProfitLevel != nil {
		p.Levels.TakeProfit = e.Position.ProfitLevel
	}

	if e.Position.StopLevel != nil {
		p.Levels.StopLoss = e.Position.StopLevel
	} else if e.Position.StopLoss != nil {
		p.Levels.StopLoss = e.Position.StopLoss
	}

	return p
}

func (c confirmationResponse) toModel() models.Confirmation {
	out := models.Confirmation{
		DealReference: c.DealReference,
		DealID:        c.DealID,
		Status:        c.Status,
		Epic:          c.Epic,
		Level:         c.Level,
		Direction:     models.Side(c.Direction),
	}
	for _, d := range c.AffectedDeals {
		out.AffectedDeals = append(out.AffectedDeals, models.AffectedDeal{
			DealID: d.DealID,
			Status: d.Status,
		})
	}
	return out
}
