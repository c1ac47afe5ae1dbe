package service

import (
	"context"

	"captrader/internal/models"
)

// Broker is the capability surface the trading engine needs from the
// brokerage. *Client implements it against the Capital.com REST API;
// tests implement it in-memory.
type Broker interface {
	Authenticate(ctx context.Context) (models.SessionTokens, error)
	GetAccountBalance(ctx context.Context) (float64, error)

	GetPrices(ctx context.Context, symbol string, max int) (*models.PriceHistory, error)

	GetPositions(ctx context.Context) ([]models.Position, error)
	GetPositionDetail(ctx context.Context, dealID string) (models.Position, error)
	PlaceOrder(ctx context.Context, order OrderRequest) (models.OrderResult, error)
	SetTakeProfit(ctx context.Context, dealID string, level float64) error
	SetStopLoss(ctx context.Context, dealID string, level float64) error
	ClosePosition(ctx context.Context, dealID string) error
	GetConfirmation(ctx context.Context, dealReference string) (models.Confirmation, error)

	GetMarketDistanceSpec(ctx context.Context, symbol string) (models.DistanceSpec, error)
	GetMinLotSize(ctx context.Context, symbol string) (float64, error)
}

// OrderRequest is a force-open position request: it always opens a new
// position instead of netting against an opposite one.
type OrderRequest struct {
	Symbol     string
	Direction  models.Side
	Size       float64
	TakeProfit *float64
	StopLoss   *float64
}
