package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"captrader/internal/models"
)

// GetMarketDistanceSpec returns the broker-enforced minimum gap between
// entry price and a protective level. The broker exposes it under two
// names depending on the instrument; 1 is the documented default when
// neither is present.
func (c *Client) GetMarketDistanceSpec(ctx context.Context, symbol string) (models.DistanceSpec, error) {
	details, err := c.marketDetails(ctx, symbol)
	if err != nil {
		return models.DistanceSpec{}, err
	}

	min := 1.0
	if details.MinNormalStopOrLimitDistance != nil {
		min = *details.MinNormalStopOrLimitDistance
	} else if details.MinStopDistance != nil {
		min = *details.MinStopDistance
	}
	return models.DistanceSpec{MinDistance: min}, nil
}

func (c *Client) GetMinLotSize(ctx context.Context, symbol string) (float64, error) {
	details, err := c.marketDetails(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if details.MinDealSize == nil || *details.MinDealSize <= 0 {
		return 0, fmt.Errorf("market %s: no minimum deal size published", symbol)
	}
	return *details.MinDealSize, nil
}

func (c *Client) marketDetails(ctx context.Context, symbol string) (marketDetailsResponse, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/markets/"+url.PathEscape(symbol), nil, true, nil)
	if err != nil {
		return marketDetailsResponse{}, fmt.Errorf("get market %s: %w", symbol, err)
	}

	var payload marketDetailsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return marketDetailsResponse{}, fmt.Errorf("decode market %s: %w", symbol, err)
	}
	return payload, nil
}
