package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"captrader/internal/models"
)

// GetPrices fetches the recent MINUTE_5 candle series for a symbol and
// folds it into a bounded PriceHistory. Candles with no usable close are
// skipped, not errored: a thin series just means the strategy holds.
func (c *Client) GetPrices(ctx context.Context, symbol string, max int) (*models.PriceHistory, error) {
	if max <= 0 {
		max = 100
	}
	path := fmt.Sprintf("/prices/%s?resolution=MINUTE_5&max=%d", url.PathEscape(symbol), max)

	body, err := c.doAuthed(ctx, http.MethodGet, path, nil, true, nil)
	if err != nil {
		return nil, fmt.Errorf("get prices %s: %w", symbol, err)
	}

	var payload pricesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode prices %s: %w", symbol, err)
	}

	history := models.NewPriceHistory(max)
	for _, candle := range payload.Prices {
		if candle.ClosePrice.Bid == nil {
			continue
		}
		ask := *candle.ClosePrice.Bid
		if candle.ClosePrice.Ask != nil {
			ask = *candle.ClosePrice.Ask
		}
		history.Append(models.PriceQuote{
			Bid:       *candle.ClosePrice.Bid,
			Ask:       ask,
			Timestamp: parseBrokerTime(candle.SnapshotTime),
		})
	}
	return history, nil
}
