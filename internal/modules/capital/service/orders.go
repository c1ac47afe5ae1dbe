package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"captrader/internal/models"

	"github.com/google/uuid"
)

// PlaceOrder opens a new position with forceOpen semantics: the broker
// always creates a fresh deal instead of netting against an opposite one.
// The call is never retried, since a resend after a timeout could double-open.
// It carries a client request id so a suspected duplicate can at least be
// traced server-side.
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (models.OrderResult, error) {
	if !order.Direction.Valid() {
		return models.OrderResult{}, fmt.Errorf("place order: invalid direction %q", order.Direction)
	}
	if order.Size <= 0 {
		return models.OrderResult{}, fmt.Errorf("place order: size <= 0")
	}

	payload := map[string]any{
		"epic":           order.Symbol,
		"direction":      string(order.Direction),
		"size":           order.Size,
		"guaranteedStop": false,
		"trailingStop":   false,
		"forceOpen":      true,
	}
	if order.TakeProfit != nil {
		payload["profitLevel"] = *order.TakeProfit
	}
	if order.StopLoss != nil {
		payload["stopLevel"] = *order.StopLoss
	}

	header := http.Header{}
	header.Set("X-Request-ID", uuid.NewString())

	body, err := c.doAuthed(ctx, http.MethodPost, "/positions", payload, false, header)
	if err != nil {
		return models.OrderResult{}, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.OrderResult{}, fmt.Errorf("decode order response: %w", err)
	}
	if resp.DealReference == "" {
		return models.OrderResult{}, fmt.Errorf("order accepted but no deal reference returned")
	}
	return models.OrderResult{DealReference: resp.DealReference, DealID: resp.DealID}, nil
}

func (c *Client) GetConfirmation(ctx context.Context, dealReference string) (models.Confirmation, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/confirms/"+url.PathEscape(dealReference), nil, true, nil)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("get confirmation %s: %w", dealReference, err)
	}

	var payload confirmationResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Confirmation{}, fmt.Errorf("decode confirmation %s: %w", dealReference, err)
	}
	return payload.toModel(), nil
}
