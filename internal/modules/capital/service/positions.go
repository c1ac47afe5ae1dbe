package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"captrader/internal/models"
)

func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/positions", nil, true, nil)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}

	var payload positionsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	out := make([]models.Position, 0, len(payload.Positions))
	for _, e := range payload.Positions {
		out = append(out, e.toModel())
	}
	return out, nil
}

func (c *Client) GetPositionDetail(ctx context.Context, dealID string) (models.Position, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/positions/"+url.PathEscape(dealID), nil, true, nil)
	if err != nil {
		return models.Position{}, fmt.Errorf("get position %s: %w", dealID, err)
	}

	var payload positionEnvelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Position{}, fmt.Errorf("decode position %s: %w", dealID, err)
	}
	return payload.toModel(), nil
}

// SetTakeProfit overwrites the take-profit level on an open deal. The PUT
// is a plain overwrite, so repeating it with the same level is harmless.
func (c *Client) SetTakeProfit(ctx context.Context, dealID string, level float64) error {
	payload := map[string]any{"limitLevel": level}
	if _, err := c.doAuthed(ctx, http.MethodPut, "/positions/"+url.PathEscape(dealID), payload, true, nil); err != nil {
		return fmt.Errorf("set take profit %s: %w", dealID, err)
	}
	return nil
}

func (c *Client) SetStopLoss(ctx context.Context, dealID string, level float64) error {
	payload := map[string]any{"stopLevel": level}
	if _, err := c.doAuthed(ctx, http.MethodPut, "/positions/"+url.PathEscape(dealID), payload, true, nil); err != nil {
		return fmt.Errorf("set stop loss %s: %w", dealID, err)
	}
	return nil
}

func (c *Client) ClosePosition(ctx context.Context, dealID string) error {
	if _, err := c.doAuthed(ctx, http.MethodDelete, "/positions/"+url.PathEscape(dealID), nil, true, nil); err != nil {
		return fmt.Errorf("close position %s: %w", dealID, err)
	}
	return nil
}
