package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetAccountBalance returns the balance of the demo account when one
// exists, otherwise the first account listed.
func (c *Client) GetAccountBalance(ctx context.Context) (float64, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/accounts", nil, true, nil)
	if err != nil {
		return 0, fmt.Errorf("get accounts: %w", err)
	}

	var payload accountsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode accounts: %w", err)
	}
	if len(payload.Accounts) == 0 {
		return 0, fmt.Errorf("no accounts returned")
	}

	account := payload.Accounts[0]
	for _, a := range payload.Accounts {
		if a.AccountType == "DEMO" {
			account = a
			break
		}
	}
	return account.Balance.Balance, nil
}
