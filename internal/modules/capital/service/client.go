package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"captrader/internal/models"
	"captrader/internal/modules/config"
	"captrader/internal/modules/metrics"
	"captrader/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const (
	maxAttempts = 3
	backoffBase = 500 * time.Millisecond
)

type Client struct {
	cfg     *config.Config
	http    *http.Client
	session *SessionStore

	baseURL string
	apiKey  string
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: cfg.Capital.BaseURL,
		apiKey:  cfg.Capital.APIKey,
	}
	c.session = NewSessionStore(c.Authenticate)
	return c
}

// Session exposes the token store for the streaming client, which needs
// raw tokens for its subscribe frame.
func (c *Client) Session() *SessionStore { return c.session }

// Authenticate exchanges credentials for session tokens. The tokens
// arrive in response headers, not the body.
func (c *Client) Authenticate(ctx context.Context) (models.SessionTokens, error) {
	payload, err := sonic.Marshal(map[string]any{
		"identifier":        c.cfg.Capital.Identifier,
		"password":          c.cfg.Capital.Password,
		"encryptedPassword": false,
	})
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("marshal auth payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/session", payload, nil, true)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if resp.status/100 == 4 {
		return models.SessionTokens{}, &BrokerRejected{StatusCode: resp.status, Body: string(resp.body)}
	}
	if resp.status != http.StatusOK {
		return models.SessionTokens{}, &TransportError{StatusCode: resp.status, Err: fmt.Errorf("authentication failed")}
	}

	cst := resp.header.Get("CST")
	security := resp.header.Get("X-SECURITY-TOKEN")
	if cst == "" || security == "" {
		return models.SessionTokens{}, fmt.Errorf("security tokens missing from auth response")
	}

	metrics.AuthRefreshes.Inc()
	return models.SessionTokens{
		CST:           cst,
		SecurityToken: security,
		Expiry:        time.Now().Add(sessionTTL),
	}, nil
}

type response struct {
	status int
	body   []byte
	header http.Header
}

// doAuthed runs an authenticated request. On a 401 it invalidates the
// session and replays the call exactly once; a second 401 is fatal for
// this call. retry=false disables transport retries entirely: order
// placement must never be resent after a timeout, there is no idempotency
// key to dedupe a double fill.
func (c *Client) doAuthed(ctx context.Context, method, path string, body any, retry bool, extraHeader http.Header) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
	}

	replayed := false
	for {
		tokens, err := c.session.Tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire session: %w", err)
		}

		header := http.Header{}
		header.Set("CST", tokens.CST)
		header.Set("X-SECURITY-TOKEN", tokens.SecurityToken)
		for k, vs := range extraHeader {
			for _, v := range vs {
				header.Add(k, v)
			}
		}

		resp, err := c.do(ctx, method, path, payload, header, retry)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.status == http.StatusUnauthorized && !replayed:
			logger.Warn("broker returned 401 on %s %s, re-authenticating once", method, path)
			c.session.Invalidate()
			replayed = true
			continue
		case resp.status == http.StatusUnauthorized:
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrAuthExpired)
		case resp.status/100 == 2:
			return resp.body, nil
		case resp.status/100 == 4:
			return nil, &BrokerRejected{StatusCode: resp.status, Body: string(resp.body)}
		default:
			return nil, &TransportError{StatusCode: resp.status, Err: fmt.Errorf("%s %s failed after retries", method, path)}
		}
	}
}

// do sends one logical request, retrying transparently on 429/5xx and
// network errors when retry is set.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, header http.Header, retry bool) (response, error) {
	attempts := 1
	if retry {
		attempts = maxAttempts
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "capital."+method+" "+path)
	defer span.Finish()
	ext.HTTPMethod.Set(span, method)
	ext.HTTPUrl.Set(span, c.baseURL+path)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return response{}, &TransportError{Err: ctx.Err()}
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return response{}, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CAP-API-KEY", c.apiKey)
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if retryableStatus(resp.StatusCode) && attempt < attempts-1 {
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			continue
		}

		ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))
		return response{status: resp.StatusCode, body: body, header: resp.Header}, nil
	}

	ext.Error.Set(span, true)
	return response{}, &TransportError{Err: lastErr}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
