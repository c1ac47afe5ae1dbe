package service

import (
	"context"
	"time"

	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
	health "captrader/internal/modules/health/service"
	"captrader/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	streamPingEvery  = 5 * time.Minute
	streamReconnect  = 10 * time.Second
	streamReadLimit  = 1 << 20
	destMarketData   = "marketData.subscribe"
	destQuote        = "quote"
	destPing         = "ping"
)

// Streamer keeps a websocket against the broker's streaming endpoint and
// feeds live quotes into the Provider cache. Purely additive: the polling
// path works without it.
type Streamer struct {
	cfg      *config.Config
	session  *capital.SessionStore
	provider *Provider
	state    *health.State
	dialer   *websocket.Dialer
	symbols  []string
}

func NewStreamer(cfg *config.Config, instruments *config.Instruments, client *capital.Client, provider *Provider, state *health.State) *Streamer {
	return &Streamer{
		cfg:      cfg,
		session:  client.Session(),
		provider: provider,
		state:    state,
		dialer:   &websocket.Dialer{},
		symbols:  instruments.Symbols,
	}
}

func (s *Streamer) Enabled() bool { return s.cfg.Capital.StreamURL != "" }

// Run dials, subscribes and pumps quotes until ctx is cancelled,
// reconnecting on any failure.
func (s *Streamer) Run(ctx context.Context) {
	for {
		if err := s.connectAndPump(ctx); err != nil {
			logger.Warn("quote stream dropped: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(streamReconnect):
		}
	}
}

type streamFrame struct {
	Destination   string `json:"destination"`
	CorrelationID string `json:"correlationId,omitempty"`
	CST           string `json:"cst,omitempty"`
	SecurityToken string `json:"securityToken,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

type quotePayload struct {
	Epic      string  `json:"epic"`
	Bid       float64 `json:"bid"`
	Ofr       float64 `json:"ofr"`
	Timestamp int64   `json:"timestamp"`
}

type inboundFrame struct {
	Destination string       `json:"destination"`
	Payload     quotePayload `json:"payload"`
}

func (s *Streamer) connectAndPump(ctx context.Context) error {
	tokens, err := s.session.Tokens(ctx)
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, s.cfg.Capital.StreamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	subscribe := streamFrame{
		Destination:   destMarketData,
		CorrelationID: "1",
		CST:           tokens.CST,
		SecurityToken: tokens.SecurityToken,
		Payload:       map[string]any{"epics": s.symbols},
	}
	if err := s.writeFrame(conn, subscribe); err != nil {
		return err
	}
	logger.Info("quote stream subscribed for %d symbols", len(s.symbols))
	s.state.SetStreamConnected(true)
	defer s.state.SetStreamConnected(false)

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(ctx, conn, done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame inboundFrame
		if err := sonic.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Destination != destQuote || frame.Payload.Epic == "" {
			continue
		}

		s.provider.AppendLive(frame.Payload.Epic, models.PriceQuote{
			Bid:       frame.Payload.Bid,
			Ask:       frame.Payload.Ofr,
			Timestamp: time.UnixMilli(frame.Payload.Timestamp),
		})
	}
}

// pingLoop keeps the session alive; the broker drops silent connections.
func (s *Streamer) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			tokens, err := s.session.Tokens(ctx)
			if err != nil {
				continue
			}
			_ = s.writeFrame(conn, streamFrame{
				Destination:   destPing,
				CorrelationID: "keepalive",
				CST:           tokens.CST,
				SecurityToken: tokens.SecurityToken,
			})
		}
	}
}

func (s *Streamer) writeFrame(conn *websocket.Conn, frame streamFrame) error {
	raw, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}
