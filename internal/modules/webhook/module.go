package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
	"captrader/internal/modules/engine/service"
	"captrader/pkg/logger"
)

const triggerTimeout = 30 * time.Second

type triggerRequest struct {
	Symbol string   `json:"symbol"`
	Action string   `json:"action"`
	Price  *float64 `json:"price"`
}

type triggerResponse struct {
	Status        string `json:"status"`
	DealReference string `json:"dealReference,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewMux exposes POST /webhook: an externally produced trade signal that
// goes straight through the engine's reactive path.
func NewMux(e *service.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, triggerResponse{Status: "error", Error: "POST only"})
			return
		}

		var req triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, triggerResponse{Status: "error", Error: "invalid JSON body"})
			return
		}
		if req.Price == nil {
			writeJSON(w, http.StatusBadRequest, triggerResponse{Status: "error", Error: "price is required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), triggerTimeout)
		defer cancel()

		res, err := e.Trigger(ctx, req.Symbol, req.Action, *req.Price)
		if err != nil {
			status := http.StatusBadRequest
			if isBrokerError(err) {
				status = http.StatusBadGateway
			}
			logger.Warn("webhook trigger %s %s failed: %v", req.Action, req.Symbol, err)
			writeJSON(w, status, triggerResponse{Status: "error", Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, triggerResponse{Status: "ok", DealReference: res.DealReference})
	})

	return mux
}

// isBrokerError separates broker trouble from input validation. Trigger
// rejects bad input before any broker call, so everything typed comes
// from the broker side.
func isBrokerError(err error) bool {
	var rejected *capital.BrokerRejected
	var transport *capital.TransportError
	return errors.As(err, &rejected) ||
		errors.As(err, &transport) ||
		errors.Is(err, capital.ErrAuthExpired)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, e *service.Engine) {
	srv := &http.Server{
		Addr:              cfg.Service.WebhookAddr,
		Handler:           NewMux(e),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("webhook listener on %s", srv.Addr)
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body triggerResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func Module() fx.Option {
	return fx.Module("webhook",
		fx.Invoke(RunHTTP),
	)
}
