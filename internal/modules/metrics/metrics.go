// Package metrics holds the Prometheus counters the agent updates during
// operation:
//   - bot_orders_total{side,outcome}: orders placed, by direction and result
//   - bot_signals_total{strategy,side}: strategy signals emitted
//   - bot_tp_repairs_total: take-profit repairs applied
//   - bot_sl_repairs_total: stop-loss repairs applied
//   - bot_tp_ratchets_total: take-profit ratchet moves
//   - bot_breakeven_moves_total: stop-loss moves to breakeven
//   - bot_reconcile_passes_total: completed reconciliation passes
//   - bot_reconcile_errors_total: per-position reconciliation failures
//   - bot_auth_refreshes_total: broker session refreshes
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed",
		},
		[]string{"side", "outcome"},
	)

	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_signals_total",
			Help: "Strategy signals emitted",
		},
		[]string{"strategy", "side"},
	)

	TPRepairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_tp_repairs_total",
			Help: "Missing take-profit levels repaired",
		},
	)

	SLRepairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_sl_repairs_total",
			Help: "Missing stop-loss levels repaired",
		},
	)

	TPRatchets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_tp_ratchets_total",
			Help: "Take-profit ratchet moves",
		},
	)

	BreakevenMoves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_breakeven_moves_total",
			Help: "Stop-loss moves to breakeven",
		},
	)

	ReconcilePasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_reconcile_passes_total",
			Help: "Completed reconciliation passes",
		},
	)

	ReconcileErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_reconcile_errors_total",
			Help: "Per-position reconciliation failures",
		},
	)

	AuthRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_auth_refreshes_total",
			Help: "Broker session token refreshes",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersPlaced,
		Signals,
		TPRepairs,
		SLRepairs,
		TPRatchets,
		BreakevenMoves,
		ReconcilePasses,
		ReconcileErrors,
		AuthRefreshes,
	)
}
