package service

import (
	"context"

	"captrader/internal/helper"
	"captrader/internal/levels"
	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
	health "captrader/internal/modules/health/service"
	journal "captrader/internal/modules/journal/service"
	"captrader/internal/modules/metrics"
	"captrader/internal/notify"
	"captrader/pkg/logger"
)

// Reconciler keeps broker-side positions in the shape the executor
// intended: every open position carries a take-profit, the take-profit
// only moves in the profitable direction, and a sufficiently profitable
// position gets its stop moved to entry. The broker is the only source
// of truth; every pass re-reads current state before mutating.
type Reconciler struct {
	cfg      *config.Config
	broker   capital.Broker
	journal  journal.Journal
	notifier notify.Notifier
	state    *health.State
}

func NewReconciler(cfg *config.Config, broker capital.Broker, j journal.Journal, n notify.Notifier, state *health.State) *Reconciler {
	return &Reconciler{cfg: cfg, broker: broker, journal: j, notifier: n, state: state}
}

// VerifyAfterOpen checks a freshly settled order: it resolves the opened
// deal from the confirmation, then repairs a missing take-profit. A
// missing stop-loss is repaired only when repair_stop_loss is enabled,
// otherwise logged.
func (r *Reconciler) VerifyAfterOpen(ctx context.Context, dealReference string) {
	conf, err := r.broker.GetConfirmation(ctx, dealReference)
	if err != nil {
		logger.Error("confirmation %s: %v", dealReference, err)
		return
	}
	dealID := conf.OpenedDealID()
	if dealID == "" {
		logger.Warn("confirmation %s carries no opened deal (status=%s)", dealReference, conf.Status)
		return
	}

	pos, err := r.broker.GetPositionDetail(ctx, dealID)
	if err != nil {
		logger.Error("position detail %s: %v", dealID, err)
		return
	}

	if err := r.repairTakeProfit(ctx, pos); err != nil {
		logger.Error("take-profit repair %s: %v", dealID, err)
	}
	if !pos.Levels.HasStopLoss() {
		if r.cfg.Trading.RepairStopLoss {
			if err := r.repairStopLoss(ctx, pos); err != nil {
				logger.Error("stop-loss repair %s: %v", dealID, err)
			}
		} else {
			logger.Warn("position %s %s has no stop-loss", pos.Symbol, dealID)
		}
	}
}

// ReconcileAll runs one repair-and-ratchet pass over every open
// position. A failure on one position never aborts the rest.
func (r *Reconciler) ReconcileAll(ctx context.Context) {
	positions, err := r.broker.GetPositions(ctx)
	if err != nil {
		metrics.ReconcileErrors.Inc()
		logger.Error("list positions: %v", err)
		return
	}
	r.state.SetOpenPositions(len(positions))

	for _, pos := range positions {
		if err := r.reconcileOne(ctx, pos); err != nil {
			metrics.ReconcileErrors.Inc()
			logger.Error("reconcile %s %s: %v", pos.Symbol, pos.DealID, err)
		}
	}
	metrics.ReconcilePasses.Inc()
}

// RepairMissing runs the missing-level repair over all open positions
// without ratcheting. The engine runs it once at startup, before the
// first trading cycle, so positions left over from a previous run are
// never naked.
func (r *Reconciler) RepairMissing(ctx context.Context) {
	positions, err := r.broker.GetPositions(ctx)
	if err != nil {
		metrics.ReconcileErrors.Inc()
		logger.Error("list positions: %v", err)
		return
	}
	r.state.SetOpenPositions(len(positions))
	for _, pos := range positions {
		if err := r.repairTakeProfit(ctx, pos); err != nil {
			metrics.ReconcileErrors.Inc()
			logger.Error("take-profit repair %s: %v", pos.DealID, err)
		}
		if r.cfg.Trading.RepairStopLoss {
			if err := r.repairStopLoss(ctx, pos); err != nil {
				metrics.ReconcileErrors.Inc()
				logger.Error("stop-loss repair %s: %v", pos.DealID, err)
			}
		}
	}
}

func (r *Reconciler) reconcileOne(ctx context.Context, pos models.Position) error {
	if !pos.Levels.HasTakeProfit() {
		return r.repairTakeProfit(ctx, pos)
	}
	if err := r.ratchetTakeProfit(ctx, pos); err != nil {
		return err
	}
	return r.moveToBreakeven(ctx, pos)
}

// repairTakeProfit sets the take-profit a position should have carried
// since open. No-op when one is already present, so repeating it against
// the same position converges immediately.
func (r *Reconciler) repairTakeProfit(ctx context.Context, pos models.Position) error {
	if pos.Levels.HasTakeProfit() {
		return nil
	}
	spec, err := r.broker.GetMarketDistanceSpec(ctx, pos.Symbol)
	if err != nil {
		return err
	}
	tp := levels.TakeProfit(pos.Direction, pos.EntryPrice, r.cfg.Trading.ProtectiveOffset, spec.MinDistance)
	if err := r.broker.SetTakeProfit(ctx, pos.DealID, tp); err != nil {
		return err
	}
	metrics.TPRepairs.Inc()
	logger.Info("repaired take-profit: %s %s -> %.2f", pos.Symbol, pos.DealID, tp)
	r.notifier.Sendf("🔧 %s: take-profit was missing, set to %.2f", pos.Symbol, tp)
	r.journal.Record(ctx, journal.Entry{
		Kind: "TP_REPAIR", Symbol: pos.Symbol, Side: string(pos.Direction),
		DealID: pos.DealID, Level: tp,
	})
	return nil
}

func (r *Reconciler) repairStopLoss(ctx context.Context, pos models.Position) error {
	if pos.Levels.HasStopLoss() {
		return nil
	}
	spec, err := r.broker.GetMarketDistanceSpec(ctx, pos.Symbol)
	if err != nil {
		return err
	}
	sl := levels.StopLoss(pos.Direction, pos.EntryPrice, r.cfg.Trading.ProtectiveOffset, spec.MinDistance)
	if err := r.broker.SetStopLoss(ctx, pos.DealID, sl); err != nil {
		return err
	}
	metrics.SLRepairs.Inc()
	logger.Info("repaired stop-loss: %s %s -> %.2f", pos.Symbol, pos.DealID, sl)
	r.journal.Record(ctx, journal.Entry{
		Kind: "SL_REPAIR", Symbol: pos.Symbol, Side: string(pos.Direction),
		DealID: pos.DealID, Level: sl,
	})
	return nil
}

// ratchetTakeProfit pushes the take-profit to entry*(1±tp_move_pct) when
// that improves on the current level. It never retreats: a BUY take-profit
// only rises, a SELL take-profit only falls.
func (r *Reconciler) ratchetTakeProfit(ctx context.Context, pos models.Position) error {
	current := *pos.Levels.TakeProfit

	var target float64
	var improves bool
	switch pos.Direction {
	case models.SideBuy:
		target = helper.Round2(pos.EntryPrice * (1 + r.cfg.Trading.TPMovePct))
		improves = target > current
	case models.SideSell:
		target = helper.Round2(pos.EntryPrice * (1 - r.cfg.Trading.TPMovePct))
		improves = target < current
	default:
		return nil
	}
	if !improves {
		return nil
	}

	if err := r.broker.SetTakeProfit(ctx, pos.DealID, target); err != nil {
		return err
	}
	metrics.TPRatchets.Inc()
	logger.Info("ratcheted take-profit: %s %s %.2f -> %.2f", pos.Symbol, pos.DealID, current, target)
	r.journal.Record(ctx, journal.Entry{
		Kind: "TP_RATCHET", Symbol: pos.Symbol, Side: string(pos.Direction),
		DealID: pos.DealID, Level: target,
	})
	return nil
}

// moveToBreakeven moves the stop-loss to the entry price once unrealized
// profit reaches the trigger. Re-running it converges to the same value.
func (r *Reconciler) moveToBreakeven(ctx context.Context, pos models.Position) error {
	if pos.UnrealizedFraction() < r.cfg.Trading.BreakevenTrigger {
		return nil
	}
	target := helper.Round2(pos.EntryPrice)
	if pos.Levels.HasStopLoss() && *pos.Levels.StopLoss == target {
		return nil
	}

	if err := r.broker.SetStopLoss(ctx, pos.DealID, target); err != nil {
		return err
	}
	metrics.BreakevenMoves.Inc()
	logger.Info("moved stop-loss to breakeven: %s %s -> %.2f", pos.Symbol, pos.DealID, target)
	r.notifier.Sendf("🛡 %s: stop-loss moved to entry %.2f", pos.Symbol, target)
	r.journal.Record(ctx, journal.Entry{
		Kind: "BREAKEVEN", Symbol: pos.Symbol, Side: string(pos.Direction),
		DealID: pos.DealID, Level: target,
	})
	return nil
}
