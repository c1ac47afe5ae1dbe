package service

import (
	"context"

	"captrader/pkg/db"
	"captrader/pkg/logger"

	"github.com/pkg/errors"
)

// Entry is one row in the trade journal: an order, a repair, a ratchet
// move or a breakeven move.
type Entry struct {
	Kind          string // ORDER | TP_REPAIR | SL_REPAIR | TP_RATCHET | BREAKEVEN
	Symbol        string
	Side          string
	DealID        string
	DealReference string
	Level         float64
	Size          float64
	Detail        string
}

// Journal records trade lifecycle events. Best effort by contract: a
// journal failure is logged by the implementation and never propagated
// into the trading path.
type Journal interface {
	Record(ctx context.Context, e Entry)
}

const schema = `
CREATE TABLE IF NOT EXISTS trade_journal (
	id            BIGSERIAL PRIMARY KEY,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	kind          TEXT NOT NULL,
	symbol        TEXT NOT NULL DEFAULT '',
	side          TEXT NOT NULL DEFAULT '',
	deal_id       TEXT NOT NULL DEFAULT '',
	deal_ref      TEXT NOT NULL DEFAULT '',
	level         DOUBLE PRECISION NOT NULL DEFAULT 0,
	size          DOUBLE PRECISION NOT NULL DEFAULT 0,
	detail        TEXT NOT NULL DEFAULT ''
)`

const insertEntry = `
INSERT INTO trade_journal (kind, symbol, side, deal_id, deal_ref, level, size, detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type PgJournal struct {
	tx db.TxManager
}

func NewPgJournal(ctx context.Context, tx db.TxManager) (*PgJournal, error) {
	j := &PgJournal{tx: tx}
	if err := j.ensureSchema(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure journal schema")
	}
	return j, nil
}

func (j *PgJournal) ensureSchema(ctx context.Context) error {
	return j.tx.Run(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, schema)
		return err
	})
}

func (j *PgJournal) Record(ctx context.Context, e Entry) {
	err := j.tx.Run(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertEntry,
			e.Kind, e.Symbol, e.Side, e.DealID, e.DealReference, e.Level, e.Size, e.Detail)
		return err
	})
	if err != nil {
		logger.Warn("journal write failed (kind=%s deal=%s): %v", e.Kind, e.DealID, err)
	}
}

// Noop is used when no database is configured.
type Noop struct{}

func NewNoop() *Noop                          { return &Noop{} }
func (n *Noop) Record(context.Context, Entry) {}
