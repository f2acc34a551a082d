// Package model holds the audit mirror's Postgres row types. Unlike the
// teacher's goctl-generated models, these are hand-written: TradeSmart's
// audit schema is two small tables (position_audit, whose rows are
// updated on close, and wallet_snapshot, a single upserted row), not a
// multi-table, multi-trader schema that benefits from code generation.
package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// PositionAudit mirrors one open or closed paper position for
// out-of-process inspection. It is never read back into the engine;
// domain.EngineState remains the single source of truth.
type PositionAudit struct {
	PositionID  string
	Symbol      string
	Direction   string
	EntryPrice  float64
	SizeUSD     float64
	Leverage    int
	StopLoss    float64
	TakeProfit  float64
	Confidence  int
	OpenedAt    time.Time
	ExitPrice   sql.NullFloat64
	ClosedAt    sql.NullTime
	RealizedPnl sql.NullFloat64
	CloseReason sql.NullString
}

// PositionAuditModel persists PositionAudit rows.
type PositionAuditModel struct {
	conn sqlx.SqlConn
}

// NewPositionAuditModel constructs a PositionAuditModel over conn.
func NewPositionAuditModel(conn sqlx.SqlConn) *PositionAuditModel {
	return &PositionAuditModel{conn: conn}
}

// InsertOpen mirrors a newly opened position. A duplicate position ID
// (a retried dispatch) is treated as success, not an error.
func (m *PositionAuditModel) InsertOpen(ctx context.Context, row PositionAudit) error {
	const stmt = `
INSERT INTO position_audit (
	position_id, symbol, direction, entry_price, size_usd, leverage,
	stop_loss, take_profit, confidence, opened_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (position_id) DO NOTHING`
	_, err := m.conn.ExecCtx(ctx, stmt,
		row.PositionID, row.Symbol, row.Direction, row.EntryPrice, row.SizeUSD, row.Leverage,
		row.StopLoss, row.TakeProfit, row.Confidence, row.OpenedAt.UTC())
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// MarkClosed records the exit of a previously mirrored position.
func (m *PositionAuditModel) MarkClosed(ctx context.Context, positionID string, exitPrice, realizedPnl float64, closeReason string, closedAt time.Time) error {
	const stmt = `
UPDATE position_audit
SET exit_price = $2, realized_pnl = $3, close_reason = $4, closed_at = $5
WHERE position_id = $1`
	_, err := m.conn.ExecCtx(ctx, stmt, positionID, exitPrice, realizedPnl, closeReason, closedAt.UTC())
	return err
}

func isUniqueViolation(err error) bool {
	pgErr, ok := err.(*pq.Error)
	return ok && pgErr.Code == "23505"
}
