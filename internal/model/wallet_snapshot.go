package model

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// WalletSnapshot mirrors the wallet ledger at a point in time.
type WalletSnapshot struct {
	AvailableBalance float64
	TotalRealizedPnl float64
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	RecordedAt       time.Time
}

// WalletSnapshotModel persists the single latest wallet snapshot row.
type WalletSnapshotModel struct {
	conn sqlx.SqlConn
}

// NewWalletSnapshotModel constructs a WalletSnapshotModel over conn.
func NewWalletSnapshotModel(conn sqlx.SqlConn) *WalletSnapshotModel {
	return &WalletSnapshotModel{conn: conn}
}

// Upsert replaces the single tracked wallet row. There is exactly one
// paper-trading wallet per process, so the table never grows past one
// row.
func (m *WalletSnapshotModel) Upsert(ctx context.Context, snap WalletSnapshot) error {
	const stmt = `
INSERT INTO wallet_snapshot (id, available_balance, total_realized_pnl, total_trades, winning_trades, losing_trades, recorded_at)
VALUES (1, $1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	available_balance = EXCLUDED.available_balance,
	total_realized_pnl = EXCLUDED.total_realized_pnl,
	total_trades = EXCLUDED.total_trades,
	winning_trades = EXCLUDED.winning_trades,
	losing_trades = EXCLUDED.losing_trades,
	recorded_at = EXCLUDED.recorded_at`
	_, err := m.conn.ExecCtx(ctx, stmt,
		snap.AvailableBalance, snap.TotalRealizedPnl, snap.TotalTrades, snap.WinningTrades, snap.LosingTrades, snap.RecordedAt.UTC())
	return err
}
