// Package domain holds the data types shared by every TradeSmart
// component: candles, alerts, verdicts, wallet and position state. All
// types here are immutable value types — mutation always produces a new
// value rather than modifying one in place, so snapshots handed to
// callers can never be torn or retroactively changed underneath them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The persisted state file and every JSON API response represent
	// monetary fields as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Direction is the side of a verdict or position.
type Direction string

const (
	Long    Direction = "long"
	Short   Direction = "short"
	NoTrade Direction = "no_trade"
)

// ParseDirection maps a free-form string to a Direction, defaulting to
// NoTrade for anything that isn't recognized (per spec: unknown
// directions must never error, they must fail closed into NoTrade).
func ParseDirection(raw string) Direction {
	switch Direction(normalizeEnum(raw)) {
	case Long:
		return Long
	case Short:
		return Short
	default:
		return NoTrade
	}
}

func normalizeEnum(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

// CloseReason records why a position was closed.
type CloseReason string

const (
	CloseStopLoss   CloseReason = "stop_loss"
	CloseTakeProfit CloseReason = "take_profit"
	CloseManual     CloseReason = "manual"
)

// OhlcvCandle is a single open/high/low/close/volume bar. Immutable.
type OhlcvCandle struct {
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   int64
}

// TimeframeData is an ordered, newest-first sequence of candles for one
// resolution tag (e.g. "1min", "1h", "1day"). Immutable.
type TimeframeData struct {
	Timeframe string
	Candles   []OhlcvCandle
}

// Alert is an inbound webhook payload from the charting platform.
// Immutable.
type Alert struct {
	Symbol       string
	Exchange     string
	ActionHint   string
	Price        decimal.Decimal
	IntervalHint string
	Message      string
	Secret       string
	ReceivedAt   time.Time
}

// Verdict is the oracle's structured trade judgement. Immutable.
type Verdict struct {
	Symbol           string
	Direction        Direction
	Confidence       int
	EntryPrice       *decimal.Decimal
	StopLoss         *decimal.Decimal
	TakeProfit       *decimal.Decimal
	RiskRewardText   string
	Reasoning        string
	AnalyzedAt       time.Time
}

// HasPriceLevels reports whether entry/SL/TP are all present.
func (v Verdict) HasPriceLevels() bool {
	return v.EntryPrice != nil && v.StopLoss != nil && v.TakeProfit != nil
}

// Wallet is the paper-trading account's cash/performance ledger.
// Immutable; every mutation produces a new Wallet value.
type Wallet struct {
	InitialBalance   decimal.Decimal
	AvailableBalance decimal.Decimal
	TotalRealizedPnl decimal.Decimal
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
}

// Position is a simulated leveraged trade. Immutable once created;
// closing produces a new, closed copy rather than mutating the original.
type Position struct {
	PositionID      string
	Symbol          string
	Direction       Direction
	EntryPrice      decimal.Decimal
	PositionSizeUSD decimal.Decimal
	Quantity        decimal.Decimal
	Leverage        int
	StopLoss        decimal.Decimal
	TakeProfit      decimal.Decimal
	Confidence      int
	OpenedAt        time.Time
	Reasoning       string

	Closed      bool
	ClosedAt    time.Time
	ExitPrice   decimal.Decimal
	RealizedPnl decimal.Decimal
	CloseReason CloseReason
}

// EngineState is the single unit of persistence: wallet + open positions
// + closed positions + a last-updated timestamp.
type EngineState struct {
	Wallet          Wallet
	OpenPositions   []Position
	ClosedPositions []Position
	LastUpdatedAt   time.Time
}

// Clone returns a deep-enough copy that callers cannot mutate the
// engine's internal slices through the returned value.
func (s EngineState) Clone() EngineState {
	open := make([]Position, len(s.OpenPositions))
	copy(open, s.OpenPositions)
	closed := make([]Position, len(s.ClosedPositions))
	copy(closed, s.ClosedPositions)
	return EngineState{
		Wallet:          s.Wallet,
		OpenPositions:   open,
		ClosedPositions: closed,
		LastUpdatedAt:   s.LastUpdatedAt,
	}
}
