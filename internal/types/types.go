// Package types holds the JSON DTOs for TradeSmart's HTTP surface:
// hand-written request/response shapes alongside the handlers that
// use them.
package types

import "time"

// WebhookRequest is the inbound charting-platform alert, spec.md §6.
type WebhookRequest struct {
	Symbol   string  `json:"symbol"`
	Exchange string  `json:"exchange,omitempty"`
	Action   string  `json:"action,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Interval string  `json:"interval,omitempty"`
	Message  string  `json:"message,omitempty"`
	Secret   string  `json:"secret,omitempty"`
}

// VerdictResponse is the oracle's structured trade judgement, spec.md §6.
type VerdictResponse struct {
	Symbol          string    `json:"symbol"`
	Direction       string    `json:"direction"`
	Confidence      int       `json:"confidence"`
	EntryPrice      *float64  `json:"entryPrice,omitempty"`
	StopLoss        *float64  `json:"stopLoss,omitempty"`
	TakeProfit      *float64  `json:"takeProfit,omitempty"`
	RiskRewardRatio string    `json:"riskRewardRatio,omitempty"`
	Reasoning       string    `json:"reasoning"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// WalletResponse is the wallet ledger shape embedded in StateResponse.
type WalletResponse struct {
	InitialBalance   float64 `json:"initialBalance"`
	AvailableBalance float64 `json:"availableBalance"`
	TotalRealizedPnl float64 `json:"totalRealizedPnl"`
	TotalTrades      int     `json:"totalTrades"`
	WinningTrades    int     `json:"winningTrades"`
	LosingTrades     int     `json:"losingTrades"`
}

// PositionResponse is one simulated leveraged position, open or closed.
type PositionResponse struct {
	PositionID      string    `json:"positionId"`
	Symbol          string    `json:"symbol"`
	Direction       string    `json:"direction"`
	EntryPrice      float64   `json:"entryPrice"`
	PositionSizeUSD float64   `json:"positionSizeUsd"`
	Quantity        float64   `json:"quantity"`
	Leverage        int       `json:"leverage"`
	StopLoss        float64   `json:"stopLoss"`
	TakeProfit      float64   `json:"takeProfit"`
	Confidence      int       `json:"confidence"`
	OpenedAt        time.Time `json:"openedAt"`
	Reasoning       string    `json:"reasoning,omitempty"`

	Closed      bool       `json:"closed"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
	ExitPrice   *float64   `json:"exitPrice,omitempty"`
	RealizedPnl *float64   `json:"realizedPnl,omitempty"`
	CloseReason string     `json:"closeReason,omitempty"`
}

// StateResponse is the GET /state body, spec.md §6.
type StateResponse struct {
	Wallet        WalletResponse     `json:"wallet"`
	OpenPositions []PositionResponse `json:"openPositions"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
}

// HistoryResponse is the GET /history body: every closed position.
type HistoryResponse struct {
	ClosedPositions []PositionResponse `json:"closedPositions"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the single well-formed error body every failure
// mode returns (spec.md §8's "user-visible failure behavior").
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
