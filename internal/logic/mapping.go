package logic

import (
	"tradesmart-api/internal/types"
	"tradesmart-api/pkg/domain"
)

func walletResponse(w domain.Wallet) types.WalletResponse {
	return types.WalletResponse{
		InitialBalance:   floatValue(w.InitialBalance),
		AvailableBalance: floatValue(w.AvailableBalance),
		TotalRealizedPnl: floatValue(w.TotalRealizedPnl),
		TotalTrades:      w.TotalTrades,
		WinningTrades:    w.WinningTrades,
		LosingTrades:     w.LosingTrades,
	}
}

func positionResponse(p domain.Position) types.PositionResponse {
	resp := types.PositionResponse{
		PositionID:      p.PositionID,
		Symbol:          p.Symbol,
		Direction:       string(p.Direction),
		EntryPrice:      floatValue(p.EntryPrice),
		PositionSizeUSD: floatValue(p.PositionSizeUSD),
		Quantity:        floatValue(p.Quantity),
		Leverage:        p.Leverage,
		StopLoss:        floatValue(p.StopLoss),
		TakeProfit:      floatValue(p.TakeProfit),
		Confidence:      p.Confidence,
		OpenedAt:        p.OpenedAt,
		Reasoning:       p.Reasoning,
		Closed:          p.Closed,
		CloseReason:     string(p.CloseReason),
	}
	if p.Closed {
		closedAt := p.ClosedAt
		resp.ClosedAt = &closedAt
		exitPrice := floatValue(p.ExitPrice)
		resp.ExitPrice = &exitPrice
		realizedPnl := floatValue(p.RealizedPnl)
		resp.RealizedPnl = &realizedPnl
	}
	return resp
}

func positionResponses(positions []domain.Position) []types.PositionResponse {
	out := make([]types.PositionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionResponse(p))
	}
	return out
}

func floatValue(d interface{ Float64() (float64, bool) }) float64 {
	f, _ := d.Float64()
	return f
}
