// Package monitor implements PositionMonitor (C9): a ticker-driven loop
// that polls the latest candle for every open position and closes those
// that have crossed their stop-loss or take-profit.
//
// Grounded on cmd/cron/main.go's runMarketMonitor: run once immediately
// on startup, then tick on a time.Ticker, with a ctx.Done() case that can
// interrupt an in-flight sleep promptly for graceful shutdown.
package monitor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/engine"
)

const staleCandleThreshold = 5 * time.Minute

// QuoteClient is the subset of C1 the monitor needs.
type QuoteClient interface {
	FetchCandles(ctx context.Context, symbol, interval string, count int) ([]domain.OhlcvCandle, error)
}

// Engine is the subset of C7 the monitor needs.
type Engine interface {
	GetOpenPositions() []domain.Position
	Close(positionID string, exitPrice decimal.Decimal, reason domain.CloseReason) (engine.ClosedResult, error)
}

// Notifier is the subset of C4 the monitor detaches a call to on close.
type Notifier interface {
	OnPositionClosed(ctx context.Context, pos domain.Position, wallet domain.Wallet)
}

// Dispatcher detaches a task from the monitor's own lifecycle. See
// pkg/taskqueue.Queue.Submit.
type Dispatcher interface {
	Submit(task func(context.Context))
}

// Monitor is the PositionMonitor implementation.
type Monitor struct {
	quote      QuoteClient
	engine     Engine
	notifier   Notifier
	dispatcher Dispatcher
	interval   time.Duration
}

// New constructs a Monitor. interval is the tick cadence
// (paperTrading.monitorIntervalSeconds).
func New(quote QuoteClient, engine Engine, notifier Notifier, dispatcher Dispatcher, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Monitor{quote: quote, engine: engine, notifier: notifier, dispatcher: dispatcher, interval: interval}
}

// Run blocks until ctx is cancelled, ticking at m.interval. Per-position
// errors are logged and never stop the loop or skip subsequent ticks.
func (m *Monitor) Run(ctx context.Context) {
	m.tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("monitor: shutdown signal received, stopping position monitor")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	positions := m.engine.GetOpenPositions()
	if len(positions) == 0 {
		return
	}

	for _, pos := range positions {
		if ctx.Err() != nil {
			return
		}
		m.evaluatePosition(ctx, pos)
	}
}

func (m *Monitor) evaluatePosition(ctx context.Context, pos domain.Position) {
	candles, err := m.quote.FetchCandles(ctx, pos.Symbol, "1min", 1)
	if err != nil || len(candles) == 0 {
		logx.Errorf("monitor: fetch candle for %s failed, skipping this tick: %v", pos.Symbol, err)
		return
	}
	candle := candles[0]

	if time.Since(candle.OpenTime) > staleCandleThreshold {
		logx.Infof("monitor: candle for %s is stale (opened %s ago), market likely closed; evaluating anyway", pos.Symbol, time.Since(candle.OpenTime).Round(time.Second))
	}

	price := candle.Close
	reason, shouldClose := exitReason(pos, price)
	if !shouldClose {
		return
	}

	result, err := m.engine.Close(pos.PositionID, price, reason)
	if err != nil {
		logx.Errorf("monitor: close %s (%s) failed: %v", pos.PositionID, pos.Symbol, err)
		return
	}

	if m.notifier != nil && m.dispatcher != nil {
		m.dispatcher.Submit(func(ctx context.Context) {
			m.notifier.OnPositionClosed(ctx, result.Position, result.Wallet)
		})
	}
}

// exitReason implements the SL/TP crossing rules from spec.md §4.9.
func exitReason(pos domain.Position, price decimal.Decimal) (domain.CloseReason, bool) {
	switch pos.Direction {
	case domain.Long:
		if price.LessThanOrEqual(pos.StopLoss) {
			return domain.CloseStopLoss, true
		}
		if price.GreaterThanOrEqual(pos.TakeProfit) {
			return domain.CloseTakeProfit, true
		}
	case domain.Short:
		if price.GreaterThanOrEqual(pos.StopLoss) {
			return domain.CloseStopLoss, true
		}
		if price.LessThanOrEqual(pos.TakeProfit) {
			return domain.CloseTakeProfit, true
		}
	}
	return "", false
}
