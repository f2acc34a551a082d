// Package engine implements the PaperTradingEngine (C7): the sole
// mutator of wallet and position state, adapted from an in-memory
// margin simulator's pkg/exchange/sim shape to the collateral/
// leverage/stop-loss model spec.md §3-§4.7 describes.
//
// The commit discipline mirrors an applyOrderLocked/PlaceOrder pair:
// acquire the mutex, validate, mutate the in-memory state, persist
// while still holding the lock, then release. Persistence inside the
// critical section is deliberate (see spec.md §9) — it bounds how far
// the persisted file can lag committed state, which the crash-recovery
// property test in spec.md §8 relies on.
//
// Reads never wait on that critical section. Every mutation publishes
// a defensive-copied snapshot to an atomic pointer after it commits;
// advisory getters load that pointer instead of taking the mutex, so a
// slow Save() to disk inside persistLocked never blocks a concurrent
// CanOpen/GetWallet/GetState call.
package engine

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/tserr"
)

// Persistor is the subset of StatePersistor the engine needs. Satisfied
// structurally by *pkg/state.Persistor; defined here so this package
// doesn't import pkg/state, avoiding a cycle with anything that wires
// both together.
type Persistor interface {
	Load() (domain.EngineState, error)
	Save(domain.EngineState) error
}

// ClosedResult is the return value of Close.
type ClosedResult struct {
	Position domain.Position
	Wallet   domain.Wallet
}

// Engine is the process-wide paper-trading singleton. Zero value is not
// usable; construct with New.
type Engine struct {
	mu sync.Mutex

	cfg       Config
	persistor Persistor
	nowFn     func() time.Time

	loaded bool
	state  domain.EngineState

	// snapshot mirrors state for lock-free advisory reads. Every write
	// under mu ends by publishing a fresh clone here before releasing
	// the lock.
	snapshot atomic.Pointer[domain.EngineState]
}

// New constructs an Engine. Loading is deferred to the first mutation or
// read (ensureLoadedLocked), matching the lazy-init protocol in spec.md §4.7.
func New(cfg Config, persistor Persistor) *Engine {
	return &Engine{
		cfg:       cfg,
		persistor: persistor,
		nowFn:     time.Now,
	}
}

// ensureLoadedLocked seeds e.state from the persistor on first use. The
// caller must already hold e.mu.
func (e *Engine) ensureLoadedLocked() error {
	if e.loaded {
		return nil
	}
	s, err := e.persistor.Load()
	if err != nil {
		return tserr.Wrap(tserr.KindPersistenceFailure, "load engine state", err)
	}
	e.state = s
	e.loaded = true
	e.publishSnapshotLocked()
	return nil
}

// publishSnapshotLocked clones e.state and stores it for lock-free
// readers. The caller must already hold e.mu.
func (e *Engine) publishSnapshotLocked() {
	snap := e.state.Clone()
	e.snapshot.Store(&snap)
}

// Open admits a new position from a verdict. See spec.md §4.7.
func (e *Engine) Open(v domain.Verdict) (domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoadedLocked(); err != nil {
		return domain.Position{}, err
	}

	if v.Direction != domain.Long && v.Direction != domain.Short {
		return domain.Position{}, tserr.New(tserr.KindInvariantViolation, "invalid trade params: direction must be long or short")
	}
	if !v.HasPriceLevels() {
		return domain.Position{}, tserr.New(tserr.KindInvariantViolation, "invalid trade params: entry/stopLoss/takeProfit required")
	}

	if len(e.state.OpenPositions) >= e.cfg.MaxConcurrentPositions {
		return domain.Position{}, tserr.New(tserr.KindInvariantViolation, "position limit reached")
	}

	symbolKey := strings.ToUpper(v.Symbol)
	for _, p := range e.state.OpenPositions {
		if strings.ToUpper(p.Symbol) == symbolKey {
			return domain.Position{}, tserr.New(tserr.KindInvariantViolation, "duplicate symbol: position already open for "+v.Symbol)
		}
	}

	sizeUsd := e.state.Wallet.AvailableBalance.Mul(e.cfg.MaxPositionSizePercent)
	if sizeUsd.LessThanOrEqual(decimal.Zero) {
		return domain.Position{}, tserr.New(tserr.KindInvariantViolation, "insufficient balance")
	}

	entry := *v.EntryPrice
	stopLoss := *v.StopLoss
	takeProfit := *v.TakeProfit

	slDistance := stopLoss.Sub(entry).Abs().Div(entry)
	if slDistance.GreaterThan(e.cfg.MaxStopLossPercent) {
		capPct := e.cfg.MaxStopLossPercent
		switch v.Direction {
		case domain.Long:
			stopLoss = entry.Mul(decimal.NewFromInt(1).Sub(capPct))
		case domain.Short:
			stopLoss = entry.Mul(decimal.NewFromInt(1).Add(capPct))
		}
		logx.Infof("engine: capped stop-loss for %s to %s (verdict requested %s, max distance %s)",
			v.Symbol, stopLoss.String(), v.StopLoss.String(), capPct.String())
	}

	leverage := decimal.NewFromInt(int64(e.cfg.Leverage))
	quantity := sizeUsd.Mul(leverage).Div(entry)

	pos := domain.Position{
		PositionID:      uuid.NewString(),
		Symbol:          v.Symbol,
		Direction:       v.Direction,
		EntryPrice:      entry,
		PositionSizeUSD: sizeUsd,
		Quantity:        quantity,
		Leverage:        e.cfg.Leverage,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		Confidence:      v.Confidence,
		OpenedAt:        e.nowFn(),
		Reasoning:       v.Reasoning,
	}

	nextState := e.state.Clone()
	nextState.OpenPositions = append(nextState.OpenPositions, pos)
	nextState.Wallet.AvailableBalance = nextState.Wallet.AvailableBalance.Sub(sizeUsd)
	nextState.Wallet.TotalTrades++
	nextState.LastUpdatedAt = e.nowFn()

	e.state = nextState
	e.publishSnapshotLocked()
	e.persistLocked()

	return pos, nil
}

// Close settles an open position at exitPrice for the given reason. See
// spec.md §4.7.
func (e *Engine) Close(positionID string, exitPrice decimal.Decimal, reason domain.CloseReason) (ClosedResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoadedLocked(); err != nil {
		return ClosedResult{}, err
	}

	idx := -1
	for i, p := range e.state.OpenPositions {
		if strings.EqualFold(p.PositionID, positionID) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ClosedResult{}, tserr.New(tserr.KindInvariantViolation, "position not found: "+positionID)
	}

	pos := e.state.OpenPositions[idx]

	var priceChange decimal.Decimal
	if pos.Direction == domain.Long {
		priceChange = exitPrice.Sub(pos.EntryPrice)
	} else {
		priceChange = pos.EntryPrice.Sub(exitPrice)
	}
	pnl := priceChange.Div(pos.EntryPrice).
		Mul(pos.PositionSizeUSD).
		Mul(decimal.NewFromInt(int64(pos.Leverage)))

	closed := pos
	closed.Closed = true
	closed.ClosedAt = e.nowFn()
	closed.ExitPrice = exitPrice
	closed.RealizedPnl = pnl
	closed.CloseReason = reason

	nextState := e.state.Clone()
	nextState.OpenPositions = append(nextState.OpenPositions[:idx:idx], nextState.OpenPositions[idx+1:]...)
	nextState.ClosedPositions = append(nextState.ClosedPositions, closed)

	newAvailable := nextState.Wallet.AvailableBalance.Add(pos.PositionSizeUSD).Add(pnl)
	if newAvailable.IsNegative() {
		newAvailable = decimal.Zero
	}
	nextState.Wallet.AvailableBalance = newAvailable
	nextState.Wallet.TotalRealizedPnl = nextState.Wallet.TotalRealizedPnl.Add(pnl)
	if pnl.GreaterThanOrEqual(decimal.Zero) {
		nextState.Wallet.WinningTrades++
	} else {
		nextState.Wallet.LosingTrades++
	}
	nextState.LastUpdatedAt = e.nowFn()

	e.state = nextState
	e.publishSnapshotLocked()
	e.persistLocked()

	return ClosedResult{Position: closed, Wallet: nextState.Wallet}, nil
}

// persistLocked saves the current state. The caller must hold e.mu.
// Save failures are logged and never roll back the in-memory mutation:
// the process's in-memory state remains authoritative until the next
// successful Save (spec.md §4.7, §7 PersistenceFailure).
func (e *Engine) persistLocked() {
	if err := e.persistor.Save(e.state); err != nil {
		logx.Errorf("engine: persist state failed, in-memory state remains authoritative: %v", err)
	}
}

// snapshotState returns the last-published snapshot without taking
// e.mu. If nothing has been published yet (first call in the
// process, before any Open/Close/GetState triggers the lazy load),
// it falls back to a locked load-and-publish, matching spec.md
// §4.7's lazy-init protocol without forcing every subsequent read to
// pay for the lock.
func (e *Engine) snapshotState() domain.EngineState {
	if snap := e.snapshot.Load(); snap != nil {
		return *snap
	}
	return e.loadAndPublish()
}

func (e *Engine) loadAndPublish() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoadedLocked(); err != nil {
		logx.Errorf("engine: load state failed, returning empty snapshot: %v", err)
		return domain.EngineState{OpenPositions: []domain.Position{}, ClosedPositions: []domain.Position{}}
	}
	return e.state.Clone()
}

// CanOpen is an advisory, lock-free check: open count under the cap and
// a positive available balance. The authoritative check happens inside
// Open under the mutex.
func (e *Engine) CanOpen() bool {
	snap := e.snapshotState()
	return len(snap.OpenPositions) < e.cfg.MaxConcurrentPositions && snap.Wallet.AvailableBalance.GreaterThan(decimal.Zero)
}

// HasOpenFor is an advisory, case-insensitive, lock-free lookup.
func (e *Engine) HasOpenFor(symbol string) bool {
	snap := e.snapshotState()
	key := strings.ToUpper(symbol)
	for _, p := range snap.OpenPositions {
		if strings.ToUpper(p.Symbol) == key {
			return true
		}
	}
	return false
}

// GetWallet returns a defensive, lock-free copy of the current wallet.
func (e *Engine) GetWallet() domain.Wallet {
	return e.snapshotState().Wallet
}

// GetOpenPositions returns a defensive, lock-free copy of open positions.
func (e *Engine) GetOpenPositions() []domain.Position {
	return e.snapshotState().OpenPositions
}

// GetClosedPositions returns a defensive, lock-free copy of closed positions.
func (e *Engine) GetClosedPositions() []domain.Position {
	return e.snapshotState().ClosedPositions
}

// GetState returns a defensive, lock-free copy of the full engine
// state, triggering the lazy load first if this is the first call in
// the process.
func (e *Engine) GetState() domain.EngineState {
	return e.snapshotState()
}
