// Package admission implements AdmissionFilter (C8): the ordered risk
// gate chain that decides whether a verdict is allowed to open a paper
// position, in the style of pkg/executor/validator.go's
// ValidateDecisions — one failure short-circuits the chain with a
// structured rejection reason, never a panic or bare error return.
package admission

import (
	"context"
	"fmt"
	"strings"

	"tradesmart-api/pkg/domain"
)

// Engine is the subset of PaperTradingEngine the filter needs.
type Engine interface {
	CanOpen() bool
	HasOpenFor(symbol string) bool
	Open(v domain.Verdict) (domain.Position, error)
	GetWallet() domain.Wallet
}

// Notifier is the subset of Notifier the filter needs.
type Notifier interface {
	OnPositionOpened(ctx context.Context, pos domain.Position, wallet domain.Wallet)
}

// Config holds the admission thresholds from spec.md §6.
type Config struct {
	Enabled             bool
	AllowedBaseSymbols  []string
	ConfidenceThreshold int
}

// Result is the outcome of Evaluate.
type Result struct {
	Opened          bool
	Position        *domain.Position
	RejectionReason string
	Verdict         domain.Verdict
}

// Dispatcher detaches a task from the caller's cancellation scope. See
// pkg/taskqueue.Queue.Submit.
type Dispatcher interface {
	Submit(task func(context.Context))
}

// Filter applies the eight gates from spec.md §4.8 in order.
type Filter struct {
	cfg        Config
	engine     Engine
	notifier   Notifier
	dispatcher Dispatcher
}

// New constructs a Filter.
func New(cfg Config, engine Engine, notifier Notifier, dispatcher Dispatcher) *Filter {
	return &Filter{cfg: cfg, engine: engine, notifier: notifier, dispatcher: dispatcher}
}

// Evaluate runs the gate chain against a verdict. It never mutates
// engine state directly — only Engine.Open does that, and only after
// every gate passes.
func (f *Filter) Evaluate(ctx context.Context, v domain.Verdict) Result {
	reject := func(reason string) Result {
		return Result{Opened: false, RejectionReason: reason, Verdict: v}
	}

	if !f.cfg.Enabled {
		return reject("paper trading disabled")
	}
	if !f.baseSymbolAllowed(v.Symbol) {
		return reject(fmt.Sprintf("symbol %s not in allow-list", v.Symbol))
	}
	if v.Direction == domain.NoTrade {
		return reject("verdict direction is NoTrade")
	}
	if v.Confidence < f.cfg.ConfidenceThreshold {
		return reject(fmt.Sprintf("confidence %d below threshold %d", v.Confidence, f.cfg.ConfidenceThreshold))
	}
	if !v.HasPriceLevels() {
		return reject("entry/stopLoss/takeProfit missing")
	}
	if !f.engine.CanOpen() {
		return reject("engine cannot open (capacity or balance)")
	}
	if f.engine.HasOpenFor(v.Symbol) {
		return reject(fmt.Sprintf("position already open for %s", v.Symbol))
	}

	pos, err := f.engine.Open(v)
	if err != nil {
		return reject(err.Error())
	}
	wallet := f.engine.GetWallet()

	if f.notifier != nil && f.dispatcher != nil {
		f.dispatcher.Submit(func(ctx context.Context) {
			f.notifier.OnPositionOpened(ctx, pos, wallet)
		})
	}

	return Result{Opened: true, Position: &pos, Verdict: v}
}

// baseSymbolAllowed checks the prefix before any "/" against the
// configured allow-list, case-insensitively.
func (f *Filter) baseSymbolAllowed(symbol string) bool {
	base := symbol
	if i := strings.Index(symbol, "/"); i >= 0 {
		base = symbol[:i]
	}
	base = strings.ToUpper(strings.TrimSpace(base))
	for _, allowed := range f.cfg.AllowedBaseSymbols {
		if strings.ToUpper(strings.TrimSpace(allowed)) == base {
			return true
		}
	}
	return false
}
