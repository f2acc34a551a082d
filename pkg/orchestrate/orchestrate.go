// Package orchestrate implements AnalysisOrchestrator (C6): normalize the
// alert's symbol, fan out across the timeframe ladder to the quote
// vendor, hand the collected candles to the oracle, and detach the
// notifier/admission side effects from the inbound request.
//
// The timeframe fan-out uses golang.org/x/sync/errgroup the way the
// teacher's pkg/manager.Manager fans work out across traders with a
// supervised goroutine group, generalized here to a bounded set of
// parallel HTTP calls that must not let one slow/failing timeframe block
// the others.
package orchestrate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"tradesmart-api/pkg/admission"
	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/symbol"
	"tradesmart-api/pkg/transport"
	"tradesmart-api/pkg/tserr"
)

// DefaultTimeframeLadder is the fixed multi-resolution ladder submitted
// together to the oracle for multi-scale context, per spec.md §4.6.
var DefaultTimeframeLadder = []string{"1min", "5min", "15min", "1h", "4h", "1day"}

// candlesPerTimeframe bounds how many candles are requested per rung of
// the ladder.
const candlesPerTimeframe = 50

// QuoteClient is the subset of C1 the orchestrator needs.
type QuoteClient interface {
	FetchCandles(ctx context.Context, symbol, interval string, count int) ([]domain.OhlcvCandle, error)
}

// VerdictOracle is the subset of C2 the orchestrator needs.
type VerdictOracle interface {
	Analyze(ctx context.Context, alert domain.Alert, marketData []domain.TimeframeData) (domain.Verdict, error)
}

// Notifier is the subset of C4 the orchestrator detaches a call to.
type Notifier interface {
	OnAlertAnalyzed(ctx context.Context, alert domain.Alert, verdict domain.Verdict)
}

// AdmissionFilter is the subset of C8 the orchestrator detaches a call to.
type AdmissionFilter interface {
	Evaluate(ctx context.Context, v domain.Verdict) admission.Result
}

// Dispatcher detaches a task from the caller's cancellation scope. See
// pkg/taskqueue.Queue.Submit.
type Dispatcher interface {
	Submit(task func(context.Context))
}

// Orchestrator is the AnalysisOrchestrator implementation.
type Orchestrator struct {
	quote      QuoteClient
	oracle     VerdictOracle
	notifier   Notifier
	admission  AdmissionFilter
	dispatcher Dispatcher
	ladder     []string
	logger     transport.Logger
}

// New constructs an Orchestrator. ladder overrides DefaultTimeframeLadder
// when non-empty.
func New(quote QuoteClient, oracleClient VerdictOracle, notifier Notifier, admission AdmissionFilter, dispatcher Dispatcher, ladder []string) *Orchestrator {
	if len(ladder) == 0 {
		ladder = DefaultTimeframeLadder
	}
	return &Orchestrator{
		quote:      quote,
		oracle:     oracleClient,
		notifier:   notifier,
		admission:  admission,
		dispatcher: dispatcher,
		ladder:     ladder,
		logger:     transport.NewLogger("info"),
	}
}

// Analyze drives C5 -> C1xN -> C2, then detaches the Notifier/Admission
// side effects before returning the verdict to the caller.
func (o *Orchestrator) Analyze(ctx context.Context, alert domain.Alert) (domain.Verdict, error) {
	if alert.Symbol == "" {
		return domain.Verdict{}, tserr.New(tserr.KindInvalidInput, "alert symbol is required")
	}

	canonical := symbol.Normalize(alert.Symbol)

	collected := o.fetchTimeframes(ctx, canonical)
	if len(collected) == 0 {
		return domain.Verdict{}, tserr.New(tserr.KindNoMarketData, "no timeframe succeeded for "+canonical)
	}

	verdict, err := o.oracle.Analyze(ctx, alert, collected)
	if err != nil {
		return domain.Verdict{}, err
	}
	if verdict.Symbol == "" {
		verdict.Symbol = canonical
	}

	if o.dispatcher != nil {
		if o.notifier != nil {
			o.dispatcher.Submit(func(ctx context.Context) {
				o.notifier.OnAlertAnalyzed(ctx, alert, verdict)
			})
		}
		if o.admission != nil {
			o.dispatcher.Submit(func(ctx context.Context) {
				o.admission.Evaluate(ctx, verdict)
			})
		}
	}

	return verdict, nil
}

// fetchTimeframes fans out FetchCandles across the ladder, collecting
// only the timeframes that succeeded. A per-timeframe failure is logged
// and dropped rather than failing the whole analysis.
func (o *Orchestrator) fetchTimeframes(ctx context.Context, canonicalSymbol string) []domain.TimeframeData {
	var (
		mu      sync.Mutex
		results []domain.TimeframeData
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, tf := range o.ladder {
		tf := tf
		g.Go(func() error {
			candles, err := o.quote.FetchCandles(gctx, canonicalSymbol, tf, candlesPerTimeframe)
			if err != nil {
				o.logger.Warn(ctx, "orchestrate: timeframe fetch failed, dropping", transport.Fields{
					"symbol": canonicalSymbol, "timeframe": tf, "error": err.Error(),
				})
				return nil
			}
			mu.Lock()
			results = append(results, domain.TimeframeData{Timeframe: tf, Candles: candles})
			mu.Unlock()
			return nil
		})
	}
	// errgroup.Wait's error is always nil here: per-timeframe failures are
	// swallowed above so one bad timeframe can never cancel the others.
	_ = g.Wait()

	return results
}
