package orchestrate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesmart-api/pkg/admission"
	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/tserr"
)

type stubQuote struct {
	failInterval string
}

func (s stubQuote) FetchCandles(ctx context.Context, sym, interval string, count int) ([]domain.OhlcvCandle, error) {
	if interval == s.failInterval {
		return nil, tserr.New(tserr.KindVendorTransport, "boom")
	}
	return []domain.OhlcvCandle{{}}, nil
}

type stubOracle struct {
	verdict domain.Verdict
	gotTFs  []string
}

func (s *stubOracle) Analyze(ctx context.Context, alert domain.Alert, marketData []domain.TimeframeData) (domain.Verdict, error) {
	for _, tf := range marketData {
		s.gotTFs = append(s.gotTFs, tf.Timeframe)
	}
	return s.verdict, nil
}

type stubNotifier struct {
	mu      sync.Mutex
	called  bool
}

func (s *stubNotifier) OnAlertAnalyzed(ctx context.Context, alert domain.Alert, verdict domain.Verdict) {
	s.mu.Lock()
	s.called = true
	s.mu.Unlock()
}

type stubDispatcher struct{}

func (stubDispatcher) Submit(task func(context.Context)) { task(context.Background()) }

type stubAdmission struct{}

func (stubAdmission) Evaluate(ctx context.Context, v domain.Verdict) admission.Result {
	return admission.Result{Opened: false, Verdict: v}
}

func TestAnalyze_DropsFailedTimeframes(t *testing.T) {
	oc := &stubOracle{verdict: domain.Verdict{Symbol: "BTC/USD", Direction: domain.Long}}
	notifier := &stubNotifier{}
	o := New(stubQuote{failInterval: "4h"}, oc, notifier, stubAdmission{}, stubDispatcher{}, nil)

	v, err := o.Analyze(context.Background(), domain.Alert{Symbol: "btcusdt"})
	require.NoError(t, err)
	assert.Equal(t, domain.Long, v.Direction)
	assert.NotContains(t, oc.gotTFs, "4h")
	assert.Contains(t, oc.gotTFs, "1min")
	assert.True(t, notifier.called)
}

type alwaysFailQuote struct{}

func (alwaysFailQuote) FetchCandles(ctx context.Context, sym, interval string, count int) ([]domain.OhlcvCandle, error) {
	return nil, tserr.New(tserr.KindVendorTransport, "boom")
}

func TestAnalyze_NoMarketDataWhenAllTimeframesFail(t *testing.T) {
	o := New(alwaysFailQuote{}, &stubOracle{}, nil, nil, nil, nil)
	_, err := o.Analyze(context.Background(), domain.Alert{Symbol: "BTC/USD"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_market_data")
}

func TestAnalyze_RejectsEmptySymbol(t *testing.T) {
	o := New(stubQuote{}, &stubOracle{}, nil, nil, nil, nil)
	_, err := o.Analyze(context.Background(), domain.Alert{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_input")
}
