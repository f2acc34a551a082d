package admission

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesmart-api/pkg/domain"
)

type stubEngine struct {
	canOpen    bool
	hasOpenFor bool
	openErr    error
	opened     domain.Position
	wallet     domain.Wallet
}

func (s *stubEngine) CanOpen() bool               { return s.canOpen }
func (s *stubEngine) HasOpenFor(symbol string) bool { return s.hasOpenFor }
func (s *stubEngine) GetWallet() domain.Wallet    { return s.wallet }
func (s *stubEngine) Open(v domain.Verdict) (domain.Position, error) {
	if s.openErr != nil {
		return domain.Position{}, s.openErr
	}
	return s.opened, nil
}

type stubNotifier struct {
	called bool
}

func (n *stubNotifier) OnPositionOpened(ctx context.Context, pos domain.Position, wallet domain.Wallet) {
	n.called = true
}

type stubDispatcher struct{}

func (stubDispatcher) Submit(task func(context.Context)) { task(context.Background()) }

func priceLevels() (entry, sl, tp decimal.Decimal) {
	return decimal.NewFromInt(100), decimal.NewFromInt(95), decimal.NewFromInt(110)
}

func validVerdict() domain.Verdict {
	entry, sl, tp := priceLevels()
	return domain.Verdict{
		Symbol:     "BTC/USD",
		Direction:  domain.Long,
		Confidence: 90,
		EntryPrice: &entry,
		StopLoss:   &sl,
		TakeProfit: &tp,
	}
}

func baseConfig() Config {
	return Config{Enabled: true, AllowedBaseSymbols: []string{"BTC", "ETH"}, ConfidenceThreshold: 80}
}

func TestEvaluate_RejectsWhenDisabled(t *testing.T) {
	f := New(Config{Enabled: false}, &stubEngine{canOpen: true}, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.False(t, res.Opened)
	assert.Equal(t, "paper trading disabled", res.RejectionReason)
}

func TestEvaluate_RejectsSymbolNotAllowed(t *testing.T) {
	cfg := baseConfig()
	cfg.AllowedBaseSymbols = []string{"XAU"}
	f := New(cfg, &stubEngine{canOpen: true}, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.False(t, res.Opened)
	assert.Contains(t, res.RejectionReason, "not in allow-list")
}

func TestEvaluate_AllowsBaseSymbolPrefixCaseInsensitively(t *testing.T) {
	cfg := baseConfig()
	cfg.AllowedBaseSymbols = []string{"btc"}
	eng := &stubEngine{canOpen: true, opened: domain.Position{PositionID: "p1"}}
	f := New(cfg, eng, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.True(t, res.Opened)
}

func TestEvaluate_RejectsNoTradeDirection(t *testing.T) {
	v := validVerdict()
	v.Direction = domain.NoTrade
	f := New(baseConfig(), &stubEngine{canOpen: true}, nil, nil)
	res := f.Evaluate(context.Background(), v)
	assert.False(t, res.Opened)
	assert.Equal(t, "verdict direction is NoTrade", res.RejectionReason)
}

func TestEvaluate_RejectsBelowConfidenceThreshold(t *testing.T) {
	v := validVerdict()
	v.Confidence = 79
	f := New(baseConfig(), &stubEngine{canOpen: true}, nil, nil)
	res := f.Evaluate(context.Background(), v)
	assert.False(t, res.Opened)
	assert.Contains(t, res.RejectionReason, "confidence")
}

func TestEvaluate_RejectsMissingPriceLevels(t *testing.T) {
	v := validVerdict()
	v.StopLoss = nil
	f := New(baseConfig(), &stubEngine{canOpen: true}, nil, nil)
	res := f.Evaluate(context.Background(), v)
	assert.False(t, res.Opened)
	assert.Contains(t, res.RejectionReason, "missing")
}

func TestEvaluate_RejectsWhenEngineCannotOpen(t *testing.T) {
	f := New(baseConfig(), &stubEngine{canOpen: false}, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.False(t, res.Opened)
	assert.Contains(t, res.RejectionReason, "capacity or balance")
}

func TestEvaluate_RejectsWhenSymbolAlreadyOpen(t *testing.T) {
	f := New(baseConfig(), &stubEngine{canOpen: true, hasOpenFor: true}, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.False(t, res.Opened)
	assert.Contains(t, res.RejectionReason, "already open")
}

func TestEvaluate_RejectsWhenEngineOpenFails(t *testing.T) {
	eng := &stubEngine{canOpen: true, openErr: assertErr("insufficient balance")}
	f := New(baseConfig(), eng, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.False(t, res.Opened)
	assert.Equal(t, "insufficient balance", res.RejectionReason)
}

func TestEvaluate_OpensAndNotifiesOnSuccess(t *testing.T) {
	eng := &stubEngine{canOpen: true, opened: domain.Position{PositionID: "p1"}, wallet: domain.Wallet{AvailableBalance: decimal.NewFromInt(500)}}
	notifier := &stubNotifier{}
	f := New(baseConfig(), eng, notifier, stubDispatcher{})

	res := f.Evaluate(context.Background(), validVerdict())
	require.True(t, res.Opened)
	require.NotNil(t, res.Position)
	assert.Equal(t, "p1", res.Position.PositionID)
	assert.True(t, notifier.called)
}

func TestEvaluate_OpensWithoutNotifierOrDispatcher(t *testing.T) {
	eng := &stubEngine{canOpen: true, opened: domain.Position{PositionID: "p1"}}
	f := New(baseConfig(), eng, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.True(t, res.Opened)
}

// The eight gates in Evaluate run in a fixed order and stop at the
// first failure: an engine that would reject on CanOpen never gets
// called if an earlier gate already rejected.
func TestEvaluate_ShortCircuitsBeforeTouchingEngine(t *testing.T) {
	eng := &stubEngine{canOpen: false}
	f := New(Config{Enabled: false}, eng, nil, nil)
	res := f.Evaluate(context.Background(), validVerdict())
	assert.False(t, res.Opened)
	assert.Equal(t, "paper trading disabled", res.RejectionReason)
}

type assertErrType string

func (e assertErrType) Error() string { return string(e) }

func assertErr(msg string) error { return assertErrType(msg) }
