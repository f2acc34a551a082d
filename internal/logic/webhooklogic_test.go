package logic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesmart-api/internal/config"
	"tradesmart-api/internal/svc"
	"tradesmart-api/internal/types"
	"tradesmart-api/pkg/admission"
	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/orchestrate"
	"tradesmart-api/pkg/tserr"
)

type stubQuote struct{}

func (stubQuote) FetchCandles(ctx context.Context, symbol, interval string, count int) ([]domain.OhlcvCandle, error) {
	return []domain.OhlcvCandle{{}}, nil
}

type stubOracle struct {
	verdict domain.Verdict
	err     error
}

func (s stubOracle) Analyze(ctx context.Context, alert domain.Alert, marketData []domain.TimeframeData) (domain.Verdict, error) {
	return s.verdict, s.err
}

type stubNotifier struct{}

func (stubNotifier) OnAlertAnalyzed(ctx context.Context, alert domain.Alert, verdict domain.Verdict) {}

type stubDispatcher struct{}

func (stubDispatcher) Submit(task func(context.Context)) { task(context.Background()) }

type stubAdmission struct{}

func (stubAdmission) Evaluate(ctx context.Context, v domain.Verdict) admission.Result {
	return admission.Result{Opened: false, Verdict: v}
}

func newTestServiceContext(secret string, verdict domain.Verdict, analyzeErr error) *svc.ServiceContext {
	orch := orchestrate.New(stubQuote{}, stubOracle{verdict: verdict, err: analyzeErr}, stubNotifier{}, stubAdmission{}, stubDispatcher{}, []string{"1min"})
	return &svc.ServiceContext{
		Config:       config.Config{WebhookSecret: secret},
		Orchestrator: orch,
	}
}

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	svcCtx := newTestServiceContext("s3cret", domain.Verdict{}, nil)
	l := NewWebhookLogic(context.Background(), svcCtx)

	_, err := l.Webhook(&types.WebhookRequest{Symbol: "BTC/USD", Secret: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestWebhook_AllowsMatchingSecret(t *testing.T) {
	verdict := domain.Verdict{Symbol: "BTC/USD", Direction: domain.Long, Confidence: 80}
	svcCtx := newTestServiceContext("s3cret", verdict, nil)
	l := NewWebhookLogic(context.Background(), svcCtx)

	resp, err := l.Webhook(&types.WebhookRequest{Symbol: "BTC/USD", Secret: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD", resp.Symbol)
	assert.Equal(t, "long", resp.Direction)
	assert.Equal(t, 80, resp.Confidence)
}

func TestWebhook_NoSecretConfiguredSkipsAuth(t *testing.T) {
	svcCtx := newTestServiceContext("", domain.Verdict{Symbol: "ETH/USD"}, nil)
	l := NewWebhookLogic(context.Background(), svcCtx)

	resp, err := l.Webhook(&types.WebhookRequest{Symbol: "ETH/USD"})
	require.NoError(t, err)
	assert.Equal(t, "ETH/USD", resp.Symbol)
}

func TestWebhook_RejectsEmptySymbol(t *testing.T) {
	svcCtx := newTestServiceContext("", domain.Verdict{}, nil)
	l := NewWebhookLogic(context.Background(), svcCtx)

	_, err := l.Webhook(&types.WebhookRequest{Symbol: ""})
	require.Error(t, err)
	var tsErr *tserr.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserr.KindInvalidInput, tsErr.Kind)
}

func TestWebhook_PropagatesAnalysisFailure(t *testing.T) {
	analyzeErr := tserr.New(tserr.KindOracleTransport, "oracle unreachable")
	svcCtx := newTestServiceContext("", domain.Verdict{}, analyzeErr)
	l := NewWebhookLogic(context.Background(), svcCtx)

	_, err := l.Webhook(&types.WebhookRequest{Symbol: "BTC/USD"})
	require.Error(t, err)
	var tsErr *tserr.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserr.KindOracleTransport, tsErr.Kind)
}
