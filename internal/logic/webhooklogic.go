// Package logic holds the request handlers' business logic, one file
// per endpoint, following the usual goctl-scaffolded logic layer
// convention: a constructor taking (ctx, svcCtx) and a single method
// matching the endpoint's verb.
package logic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/internal/svc"
	"tradesmart-api/internal/types"
	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/tserr"
)

type WebhookLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logger logx.Logger
}

func NewWebhookLogic(ctx context.Context, svcCtx *svc.ServiceContext) *WebhookLogic {
	return &WebhookLogic{ctx: ctx, svcCtx: svcCtx, logger: logx.WithContext(ctx)}
}

// Webhook authenticates, builds an Alert from req, and drives the
// analysis pipeline. The returned verdict always reflects C6's output;
// whether a paper trade actually opens happens asynchronously in C8.
func (l *WebhookLogic) Webhook(req *types.WebhookRequest) (*types.VerdictResponse, error) {
	if l.svcCtx.Config.WebhookSecret != "" && req.Secret != l.svcCtx.Config.WebhookSecret {
		return nil, ErrUnauthorized
	}
	if req.Symbol == "" {
		return nil, tserr.New(tserr.KindInvalidInput, "symbol is required")
	}

	alert := domain.Alert{
		Symbol:       req.Symbol,
		Exchange:     req.Exchange,
		ActionHint:   req.Action,
		Price:        decimal.NewFromFloat(req.Price),
		IntervalHint: req.Interval,
		Message:      req.Message,
		Secret:       req.Secret,
		ReceivedAt:   time.Now().UTC(),
	}

	verdict, err := l.svcCtx.Orchestrator.Analyze(l.ctx, alert)
	if err != nil {
		l.logger.Errorf("webhook: analyze %s failed: %v", req.Symbol, err)
		return nil, err
	}

	return verdictResponse(verdict), nil
}

func verdictResponse(v domain.Verdict) *types.VerdictResponse {
	return &types.VerdictResponse{
		Symbol:          v.Symbol,
		Direction:       string(v.Direction),
		Confidence:      v.Confidence,
		EntryPrice:      decimalPtrToFloat(v.EntryPrice),
		StopLoss:        decimalPtrToFloat(v.StopLoss),
		TakeProfit:      decimalPtrToFloat(v.TakeProfit),
		RiskRewardRatio: v.RiskRewardText,
		Reasoning:       v.Reasoning,
		AnalyzedAt:      v.AnalyzedAt,
	}
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
