package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/internal/svc"
	"tradesmart-api/internal/types"
	"tradesmart-api/pkg/domain"
)

type StateLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logger logx.Logger
}

func NewStateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StateLogic {
	return &StateLogic{ctx: ctx, svcCtx: svcCtx, logger: logx.WithContext(ctx)}
}

// State answers GET /state. It tries the audit mirror's Redis cache
// first and falls back to the live engine, which is always correct —
// the cache exists to take read load off the process, not to replace
// the engine as the source of truth.
func (l *StateLogic) State() (*types.StateResponse, error) {
	if cached, ok := l.svcCtx.Audit.CachedState(l.ctx); ok {
		return stateResponse(cached), nil
	}

	state := l.svcCtx.Engine.GetState()
	l.svcCtx.Audit.CacheState(l.ctx, state)
	return stateResponse(state), nil
}

func stateResponse(state domain.EngineState) *types.StateResponse {
	return &types.StateResponse{
		Wallet:        walletResponse(state.Wallet),
		OpenPositions: positionResponses(state.OpenPositions),
		LastUpdatedAt: state.LastUpdatedAt,
	}
}
