package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/internal/svc"
	"tradesmart-api/internal/types"
)

type HistoryLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logger logx.Logger
}

func NewHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HistoryLogic {
	return &HistoryLogic{ctx: ctx, svcCtx: svcCtx, logger: logx.WithContext(ctx)}
}

// History answers GET /history with every closed position, newest
// last in the order the engine accumulated them.
func (l *HistoryLogic) History() (*types.HistoryResponse, error) {
	closed := l.svcCtx.Engine.GetClosedPositions()
	return &types.HistoryResponse{ClosedPositions: positionResponses(closed)}, nil
}
