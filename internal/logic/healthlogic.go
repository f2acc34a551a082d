package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/internal/svc"
	"tradesmart-api/internal/types"
)

type HealthLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logger logx.Logger
}

func NewHealthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthLogic {
	return &HealthLogic{ctx: ctx, svcCtx: svcCtx, logger: logx.WithContext(ctx)}
}

func (l *HealthLogic) Health() (*types.HealthResponse, error) {
	return &types.HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}, nil
}
