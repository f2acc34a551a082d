// Package handler registers TradeSmart's HTTP surface with a go-zero
// rest.Server, following the usual goctl-scaffolded handler layer
// convention (RegisterHandlers + one handler-constructor per route).
// goctl normally regenerates this layer from a .api file; no .api file
// exists in this project, so routes are declared directly here.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"tradesmart-api/internal/svc"
)

// RegisterHandlers wires every TradeSmart route onto server.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/webhook",
			Handler: WebhookHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/state",
			Handler: StateHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/history",
			Handler: HistoryHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/health",
			Handler: HealthHandler(svcCtx),
		},
	})
}
