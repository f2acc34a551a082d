package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"tradesmart-api/internal/logic"
	"tradesmart-api/internal/svc"
	"tradesmart-api/internal/types"
)

func WebhookHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.WebhookRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewWebhookLogic(r.Context(), svcCtx)
		resp, err := l.Webhook(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
