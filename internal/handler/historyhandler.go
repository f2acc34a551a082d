package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"tradesmart-api/internal/logic"
	"tradesmart-api/internal/svc"
)

func HistoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewHistoryLogic(r.Context(), svcCtx)
		resp, err := l.History()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
