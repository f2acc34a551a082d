package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"tradesmart-api/internal/logic"
	"tradesmart-api/internal/svc"
)

func StateHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewStateLogic(r.Context(), svcCtx)
		resp, err := l.State()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
