package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"tradesmart-api/internal/logic"
	"tradesmart-api/internal/types"
	"tradesmart-api/pkg/tserr"
)

// RegisterErrorHandler installs the process-wide mapping from a logic
// error to an HTTP status and body. Every handler in this package
// returns raw errors from the logic layer and leaves this mapping to
// do the translation, so no handler hand-rolls status codes inline.
func RegisterErrorHandler() {
	httpx.SetErrorHandlerCtx(func(ctx context.Context, err error) (int, any) {
		var authErr *logic.AuthError
		if errors.As(err, &authErr) {
			return http.StatusUnauthorized, types.ErrorResponse{Code: "unauthorized", Message: authErr.Error()}
		}

		var tsErr *tserr.Error
		if errors.As(err, &tsErr) {
			return tsErr.Kind.HTTPStatus(), types.ErrorResponse{Code: tsErr.Code(), Message: tsErr.Error()}
		}

		return http.StatusInternalServerError, types.ErrorResponse{Code: "internal_error", Message: err.Error()}
	})
}
