// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/charamirror/internal/middleware"
	"github.com/hitoshi/charamirror/internal/model"
)

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	case model.ErrCodeInvalidPage, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
