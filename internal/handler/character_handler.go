package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/charamirror/internal/catalog"
	"github.com/hitoshi/charamirror/internal/model"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// GetPage は指定ページのキャラクターをページエンベロープで返す。
	GetPage(ctx context.Context, page int) (*catalog.Page, error)
	// FavoritesPage はユーザーのお気に入りをページネーションして返す。
	FavoritesPage(ctx context.Context, user *model.User, page, perPage int) (*catalog.Page, error)
	// GetEpisodes はエピソード参照URLを上流から解決する。
	GetEpisodes(ctx context.Context, ids []string) ([]model.Episode, error)
}

// CharacterHandler はキャラクターカタログのHTTPハンドラー。
type CharacterHandler struct {
	service CatalogServiceInterface
}

// NewCharacterHandler はCharacterHandlerを生成する。
func NewCharacterHandler(service CatalogServiceInterface) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// parsePageParam はpageクエリパラメータを解析する。
// 未指定の場合は1、不正値の場合はエラーを返す。
func parsePageParam(raw string) (int, *model.APIError) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, model.NewInvalidPageError(raw)
	}
	return page, nil
}

// ListCharacters はカタログの1ページを取得する。
// GET /api/characters?page=N
func (h *CharacterHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	page, apiErr := parsePageParam(r.URL.Query().Get("page"))
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	result, err := h.service.GetPage(r.Context(), page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageResponse(result))
}
