package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/charamirror/internal/model"
)

// maxUsernameLength はユーザー名の最大長。
const maxUsernameLength = 64

// AccountServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// Login はユーザー名でログインする。未登録なら新規作成する。
	Login(ctx context.Context, username string) (*model.User, error)
	// Get は指定ユーザー名のユーザーを取得する。
	Get(ctx context.Context, username string) (*model.User, error)
	// ToggleFavorite はお気に入りをトグルし、更新後のユーザーを返す。
	ToggleFavorite(ctx context.Context, username, characterID string) (*model.User, error)
}

// UserHandler はユーザー管理とお気に入りのHTTPハンドラー。
type UserHandler struct {
	account          AccountServiceInterface
	catalog          CatalogServiceInterface
	favoritesPerPage int
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(account AccountServiceInterface, catalog CatalogServiceInterface, favoritesPerPage int) *UserHandler {
	return &UserHandler{
		account:          account,
		catalog:          catalog,
		favoritesPerPage: favoritesPerPage,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
}

// toggleRequest はお気に入りトグルリクエストのボディ。
type toggleRequest struct {
	CharacterID string `json:"character_id"`
}

// Login はユーザー名でログインする。未登録ユーザー名は新規作成される。
// POST /api/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		handleServiceError(w, model.NewInvalidRequestError("ユーザー名が空です"))
		return
	}
	if len(username) > maxUsernameLength {
		handleServiceError(w, model.NewInvalidRequestError("ユーザー名が長すぎます"))
		return
	}

	user, err := h.account.Login(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GetUser はユーザー情報を取得する。
// GET /api/users/{username}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.account.Get(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// ListFavorites はユーザーのお気に入りを最近追加順でページネーションして返す。
// GET /api/users/{username}/favorites?page=N
func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	page, apiErr := parsePageParam(r.URL.Query().Get("page"))
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	user, err := h.account.Get(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.catalog.FavoritesPage(r.Context(), user, page, h.favoritesPerPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageResponse(result))
}

// ToggleFavorite はお気に入りをトグルする。
// POST /api/users/{username}/favorites/toggle
func (h *UserHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if strings.TrimSpace(req.CharacterID) == "" {
		handleServiceError(w, model.NewInvalidRequestError("character_idが空です"))
		return
	}

	user, err := h.account.ToggleFavorite(r.Context(), username, req.CharacterID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
