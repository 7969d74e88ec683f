package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/charamirror/internal/catalog"
	"github.com/hitoshi/charamirror/internal/model"
)

// mockAccountService はAccountServiceInterfaceのモック。
type mockAccountService struct {
	loginFunc          func(ctx context.Context, username string) (*model.User, error)
	getFunc            func(ctx context.Context, username string) (*model.User, error)
	toggleFavoriteFunc func(ctx context.Context, username, characterID string) (*model.User, error)
}

func (m *mockAccountService) Login(ctx context.Context, username string) (*model.User, error) {
	return m.loginFunc(ctx, username)
}

func (m *mockAccountService) Get(ctx context.Context, username string) (*model.User, error) {
	return m.getFunc(ctx, username)
}

func (m *mockAccountService) ToggleFavorite(ctx context.Context, username, characterID string) (*model.User, error) {
	return m.toggleFavoriteFunc(ctx, username, characterID)
}

// userTestRouter はURLパラメータを解決するため、ハンドラーをchiルーターに載せる。
func userTestRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/login", h.Login)
	r.Route("/api/users/{username}", func(r chi.Router) {
		r.Get("/", h.GetUser)
		r.Get("/favorites", h.ListFavorites)
		r.Post("/favorites/toggle", h.ToggleFavorite)
	})
	return r
}

// TestLogin_ReturnsUser はログインでユーザーが返ることを検証する。
func TestLogin_ReturnsUser(t *testing.T) {
	account := &mockAccountService{
		loginFunc: func(_ context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username, FavoriteCharacters: []string{}}, nil
		},
	}
	router := userTestRouter(NewUserHandler(account, &mockCatalogService{}, 4))

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username": "morty"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのデコードに失敗: %v", err)
	}
	if body.Username != "morty" {
		t.Errorf("username = %q, want morty", body.Username)
	}
	if body.FavoriteCharacters == nil {
		t.Error("favorite_charactersはnullではなく配列であること")
	}
}

// TestLogin_InvalidBody は不正なボディで400が返ることを検証する。
func TestLogin_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "JSONではない", body: "not json"},
		{name: "ユーザー名が空", body: `{"username": ""}`},
		{name: "ユーザー名が空白のみ", body: `{"username": "   "}`},
		{name: "ユーザー名が長すぎる", body: `{"username": "` + strings.Repeat("a", 65) + `"}`},
	}

	account := &mockAccountService{
		loginFunc: func(_ context.Context, _ string) (*model.User, error) {
			t.Fatal("不正なリクエストでサービスが呼ばれた")
			return nil, nil
		},
	}
	router := userTestRouter(NewUserHandler(account, &mockCatalogService{}, 4))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Result().StatusCode)
			}
		})
	}
}

// TestGetUser_NotFound は未知のユーザーで404が返ることを検証する。
func TestGetUser_NotFound(t *testing.T) {
	account := &mockAccountService{
		getFunc: func(_ context.Context, username string) (*model.User, error) {
			return nil, model.NewUserNotFoundError(username)
		},
	}
	router := userTestRouter(NewUserHandler(account, &mockCatalogService{}, 4))

	req := httptest.NewRequest(http.MethodGet, "/api/users/nobody", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}

// TestListFavorites_PassesUserAndPolicy はユーザー解決とページネーションポリシーの受け渡しを検証する。
func TestListFavorites_PassesUserAndPolicy(t *testing.T) {
	morty := &model.User{ID: "user-1", Username: "morty", FavoriteCharacters: []string{"1", "2", "3"}}

	account := &mockAccountService{
		getFunc: func(_ context.Context, _ string) (*model.User, error) {
			return morty, nil
		},
	}
	var gotUser *model.User
	var gotPage, gotPerPage int
	catalogSvc := &mockCatalogService{
		favoritesPageFunc: func(_ context.Context, user *model.User, page, perPage int) (*catalog.Page, error) {
			gotUser, gotPage, gotPerPage = user, page, perPage
			return catalogPage(2, 3, 2, page), nil
		},
	}
	router := userTestRouter(NewUserHandler(account, catalogSvc, 2))

	req := httptest.NewRequest(http.MethodGet, "/api/users/morty/favorites?page=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotUser != morty || gotPage != 1 || gotPerPage != 2 {
		t.Errorf("サービスへの引数 (user=%v, page=%d, perPage=%d)", gotUser, gotPage, gotPerPage)
	}

	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのデコードに失敗: %v", err)
	}
	if body.Info.Count != 3 || body.Info.Pages != 2 {
		t.Errorf("info = {%d %d}, want {3 2}", body.Info.Count, body.Info.Pages)
	}
	if body.Info.Next == nil || *body.Info.Next != 2 {
		t.Errorf("next = %v, want 2", body.Info.Next)
	}
	if body.Info.Prev != nil {
		t.Errorf("prev = %v, want null", *body.Info.Prev)
	}
}

// TestListFavorites_UnknownUser は未知のユーザーのお気に入り取得で404が返ることを検証する。
func TestListFavorites_UnknownUser(t *testing.T) {
	account := &mockAccountService{
		getFunc: func(_ context.Context, username string) (*model.User, error) {
			return nil, model.NewUserNotFoundError(username)
		},
	}
	router := userTestRouter(NewUserHandler(account, &mockCatalogService{}, 4))

	req := httptest.NewRequest(http.MethodGet, "/api/users/nobody/favorites", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
}

// TestToggleFavorite_ReturnsUpdatedUser はトグル後の更新済みユーザーが返ることを検証する。
func TestToggleFavorite_ReturnsUpdatedUser(t *testing.T) {
	var gotUsername, gotCharacterID string
	account := &mockAccountService{
		toggleFavoriteFunc: func(_ context.Context, username, characterID string) (*model.User, error) {
			gotUsername, gotCharacterID = username, characterID
			return &model.User{ID: "user-1", Username: username, FavoriteCharacters: []string{"1", "3"}}, nil
		},
	}
	router := userTestRouter(NewUserHandler(account, &mockCatalogService{}, 4))

	req := httptest.NewRequest(http.MethodPost, "/api/users/morty/favorites/toggle",
		strings.NewReader(`{"character_id": "3"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotUsername != "morty" || gotCharacterID != "3" {
		t.Errorf("サービスへの引数 (%q, %q)", gotUsername, gotCharacterID)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのデコードに失敗: %v", err)
	}
	if len(body.FavoriteCharacters) != 2 || body.FavoriteCharacters[1] != "3" {
		t.Errorf("favorite_characters = %v, want [1 3]", body.FavoriteCharacters)
	}
}

// TestToggleFavorite_EmptyCharacterID はcharacter_idが空で400が返ることを検証する。
func TestToggleFavorite_EmptyCharacterID(t *testing.T) {
	account := &mockAccountService{
		toggleFavoriteFunc: func(_ context.Context, _, _ string) (*model.User, error) {
			t.Fatal("不正なリクエストでサービスが呼ばれた")
			return nil, nil
		},
	}
	router := userTestRouter(NewUserHandler(account, &mockCatalogService{}, 4))

	req := httptest.NewRequest(http.MethodPost, "/api/users/morty/favorites/toggle",
		strings.NewReader(`{"character_id": ""}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}
