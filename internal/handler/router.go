package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/charamirror/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス公開用ハンドラー（nilの場合は/metricsを公開しない）
	MetricsHandler http.Handler

	// サービス
	CatalogService CatalogServiceInterface
	AccountService AccountServiceInterface

	// ページネーションポリシー
	FavoritesPerPage int
	EpisodeMaxIDs    int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → RateLimit(General)
//
// /healthと/metricsはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	characterHandler := NewCharacterHandler(deps.CatalogService)
	episodeHandler := NewEpisodeHandler(deps.CatalogService, deps.EpisodeMaxIDs)
	userHandler := NewUserHandler(deps.AccountService, deps.CatalogService, deps.FavoritesPerPage)

	// --- 監視用ルート（レート制限なし） ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)、更新系はMutationを追加
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// カタログ
		r.Get("/api/characters", characterHandler.ListCharacters)

		// エピソード解決
		r.Get("/api/episodes", episodeHandler.GetEpisodes)

		// ログイン（更新系レート制限を追加）
		r.With(deps.RateLimiter.MutationMiddleware()).Post("/api/login", userHandler.Login)

		// ユーザーとお気に入り
		r.Route("/api/users/{username}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Get("/favorites", userHandler.ListFavorites)
			r.With(deps.RateLimiter.MutationMiddleware()).Post("/favorites/toggle", userHandler.ToggleFavorite)
		})
	})

	return r
}
