// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/charamirror/internal/account"
	"github.com/hitoshi/charamirror/internal/catalog"
	"github.com/hitoshi/charamirror/internal/config"
	"github.com/hitoshi/charamirror/internal/database"
	"github.com/hitoshi/charamirror/internal/handler"
	"github.com/hitoshi/charamirror/internal/logger"
	"github.com/hitoshi/charamirror/internal/metrics"
	"github.com/hitoshi/charamirror/internal/middleware"
	"github.com/hitoshi/charamirror/internal/repository"
	"github.com/hitoshi/charamirror/internal/security"
	"github.com/hitoshi/charamirror/internal/upstream"
	"github.com/hitoshi/charamirror/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envファイル（存在する場合）と環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envファイルの読み込み（存在しない場合は無視）
	_ = godotenv.Load()

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("upstream", cfg.UpstreamBaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	characterRepo := repository.NewPostgresCharacterRepo(db)
	metaRepo := repository.NewPostgresMetaRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティサービスと上流クライアントの初期化
	// 外向き通信は設定済みの上流ホストに限定する
	ssrfGuard := security.NewSSRFGuard()
	if u, err := url.Parse(cfg.UpstreamBaseURL); err == nil && u.Hostname() != "" {
		ssrfGuard = security.NewSSRFGuardForHosts(u.Hostname())
	}
	sanitizer := security.NewFieldSanitizer()
	client := upstream.NewClient(
		cfg.UpstreamBaseURL, ssrfGuard, sanitizer,
		slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize,
	).WithMetrics(collector)

	// 5. ドメインサービスの初期化
	catalogService := catalog.NewService(
		characterRepo, metaRepo, client, collector, slog.Default(), cfg.CacheTTL,
	)
	accountService := account.NewService(userRepo, collector)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.MutationRate = rate.Limit(float64(cfg.RateLimitMutation) / 60.0)
	rateLimiterCfg.MutationBurst = cfg.RateLimitMutation

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		MetricsHandler:    metrics.Handler(registry),
		CatalogService:    catalogService,
		AccountService:    accountService,
		FavoritesPerPage:  cfg.FavoritesPerPage,
		EpisodeMaxIDs:     cfg.EpisodeMaxIDs,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 保持期間を超過したキャラクターの退避ジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリとメトリクスの初期化
	characterRepo := repository.NewPostgresCharacterRepo(db)
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. 退避ジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(characterRepo, collector, slog.Default())
	cleanupJob.RetentionDays = cfg.RetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("retention_days", cfg.RetentionDays),
	)

	// 退避ループをメインgoroutineで実行（ブロッキング）
	cleanupJob.RunLoop(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
