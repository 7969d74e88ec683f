// Package upstream は上流カタログAPIへのHTTPクライアントを提供する。
// ページ単位のキャラクター取得と、エピソード参照URLの遅延解決を行う。
// どちらもSSRF防止付きクライアントを使用し、上流レスポンスの
// テキストフィールドは保存前にサニタイズされる。
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/charamirror/internal/model"
	"github.com/hitoshi/charamirror/internal/security"
)

// MetricsRecorder は上流フェッチのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
}

// PageResult は上流から取得した1ページ分の結果を表す。
// CountとPagesはカタログ全体の値（上流報告値）。
type PageResult struct {
	Characters []model.Character
	Count      int
	Pages      int
}

// Client は上流カタログAPIのHTTPクライアント。
type Client struct {
	baseURL     string
	httpClient  *http.Client
	ssrfGuard   security.SSRFGuardService
	sanitizer   security.FieldSanitizerService
	logger      *slog.Logger
	maxBodySize int64
	metrics     MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
// HTTPクライアントはssrfGuardからタイムアウト付きで生成される。
func NewClient(
	baseURL string,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.FieldSanitizerService,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  ssrfGuard.NewSafeClient(timeout, maxBodySize),
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// WithMetrics はメトリクスレコーダーを設定したClientを返す。
// 未設定の場合、メトリクスは記録されない。
func (c *Client) WithMetrics(m MetricsRecorder) *Client {
	c.metrics = m
	return c
}

// --- 上流レスポンスの外部シェイプ ---

// apiResponse はキャラクター一覧エンドポイントのレスポンス。
// ページ範囲外等の場合、上流は200以外とともに {"error": "..."} を返す。
type apiResponse struct {
	Info struct {
		Count int `json:"count"`
		Pages int `json:"pages"`
	} `json:"info"`
	Results []apiCharacter `json:"results"`
	Error   string         `json:"error"`
}

// apiCharacter は上流のキャラクター表現。
type apiCharacter struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Status  string      `json:"status"`
	Species string      `json:"species"`
	Gender  string      `json:"gender"`
	Image   string      `json:"image"`
	Origin  struct {
		Name      string `json:"name"`
		Dimension string `json:"dimension"`
	} `json:"origin"`
	Episode []string `json:"episode"`
}

// apiEpisode は上流のエピソード表現。
type apiEpisode struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	AirDate string      `json:"air_date"`
	Error   string      `json:"error"`
}

// FetchPage は上流カタログから1ページ分のキャラクターを取得する。
// トランスポートエラー、200以外のステータス、上流報告のエラーペイロードは
// すべてエラーとして返す（部分データは返さない）。
func (c *Client) FetchPage(ctx context.Context, page int) (*PageResult, error) {
	start := time.Now()

	pageURL := fmt.Sprintf("%s/character?page=%d", c.baseURL, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Charamirror/1.0 Catalog Mirror")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("上流ページフェッチのHTTPリクエストに失敗しました",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	c.recordStatus(resp.StatusCode)
	c.recordLatency(time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// 200以外ではボディがJSONでない場合もある
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("上流がHTTPステータス %d を返しました", resp.StatusCode)
		}
		return nil, fmt.Errorf("レスポンスのパース失敗: %w", err)
	}

	// 上流報告のエラーペイロード（例: {"error": "There is nothing here"}）
	if parsed.Error != "" {
		return nil, fmt.Errorf("上流エラー: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("上流がHTTPステータス %d を返しました", resp.StatusCode)
	}

	characters := make([]model.Character, 0, len(parsed.Results))
	for _, ac := range parsed.Results {
		characters = append(characters, c.convertCharacter(ac, page))
	}

	c.logger.Info("上流ページフェッチが完了しました",
		slog.Int("page", page),
		slog.Int("characters", len(characters)),
		slog.Int("total_count", parsed.Info.Count),
		slog.Int("total_pages", parsed.Info.Pages),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return &PageResult{
		Characters: characters,
		Count:      parsed.Info.Count,
		Pages:      parsed.Info.Pages,
	}, nil
}

// FetchEpisodesByIDs はエピソード参照URLの集合を並列に解決する。
// キャッシュ層は介在せず、呼び出しのたびに上流へ再フェッチする。
// 結果は放送日の昇順でソートして返す。エピソード参照は保存データ由来の
// 信頼できない値のため、フェッチ前にSSRF検証を行う。
func (c *Client) FetchEpisodesByIDs(ctx context.Context, ids []string) ([]model.Episode, error) {
	if len(ids) == 0 {
		return []model.Episode{}, nil
	}

	episodes := make([]model.Episode, len(ids))
	g, gCtx := errgroup.WithContext(ctx)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ep, err := c.fetchEpisode(gCtx, id)
			if err != nil {
				return err
			}
			episodes[i] = *ep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return parseAirDate(episodes[i].AirDate).Before(parseAirDate(episodes[j].AirDate))
	})

	return episodes, nil
}

// fetchEpisode は1件のエピソード参照URLを解決する。
func (c *Client) fetchEpisode(ctx context.Context, episodeURL string) (*model.Episode, error) {
	if err := c.ssrfGuard.ValidateURL(episodeURL); err != nil {
		return nil, fmt.Errorf("エピソードURLの検証に失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, episodeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Charamirror/1.0 Catalog Mirror")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	c.recordStatus(resp.StatusCode)
	c.recordLatency(time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	var parsed apiEpisode
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("レスポンスのパース失敗: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("上流エラー: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("上流がHTTPステータス %d を返しました", resp.StatusCode)
	}

	return &model.Episode{
		ID:      parsed.ID.String(),
		Name:    c.sanitizer.Sanitize(parsed.Name),
		AirDate: c.sanitizer.Sanitize(parsed.AirDate),
	}, nil
}

// convertCharacter は上流シェイプをドメインモデルに変換する。
// テキストフィールドはサニタイズし、出身次元は未設定なら空文字列のままとする。
// エピソード参照はそのまま保持する（解決は遅延）。
func (c *Client) convertCharacter(ac apiCharacter, page int) model.Character {
	return model.Character{
		ID:      ac.ID.String(),
		Name:    c.sanitizer.Sanitize(ac.Name),
		Image:   ac.Image,
		Species: c.sanitizer.Sanitize(ac.Species),
		Gender:  c.sanitizer.Sanitize(ac.Gender),
		Status:  c.sanitizer.Sanitize(ac.Status),
		Origin: model.Origin{
			Name:      c.sanitizer.Sanitize(ac.Origin.Name),
			Dimension: c.sanitizer.Sanitize(ac.Origin.Dimension),
		},
		EpisodeIDs: ac.Episode,
		Page:       page,
	}
}

// airDateLayout は上流の放送日フォーマット（例: "December 2, 2013"）。
const airDateLayout = "January 2, 2006"

// parseAirDate は放送日文字列をパースする。失敗時はゼロ値を返し、
// ソート上は先頭に寄る。
func parseAirDate(s string) time.Time {
	t, err := time.Parse(airDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (c *Client) recordStatus(code int) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(code)
	}
}

func (c *Client) recordLatency(d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamLatency(d)
	}
}
