// Package catalog はキャラクターカタログのキャッシュリフレッシュと
// ページネーションのコアロジックを提供する。
// 要求されたページの鮮度を判定し、期限切れの場合は上流から再取得して
// 原子的に置き換え、カタログ全体のメタデータと整合させる。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/charamirror/internal/model"
	"github.com/hitoshi/charamirror/internal/repository"
	"github.com/hitoshi/charamirror/internal/upstream"
)

// UpstreamClient は上流カタログAPIへのアクセスインターフェース。
type UpstreamClient interface {
	// FetchPage は上流から1ページ分のキャラクターを取得する。
	FetchPage(ctx context.Context, page int) (*upstream.PageResult, error)
	// FetchEpisodesByIDs はエピソード参照URLを解決する。キャッシュしない。
	FetchEpisodesByIDs(ctx context.Context, ids []string) ([]model.Episode, error)
}

// MetricsCollector はキャッシュ動作のメトリクス記録インターフェース。
type MetricsCollector interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordRefreshFailure()
	RecordCharactersStored(count int)
}

// Service はキャッシュリフレッシュエンジンとページネーションアセンブラ。
// キャラクターとカタログメタデータの唯一の書き込み元。
type Service struct {
	characterRepo repository.CharacterRepository
	metaRepo      repository.MetaRepository
	client        UpstreamClient
	metrics       MetricsCollector
	logger        *slog.Logger
	ttl           time.Duration

	// now はテストから差し替え可能な現在時刻源。
	now func() time.Time

	// group は同一ページへの並行リフレッシュを1回の上流フェッチに集約する。
	group singleflight.Group
}

// NewService はServiceの新しいインスタンスを生成する。
// ttlはキャッシュ済みページの鮮度ウィンドウ（期限切れ判定は読み出し時のみ）。
func NewService(
	characterRepo repository.CharacterRepository,
	metaRepo repository.MetaRepository,
	client UpstreamClient,
	metrics MetricsCollector,
	logger *slog.Logger,
	ttl time.Duration,
) *Service {
	return &Service{
		characterRepo: characterRepo,
		metaRepo:      metaRepo,
		client:        client,
		metrics:       metrics,
		logger:        logger,
		ttl:           ttl,
		now:           time.Now,
	}
}

// refreshResult はリフレッシュ成功時の保存済みデータとメタデータ。
type refreshResult struct {
	characters []model.Character
	meta       *model.CatalogMeta
}

// GetPage は指定ページのキャラクターをページエンベロープで返す。
// キャッシュが新鮮ならそのまま返し、期限切れまたは未保存なら上流から
// 再取得して置き換える。上流フェッチ失敗時は保存データとメタデータを
// 一切変更せず、空の結果で回復する（エラーにはしない）。
func (s *Service) GetPage(ctx context.Context, page int) (*Page, error) {
	characters, err := s.characterRepo.ListByPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("キャッシュ済みページの取得に失敗しました: %w", err)
	}

	meta, err := s.metaRepo.Find(ctx, model.CatalogMetaKey)
	if err != nil {
		return nil, fmt.Errorf("カタログメタデータの取得に失敗しました: %w", err)
	}
	// メタデータ未保存の場合はゼロ値として扱う
	if meta == nil {
		meta = &model.CatalogMeta{Key: model.CatalogMetaKey}
	}

	if !s.isStale(characters) {
		s.recordHit()
		return buildEnvelope(characters, meta, page), nil
	}

	s.recordMiss()
	characters, meta = s.refresh(ctx, page, meta)

	return buildEnvelope(characters, meta, page), nil
}

// isStale はページの鮮度を判定する。
// 保存キャラクターが0件、または先頭1件のタイムスタンプがTTLを超過していれば
// 期限切れとする。バッチ書き込み不変条件により、先頭1件のタイムスタンプが
// ページ全体を代表する。カタログ最終ページは満杯でないことが正当にあり得るため、
// 件数の少なさ自体は期限切れの根拠にしない。
func (s *Service) isStale(characters []model.Character) bool {
	if len(characters) == 0 {
		return true
	}
	return s.now().Sub(characters[0].LastUpdated) > s.ttl
}

// refresh は期限切れページを上流から再取得して置き換える。
// singleflightにより同一ページへの並行リフレッシュは1回の上流フェッチに
// 集約される。失敗時は保存データとメタデータを変更せず、空の結果と
// 既存メタデータ（fallbackMeta）を返す。
func (s *Service) refresh(ctx context.Context, page int, fallbackMeta *model.CatalogMeta) ([]model.Character, *model.CatalogMeta) {
	v, err, _ := s.group.Do(strconv.Itoa(page), func() (any, error) {
		return s.doRefresh(ctx, page)
	})
	if err != nil {
		s.recordRefreshFailure()
		s.logger.Warn("ページリフレッシュに失敗したため空の結果で応答します",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return []model.Character{}, fallbackMeta
	}

	result := v.(*refreshResult)
	return result.characters, result.meta
}

// doRefresh はリフレッシュの本体。
// 上流フェッチ成功後に delete-then-insert でページを置き換え、バッチ全体に
// 同一のタイムスタンプを刻み、カタログメタデータをUPSERTする。
// 返却値はメモリ上のフェッチ結果ではなく保存後の再読み出し（read-after-write）。
// delete-then-insert は2ステップ間でトランザクション境界を持たないため、
// 同一ページへの並行書き込みは一時的に0件や重複を生み得る
// （singleflightは単一プロセス内の集約であり、複数プロセス間では効かない）。
func (s *Service) doRefresh(ctx context.Context, page int) (*refreshResult, error) {
	fetched, err := s.client.FetchPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("上流フェッチに失敗: %w", err)
	}

	now := s.now()
	batch := make([]model.Character, len(fetched.Characters))
	ids := make([]string, len(fetched.Characters))
	for i, c := range fetched.Characters {
		c.Page = page
		c.LastUpdated = now
		batch[i] = c
		ids[i] = c.ID
	}

	// 部分マージではなく delete-then-insert による冪等な置き換え
	if _, err := s.characterRepo.DeleteByIDs(ctx, ids); err != nil {
		return nil, fmt.Errorf("旧バッチの削除に失敗: %w", err)
	}
	if err := s.characterRepo.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("新バッチの挿入に失敗: %w", err)
	}

	meta := &model.CatalogMeta{
		Key:       model.CatalogMetaKey,
		Count:     fetched.Count,
		Pages:     fetched.Pages,
		UpdatedAt: now,
	}
	if err := s.metaRepo.Upsert(ctx, meta); err != nil {
		return nil, fmt.Errorf("カタログメタデータのUPSERTに失敗: %w", err)
	}

	// 返却タイムスタンプが永続化された値を反映するよう読み直す
	stored, err := s.characterRepo.ListByPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("保存後の再読み出しに失敗: %w", err)
	}

	s.recordStored(len(stored))
	s.logger.Info("ページをリフレッシュしました",
		slog.Int("page", page),
		slog.Int("characters", len(stored)),
		slog.Int("total_count", meta.Count),
		slog.Int("total_pages", meta.Pages),
	)

	return &refreshResult{characters: stored, meta: meta}, nil
}

// FavoritesPage はユーザーのお気に入りを最近追加順でページネーションして返す。
// お気に入りはトグルON時に末尾へ追加されるため、逆順にするだけで
// タイムスタンプを持たずに追加の新しい順が得られる。
// スライス後のIDをキャッシュから解決し、解決できないID（退避済み・未キャッシュ）
// は黙って除外する。nullプレースホルダーには置き換えない。
func (s *Service) FavoritesPage(ctx context.Context, user *model.User, page, perPage int) (*Page, error) {
	favorites := user.FavoriteCharacters
	total := len(favorites)

	reversed := make([]string, total)
	for i, id := range favorites {
		reversed[total-1-i] = id
	}

	startIdx := (page - 1) * perPage
	endIdx := page * perPage
	if startIdx > total {
		startIdx = total
	}
	if endIdx > total {
		endIdx = total
	}
	sliced := reversed[startIdx:endIdx]

	found, err := s.characterRepo.FindByIDs(ctx, sliced)
	if err != nil {
		return nil, fmt.Errorf("お気に入りキャラクターの解決に失敗しました: %w", err)
	}

	// FindByIDsは順序を保証しないため、スライス位置で再整列する
	byID := make(map[string]model.Character, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	results := make([]model.Character, 0, len(sliced))
	for _, id := range sliced {
		if c, ok := byID[id]; ok {
			results = append(results, c)
		}
	}

	// countはスライス前・除外前の総お気に入り数
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	meta := &model.CatalogMeta{Count: total, Pages: pages}

	envelope := buildEnvelope(results, meta, page)
	return envelope, nil
}

// GetEpisodes はエピソード参照URLの集合を上流から解決して返す。
// このパスにキャッシュ層はなく、呼び出しのたびに再フェッチする。
// 失敗は呼び出し元にUPSTREAM_UNAVAILABLEとして伝播する。
func (s *Service) GetEpisodes(ctx context.Context, ids []string) ([]model.Episode, error) {
	episodes, err := s.client.FetchEpisodesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("エピソード解決に失敗しました",
			slog.Int("ids", len(ids)),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError(err.Error())
	}
	return episodes, nil
}

func (s *Service) recordHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit()
	}
}

func (s *Service) recordMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}
}

func (s *Service) recordRefreshFailure() {
	if s.metrics != nil {
		s.metrics.RecordRefreshFailure()
	}
}

func (s *Service) recordStored(count int) {
	if s.metrics != nil {
		s.metrics.RecordCharactersStored(count)
	}
}
