// Package cleanup はキャッシュ済みキャラクターの退避ジョブを提供する。
// 保持期間（デフォルト30日）を超過してリフレッシュされていないキャラクターを
// 日次バッチで削除する。退避されたキャラクターをお気に入りに持つユーザーは、
// 該当IDが解決されなくなるだけで、お気に入りリスト自体は変更されない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CharacterDeleter は退避対象キャラクターの削除インターフェース。
type CharacterDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MetricsCollector は退避件数のメトリクス記録インターフェース。
type MetricsCollector interface {
	RecordCharactersEvicted(count int)
}

// CleanupJob は保持期間を超過したキャラクターの退避ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	store         CharacterDeleter
	metrics       MetricsCollector
	logger        *slog.Logger
	RetentionDays int // キャラクターの保持日数（デフォルト: 30）

	// now はテストから差し替え可能な現在時刻源。
	now func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は30日。
func NewCleanupJob(store CharacterDeleter, metrics MetricsCollector, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		store:         store,
		metrics:       metrics,
		logger:        logger,
		RetentionDays: 30,
		now:           time.Now,
	}
}

// Run は保持期間を超過したキャラクターを削除する。
// last_updatedがRetentionDays日前より古いキャラクターが対象。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("キャラクター退避ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("キャラクター退避の実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordCharactersEvicted(int(deleted))
	}

	duration := time.Since(start)
	j.logger.Info("キャラクター退避ジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunLoop はintervalごとにRunを実行し続ける。起動直後にも1回実行する。
// ctxのキャンセルで終了する。個々の実行の失敗はログに記録して継続する。
func (j *CleanupJob) RunLoop(ctx context.Context, interval time.Duration) {
	// 起動直後の初回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Warn("初回の退避ジョブが失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("退避ジョブが失敗しました", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			j.logger.Info("退避ループを停止します")
			return
		}
	}
}
