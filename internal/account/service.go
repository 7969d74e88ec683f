// Package account はユーザーアカウントとお気に入り管理のドメインロジックを提供する。
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/charamirror/internal/model"
	"github.com/hitoshi/charamirror/internal/repository"
)

// MetricsCollector はお気に入り操作のメトリクス記録インターフェース。
type MetricsCollector interface {
	RecordFavoriteToggle(added bool)
}

// Service はアカウント管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	metrics  MetricsCollector

	// now はテストから差し替え可能な現在時刻源。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, metrics MetricsCollector) *Service {
	return &Service{
		userRepo: userRepo,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Login はユーザー名でログインする。未登録のユーザー名の場合は
// その場で新規アカウントを作成する（パスワードレス）。
func (s *Service) Login(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user != nil {
		return user, nil
	}

	now := s.now()
	user = &model.User{
		ID:                 uuid.NewString(),
		Username:           username,
		FavoriteCharacters: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 並行ログインとの作成競合: 一意制約違反なら相手の作成結果を採用する
		existing, findErr := s.userRepo.FindByUsername(ctx, username)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("新規ユーザーを作成しました",
		slog.String("user_id", user.ID),
		slog.String("username", username),
	)
	return user, nil
}

// Get は指定ユーザー名のユーザーを取得する。
func (s *Service) Get(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(username)
	}
	return user, nil
}

// ToggleFavorite はお気に入りをトグルし、更新後のユーザーを返す。
// セット的セマンティクス: 対象IDがリストに含まれていれば全出現を除去し、
// 含まれていなければ末尾に追加する（追加順がそのまま新しさの順序になる）。
// characterIDのカタログ上の実在性は検証しない。
func (s *Service) ToggleFavorite(ctx context.Context, username, characterID string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(username)
	}

	updated := make([]string, 0, len(user.FavoriteCharacters)+1)
	for _, id := range user.FavoriteCharacters {
		if id != characterID {
			updated = append(updated, id)
		}
	}
	added := len(updated) == len(user.FavoriteCharacters)
	if added {
		updated = append(updated, characterID)
	}

	if err := s.userRepo.UpdateFavorites(ctx, user.ID, updated); err != nil {
		return nil, fmt.Errorf("お気に入りの更新に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordFavoriteToggle(added)
	}
	slog.Info("お気に入りをトグルしました",
		slog.String("user_id", user.ID),
		slog.String("character_id", characterID),
		slog.Bool("added", added),
	)

	user.FavoriteCharacters = updated
	user.UpdatedAt = s.now()
	return user, nil
}
