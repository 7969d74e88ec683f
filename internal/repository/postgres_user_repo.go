package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/charamirror/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	var favorites pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, favorite_characters, created_at, updated_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &favorites, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	user.FavoriteCharacters = []string(favorites)
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, favorite_characters, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, pq.Array(user.FavoriteCharacters),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// UpdateFavorites はユーザーのお気に入りリスト全体を上書き保存する。
func (r *PostgresUserRepo) UpdateFavorites(ctx context.Context, userID string, favorites []string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET favorite_characters = $2, updated_at = $3 WHERE id = $1`,
		userID, pq.Array(favorites), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}

	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
