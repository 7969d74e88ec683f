package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/charamirror/internal/model"
)

// PostgresMetaRepo はPostgreSQLを使用したカタログメタデータリポジトリ。
type PostgresMetaRepo struct {
	db *sql.DB
}

// NewPostgresMetaRepo はPostgresMetaRepoを生成する。
func NewPostgresMetaRepo(db *sql.DB) *PostgresMetaRepo {
	return &PostgresMetaRepo{db: db}
}

// Find は指定キーのメタデータを取得する。見つからない場合はnilを返す。
func (r *PostgresMetaRepo) Find(ctx context.Context, key string) (*model.CatalogMeta, error) {
	meta := &model.CatalogMeta{}
	err := r.db.QueryRowContext(ctx,
		`SELECT key, count, pages, updated_at FROM catalog_meta WHERE key = $1`,
		key,
	).Scan(&meta.Key, &meta.Count, &meta.Pages, &meta.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find catalog meta: %w", err)
	}

	return meta, nil
}

// Upsert はメタデータを作成または更新する。
// 単一グローバル行への並行書き込みがあるため、ON CONFLICTで冪等に更新する。
func (r *PostgresMetaRepo) Upsert(ctx context.Context, meta *model.CatalogMeta) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO catalog_meta (key, count, pages, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE
		 SET count = EXCLUDED.count, pages = EXCLUDED.pages, updated_at = EXCLUDED.updated_at`,
		meta.Key, meta.Count, meta.Pages, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog meta: %w", err)
	}

	return nil
}

// compile-time interface check
var _ MetaRepository = (*PostgresMetaRepo)(nil)
