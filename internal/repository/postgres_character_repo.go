package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/charamirror/internal/model"
)

// PostgresCharacterRepo はPostgreSQLを使用したキャラクターリポジトリ。
type PostgresCharacterRepo struct {
	db *sql.DB
}

// NewPostgresCharacterRepo はPostgresCharacterRepoを生成する。
func NewPostgresCharacterRepo(db *sql.DB) *PostgresCharacterRepo {
	return &PostgresCharacterRepo{db: db}
}

const characterColumns = `id, name, image, species, gender, status, origin_name, origin_dimension, episode_ids, page, last_updated`

// scanCharacter は1行をmodel.Characterに読み取る。
func scanCharacter(scan func(dest ...any) error) (model.Character, error) {
	var c model.Character
	var episodeIDs pq.StringArray
	err := scan(
		&c.ID, &c.Name, &c.Image, &c.Species, &c.Gender, &c.Status,
		&c.Origin.Name, &c.Origin.Dimension, &episodeIDs, &c.Page, &c.LastUpdated,
	)
	if err != nil {
		return model.Character{}, err
	}
	c.EpisodeIDs = []string(episodeIDs)
	return c, nil
}

// ListByPage は指定ページ配下のキャラクターをバッチ挿入順で取得する。
func (r *PostgresCharacterRepo) ListByPage(ctx context.Context, page int) ([]model.Character, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE page = $1 ORDER BY position`,
		page,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters by page: %w", err)
	}
	defer rows.Close()

	characters := []model.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate characters: %w", err)
	}

	return characters, nil
}

// FindByIDs は指定ID集合のキャラクターを取得する。結果の順序は保証されない。
func (r *PostgresCharacterRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Character, error) {
	if len(ids) == 0 {
		return []model.Character{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find characters by IDs: %w", err)
	}
	defer rows.Close()

	characters := []model.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate characters: %w", err)
	}

	return characters, nil
}

// DeleteByIDs は指定ID集合のキャラクターを削除し、削除件数を返す。
func (r *PostgresCharacterRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM characters WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete characters: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// InsertBatch はキャラクターのバッチを同一トランザクションで挿入する。
// スライスの順序がposition列として保存される。
func (r *PostgresCharacterRepo) InsertBatch(ctx context.Context, characters []model.Character) error {
	if len(characters) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO characters
		 (id, name, image, species, gender, status, origin_name, origin_dimension, episode_ids, page, position, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range characters {
		_, err := stmt.ExecContext(ctx,
			c.ID, c.Name, c.Image, c.Species, c.Gender, c.Status,
			c.Origin.Name, c.Origin.Dimension, pq.Array(c.EpisodeIDs),
			c.Page, i, c.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert character %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteOlderThan はlast_updatedがcutoffより古いキャラクターを削除する。
func (r *PostgresCharacterRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM characters WHERE last_updated < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale characters: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// compile-time interface check
var _ CharacterRepository = (*PostgresCharacterRepo)(nil)
