package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open はPostgreSQLデータベース接続プールを開く。
// リフレッシュ時のバッチ書き込みが短時間に集中するため、プールサイズを明示的に設定する。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
