// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/charamirror/internal/model"
)

// CharacterRepository はキャラクターキャッシュの永続化インターフェース。
type CharacterRepository interface {
	// ListByPage は指定ページ配下のキャラクターをバッチ挿入順で取得する。
	// 該当がない場合は空スライスを返す。
	ListByPage(ctx context.Context, page int) ([]model.Character, error)

	// FindByIDs は指定ID集合のキャラクターを取得する。
	// 結果の順序は保証されない。見つからないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]model.Character, error)

	// DeleteByIDs は指定ID集合のキャラクターを削除し、削除件数を返す。
	// 冪等: 存在しないIDが含まれていてもエラーにならない。
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// InsertBatch はキャラクターのバッチを同一トランザクションで挿入する。
	// スライスの順序がページ内の挿入順として保存される。
	// 呼び出し元は全要素に同一のLastUpdatedを設定すること
	// （ページ単位のバッチ書き込み不変条件）。
	InsertBatch(ctx context.Context, characters []model.Character) error

	// DeleteOlderThan はlast_updatedがcutoffより古いキャラクターを削除し、
	// 削除件数を返す。保持期間超過キャッシュの退避に使用する。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MetaRepository はカタログメタデータの永続化インターフェース。
type MetaRepository interface {
	// Find は指定キーのメタデータを取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, key string) (*model.CatalogMeta, error)

	// Upsert はメタデータを作成または更新する。
	// catalog_metaは全ページのリフレッシュが書き込む単一グローバル行のため、
	// 無条件INSERTではなく必ずUPSERTを使用する（重複キー失敗の回避）。
	Upsert(ctx context.Context, meta *model.CatalogMeta) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateFavorites はユーザーのお気に入りリスト全体を上書き保存する。
	// 読み出し・変更・書き込みはロックせず、同一ユーザーへの並行更新は
	// 後勝ちとなる（Userドキュメントが競合の単位）。
	UpdateFavorites(ctx context.Context, userID string, favorites []string) error
}
