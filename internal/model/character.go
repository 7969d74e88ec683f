// Package model はドメインモデルを定義する。
package model

import "time"

// CatalogMetaKey はカタログメタデータの固定キー。
// catalog_metaテーブルにはこのキーで1レコードのみ保持される。
const CatalogMetaKey = "characters"

// Origin はキャラクターの出身地を表す。
// Dimensionは上流レスポンスに存在しない場合がある（その場合は空文字列）。
type Origin struct {
	Name      string
	Dimension string
}

// Character は上流カタログからミラーしたキャラクターを表す。
// IDは上流の安定した識別子で、リフレッシュをまたいで不変。
// Pageはキャッシュスロットであり、リフレッシュ時に同一ページ配下で
// 削除・再作成されることがある（安定した保存場所ではない）。
// 同一ページの全キャラクターは同一のLastUpdatedを共有する
// （ページ単位のバッチ書き込み不変条件）。
type Character struct {
	ID          string
	Name        string
	Image       string
	Species     string
	Gender      string
	Status      string
	Origin      Origin
	EpisodeIDs  []string // エピソード参照（上流のURL形式ID）。詳細は遅延解決される。
	Page        int
	LastUpdated time.Time
}

// CatalogMeta は上流が最後に報告したカタログ全体の件数と総ページ数を表す。
// ページ単位ではなくカタログ全体の値で、いずれかのページのリフレッシュ
// 成功時にUPSERTで更新される。
type CatalogMeta struct {
	Key       string
	Count     int
	Pages     int
	UpdatedAt time.Time
}

// Episode は遅延解決されるエピソード詳細を表す。
// キャッシュ対象外で、要求のたびに上流から取得される。
type Episode struct {
	ID      string
	Name    string
	AirDate string
}
