// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// FavoriteCharactersはキャラクターIDの追加順リストで、重複は許可されない。
// 新しくお気に入りに追加されたIDは常に末尾に追加されるため、
// 逆順に読むことで「最近追加した順」となる。
type User struct {
	ID                 string
	Username           string
	FavoriteCharacters []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
