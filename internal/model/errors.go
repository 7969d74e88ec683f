// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: user, validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeInvalidPage         = "INVALID_PAGE"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", username),
		Category: "user",
		Action:   "ユーザー名を確認するか、ログインし直してください。",
	}
}

// NewUpstreamUnavailableError は上流カタログAPIの取得失敗エラーを生成する。
// キャッシュリフレッシュ経路ではこのエラーは呼び出し元へ伝播せず、
// 空ページとしてローカルに回復される。
func NewUpstreamUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("上流カタログAPIの取得に失敗しました: %s", reason),
		Category: "catalog",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidPageError は無効なページ番号エラーを生成する。
func NewInvalidPageError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPage,
		Message:  fmt.Sprintf("無効なページ番号です: %s", raw),
		Category: "validation",
		Action:   "ページ番号には1以上の整数を指定してください。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("無効なリクエストです: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
