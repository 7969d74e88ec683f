// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FieldSanitizerService は上流カタログ由来のテキストフィールドをサニタイズし、
// フロントエンドでの表示時にXSSが成立しないことを保証する。
// キャラクター名等はプレーンテキストのはずだが、上流レスポンスは
// 信頼できない入力として扱い、保存前に必ず通す。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService はテキストフィールドのサニタイズ機能のインターフェースを定義する。
// 上流カタログレスポンスの各文字列フィールドを保存前に処理する。
type FieldSanitizerService interface {
	// Sanitize は文字列からすべてのHTMLタグを除去して返す。
	// 前後の空白も除去する。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのタグと属性を除去し、テキストのみを残す。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は文字列からすべてのHTMLタグを除去して返す。
func (s *fieldSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ FieldSanitizerService = (*fieldSanitizer)(nil)
