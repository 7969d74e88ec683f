package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/charamirror/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一フォーマットでエラーが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError("nobody"))

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのデコードに失敗: %v", err)
	}
	if body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
	if body.Message == "" || body.Category == "" || body.Action == "" {
		t.Errorf("フィールドが欠落している: %+v", body)
	}
}

// TestWriteInternalServerError は500レスポンスの統一フォーマットを検証する。
func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのデコードに失敗: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
}
