package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// セキュリティヘッダーがすべて付与されることを検証
func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	mw := NewSecurityHeadersMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	expected := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
	}
	for name, want := range expected {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
}
