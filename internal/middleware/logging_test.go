package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureLog(t *testing.T, status int) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := NewLoggingMiddleware(logger)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログがJSONではない: %v (%s)", err, buf.String())
	}
	return entry
}

// TestLoggingMiddleware_LogsRequestFields はリクエストの基本フィールドが記録されることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	entry := captureLog(t, http.StatusOK)

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/api/characters" {
		t.Errorf("path = %v, want /api/characters", entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_msが記録されていない")
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスコードに応じてログレベルが変わることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		entry := captureLog(t, tt.status)
		if entry["level"] != tt.wantLevel {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.wantLevel)
		}
	}
}

// TestStatusRecorder_DefaultsTo200 はWriteHeader未呼び出し時に200が記録されることを検証する。
func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := NewLoggingMiddleware(logger)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログがJSONではない: %v", err)
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}
