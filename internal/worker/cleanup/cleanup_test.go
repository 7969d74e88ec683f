package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type mockDeleter struct {
	called  bool
	cutoff  time.Time
	deleted int64
	err     error
}

func (m *mockDeleter) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.called = true
	m.cutoff = cutoff
	return m.deleted, m.err
}

type mockMetrics struct {
	evicted int
}

func (m *mockMetrics) RecordCharactersEvicted(count int) {
	m.evicted += count
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestNewCleanupJob_SetsRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockDeleter{}, nil, newTestLogger(&buf))

	if job.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", job.RetentionDays)
	}
}

func TestCleanupJob_Run_DeletesOlderThanCutoff(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockDeleter{deleted: 5}
	metrics := &mockMetrics{}
	job := NewCleanupJob(mock, metrics, newTestLogger(&buf))

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return base }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if !mock.called {
		t.Fatal("DeleteOlderThan が呼び出されなかった")
	}
	wantCutoff := base.AddDate(0, 0, -30)
	if !mock.cutoff.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", mock.cutoff, wantCutoff)
	}
	if metrics.evicted != 5 {
		t.Errorf("退避メトリクス = %d, want 5", metrics.evicted)
	}
}

func TestCleanupJob_Run_CustomRetention(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockDeleter{}
	job := NewCleanupJob(mock, nil, newTestLogger(&buf))
	job.RetentionDays = 7

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return base }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if want := base.AddDate(0, 0, -7); !mock.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", mock.cutoff, want)
	}
}

func TestCleanupJob_Run_ReturnsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockDeleter{err: errors.New("connection refused")}
	job := NewCleanupJob(mock, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("削除失敗時はエラーを返すこと")
	}
}

func TestCleanupJob_Run_LogsDeletedCount(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockDeleter{deleted: 12}
	job := NewCleanupJob(mock, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログがJSONではない: %v", err)
	}
	if entry["deleted_count"] != float64(12) {
		t.Errorf("deleted_count = %v, want 12", entry["deleted_count"])
	}
}

func TestCleanupJob_RunLoop_StopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockDeleter{}
	job := NewCleanupJob(mock, nil, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.RunLoop(ctx, time.Hour)
		close(done)
	}()

	// 初回実行のあとキャンセルで終了すること
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunLoopがコンテキストキャンセルで終了しなかった")
	}
	if !mock.called {
		t.Error("起動直後の初回実行が行われなかった")
	}
}
