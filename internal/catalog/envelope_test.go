package catalog

import (
	"testing"

	"github.com/hitoshi/charamirror/internal/model"
)

func TestBuildEnvelope(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name     string
		meta     *model.CatalogMeta
		page     int
		wantNext *int
		wantPrev *int
	}{
		{
			name:     "先頭ページ",
			meta:     &model.CatalogMeta{Count: 826, Pages: 42},
			page:     1,
			wantNext: intPtr(2),
			wantPrev: nil,
		},
		{
			name:     "中間ページ",
			meta:     &model.CatalogMeta{Count: 826, Pages: 42},
			page:     5,
			wantNext: intPtr(6),
			wantPrev: intPtr(4),
		},
		{
			name:     "最終ページ",
			meta:     &model.CatalogMeta{Count: 826, Pages: 42},
			page:     42,
			wantNext: nil,
			wantPrev: intPtr(41),
		},
		{
			name:     "単一ページ",
			meta:     &model.CatalogMeta{Count: 3, Pages: 1},
			page:     1,
			wantNext: nil,
			wantPrev: nil,
		},
		{
			name:     "メタデータゼロ値",
			meta:     &model.CatalogMeta{},
			page:     1,
			wantNext: nil,
			wantPrev: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := buildEnvelope(nil, tt.meta, tt.page)

			if envelope.Info.Count != tt.meta.Count {
				t.Errorf("Count = %d, 期待値 %d", envelope.Info.Count, tt.meta.Count)
			}
			if envelope.Info.Pages != tt.meta.Pages {
				t.Errorf("Pages = %d, 期待値 %d", envelope.Info.Pages, tt.meta.Pages)
			}
			if !intPtrEqual(envelope.Info.Next, tt.wantNext) {
				t.Errorf("Next = %v, 期待値 %v", fmtIntPtr(envelope.Info.Next), fmtIntPtr(tt.wantNext))
			}
			if !intPtrEqual(envelope.Info.Prev, tt.wantPrev) {
				t.Errorf("Prev = %v, 期待値 %v", fmtIntPtr(envelope.Info.Prev), fmtIntPtr(tt.wantPrev))
			}
			if envelope.Results == nil {
				t.Error("Resultsはnilではなく空スライスであること")
			}
		})
	}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtIntPtr(p *int) any {
	if p == nil {
		return "nil"
	}
	return *p
}
