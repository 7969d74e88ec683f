package catalog

import "github.com/hitoshi/charamirror/internal/model"

// PageInfo はページエンベロープのメタデータ部。
// NextとPrevは存在しない場合nil（JSONではnull）。
type PageInfo struct {
	Count int  `json:"count"`
	Pages int  `json:"pages"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

// Page はキャラクター一覧のページエンベロープ。
type Page struct {
	Info    PageInfo          `json:"info"`
	Results []model.Character `json:"results"`
}

// buildEnvelope はページエンベロープを組み立てる。
// countとpagesは常にカタログ全体（またはお気に入り全体）のメタデータを
// 反映し、当該ページの件数ではない。nextはpage+1（page < pagesの場合のみ）、
// prevはpage-1（page > 1の場合のみ）。
func buildEnvelope(results []model.Character, meta *model.CatalogMeta, page int) *Page {
	info := PageInfo{
		Count: meta.Count,
		Pages: meta.Pages,
	}
	if page < meta.Pages {
		next := page + 1
		info.Next = &next
	}
	if page > 1 {
		prev := page - 1
		info.Prev = &prev
	}
	if results == nil {
		results = []model.Character{}
	}
	return &Page{Info: info, Results: results}
}
