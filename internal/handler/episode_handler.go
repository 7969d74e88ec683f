package handler

import (
	"net/http"
	"strings"

	"github.com/hitoshi/charamirror/internal/model"
)

// EpisodeHandler はエピソード解決のHTTPハンドラー。
type EpisodeHandler struct {
	service CatalogServiceInterface
	maxIDs  int
}

// NewEpisodeHandler はEpisodeHandlerを生成する。
// maxIDsは1リクエストで解決するエピソード数の上限。超過分は切り詰める。
func NewEpisodeHandler(service CatalogServiceInterface, maxIDs int) *EpisodeHandler {
	return &EpisodeHandler{service: service, maxIDs: maxIDs}
}

// GetEpisodes は指定されたエピソード参照URLを解決する。
// GET /api/episodes?ids=url1,url2,url3
// 上限はサービス層ではなくここで適用する（呼び出し側のポリシー）。
func (h *EpisodeHandler) GetEpisodes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		handleServiceError(w, model.NewInvalidRequestError("idsパラメータが必要です"))
		return
	}

	ids := make([]string, 0, h.maxIDs)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
		if len(ids) == h.maxIDs {
			break
		}
	}

	episodes, err := h.service.GetEpisodes(r.Context(), ids)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]episodeResponse, len(episodes))
	for i, e := range episodes {
		results[i] = episodeResponse{ID: e.ID, Name: e.Name, AirDate: e.AirDate}
	}
	writeJSON(w, http.StatusOK, results)
}
