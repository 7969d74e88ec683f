package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/charamirror/internal/catalog"
	"github.com/hitoshi/charamirror/internal/model"
)

// --- レスポンス型 ---

// originResponse はキャラクターの出身情報。
type originResponse struct {
	Name      string `json:"name"`
	Dimension string `json:"dimension"`
}

// characterResponse はキャラクター1件のレスポンス。
type characterResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Image       string         `json:"image"`
	Species     string         `json:"species"`
	Gender      string         `json:"gender"`
	Status      string         `json:"status"`
	Origin      originResponse `json:"origin"`
	Episode     []string       `json:"episode"`
	LastUpdated time.Time      `json:"last_updated"`
}

// pageInfoResponse はページネーションメタデータ。
// next/prevは存在しない場合nullになる。
type pageInfoResponse struct {
	Count int  `json:"count"`
	Pages int  `json:"pages"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

// pageResponse はページエンベロープのレスポンス。
type pageResponse struct {
	Info    pageInfoResponse    `json:"info"`
	Results []characterResponse `json:"results"`
}

// episodeResponse はエピソード1件のレスポンス。
type episodeResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AirDate string `json:"air_date"`
}

// userResponse はユーザーのレスポンス。
type userResponse struct {
	ID                 string   `json:"id"`
	Username           string   `json:"username"`
	FavoriteCharacters []string `json:"favorite_characters"`
}

func toCharacterResponse(c model.Character) characterResponse {
	episode := c.EpisodeIDs
	if episode == nil {
		episode = []string{}
	}
	return characterResponse{
		ID:      c.ID,
		Name:    c.Name,
		Image:   c.Image,
		Species: c.Species,
		Gender:  c.Gender,
		Status:  c.Status,
		Origin: originResponse{
			Name:      c.Origin.Name,
			Dimension: c.Origin.Dimension,
		},
		Episode:     episode,
		LastUpdated: c.LastUpdated,
	}
}

func toPageResponse(page *catalog.Page) pageResponse {
	results := make([]characterResponse, len(page.Results))
	for i, c := range page.Results {
		results[i] = toCharacterResponse(c)
	}
	return pageResponse{
		Info: pageInfoResponse{
			Count: page.Info.Count,
			Pages: page.Info.Pages,
			Next:  page.Info.Next,
			Prev:  page.Info.Prev,
		},
		Results: results,
	}
}

func toUserResponse(u *model.User) userResponse {
	favorites := u.FavoriteCharacters
	if favorites == nil {
		favorites = []string{}
	}
	return userResponse{
		ID:                 u.ID,
		Username:           u.Username,
		FavoriteCharacters: favorites,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
