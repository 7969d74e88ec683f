// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とワーカーから利用する。
type MetricsCollector interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordRefreshFailure()
	RecordCharactersStored(count int)
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
	RecordFavoriteToggle(added bool)
	RecordCharactersEvicted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHit        prometheus.Counter
	cacheMiss       prometheus.Counter
	refreshFail     prometheus.Counter
	charsStored     prometheus.Counter
	upstreamStatus  *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	favoriteToggle  *prometheus.CounterVec
	charsEvicted    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charamirror_cache_hit_total",
			Help: "新鮮なキャッシュで応答したページ読み出しの合計数",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charamirror_cache_miss_total",
			Help: "期限切れまたは未保存でリフレッシュに至ったページ読み出しの合計数",
		}),
		refreshFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charamirror_refresh_fail_total",
			Help: "ページリフレッシュ失敗の合計数",
		}),
		charsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charamirror_characters_stored_total",
			Help: "リフレッシュで保存されたキャラクターの合計数",
		}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charamirror_upstream_status_total",
			Help: "上流APIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "charamirror_upstream_latency_seconds",
			Help:    "上流APIフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		favoriteToggle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charamirror_favorite_toggle_total",
			Help: "お気に入りトグル操作の方向別合計数",
		}, []string{"direction"}),
		charsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charamirror_characters_evicted_total",
			Help: "保持期間超過で退避されたキャラクターの合計数",
		}),
	}

	reg.MustRegister(
		c.cacheHit,
		c.cacheMiss,
		c.refreshFail,
		c.charsStored,
		c.upstreamStatus,
		c.upstreamLatency,
		c.favoriteToggle,
		c.charsEvicted,
	)

	return c
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMiss.Inc()
}

// RecordRefreshFailure はリフレッシュ失敗を記録する。
func (c *Collector) RecordRefreshFailure() {
	c.refreshFail.Inc()
}

// RecordCharactersStored は保存されたキャラクター数を記録する。
func (c *Collector) RecordCharactersStored(count int) {
	c.charsStored.Add(float64(count))
}

// RecordUpstreamStatus は上流APIのステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency は上流APIフェッチのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordFavoriteToggle はお気に入りトグルを方向付きで記録する。
func (c *Collector) RecordFavoriteToggle(added bool) {
	direction := "removed"
	if added {
		direction = "added"
	}
	c.favoriteToggle.WithLabelValues(direction).Inc()
}

// RecordCharactersEvicted は退避されたキャラクター数を記録する。
func (c *Collector) RecordCharactersEvicted(count int) {
	c.charsEvicted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
