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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordTaskEvent(event string)
	RecordAuthEvent(event string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	taskEvents   *prometheus.CounterVec
	authEvents   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskapi_http_requests_total",
			Help: "メソッド・ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskapi_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		taskEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskapi_task_events_total",
			Help: "タスクの作成・更新・削除の合計数",
		}, []string{"event"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskapi_auth_events_total",
			Help: "登録・ログイン成功・ログイン失敗の合計数",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.taskEvents,
		c.authEvents,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスパラメータを含まないルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTaskEvent はタスクイベントを記録する。
func (c *Collector) RecordTaskEvent(event string) {
	c.taskEvents.WithLabelValues(event).Inc()
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event string) {
	c.authEvents.WithLabelValues(event).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
