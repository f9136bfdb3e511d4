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
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordAuthEvent(event string)
	RecordTaskCreated()
	RecordProfileCreated()
	RecordLoaderFailure(loader string)
	RecordHTTPStatus(method string, statusCode int)
	RecordSessionsPurged(count int64, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authEvents      *prometheus.CounterVec
	tasksCreated    prometheus.Counter
	profilesCreated prometheus.Counter
	loaderFailures  *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	sessionsPurged  prometheus.Counter
	purgeDuration   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaintain_auth_events_total",
			Help: "認証状態変化（SIGNED_IN / SIGNED_OUT）の合計数",
		}, []string{"event"}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaintain_tasks_created_total",
			Help: "作成されたタスクの合計数",
		}),
		profilesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaintain_profiles_created_total",
			Help: "ディレクトリに追加されたユーザーの合計数",
		}),
		loaderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaintain_loader_failures_total",
			Help: "メイン画面のローダー別の取得失敗数",
		}, []string{"loader"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaintain_http_responses_total",
			Help: "HTTPメソッドとステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaintain_sessions_purged_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
		purgeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskmaintain_session_purge_duration_seconds",
			Help:    "セッションクリーンアップ1回の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authEvents,
		c.tasksCreated,
		c.profilesCreated,
		c.loaderFailures,
		c.httpStatus,
		c.sessionsPurged,
		c.purgeDuration,
	)

	return c
}

// RecordAuthEvent は認証状態変化を記録する。
func (c *Collector) RecordAuthEvent(event string) {
	c.authEvents.WithLabelValues(event).Inc()
}

// RecordTaskCreated はタスク作成を記録する。
func (c *Collector) RecordTaskCreated() {
	c.tasksCreated.Inc()
}

// RecordProfileCreated はユーザー追加を記録する。
func (c *Collector) RecordProfileCreated() {
	c.profilesCreated.Inc()
}

// RecordLoaderFailure はローダーの取得失敗を記録する。
func (c *Collector) RecordLoaderFailure(loader string) {
	c.loaderFailures.WithLabelValues(loader).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(method string, statusCode int) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsPurged はセッションクリーンアップの結果を記録する。
func (c *Collector) RecordSessionsPurged(count int64, duration time.Duration) {
	c.sessionsPurged.Add(float64(count))
	c.purgeDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Noop struct{}

func (Noop) RecordAuthEvent(string)                     {}
func (Noop) RecordTaskCreated()                         {}
func (Noop) RecordProfileCreated()                      {}
func (Noop) RecordLoaderFailure(string)                 {}
func (Noop) RecordHTTPStatus(string, int)               {}
func (Noop) RecordSessionsPurged(int64, time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Noop{}
)
