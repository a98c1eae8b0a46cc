// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベルの値
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultDuplicate = "duplicate"
	ResultNotFound  = "not_found"
	ResultForbidden = "forbidden"
	ResultError     = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(role, result string)
	RecordEnrollment(result string)
	RecordGradeUpdate(result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins         *prometheus.CounterVec
	enrollments    *prometheus.CounterVec
	gradeUpdates   *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_login_total",
			Help: "ロール・結果別のログイン試行数",
		}, []string{"role", "result"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_enrollment_total",
			Help: "結果別の履修登録試行数",
		}, []string{"result"}),
		gradeUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_grade_update_total",
			Help: "結果別の成績更新試行数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradebook_request_latency_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.enrollments,
		c.gradeUpdates,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin はログイン試行を記録する。
func (c *Collector) RecordLogin(role, result string) {
	c.logins.WithLabelValues(role, result).Inc()
}

// RecordEnrollment は履修登録の結果を記録する。
func (c *Collector) RecordEnrollment(result string) {
	c.enrollments.WithLabelValues(result).Inc()
}

// RecordGradeUpdate は成績更新の結果を記録する。
func (c *Collector) RecordGradeUpdate(result string) {
	c.gradeUpdates.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordLogin(string, string) {}
func (NopCollector) RecordEnrollment(string) {}
func (NopCollector) RecordGradeUpdate(string) {}
func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordRequestLatency(time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
