// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値。
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービス、セッション管理、ロールゲート、ミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(result, reason string)
	RecordLoginLatency(duration time.Duration)
	RecordSessionRejected(reason string)
	RecordGateDecision(role, decision string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	login           *prometheus.CounterVec
	loginLatency    prometheus.Histogram
	sessionRejected *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chefgo_login_total",
			Help: "ログイン試行の合計数（結果と失敗理由別）",
		}, []string{"result", "reason"}),
		loginLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chefgo_login_latency_seconds",
			Help:    "資格情報検証のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chefgo_session_rejected_total",
			Help: "復元できなかったセッショントークンの数（理由別）",
		}, []string{"reason"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chefgo_gate_decisions_total",
			Help: "ロールゲートの判定数（必要ロールと判定別）",
		}, []string{"role", "decision"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chefgo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.login,
		c.loginLatency,
		c.sessionRejected,
		c.gateDecisions,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。成功時のreasonは空でよい。
func (c *Collector) RecordLogin(result, reason string) {
	c.login.WithLabelValues(result, reason).Inc()
}

// RecordLoginLatency は資格情報検証のレイテンシを記録する。
func (c *Collector) RecordLoginLatency(duration time.Duration) {
	c.loginLatency.Observe(duration.Seconds())
}

// RecordSessionRejected はセッショントークンの拒否を記録する。
func (c *Collector) RecordSessionRejected(reason string) {
	c.sessionRejected.WithLabelValues(reason).Inc()
}

// RecordGateDecision はロールゲートの判定を記録する。
func (c *Collector) RecordGateDecision(role, decision string) {
	c.gateDecisions.WithLabelValues(role, decision).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Noop struct{}

// RecordLogin は何もしない。
func (Noop) RecordLogin(string, string) {}

// RecordLoginLatency は何もしない。
func (Noop) RecordLoginLatency(time.Duration) {}

// RecordSessionRejected は何もしない。
func (Noop) RecordSessionRejected(string) {}

// RecordGateDecision は何もしない。
func (Noop) RecordGateDecision(string, string) {}

// RecordHTTPStatus は何もしない。
func (Noop) RecordHTTPStatus(int) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Noop{}
)
