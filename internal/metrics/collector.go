// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 指标收集器。
// nil 接收者是合法的：未接线指标时所有 Record 方法直接返回。
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 补全调用指标
	completionRequestsTotal   *prometheus.CounterVec
	completionRequestDuration *prometheus.HistogramVec
	completionTokensUsed      *prometheus.CounterVec

	// 路由指标
	queryClassifications   *prometheus.CounterVec
	routerStateTransitions *prometheus.CounterVec
	agentExecutionsTotal   *prometheus.CounterVec
	agentExecutionDuration *prometheus.HistogramVec
	agentRetriesTotal      *prometheus.CounterVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec
	dbQueryDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// 各类直方图使用的桶。补全与专家执行耗时远超普通 HTTP 请求，
// 因此使用秒级的宽桶而非 DefBuckets。
var (
	completionBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}
	executionBuckets  = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}
	sizeBuckets       = prometheus.ExponentialBuckets(100, 10, 8)
)

// NewCollector 创建指标收集器，并将所有指标注册到默认 registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		}, labels)
	}
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	c := &Collector{
		httpRequestsTotal:   counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		httpRequestDuration: histogram("http_request_duration_seconds", "HTTP request duration in seconds", prometheus.DefBuckets, "method", "path"),
		httpRequestSize:     histogram("http_request_size_bytes", "HTTP request size in bytes", sizeBuckets, "method", "path"),
		httpResponseSize:    histogram("http_response_size_bytes", "HTTP response size in bytes", sizeBuckets, "method", "path"),

		completionRequestsTotal:   counter("completion_requests_total", "Total number of completion requests", "provider", "model", "status"),
		completionRequestDuration: histogram("completion_request_duration_seconds", "Completion request duration in seconds", completionBuckets, "provider", "model"),
		completionTokensUsed:      counter("completion_tokens_used_total", "Total number of tokens used", "provider", "model", "type"),

		queryClassifications:   counter("query_classifications_total", "Total number of query classifications", "target", "ambiguous"),
		routerStateTransitions: counter("router_state_transitions_total", "Total number of routing state transitions", "from_state", "to_state"),
		agentExecutionsTotal:   counter("agent_executions_total", "Total number of specialist executions", "agent_id", "status"),
		agentExecutionDuration: histogram("agent_execution_duration_seconds", "Specialist execution duration in seconds", executionBuckets, "agent_id"),
		agentRetriesTotal:      counter("agent_retries_total", "Total number of transient completion retries", "agent_id"),

		cacheHits:   counter("cache_hits_total", "Total number of cache hits", "cache_type"),
		cacheMisses: counter("cache_misses_total", "Total number of cache misses", "cache_type"),

		dbConnectionsOpen: gauge("db_connections_open", "Number of open database connections", "database"),
		dbConnectionsIdle: gauge("db_connections_idle", "Number of idle database connections", "database"),
		dbQueryDuration:   histogram("db_query_duration_seconds", "Database query duration in seconds", prometheus.DefBuckets, "database", "operation"),

		logger: logger.With(zap.String("component", "metrics")),
	}

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordCompletion 记录一次模型补全调用。token 用量按 prompt 与
// completion 两条标签序列分别累计。
func (c *Collector) RecordCompletion(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	if c == nil {
		return
	}
	c.completionRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.completionRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.completionTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.completionTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RecordClassification 记录查询分类结果
func (c *Collector) RecordClassification(target string, ambiguous bool) {
	if c == nil {
		return
	}
	label := "false"
	if ambiguous {
		label = "true"
	}
	c.queryClassifications.WithLabelValues(target, label).Inc()
}

// RecordStateTransition 记录路由状态转换
func (c *Collector) RecordStateTransition(fromState, toState string) {
	if c == nil {
		return
	}
	c.routerStateTransitions.WithLabelValues(fromState, toState).Inc()
}

// RecordAgentExecution 记录专家执行结果
// status: resolved, redelegated, failed
func (c *Collector) RecordAgentExecution(agentID, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.agentExecutionsTotal.WithLabelValues(agentID, status).Inc()
	c.agentExecutionDuration.WithLabelValues(agentID).Observe(duration.Seconds())
}

// RecordRetry 记录一次瞬态失败重试
func (c *Collector) RecordRetry(agentID string) {
	if c == nil {
		return
	}
	c.agentRetriesTotal.WithLabelValues(agentID).Inc()
}

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	if c == nil {
		return
	}
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// RecordDBQuery 记录数据库查询
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	if c == nil {
		return
	}
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// statusCode 将 HTTP 状态码折叠为 2xx/3xx/4xx/5xx
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
