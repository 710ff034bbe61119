package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// promauto 注册到全局 registry，每个测试用独立的 namespace 避免
// duplicate registration panic。
var collectorNamespaceSeq uint64

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return NewCollector(fmt.Sprintf("test_%d", seq), zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	collector := newTestCollector(t)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.completionRequestsTotal)
	assert.NotNil(t, collector.completionTokensUsed)
	assert.NotNil(t, collector.queryClassifications)
	assert.NotNil(t, collector.routerStateTransitions)
	assert.NotNil(t, collector.agentRetriesTotal)
}

func TestCollector_NilReceiverIsSafe(t *testing.T) {
	// 未接线指标时路由与处理器直接在 nil Collector 上调用
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.RecordHTTPRequest("GET", "/test", 200, time.Millisecond, 1, 1)
		collector.RecordCompletion("openai", "gpt-4o-mini", "success", time.Millisecond, 10, 5)
		collector.RecordClassification("travel_planner", false)
		collector.RecordStateTransition("received", "classified")
		collector.RecordAgentExecution("flight_specialist", "resolved", time.Millisecond)
		collector.RecordRetry("hotel_specialist")
		collector.RecordCacheHit("redis")
		collector.RecordCacheMiss("redis")
		collector.RecordDBConnections("postgres", 1, 1)
		collector.RecordDBQuery("postgres", "INSERT", time.Millisecond)
	})
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordHTTPRequest("POST", "/api/v1/query", 200, 100*time.Millisecond, 1024, 2048)
	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	// 相同标签组合再记一次不应产生新序列
	collector.RecordHTTPRequest("POST", "/api/v1/query", 200, 50*time.Millisecond, 512, 1024)
	assert.Equal(t, count, testutil.CollectAndCount(collector.httpRequestsTotal))
}

func TestCollector_RecordCompletion(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordCompletion("openai", "gpt-4o-mini", "success", 500*time.Millisecond, 100, 50)

	assert.Greater(t, testutil.CollectAndCount(collector.completionRequestsTotal), 0)
	// prompt 与 completion 各占一条标签序列
	assert.Equal(t, 2, testutil.CollectAndCount(collector.completionTokensUsed))
}

func TestCollector_RecordClassification(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordClassification("flight_specialist", false)
	collector.RecordClassification("travel_planner", true)

	// flight/false 与 planner/true 是两条独立的标签序列
	assert.Equal(t, 2, testutil.CollectAndCount(collector.queryClassifications))
}

func TestCollector_RecordStateTransition(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordStateTransition("received", "classified")
	collector.RecordStateTransition("classified", "dispatched")

	assert.Equal(t, 2, testutil.CollectAndCount(collector.routerStateTransitions))
}

func TestCollector_RecordAgentExecution(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordAgentExecution("hotel_specialist", "resolved", time.Second)
	collector.RecordRetry("flight_specialist")

	assert.Greater(t, testutil.CollectAndCount(collector.agentExecutionsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.agentExecutionDuration), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.agentRetriesTotal), 0)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordCacheHit("redis")
	collector.RecordCacheMiss("redis")

	assert.Greater(t, testutil.CollectAndCount(collector.cacheHits), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.cacheMisses), 0)
}

func TestCollector_RecordDatabaseMetrics(t *testing.T) {
	collector := newTestCollector(t)

	collector.RecordDBQuery("postgres", "SELECT", 20*time.Millisecond)
	collector.RecordDBConnections("postgres", 10, 5)

	assert.Greater(t, testutil.CollectAndCount(collector.dbQueryDuration), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.dbConnectionsOpen), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.dbConnectionsIdle), 0)

	// gauge 记录的是最新值而非累计值
	open := testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("postgres"))
	assert.Equal(t, 10.0, open)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHTTPRequest("POST", "/api/v1/query", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordCompletion("openai", "gpt-4o-mini", "success", 500*time.Millisecond, 100, 50)
			collector.RecordStateTransition("received", "classified")
			collector.RecordCacheHit("redis")
		}()
	}
	wg.Wait()

	assert.Greater(t, testutil.CollectAndCount(collector.httpRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.completionRequestsTotal), 0)
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.cacheHits.WithLabelValues("redis")))
}

func TestCollector_StatusCode(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		204: "2xx",
		301: "3xx",
		404: "4xx",
		500: "5xx",
		599: "5xx",
		100: "unknown",
	}
	for code, want := range cases {
		assert.Equal(t, want, statusCode(code), "status %d", code)
	}
}

func TestCollector_MetricsRegistration(t *testing.T) {
	collector := newTestCollector(t)

	// 指标也可以挂到自定义 registry 上
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.httpRequestDuration)

	collector.RecordHTTPRequest("GET", "/health", 200, 100*time.Millisecond, 0, 0)

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
