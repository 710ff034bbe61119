package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/tripflow"
	"github.com/BaSui01/tripflow/agent/handoff"
	"github.com/BaSui01/tripflow/api/handlers"
	"github.com/BaSui01/tripflow/config"
	"github.com/BaSui01/tripflow/internal/cache"
	"github.com/BaSui01/tripflow/internal/history"
	"github.com/BaSui01/tripflow/internal/metrics"
	"github.com/BaSui01/tripflow/internal/server"
	"github.com/BaSui01/tripflow/internal/telemetry"
	"github.com/BaSui01/tripflow/llm"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 TripFlow 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 查询管线
	provider llm.Provider
	router   *handoff.Router

	// 可选依赖，不可用时保持 nil 并降级
	cacheManager *cache.Manager
	historyStore history.Store

	// Handlers
	queryHandler   *handlers.QueryHandler
	healthHandler  *handlers.HealthHandler
	agentsHandler  *handlers.AgentsHandler
	historyHandler *handlers.HistoryHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		otel:   otelProviders,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("tripflow", s.logger)

	// 2. 组装查询管线与可选依赖
	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init query pipeline: %w", err)
	}

	// 3. 初始化 Handlers
	s.initHandlers()

	// 4. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 5. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("envelope_cache", s.cacheManager != nil),
		zap.Bool("query_history", s.historyStore != nil),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initPipeline 组装补全 Provider、查询路由器、信封缓存与历史存储
func (s *Server) initPipeline() error {
	s.provider = tripflow.NewProvider(s.cfg.LLM, s.logger)

	router, err := tripflow.New(s.cfg,
		tripflow.WithProvider(s.provider),
		tripflow.WithLogger(s.logger),
		tripflow.WithMetrics(s.metricsCollector),
	)
	if err != nil {
		return err
	}
	s.router = router

	// Redis 信封缓存：router.cache_ttl 为 0 时关闭
	if s.cfg.Redis.Enabled && s.cfg.Router.CacheTTL > 0 {
		manager, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			DefaultTTL:   s.cfg.Redis.DefaultTTL,
			EnvelopeTTL:  s.cfg.Router.CacheTTL,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		}, s.logger, s.metricsCollector)
		if err != nil {
			s.logger.Warn("Redis not available, envelope cache disabled", zap.Error(err))
		} else {
			s.cacheManager = manager
		}
	}

	// 查询历史存储
	if s.cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := history.NewStore(ctx, history.Config{
			Driver:          s.cfg.Database.Driver,
			DSN:             s.cfg.Database.DSN(),
			Database:        s.cfg.Database.Name,
			MaxOpenConns:    s.cfg.Database.MaxOpenConns,
			MaxIdleConns:    s.cfg.Database.MaxIdleConns,
			ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
		}, s.logger, s.metricsCollector)
		if err != nil {
			s.logger.Warn("Database not available, query history disabled", zap.Error(err))
		} else {
			s.historyStore = store
		}
	}

	return nil
}

// initHandlers 初始化所有 handlers 并挂接就绪检查
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("provider", s.pingProvider))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", s.cacheManager.Ping))
	}
	if s.historyStore != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", s.historyStore.Ping))
	}

	s.queryHandler = handlers.NewQueryHandler(s.router, s.cacheManager, s.historyStore, s.logger)
	s.agentsHandler = handlers.NewAgentsHandler(Version)
	s.historyHandler = handlers.NewHistoryHandler(s.historyStore, s.logger)

	s.logger.Info("Handlers initialized")
}

// pingProvider 把 Provider 健康检查适配成就绪检查的 ping 形态
func (s *Server) pingProvider(ctx context.Context) error {
	status, err := s.provider.HealthCheck(ctx)
	if err != nil {
		return err
	}
	if !status.Healthy {
		return fmt.Errorf("provider %s reported unhealthy", s.provider.Name())
	}
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// API 路由（/api/v1 前缀 + 原服务的裸路径别名）
	// ========================================
	mux.HandleFunc("GET /{$}", s.agentsHandler.HandleRoot)
	mux.HandleFunc("POST /query", s.queryHandler.HandleQuery)
	mux.HandleFunc("POST /api/v1/query", s.queryHandler.HandleQuery)
	mux.HandleFunc("GET /agents", s.agentsHandler.HandleListAgents)
	mux.HandleFunc("GET /api/v1/agents", s.agentsHandler.HandleListAgents)
	mux.HandleFunc("GET /api/v1/history", s.historyHandler.HandleRecent)

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
	}

	// JWT 启用时限流按租户计，否则按来源 IP 计
	if s.cfg.Server.JWT.Enabled {
		middlewares = append(middlewares, JWTAuth(s.cfg.Server.JWT, skipAuthPaths, s.logger))
		if s.cfg.Server.RateLimitRPS > 0 {
			middlewares = append(middlewares,
				TenantRateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
		}
	} else if s.cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}

	// API Key 白名单为空则关闭认证
	if len(s.cfg.Server.APIKeys) > 0 {
		middlewares = append(middlewares,
			APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger))
	}

	handler := Chain(mux, middlewares...)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	idleTimeout := s.cfg.Server.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 2 * s.cfg.Server.ReadTimeout
	}
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     idleTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	// 使用 httpManager 的 WaitForShutdown（它会监听信号）
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	// 执行清理
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 1. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 2. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 4. 关闭历史存储与信封缓存
	if s.historyStore != nil {
		if err := s.historyStore.Close(ctx); err != nil {
			s.logger.Error("History store shutdown error", zap.Error(err))
		}
	}
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache manager shutdown error", zap.Error(err))
		}
	}

	// 5. 刷新遥测数据
	if err := s.otel.Shutdown(ctx); err != nil {
		s.logger.Error("Telemetry shutdown error", zap.Error(err))
	}

	s.logger.Info("Graceful shutdown completed")
}
