// Package cache provides internal cache management.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/internal/metrics"
	"github.com/BaSui01/tripflow/types"
)

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

var errClosed = errors.New("cache manager is closed")

// Config 缓存配置
type Config struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr"`
	// 密码
	Password string `yaml:"password" json:"password"`
	// 数据库编号
	DB int `yaml:"db" json:"db"`
	// 默认过期时间
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`
	// 响应信封的过期时间，未设置时退回 DefaultTTL
	EnvelopeTTL time.Duration `yaml:"envelope_ttl" json:"envelope_ttl"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size"`
	// 最小空闲连接数
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns"`
	// 健康检查间隔, 为 0 时不启动后台检查
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		DB:                  0,
		DefaultTTL:          5 * time.Minute,
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// Manager 封装 Redis: 响应信封缓存、通用 KV 操作与后台健康检查。
type Manager struct {
	redis   *redis.Client
	config  Config
	logger  *zap.Logger
	metrics *metrics.Collector
	mu      sync.RWMutex
	closed  bool
}

// NewManager 创建缓存管理器并验证连接。collector 可以为 nil。
func NewManager(config Config, logger *zap.Logger, collector *metrics.Collector) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:   client,
		config:  config,
		logger:  logger.With(zap.String("component", "cache")),
		metrics: collector,
	}

	if config.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	logger.Info("cache manager initialized",
		zap.String("addr", config.Addr),
		zap.Int("pool_size", config.PoolSize),
	)

	return m, nil
}

// client 返回 Redis 客户端，管理器已关闭时返回错误。
func (m *Manager) client() (*redis.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errClosed
	}
	return m.redis, nil
}

// QueryKey 把查询折叠成稳定的缓存键。
// 大小写与空白差异命中同一个键，键本身不泄露查询内容。
func QueryKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "query:" + hex.EncodeToString(sum[:])
}

// GetEnvelope 按查询取出缓存的响应信封，未命中返回 ErrCacheMiss。
func (m *Manager) GetEnvelope(ctx context.Context, query string) (*types.TravelResponse, error) {
	var envelope types.TravelResponse
	if err := m.GetJSON(ctx, QueryKey(query), &envelope); err != nil {
		if IsCacheMiss(err) {
			m.metrics.RecordCacheMiss("redis")
		}
		return nil, err
	}

	m.metrics.RecordCacheHit("redis")
	return &envelope, nil
}

// SetEnvelope 缓存一个响应信封。
// 只有成功信封会被写入，失败可能是瞬态的，不值得按 TTL 粘住。
func (m *Manager) SetEnvelope(ctx context.Context, query string, envelope *types.TravelResponse) error {
	if envelope == nil || !envelope.Success {
		return nil
	}
	ttl := m.config.EnvelopeTTL
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}
	return m.SetJSON(ctx, QueryKey(query), envelope, ttl)
}

// Get 获取缓存值，键不存在时返回 ErrCacheMiss。
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	client, err := m.client()
	if err != nil {
		return "", err
	}

	val, err := client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrCacheMiss
	case err != nil:
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}
	return val, nil
}

// Set 设置缓存值, ttl 为 0 时使用 DefaultTTL。
func (m *Manager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	client, err := m.client()
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if err := client.Set(ctx, key, value, ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// GetJSON 获取并反序列化缓存值
func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// SetJSON 序列化并写入缓存值
func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return m.Set(ctx, key, string(data), ttl)
}

// Delete 删除缓存值
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	client, err := m.client()
	if err != nil {
		return err
	}

	if err := client.Del(ctx, keys...).Err(); err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Exists 返回给定键中存在的数量
func (m *Manager) Exists(ctx context.Context, keys ...string) (int64, error) {
	client, err := m.client()
	if err != nil {
		return 0, err
	}

	count, err := client.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache exists check failed: %w", err)
	}
	return count, nil
}

// Ping 检查 Redis 连接
func (m *Manager) Ping(ctx context.Context) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Close 关闭缓存管理器。重复调用是 no-op。
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("closing cache manager")
	return m.redis.Close()
}

func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := m.Ping(ctx)
		cancel()

		switch {
		case err == nil:
			m.logger.Debug("cache health check passed")
		case errors.Is(err, errClosed):
			return
		default:
			m.logger.Error("cache health check failed", zap.Error(err))
		}
	}
}
