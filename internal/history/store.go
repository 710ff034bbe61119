package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/internal/metrics"
)

// =============================================================================
// 📜 查询历史存储
// =============================================================================

const (
	// 未指定 limit 时返回的记录数
	defaultRecentLimit = 20
	// 单次查询返回的记录数上限
	maxRecentLimit = 100
)

// Config 历史存储配置
type Config struct {
	// 驱动类型: sqlite, postgres, mysql, mongo
	Driver string
	// 连接串（sqlite 为文件路径，mongo 为 mongodb:// URI）
	DSN string
	// 数据库名（mongo 的库名，关系库场景下作为指标的 database 标签）
	Database string
	// 最大连接数
	MaxOpenConns int
	// 最大空闲连接
	MaxIdleConns int
	// 连接最大生命周期
	ConnMaxLifetime time.Duration
	// 连接池健康检查间隔，0 表示关闭
	HealthCheckInterval time.Duration
}

// DefaultConfig 返回默认历史存储配置
func DefaultConfig() Config {
	return Config{
		Driver:              "sqlite",
		DSN:                 "tripflow.db",
		MaxOpenConns:        25,
		MaxIdleConns:        5,
		ConnMaxLifetime:     1 * time.Hour,
		HealthCheckInterval: 1 * time.Minute,
	}
}

// QueryRecord 一次查询处理的落库记录
type QueryRecord struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Query        string    `gorm:"type:text" json:"query" bson:"query"`
	Success      bool      `json:"success" bson:"success"`
	ResponseType string    `gorm:"size:32;index" json:"response_type" bson:"response_type"`
	ResponseJSON string    `gorm:"type:text" json:"response_json,omitempty" bson:"response_json,omitempty"`
	ErrorCode    string    `gorm:"size:64" json:"error_code,omitempty" bson:"error_code,omitempty"`
	AgentID      string    `gorm:"size:64" json:"agent_id,omitempty" bson:"agent_id,omitempty"`
	Redelegated  bool      `json:"redelegated" bson:"redelegated"`
	ElapsedMS    int64     `json:"elapsed_ms" bson:"elapsed_ms"`
	CreatedAt    time.Time `gorm:"index" json:"created_at" bson:"created_at"`
}

// TableName 指定表名
func (QueryRecord) TableName() string {
	return "query_records"
}

// Store 查询历史存储接口，由 GormStore 与 MongoStore 实现
type Store interface {
	// Save 持久化一条查询记录，空 ID 与零值 CreatedAt 会被自动填充
	Save(ctx context.Context, record *QueryRecord) error

	// Recent 按创建时间倒序返回最近的记录，limit<=0 取默认值并受上限约束
	Recent(ctx context.Context, limit int) ([]QueryRecord, error)

	// Ping 检查存储连通性
	Ping(ctx context.Context) error

	// Close 关闭底层连接
	Close(ctx context.Context) error
}

// NewStore 按驱动类型创建历史存储
func NewStore(ctx context.Context, config Config, logger *zap.Logger, collector *metrics.Collector) (Store, error) {
	switch config.Driver {
	case "mongo":
		return NewMongoStore(ctx, config, logger, collector)
	case "sqlite", "postgres", "mysql":
		return NewGormStore(config, logger, collector)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql, mongo)", config.Driver)
	}
}

// normalizeLimit 将调用方传入的 limit 收敛到 [1, maxRecentLimit]
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}
