package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/tripflow/internal/database"
	"github.com/BaSui01/tripflow/internal/metrics"
)

// =============================================================================
// 🗄️ 关系库历史存储
// =============================================================================

// GormStore 基于 GORM 的查询历史存储，支持 sqlite、postgres 与 mysql
type GormStore struct {
	pool     *database.PoolManager
	logger   *zap.Logger
	metrics  *metrics.Collector
	database string
}

// NewGormStore 打开数据库连接并初始化连接池与表结构
func NewGormStore(config Config, logger *zap.Logger, collector *metrics.Collector) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "history_store"))

	dialector, err := openDialector(config.Driver, config.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	label := config.Database
	if label == "" {
		label = "history"
	}

	poolConfig := database.PoolConfig{
		Database:            label,
		MaxOpenConns:        config.MaxOpenConns,
		MaxIdleConns:        config.MaxIdleConns,
		ConnMaxLifetime:     config.ConnMaxLifetime,
		HealthCheckInterval: config.HealthCheckInterval,
	}
	if poolConfig.MaxOpenConns <= 0 {
		poolConfig.MaxOpenConns = 25
	}
	if poolConfig.MaxIdleConns <= 0 {
		poolConfig.MaxIdleConns = 5
	}

	pool, err := database.NewPoolManager(db, poolConfig, logger, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to init connection pool: %w", err)
	}

	// 建表幂等，线上版本化迁移由 migrate 子命令管理
	if err := db.AutoMigrate(&QueryRecord{}); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to migrate query_records: %w", err)
	}

	logger.Info("查询历史存储已就绪",
		zap.String("driver", config.Driver),
		zap.String("database", label),
	)

	return &GormStore{
		pool:     pool,
		logger:   logger,
		metrics:  collector,
		database: label,
	}, nil
}

// openDialector 按驱动名构造 GORM Dialector
func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported gorm driver: %s", driver)
	}
}

// Save 持久化一条查询记录，死锁等瞬态错误自动重试
func (s *GormStore) Save(ctx context.Context, record *QueryRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	s.metrics.RecordDBQuery(s.database, "insert", time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to save query record: %w", err)
	}
	return nil
}

// Recent 按创建时间倒序返回最近的查询记录
func (s *GormStore) Recent(ctx context.Context, limit int) ([]QueryRecord, error) {
	limit = normalizeLimit(limit)

	var records []QueryRecord
	start := time.Now()
	err := s.pool.DB().WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	s.metrics.RecordDBQuery(s.database, "select", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to list query records: %w", err)
	}
	return records, nil
}

// Ping 检查数据库连通性
func (s *GormStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close 关闭连接池
func (s *GormStore) Close(ctx context.Context) error {
	return s.pool.Close()
}
