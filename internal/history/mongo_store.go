package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/internal/metrics"
)

// =============================================================================
// 🍃 MongoDB 历史存储
// =============================================================================

const (
	defaultMongoDatabase = "tripflow"
	mongoCollectionName  = "query_records"
)

// MongoStore 基于 MongoDB 的查询历史存储
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
	metrics    *metrics.Collector
	database   string
}

// NewMongoStore 连接 MongoDB 并验证连通性
func NewMongoStore(ctx context.Context, config Config, logger *zap.Logger, collector *metrics.Collector) (*MongoStore, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("mongo DSN is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "history_store"))

	client, err := mongo.Connect(options.Client().ApplyURI(config.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	dbName := config.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	logger.Info("查询历史存储已就绪",
		zap.String("driver", "mongo"),
		zap.String("database", dbName),
	)

	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(mongoCollectionName),
		logger:     logger,
		metrics:    collector,
		database:   dbName,
	}, nil
}

// Save 持久化一条查询记录
func (s *MongoStore) Save(ctx context.Context, record *QueryRecord) error {
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
	_, err := s.collection.InsertOne(ctx, record)
	s.metrics.RecordDBQuery(s.database, "insert", time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to save query record: %w", err)
	}
	return nil
}

// Recent 按创建时间倒序返回最近的查询记录
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]QueryRecord, error) {
	limit = normalizeLimit(limit)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	start := time.Now()
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		s.metrics.RecordDBQuery(s.database, "find", time.Since(start))
		return nil, fmt.Errorf("failed to list query records: %w", err)
	}

	var records []QueryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode query records: %w", err)
	}
	s.metrics.RecordDBQuery(s.database, "find", time.Since(start))
	return records, nil
}

// Ping 检查 MongoDB 连通性
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close 断开 MongoDB 连接
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
