package service

import (
	"context"
	"database/sql"
	"fmt"

	"care4mom-insights/internal/cache"
	"care4mom-insights/internal/config"
	"care4mom-insights/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// InsightsService 洞察服务（整合各层）
// 持有数据库和 Redis 连接，组装 Repository、缓存和引擎
type InsightsService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	engine *Engine
}

// NewInsightsService 创建洞察服务
func NewInsightsService(cfg *config.Config, logger *zap.Logger) (*InsightsService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
	}
	if cfg.Database.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdle)
	}

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	obsRepo := repository.NewPostgresObservationsRepository(db, logger)
	alertsRepo := repository.NewPostgresAlertsRepository(db, logger)

	// 4. 创建缓存和引擎
	insightsCache := cache.NewInsightsCache(cfg, redisClient, logger)
	engine := NewEngine(cfg, obsRepo, alertsRepo, insightsCache, logger)

	return &InsightsService{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		engine:      engine,
	}, nil
}

// Engine 返回洞察引擎（供上层应用调用）
func (s *InsightsService) Engine() *Engine {
	return s.engine
}

// Stop 停止服务
func (s *InsightsService) Stop() error {
	s.logger.Info("Stopping insights service")

	// 关闭数据库连接
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	// 关闭 Redis 连接
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}
