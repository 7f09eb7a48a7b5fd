package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"care4mom-insights/internal/config"
	"care4mom-insights/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedInsights 缓存的洞察数据（聚合 + 建议）
type CachedInsights struct {
	Aggregates      *models.Aggregates      `json:"aggregates"`
	Recommendations []models.Recommendation `json:"recommendations"`
	ComputedAt      time.Time               `json:"computed_at"`
}

// InsightsCache Redis 洞察缓存管理器
// 聚合计算结果按 subject + 窗口缓存，短 TTL；新观察记录落库后整体失效
type InsightsCache struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewInsightsCache 创建洞察缓存管理器
func NewInsightsCache(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *InsightsCache {
	return &InsightsCache{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// buildKey 构建缓存键，如 "care4mom:subject:<id>:insights:30"
func (c *InsightsCache) buildKey(subjectID string, windowDays int) string {
	return fmt.Sprintf("%s%s%s:%d",
		c.config.Insights.Cache.KeyPrefix,
		subjectID,
		c.config.Insights.Cache.InsightsSuffix,
		windowDays,
	)
}

// Get 读取缓存的洞察数据，未命中时返回 (nil, nil)
func (c *InsightsCache) Get(ctx context.Context, subjectID string, windowDays int) (*CachedInsights, error) {
	key := c.buildKey(subjectID, windowDays)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get insights cache: %w", err)
	}

	var cached CachedInsights
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached insights: %w", err)
	}

	return &cached, nil
}

// Set 写入洞察缓存（带 TTL）
func (c *InsightsCache) Set(ctx context.Context, subjectID string, windowDays int, insights *CachedInsights) error {
	key := c.buildKey(subjectID, windowDays)

	jsonData, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	ttl := time.Duration(c.config.Insights.Cache.InsightsTTL) * time.Second
	if err := c.redisClient.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set insights cache: %w", err)
	}

	c.logger.Debug("Updated insights cache",
		zap.String("subject_id", subjectID),
		zap.Int("window_days", windowDays),
		zap.String("key", key),
	)

	return nil
}

// Invalidate 删除某 subject 全部窗口的洞察缓存（新观察记录落库后调用）
func (c *InsightsCache) Invalidate(ctx context.Context, subjectID string) error {
	pattern := fmt.Sprintf("%s%s%s:*",
		c.config.Insights.Cache.KeyPrefix,
		subjectID,
		c.config.Insights.Cache.InsightsSuffix,
	)

	var keys []string
	iter := c.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan insights cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate insights cache: %w", err)
	}

	c.logger.Debug("Invalidated insights cache",
		zap.String("subject_id", subjectID),
		zap.Int("key_count", len(keys)),
	)

	return nil
}
