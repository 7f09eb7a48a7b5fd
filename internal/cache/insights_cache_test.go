package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"care4mom-insights/internal/config"
	"care4mom-insights/internal/models"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *InsightsCache) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg := &config.Config{}
	cfg.Insights.Cache.KeyPrefix = "care4mom:subject:"
	cfg.Insights.Cache.InsightsSuffix = ":insights"
	cfg.Insights.Cache.InsightsTTL = 60

	logger := zap.NewNop()
	insightsCache := NewInsightsCache(cfg, redisClient, logger)

	return mr, insightsCache
}

func sampleInsights(subjectID string, windowDays int) *CachedInsights {
	avg := 6.5
	return &CachedInsights{
		Aggregates: &models.Aggregates{
			SubjectID:    subjectID,
			WindowDays:   windowDays,
			SymptomCount: 3,
			AvgSeverity:  &avg,
		},
		Recommendations: []models.Recommendation{
			{
				Type:     "symptom",
				Priority: models.PriorityHigh,
				Title:    "High Symptom Severity",
			},
		},
		ComputedAt: time.Now(),
	}
}

func TestInsightsCache_SetAndGet(t *testing.T) {
	_, insightsCache := setupTestCache(t)
	ctx := context.Background()

	err := insightsCache.Set(ctx, "subject-1", 30, sampleInsights("subject-1", 30))
	require.NoError(t, err)

	cached, err := insightsCache.Get(ctx, "subject-1", 30)
	require.NoError(t, err)
	require.NotNil(t, cached)

	assert.Equal(t, "subject-1", cached.Aggregates.SubjectID)
	assert.Equal(t, 3, cached.Aggregates.SymptomCount)
	require.NotNil(t, cached.Aggregates.AvgSeverity)
	assert.InDelta(t, 6.5, *cached.Aggregates.AvgSeverity, 0.001)
	require.Len(t, cached.Recommendations, 1)
	assert.Equal(t, "High Symptom Severity", cached.Recommendations[0].Title)
}

func TestInsightsCache_GetMiss(t *testing.T) {
	_, insightsCache := setupTestCache(t)

	cached, err := insightsCache.Get(context.Background(), "subject-unknown", 30)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInsightsCache_WindowsCachedSeparately(t *testing.T) {
	_, insightsCache := setupTestCache(t)
	ctx := context.Background()

	err := insightsCache.Set(ctx, "subject-1", 30, sampleInsights("subject-1", 30))
	require.NoError(t, err)

	// 不同窗口为不同键
	cached, err := insightsCache.Get(ctx, "subject-1", 7)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInsightsCache_TTLExpiry(t *testing.T) {
	mr, insightsCache := setupTestCache(t)
	ctx := context.Background()

	err := insightsCache.Set(ctx, "subject-1", 30, sampleInsights("subject-1", 30))
	require.NoError(t, err)

	// TTL 过期后未命中
	mr.FastForward(61 * time.Second)

	cached, err := insightsCache.Get(ctx, "subject-1", 30)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInsightsCache_Invalidate(t *testing.T) {
	_, insightsCache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, insightsCache.Set(ctx, "subject-1", 30, sampleInsights("subject-1", 30)))
	require.NoError(t, insightsCache.Set(ctx, "subject-1", 7, sampleInsights("subject-1", 7)))
	require.NoError(t, insightsCache.Set(ctx, "subject-2", 30, sampleInsights("subject-2", 30)))

	err := insightsCache.Invalidate(ctx, "subject-1")
	require.NoError(t, err)

	// subject-1 的全部窗口失效
	cached, err := insightsCache.Get(ctx, "subject-1", 30)
	require.NoError(t, err)
	assert.Nil(t, cached)
	cached, err = insightsCache.Get(ctx, "subject-1", 7)
	require.NoError(t, err)
	assert.Nil(t, cached)

	// 其他 subject 不受影响
	cached, err = insightsCache.Get(ctx, "subject-2", 30)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestInsightsCache_InvalidateNoKeys(t *testing.T) {
	_, insightsCache := setupTestCache(t)

	err := insightsCache.Invalidate(context.Background(), "subject-empty")
	assert.NoError(t, err)
}
