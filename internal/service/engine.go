package service

import (
	"context"
	"time"

	"care4mom-insights/internal/aggregate"
	"care4mom-insights/internal/cache"
	"care4mom-insights/internal/config"
	"care4mom-insights/internal/evaluator"
	"care4mom-insights/internal/ingest"
	"care4mom-insights/internal/models"
	"care4mom-insights/internal/recommend"
	"care4mom-insights/internal/repository"

	"go.uber.org/zap"
)

// Engine 健康信号告警与洞察引擎
// 请求级、无内部状态：每次调用是一个同步工作单元
// 职责编排：录入校验 → 落库 → 聚合 → 规则评估 → 告警持久化 → 建议生成
type Engine struct {
	config         *config.Config
	obsRepo        repository.ObservationsRepository
	aggregator     *aggregate.Aggregator
	evaluator      *evaluator.Evaluator
	ranker         *recommend.Ranker
	lifecycle      *AlertLifecycle
	insightsCache  *cache.InsightsCache // 可为 nil（未配置 Redis 时）
	logger         *zap.Logger
}

// NewEngine 创建洞察引擎
// insightsCache 传 nil 表示不启用缓存
func NewEngine(
	cfg *config.Config,
	obsRepo repository.ObservationsRepository,
	alertsRepo repository.AlertsRepository,
	insightsCache *cache.InsightsCache,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		config:        cfg,
		obsRepo:       obsRepo,
		aggregator:    aggregate.NewAggregator(cfg, obsRepo, logger),
		evaluator:     evaluator.NewEvaluator(logger),
		ranker:        recommend.NewRanker(logger),
		lifecycle:     NewAlertLifecycle(alertsRepo, logger),
		insightsCache: insightsCache,
		logger:        logger,
	}
}

// IngestObservation 录入一条观察记录
// 校验、落库、基于新数据评估规则、持久化命中的告警并返回
// 部分失败（记录已落库但告警写入失败）以 RepositoryError 上报，由调用方决定补偿
func (e *Engine) IngestObservation(ctx context.Context, subjectID string, raw models.Observation) (*models.Observation, []models.Alert, error) {
	obs, err := ingest.Ingest(subjectID, raw)
	if err != nil {
		return nil, nil, err
	}

	if err := e.obsRepo.SaveObservation(ctx, &obs); err != nil {
		return nil, nil, models.NewRepositoryError("save observation", err)
	}

	// 基于包含本条记录的新聚合评估规则
	agg, err := e.aggregator.Aggregate(ctx, subjectID, e.config.Insights.DefaultWindowDays)
	if err != nil {
		return &obs, nil, err
	}

	candidates := e.evaluator.Evaluate(subjectID, &obs, agg)

	alerts := make([]models.Alert, 0, len(candidates))
	for _, candidate := range candidates {
		created, err := e.lifecycle.CreateAlert(ctx, candidate)
		if err != nil {
			return &obs, nil, err
		}
		alerts = append(alerts, *created)
	}

	// 缓存失效按尽力而为处理，失败只记日志
	e.invalidateCache(ctx, subjectID)

	e.logger.Info("Observation ingested",
		zap.String("subject_id", subjectID),
		zap.String("kind", string(obs.Kind)),
		zap.Int("alerts_fired", len(alerts)),
	)

	return &obs, alerts, nil
}

// GetInsights 获取某 subject 的聚合统计和建议列表
// 建议每次基于当前聚合重新计算，不落库
func (e *Engine) GetInsights(ctx context.Context, subjectID string, windowDays int) (*models.Aggregates, []models.Recommendation, error) {
	if windowDays <= 0 {
		windowDays = e.config.Insights.DefaultWindowDays
	}

	// 先查缓存
	if e.insightsCache != nil {
		cached, err := e.insightsCache.Get(ctx, subjectID, windowDays)
		if err != nil {
			e.logger.Warn("Failed to read insights cache",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		} else if cached != nil {
			return cached.Aggregates, cached.Recommendations, nil
		}
	}

	agg, err := e.aggregator.Aggregate(ctx, subjectID, windowDays)
	if err != nil {
		return nil, nil, err
	}

	recommendations := e.ranker.Recommend(agg)

	// 回填缓存，失败只记日志
	if e.insightsCache != nil {
		err := e.insightsCache.Set(ctx, subjectID, windowDays, &cache.CachedInsights{
			Aggregates:      agg,
			Recommendations: recommendations,
			ComputedAt:      time.Now(),
		})
		if err != nil {
			e.logger.Warn("Failed to write insights cache",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
	}

	return agg, recommendations, nil
}

// AcknowledgeAlert 确认单条告警（幂等）
func (e *Engine) AcknowledgeAlert(ctx context.Context, subjectID, alertID string) error {
	_, err := e.lifecycle.Acknowledge(ctx, subjectID, alertID)
	return err
}

// AcknowledgeAllAlerts 确认某 subject 全部待处理告警，返回受影响数量
func (e *Engine) AcknowledgeAllAlerts(ctx context.Context, subjectID string) (int, error) {
	return e.lifecycle.AcknowledgeAll(ctx, subjectID)
}

// ListPendingAlerts 待处理告警，按级别降序、创建时间降序
func (e *Engine) ListPendingAlerts(ctx context.Context, subjectID string) ([]*models.Alert, error) {
	return e.lifecycle.ListPending(ctx, subjectID)
}

// ListAlertHistory 已确认告警，按确认时间降序，上限 limit 条
// limit <= 0 时使用配置的默认上限
func (e *Engine) ListAlertHistory(ctx context.Context, subjectID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = e.config.Insights.HistoryLimit
	}
	return e.lifecycle.ListHistory(ctx, subjectID, limit)
}

func (e *Engine) invalidateCache(ctx context.Context, subjectID string) {
	if e.insightsCache == nil {
		return
	}
	if err := e.insightsCache.Invalidate(ctx, subjectID); err != nil {
		e.logger.Warn("Failed to invalidate insights cache",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
	}
}
