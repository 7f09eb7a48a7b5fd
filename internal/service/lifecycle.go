package service

import (
	"context"
	"time"

	"care4mom-insights/internal/models"
	"care4mom-insights/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertLifecycle 告警生命周期管理器
// 状态机：created (pending) → acknowledged（终态）；告警永不删除、不重开
type AlertLifecycle struct {
	alertsRepo repository.AlertsRepository
	logger     *zap.Logger
}

// NewAlertLifecycle 创建告警生命周期管理器
func NewAlertLifecycle(alertsRepo repository.AlertsRepository, logger *zap.Logger) *AlertLifecycle {
	return &AlertLifecycle{
		alertsRepo: alertsRepo,
		logger:     logger,
	}
}

// CreateAlert 持久化候选告警：分配 ID 和创建时间，以待处理状态入库
// 不对同规则/同 subject 的现存待处理告警去重（保留源系统行为）
func (l *AlertLifecycle) CreateAlert(ctx context.Context, candidate models.Alert) (*models.Alert, error) {
	candidate.AlertID = uuid.New().String()
	candidate.CreatedAt = time.Now()
	candidate.Acknowledged = false
	candidate.AcknowledgedAt = nil

	if err := l.alertsRepo.SaveAlert(ctx, &candidate); err != nil {
		return nil, models.NewRepositoryError("save alert", err)
	}

	l.logger.Info("Alert created",
		zap.String("alert_id", candidate.AlertID),
		zap.String("subject_id", candidate.SubjectID),
		zap.String("rule", candidate.SourceRule),
		zap.String("severity", string(candidate.Severity)),
	)

	return &candidate, nil
}

// Acknowledge 确认告警（幂等）
// 告警不存在或属于其他 subject 时返回 NotFoundError；
// 重复确认为 no-op，不覆盖首次确认时间
func (l *AlertLifecycle) Acknowledge(ctx context.Context, subjectID, alertID string) (*models.Alert, error) {
	alert, err := l.alertsRepo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, models.NewRepositoryError("get alert", err)
	}
	if alert == nil || alert.SubjectID != subjectID {
		return nil, models.NewNotFoundError("alert", alertID)
	}

	if alert.Acknowledged {
		return alert, nil
	}

	now := time.Now()
	alert.Acknowledged = true
	alert.AcknowledgedAt = &now

	if err := l.alertsRepo.UpdateAlert(ctx, alert); err != nil {
		return nil, models.NewRepositoryError("update alert", err)
	}

	l.logger.Info("Alert acknowledged",
		zap.String("alert_id", alertID),
		zap.String("subject_id", subjectID),
	)

	return alert, nil
}

// AcknowledgeAll 确认某 subject 全部待处理告警，返回受影响数量
func (l *AlertLifecycle) AcknowledgeAll(ctx context.Context, subjectID string) (int, error) {
	pending, err := l.alertsRepo.QueryAlerts(ctx, subjectID, false)
	if err != nil {
		return 0, models.NewRepositoryError("query pending alerts", err)
	}

	now := time.Now()
	count := 0
	for _, alert := range pending {
		alert.Acknowledged = true
		alert.AcknowledgedAt = &now
		if err := l.alertsRepo.UpdateAlert(ctx, alert); err != nil {
			return count, models.NewRepositoryError("update alert", err)
		}
		count++
	}

	l.logger.Info("All alerts acknowledged",
		zap.String("subject_id", subjectID),
		zap.Int("count", count),
	)

	return count, nil
}

// ListPending 待处理告警，按级别降序、创建时间降序
func (l *AlertLifecycle) ListPending(ctx context.Context, subjectID string) ([]*models.Alert, error) {
	alerts, err := l.alertsRepo.QueryAlerts(ctx, subjectID, false)
	if err != nil {
		return nil, models.NewRepositoryError("query pending alerts", err)
	}
	return alerts, nil
}

// ListHistory 已确认告警，按确认时间降序，上限 limit 条
func (l *AlertLifecycle) ListHistory(ctx context.Context, subjectID string, limit int) ([]*models.Alert, error) {
	alerts, err := l.alertsRepo.QueryAlerts(ctx, subjectID, true)
	if err != nil {
		return nil, models.NewRepositoryError("query acknowledged alerts", err)
	}

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}
