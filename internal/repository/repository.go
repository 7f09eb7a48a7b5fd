package repository

import (
	"context"
	"time"

	"care4mom-insights/internal/models"
)

// ObservationsRepository 观察记录Repository接口
// 洞察引擎只通过该接口读写观察数据，不关心存储实现
type ObservationsRepository interface {
	// 保存一条观察记录（按 Kind 写入对应表）
	SaveObservation(ctx context.Context, obs *models.Observation) error

	// 查询某 subject 自 since 以来的某类观察记录，按时间倒序
	QueryObservations(ctx context.Context, subjectID string, kind models.ObservationKind, since time.Time) ([]models.Observation, error)
}

// AlertsRepository 告警Repository接口
// 告警只增不删；确认（acknowledge）是唯一的状态变更
type AlertsRepository interface {
	// 保存新告警
	SaveAlert(ctx context.Context, alert *models.Alert) error

	// 获取单个告警，不存在时返回 (nil, nil)
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)

	// 更新告警（确认状态和确认时间）
	UpdateAlert(ctx context.Context, alert *models.Alert) error

	// 查询某 subject 的告警
	// acknowledged=false：待处理，按级别降序、创建时间降序
	// acknowledged=true：已确认，按确认时间降序
	QueryAlerts(ctx context.Context, subjectID string, acknowledged bool) ([]*models.Alert, error)
}
