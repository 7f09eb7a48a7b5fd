package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"care4mom-insights/internal/models"
)

// MemoryObservationsRepo 内存观察记录仓库（无 DB 运行和测试用）
type MemoryObservationsRepo struct {
	mu           sync.RWMutex
	observations map[string][]models.Observation // subjectID -> observations
}

// NewMemoryObservationsRepo 创建内存观察记录仓库
func NewMemoryObservationsRepo() *MemoryObservationsRepo {
	return &MemoryObservationsRepo{
		observations: map[string][]models.Observation{},
	}
}

// SaveObservation 保存一条观察记录
func (r *MemoryObservationsRepo) SaveObservation(_ context.Context, obs *models.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.observations[obs.SubjectID] = append(r.observations[obs.SubjectID], *obs)
	return nil
}

// QueryObservations 查询某 subject 自 since 以来的某类观察记录，按时间倒序
func (r *MemoryObservationsRepo) QueryObservations(_ context.Context, subjectID string, kind models.ObservationKind, since time.Time) ([]models.Observation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []models.Observation{}
	for _, obs := range r.observations[subjectID] {
		if obs.Kind != kind {
			continue
		}
		if obs.RecordedAt.Before(since) {
			continue
		}
		result = append(result, obs)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})

	return result, nil
}

// MemoryAlertsRepo 内存告警仓库（无 DB 运行和测试用）
type MemoryAlertsRepo struct {
	mu     sync.RWMutex
	alerts map[string]models.Alert // alertID -> Alert
}

// NewMemoryAlertsRepo 创建内存告警仓库
func NewMemoryAlertsRepo() *MemoryAlertsRepo {
	return &MemoryAlertsRepo{
		alerts: map[string]models.Alert{},
	}
}

// SaveAlert 保存新告警
func (r *MemoryAlertsRepo) SaveAlert(_ context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[alert.AlertID] = *alert
	return nil
}

// GetAlert 获取单个告警，不存在时返回 (nil, nil)
func (r *MemoryAlertsRepo) GetAlert(_ context.Context, alertID string) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.alerts[alertID]
	if !ok {
		return nil, nil
	}
	return &alert, nil
}

// UpdateAlert 更新告警的确认状态和确认时间
func (r *MemoryAlertsRepo) UpdateAlert(_ context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[alert.AlertID]; !ok {
		return models.NewNotFoundError("alert", alert.AlertID)
	}
	r.alerts[alert.AlertID] = *alert
	return nil
}

// QueryAlerts 查询某 subject 的告警
// 待处理按级别降序、创建时间降序；已确认按确认时间降序
func (r *MemoryAlertsRepo) QueryAlerts(_ context.Context, subjectID string, acknowledged bool) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Alert{}
	for _, alert := range r.alerts {
		if alert.SubjectID != subjectID || alert.Acknowledged != acknowledged {
			continue
		}
		a := alert
		result = append(result, &a)
	}

	if acknowledged {
		sort.Slice(result, func(i, j int) bool {
			ti, tj := result[i].AcknowledgedAt, result[j].AcknowledgedAt
			if ti == nil || tj == nil {
				return tj == nil
			}
			return ti.After(*tj)
		})
	} else {
		sort.Slice(result, func(i, j int) bool {
			ri, rj := result[i].Severity.Rank(), result[j].Severity.Rank()
			if ri != rj {
				return ri > rj
			}
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
	}

	return result, nil
}
