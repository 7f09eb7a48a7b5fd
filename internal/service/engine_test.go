package service

import (
	"context"
	"testing"
	"time"

	"care4mom-insights/internal/cache"
	"care4mom-insights/internal/config"
	"care4mom-insights/internal/models"
	"care4mom-insights/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupEngine(t *testing.T) (*Engine, *repository.MemoryObservationsRepo, *repository.MemoryAlertsRepo) {
	cfg, err := config.Load()
	require.NoError(t, err)

	obsRepo := repository.NewMemoryObservationsRepo()
	alertsRepo := repository.NewMemoryAlertsRepo()

	engine := NewEngine(cfg, obsRepo, alertsRepo, nil, zap.NewNop())
	return engine, obsRepo, alertsRepo
}

func intPtr(v int) *int { return &v }

func TestEngine_IngestHighSeveritySymptom(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx := context.Background()

	obs, alerts, err := engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind: models.KindSymptom,
		Symptom: &models.SymptomPayload{
			Name:     "Headache",
			Severity: 9,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, "subject-1", obs.SubjectID)
	assert.False(t, obs.RecordedAt.IsZero())

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeWarning, alerts[0].Type)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "high_severity_symptom", alerts[0].SourceRule)
	assert.Contains(t, alerts[0].Message, "Headache")
	assert.Contains(t, alerts[0].Message, "9/10")
	assert.NotEmpty(t, alerts[0].AlertID)
	assert.False(t, alerts[0].Acknowledged)

	// 告警已持久化，可以在待处理列表中查到
	pending, err := engine.ListPendingAlerts(ctx, "subject-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alerts[0].AlertID, pending[0].AlertID)
}

func TestEngine_IngestValidationError(t *testing.T) {
	engine, obsRepo, _ := setupEngine(t)
	ctx := context.Background()

	_, _, err := engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind: models.KindSymptom,
		Symptom: &models.SymptomPayload{
			Name:     "Headache",
			Severity: 11,
		},
	})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))

	// 校验失败的记录不落库
	saved, err := obsRepo.QueryObservations(ctx, "subject-1", models.KindSymptom, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, saved)

	pending, err := engine.ListPendingAlerts(ctx, "subject-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEngine_IngestHeartRate(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx := context.Background()

	// 心率 110 超出正常范围，产生一条告警
	_, alerts, err := engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind: models.KindVital,
		Vital: &models.VitalPayload{
			HeartRate: intPtr(110),
		},
	})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "abnormal_heart_rate", alerts[0].SourceRule)
	assert.Contains(t, alerts[0].Message, "60-100 bpm")

	// 心率 75 正常，不产生告警
	_, alerts, err = engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind: models.KindVital,
		Vital: &models.VitalPayload{
			HeartRate: intPtr(75),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestEngine_GetInsightsMedicationCompliance(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx := context.Background()

	// 10 剂 Zofran，服用 6 剂
	for i := 0; i < 10; i++ {
		_, alerts, err := engine.IngestObservation(ctx, "subject-1", models.Observation{
			Kind:       models.KindMedication,
			RecordedAt: time.Now().Add(-time.Duration(i) * time.Hour),
			Medication: &models.MedicationPayload{
				MedicationName: "Zofran",
				Dosage:         "4mg",
				Taken:          i < 6,
			},
		})
		require.NoError(t, err)
		assert.Empty(t, alerts)
	}

	agg, recommendations, err := engine.GetInsights(ctx, "subject-1", 0)
	require.NoError(t, err)
	require.NotNil(t, agg)

	// windowDays 为 0 时使用默认窗口
	assert.Equal(t, 30, agg.WindowDays)
	assert.Equal(t, 10, agg.TotalDoses)
	assert.Equal(t, 6, agg.TakenDoses)
	assert.Equal(t, 60.0, agg.OverallCompliance)
	require.Len(t, agg.PerMedication, 1)
	assert.Equal(t, "Zofran", agg.PerMedication[0].MedicationName)
	assert.Equal(t, 60.0, agg.PerMedication[0].ComplianceRate)

	// 依从率低于 80% 触发高优先级建议，且排在最前
	require.NotEmpty(t, recommendations)
	assert.Equal(t, "medication", recommendations[0].Type)
	assert.Equal(t, models.PriorityHigh, recommendations[0].Priority)
	assert.Contains(t, recommendations[0].Message, "60%")
}

func TestEngine_AcknowledgeAllAlerts(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx := context.Background()

	// 三条各自触发一条告警的记录
	inputs := []models.Observation{
		{Kind: models.KindSymptom, Symptom: &models.SymptomPayload{Name: "Nausea", Severity: 8}},
		{Kind: models.KindVital, Vital: &models.VitalPayload{HeartRate: intPtr(120)}},
		{Kind: models.KindVital, Vital: &models.VitalPayload{OxygenSaturationPct: intPtr(92)}},
	}
	for _, in := range inputs {
		_, alerts, err := engine.IngestObservation(ctx, "subject-1", in)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
	}

	pending, err := engine.ListPendingAlerts(ctx, "subject-1")
	require.NoError(t, err)
	require.Len(t, pending, 3)

	count, err := engine.AcknowledgeAllAlerts(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pending, err = engine.ListPendingAlerts(ctx, "subject-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// 历史列表包含全部已确认告警，按确认时间倒序
	history, err := engine.ListAlertHistory(ctx, "subject-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for _, alert := range history {
		assert.True(t, alert.Acknowledged)
		require.NotNil(t, alert.AcknowledgedAt)
	}
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i-1].AcknowledgedAt.Before(*history[i].AcknowledgedAt))
	}

	// 再次全部确认时没有待处理告警
	count, err = engine.AcknowledgeAllAlerts(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEngine_AcknowledgeAlertIdempotent(t *testing.T) {
	engine, _, alertsRepo := setupEngine(t)
	ctx := context.Background()

	_, alerts, err := engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind:    models.KindSymptom,
		Symptom: &models.SymptomPayload{Name: "Fatigue", Severity: 9},
	})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	alertID := alerts[0].AlertID

	require.NoError(t, engine.AcknowledgeAlert(ctx, "subject-1", alertID))

	first, err := alertsRepo.GetAlert(ctx, alertID)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.True(t, first.Acknowledged)
	require.NotNil(t, first.AcknowledgedAt)
	firstAckedAt := *first.AcknowledgedAt

	// 重复确认是幂等的，确认时间保持不变
	require.NoError(t, engine.AcknowledgeAlert(ctx, "subject-1", alertID))

	second, err := alertsRepo.GetAlert(ctx, alertID)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.Acknowledged)
	assert.Equal(t, firstAckedAt, *second.AcknowledgedAt)
}

func TestEngine_AcknowledgeAlertNotFound(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx := context.Background()

	// 不存在的告警
	err := engine.AcknowledgeAlert(ctx, "subject-1", "missing-alert")
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))

	// 其他 subject 的告警对当前 subject 不可见
	_, alerts, err := engine.IngestObservation(ctx, "subject-2", models.Observation{
		Kind:    models.KindSymptom,
		Symptom: &models.SymptomPayload{Name: "Pain", Severity: 10},
	})
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	err = engine.AcknowledgeAlert(ctx, "subject-1", alerts[0].AlertID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestEngine_PendingAlertsOrdering(t *testing.T) {
	engine, _, _ := setupEngine(t)
	ctx := context.Background()

	// 先低级别后高级别录入，验证按级别排序
	_, _, err := engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind: models.KindMood,
		Mood: &models.MoodPayload{MoodScore: 2},
	})
	require.NoError(t, err)

	_, _, err = engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind:    models.KindSymptom,
		Symptom: &models.SymptomPayload{Name: "Chest pain", Severity: 9},
	})
	require.NoError(t, err)

	pending, err := engine.ListPendingAlerts(ctx, "subject-1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pending), 2)
	for i := 1; i < len(pending); i++ {
		assert.GreaterOrEqual(t, pending[i-1].Severity.Rank(), pending[i].Severity.Rank())
	}
	assert.Equal(t, models.SeverityHigh, pending[0].Severity)
}

func TestEngine_GetInsightsCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	obsRepo := repository.NewMemoryObservationsRepo()
	alertsRepo := repository.NewMemoryAlertsRepo()
	insightsCache := cache.NewInsightsCache(cfg, redisClient, zap.NewNop())
	engine := NewEngine(cfg, obsRepo, alertsRepo, insightsCache, zap.NewNop())

	ctx := context.Background()

	_, _, err = engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind:    models.KindSymptom,
		Symptom: &models.SymptomPayload{Name: "Headache", Severity: 5},
	})
	require.NoError(t, err)

	agg, _, err := engine.GetInsights(ctx, "subject-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.SymptomCount)

	// 绕过引擎直接落库，缓存未失效时读到旧值
	require.NoError(t, obsRepo.SaveObservation(ctx, &models.Observation{
		SubjectID:  "subject-1",
		Kind:       models.KindSymptom,
		RecordedAt: time.Now(),
		Symptom:    &models.SymptomPayload{Name: "Nausea", Severity: 4},
	}))

	agg, _, err = engine.GetInsights(ctx, "subject-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.SymptomCount)

	// 通过引擎录入会使缓存失效，重新计算
	_, _, err = engine.IngestObservation(ctx, "subject-1", models.Observation{
		Kind:    models.KindSymptom,
		Symptom: &models.SymptomPayload{Name: "Fatigue", Severity: 3},
	})
	require.NoError(t, err)

	agg, _, err = engine.GetInsights(ctx, "subject-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.SymptomCount)
}
