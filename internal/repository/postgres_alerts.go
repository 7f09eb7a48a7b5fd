package repository

import (
	"context"
	"database/sql"
	"fmt"

	"care4mom-insights/internal/models"

	"go.uber.org/zap"
)

// PostgresAlertsRepository 告警仓库（对应 ai_alerts 表）
type PostgresAlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAlertsRepository 创建告警仓库
func NewPostgresAlertsRepository(db *sql.DB, logger *zap.Logger) *PostgresAlertsRepository {
	return &PostgresAlertsRepository{
		db:     db,
		logger: logger,
	}
}

// severityRankSQL 级别排序表达式（critical > high > medium > low）
const severityRankSQL = `CASE severity
	WHEN 'critical' THEN 4
	WHEN 'high' THEN 3
	WHEN 'medium' THEN 2
	WHEN 'low' THEN 1
	ELSE 0
END`

// SaveAlert 保存新告警
func (r *PostgresAlertsRepository) SaveAlert(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is required")
	}
	if alert.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}
	if alert.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}

	query := `
		INSERT INTO ai_alerts (
			alert_id,
			user_id,
			alert_type,
			severity,
			title,
			message,
			recommendation,
			source_rule,
			acknowledged,
			created_at,
			acknowledged_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		alert.AlertID,
		alert.SubjectID,
		string(alert.Type),
		string(alert.Severity),
		alert.Title,
		alert.Message,
		alert.Recommendation,
		alert.SourceRule,
		alert.Acknowledged,
		alert.CreatedAt,
		alert.AcknowledgedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	return nil
}

// GetAlert 根据 alert_id 获取单个告警，不存在时返回 (nil, nil)
func (r *PostgresAlertsRepository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}

	query := `
		SELECT
			alert_id,
			user_id,
			alert_type,
			severity,
			title,
			message,
			recommendation,
			source_rule,
			acknowledged,
			created_at,
			acknowledged_at
		FROM ai_alerts
		WHERE alert_id = $1
	`

	alert, err := r.scanAlert(r.db.QueryRowContext(ctx, query, alertID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// UpdateAlert 更新告警的确认状态和确认时间
func (r *PostgresAlertsRepository) UpdateAlert(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is required")
	}
	if alert.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		UPDATE ai_alerts
		SET acknowledged = $1,
		    acknowledged_at = $2
		WHERE alert_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, alert.Acknowledged, alert.AcknowledgedAt, alert.AlertID)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert not found: alert_id=%s", alert.AlertID)
	}

	return nil
}

// QueryAlerts 查询某 subject 的告警
// 待处理按级别降序、创建时间降序；已确认按确认时间降序
func (r *PostgresAlertsRepository) QueryAlerts(ctx context.Context, subjectID string, acknowledged bool) ([]*models.Alert, error) {
	if subjectID == "" {
		return []*models.Alert{}, nil
	}

	orderBy := severityRankSQL + " DESC, created_at DESC"
	if acknowledged {
		orderBy = "acknowledged_at DESC"
	}

	query := fmt.Sprintf(`
		SELECT
			alert_id,
			user_id,
			alert_type,
			severity,
			title,
			message,
			recommendation,
			source_rule,
			acknowledged,
			created_at,
			acknowledged_at
		FROM ai_alerts
		WHERE user_id = $1
		  AND acknowledged = $2
		ORDER BY %s
	`, orderBy)

	rows, err := r.db.QueryContext(ctx, query, subjectID, acknowledged)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.Alert{}
	for rows.Next() {
		alert, err := r.scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresAlertsRepository) scanAlert(row rowScanner) (*models.Alert, error) {
	var alert models.Alert
	var alertType, severity string
	var recommendation sql.NullString
	var acknowledgedAt sql.NullTime

	err := row.Scan(
		&alert.AlertID,
		&alert.SubjectID,
		&alertType,
		&severity,
		&alert.Title,
		&alert.Message,
		&recommendation,
		&alert.SourceRule,
		&alert.Acknowledged,
		&alert.CreatedAt,
		&acknowledgedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Type = models.AlertType(alertType)
	alert.Severity = models.AlertSeverity(severity)

	// 处理可空字段
	if recommendation.Valid {
		alert.Recommendation = &recommendation.String
	}
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}

	return &alert, nil
}
