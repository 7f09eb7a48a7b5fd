package models

import (
	"time"
)

// AlertType 告警类型（对应 ai_alerts.alert_type）
type AlertType string

const (
	AlertTypeWarning   AlertType = "warning"
	AlertTypeAdvice    AlertType = "advice"
	AlertTypeReminder  AlertType = "reminder"
	AlertTypeEmergency AlertType = "emergency"
)

// AlertSeverity 告警级别（严格全序：critical > high > medium > low）
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Rank 返回级别的排序权重，用于排序和比较
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Alert 告警（对应 ai_alerts 表）
// 仅由规则评估器创建，仅由生命周期管理器确认，永不删除
type Alert struct {
	AlertID        string        `json:"alert_id" db:"alert_id"`
	SubjectID      string        `json:"subject_id" db:"user_id"`
	Type           AlertType     `json:"alert_type" db:"alert_type"`
	Severity       AlertSeverity `json:"severity" db:"severity"`
	Title          string        `json:"title" db:"title"`
	Message        string        `json:"message" db:"message"`
	Recommendation *string       `json:"recommendation,omitempty" db:"recommendation"`
	SourceRule     string        `json:"source_rule" db:"source_rule"`
	Acknowledged   bool          `json:"acknowledged" db:"acknowledged"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
}
