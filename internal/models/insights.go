package models

import (
	"time"
)

// RecommendationPriority 建议优先级（high > medium > low）
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// Rank 返回优先级排序权重
func (p RecommendationPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Recommendation 建议（派生数据，每次请求重新计算，不落库）
type Recommendation struct {
	Type            string                 `json:"type"`
	Priority        RecommendationPriority `json:"priority"`
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	SuggestedAction string                 `json:"action"`
}

// ComplianceRecord 单个药品的依从率（派生数据，不落库）
// ComplianceRate = TakenDoses/TotalDoses × 100；TotalDoses 为 0 时为 0
type ComplianceRecord struct {
	MedicationName string  `json:"medication_name"`
	WindowDays     int     `json:"window_days"`
	TotalDoses     int     `json:"total_doses"`
	TakenDoses     int     `json:"taken_doses"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// TodayMedication 当日单个药品的服药情况（med.php 当日统计）
type TodayMedication struct {
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage"`
	TotalDoses     int        `json:"total_doses"`
	TakenDoses     int        `json:"taken_doses"`
	LastTaken      *time.Time `json:"last_taken,omitempty"`
}

// SymptomPattern 按症状名分组的出现频率和平均严重度
type SymptomPattern struct {
	Name        string  `json:"symptom_name"`
	Frequency   int     `json:"frequency"`
	AvgSeverity float64 `json:"avg_severity"`
}

// SymptomMoodCorrelation 症状与同日情绪的关联（简化分析）
type SymptomMoodCorrelation struct {
	SymptomName string    `json:"symptom_name"`
	Severity    int       `json:"severity"`
	SymptomAt   time.Time `json:"symptom_date"`
	MoodScore   *int      `json:"mood_score,omitempty"`
	MoodAt      *time.Time `json:"mood_date,omitempty"`
}

// Aggregates 滚动窗口统计摘要
// 平均值均为算术平均；计数为 0 时对应平均/最值字段缺失（nil），而不是 0，
// 调用方使用前必须检查计数。依从率是唯一例外：0/0 定义为 0%
type Aggregates struct {
	SubjectID  string `json:"subject_id"`
	WindowDays int    `json:"window_days"`

	// 症状
	SymptomCount    int              `json:"symptom_count"`
	AvgSeverity     *float64         `json:"avg_severity,omitempty"`
	MinSeverity     *int             `json:"min_severity,omitempty"`
	MaxSeverity     *int             `json:"max_severity,omitempty"`
	SymptomPatterns []SymptomPattern `json:"symptom_patterns"`

	// 7 天窗口计数（建议规则使用）
	SymptomCount7d int `json:"symptom_count_7d"`
	VitalsCount7d  int `json:"vitals_count_7d"`

	// 用药依从
	TotalDoses        int                `json:"total_doses"`
	TakenDoses        int                `json:"taken_doses"`
	OverallCompliance float64            `json:"overall_compliance"`
	PerMedication     []ComplianceRecord `json:"per_medication"`

	// 当日依从（仪表盘百分比）
	TodayDoses      int               `json:"today_doses"`
	TodayTaken      int               `json:"today_taken"`
	TodayCompliance float64           `json:"today_compliance"`
	TodayByMed      []TodayMedication `json:"today_by_medication"`

	// 生命体征
	VitalsCount int `json:"vitals_count"`

	// 情绪（各平均值只统计字段存在的条目）
	MoodCount  int      `json:"mood_count"`
	AvgMood    *float64 `json:"avg_mood,omitempty"`
	AvgEnergy  *float64 `json:"avg_energy,omitempty"`
	AvgAnxiety *float64 `json:"avg_anxiety,omitempty"`

	// 症状-情绪同日关联（14 天窗口，最多 10 条）
	Correlations []SymptomMoodCorrelation `json:"correlations"`
}
