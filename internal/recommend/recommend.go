package recommend

import (
	"fmt"
	"sort"

	"care4mom-insights/internal/models"

	"go.uber.org/zap"
)

// recommendationRule 单条建议规则
// 每条规则独立检查当前聚合，最多产生一条建议
type recommendationRule struct {
	Name     string
	Evaluate func(agg *models.Aggregates) *models.Recommendation
}

// recommendationRules 固定规则表，按声明顺序评估
// 同级建议保持声明顺序输出
var recommendationRules = []recommendationRule{
	{
		Name:     "medication_compliance",
		Evaluate: recommendCompliance,
	},
	{
		Name:     "symptom_severity",
		Evaluate: recommendSymptomSeverity,
	},
	{
		Name:     "mental_health",
		Evaluate: recommendMentalHealth,
	},
	{
		Name:     "frequent_symptoms",
		Evaluate: recommendFrequentSymptoms,
	},
	{
		Name:     "track_vitals",
		Evaluate: recommendTrackVitals,
	},
}

// Ranker 建议排序器
// 每次调用基于当前聚合重新计算，不落库（与告警不同）
type Ranker struct {
	logger *zap.Logger
}

// NewRanker 创建建议排序器
func NewRanker(logger *zap.Logger) *Ranker {
	return &Ranker{
		logger: logger,
	}
}

// Recommend 根据当前聚合生成按优先级排序的建议列表
// 优先级降序（high > medium > low），同级保持规则声明顺序
func (r *Ranker) Recommend(agg *models.Aggregates) []models.Recommendation {
	recommendations := []models.Recommendation{}

	for _, rule := range recommendationRules {
		rec := rule.Evaluate(agg)
		if rec == nil {
			continue
		}
		recommendations = append(recommendations, *rec)

		r.logger.Debug("Recommendation rule fired",
			zap.String("subject_id", agg.SubjectID),
			zap.String("rule", rule.Name),
			zap.String("priority", string(rec.Priority)),
		)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority.Rank() > recommendations[j].Priority.Rank()
	})

	return recommendations
}

// recommendCompliance 服药依从率不足 80%
func recommendCompliance(agg *models.Aggregates) *models.Recommendation {
	if agg.OverallCompliance >= 80 {
		return nil
	}

	return &models.Recommendation{
		Type:            "medication",
		Priority:        models.PriorityHigh,
		Title:           "Improve Medication Compliance",
		Message:         fmt.Sprintf("Your medication compliance is %.0f%%. Consider setting reminders or using a pill organizer to improve adherence.", agg.OverallCompliance),
		SuggestedAction: "Set up medication reminders",
	}
}

// recommendSymptomSeverity 平均症状严重度超过 6（须有症状记录）
func recommendSymptomSeverity(agg *models.Aggregates) *models.Recommendation {
	if agg.SymptomCount == 0 || agg.AvgSeverity == nil || *agg.AvgSeverity <= 6 {
		return nil
	}

	return &models.Recommendation{
		Type:            "symptom",
		Priority:        models.PriorityHigh,
		Title:           "High Symptom Severity",
		Message:         fmt.Sprintf("Your average symptom severity is %.1f/10. Consider discussing pain management with your healthcare team.", *agg.AvgSeverity),
		SuggestedAction: "Contact your doctor",
	}
}

// recommendMentalHealth 平均情绪低于 5（须有情绪记录）
func recommendMentalHealth(agg *models.Aggregates) *models.Recommendation {
	if agg.MoodCount == 0 || agg.AvgMood == nil || *agg.AvgMood >= 5 {
		return nil
	}

	return &models.Recommendation{
		Type:            "mood",
		Priority:        models.PriorityMedium,
		Title:           "Mental Health Support",
		Message:         "Your mood has been lower than usual. Consider practicing mindfulness exercises or reaching out to a counselor.",
		SuggestedAction: "Try mindfulness activities",
	}
}

// recommendFrequentSymptoms 7 天症状记录超过 10 条
func recommendFrequentSymptoms(agg *models.Aggregates) *models.Recommendation {
	if agg.SymptomCount7d <= 10 {
		return nil
	}

	return &models.Recommendation{
		Type:            "wellness",
		Priority:        models.PriorityMedium,
		Title:           "Frequent Symptoms",
		Message:         fmt.Sprintf("You've logged %d symptoms this week. Consider tracking triggers and discussing patterns with your doctor.", agg.SymptomCount7d),
		SuggestedAction: "Review symptom patterns",
	}
}

// recommendTrackVitals 7 天内没有体征记录
func recommendTrackVitals(agg *models.Aggregates) *models.Recommendation {
	if agg.VitalsCount7d > 0 {
		return nil
	}

	return &models.Recommendation{
		Type:            "vitals",
		Priority:        models.PriorityLow,
		Title:           "Track Your Vitals",
		Message:         "Regular vital sign monitoring can help detect health changes early. Consider recording your vitals weekly.",
		SuggestedAction: "Record vitals",
	}
}
