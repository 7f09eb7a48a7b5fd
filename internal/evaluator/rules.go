package evaluator

import (
	"fmt"
	"strconv"

	"care4mom-insights/internal/models"
)

// Rule 单条告警规则
// 每条规则独立、无副作用，检查最新观察记录（必要时结合当前聚合），
// 命中时产生一个候选告警（不含 ID 和创建时间，由生命周期管理器补全）
type Rule struct {
	Name     string
	Evaluate func(obs *models.Observation, agg *models.Aggregates) *models.Alert
}

// rules 固定规则表，按声明顺序评估
// 同一条观察记录可能命中多条规则，每条规则最多产生一个告警
var rules = []Rule{
	{
		Name:     "high_severity_symptom",
		Evaluate: evalHighSeveritySymptom,
	},
	{
		Name:     "low_mood",
		Evaluate: evalLowMood,
	},
	{
		Name:     "high_anxiety",
		Evaluate: evalHighAnxiety,
	},
	{
		Name:     "abnormal_heart_rate",
		Evaluate: evalAbnormalHeartRate,
	},
	{
		Name:     "elevated_blood_pressure",
		Evaluate: evalElevatedBloodPressure,
	},
	{
		Name:     "low_oxygen",
		Evaluate: evalLowOxygen,
	},
	{
		Name:     "fever",
		Evaluate: evalFever,
	},
	{
		Name:     "mindfulness_suggestion",
		Evaluate: evalMindfulnessSuggestion,
	},
}

// evalHighSeveritySymptom 高严重度症状（severity >= 8）
func evalHighSeveritySymptom(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindSymptom || obs.Symptom == nil {
		return nil
	}
	if obs.Symptom.Severity < 8 {
		return nil
	}

	recommendation := "Consider contacting your healthcare provider if this persists."
	return &models.Alert{
		Type:           models.AlertTypeWarning,
		Severity:       models.SeverityHigh,
		Title:          "High Severity Symptom Alert",
		Message:        fmt.Sprintf("High severity symptom '%s' logged (%d/10).", obs.Symptom.Name, obs.Symptom.Severity),
		Recommendation: &recommendation,
	}
}

// evalLowMood 情绪低落（mood_score <= 3）
func evalLowMood(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindMood || obs.Mood == nil {
		return nil
	}
	if obs.Mood.MoodScore > 3 {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeAdvice,
		Severity: models.SeverityMedium,
		Title:    "Mental Health Check-in",
		Message:  fmt.Sprintf("Low mood detected (%d/10); consider reaching out to your support network.", obs.Mood.MoodScore),
	}
}

// evalHighAnxiety 焦虑偏高（anxiety_level >= 8）
func evalHighAnxiety(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindMood || obs.Mood == nil {
		return nil
	}
	if obs.Mood.AnxietyLevel == nil || *obs.Mood.AnxietyLevel < 8 {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeAdvice,
		Severity: models.SeverityMedium,
		Title:    "Mental Health Check-in",
		Message:  fmt.Sprintf("High anxiety level detected (%d/10); consider mindfulness or contacting your provider.", *obs.Mood.AnxietyLevel),
	}
}

// evalAbnormalHeartRate 心率异常（> 100 或 < 60 bpm）
func evalAbnormalHeartRate(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindVital || obs.Vital == nil {
		return nil
	}
	hr := obs.Vital.HeartRate
	if hr == nil || (*hr >= 60 && *hr <= 100) {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeWarning,
		Severity: models.SeverityMedium,
		Title:    "Vital Signs Alert",
		Message:  fmt.Sprintf("Heart rate of %d bpm is outside normal range (60-100 bpm).", *hr),
	}
}

// evalElevatedBloodPressure 血压偏高（收缩压 > 140 或 舒张压 > 90）
// 与源行为一致：需要收缩压和舒张压同时存在才评估
func evalElevatedBloodPressure(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindVital || obs.Vital == nil {
		return nil
	}
	sys, dia := obs.Vital.BPSystolic, obs.Vital.BPDiastolic
	if sys == nil || dia == nil {
		return nil
	}
	if *sys <= 140 && *dia <= 90 {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeWarning,
		Severity: models.SeverityMedium,
		Title:    "Vital Signs Alert",
		Message:  fmt.Sprintf("Blood pressure %d/%d indicates high blood pressure.", *sys, *dia),
	}
}

// evalLowOxygen 血氧偏低（< 95%）
func evalLowOxygen(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindVital || obs.Vital == nil {
		return nil
	}
	o2 := obs.Vital.OxygenSaturationPct
	if o2 == nil || *o2 >= 95 {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeWarning,
		Severity: models.SeverityMedium,
		Title:    "Vital Signs Alert",
		Message:  fmt.Sprintf("Oxygen saturation of %d%% is below normal (95-100%%).", *o2),
	}
}

// evalFever 发热（体温 > 100.4°F）
func evalFever(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindVital || obs.Vital == nil {
		return nil
	}
	temp := obs.Vital.TemperatureF
	if temp == nil || *temp <= 100.4 {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeWarning,
		Severity: models.SeverityMedium,
		Title:    "Vital Signs Alert",
		Message:  fmt.Sprintf("Temperature of %s°F indicates fever.", strconv.FormatFloat(*temp, 'f', -1, 64)),
	}
}

// evalMindfulnessSuggestion 正念练习建议
// 情绪 <= 5 或焦虑 >= 6 且本条记录未附带正念活动时提示
func evalMindfulnessSuggestion(obs *models.Observation, _ *models.Aggregates) *models.Alert {
	if obs.Kind != models.KindMood || obs.Mood == nil {
		return nil
	}
	if obs.Mood.MindfulnessActivity != "" {
		return nil
	}
	lowMood := obs.Mood.MoodScore <= 5
	highAnxiety := obs.Mood.AnxietyLevel != nil && *obs.Mood.AnxietyLevel >= 6
	if !lowMood && !highAnxiety {
		return nil
	}

	return &models.Alert{
		Type:     models.AlertTypeAdvice,
		Severity: models.SeverityLow,
		Title:    "Mindfulness Suggestion",
		Message:  "Your mood/anxiety levels suggest you might benefit from mindfulness activities. Consider trying deep breathing, meditation, or gentle movement.",
	}
}
