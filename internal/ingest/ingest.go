package ingest

import (
	"time"

	"care4mom-insights/internal/models"
)

// Ingest 校验并归一化一条观察记录
// 校验失败返回 ValidationError（拒绝而不是截断）；成功时补全缺省时间戳
// 不产生任何副作用，落库由调用方通过 Repository 完成
func Ingest(subjectID string, obs models.Observation) (models.Observation, error) {
	if subjectID == "" {
		return models.Observation{}, models.NewValidationError("subject_id", "is required")
	}

	obs.SubjectID = subjectID

	// 时间戳缺省为录入时间
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = time.Now()
	}

	switch obs.Kind {
	case models.KindSymptom:
		if err := validateSymptom(obs.Symptom); err != nil {
			return models.Observation{}, err
		}
	case models.KindVital:
		if err := validateVital(obs.Vital); err != nil {
			return models.Observation{}, err
		}
	case models.KindMood:
		if err := validateMood(obs.Mood); err != nil {
			return models.Observation{}, err
		}
	case models.KindMedication:
		if err := validateMedication(obs.Medication); err != nil {
			return models.Observation{}, err
		}
	default:
		return models.Observation{}, models.NewValidationError("kind", "unknown observation kind")
	}

	return obs, nil
}

func validateSymptom(p *models.SymptomPayload) error {
	if p == nil {
		return models.NewValidationError("symptom", "payload is required")
	}
	if p.Name == "" {
		return models.NewValidationError("symptom_name", "is required")
	}
	if p.Severity < 1 || p.Severity > 10 {
		return models.NewValidationError("severity", "must be between 1 and 10")
	}
	return nil
}

func validateVital(p *models.VitalPayload) error {
	if p == nil {
		return models.NewValidationError("vital", "payload is required")
	}
	if p.HeartRate != nil && (*p.HeartRate < 30 || *p.HeartRate > 220) {
		return models.NewValidationError("heart_rate", "must be between 30 and 220 bpm")
	}
	if p.BPSystolic != nil && (*p.BPSystolic < 70 || *p.BPSystolic > 250) {
		return models.NewValidationError("bp_systolic", "must be between 70 and 250")
	}
	if p.BPDiastolic != nil && (*p.BPDiastolic < 40 || *p.BPDiastolic > 150) {
		return models.NewValidationError("bp_diastolic", "must be between 40 and 150")
	}
	if p.TemperatureF != nil && (*p.TemperatureF < 95 || *p.TemperatureF > 110) {
		return models.NewValidationError("temperature_f", "must be between 95°F and 110°F")
	}
	if p.OxygenSaturationPct != nil && (*p.OxygenSaturationPct < 70 || *p.OxygenSaturationPct > 100) {
		return models.NewValidationError("oxygen_saturation_pct", "must be between 70% and 100%")
	}
	if p.StepCount != nil && *p.StepCount < 0 {
		return models.NewValidationError("step_count", "must be >= 0")
	}
	if p.SleepHours != nil && *p.SleepHours < 0 {
		return models.NewValidationError("sleep_hours", "must be >= 0")
	}
	return nil
}

func validateMood(p *models.MoodPayload) error {
	if p == nil {
		return models.NewValidationError("mood", "payload is required")
	}
	if p.MoodScore < 1 || p.MoodScore > 10 {
		return models.NewValidationError("mood_score", "must be between 1 and 10")
	}
	if p.EnergyLevel != nil && (*p.EnergyLevel < 1 || *p.EnergyLevel > 10) {
		return models.NewValidationError("energy_level", "must be between 1 and 10")
	}
	if p.AnxietyLevel != nil && (*p.AnxietyLevel < 1 || *p.AnxietyLevel > 10) {
		return models.NewValidationError("anxiety_level", "must be between 1 and 10")
	}
	return nil
}

func validateMedication(p *models.MedicationPayload) error {
	if p == nil {
		return models.NewValidationError("medication", "payload is required")
	}
	if p.MedicationName == "" {
		return models.NewValidationError("medication_name", "is required")
	}
	return nil
}
