package models

import (
	"time"
)

// ObservationKind 观察记录类型
type ObservationKind string

const (
	KindSymptom    ObservationKind = "symptom"
	KindVital      ObservationKind = "vital"
	KindMood       ObservationKind = "mood"
	KindMedication ObservationKind = "medication"
)

// Observation 单条健康观察记录（对应 symptoms/vitals/mood_logs/medications 表）
// 记录创建后不可变，且只属于一个 subject（患者）
type Observation struct {
	SubjectID  string          `json:"subject_id" db:"user_id"`
	Kind       ObservationKind `json:"kind"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`

	// 按 Kind 填充其中一项
	Symptom    *SymptomPayload    `json:"symptom,omitempty"`
	Vital      *VitalPayload      `json:"vital,omitempty"`
	Mood       *MoodPayload       `json:"mood,omitempty"`
	Medication *MedicationPayload `json:"medication,omitempty"`
}

// SymptomPayload 症状记录
type SymptomPayload struct {
	Name     string `json:"symptom_name" db:"symptom_name"`
	Severity int    `json:"severity" db:"severity"` // 1-10
	Note     string `json:"notes" db:"notes"`
}

// VitalPayload 生命体征记录（所有字段可选，缺失字段不参与聚合）
type VitalPayload struct {
	HeartRate           *int     `json:"heart_rate,omitempty" db:"heart_rate"`
	BPSystolic          *int     `json:"bp_systolic,omitempty" db:"blood_pressure_systolic"`
	BPDiastolic         *int     `json:"bp_diastolic,omitempty" db:"blood_pressure_diastolic"`
	TemperatureF        *float64 `json:"temperature_f,omitempty" db:"temperature"`
	OxygenSaturationPct *int     `json:"oxygen_saturation_pct,omitempty" db:"oxygen_saturation"`
	StepCount           *int     `json:"step_count,omitempty" db:"steps"`
	SleepHours          *float64 `json:"sleep_hours,omitempty" db:"sleep_hours"`
	Weight              *float64 `json:"weight,omitempty" db:"weight"`
}

// MoodPayload 情绪记录
type MoodPayload struct {
	MoodScore           int    `json:"mood_score" db:"mood_score"`                // 1-10
	EnergyLevel         *int   `json:"energy_level,omitempty" db:"energy_level"`  // 1-10，可选
	AnxietyLevel        *int   `json:"anxiety_level,omitempty" db:"anxiety_level"` // 1-10，可选
	Note                string `json:"notes" db:"notes"`
	MindfulnessActivity string `json:"mindfulness_activity,omitempty" db:"mindfulness_activity"`
	ActivityCompleted   bool   `json:"activity_completed" db:"activity_completed"`
}

// MedicationPayload 用药记录（一行 = 一剂，taken 标记是否服用）
type MedicationPayload struct {
	MedicationName string `json:"medication_name" db:"medication_name"`
	Dosage         string `json:"dosage" db:"dosage"`
	Taken          bool   `json:"taken" db:"taken"`
}
