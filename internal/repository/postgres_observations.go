package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"care4mom-insights/internal/models"

	"go.uber.org/zap"
)

// PostgresObservationsRepository 观察记录仓库
// 按 Kind 分表存储，与 Web 端共用 symptoms/vitals/mood_logs/medications 表
type PostgresObservationsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresObservationsRepository 创建观察记录仓库
func NewPostgresObservationsRepository(db *sql.DB, logger *zap.Logger) *PostgresObservationsRepository {
	return &PostgresObservationsRepository{
		db:     db,
		logger: logger,
	}
}

// SaveObservation 保存一条观察记录
func (r *PostgresObservationsRepository) SaveObservation(ctx context.Context, obs *models.Observation) error {
	if obs == nil {
		return fmt.Errorf("observation is required")
	}
	if obs.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}

	switch obs.Kind {
	case models.KindSymptom:
		return r.saveSymptom(ctx, obs)
	case models.KindVital:
		return r.saveVital(ctx, obs)
	case models.KindMood:
		return r.saveMood(ctx, obs)
	case models.KindMedication:
		return r.saveMedication(ctx, obs)
	default:
		return fmt.Errorf("unknown observation kind: %s", obs.Kind)
	}
}

func (r *PostgresObservationsRepository) saveSymptom(ctx context.Context, obs *models.Observation) error {
	if obs.Symptom == nil {
		return fmt.Errorf("symptom payload is required")
	}

	query := `
		INSERT INTO symptoms (user_id, symptom_name, severity, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		obs.SubjectID,
		obs.Symptom.Name,
		obs.Symptom.Severity,
		obs.Symptom.Note,
		obs.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save symptom: %w", err)
	}

	return nil
}

func (r *PostgresObservationsRepository) saveVital(ctx context.Context, obs *models.Observation) error {
	if obs.Vital == nil {
		return fmt.Errorf("vital payload is required")
	}

	query := `
		INSERT INTO vitals (
			user_id, heart_rate, blood_pressure_systolic, blood_pressure_diastolic,
			temperature, oxygen_saturation, steps, sleep_hours, weight, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		obs.SubjectID,
		obs.Vital.HeartRate,
		obs.Vital.BPSystolic,
		obs.Vital.BPDiastolic,
		obs.Vital.TemperatureF,
		obs.Vital.OxygenSaturationPct,
		obs.Vital.StepCount,
		obs.Vital.SleepHours,
		obs.Vital.Weight,
		obs.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save vital: %w", err)
	}

	return nil
}

func (r *PostgresObservationsRepository) saveMood(ctx context.Context, obs *models.Observation) error {
	if obs.Mood == nil {
		return fmt.Errorf("mood payload is required")
	}

	query := `
		INSERT INTO mood_logs (
			user_id, mood_score, energy_level, anxiety_level, notes,
			mindfulness_activity, activity_completed, logged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		obs.SubjectID,
		obs.Mood.MoodScore,
		obs.Mood.EnergyLevel,
		obs.Mood.AnxietyLevel,
		obs.Mood.Note,
		obs.Mood.MindfulnessActivity,
		obs.Mood.ActivityCompleted,
		obs.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save mood: %w", err)
	}

	return nil
}

func (r *PostgresObservationsRepository) saveMedication(ctx context.Context, obs *models.Observation) error {
	if obs.Medication == nil {
		return fmt.Errorf("medication payload is required")
	}

	query := `
		INSERT INTO medications (user_id, medication_name, dosage, taken, taken_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		obs.SubjectID,
		obs.Medication.MedicationName,
		obs.Medication.Dosage,
		obs.Medication.Taken,
		obs.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save medication: %w", err)
	}

	return nil
}

// QueryObservations 查询某 subject 自 since 以来的某类观察记录，按时间倒序
func (r *PostgresObservationsRepository) QueryObservations(ctx context.Context, subjectID string, kind models.ObservationKind, since time.Time) ([]models.Observation, error) {
	if subjectID == "" {
		return []models.Observation{}, nil
	}

	switch kind {
	case models.KindSymptom:
		return r.querySymptoms(ctx, subjectID, since)
	case models.KindVital:
		return r.queryVitals(ctx, subjectID, since)
	case models.KindMood:
		return r.queryMoods(ctx, subjectID, since)
	case models.KindMedication:
		return r.queryMedications(ctx, subjectID, since)
	default:
		return nil, fmt.Errorf("unknown observation kind: %s", kind)
	}
}

func (r *PostgresObservationsRepository) querySymptoms(ctx context.Context, subjectID string, since time.Time) ([]models.Observation, error) {
	query := `
		SELECT symptom_name, severity, notes, logged_at
		FROM symptoms
		WHERE user_id = $1
		  AND logged_at >= $2
		ORDER BY logged_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	defer rows.Close()

	obs := []models.Observation{}
	for rows.Next() {
		var o models.Observation
		var p models.SymptomPayload
		var note sql.NullString

		if err := rows.Scan(&p.Name, &p.Severity, &note, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan symptom: %w", err)
		}
		if note.Valid {
			p.Note = note.String
		}

		o.SubjectID = subjectID
		o.Kind = models.KindSymptom
		o.Symptom = &p
		obs = append(obs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symptoms: %w", err)
	}

	return obs, nil
}

func (r *PostgresObservationsRepository) queryVitals(ctx context.Context, subjectID string, since time.Time) ([]models.Observation, error) {
	query := `
		SELECT heart_rate, blood_pressure_systolic, blood_pressure_diastolic,
		       temperature, oxygen_saturation, steps, sleep_hours, weight, recorded_at
		FROM vitals
		WHERE user_id = $1
		  AND recorded_at >= $2
		ORDER BY recorded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query vitals: %w", err)
	}
	defer rows.Close()

	obs := []models.Observation{}
	for rows.Next() {
		var o models.Observation
		var p models.VitalPayload
		var heartRate, bpSys, bpDia, oxygen, steps sql.NullInt64
		var temperature, sleepHours, weight sql.NullFloat64

		err := rows.Scan(
			&heartRate,
			&bpSys,
			&bpDia,
			&temperature,
			&oxygen,
			&steps,
			&sleepHours,
			&weight,
			&o.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vital: %w", err)
		}

		// 处理可空字段（缺失字段保持 nil，不参与聚合）
		if heartRate.Valid {
			v := int(heartRate.Int64)
			p.HeartRate = &v
		}
		if bpSys.Valid {
			v := int(bpSys.Int64)
			p.BPSystolic = &v
		}
		if bpDia.Valid {
			v := int(bpDia.Int64)
			p.BPDiastolic = &v
		}
		if temperature.Valid {
			v := temperature.Float64
			p.TemperatureF = &v
		}
		if oxygen.Valid {
			v := int(oxygen.Int64)
			p.OxygenSaturationPct = &v
		}
		if steps.Valid {
			v := int(steps.Int64)
			p.StepCount = &v
		}
		if sleepHours.Valid {
			v := sleepHours.Float64
			p.SleepHours = &v
		}
		if weight.Valid {
			v := weight.Float64
			p.Weight = &v
		}

		o.SubjectID = subjectID
		o.Kind = models.KindVital
		o.Vital = &p
		obs = append(obs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vitals: %w", err)
	}

	return obs, nil
}

func (r *PostgresObservationsRepository) queryMoods(ctx context.Context, subjectID string, since time.Time) ([]models.Observation, error) {
	query := `
		SELECT mood_score, energy_level, anxiety_level, notes,
		       mindfulness_activity, activity_completed, logged_at
		FROM mood_logs
		WHERE user_id = $1
		  AND logged_at >= $2
		ORDER BY logged_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood logs: %w", err)
	}
	defer rows.Close()

	obs := []models.Observation{}
	for rows.Next() {
		var o models.Observation
		var p models.MoodPayload
		var energy, anxiety sql.NullInt64
		var note, activity sql.NullString

		err := rows.Scan(
			&p.MoodScore,
			&energy,
			&anxiety,
			&note,
			&activity,
			&p.ActivityCompleted,
			&o.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mood log: %w", err)
		}

		if energy.Valid {
			v := int(energy.Int64)
			p.EnergyLevel = &v
		}
		if anxiety.Valid {
			v := int(anxiety.Int64)
			p.AnxietyLevel = &v
		}
		if note.Valid {
			p.Note = note.String
		}
		if activity.Valid {
			p.MindfulnessActivity = activity.String
		}

		o.SubjectID = subjectID
		o.Kind = models.KindMood
		o.Mood = &p
		obs = append(obs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mood logs: %w", err)
	}

	return obs, nil
}

func (r *PostgresObservationsRepository) queryMedications(ctx context.Context, subjectID string, since time.Time) ([]models.Observation, error) {
	query := `
		SELECT medication_name, dosage, taken, taken_at
		FROM medications
		WHERE user_id = $1
		  AND taken_at >= $2
		ORDER BY taken_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	obs := []models.Observation{}
	for rows.Next() {
		var o models.Observation
		var p models.MedicationPayload
		var dosage sql.NullString

		if err := rows.Scan(&p.MedicationName, &dosage, &p.Taken, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		if dosage.Valid {
			p.Dosage = dosage.String
		}

		o.SubjectID = subjectID
		o.Kind = models.KindMedication
		o.Medication = &p
		obs = append(obs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medications: %w", err)
	}

	return obs, nil
}
