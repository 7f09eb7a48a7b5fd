package aggregate

import (
	"context"
	"sort"
	"time"

	"care4mom-insights/internal/config"
	"care4mom-insights/internal/models"
	"care4mom-insights/internal/repository"

	"go.uber.org/zap"
)

// Aggregator 滚动窗口聚合引擎
// 从观察记录仓库读取历史数据，计算计数、平均值、依从率等统计摘要
type Aggregator struct {
	config  *config.Config
	obsRepo repository.ObservationsRepository
	logger  *zap.Logger
}

// NewAggregator 创建聚合引擎
func NewAggregator(
	cfg *config.Config,
	obsRepo repository.ObservationsRepository,
	logger *zap.Logger,
) *Aggregator {
	return &Aggregator{
		config:  cfg,
		obsRepo: obsRepo,
		logger:  logger,
	}
}

// Aggregate 计算某 subject 在 windowDays 窗口内的统计摘要
// 计数为 0 时平均/最值字段保持 nil；依从率 0/0 定义为 0%
func (a *Aggregator) Aggregate(ctx context.Context, subjectID string, windowDays int) (*models.Aggregates, error) {
	if windowDays <= 0 {
		windowDays = a.config.Insights.DefaultWindowDays
	}

	now := time.Now()
	agg := &models.Aggregates{
		SubjectID:       subjectID,
		WindowDays:      windowDays,
		SymptomPatterns: []models.SymptomPattern{},
		PerMedication:   []models.ComplianceRecord{},
		TodayByMed:      []models.TodayMedication{},
		Correlations:    []models.SymptomMoodCorrelation{},
	}

	// 查询窗口取 windowDays 和 7 天窗口的较大者，7 天计数从同一批数据过滤
	queryDays := windowDays
	if queryDays < 7 {
		queryDays = 7
	}
	since := now.AddDate(0, 0, -queryDays)
	windowStart := now.AddDate(0, 0, -windowDays)
	weekStart := now.AddDate(0, 0, -7)

	if err := a.aggregateSymptoms(ctx, agg, subjectID, since, windowStart, weekStart); err != nil {
		return nil, err
	}
	if err := a.aggregateMedications(ctx, agg, subjectID, windowStart, now); err != nil {
		return nil, err
	}
	if err := a.aggregateVitals(ctx, agg, subjectID, since, windowStart, weekStart); err != nil {
		return nil, err
	}
	if err := a.aggregateMoods(ctx, agg, subjectID, windowStart); err != nil {
		return nil, err
	}
	if err := a.aggregateCorrelations(ctx, agg, subjectID, now); err != nil {
		return nil, err
	}

	a.logger.Debug("Aggregates computed",
		zap.String("subject_id", subjectID),
		zap.Int("window_days", windowDays),
		zap.Int("symptom_count", agg.SymptomCount),
		zap.Int("total_doses", agg.TotalDoses),
		zap.Int("mood_count", agg.MoodCount),
	)

	return agg, nil
}

func (a *Aggregator) aggregateSymptoms(ctx context.Context, agg *models.Aggregates, subjectID string, since, windowStart, weekStart time.Time) error {
	symptoms, err := a.obsRepo.QueryObservations(ctx, subjectID, models.KindSymptom, since)
	if err != nil {
		return models.NewRepositoryError("query symptoms", err)
	}

	type patternAcc struct {
		count int
		sum   int
	}
	patterns := map[string]*patternAcc{}
	severitySum := 0

	for _, obs := range symptoms {
		if obs.Symptom == nil {
			continue
		}
		if !obs.RecordedAt.Before(weekStart) {
			agg.SymptomCount7d++
		}
		if obs.RecordedAt.Before(windowStart) {
			continue
		}

		severity := obs.Symptom.Severity
		agg.SymptomCount++
		severitySum += severity

		if agg.MinSeverity == nil || severity < *agg.MinSeverity {
			v := severity
			agg.MinSeverity = &v
		}
		if agg.MaxSeverity == nil || severity > *agg.MaxSeverity {
			v := severity
			agg.MaxSeverity = &v
		}

		acc := patterns[obs.Symptom.Name]
		if acc == nil {
			acc = &patternAcc{}
			patterns[obs.Symptom.Name] = acc
		}
		acc.count++
		acc.sum += severity
	}

	if agg.SymptomCount > 0 {
		avg := float64(severitySum) / float64(agg.SymptomCount)
		agg.AvgSeverity = &avg
	}

	for name, acc := range patterns {
		agg.SymptomPatterns = append(agg.SymptomPatterns, models.SymptomPattern{
			Name:        name,
			Frequency:   acc.count,
			AvgSeverity: float64(acc.sum) / float64(acc.count),
		})
	}
	// 按出现频率降序，同频按名称排序保证稳定输出
	sort.Slice(agg.SymptomPatterns, func(i, j int) bool {
		if agg.SymptomPatterns[i].Frequency != agg.SymptomPatterns[j].Frequency {
			return agg.SymptomPatterns[i].Frequency > agg.SymptomPatterns[j].Frequency
		}
		return agg.SymptomPatterns[i].Name < agg.SymptomPatterns[j].Name
	})

	return nil
}

func (a *Aggregator) aggregateMedications(ctx context.Context, agg *models.Aggregates, subjectID string, windowStart, now time.Time) error {
	meds, err := a.obsRepo.QueryObservations(ctx, subjectID, models.KindMedication, windowStart)
	if err != nil {
		return models.NewRepositoryError("query medications", err)
	}

	type medAcc struct {
		total int
		taken int
	}
	perMed := map[string]*medAcc{}

	type todayAcc struct {
		dosage    string
		total     int
		taken     int
		lastTaken time.Time
	}
	today := map[string]*todayAcc{}

	y, m, d := now.Date()

	for _, obs := range meds {
		if obs.Medication == nil {
			continue
		}

		name := obs.Medication.MedicationName
		agg.TotalDoses++
		acc := perMed[name]
		if acc == nil {
			acc = &medAcc{}
			perMed[name] = acc
		}
		acc.total++
		if obs.Medication.Taken {
			agg.TakenDoses++
			acc.taken++
		}

		// 当日统计（按自然日）
		oy, om, od := obs.RecordedAt.Date()
		if oy == y && om == m && od == d {
			agg.TodayDoses++
			tacc := today[name]
			if tacc == nil {
				tacc = &todayAcc{dosage: obs.Medication.Dosage}
				today[name] = tacc
			}
			tacc.total++
			if obs.Medication.Taken {
				agg.TodayTaken++
				tacc.taken++
			}
			if obs.RecordedAt.After(tacc.lastTaken) {
				tacc.lastTaken = obs.RecordedAt
			}
		}
	}

	// 依从率：0/0 定义为 0%
	agg.OverallCompliance = complianceRate(agg.TakenDoses, agg.TotalDoses)
	agg.TodayCompliance = complianceRate(agg.TodayTaken, agg.TodayDoses)

	for name, acc := range perMed {
		agg.PerMedication = append(agg.PerMedication, models.ComplianceRecord{
			MedicationName: name,
			WindowDays:     agg.WindowDays,
			TotalDoses:     acc.total,
			TakenDoses:     acc.taken,
			ComplianceRate: complianceRate(acc.taken, acc.total),
		})
	}
	// 按依从率降序（med.php 的排序），同率按名称排序
	sort.Slice(agg.PerMedication, func(i, j int) bool {
		if agg.PerMedication[i].ComplianceRate != agg.PerMedication[j].ComplianceRate {
			return agg.PerMedication[i].ComplianceRate > agg.PerMedication[j].ComplianceRate
		}
		return agg.PerMedication[i].MedicationName < agg.PerMedication[j].MedicationName
	})

	for name, acc := range today {
		rec := models.TodayMedication{
			MedicationName: name,
			Dosage:         acc.dosage,
			TotalDoses:     acc.total,
			TakenDoses:     acc.taken,
		}
		if !acc.lastTaken.IsZero() {
			t := acc.lastTaken
			rec.LastTaken = &t
		}
		agg.TodayByMed = append(agg.TodayByMed, rec)
	}
	sort.Slice(agg.TodayByMed, func(i, j int) bool {
		return agg.TodayByMed[i].MedicationName < agg.TodayByMed[j].MedicationName
	})

	return nil
}

func (a *Aggregator) aggregateVitals(ctx context.Context, agg *models.Aggregates, subjectID string, since, windowStart, weekStart time.Time) error {
	vitals, err := a.obsRepo.QueryObservations(ctx, subjectID, models.KindVital, since)
	if err != nil {
		return models.NewRepositoryError("query vitals", err)
	}

	for _, obs := range vitals {
		if !obs.RecordedAt.Before(weekStart) {
			agg.VitalsCount7d++
		}
		if obs.RecordedAt.Before(windowStart) {
			continue
		}
		agg.VitalsCount++
	}

	return nil
}

func (a *Aggregator) aggregateMoods(ctx context.Context, agg *models.Aggregates, subjectID string, windowStart time.Time) error {
	moods, err := a.obsRepo.QueryObservations(ctx, subjectID, models.KindMood, windowStart)
	if err != nil {
		return models.NewRepositoryError("query mood logs", err)
	}

	moodSum := 0
	energySum, energyCount := 0, 0
	anxietySum, anxietyCount := 0, 0

	for _, obs := range moods {
		if obs.Mood == nil {
			continue
		}
		agg.MoodCount++
		moodSum += obs.Mood.MoodScore

		// 可选字段只统计存在的条目
		if obs.Mood.EnergyLevel != nil {
			energySum += *obs.Mood.EnergyLevel
			energyCount++
		}
		if obs.Mood.AnxietyLevel != nil {
			anxietySum += *obs.Mood.AnxietyLevel
			anxietyCount++
		}
	}

	if agg.MoodCount > 0 {
		avg := float64(moodSum) / float64(agg.MoodCount)
		agg.AvgMood = &avg
	}
	if energyCount > 0 {
		avg := float64(energySum) / float64(energyCount)
		agg.AvgEnergy = &avg
	}
	if anxietyCount > 0 {
		avg := float64(anxietySum) / float64(anxietyCount)
		agg.AvgAnxiety = &avg
	}

	return nil
}

// aggregateCorrelations 症状与同日情绪的关联（固定 14 天窗口，最多 N 条）
func (a *Aggregator) aggregateCorrelations(ctx context.Context, agg *models.Aggregates, subjectID string, now time.Time) error {
	since := now.AddDate(0, 0, -a.config.Insights.CorrelationWindowDays)

	symptoms, err := a.obsRepo.QueryObservations(ctx, subjectID, models.KindSymptom, since)
	if err != nil {
		return models.NewRepositoryError("query correlation symptoms", err)
	}
	moods, err := a.obsRepo.QueryObservations(ctx, subjectID, models.KindMood, since)
	if err != nil {
		return models.NewRepositoryError("query correlation moods", err)
	}

	// 症状按时间倒序，逐条配对同一自然日的情绪记录
	limit := a.config.Insights.CorrelationLimit
	for _, sym := range symptoms {
		if sym.Symptom == nil {
			continue
		}
		if limit > 0 && len(agg.Correlations) >= limit {
			break
		}

		corr := models.SymptomMoodCorrelation{
			SymptomName: sym.Symptom.Name,
			Severity:    sym.Symptom.Severity,
			SymptomAt:   sym.RecordedAt,
		}

		sy, sm, sd := sym.RecordedAt.Date()
		for _, mood := range moods {
			if mood.Mood == nil {
				continue
			}
			my, mm, md := mood.RecordedAt.Date()
			if my == sy && mm == sm && md == sd {
				score := mood.Mood.MoodScore
				at := mood.RecordedAt
				corr.MoodScore = &score
				corr.MoodAt = &at
				break
			}
		}

		agg.Correlations = append(agg.Correlations, corr)
	}

	return nil
}

// complianceRate 依从率（百分比）；总数为 0 时为 0
func complianceRate(taken, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(taken) / float64(total) * 100
}
