package evaluator

import (
	"care4mom-insights/internal/models"

	"go.uber.org/zap"
)

// Evaluator 告警规则评估器
// 按固定顺序运行规则表，返回候选告警列表；不落库，由调用方决定是否持久化
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator 创建评估器
func NewEvaluator(logger *zap.Logger) *Evaluator {
	return &Evaluator{
		logger: logger,
	}
}

// Evaluate 评估最新观察记录，返回候选告警列表
// 规则相互独立，一条记录可能命中多条规则
func (e *Evaluator) Evaluate(subjectID string, obs *models.Observation, agg *models.Aggregates) []models.Alert {
	var candidates []models.Alert

	for _, rule := range rules {
		alert := rule.Evaluate(obs, agg)
		if alert == nil {
			continue
		}

		alert.SubjectID = subjectID
		alert.SourceRule = rule.Name
		candidates = append(candidates, *alert)

		e.logger.Debug("Alert rule fired",
			zap.String("subject_id", subjectID),
			zap.String("rule", rule.Name),
			zap.String("severity", string(alert.Severity)),
		)
	}

	return candidates
}

// RuleNames 返回规则表中的规则名（按评估顺序）
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		names = append(names, rule.Name)
	}
	return names
}
