package pipeline

import (
	"strings"

	"github.com/sells-group/scout-cli/internal/model"
)

// RiskPass checks the full payload text against the active compliance
// filters and decides whether pass 7 may run. A block here is a policy
// outcome, not a failure: the job terminates as blocked and is never
// retried.
func RiskPass(rawText string, filters []model.FilterRule) (*RiskResult, error) {
	lower := strings.ToLower(rawText)

	var violations []Violation
	blocking := false
	for _, rule := range filters {
		if !rule.Active {
			continue
		}
		for _, pattern := range rule.Patterns {
			if pattern == "" || !strings.Contains(lower, strings.ToLower(pattern)) {
				continue
			}
			violations = append(violations, Violation{
				RuleName: rule.Name,
				Type:     rule.FilterType,
				Severity: rule.Severity,
				Pattern:  pattern,
			})
			if rule.Severity == model.SeverityHigh || rule.Severity == model.SeverityCritical {
				blocking = true
			}
		}
	}

	return &RiskResult{
		Violations:    violations,
		IsCompliant:   len(violations) == 0,
		RiskLevel:     riskLevel(violations),
		ShouldProceed: !blocking,
	}, nil
}

func riskLevel(violations []Violation) string {
	worst := ""
	rank := func(s model.FilterSeverity) int {
		switch s {
		case model.SeverityCritical:
			return 4
		case model.SeverityHigh:
			return 3
		case model.SeverityMedium:
			return 2
		case model.SeverityLow:
			return 1
		}
		return 0
	}
	worstRank := 0
	for _, v := range violations {
		if r := rank(v.Severity); r > worstRank {
			worstRank = r
			worst = string(v.Severity)
		}
	}
	if worstRank == 0 {
		return "none"
	}
	return worst
}
