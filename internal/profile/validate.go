package profile

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Returns ===
	if p.Returns.RollingWindowMonths <= 0 {
		return ValidationError{"returns.rolling_window_months", "must be > 0"}
	}

	// === Risk ===
	rf := p.Risk.RiskFreeRatePct
	if math.IsNaN(rf) || math.IsInf(rf, 0) {
		return ValidationError{"risk.risk_free_rate_pct", "must be finite"}
	}

	// === Correlation ===
	c := p.Correlation
	if len(c.WindowsMonths) == 0 {
		return ValidationError{"correlation.windows_months", "required"}
	}
	seen := make(map[int]bool, len(c.WindowsMonths))
	for i, w := range c.WindowsMonths {
		if w <= 0 {
			return ValidationError{
				Field:   fmt.Sprintf("correlation.windows_months[%d]", i),
				Message: "must be > 0",
			}
		}
		if seen[w] {
			return ValidationError{
				Field:   fmt.Sprintf("correlation.windows_months[%d]", i),
				Message: fmt.Sprintf("duplicate window %d", w),
			}
		}
		seen[w] = true
	}
	if !c.AllowsWindow(c.DefaultWindowMonths) {
		return ValidationError{"correlation.default_window_months",
			fmt.Sprintf("%d is not in windows_months", c.DefaultWindowMonths)}
	}
	if c.MinOverlap < 3 {
		// 2개 점의 상관계수는 항상 ±1
		return ValidationError{"correlation.min_overlap", "must be >= 3"}
	}

	// === Execution ===
	if p.Execution.Workers < 1 {
		return ValidationError{"execution.workers", "must be >= 1"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	if p.Risk.RiskFreeRatePct < 0 || p.Risk.RiskFreeRatePct > 20 {
		warnings = append(warnings, Warning{
			Code:    "UNUSUAL_RISK_FREE_RATE",
			Message: fmt.Sprintf("risk_free_rate_pct=%.2f: 연율 %% 단위인지 확인", p.Risk.RiskFreeRatePct),
		})
	}

	for _, w := range p.Correlation.WindowsMonths {
		if w < p.Correlation.MinOverlap {
			warnings = append(warnings, Warning{
				Code:    "WINDOW_BELOW_OVERLAP",
				Message: fmt.Sprintf("window %d < min_overlap %d: 상관계수 항상 null", w, p.Correlation.MinOverlap),
			})
		}
	}

	if p.Execution.Workers > 64 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_WORKERS",
			Message: "workers > 64: 순수 계산이므로 CPU 수 이상은 효과 없음",
		})
	}

	return warnings
}
