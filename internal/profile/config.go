package profile

// Profile is the analytics configuration loaded from YAML
// ⭐ SSOT: 기본 윈도우/무위험수익률/동시성 설정은 여기서만
type Profile struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Returns     Returns     `yaml:"returns" json:"returns"`
	Risk        Risk        `yaml:"risk" json:"risk"`
	Correlation Correlation `yaml:"correlation" json:"correlation"`
	Execution   Execution   `yaml:"execution" json:"execution"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Returns 수익률 계산 기본값
type Returns struct {
	RollingWindowMonths int `yaml:"rolling_window_months" json:"rolling_window_months"`
}

// Risk 리스크 계산 기본값
type Risk struct {
	RiskFreeRatePct float64 `yaml:"risk_free_rate_pct" json:"risk_free_rate_pct"` // 연율 %, 월 환산은 /12
}

// Correlation 상관계수 윈도우 정책
type Correlation struct {
	WindowsMonths       []int `yaml:"windows_months" json:"windows_months"`
	DefaultWindowMonths int   `yaml:"default_window_months" json:"default_window_months"`
	MinOverlap          int   `yaml:"min_overlap" json:"min_overlap"`
}

// AllowsWindow reports whether a correlation window is in the allowed set
func (c Correlation) AllowsWindow(months int) bool {
	for _, w := range c.WindowsMonths {
		if w == months {
			return true
		}
	}
	return false
}

// Execution 다중 펀드 요청 fan-out 설정
type Execution struct {
	Workers int `yaml:"workers" json:"workers"`
}

// Default returns the profile used when no file is configured
func Default() *Profile {
	return &Profile{
		Meta: Meta{
			ProfileID:   "default",
			Version:     "1",
			Description: "Monthly fund analytics defaults",
		},
		Returns: Returns{RollingWindowMonths: 12},
		Risk:    Risk{RiskFreeRatePct: 0},
		Correlation: Correlation{
			WindowsMonths:       []int{36, 60, 120},
			DefaultWindowMonths: 36,
			MinOverlap:          3,
		},
		Execution: Execution{Workers: 4},
	}
}
