package metrics

import (
	"github.com/wonny/fundscope/internal/contracts"
)

// RiskRequest parameterizes risk operations
// RiskFreeRate=nil 이면 프로파일 기본값 사용
type RiskRequest struct {
	Range        contracts.DateRange
	RiskFreeRate *float64
}

// ReportRequest parameterizes the one-shot fund report
type ReportRequest struct {
	Range               contracts.DateRange
	RiskFreeRate        *float64
	RollingWindowMonths *int // nil = 프로파일 기본값
}

// FundPerformance is the standard period set for one fund
type FundPerformance struct {
	FundID        int64                                     `json:"fund_id"`
	FundName      string                                    `json:"fund_name"`
	AsOfDate      *contracts.Date                           `json:"as_of_date"`
	InceptionDate *contracts.Date                           `json:"inception_date"`
	Periods       contracts.PeriodReturnSet                 `json:"periods"`
	Returns       map[contracts.PeriodLabel]*float64        `json:"returns"`
	Basis         map[contracts.PeriodLabel]contracts.Basis `json:"basis"`
}

// FundCalendarYears is the calendar-year breakdown for one fund
type FundCalendarYears struct {
	FundID   int64                          `json:"fund_id"`
	FundName string                         `json:"fund_name"`
	Years    []contracts.CalendarYearReturn `json:"calendar_years"`
}

// FundReturns is the monthly series with running cumulative return
type FundReturns struct {
	FundID     int64                         `json:"fund_id"`
	FundName   string                        `json:"fund_name"`
	Monthly    []contracts.ReturnObservation `json:"monthly_returns"`
	Cumulative []contracts.CumulativePoint   `json:"cumulative_returns"`
}

// FundRisk is the risk profile for one fund
type FundRisk struct {
	FundID    int64           `json:"fund_id"`
	FundName  string          `json:"fund_name"`
	StartDate *contracts.Date `json:"start_date"`
	EndDate   *contracts.Date `json:"end_date"`
	contracts.RiskProfile
}

// FundDrawdown is the drawdown series plus the worst episode
type FundDrawdown struct {
	FundID   int64                     `json:"fund_id"`
	FundName string                    `json:"fund_name"`
	Series   []contracts.DrawdownPoint `json:"drawdown_series"`
	Event    *contracts.DrawdownEvent  `json:"max_drawdown"`
}

// FundRolling is one fund's rolling return line
type FundRolling struct {
	FundID   int64                    `json:"fund_id"`
	FundName string                   `json:"fund_name"`
	Points   []contracts.RollingPoint `json:"rolling_returns"`
}

// FundReport bundles every single-fund analytic in one response
type FundReport struct {
	Fund          *contracts.Fund                `json:"fund"`
	Performance   FundPerformance                `json:"performance"`
	CalendarYears []contracts.CalendarYearReturn `json:"calendar_years"`
	Risk          FundRisk                       `json:"risk"`
	Drawdown      FundDrawdown                   `json:"drawdown"`
	Rolling       FundRolling                    `json:"rolling"`
	Cumulative    []contracts.CumulativePoint    `json:"cumulative_returns"`
}

// AlignedReturns is one fund's monthly returns on the shared date grid
type AlignedReturns struct {
	FundID   int64      `json:"fund_id"`
	FundName string     `json:"fund_name"`
	Returns  []*float64 `json:"returns"` // nil = 해당 월 관측 없음
}

// CompareResult is the multi-fund performance comparison
type CompareResult struct {
	Funds    []FundPerformance       `json:"funds"`
	Failures []contracts.FundFailure `json:"failures"`
}

// MultipleReturnsResult aligns several funds onto the union of their dates
type MultipleReturnsResult struct {
	Dates    []contracts.Date        `json:"dates"`
	Funds    []AlignedReturns        `json:"funds"`
	Failures []contracts.FundFailure `json:"failures"`
}

// RollingResult is the multi-fund rolling return comparison
type RollingResult struct {
	WindowMonths int                     `json:"window_months"`
	Funds        []FundRolling           `json:"funds"`
	Failures     []contracts.FundFailure `json:"failures"`
}

// BatchRiskResult is the multi-fund risk comparison
type BatchRiskResult struct {
	Funds    []FundRisk              `json:"funds"`
	Failures []contracts.FundFailure `json:"failures"`
}

// FundRef maps a matrix label back to its fund
type FundRef struct {
	FundID int64  `json:"fund_id"`
	Label  string `json:"label"`
}

// CorrelationResult is the pairwise matrix plus the funds it covers
type CorrelationResult struct {
	contracts.CorrelationMatrix
	Funds    []FundRef               `json:"funds"`
	Failures []contracts.FundFailure `json:"failures"`
}
