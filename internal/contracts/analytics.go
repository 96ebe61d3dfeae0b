package contracts

// Basis tells the caller how a period return is expressed
type Basis string

const (
	BasisCumulative Basis = "cumulative"
	BasisAnnualized Basis = "annualized"
)

// PeriodLabel is one of the canonical performance periods
type PeriodLabel string

const (
	Period1M  PeriodLabel = "1M"
	Period3M  PeriodLabel = "3M"
	Period6M  PeriodLabel = "6M"
	PeriodYTD PeriodLabel = "YTD"
	Period1Y  PeriodLabel = "1Y"
	Period3Y  PeriodLabel = "3Y"
	Period5Y  PeriodLabel = "5Y"
	Period10Y PeriodLabel = "10Y"
	PeriodITD PeriodLabel = "ITD"
)

// PeriodReturn is a single entry of a PeriodReturnSet
// Months=0 은 달력 기준(YTD) 또는 전체 기간(ITD)
type PeriodReturn struct {
	Label  PeriodLabel `json:"label"`
	Months int         `json:"months"`
	Basis  Basis       `json:"basis"`
	Value  *float64    `json:"value"`
}

// PeriodReturnSet is ordered by the canonical label sequence
type PeriodReturnSet []PeriodReturn

// Get looks up a label
func (s PeriodReturnSet) Get(label PeriodLabel) (PeriodReturn, bool) {
	for _, p := range s {
		if p.Label == label {
			return p, true
		}
	}
	return PeriodReturn{}, false
}

// Values returns label → value; every label is present, unavailable ones map to nil
func (s PeriodReturnSet) Values() map[PeriodLabel]*float64 {
	out := make(map[PeriodLabel]*float64, len(s))
	for _, p := range s {
		out[p.Label] = p.Value
	}
	return out
}

// Bases returns label → basis
func (s PeriodReturnSet) Bases() map[PeriodLabel]Basis {
	out := make(map[PeriodLabel]Basis, len(s))
	for _, p := range s {
		out[p.Label] = p.Basis
	}
	return out
}

// CalendarYearReturn is the cumulative return of the months present in a year
type CalendarYearReturn struct {
	Year      int      `json:"year"`
	ReturnPct *float64 `json:"return"`
	Months    int      `json:"months"` // 12 미만이면 부분 연도
}

// IsPartial reports whether fewer than 12 months were observed
func (c CalendarYearReturn) IsPartial() bool {
	return c.Months < 12
}

// RollingPoint is the annualized return of the trailing window ending at Date
type RollingPoint struct {
	Date      Date     `json:"date"`
	ReturnPct *float64 `json:"rolling_return"`
}

// CumulativePoint pairs a monthly return with the running compounded return
type CumulativePoint struct {
	Date             Date    `json:"date"`
	MonthlyReturn    float64 `json:"monthly_return"`
	CumulativeReturn float64 `json:"cumulative_return"`
}

// DrawdownPoint is the decline from the running maximum at Date (always <= 0)
type DrawdownPoint struct {
	Date        Date    `json:"date"`
	DrawdownPct float64 `json:"drawdown"`
}

// DrawdownEvent describes the single worst drawdown episode
// RecoveryDate=nil 이면 아직 회복하지 못한 낙폭
type DrawdownEvent struct {
	MaxDrawdownPct float64 `json:"max_drawdown"`
	PeakDate       *Date   `json:"peak_date"`
	TroughDate     *Date   `json:"trough_date"`
	RecoveryDate   *Date   `json:"recovery_date"`
	DurationMonths int     `json:"duration_months"`
}

// Recovered reports whether the episode closed before the series ended
func (e DrawdownEvent) Recovered() bool {
	return e.RecoveryDate != nil
}

// RiskProfile is the full set of risk statistics for one slice
type RiskProfile struct {
	Observations      int            `json:"observations"`
	Volatility        *float64       `json:"volatility"`
	DownsideDeviation *float64       `json:"downside_deviation"`
	BestMonth         *float64       `json:"best_month"`
	WorstMonth        *float64       `json:"worst_month"`
	PositiveMonths    int            `json:"positive_months"`
	NegativeMonths    int            `json:"negative_months"`
	WinRate           *float64       `json:"win_rate"`
	SharpeRatio       *float64       `json:"sharpe_ratio"`
	SortinoRatio      *float64       `json:"sortino_ratio"`
	RiskFreeRate      float64        `json:"risk_free_rate"`
	Drawdown          *DrawdownEvent `json:"drawdown"`
}

// CorrelationMatrix is symmetric with a unit diagonal
type CorrelationMatrix struct {
	WindowMonths int                            `json:"window_months"`
	FundNames    []string                       `json:"fund_names"`
	Values       map[string]map[string]*float64 `json:"correlation_matrix"`
	Overlap      map[string]map[string]int      `json:"overlap"`
}

// Get returns the coefficient for a pair
func (m CorrelationMatrix) Get(a, b string) *float64 {
	row, ok := m.Values[a]
	if !ok {
		return nil
	}
	return row[b]
}
