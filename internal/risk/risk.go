package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/returns"
)

// =============================================================================
// Risk Calculator - 순수 계산기
// =============================================================================

// ⭐ SSOT: 월수익률(%) 기준, 연환산은 √12 스케일링
// 계산 불가 값은 nil (0으로 채우지 않음)

var annualizationFactor = math.Sqrt(returns.MonthsPerYear)

// Volatility returns the annualized sample standard deviation (n-1)
func Volatility(r []float64) *float64 {
	if len(r) < 2 {
		return nil
	}
	return contracts.Num(stat.StdDev(r, nil) * annualizationFactor)
}

// DownsideDeviation is Volatility over the negative months only
func DownsideDeviation(r []float64) *float64 {
	return Volatility(negatives(r))
}

// Sharpe computes annualized excess return over volatility.
// rfAnnualPct is divided by 12 (non-compounded) before subtracting.
func Sharpe(r []float64, rfAnnualPct float64) *float64 {
	return ratio(excessAnnualized(r, rfAnnualPct), Volatility(r))
}

// Sortino is Sharpe with downside deviation as the denominator
func Sortino(r []float64, rfAnnualPct float64) *float64 {
	return ratio(excessAnnualized(r, rfAnnualPct), DownsideDeviation(r))
}

// Profile builds the full risk statistics for a series
func Profile(s contracts.ReturnSeries, rfAnnualPct float64) contracts.RiskProfile {
	r := s.Returns()

	p := contracts.RiskProfile{
		Observations:      len(r),
		Volatility:        Volatility(r),
		DownsideDeviation: DownsideDeviation(r),
		SharpeRatio:       Sharpe(r, rfAnnualPct),
		SortinoRatio:      Sortino(r, rfAnnualPct),
		RiskFreeRate:      rfAnnualPct,
		Drawdown:          AnalyzeDrawdown(s).Event,
	}

	if len(r) == 0 {
		return p
	}

	best, worst := r[0], r[0]
	for _, v := range r {
		best = math.Max(best, v)
		worst = math.Min(worst, v)
		// 0% 월은 양/음 어느 쪽에도 포함하지 않음
		switch {
		case v > 0:
			p.PositiveMonths++
		case v < 0:
			p.NegativeMonths++
		}
	}

	p.BestMonth = contracts.Num(best)
	p.WorstMonth = contracts.Num(worst)
	p.WinRate = contracts.Num(float64(p.PositiveMonths) / float64(len(r)) * 100)

	return p
}

func negatives(r []float64) []float64 {
	var out []float64
	for _, v := range r {
		if v < 0 {
			out = append(out, v)
		}
	}
	return out
}

func excessAnnualized(r []float64, rfAnnualPct float64) *float64 {
	monthlyRf := rfAnnualPct / returns.MonthsPerYear
	excess := make([]float64, len(r))
	for i, v := range r {
		excess[i] = v - monthlyRf
	}
	return returns.Annualized(excess)
}

func ratio(num, den *float64) *float64 {
	n, ok := contracts.Value(num)
	if !ok {
		return nil
	}
	d, ok := contracts.Value(den)
	if !ok || d == 0 {
		return nil
	}
	return contracts.Num(n / d)
}
