package returns

import (
	"fmt"
	"math"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/series"
)

// MonthsPerYear converts observation counts to years
const MonthsPerYear = 12

// periodSpec describes one canonical period
type periodSpec struct {
	label  contracts.PeriodLabel
	months int // 0 = YTD/ITD (고정 개월수 없음)
}

// standardPeriods is the canonical label order
// ⭐ SSOT: 기간 라벨 집합은 여기서만 정의
var standardPeriods = []periodSpec{
	{contracts.Period1M, 1},
	{contracts.Period3M, 3},
	{contracts.Period6M, 6},
	{contracts.PeriodYTD, 0},
	{contracts.Period1Y, 12},
	{contracts.Period3Y, 36},
	{contracts.Period5Y, 60},
	{contracts.Period10Y, 120},
	{contracts.PeriodITD, 0},
}

// Labels returns the canonical period labels in order
func Labels() []contracts.PeriodLabel {
	out := make([]contracts.PeriodLabel, len(standardPeriods))
	for i, p := range standardPeriods {
		out[i] = p.label
	}
	return out
}

// BasisFor applies the presentation rule: <= 12 months cumulative, longer annualized, ITD annualized
func BasisFor(label contracts.PeriodLabel, months int) contracts.Basis {
	if label == contracts.PeriodITD || months > MonthsPerYear {
		return contracts.BasisAnnualized
	}
	return contracts.BasisCumulative
}

// Total compounds percentage returns geometrically: Π(1 + r/100) - 1, in percent.
// Empty input is unavailable.
func Total(returns []float64) *float64 {
	if len(returns) == 0 {
		return nil
	}
	return contracts.Num((growth(returns) - 1) * 100)
}

// Annualized converts the compounded total to CAGR with years = n/12
func Annualized(returns []float64) *float64 {
	n := len(returns)
	if n == 0 {
		return nil
	}

	g := growth(returns)
	if g < 0 {
		// 음의 자산가치는 분수 거듭제곱 불가
		return nil
	}

	years := float64(n) / MonthsPerYear
	return contracts.Num((math.Pow(g, 1/years) - 1) * 100)
}

// growth returns Π(1 + r/100)
func growth(returns []float64) float64 {
	g := 1.0
	for _, r := range returns {
		g *= 1 + r/100
	}
	return g
}

// Periods resolves the standard period set anchored at the latest observation
func Periods(s contracts.ReturnSeries) contracts.PeriodReturnSet {
	set := make(contracts.PeriodReturnSet, 0, len(standardPeriods))

	for _, p := range standardPeriods {
		entry := contracts.PeriodReturn{
			Label:  p.label,
			Months: p.months,
			Basis:  BasisFor(p.label, p.months),
		}

		switch p.label {
		case contracts.PeriodYTD:
			entry.Value = Total(series.YearToDate(s).Returns())
		case contracts.PeriodITD:
			entry.Value = Annualized(s.Returns())
		default:
			window, ok := series.Trailing(s, p.months)
			if ok {
				entry.Value = periodValue(window.Returns(), entry.Basis)
			}
		}

		set = append(set, entry)
	}

	return set
}

func periodValue(returns []float64, basis contracts.Basis) *float64 {
	if basis == contracts.BasisAnnualized {
		return Annualized(returns)
	}
	return Total(returns)
}

// CalendarYears groups observations by calendar year and compounds each group.
// Partial years are kept; Months tells them apart.
func CalendarYears(s contracts.ReturnSeries) []contracts.CalendarYearReturn {
	out := make([]contracts.CalendarYearReturn, 0)

	i := 0
	for i < len(s.Observations) {
		year := s.Observations[i].Date.Year()
		j := i
		var bucket []float64
		for j < len(s.Observations) && s.Observations[j].Date.Year() == year {
			bucket = append(bucket, s.Observations[j].ReturnPct)
			j++
		}

		out = append(out, contracts.CalendarYearReturn{
			Year:      year,
			ReturnPct: Total(bucket),
			Months:    len(bucket),
		})
		i = j
	}

	return out
}

// Rolling emits the annualized return of every full trailing window
func Rolling(s contracts.ReturnSeries, windowMonths int) ([]contracts.RollingPoint, error) {
	if windowMonths <= 0 {
		return nil, fmt.Errorf("%w: window_months must be > 0, got %d", contracts.ErrInvalidInput, windowMonths)
	}

	points := make([]contracts.RollingPoint, 0)
	for i := range s.Observations {
		window, ok := series.TrailingAt(s, i, windowMonths)
		if !ok {
			continue
		}
		points = append(points, contracts.RollingPoint{
			Date:      s.Observations[i].Date,
			ReturnPct: Annualized(window.Returns()),
		})
	}

	return points, nil
}

// Cumulative computes the running compounded return from the first observation
func Cumulative(s contracts.ReturnSeries) []contracts.CumulativePoint {
	points := make([]contracts.CumulativePoint, len(s.Observations))

	g := 1.0
	for i, o := range s.Observations {
		g *= 1 + o.ReturnPct/100
		points[i] = contracts.CumulativePoint{
			Date:             o.Date,
			MonthlyReturn:    o.ReturnPct,
			CumulativeReturn: (g - 1) * 100,
		}
	}

	return points
}
