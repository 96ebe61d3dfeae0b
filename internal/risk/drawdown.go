package risk

import (
	"math"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/returns"
)

// =============================================================================
// Drawdown Analyzer
// =============================================================================

// DrawdownAnalysis carries the intermediate series alongside the worst event
type DrawdownAnalysis struct {
	Points     []contracts.DrawdownPoint `json:"drawdown_series"`
	Wealth     []float64                 `json:"-"`
	RunningMax []float64                 `json:"-"`
	Event      *contracts.DrawdownEvent  `json:"max_drawdown"`
}

// AnalyzeDrawdown computes the wealth index, running maximum and drawdown series.
// Event is nil only for an empty series.
func AnalyzeDrawdown(s contracts.ReturnSeries) DrawdownAnalysis {
	cum := returns.Cumulative(s)
	n := len(cum)

	a := DrawdownAnalysis{
		Points:     make([]contracts.DrawdownPoint, n),
		Wealth:     make([]float64, n),
		RunningMax: make([]float64, n),
	}
	if n == 0 {
		return a
	}

	peak := math.Inf(-1)
	trough := 0
	for i, c := range cum {
		w := 1 + c.CumulativeReturn/100
		peak = math.Max(peak, w)

		dd := 0.0
		if peak > 0 {
			dd = (w/peak - 1) * 100
		}
		// 부동소수 오차로 양수가 나오지 않도록
		dd = math.Min(dd, 0)

		a.Wealth[i] = w
		a.RunningMax[i] = peak
		a.Points[i] = contracts.DrawdownPoint{Date: c.Date, DrawdownPct: dd}

		// 최초 최저점을 trough로 (strict less)
		if dd < a.Points[trough].DrawdownPct {
			trough = i
		}
	}

	a.Event = a.event(trough)
	return a
}

func (a DrawdownAnalysis) event(trough int) *contracts.DrawdownEvent {
	ev := &contracts.DrawdownEvent{MaxDrawdownPct: a.Points[trough].DrawdownPct}
	if ev.MaxDrawdownPct == 0 {
		// 낙폭 없음: 에피소드 날짜 없음
		return ev
	}

	peak := trough
	for peak > 0 && a.Wealth[peak] != a.RunningMax[peak] {
		peak--
	}

	peakDate := a.Points[peak].Date
	troughDate := a.Points[trough].Date
	ev.PeakDate = &peakDate
	ev.TroughDate = &troughDate

	if gap := trough - peak - 1; gap > 0 {
		ev.DurationMonths = gap
	}

	for i := trough + 1; i < len(a.Wealth); i++ {
		if a.Wealth[i] >= a.Wealth[peak] {
			recovery := a.Points[i].Date
			ev.RecoveryDate = &recovery
			break
		}
	}

	return ev
}
