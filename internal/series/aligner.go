package series

import (
	"sort"

	"github.com/wonny/fundscope/internal/contracts"
)

// ⭐ SSOT: 기간 슬라이싱/정렬 규칙은 이 패키지에서만
// 모든 함수는 입력을 변경하지 않고 새 슬라이스를 반환

// Bound filters a series to [Start, End]; open bounds are unbounded
func Bound(s contracts.ReturnSeries, r contracts.DateRange) contracts.ReturnSeries {
	out := make([]contracts.ReturnObservation, 0, len(s.Observations))
	for _, o := range s.Observations {
		if r.Contains(o.Date) {
			out = append(out, o)
		}
	}
	return contracts.NewReturnSeries(s.FundID, out)
}

// Trailing returns the last N calendar months ending at the latest observation.
// ok=false when the window holds fewer than N observations.
func Trailing(s contracts.ReturnSeries, months int) (contracts.ReturnSeries, bool) {
	if s.IsEmpty() {
		return contracts.NewReturnSeries(s.FundID, nil), false
	}
	return TrailingAt(s, len(s.Observations)-1, months)
}

// TrailingAt is Trailing anchored at observation index `at`
func TrailingAt(s contracts.ReturnSeries, at, months int) (contracts.ReturnSeries, bool) {
	if months <= 0 || at < 0 || at >= len(s.Observations) {
		return contracts.NewReturnSeries(s.FundID, nil), false
	}

	anchor := s.Observations[at].Date.MonthIndex()
	start := at
	// 앵커에서 역방향으로 (anchor-N, anchor] 구간 탐색
	for start > 0 && s.Observations[start-1].Date.MonthIndex() > anchor-months {
		start--
	}

	window := make([]contracts.ReturnObservation, at-start+1)
	copy(window, s.Observations[start:at+1])

	return contracts.NewReturnSeries(s.FundID, window), len(window) >= months
}

// TrailingMonths windows a series to the N calendar months ending at anchor.
// Observations after the anchor are dropped; no sufficiency check is applied.
func TrailingMonths(s contracts.ReturnSeries, anchor contracts.Date, months int) contracts.ReturnSeries {
	if months <= 0 {
		return contracts.NewReturnSeries(s.FundID, nil)
	}

	last := anchor.MonthIndex()
	out := make([]contracts.ReturnObservation, 0, months)
	for _, o := range s.Observations {
		idx := o.Date.MonthIndex()
		if idx > last-months && idx <= last {
			out = append(out, o)
		}
	}
	return contracts.NewReturnSeries(s.FundID, out)
}

// YearToDate returns the observations in the calendar year of the latest date
func YearToDate(s contracts.ReturnSeries) contracts.ReturnSeries {
	latest, ok := s.Latest()
	if !ok {
		return contracts.NewReturnSeries(s.FundID, nil)
	}

	start := len(s.Observations)
	for start > 0 && s.Observations[start-1].Date.Year() == latest.Year() {
		start--
	}

	out := make([]contracts.ReturnObservation, len(s.Observations)-start)
	copy(out, s.Observations[start:])
	return contracts.NewReturnSeries(s.FundID, out)
}

// CommonGrid returns the sorted union of all dates present in any series
func CommonGrid(all ...contracts.ReturnSeries) []contracts.Date {
	seen := make(map[string]contracts.Date)
	for _, s := range all {
		for _, o := range s.Observations {
			seen[o.Date.String()] = o.Date
		}
	}

	grid := make([]contracts.Date, 0, len(seen))
	for _, d := range seen {
		grid = append(grid, d)
	}
	sort.Slice(grid, func(i, j int) bool {
		return grid[i].Before(grid[j].Time)
	})
	return grid
}

// Align maps a series onto a grid; missing dates are nil (gaps, not zeros)
func Align(grid []contracts.Date, s contracts.ReturnSeries) []*float64 {
	byDate := make(map[string]float64, len(s.Observations))
	for _, o := range s.Observations {
		byDate[o.Date.String()] = o.ReturnPct
	}

	out := make([]*float64, len(grid))
	for i, d := range grid {
		if v, ok := byDate[d.String()]; ok {
			out[i] = &v
		}
	}
	return out
}

// Intersect pairs the returns of two series on the dates both contain
func Intersect(a, b contracts.ReturnSeries) (xs, ys []float64, dates []contracts.Date) {
	i, j := 0, 0
	// 두 시계열 모두 날짜 오름차순이므로 병합 방식으로 교집합
	for i < len(a.Observations) && j < len(b.Observations) {
		da, db := a.Observations[i].Date, b.Observations[j].Date
		switch {
		case da.Equal(db.Time):
			xs = append(xs, a.Observations[i].ReturnPct)
			ys = append(ys, b.Observations[j].ReturnPct)
			dates = append(dates, da)
			i++
			j++
		case da.Before(db.Time):
			i++
		default:
			j++
		}
	}
	return xs, ys, dates
}

// LatestOf returns the most recent date across several series
func LatestOf(all ...contracts.ReturnSeries) (contracts.Date, bool) {
	var latest contracts.Date
	found := false
	for _, s := range all {
		d, ok := s.Latest()
		if !ok {
			continue
		}
		if !found || d.After(latest.Time) {
			latest = d
			found = true
		}
	}
	return latest, found
}
