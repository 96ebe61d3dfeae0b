package correlation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/series"
)

// DefaultMinOverlap is the fewest paired months that yield a coefficient.
// 2개 점은 항상 ±1 이므로 최소 3개
const DefaultMinOverlap = 3

// Input is one named series entering the matrix
type Input struct {
	Name   string
	Series contracts.ReturnSeries
}

// Options controls windowing
type Options struct {
	WindowMonths int
	MinOverlap   int
}

// Matrix computes pairwise Pearson correlation over a common trailing window.
// ⭐ SSOT: 앵커는 전체 입력 중 최신 날짜 (펀드별 앵커 아님)
func Matrix(inputs []Input, opts Options) (contracts.CorrelationMatrix, error) {
	if opts.WindowMonths <= 0 {
		return contracts.CorrelationMatrix{}, fmt.Errorf("%w: window_months must be > 0, got %d",
			contracts.ErrInvalidInput, opts.WindowMonths)
	}
	if opts.MinOverlap <= 0 {
		opts.MinOverlap = DefaultMinOverlap
	}

	names := make([]string, len(inputs))
	seen := make(map[string]bool, len(inputs))
	all := make([]contracts.ReturnSeries, len(inputs))
	for i, in := range inputs {
		if seen[in.Name] {
			return contracts.CorrelationMatrix{}, fmt.Errorf("%w: duplicate series name %q",
				contracts.ErrInvalidInput, in.Name)
		}
		seen[in.Name] = true
		names[i] = in.Name
		all[i] = in.Series
	}

	m := contracts.CorrelationMatrix{
		WindowMonths: opts.WindowMonths,
		FundNames:    names,
		Values:       make(map[string]map[string]*float64, len(inputs)),
		Overlap:      make(map[string]map[string]int, len(inputs)),
	}
	for _, name := range names {
		m.Values[name] = make(map[string]*float64, len(inputs))
		m.Overlap[name] = make(map[string]int, len(inputs))
	}

	anchor, ok := series.LatestOf(all...)
	windows := make([]contracts.ReturnSeries, len(all))
	for i, s := range all {
		if ok {
			windows[i] = series.TrailingMonths(s, anchor, opts.WindowMonths)
		} else {
			windows[i] = contracts.NewReturnSeries(s.FundID, nil)
		}
	}

	for i := range names {
		m.Values[names[i]][names[i]] = contracts.Num(1)
		m.Overlap[names[i]][names[i]] = windows[i].Len()

		for j := i + 1; j < len(names); j++ {
			xs, ys, _ := series.Intersect(windows[i], windows[j])
			rho := Pearson(xs, ys, opts.MinOverlap)

			// 한 번 계산 후 대칭 복사
			m.Values[names[i]][names[j]] = rho
			m.Values[names[j]][names[i]] = rho
			m.Overlap[names[i]][names[j]] = len(xs)
			m.Overlap[names[j]][names[i]] = len(xs)
		}
	}

	return m, nil
}

// Pearson returns the correlation of paired samples, nil below minOverlap or
// when either side has zero variance
func Pearson(xs, ys []float64, minOverlap int) *float64 {
	if len(xs) != len(ys) || len(xs) < minOverlap || len(xs) < 2 {
		return nil
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return nil
	}

	rho := stat.Correlation(xs, ys, nil)
	if math.IsNaN(rho) {
		return nil
	}
	return contracts.Num(math.Max(-1, math.Min(1, rho)))
}
