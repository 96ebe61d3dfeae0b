package metrics

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/correlation"
	"github.com/wonny/fundscope/internal/profile"
	"github.com/wonny/fundscope/internal/returns"
	"github.com/wonny/fundscope/internal/risk"
	"github.com/wonny/fundscope/internal/series"
	"github.com/wonny/fundscope/pkg/logger"
)

// =============================================================================
// Metrics Service - 펀드 분석 오케스트레이션
// =============================================================================

// Service assembles per-fund and multi-fund analytics
// ⭐ SSOT: 저장소 접근은 FundSource, 계산은 series/returns/risk/correlation
// 상태 없음: 같은 입력이면 항상 같은 출력
type Service struct {
	source  contracts.FundSource
	profile *profile.Profile
	log     *logger.Logger
}

// NewService creates a metrics service
func NewService(source contracts.FundSource, p *profile.Profile, log *logger.Logger) *Service {
	if p == nil {
		p = profile.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		source:  source,
		profile: p,
		log:     log.Component("metrics"),
	}
}

// Profile returns the analytics profile in use
func (s *Service) Profile() *profile.Profile {
	return s.profile
}

// fundData is one fund's static record, full series and range-bounded slice
type fundData struct {
	fund    *contracts.Fund
	full    contracts.ReturnSeries
	bounded contracts.ReturnSeries
}

func (s *Service) load(ctx context.Context, id int64, r contracts.DateRange) (*fundData, error) {
	fund, err := s.source.Fund(ctx, id)
	if err != nil {
		return nil, err
	}

	full, err := s.source.Series(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := full.Validate(); err != nil {
		return nil, err
	}

	return &fundData{
		fund:    fund,
		full:    full,
		bounded: series.Bound(full, r),
	}, nil
}

// =============================================================================
// Single-fund operations
// =============================================================================

// Performance computes the standard period set
func (s *Service) Performance(ctx context.Context, id int64, r contracts.DateRange) (*FundPerformance, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, id, r)
	if err != nil {
		return nil, err
	}
	p := performance(d)
	return &p, nil
}

// CalendarYears computes per-year compounded returns
func (s *Service) CalendarYears(ctx context.Context, id int64, r contracts.DateRange) (*FundCalendarYears, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, id, r)
	if err != nil {
		return nil, err
	}
	return &FundCalendarYears{
		FundID:   d.fund.ID,
		FundName: d.fund.Name,
		Years:    returns.CalendarYears(d.bounded),
	}, nil
}

// Returns lists monthly returns with the running cumulative return
func (s *Service) Returns(ctx context.Context, id int64, r contracts.DateRange) (*FundReturns, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, id, r)
	if err != nil {
		return nil, err
	}
	return &FundReturns{
		FundID:     d.fund.ID,
		FundName:   d.fund.Name,
		Monthly:    d.bounded.Observations,
		Cumulative: returns.Cumulative(d.bounded),
	}, nil
}

// Risk computes the risk profile
func (s *Service) Risk(ctx context.Context, id int64, req RiskRequest) (*FundRisk, error) {
	rf, err := s.riskFreeRate(req.RiskFreeRate)
	if err != nil {
		return nil, err
	}
	if err := req.Range.Validate(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, id, req.Range)
	if err != nil {
		return nil, err
	}
	fr := fundRisk(d, rf)
	return &fr, nil
}

// Drawdown computes the drawdown series and worst episode
func (s *Service) Drawdown(ctx context.Context, id int64, r contracts.DateRange) (*FundDrawdown, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	d, err := s.load(ctx, id, r)
	if err != nil {
		return nil, err
	}
	dd := fundDrawdown(d)
	return &dd, nil
}

// Report bundles every single-fund analytic
func (s *Service) Report(ctx context.Context, id int64, req ReportRequest) (*FundReport, error) {
	rf, err := s.riskFreeRate(req.RiskFreeRate)
	if err != nil {
		return nil, err
	}
	window, err := s.rollingWindow(req.RollingWindowMonths)
	if err != nil {
		return nil, err
	}
	if err := req.Range.Validate(); err != nil {
		return nil, err
	}

	d, err := s.load(ctx, id, req.Range)
	if err != nil {
		return nil, err
	}

	rolling, err := fundRolling(d, window)
	if err != nil {
		return nil, err
	}

	return &FundReport{
		Fund:          d.fund,
		Performance:   performance(d),
		CalendarYears: returns.CalendarYears(d.bounded),
		Risk:          fundRisk(d, rf),
		Drawdown:      fundDrawdown(d),
		Rolling:       rolling,
		Cumulative:    returns.Cumulative(d.bounded),
	}, nil
}

// =============================================================================
// Multi-fund operations (fan-out / fan-in)
// =============================================================================

// Compare computes performance for several funds
func (s *Service) Compare(ctx context.Context, ids []int64, r contracts.DateRange) (*CompareResult, error) {
	ids, err := s.prepare(ids, r)
	if err != nil {
		return nil, err
	}

	funds, failures, err := fanOut(ctx, s.profile.Execution.Workers, ids, func(ctx context.Context, id int64) (FundPerformance, error) {
		d, err := s.load(ctx, id, r)
		if err != nil {
			return FundPerformance{}, err
		}
		return performance(d), nil
	})
	if err != nil {
		return nil, err
	}

	s.logFanOut("compare", ids, failures)
	return &CompareResult{Funds: funds, Failures: failures}, nil
}

// MultipleReturns aligns several funds onto the union of their dates
func (s *Service) MultipleReturns(ctx context.Context, ids []int64, r contracts.DateRange) (*MultipleReturnsResult, error) {
	ids, err := s.prepare(ids, r)
	if err != nil {
		return nil, err
	}

	loaded, failures, err := fanOut(ctx, s.profile.Execution.Workers, ids, func(ctx context.Context, id int64) (*fundData, error) {
		return s.load(ctx, id, r)
	})
	if err != nil {
		return nil, err
	}

	all := make([]contracts.ReturnSeries, len(loaded))
	for i, d := range loaded {
		all[i] = d.bounded
	}
	grid := series.CommonGrid(all...)

	funds := make([]AlignedReturns, len(loaded))
	for i, d := range loaded {
		funds[i] = AlignedReturns{
			FundID:   d.fund.ID,
			FundName: d.fund.Name,
			Returns:  series.Align(grid, d.bounded),
		}
	}

	s.logFanOut("multiple_returns", ids, failures)
	return &MultipleReturnsResult{Dates: grid, Funds: funds, Failures: failures}, nil
}

// Rolling computes rolling returns for several funds
func (s *Service) Rolling(ctx context.Context, ids []int64, windowMonths *int, r contracts.DateRange) (*RollingResult, error) {
	window, err := s.rollingWindow(windowMonths)
	if err != nil {
		return nil, err
	}
	ids, err = s.prepare(ids, r)
	if err != nil {
		return nil, err
	}

	funds, failures, err := fanOut(ctx, s.profile.Execution.Workers, ids, func(ctx context.Context, id int64) (FundRolling, error) {
		d, err := s.load(ctx, id, r)
		if err != nil {
			return FundRolling{}, err
		}
		return fundRolling(d, window)
	})
	if err != nil {
		return nil, err
	}

	s.logFanOut("rolling", ids, failures)
	return &RollingResult{WindowMonths: window, Funds: funds, Failures: failures}, nil
}

// BatchRisk computes risk profiles for several funds
func (s *Service) BatchRisk(ctx context.Context, ids []int64, req RiskRequest) (*BatchRiskResult, error) {
	rf, err := s.riskFreeRate(req.RiskFreeRate)
	if err != nil {
		return nil, err
	}
	ids, err = s.prepare(ids, req.Range)
	if err != nil {
		return nil, err
	}

	funds, failures, err := fanOut(ctx, s.profile.Execution.Workers, ids, func(ctx context.Context, id int64) (FundRisk, error) {
		d, err := s.load(ctx, id, req.Range)
		if err != nil {
			return FundRisk{}, err
		}
		return fundRisk(d, rf), nil
	})
	if err != nil {
		return nil, err
	}

	s.logFanOut("batch_risk", ids, failures)
	return &BatchRiskResult{Funds: funds, Failures: failures}, nil
}

// Correlation computes the pairwise matrix over a trailing window.
// nil months uses the profile default; given values must be in the allowed set.
func (s *Service) Correlation(ctx context.Context, ids []int64, months *int, r contracts.DateRange) (*CorrelationResult, error) {
	c := s.profile.Correlation
	windowMonths := c.DefaultWindowMonths
	if months != nil {
		windowMonths = *months
	}
	if !c.AllowsWindow(windowMonths) {
		return nil, fmt.Errorf("%w: correlation window %d not in %v", contracts.ErrInvalidInput, windowMonths, c.WindowsMonths)
	}
	ids, err := s.prepare(ids, r)
	if err != nil {
		return nil, err
	}

	loaded, failures, err := fanOut(ctx, s.profile.Execution.Workers, ids, func(ctx context.Context, id int64) (*fundData, error) {
		return s.load(ctx, id, r)
	})
	if err != nil {
		return nil, err
	}

	labels := labelFunds(loaded)
	inputs := make([]correlation.Input, len(loaded))
	refs := make([]FundRef, len(loaded))
	for i, d := range loaded {
		inputs[i] = correlation.Input{Name: labels[i], Series: d.bounded}
		refs[i] = FundRef{FundID: d.fund.ID, Label: labels[i]}
	}

	m, err := correlation.Matrix(inputs, correlation.Options{
		WindowMonths: windowMonths,
		MinOverlap:   c.MinOverlap,
	})
	if err != nil {
		return nil, err
	}

	s.logFanOut("correlation", ids, failures)
	return &CorrelationResult{CorrelationMatrix: m, Funds: refs, Failures: failures}, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Service) prepare(ids []int64, r contracts.DateRange) ([]int64, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: fund_ids must not be empty", contracts.ErrInvalidInput)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return uniqueIDs(ids), nil
}

func (s *Service) riskFreeRate(override *float64) (float64, error) {
	if override == nil {
		return s.profile.Risk.RiskFreeRatePct, nil
	}
	if math.IsNaN(*override) || math.IsInf(*override, 0) {
		return 0, fmt.Errorf("%w: risk_free_rate must be finite", contracts.ErrInvalidInput)
	}
	return *override, nil
}

// rollingWindow applies the profile default only when no window was given
func (s *Service) rollingWindow(months *int) (int, error) {
	if months == nil {
		return s.profile.Returns.RollingWindowMonths, nil
	}
	if *months <= 0 {
		return 0, fmt.Errorf("%w: window_months must be > 0, got %d", contracts.ErrInvalidInput, *months)
	}
	return *months, nil
}

func (s *Service) logFanOut(op string, ids []int64, failures []contracts.FundFailure) {
	s.log.WithFields(map[string]interface{}{
		"op":       op,
		"funds":    len(ids),
		"failures": len(failures),
	}).Debug("multi-fund request completed")
}

// labelFunds returns unique matrix labels: the plain name, then "Name (#id)",
// then "#id" for any fund still colliding with another label
func labelFunds(loaded []*fundData) []string {
	stage := make([]int, len(loaded))
	labels := make([]string, len(loaded))
	for i, d := range loaded {
		if d.fund.Name == "" {
			stage[i] = 1
		}
	}

	for {
		groups := make(map[string][]int, len(loaded))
		for i, d := range loaded {
			switch stage[i] {
			case 0:
				labels[i] = d.fund.Name
			case 1:
				labels[i] = fmt.Sprintf("%s (#%d)", d.fund.Name, d.fund.ID)
			default:
				labels[i] = fmt.Sprintf("#%d", d.fund.ID)
			}
			groups[labels[i]] = append(groups[labels[i]], i)
		}

		bumped := false
		for _, idx := range groups {
			if len(idx) < 2 {
				continue
			}
			for _, i := range idx {
				// id 전용 라벨은 id가 유일하므로 더 올리지 않음
				if stage[i] < 2 {
					stage[i]++
					bumped = true
				}
			}
		}
		if !bumped {
			return labels
		}
	}
}

func performance(d *fundData) FundPerformance {
	set := returns.Periods(d.bounded)
	p := FundPerformance{
		FundID:   d.fund.ID,
		FundName: d.fund.Name,
		Periods:  set,
		Returns:  set.Values(),
		Basis:    set.Bases(),
	}
	if latest, ok := d.bounded.Latest(); ok {
		p.AsOfDate = &latest
	}
	if inception, ok := d.full.First(); ok {
		p.InceptionDate = &inception
	}
	return p
}

func fundRisk(d *fundData, rf float64) FundRisk {
	fr := FundRisk{
		FundID:      d.fund.ID,
		FundName:    d.fund.Name,
		RiskProfile: risk.Profile(d.bounded, rf),
	}
	if first, ok := d.bounded.First(); ok {
		fr.StartDate = &first
	}
	if last, ok := d.bounded.Latest(); ok {
		fr.EndDate = &last
	}
	return fr
}

func fundDrawdown(d *fundData) FundDrawdown {
	a := risk.AnalyzeDrawdown(d.bounded)
	return FundDrawdown{
		FundID:   d.fund.ID,
		FundName: d.fund.Name,
		Series:   a.Points,
		Event:    a.Event,
	}
}

func fundRolling(d *fundData, window int) (FundRolling, error) {
	points, err := returns.Rolling(d.bounded, window)
	if err != nil {
		return FundRolling{}, err
	}
	return FundRolling{
		FundID:   d.fund.ID,
		FundName: d.fund.Name,
		Points:   points,
	}, nil
}
