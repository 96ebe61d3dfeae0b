package contracts

import (
	"fmt"
	"math"
)

// ReturnObservation is one monthly return fact for a fund
// ReturnPct는 퍼센트 단위 (1.5 = 1.5%), 소수 아님
type ReturnObservation struct {
	FundID    int64   `json:"fund_id"`
	Date      Date    `json:"date"`
	ReturnPct float64 `json:"monthly_return"`
}

// ReturnSeries is an ordered, unique-dated sequence of observations for one fund
// ⭐ SSOT: 엔진은 시계열을 읽기만 함 (슬라이싱은 항상 복사본 반환)
type ReturnSeries struct {
	FundID       int64               `json:"fund_id"`
	Observations []ReturnObservation `json:"observations"`
}

// NewReturnSeries builds a series from observations without copying them
func NewReturnSeries(fundID int64, obs []ReturnObservation) ReturnSeries {
	return ReturnSeries{FundID: fundID, Observations: obs}
}

// Len returns the number of observations
func (s ReturnSeries) Len() int {
	return len(s.Observations)
}

// IsEmpty reports whether the series has no observations
func (s ReturnSeries) IsEmpty() bool {
	return len(s.Observations) == 0
}

// First returns the earliest date
func (s ReturnSeries) First() (Date, bool) {
	if s.IsEmpty() {
		return Date{}, false
	}
	return s.Observations[0].Date, true
}

// Latest returns the most recent date
func (s ReturnSeries) Latest() (Date, bool) {
	if s.IsEmpty() {
		return Date{}, false
	}
	return s.Observations[len(s.Observations)-1].Date, true
}

// Returns copies the monthly returns into a new slice
func (s ReturnSeries) Returns() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.ReturnPct
	}
	return out
}

// Dates copies the observation dates into a new slice
func (s ReturnSeries) Dates() []Date {
	out := make([]Date, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Date
	}
	return out
}

// Clone returns a deep copy
func (s ReturnSeries) Clone() ReturnSeries {
	obs := make([]ReturnObservation, len(s.Observations))
	copy(obs, s.Observations)
	return ReturnSeries{FundID: s.FundID, Observations: obs}
}

// Validate checks ordering, uniqueness and finiteness
func (s ReturnSeries) Validate() error {
	for i, o := range s.Observations {
		if math.IsNaN(o.ReturnPct) || math.IsInf(o.ReturnPct, 0) {
			return fmt.Errorf("%w: fund %d has non-finite return on %s", ErrInvalidSeries, s.FundID, o.Date)
		}
		if i == 0 {
			continue
		}
		prev := s.Observations[i-1].Date
		if o.Date.Equal(prev.Time) {
			return fmt.Errorf("%w: fund %d has duplicate date %s", ErrInvalidSeries, s.FundID, o.Date)
		}
		if o.Date.Before(prev.Time) {
			return fmt.Errorf("%w: fund %d dates out of order at %s", ErrInvalidSeries, s.FundID, o.Date)
		}
	}
	return nil
}
