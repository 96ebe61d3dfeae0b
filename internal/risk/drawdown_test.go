package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
)

func TestAnalyzeDrawdown_RecoveredEpisode(t *testing.T) {
	a := AnalyzeDrawdown(monthly(10, -10, -5, 20))

	require.Len(t, a.Points, 4)
	assert.Equal(t, 0.0, a.Points[0].DrawdownPct)
	assert.InDelta(t, -10.0, a.Points[1].DrawdownPct, 1e-9)
	assert.InDelta(t, -14.5, a.Points[2].DrawdownPct, 1e-9)
	assert.Equal(t, 0.0, a.Points[3].DrawdownPct)

	ev := a.Event
	require.NotNil(t, ev)
	assert.InDelta(t, -14.5, ev.MaxDrawdownPct, 1e-9)
	require.NotNil(t, ev.PeakDate)
	require.NotNil(t, ev.TroughDate)
	assert.Equal(t, "2023-01-31", ev.PeakDate.String())
	assert.Equal(t, "2023-03-31", ev.TroughDate.String())
	require.True(t, ev.Recovered())
	assert.Equal(t, "2023-04-30", ev.RecoveryDate.String())
	assert.Equal(t, 1, ev.DurationMonths)
}

func TestAnalyzeDrawdown_OpenEpisode(t *testing.T) {
	ev := AnalyzeDrawdown(monthly(5, -3, -2)).Event

	require.NotNil(t, ev)
	assert.Less(t, ev.MaxDrawdownPct, 0.0)
	assert.Equal(t, "2023-03-31", ev.TroughDate.String())
	assert.False(t, ev.Recovered())
}

func TestAnalyzeDrawdown_NeverDrawsDown(t *testing.T) {
	ev := AnalyzeDrawdown(monthly(1, 2, 3)).Event

	require.NotNil(t, ev)
	assert.Equal(t, 0.0, ev.MaxDrawdownPct)
	assert.Nil(t, ev.PeakDate)
	assert.Nil(t, ev.TroughDate)
	assert.Nil(t, ev.RecoveryDate)
	assert.Equal(t, 0, ev.DurationMonths)
}

func TestAnalyzeDrawdown_FirstMonthLoss(t *testing.T) {
	// 첫 달 손실도 drawdown 0 (running max는 첫 wealth로 시작)
	a := AnalyzeDrawdown(monthly(-5, -5))

	assert.Equal(t, 0.0, a.Points[0].DrawdownPct)
	assert.Equal(t, "2023-01-31", a.Event.PeakDate.String())
	assert.Equal(t, "2023-02-28", a.Event.TroughDate.String())
	assert.Equal(t, 0, a.Event.DurationMonths)
}

func TestAnalyzeDrawdown_Empty(t *testing.T) {
	a := AnalyzeDrawdown(contracts.NewReturnSeries(1, nil))
	assert.Empty(t, a.Points)
	assert.Nil(t, a.Event)
}

func TestAnalyzeDrawdown_Invariants(t *testing.T) {
	a := AnalyzeDrawdown(monthly(3.2, -4.1, 1.7, -8.3, 2.2, 6.5, -1.1, 0.4, 9.9, -12.0, 3.3))

	require.NotEmpty(t, a.Points)
	assert.Equal(t, 0.0, a.Points[0].DrawdownPct)

	for i, p := range a.Points {
		assert.LessOrEqual(t, p.DrawdownPct, 0.0, "point %d", i)
		// round trip: w = (1 + dd/100) × m
		assert.InDelta(t, a.Wealth[i], (1+p.DrawdownPct/100)*a.RunningMax[i], 1e-9, "point %d", i)
		if i > 0 {
			assert.GreaterOrEqual(t, a.RunningMax[i], a.RunningMax[i-1])
		}
	}

	lowest := 0.0
	for _, p := range a.Points {
		if p.DrawdownPct < lowest {
			lowest = p.DrawdownPct
		}
	}
	assert.Equal(t, lowest, a.Event.MaxDrawdownPct)
}

func TestAnalyzeDrawdown_Idempotent(t *testing.T) {
	s := monthly(2, -3, 1, -4, 5)
	first := AnalyzeDrawdown(s)
	second := AnalyzeDrawdown(s)

	assert.Equal(t, first, second)
}
