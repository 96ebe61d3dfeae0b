package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
)

const flatSheet = `fund_name,ISIN,Firm Name,Management Fee,Rating,Currency,2023-01-31,2023-02-28,2023-03-31
Alpha Equity,ZAE000001,Alpha AM,1.25%,4,ZAR,1.5,-0.5,2.0
Beta Bond,ZAE000002,Beta AM,n/a,,ZAR,0.4,,0.6
,,,,,,,,
`

func TestParse_FlatHeader(t *testing.T) {
	ds, report, err := Parse(strings.NewReader(flatSheet), "flat.csv")
	require.NoError(t, err)

	assert.Equal(t, "flat.csv", ds.Source)
	assert.Equal(t, 2, report.Funds)
	assert.Equal(t, 3, report.MonthColumns)
	assert.Equal(t, 5, report.Observations)
	assert.Equal(t, 1, report.SkippedRows)

	require.Len(t, ds.Funds, 2)
	alpha := ds.Funds[0]
	assert.Equal(t, int64(1), alpha.ID)
	assert.Equal(t, "Alpha Equity", alpha.Name)
	assert.Equal(t, "ZAE000001", alpha.ISIN)
	assert.Equal(t, "Alpha AM", alpha.Firm)
	require.NotNil(t, alpha.ManagementFee)
	assert.Equal(t, 1.25, *alpha.ManagementFee)
	require.NotNil(t, alpha.Rating)
	assert.Equal(t, 4.0, *alpha.Rating)
	assert.Equal(t, "ZAR", alpha.Attributes["Currency"])

	beta := ds.Funds[1]
	assert.Equal(t, int64(2), beta.ID)
	assert.Nil(t, beta.ManagementFee, "unparsable fee is unavailable")
	assert.Nil(t, beta.Rating)

	s := ds.Series[1]
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{1.5, -0.5, 2.0}, s.Returns())
	assert.Equal(t, "2023-01-31", s.Observations[0].Date.String())

	// 빈 셀은 결측: 0으로 채우지 않음
	b := ds.Series[2]
	require.Equal(t, 2, b.Len())
	assert.Equal(t, "2023-03-31", b.Observations[1].Date.String())
}

func TestParse_TwoLevelHeaderWithPreamble(t *testing.T) {
	sheet := strings.Join([]string{
		"Fund Returns Export,,,",
		",,31/01/2023,28/02/2023",
		"Group/Investment,ASISA Sector (South Africa),Monthly Return,Monthly Return",
		"Local Funds,,,",
		"Gamma Balanced,SA Multi Asset,1.0,-2.0",
	}, "\n")

	ds, report, err := Parse(strings.NewReader(sheet), "morningstar.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, report.MonthColumns)
	assert.Equal(t, 1, report.SkippedRows, "group label row is skipped")
	require.Len(t, ds.Funds, 1)
	assert.Equal(t, "Gamma Balanced", ds.Funds[0].Name)
	assert.Equal(t, "SA Multi Asset", ds.Funds[0].Sector)
	assert.Equal(t, []float64{1.0, -2.0}, ds.Series[1].Returns())
	assert.Equal(t, "2023-02-28", ds.Series[1].Observations[1].Date.String())
}

func TestParse_NormalizesToMonthEnd(t *testing.T) {
	sheet := "fund_name,2024-02-01\nAlpha,1.0\n"
	ds, _, err := Parse(strings.NewReader(sheet), "x.csv")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", ds.Series[1].Observations[0].Date.String())
}

func TestParse_UnorderedColumnsAreSorted(t *testing.T) {
	sheet := "fund_name,2023-03-31,2023-01-31,2023-02-28\nAlpha,3,1,2\n"
	ds, _, err := Parse(strings.NewReader(sheet), "x.csv")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, ds.Series[1].Returns())
	assert.NoError(t, ds.Series[1].Validate())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
	}{
		{"no header", "a,b,c\n1,2,3\n"},
		{"no month columns", "fund_name,ISIN\nAlpha,X\n"},
		{"duplicate month", "fund_name,2023-01-31,31/01/2023\nAlpha,1,2\n"},
		{"non-numeric return", "fund_name,2023-01-31\nAlpha,abc\n"},
		{"no fund rows", "fund_name,2023-01-31\nLocal Funds,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tt.sheet), "bad.csv")
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestParse_ErrorNamesLine(t *testing.T) {
	sheet := "fund_name,2023-01-31\nAlpha,1\nBeta,oops\n"
	_, _, err := Parse(strings.NewReader(sheet), "bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "oops")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funds.csv")
	require.NoError(t, os.WriteFile(path, []byte(flatSheet), 0o600))

	ds, _, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "funds.csv", ds.Source)
	assert.NoError(t, ds.Validate())

	_, _, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
