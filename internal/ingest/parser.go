package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/store"
)

// Header names recognized in the fund sheet export
const (
	colFundName       = "fund_name"
	colGroup          = "Group/Investment"
	colISIN           = "ISIN"
	colFirm           = "Firm Name"
	colCategory       = "Morningstar Category"
	colSector         = "ASISA Sector (South Africa)"
	colManagementFee  = "Management Fee"
	colPerformanceFee = "Performance Fee"
	colRating         = "Morningstar Rating Overall"
	colInvestmentArea = "Investment Area"

	// groupLabel is the section row that precedes the fund rows
	groupLabel = "Local Funds"
)

// Accepted file extensions
const (
	extCSV  = ".csv"
	extXLSX = ".xlsx"
)

// monthLayouts are the accepted month column header formats
var monthLayouts = []string{"02/01/2006", "2006-01-02"}

// Report summarizes one parse
type Report struct {
	Rows         int `json:"rows"`
	SkippedRows  int `json:"skipped_rows"`
	Funds        int `json:"funds"`
	MonthColumns int `json:"month_columns"`
	Observations int `json:"observations"`
}

// column describes what one sheet column holds
type column struct {
	index int
	name  string
	month *contracts.Date // nil = 정적 속성 열
}

// Supported reports whether the file name has an ingestible extension
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case extCSV, extXLSX:
		return true
	}
	return false
}

// ParseNamed picks the CSV or XLSX reader from the file extension
func ParseNamed(r io.Reader, name string) (*store.Dataset, *Report, error) {
	if strings.EqualFold(filepath.Ext(name), extXLSX) {
		return ParseXLSX(r, name)
	}
	return Parse(r, name)
}

// ParseFile opens a CSV or XLSX file and parses it
func ParseFile(path string) (*store.Dataset, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return ParseNamed(f, filepath.Base(path))
}

// Parse reads the wide fund × month sheet from CSV.
func Parse(r io.Reader, source string) (*store.Dataset, *Report, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read csv: %v", contracts.ErrInvalidInput, err)
	}
	return parseRecords(records, source)
}

// parseRecords turns sheet rows into a dataset.
// Rows before the header (export preamble) are ignored. When the header row
// carries a non-date label over a month column, the row above it supplies the date.
// 빈 셀은 결측 (0으로 채우지 않음)
func parseRecords(records [][]string, source string) (*store.Dataset, *Report, error) {
	headerAt := findHeader(records)
	if headerAt < 0 {
		return nil, nil, fmt.Errorf("%w: no %q or %q column found", contracts.ErrInvalidInput, colFundName, colGroup)
	}

	var above []string
	if headerAt > 0 {
		above = records[headerAt-1]
	}
	cols, nameCol, err := classify(records[headerAt], above)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{}
	for _, c := range cols {
		if c.month != nil {
			report.MonthColumns++
		}
	}
	if report.MonthColumns == 0 {
		return nil, nil, fmt.Errorf("%w: no month columns (expected dd/mm/yyyy or yyyy-mm-dd headers)", contracts.ErrInvalidInput)
	}

	ds := &store.Dataset{
		Source: source,
		Funds:  make([]contracts.Fund, 0),
		Series: make(map[int64]contracts.ReturnSeries),
	}

	var nextID int64 = 1
	for i, row := range records[headerAt+1:] {
		report.Rows++

		name := cell(row, nameCol)
		if name == "" || name == groupLabel {
			report.SkippedRows++
			continue
		}

		fund := contracts.Fund{ID: nextID, Name: name}
		var obs []contracts.ReturnObservation

		for _, c := range cols {
			if c.index == nameCol {
				continue
			}
			raw := cell(row, c.index)

			if c.month == nil {
				setAttribute(&fund, c.name, raw)
				continue
			}
			if raw == "" {
				continue
			}

			v, ok := parseNumber(raw)
			if !ok {
				// 헤더 포함 행 번호 (1-based)
				line := headerAt + i + 2
				return nil, nil, fmt.Errorf("%w: line %d column %q: invalid return %q",
					contracts.ErrInvalidInput, line, c.name, raw)
			}
			obs = append(obs, contracts.ReturnObservation{FundID: fund.ID, Date: *c.month, ReturnPct: v})
		}

		sort.Slice(obs, func(a, b int) bool { return obs[a].Date.Before(obs[b].Date.Time) })

		ds.Funds = append(ds.Funds, fund)
		ds.Series[fund.ID] = contracts.NewReturnSeries(fund.ID, obs)
		report.Observations += len(obs)
		nextID++
	}

	report.Funds = len(ds.Funds)
	if report.Funds == 0 {
		return nil, nil, fmt.Errorf("%w: sheet has no fund rows", contracts.ErrInvalidInput)
	}

	return ds, report, nil
}

func findHeader(records [][]string) int {
	for i, row := range records {
		for _, v := range row {
			v = strings.TrimSpace(v)
			if v == colFundName || v == colGroup {
				return i
			}
		}
	}
	return -1
}

// classify maps header cells to columns and rejects duplicate months
func classify(header, above []string) ([]column, int, error) {
	cols := make([]column, 0, len(header))
	nameCol := -1
	seenMonth := make(map[int]string)

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		c := column{index: i, name: name}

		if d, ok := parseMonth(name); ok {
			c.month = &d
		} else if i < len(above) {
			if d, ok := parseMonth(strings.TrimSpace(above[i])); ok {
				c.month = &d
				c.name = strings.TrimSpace(above[i])
			}
		}

		if c.month != nil {
			idx := c.month.MonthIndex()
			if prev, dup := seenMonth[idx]; dup {
				return nil, -1, fmt.Errorf("%w: duplicate month column %q (already %q)",
					contracts.ErrInvalidInput, c.name, prev)
			}
			seenMonth[idx] = c.name
		} else if nameCol < 0 && (name == colFundName || name == colGroup) {
			nameCol = i
		}

		if c.month == nil && name == "" {
			continue
		}
		cols = append(cols, c)
	}

	return cols, nameCol, nil
}

// parseMonth accepts a month header and normalizes it to the month end
func parseMonth(s string) (contracts.Date, bool) {
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.MonthEnd(t.Year(), t.Month()), true
		}
	}
	return contracts.Date{}, false
}

func setAttribute(f *contracts.Fund, name, raw string) {
	switch name {
	case colISIN:
		f.ISIN = raw
	case colFirm:
		f.Firm = raw
	case colCategory:
		f.Category = raw
	case colSector:
		f.Sector = raw
	case colInvestmentArea:
		f.InvestmentArea = raw
	case colManagementFee:
		f.ManagementFee = optionalNumber(raw)
	case colPerformanceFee:
		f.PerformanceFee = optionalNumber(raw)
	case colRating:
		f.Rating = optionalNumber(raw)
	default:
		if raw == "" {
			return
		}
		if f.Attributes == nil {
			f.Attributes = make(map[string]string)
		}
		f.Attributes[name] = raw
	}
}

func optionalNumber(raw string) *float64 {
	v, ok := parseNumber(raw)
	if !ok {
		return nil
	}
	return contracts.Num(v)
}

// parseNumber accepts "1.25" and "1.25%"
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || contracts.Num(v) == nil {
		return 0, false
	}
	return v, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
