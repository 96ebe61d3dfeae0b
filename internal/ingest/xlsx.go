package ingest

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/store"
)

// maxExcelSerial is 9999-12-31 as an Excel date serial
const maxExcelSerial = 2958465

// ParseXLSX reads the first worksheet of a Morningstar XLSX export.
// Cells are read raw so returns keep full precision; date headers stored as
// Excel serials are converted to dd/mm/yyyy before the shared header logic.
func ParseXLSX(r io.Reader, source string) (*store.Dataset, *Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read xlsx: %v", contracts.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", contracts.ErrInvalidInput)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read sheet %q: %v", contracts.ErrInvalidInput, sheets[0], err)
	}

	// 헤더 두 줄(날짜 행 + 라벨 행)만 serial → 날짜 문자열로 변환
	if at := findHeader(rows); at >= 0 {
		serialHeaders(rows[at])
		if at > 0 {
			serialHeaders(rows[at-1])
		}
	}

	return parseRecords(rows, source)
}

func serialHeaders(row []string) {
	for i, raw := range row {
		if _, ok := parseMonth(raw); ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 1 || v > maxExcelSerial {
			continue
		}
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			continue
		}
		row[i] = t.Format(monthLayouts[0])
	}
}
