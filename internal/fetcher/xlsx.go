package fetcher

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	// Columns names the columns by position. When empty the first row is
	// used as the header.
	Columns []string
}

// Sheet is the parsed content of one worksheet. Cell values are the raw
// stored values: numbers are unformatted and dates are Excel serials.
type Sheet struct {
	Columns  []string
	Rows     []Record
	Date1904 bool
}

// ExcelTime converts an Excel serial date for this workbook.
func (s *Sheet) ExcelTime(serial float64) time.Time {
	return xlsx.TimeFromExcelTime(serial, s.Date1904)
}

// ReadXLSX reads one worksheet. Rows with no non-blank cell are dropped.
func ReadXLSX(path string, opts XLSXOptions) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	out := &Sheet{Columns: opts.Columns, Date1904: f.Date1904}
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowValues(row)
		if blank(cells) {
			continue
		}
		if out.Columns == nil {
			out.Columns = cells
			continue
		}
		rec := make(Record, len(out.Columns))
		for i, col := range out.Columns {
			if i < len(cells) {
				rec[col] = cells[i]
			} else {
				rec[col] = ""
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowValues(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = strings.TrimSpace(cell.Value)
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
