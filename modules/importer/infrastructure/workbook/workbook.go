// Package workbook reads spreadsheet inputs into value-only rows.
package workbook

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/workbook-import/pkg/coerce"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatWorkbook
	FormatCSV
)

// DetectFormat classifies path by its extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatWorkbook
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// Workbook wraps an open excelize file.
type Workbook struct {
	f        *excelize.File
	date1904 bool
}

func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", filepath.Base(path))
	}
	wb := &Workbook{f: f}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Rows returns every row of sheet as plain values. Empty cells are nil,
// numbers float64, date-formatted numbers time.Time, booleans bool and
// everything else string. A formula without a cached value comes back as
// "=" followed by the formula text.
//
// The sheet is streamed twice in lockstep, once raw and once formatted. The
// formula of a cell is looked up only when its raw value is blank.
func (w *Workbook) Rows(sheet string) ([]coerce.Row, error) {
	raw, err := w.f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	defer func() { _ = raw.Close() }()
	formatted, err := w.f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	defer func() { _ = formatted.Close() }()

	var out []coerce.Row
	last := 0
	for raw.Next() {
		formatted.Next()
		cells, err := raw.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Wrapf(err, "read sheet %q row %d", sheet, len(out)+1)
		}
		shown, err := formatted.Columns()
		if err != nil {
			return nil, errors.Wrapf(err, "read sheet %q row %d", sheet, len(out)+1)
		}
		r := len(out)
		row := make(coerce.Row, len(cells))
		for c, value := range cells {
			display := ""
			if c < len(shown) {
				display = shown[c]
			}
			row[c] = w.cellValue(sheet, r, c, value, display)
		}
		out = append(out, row)
		if len(cells) > 0 {
			last = len(out)
		}
	}
	if err := raw.Error(); err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	return out[:last], nil
}

func (w *Workbook) cellValue(sheet string, r, c int, raw, display string) any {
	if raw == "" {
		axis, err := excelize.CoordinatesToCellName(c+1, r+1)
		if err != nil {
			return nil
		}
		if formula, err := w.f.GetCellFormula(sheet, axis); err == nil && formula != "" {
			return "=" + formula
		}
		return nil
	}

	if (display == "TRUE" && raw == "1") || (display == "FALSE" && raw == "0") {
		return raw == "1"
	}
	if f, ok := numericRaw(raw); ok {
		if display != raw && looksLikeDate(display) {
			if t, err := excelize.ExcelDateToTime(f, w.date1904); err == nil {
				return t
			}
		}
		return f
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return raw
}

// numericRaw parses a raw cell value as a number. Text that only looks
// numeric, such as "00123" or "+5", is rejected so that it stays a string.
func numericRaw(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if strings.ContainsAny(raw, "eE") {
		return f, true
	}
	canon := raw
	if strings.Contains(canon, ".") {
		canon = strings.TrimRight(strings.TrimRight(canon, "0"), ".")
	}
	return f, canon == strconv.FormatFloat(f, 'f', -1, 64)
}

// looksLikeDate reports whether a formatted numeric cell is rendered as a
// date rather than as a number, currency or percentage.
func looksLikeDate(display string) bool {
	s := strings.TrimSpace(display)
	if s == "" || strings.ContainsAny(s, "$%,") || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "(") {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	if !strings.ContainsAny(s, "0123456789") {
		return false
	}
	return strings.ContainsAny(s, "/-") || strings.Contains(s, ":")
}
