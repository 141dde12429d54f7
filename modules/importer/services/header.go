package services

import (
	"github.com/go-faster/errors"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/workbook"
	"github.com/iota-uz/workbook-import/pkg/coerce"
)

// headerIndex addresses export columns by header text. Exports reorder
// columns between versions, so every lookup carries the usual position as
// a fallback.
type headerIndex map[string]int

func newHeaderIndex(header coerce.Row) headerIndex {
	h := make(headerIndex, len(header))
	for i, cell := range header {
		if name := coerce.Trimmed(cell); name != "" {
			h[name] = i
		}
	}
	return h
}

func (h headerIndex) col(name string, fallback int) int {
	if i, ok := h[name]; ok {
		return i
	}
	return fallback
}

func (h headerIndex) cell(row coerce.Row, name string, fallback int) any {
	return coerce.Cell(row, h.col(name, fallback))
}

func (h headerIndex) text(row coerce.Row, name string, fallback int) string {
	return coerce.Text(h.cell(row, name, fallback), coerce.DefaultTextLen)
}

// readSheet loads one sheet of the workbook at path. A missing sheet is a
// *domain.SheetError wrapping domain.ErrNoSheet.
func readSheet(path, sheet string) ([]coerce.Row, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer wb.Close()
	if !wb.HasSheet(sheet) {
		return nil, &domain.SheetError{Sheet: sheet, Err: domain.ErrNoSheet}
	}
	return wb.Rows(sheet)
}
