package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
	"github.com/iota-uz/workbook-import/pkg/logging"
)

type memWorkbook struct {
	order  []string
	sheets map[string][]coerce.Row
}

func (m *memWorkbook) SheetNames() []string { return m.order }

func (m *memWorkbook) Rows(sheet string) ([]coerce.Row, error) {
	return m.sheets[sheet], nil
}

type tabFunc func(ctx context.Context, rows []coerce.Row) error

func (f tabFunc) Parse(ctx context.Context, rows []coerce.Row) error { return f(ctx, rows) }

// vendorTab inserts one vendor per row and counts it.
func vendorTab(res *Result) tabFunc {
	return func(ctx context.Context, rows []coerce.Row) error {
		tx, err := composables.UseTx(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := tx.Create(&models.Vendor{Name: coerce.Trimmed(coerce.Cell(row, 0))}).Error; err != nil {
				return err
			}
			res.Created++
		}
		return nil
	}
}

func TestDispatcher_TabIsolation(t *testing.T) {
	ctx, db := newTestDB(t)
	res := NewResult("masterfile", "b1", fixedNow)

	var reachedC bool
	handlers := map[Sheet]TabHandler{
		"A": vendorTab(res),
		"B": tabFunc(func(ctx context.Context, rows []coerce.Row) error {
			if err := vendorTab(res)(ctx, rows); err != nil {
				return err
			}
			return errors.New("bad row 7")
		}),
		"C": tabFunc(func(ctx context.Context, rows []coerce.Row) error {
			reachedC = true
			return vendorTab(res)(ctx, rows)
		}),
	}
	wb := &memWorkbook{
		order: []string{"A", "B", "C"},
		sheets: map[string][]coerce.Row{
			"A": {{"Alpha"}},
			"B": {{"Bravo"}, {"Bravo 2"}},
			"C": {{"Charlie"}},
		},
	}

	NewDispatcher(handlers, nil, logging.Discard()).Run(ctx, wb, res)

	require.True(t, reachedC)
	require.Equal(t, []string{"Tab 'B': bad row 7"}, res.Errors)
	require.Equal(t, 2, res.Created, "counts of the rolled back tab are undone")

	var names []string
	require.NoError(t, db.Model(&models.Vendor{}).Order("name").Pluck("name", &names).Error)
	require.Equal(t, []string{"Alpha", "Charlie"}, names)
}

func TestDispatcher_PanicIsTabError(t *testing.T) {
	ctx, _ := newTestDB(t)
	res := NewResult("masterfile", "b1", fixedNow)
	handlers := map[Sheet]TabHandler{
		"BOOM": tabFunc(func(context.Context, []coerce.Row) error { panic("index out of range") }),
	}
	wb := &memWorkbook{order: []string{"BOOM"}, sheets: map[string][]coerce.Row{}}

	NewDispatcher(handlers, nil, logging.Discard()).Run(ctx, wb, res)

	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "Tab 'BOOM': panic: index out of range")
}

func TestDispatcher_SkipAndUnknownSheets(t *testing.T) {
	ctx, _ := newTestDB(t)
	res := NewResult("masterfile", "b1", fixedNow)

	called := map[string]bool{}
	track := func(name string) TabHandler {
		return tabFunc(func(context.Context, []coerce.Row) error {
			called[name] = true
			return nil
		})
	}
	handlers := map[Sheet]TabHandler{
		SheetDebtSchedule: track("debt"),
		"KPI":             track("kpi"),
	}
	wb := &memWorkbook{order: []string{"KPI", "DEBT SCHEDUEL", "DEBT SCHEDULE", "Notes"}}

	NewDispatcher(handlers, skippedSheets, logging.Discard()).Run(ctx, wb, res)

	require.Equal(t, map[string]bool{"debt": true}, called)
	require.Empty(t, res.Errors)
}

func TestDispatcher_Closest(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(map[Sheet]TabHandler{
		SheetDebtSchedule: tabFunc(nil),
		SheetDebtPayoff:   tabFunc(nil),
	}, nil, logging.Discard())

	if got := d.closest("DEBT"); got == "" {
		t.Fatalf("closest(%q) = empty, want a debt sheet", "DEBT")
	}
	if got := d.closest("zzz"); got != "" {
		t.Fatalf("closest(%q) = %q, want empty", "zzz", got)
	}
}

func TestMasterfileHandlers_CoverEverySheet(t *testing.T) {
	t.Parallel()

	handlers := masterfileHandlers(newTestEnv())
	require.Len(t, handlers, 31)
	for sheet := range handlers {
		if _, skipped := skippedSheets[sheet]; skipped {
			t.Fatalf("sheet %q is both handled and skipped", sheet)
		}
	}
}
