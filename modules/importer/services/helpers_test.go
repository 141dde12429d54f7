package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/workbook"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
	"github.com/iota-uz/workbook-import/pkg/configuration"
	"github.com/iota-uz/workbook-import/pkg/logging"
)

var fixedNow = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) (context.Context, *gorm.DB) {
	t.Helper()

	db, err := persistence.OpenSQLite(filepath.Join(t.TempDir(), "import.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	return composables.WithDB(ctx, db.DB), db.DB
}

func testDeps() Deps {
	return Deps{
		Logger: logging.Discard(),
		Now:    func() time.Time { return fixedNow },
		Options: configuration.ImportOptions{
			FlushEvery:    500,
			ErrorLimit:    20,
			SummaryErrors: 10,
			ScheduleYear:  2026,
		},
	}
}

func newTestEnv() *tabEnv {
	deps := testDeps().withDefaults()
	return &tabEnv{
		resolver:   NewResolver(deps.Logger),
		audit:      deps.Audit,
		result:     NewResult("masterfile", "test_batch", fixedNow),
		batchID:    "test_batch",
		now:        deps.Now,
		flushEvery: deps.Options.FlushEvery,
		logger:     deps.Logger,
		year:       deps.Options.ScheduleYear,
	}
}

// parseInTx runs one handler the way the dispatcher does.
func parseInTx(t *testing.T, ctx context.Context, h TabHandler, rows []coerce.Row) {
	t.Helper()
	require.NoError(t, composables.InTx(ctx, func(ctx context.Context) error {
		return h.Parse(ctx, rows)
	}))
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// writeWorkbook saves sheets (name → rows) as an xlsx file in a temp dir.
func writeWorkbook(t *testing.T, name string, sheets map[string][][]any, order ...string) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, sheet := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for r, row := range sheets[sheet] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// padRow places values at the given column positions.
func padRow(width int, at map[int]any) coerce.Row {
	row := make(coerce.Row, width)
	for i, v := range at {
		row[i] = v
	}
	return row
}

// wide is padRow for fixture sheets.
func wide(width int, at map[int]any) []any {
	return []any(padRow(width, at))
}

// fixtureRows saves rows as a one-sheet workbook and reads them back through
// the workbook reader, so handlers see the cell types a real import produces.
func fixtureRows(t *testing.T, sheet Sheet, rows [][]any) []coerce.Row {
	t.Helper()

	path := writeWorkbook(t, "fixture.xlsx", map[string][][]any{string(sheet): rows}, string(sheet))
	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	out, err := wb.Rows(string(sheet))
	require.NoError(t, err)
	return out
}

func seedProject(t *testing.T, db *gorm.DB, code string) uint {
	t.Helper()
	p := models.Project{Code: code, Name: code, Status: models.ProjectStatusActive}
	require.NoError(t, db.Create(&p).Error)
	return p.ID
}

// auditTrail maps field name to its old and new value for one record.
func auditTrail(t *testing.T, db *gorm.DB, table string, id uint) map[string][2]string {
	t.Helper()
	var logs []models.AuditLog
	require.NoError(t, db.Where("table_name = ? AND record_id = ?", table, id).Find(&logs).Error)
	out := make(map[string][2]string, len(logs))
	for _, l := range logs {
		out[l.FieldName] = [2]string{l.OldValue, l.NewValue}
	}
	return out
}
