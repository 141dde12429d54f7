package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/workbook"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

const budgetSourceType = "csv_import"

var (
	hundred      = decimal.NewFromInt(100)
	titleEnglish = cases.Title(language.English)
)

// budgetColumns are the header positions of a draw-schedule CSV. Draw
// columns are found by prefix because their count varies per project.
type budgetColumns struct {
	draws    []int
	approved int
	released int
	balance  int
}

func findBudgetColumns(header coerce.Row) budgetColumns {
	cols := budgetColumns{approved: -1, released: -1, balance: -1}
	for i, cell := range header {
		switch name := strings.ToLower(coerce.Trimmed(cell)); {
		case strings.HasPrefix(name, "draw"):
			cols.draws = append(cols.draws, i)
		case name == "approved":
			cols.approved = i
		case name == "released":
			cols.released = i
		case name == "balance":
			cols.balance = i
		}
	}
	return cols
}

// identifyBudgetProject maps a budget filename onto a known project. When no
// pattern matches, the identity is guessed from the filename tokens and ok
// is false.
func identifyBudgetProject(filename string) (budgetFile, bool) {
	lower := strings.ToLower(filename)
	for _, bf := range catalog().BudgetFiles {
		if strings.Contains(lower, bf.Pattern) {
			return bf, true
		}
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(strings.ReplaceAll(stem, "_budget_", "_"), "_")
	var words []string
	for i, p := range parts {
		if i == 4 {
			break
		}
		if isDigits(p) && len(p) >= 5 {
			continue
		}
		words = append(words, titleEnglish.String(p))
	}
	address := strings.Join(words, " ")
	return budgetFile{
		Code:    strings.ToUpper(coerce.Text(parts[0], 10)),
		Name:    address,
		Address: address,
		State:   stateTennessee,
		Type:    models.ProjectTypeCustomHome,
	}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDocumentationLine matches photo and video placeholder lines.
func isDocumentationLine(description string) bool {
	d := strings.ToLower(description)
	return d == "" ||
		strings.HasSuffix(d, "photo") ||
		strings.HasPrefix(d, "street view") ||
		strings.HasPrefix(d, "interior video")
}

// budgetLoader writes one draw-schedule CSV into the transaction in ctx.
type budgetLoader struct {
	audit  *persistence.AuditLogRepository
	logger logrus.FieldLogger
}

func (l *budgetLoader) load(ctx context.Context, path string, res *Result) error {
	rows, err := workbook.ReadCSV(path)
	if err != nil {
		return errors.Wrapf(err, "read budget %s", path)
	}
	filename := filepath.Base(path)
	log := l.logger.WithField("file", filename)
	if len(rows) == 0 {
		res.AddError("Budget file '%s' is empty", filename)
		return nil
	}

	project, err := l.project(ctx, filename, log)
	if err != nil {
		return err
	}
	cols := findBudgetColumns(rows[0])

	var totals coerce.Row
	var lines []coerce.Row
	for _, row := range rows[1:] {
		switch {
		case len(row) > 1 && strings.EqualFold(coerce.Trimmed(row[1]), "total"):
			totals = row
		case len(row) > 1 && isDigits(coerce.Trimmed(row[0])):
			lines = append(lines, row)
		}
	}

	if totals != nil {
		if err := l.applyTotals(ctx, project, totals, cols); err != nil {
			return err
		}
	}

	sortOrder := 0
	for _, row := range lines {
		description := coerce.Text(coerce.Cell(row, 1), coerce.DefaultTextLen)
		budget := coerce.Currency(coerce.Cell(row, 2))
		if isDocumentationLine(description) && budget.IsZero() {
			res.Skipped++
			continue
		}
		sortOrder++
		line := budgetLine{
			number:      coerce.Int(coerce.Cell(row, 0)),
			description: description,
			budget:      budget,
			sortOrder:   sortOrder,
			row:         row,
		}
		err := inRow(ctx, res, func(ctx context.Context) error {
			return l.upsertLine(ctx, project.ID, line, cols, res)
		})
		if err != nil {
			res.AddError("%s line %d: %v", filename, line.number, err)
		}
	}

	if totals != nil {
		if err := l.payApps(ctx, project.ID, totals, cols); err != nil {
			return err
		}
	}
	log.WithField("lines", len(lines)).Debug("budget file loaded")
	return nil
}

func (l *budgetLoader) project(ctx context.Context, filename string, log logrus.FieldLogger) (*models.Project, error) {
	meta, known := identifyBudgetProject(filename)
	existing, err := findOne[models.Project](ctx, map[string]any{"code": meta.Code})
	if err != nil || existing != nil {
		return existing, err
	}
	if !known {
		log.WithField("code", meta.Code).Warn("budget filename matches no known project; created unconfirmed project")
	}
	project := &models.Project{
		Code:        meta.Code,
		Name:        meta.Name,
		Status:      models.ProjectStatusActive,
		ProjectType: meta.Type,
		Address:     meta.Address,
		City:        meta.City,
		State:       meta.State,
		ZipCode:     meta.Zip,
		Unconfirmed: !known,
	}
	if project.Name == "" {
		project.Name = meta.Code
	}
	if err := insert(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (l *budgetLoader) applyTotals(ctx context.Context, project *models.Project, totals coerce.Row, cols budgetColumns) error {
	cs := changeSet{}
	cs.dec("budget_total", &project.BudgetTotal, coerce.Currency(coerce.Cell(totals, 2)))
	if cols.approved >= 0 {
		cs.dec("contract_amount", &project.ContractAmount, coerce.Currency(coerce.Cell(totals, cols.approved)))
	}
	_, err := persistChanges(ctx, l.audit, "projects", project.ID, project, cs)
	return err
}

type budgetLine struct {
	number      int
	description string
	budget      decimal.Decimal
	sortOrder   int
	row         coerce.Row
}

func (l *budgetLoader) upsertLine(ctx context.Context, projectID uint, line budgetLine, cols budgetColumns, res *Result) error {
	code := fmt.Sprintf("%03d", line.number)
	cc, err := findOne[models.CostCode](ctx, map[string]any{"project_id": projectID, "code": code})
	if err != nil {
		return err
	}
	if cc == nil {
		cc = &models.CostCode{
			ProjectID:    projectID,
			Code:         code,
			Description:  line.description,
			BudgetAmount: line.budget,
			Category:     costCodeCategories.Classify(line.description),
			SortOrder:    line.sortOrder,
		}
		if err := insert(ctx, cc); err != nil {
			return err
		}
		res.Created++
	} else {
		cs := changeSet{}
		cs.dec("budget_amount", &cc.BudgetAmount, line.budget)
		cs.str("description", &cc.Description, line.description)
		changed, err := persistChanges(ctx, l.audit, "cost_codes", cc.ID, cc, cs)
		if err != nil {
			return err
		}
		if changed {
			res.Updated++
		} else {
			res.Skipped++
		}
	}

	drawn := decimal.Zero
	for _, col := range cols.draws {
		drawn = drawn.Add(coerce.Currency(coerce.Cell(line.row, col)))
	}
	approved := drawn
	if cols.approved >= 0 && cols.approved < len(line.row) {
		approved = coerce.Currency(line.row[cols.approved])
	}
	balance := line.budget.Sub(approved)
	if cols.balance >= 0 && cols.balance < len(line.row) {
		balance = coerce.Currency(line.row[cols.balance])
	}
	pct := decimal.Zero
	if line.budget.IsPositive() {
		pct = decimal.Min(approved.Div(line.budget).Mul(hundred), hundred).Round(2)
	}

	sov, err := findOne[models.SOVLine](ctx, map[string]any{"project_id": projectID, "line_number": line.number})
	if err != nil {
		return err
	}
	if sov == nil {
		sov = &models.SOVLine{ProjectID: projectID, LineNumber: line.number, Description: line.description}
	}
	sov.CostCodeID = idPtr(cc.ID)
	sov.ScheduledValue = line.budget
	sov.TotalCompleted = approved
	sov.PercentComplete = pct
	sov.BalanceToFinish = balance
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	return tx.Save(sov).Error
}

// payApps records one paid draw per non-zero draw column of the totals row.
func (l *budgetLoader) payApps(ctx context.Context, projectID uint, totals coerce.Row, cols budgetColumns) error {
	for i, col := range cols.draws {
		amount := coerce.Currency(coerce.Cell(totals, col))
		if amount.IsZero() {
			continue
		}
		number := i + 1
		existing, err := findOne[models.PayApp](ctx, map[string]any{"project_id": projectID, "pay_app_number": number})
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := insert(ctx, &models.PayApp{
			ProjectID:       projectID,
			Number:          number,
			AmountRequested: amount,
			AmountApproved:  amount,
			NetPayment:      amount,
			Status:          models.PayAppStatusPaid,
		}); err != nil {
			return err
		}
	}
	return nil
}

// BudgetImporter loads one draw-schedule CSV.
type BudgetImporter struct {
	importerBase
	path string
}

func NewBudgetImporter(path string, deps Deps) *BudgetImporter {
	return &BudgetImporter{
		importerBase: newImporterBase(domain.SourceBudgetSingle, budgetSourceType, deps),
		path:         path,
	}
}

func (b *BudgetImporter) Run(ctx context.Context) (*Result, error) {
	return b.run(ctx, func(ctx context.Context, res *Result) error {
		loader := &budgetLoader{audit: b.deps.Audit, logger: b.logger}
		return composables.InTx(ctx, func(ctx context.Context) error {
			return loader.load(ctx, b.path, res)
		})
	})
}

// BudgetBatchImporter loads every "*budget*.csv" in a directory, in name
// order, into one merged Result.
type BudgetBatchImporter struct {
	importerBase
	dir string
}

func NewBudgetBatchImporter(dir string, deps Deps) *BudgetBatchImporter {
	return &BudgetBatchImporter{
		importerBase: newImporterBase(domain.SourceBudgets, budgetSourceType, deps),
		dir:          dir,
	}
}

func budgetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list budget dir %s", dir)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || !strings.Contains(strings.ToLower(name), "budget") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

func (b *BudgetBatchImporter) Run(ctx context.Context) (*Result, error) {
	return b.run(ctx, func(ctx context.Context, res *Result) error {
		files, err := budgetFiles(b.dir)
		if err != nil {
			return err
		}
		loader := &budgetLoader{audit: b.deps.Audit, logger: b.logger}
		for _, path := range files {
			sub := NewResult(domain.SourceBudgetSingle, res.BatchID, b.deps.Now())
			err := composables.InTx(ctx, func(ctx context.Context) error {
				return loader.load(ctx, path, sub)
			})
			if err != nil {
				sub = NewResult(domain.SourceBudgetSingle, res.BatchID, sub.StartedAt)
				sub.AddError("File '%s': %v", filepath.Base(path), err)
			}
			sub.Finish(b.deps.Now())
			b.logger.Info(sub.Summary(b.deps.Options.SummaryErrors))
			res.Merge(sub)
		}
		return nil
	})
}
