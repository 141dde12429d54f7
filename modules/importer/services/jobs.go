package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/workbook"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

const (
	jobsMasterSheet = "Jobs Master"
	quotesSheet     = "Scopes & Quotes"

	buildertrendSourceType = "buildertrend_import"
	unknownProjectName     = "Unknown Project"
)

// JobsImporter reads the open jobs export: the job roster makes sure every
// job has a project, then each quote is attached to its project and vendor.
// Both sheets are optional.
type JobsImporter struct {
	importerBase
	path     string
	resolver *Resolver
}

func NewJobsImporter(path string, deps Deps) *JobsImporter {
	base := newImporterBase(domain.SourceJobs, buildertrendSourceType, deps)
	return &JobsImporter{importerBase: base, path: path, resolver: NewResolver(base.logger)}
}

func (j *JobsImporter) Run(ctx context.Context) (*Result, error) {
	return j.run(ctx, func(ctx context.Context, res *Result) error {
		wb, err := workbook.Open(j.path)
		if err != nil {
			return errors.Wrapf(err, "open jobs workbook %s", j.path)
		}
		defer wb.Close()

		return composables.InTx(ctx, func(ctx context.Context) error {
			if wb.HasSheet(jobsMasterSheet) {
				rows, err := wb.Rows(jobsMasterSheet)
				if err != nil {
					return err
				}
				j.jobs(ctx, rows, res)
			} else {
				j.logger.Infof("sheet %q not found, skipping jobs", jobsMasterSheet)
			}
			if wb.HasSheet(quotesSheet) {
				rows, err := wb.Rows(quotesSheet)
				if err != nil {
					return err
				}
				j.quotes(ctx, rows, res)
			} else {
				j.logger.Infof("sheet %q not found, skipping quotes", quotesSheet)
			}
			return nil
		})
	})
}

func (j *JobsImporter) jobs(ctx context.Context, rows []coerce.Row, res *Result) {
	if len(rows) < 2 {
		return
	}
	for _, row := range rows[1:] {
		jobID := coerce.Text(coerce.Cell(row, 0), 20)
		if jobID == "" {
			continue
		}
		code := coerce.Text(coerce.Cell(row, 1), projectCodeLen)
		if code == "" {
			code = jobID
		}
		err := inRow(ctx, res, func(ctx context.Context) error {
			_, found, err := j.resolver.ProjectByCode(ctx, code)
			if err != nil {
				return err
			}
			if found {
				res.Skipped++
				return nil
			}
			if _, err := j.resolver.Project(ctx, code, code); err != nil {
				return err
			}
			res.Created++
			return nil
		})
		if err != nil {
			res.AddError("Job '%s': %v", jobID, err)
		}
	}
}

func (j *JobsImporter) quotes(ctx context.Context, rows []coerce.Row, res *Result) {
	if len(rows) < 2 {
		return
	}
	cols := newHeaderIndex(rows[0])
	for _, row := range rows[1:] {
		if coerce.IsBlank(coerce.Cell(row, 0)) {
			continue
		}
		err := inRow(ctx, res, func(ctx context.Context) error {
			return j.quote(ctx, row, cols, res)
		})
		if err != nil {
			res.AddError("Quote '%s': %v", coerce.Trimmed(coerce.Cell(row, 0)), err)
		}
	}
}

func (j *JobsImporter) quote(ctx context.Context, row coerce.Row, cols headerIndex, res *Result) error {
	number := coerce.Text(cols.cell(row, "Quote ID", 0), 50)
	if number == "" {
		res.Skipped++
		return nil
	}
	code, name := cols.text(row, "Job Name", 2), ""
	if code == "" {
		code, name = "UNKNOWN_"+number, unknownProjectName
	}
	projectID, err := j.resolver.Project(ctx, code, name)
	if err != nil {
		return err
	}
	amount := coerce.Currency(cols.cell(row, "Quote Amount", 9))

	existing, err := findOne[models.Quote](ctx, map[string]any{"quote_number": number, "project_id": projectID})
	if err != nil {
		return err
	}
	if existing != nil {
		cs := changeSet{}
		cs.dec("amount", &existing.Amount, amount)
		changed, err := persistChanges(ctx, j.deps.Audit, "quotes", existing.ID, existing, cs)
		if err != nil {
			return err
		}
		if changed {
			res.Updated++
		} else {
			res.Skipped++
		}
		return nil
	}

	vendorID, err := j.resolver.Vendor(ctx, cols.text(row, "Vendor", 7))
	if err != nil {
		return err
	}
	if err := insert(ctx, &models.Quote{
		ProjectID:        projectID,
		VendorID:         idPtr(vendorID),
		QuoteNumber:      number,
		ScopeCategory:    cols.text(row, "Scope Category", 4),
		ScopeDescription: coerce.Text(cols.cell(row, "Scope Description", 5), 2000),
		LaborMaterial:    cols.text(row, "Labor / Material / Combined", 6),
		Amount:           amount,
		QuoteDate:        coerce.Date(cols.cell(row, "Quote Date", 8)),
		IsApproved:       coerce.Bool(cols.cell(row, "Approved? (Yes/No)", 10)),
		ContractIssued:   coerce.Bool(cols.cell(row, "Contract Issued? (Yes/No)", 11)),
		Priority:         coerce.Int(cols.cell(row, "Priority", 3)),
		Notes:            coerce.Text(cols.cell(row, "Notes", 12), 2000),
	}); err != nil {
		return err
	}
	res.Created++
	return nil
}
