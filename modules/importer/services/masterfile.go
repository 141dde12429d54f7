package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/workbook"
)

// MasterfileImporter loads the multi-tab master workbook. Each tab commits
// on its own; see Dispatcher.
type MasterfileImporter struct {
	importerBase
	path string
}

func NewMasterfileImporter(path string, deps Deps) *MasterfileImporter {
	return &MasterfileImporter{
		importerBase: newImporterBase(domain.SourceMasterfile, "excel_import", deps),
		path:         path,
	}
}

func (m *MasterfileImporter) Run(ctx context.Context) (*Result, error) {
	return m.run(ctx, func(ctx context.Context, res *Result) error {
		wb, err := workbook.Open(m.path)
		if err != nil {
			return errors.Wrapf(err, "open masterfile %s", m.path)
		}
		defer wb.Close()

		env := &tabEnv{
			resolver:   NewResolver(m.logger),
			audit:      m.deps.Audit,
			result:     res,
			batchID:    res.BatchID,
			now:        m.deps.Now,
			flushEvery: m.deps.Options.FlushEvery,
			logger:     m.logger,
			year:       m.deps.Options.ScheduleYear,
		}
		NewDispatcher(masterfileHandlers(env), skippedSheets, m.logger).Run(ctx, wb, res)
		return nil
	})
}
