package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/composables"
	"github.com/iota-uz/workbook-import/pkg/configuration"
	"github.com/iota-uz/workbook-import/pkg/logging"
)

const batchTimeLayout = "20060102_150405"

// Importer runs one source against the database carried by ctx.
//
// A returned error is fatal: the input could not be opened or no database
// is available. Row and tab failures are recorded on the Result instead.
type Importer interface {
	Source() domain.Source
	Run(ctx context.Context) (*Result, error)
}

// Deps are shared by every importer of one run.
type Deps struct {
	Logger  logrus.FieldLogger
	Now     func() time.Time
	Options configuration.ImportOptions
	// Empty means each importer derives one from its source and start time.
	BatchID string
	Batches *persistence.ImportBatchRepository
	Audit   *persistence.AuditLogRepository
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Batches == nil {
		d.Batches = persistence.NewImportBatchRepository()
	}
	if d.Audit == nil {
		d.Audit = persistence.NewAuditLogRepository("importer")
	}
	if d.Options.FlushEvery <= 0 {
		d.Options.FlushEvery = defaultFlush
	}
	if d.Options.ScheduleYear == 0 {
		d.Options.ScheduleYear = d.Now().Year()
	}
	return d
}

// NewBatchID formats the batch id used when the caller supplies none.
func NewBatchID(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, at.Format(batchTimeLayout))
}

type importerBase struct {
	source     domain.Source
	sourceType string
	deps       Deps
	logger     logrus.FieldLogger
}

func newImporterBase(source domain.Source, sourceType string, deps Deps) importerBase {
	deps = deps.withDefaults()
	return importerBase{
		source:     source,
		sourceType: sourceType,
		deps:       deps,
		logger:     deps.Logger.WithField("source", source.String()),
	}
}

func (b *importerBase) Source() domain.Source { return b.source }

// run does the bookkeeping every importer shares: the trace span, the
// Result, the ImportBatch row and the summary log line.
func (b *importerBase) run(ctx context.Context, body func(ctx context.Context, res *Result) error) (_ *Result, err error) {
	ctx, span := tracer.Start(ctx, "importer.run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if _, err := composables.UseDB(ctx); err != nil {
		return nil, errors.Wrap(err, "importer needs a database")
	}
	started := b.deps.Now()
	batchID := b.deps.BatchID
	if batchID == "" {
		batchID = NewBatchID(b.source.String(), started)
	}
	span.SetAttributes(
		attribute.String("source", b.source.String()),
		attribute.String("batch_id", batchID),
	)
	log := b.logger.WithField("batch_id", batchID)
	ctx = logging.WithLogger(ctx, log)

	res := NewResult(b.source, batchID, started)
	if err := body(ctx, res); err != nil {
		res.Finish(b.deps.Now())
		getMetrics().observeResult(res, "failed")
		log.WithError(err).Error("import failed")
		return res, err
	}
	res.Finish(b.deps.Now())

	status := models.BatchCompleted
	if res.HasErrors() {
		status = models.BatchCompletedWithErrors
	}
	batch := &models.ImportBatch{
		BatchID:     batchID,
		Source:      b.source.String(),
		SourceType:  b.sourceType,
		RecordCount: res.TotalProcessed(),
		Created:     res.Created,
		Updated:     res.Updated,
		Skipped:     res.Skipped,
		ErrorCount:  len(res.Errors),
		Status:      status,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
	}
	if err := b.deps.Batches.Create(ctx, batch); err != nil {
		return res, errors.Wrap(err, "record import batch")
	}
	getMetrics().observeResult(res, status)
	log.WithFields(logrus.Fields{
		"created":  res.Created,
		"updated":  res.Updated,
		"skipped":  res.Skipped,
		"errors":   len(res.Errors),
		"duration": res.Duration().String(),
	}).Info("import finished")
	return res, nil
}

// inRow runs fn in a savepoint of the importer's transaction. When fn fails
// its writes and the counters it moved are undone.
func inRow(ctx context.Context, res *Result, fn func(ctx context.Context) error) error {
	created, updated, skipped := res.Created, res.Updated, res.Skipped
	if err := composables.InTx(ctx, fn); err != nil {
		res.Created, res.Updated, res.Skipped = created, updated, skipped
		return err
	}
	return nil
}
