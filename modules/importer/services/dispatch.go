package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

var tracer = otel.Tracer("workbook-import/importer")

// SheetSource is an opened workbook.
type SheetSource interface {
	SheetNames() []string
	Rows(sheet string) ([]coerce.Row, error)
}

// Dispatcher routes each sheet of a workbook to its handler. Every handler
// runs in its own transaction; a failing handler is rolled back and recorded
// and the next sheet proceeds.
type Dispatcher struct {
	handlers map[Sheet]TabHandler
	skip     map[Sheet]struct{}
	logger   logrus.FieldLogger
}

func NewDispatcher(handlers map[Sheet]TabHandler, skip map[Sheet]struct{}, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{handlers: handlers, skip: skip, logger: logger}
}

func (d *Dispatcher) Run(ctx context.Context, wb SheetSource, result *Result) {
	for _, name := range wb.SheetNames() {
		sheet := Sheet(name)
		log := d.logger.WithField("sheet", name)
		if _, ok := d.skip[sheet]; ok {
			log.Debug("skipping computed sheet")
			getMetrics().tabsSkipped.WithLabelValues("computed").Inc()
			continue
		}
		handler, ok := d.handlers[sheet]
		if !ok {
			if hint := d.closest(name); hint != "" {
				log = log.WithField("did_you_mean", hint)
			}
			log.Info("no handler for sheet")
			getMetrics().tabsSkipped.WithLabelValues("no_handler").Inc()
			continue
		}
		if err := d.runTab(ctx, wb, sheet, handler, result); err != nil {
			result.AddError("Tab '%s': %v", name, err)
			getMetrics().tabFailures.WithLabelValues(name).Inc()
			log.WithError(err).Warn("tab failed, rolled back")
			continue
		}
		log.Debug("tab committed")
	}
}

func (d *Dispatcher) runTab(ctx context.Context, wb SheetSource, sheet Sheet, handler TabHandler, result *Result) (err error) {
	ctx, span := tracer.Start(ctx, "importer.tab")
	span.SetAttributes(attribute.String("sheet", string(sheet)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := wb.Rows(string(sheet))
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))

	created, updated, skipped := result.Created, result.Updated, result.Skipped
	err = composables.InTx(ctx, func(txCtx context.Context) (txErr error) {
		defer func() {
			if r := recover(); r != nil {
				d.logger.WithFields(logrus.Fields{
					"sheet": string(sheet),
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("panic recovered in tab handler")
				txErr = fmt.Errorf("panic: %v", r)
			}
		}()
		return handler.Parse(txCtx, rows)
	})
	if err != nil {
		// The writes are gone, so are their counts.
		result.Created, result.Updated, result.Skipped = created, updated, skipped
		return err
	}
	return nil
}

// closest suggests the registered sheet name nearest to name.
func (d *Dispatcher) closest(name string) string {
	targets := make([]string, 0, len(d.handlers))
	for s := range d.handlers {
		targets = append(targets, string(s))
	}
	ranks := fuzzy.RankFindNormalizedFold(name, targets)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
