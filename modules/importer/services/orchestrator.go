package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/iota-uz/utils/fs"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
)

const fullRunPrefix = "full_import"

// Inputs names the files a full run reads. Empty or missing paths make the
// run skip that source.
type Inputs struct {
	Masterfile string
	Jobs       string
	BudgetDir  string
	Leads      string
	Proposals  string

	IncludeSchedule bool
}

// Orchestrator runs importers in dependency order: the workbook seeds the
// projects and vendors the satellite sources refer to.
type Orchestrator struct {
	deps Deps
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps.withDefaults()}
}

type plannedRun struct {
	source domain.Source
	input  string
}

func (o *Orchestrator) plan(in Inputs) []plannedRun {
	runs := []plannedRun{
		{domain.SourceMasterfile, in.Masterfile},
		{domain.SourceJobs, in.Jobs},
		{domain.SourceBudgets, in.BudgetDir},
		{domain.SourceLeads, in.Leads},
		{domain.SourceProposals, in.Proposals},
	}
	if in.IncludeSchedule {
		runs = append(runs, plannedRun{source: domain.SourceSchedule})
	}
	return runs
}

// RunAll runs every source with an input under one shared batch id. A
// fatal error stops the run; the report then holds what finished.
func (o *Orchestrator) RunAll(ctx context.Context, in Inputs) (*Report, error) {
	deps := o.deps
	if deps.BatchID == "" {
		deps.BatchID = NewBatchID(fullRunPrefix, deps.Now())
	}
	log := deps.Logger.WithField("batch_id", deps.BatchID)
	report := NewReport(deps.BatchID)

	for _, run := range o.plan(in) {
		if run.source.NeedsInput() && (run.input == "" || !fs.FileExists(run.input)) {
			log.WithFields(logrus.Fields{"source": run.source.String(), "input": run.input}).
				Info("input not found, skipping")
			continue
		}
		imp, err := NewImporter(run.source, deps, run.input)
		if err != nil {
			return report, err
		}
		res, err := imp.Run(ctx)
		if res != nil {
			report.Add(res)
		}
		if err != nil {
			return report, errors.Wrapf(err, "import %s", run.source)
		}
	}

	t := report.Totals()
	log.WithFields(logrus.Fields{
		"created": t.Created,
		"updated": t.Updated,
		"skipped": t.Skipped,
		"errors":  t.Errors,
		"sources": t.Sources,
	}).Info("full import finished")
	return report, nil
}

// RunOne runs a single source by name. Unknown names yield a
// *domain.UnknownSourceError.
func (o *Orchestrator) RunOne(ctx context.Context, name, input string) (*Result, error) {
	imp, err := NewImporterByName(name, o.deps, input)
	if err != nil {
		return nil, err
	}
	return imp.Run(ctx)
}
