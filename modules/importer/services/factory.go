package services

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
)

// NewImporter builds the importer for source. input is the file, or for
// budgets the directory, the importer reads; schedule ignores it.
func NewImporter(source domain.Source, deps Deps, input string) (Importer, error) {
	input = strings.TrimSpace(input)
	if source.NeedsInput() && input == "" {
		return nil, errors.Wrapf(domain.ErrMissingInput, "source %s", source)
	}
	switch source {
	case domain.SourceMasterfile:
		return NewMasterfileImporter(input, deps), nil
	case domain.SourceJobs:
		return NewJobsImporter(input, deps), nil
	case domain.SourceBudgets:
		return NewBudgetBatchImporter(input, deps), nil
	case domain.SourceBudgetSingle:
		return NewBudgetImporter(input, deps), nil
	case domain.SourceLeads:
		return NewLeadsImporter(input, deps), nil
	case domain.SourceProposals:
		return NewProposalsImporter(input, deps), nil
	case domain.SourceSchedule:
		return NewScheduleImporter(deps), nil
	default:
		return nil, &domain.UnknownSourceError{Name: string(source)}
	}
}

// NewImporterByName resolves name (aliases included) before building.
func NewImporterByName(name string, deps Deps, input string) (Importer, error) {
	source, err := domain.ParseSource(name)
	if err != nil {
		return nil, err
	}
	return NewImporter(source, deps, input)
}
