package domain

import "strings"

// Source names one importable input.
type Source string

const (
	SourceMasterfile   Source = "masterfile"
	SourceJobs         Source = "jobs"
	SourceBudgets      Source = "budgets"
	SourceBudgetSingle Source = "budget_single"
	SourceLeads        Source = "leads"
	SourceProposals    Source = "proposals"
	SourceSchedule     Source = "schedule"
)

// Sources lists every known source in full-run order. budget_single is last
// because the full run never uses it.
var Sources = []Source{
	SourceMasterfile,
	SourceJobs,
	SourceBudgets,
	SourceLeads,
	SourceProposals,
	SourceSchedule,
	SourceBudgetSingle,
}

var sourceAliases = map[string]Source{
	"open_jobs": SourceJobs,
	"budget":    SourceBudgetSingle,
}

func (s Source) String() string { return string(s) }

// NeedsInput reports whether the source reads a file or directory.
func (s Source) NeedsInput() bool {
	return s != SourceSchedule
}

// ParseSource maps a user supplied name onto a Source. Matching ignores case
// and surrounding whitespace.
func ParseSource(name string) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Sources {
		if string(s) == key {
			return s, nil
		}
	}
	if s, ok := sourceAliases[key]; ok {
		return s, nil
	}
	return "", &UnknownSourceError{Name: name}
}

func SourceNames() []string {
	out := make([]string, 0, len(Sources))
	for _, s := range Sources {
		out = append(out, string(s))
	}
	return out
}
