package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
)

// Result tracks the outcome of one importer run. Counters only grow; Errors
// keeps every message and callers cap what they display.
type Result struct {
	Source     domain.Source
	BatchID    string
	Created    int
	Updated    int
	Skipped    int
	Errors     []string
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewResult(source domain.Source, batchID string, startedAt time.Time) *Result {
	return &Result{Source: source, BatchID: batchID, StartedAt: startedAt}
}

func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) TotalProcessed() int {
	return r.Created + r.Updated + r.Skipped
}

func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Finish stamps the end time. Calling it again overwrites the stamp.
func (r *Result) Finish(at time.Time) {
	r.FinishedAt = at
}

func (r *Result) Finished() bool {
	return !r.FinishedAt.IsZero()
}

func (r *Result) Duration() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrorsHead returns at most limit errors. A negative limit returns all.
func (r *Result) ErrorsHead(limit int) []string {
	if limit < 0 || len(r.Errors) <= limit {
		return append([]string(nil), r.Errors...)
	}
	return append([]string(nil), r.Errors[:limit]...)
}

// Merge adds other's counters and errors to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

func (r *Result) Summary(maxErrors int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Import complete", r.Source)
	if r.Finished() {
		fmt.Fprintf(&b, " in %.1fs", r.Duration().Seconds())
	}
	fmt.Fprintf(&b, "\n  Created: %d", r.Created)
	fmt.Fprintf(&b, "\n  Updated: %d", r.Updated)
	fmt.Fprintf(&b, "\n  Skipped: %d", r.Skipped)
	fmt.Fprintf(&b, "\n  Errors:  %d", len(r.Errors))
	for _, e := range r.ErrorsHead(maxErrors) {
		fmt.Fprintf(&b, "\n    ⚠ %s", e)
	}
	if maxErrors >= 0 && len(r.Errors) > maxErrors {
		fmt.Fprintf(&b, "\n    ... and %d more", len(r.Errors)-maxErrors)
	}
	return b.String()
}

// Report collects the results of one orchestrated run in execution order.
type Report struct {
	BatchID string
	Order   []domain.Source
	Results map[domain.Source]*Result
}

func NewReport(batchID string) *Report {
	return &Report{BatchID: batchID, Results: make(map[domain.Source]*Result)}
}

func (r *Report) Add(res *Result) {
	if _, seen := r.Results[res.Source]; !seen {
		r.Order = append(r.Order, res.Source)
	}
	r.Results[res.Source] = res
}

type Totals struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
	Sources int `json:"sources"`
}

func (r *Report) Totals() Totals {
	t := Totals{Sources: len(r.Order)}
	for _, src := range r.Order {
		res := r.Results[src]
		t.Created += res.Created
		t.Updated += res.Updated
		t.Skipped += res.Skipped
		t.Errors += len(res.Errors)
	}
	return t
}

func (r *Report) HasErrors() bool {
	return r.Totals().Errors > 0
}

func (r *Report) Summary(maxErrors int) string {
	var b strings.Builder
	for _, src := range r.Order {
		b.WriteString(r.Results[src].Summary(maxErrors))
		b.WriteString("\n\n")
	}
	t := r.Totals()
	fmt.Fprintf(&b, "IMPORT SUMMARY (%s)\n", r.BatchID)
	fmt.Fprintf(&b, "  Total created:  %d\n", t.Created)
	fmt.Fprintf(&b, "  Total updated:  %d\n", t.Updated)
	fmt.Fprintf(&b, "  Total skipped:  %d\n", t.Skipped)
	fmt.Fprintf(&b, "  Total errors:   %d\n", t.Errors)
	fmt.Fprintf(&b, "  Sources run:    %d", t.Sources)
	return b.String()
}
