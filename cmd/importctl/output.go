package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-faster/errors"

	"github.com/iota-uz/workbook-import/modules/importer/services"
)

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitFatal, errors.Wrap(err, "json encode"))
	}
	return nil
}

type sourceLine struct {
	Source          string   `json:"source"`
	BatchID         string   `json:"batch_id"`
	Created         int      `json:"created"`
	Updated         int      `json:"updated"`
	Skipped         int      `json:"skipped"`
	Errors          int      `json:"errors"`
	ErrorSamples    []string `json:"error_samples,omitempty"`
	DurationSeconds float64  `json:"duration_seconds"`
}

type totalsLine struct {
	BatchID string          `json:"batch_id"`
	Totals  services.Totals `json:"totals"`
}

func (a *cliApp) printReport(report *services.Report, maxErrors int) error {
	if report == nil {
		return nil
	}
	if a.opts.format != formatJSON {
		_, err := fmt.Fprintln(a.out, report.Summary(maxErrors))
		return err
	}
	for _, src := range report.Order {
		res := report.Results[src]
		if err := writeJSONLine(a.out, sourceLine{
			Source:          src.String(),
			BatchID:         res.BatchID,
			Created:         res.Created,
			Updated:         res.Updated,
			Skipped:         res.Skipped,
			Errors:          len(res.Errors),
			ErrorSamples:    res.ErrorsHead(maxErrors),
			DurationSeconds: res.Duration().Seconds(),
		}); err != nil {
			return err
		}
	}
	return writeJSONLine(a.out, totalsLine{BatchID: report.BatchID, Totals: report.Totals()})
}
