package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
)

func newMigrateCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the import tables",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if app.opts.format == formatJSON {
				return writeJSONLine(app.out, map[string]string{
					"status": "migrated",
					"driver": s.conf.Database.Driver,
				})
			}
			_, err = fmt.Fprintf(app.out, "database schema is up to date (%s)\n", s.conf.Database.Driver)
			return err
		},
	}
}

func newSourcesCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List import source names",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := domain.SourceNames()
			if app.opts.format == formatJSON {
				return writeJSONLine(app.out, map[string][]string{"sources": names})
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(app.out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type batchLine struct {
	ID       uint   `json:"id"`
	BatchID  string `json:"batch_id"`
	Source   string `json:"source"`
	Status   string `json:"status"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Finished string `json:"finished_at"`
}

func newBatchesCmd(app *cliApp) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List the most recent import batches",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			batches, err := persistence.NewImportBatchRepository().Recent(s.ctx, limit)
			if err != nil {
				return withCode(exitFatal, err)
			}
			for _, b := range batches {
				line := batchLine{
					ID:       b.ID,
					BatchID:  b.BatchID,
					Source:   b.Source,
					Status:   b.Status,
					Created:  b.Created,
					Updated:  b.Updated,
					Skipped:  b.Skipped,
					Errors:   b.ErrorCount,
					Finished: b.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
				}
				if app.opts.format == formatJSON {
					if err := writeJSONLine(app.out, line); err != nil {
						return err
					}
					continue
				}
				if _, err := fmt.Fprintf(app.out, "%-32s %-12s %-22s +%d ~%d =%d !%d\n",
					line.BatchID, line.Source, line.Status, line.Created, line.Updated, line.Skipped, line.Errors); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of batches to list")
	return cmd
}
