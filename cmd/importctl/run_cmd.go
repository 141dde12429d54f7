package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/services"
	"github.com/iota-uz/workbook-import/pkg/configuration"
)

type runOptions struct {
	masterfile string
	budgets    string
	leads      string
	proposals  string
	jobs       string
	noSchedule bool
}

// inputs fills paths left empty on the command line from the environment.
func (o runOptions) inputs(conf configuration.ImportOptions) services.Inputs {
	pick := func(flag, env string) string {
		if flag != "" {
			return flag
		}
		return env
	}
	return services.Inputs{
		Masterfile:      pick(o.masterfile, conf.MasterfilePath),
		Jobs:            pick(o.jobs, conf.JobsPath),
		BudgetDir:       pick(o.budgets, conf.BudgetDir),
		Leads:           pick(o.leads, conf.LeadsPath),
		Proposals:       pick(o.proposals, conf.ProposalsPath),
		IncludeSchedule: !o.noSchedule,
	}
}

func newRunCmd(app *cliApp) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every import whose input exists, workbook first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			orch := services.NewOrchestrator(s.deps(app.now))
			report, runErr := orch.RunAll(s.ctx, opts.inputs(s.conf.Import))
			if err := app.printReport(report, s.conf.Import.SummaryErrors); err != nil {
				return err
			}
			if runErr != nil {
				return withCode(exitFatal, runErr)
			}
			if t := report.Totals(); t.Errors > 0 {
				return withCode(exitRowErrors, fmt.Errorf("import finished with %d errors", t.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.masterfile, "masterfile", "", "Masterfile workbook (.xlsx)")
	cmd.Flags().StringVar(&opts.budgets, "budgets", "", "Directory of budget CSV files")
	cmd.Flags().StringVar(&opts.leads, "leads", "", "Leads export (.xlsx)")
	cmd.Flags().StringVar(&opts.proposals, "proposals", "", "Lead proposals export (.xlsx)")
	cmd.Flags().StringVar(&opts.jobs, "jobs", "", "Open jobs and quotes workbook (.xlsx)")
	cmd.Flags().BoolVar(&opts.noSchedule, "no-schedule", false, "Skip the built-in project schedule")
	return cmd
}

func newSourceCmd(app *cliApp) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "source <name>",
		Short: "Run a single import source",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return withCode(exitUsage, fmt.Errorf("expected one source name, got %d args", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := domain.ParseSource(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}

			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if file == "" {
				file = configuredInput(source, s.conf.Import)
			}
			imp, err := services.NewImporter(source, s.deps(app.now), file)
			if err != nil {
				if errors.Is(err, domain.ErrMissingInput) {
					return withCode(exitUsage, errors.Wrap(err, "pass --file"))
				}
				return withCode(exitUsage, err)
			}
			res, runErr := imp.Run(s.ctx)
			if res != nil {
				report := services.NewReport(res.BatchID)
				report.Add(res)
				if err := app.printReport(report, s.conf.Import.SummaryErrors); err != nil {
					return err
				}
			}
			if runErr != nil {
				return withCode(exitFatal, runErr)
			}
			if res.HasErrors() {
				return withCode(exitRowErrors, fmt.Errorf("%s finished with %d errors", source, len(res.Errors)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file, or directory for budgets")
	return cmd
}

func configuredInput(source domain.Source, conf configuration.ImportOptions) string {
	switch source {
	case domain.SourceMasterfile:
		return conf.MasterfilePath
	case domain.SourceJobs:
		return conf.JobsPath
	case domain.SourceBudgets:
		return conf.BudgetDir
	case domain.SourceLeads:
		return conf.LeadsPath
	case domain.SourceProposals:
		return conf.ProposalsPath
	default:
		return ""
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return withCode(exitUsage, fmt.Errorf("%s takes no arguments, got %q", cmd.Name(), args))
	}
	return nil
}
