package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/services"
	"github.com/iota-uz/workbook-import/pkg/composables"
	"github.com/iota-uz/workbook-import/pkg/configuration"
	"github.com/iota-uz/workbook-import/pkg/logging"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type globalOptions struct {
	verbose  bool
	format   string
	envFiles []string
}

type cliApp struct {
	opts   globalOptions
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

func newCLIApp(out, errOut io.Writer) *cliApp {
	return &cliApp{out: out, errOut: errOut, now: time.Now}
}

func newRootCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Load the finance workbook and its satellite exports into the ERP database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch app.opts.format {
			case formatText, formatJSON:
				return nil
			default:
				return withCode(exitUsage, fmt.Errorf("invalid --format %q (expected text|json)", app.opts.format))
			}
		},
	}
	cmd.SetOut(app.out)
	cmd.SetErr(app.errOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.PersistentFlags().BoolVarP(&app.opts.verbose, "verbose", "v", false, "Log at debug level")
	cmd.PersistentFlags().StringVar(&app.opts.format, "format", formatText, "Output format: text|json")
	cmd.PersistentFlags().StringSliceVar(&app.opts.envFiles, "env-file", []string{".env", ".env.local"}, "Env files to load before reading the environment")

	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newSourceCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newSourcesCmd(app))
	cmd.AddCommand(newBatchesCmd(app))
	return cmd
}

func Execute() {
	app := newCLIApp(os.Stdout, os.Stderr)
	if err := newRootCmd(app).ExecuteContext(context.Background()); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// session is what a database-backed command needs: the loaded
// configuration, a logger and an open, migrated database in ctx.
type session struct {
	ctx    context.Context
	conf   *configuration.Configuration
	logger *logrus.Logger
	db     *persistence.Database
	close  func()
}

func (a *cliApp) open(ctx context.Context) (*session, error) {
	conf, err := configuration.Load(a.opts.envFiles)
	if err != nil {
		return nil, withCode(exitFatal, errors.Wrap(err, "load configuration"))
	}
	logger := conf.Logger()
	if conf.LogPath == "" {
		logger.SetOutput(a.errOut)
	}
	if a.opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cleanup := []func(){conf.Unload}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
	if conf.OpenTelemetry.Enabled {
		cleanup = append(cleanup, logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.Endpoint))
	}

	db, err := persistence.Open(ctx, conf.Database, logger)
	if err != nil {
		closeAll()
		return nil, withCode(exitFatal, errors.Wrap(err, "open database"))
	}
	cleanup = append(cleanup, func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("close database")
		}
	})
	if err := db.Migrate(ctx); err != nil {
		closeAll()
		return nil, withCode(exitFatal, errors.Wrap(err, "migrate database"))
	}

	ctx = composables.WithDB(ctx, db.DB)
	ctx = composables.WithPool(ctx, db.Pool())
	ctx = logging.WithLogger(ctx, logger)
	return &session{ctx: ctx, conf: conf, logger: logger, db: db, close: closeAll}, nil
}

func (s *session) deps(now func() time.Time) services.Deps {
	return services.Deps{
		Logger:  s.logger,
		Now:     now,
		Options: s.conf.Import,
	}
}
