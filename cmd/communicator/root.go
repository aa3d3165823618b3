package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joeycumines/go-communicator/internal/config"
	"github.com/joeycumines/go-communicator/internal/report"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errFailed is returned when at least one run did not pass, the details of
// which have already been printed.
var errFailed = errors.New(`one or more runs failed`)

type (
	rootOptions struct {
		logger     *logiface.Logger[logiface.Event]
		reportPath string
		configPath string
		logLevel   levelFlag
	}

	// levelFlag is a pflag.Value accepting the short keywords of
	// logiface.Level, e.g. "info".
	levelFlag logiface.Level
)

var _ pflag.Value = (*levelFlag)(nil)

func newRootCommand() *cobra.Command {
	opts := rootOptions{logLevel: levelFlag(logiface.LevelWarning)}

	cmd := &cobra.Command{
		Use:   `communicator`,
		Short: `communicator - exercise a synchronous rendezvous channel`,
		Long: `Runs scenarios against a rendezvous channel, where each send blocks until
a receiver has taken the value, verifying that every value is delivered
exactly once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = newLogger(cmd.ErrOrStderr(), logiface.Level(opts.logLevel))
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.Var(&opts.logLevel, `log-level`, `log level, one of disabled, emerg, alert, crit, err, warning, notice, info, debug, trace`)
	flags.StringVar(&opts.reportPath, `report`, ``, `write a JSON report to this path`)
	flags.StringVar(&opts.configPath, `config`, ``, `load configuration from this TOML or YAML file`)

	cmd.AddCommand(
		newListCommand(),
		newRunCommand(&opts),
		newSoakCommand(&opts),
	)

	return cmd
}

func newLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// loadConfig returns the zero value if no config file was provided.
func (x *rootOptions) loadConfig() (*config.File, error) {
	if x.configPath == `` {
		return new(config.File), nil
	}
	return config.Load(x.configPath)
}

// finish sets the elapsed time and writes the report, if a path was
// provided, then returns errFailed if any run failed.
func (x *rootOptions) finish(r *report.Report) error {
	r.Elapsed = time.Since(r.Started)
	if x.reportPath != `` {
		if err := report.Write(x.reportPath, r); err != nil {
			return err
		}
		x.logger.Info().Str(`path`, x.reportPath).Log(`wrote report`)
	}
	if !r.OK() {
		return fmt.Errorf(`%w: %d of %d`, errFailed, r.Failed(), len(r.Runs))
	}
	return nil
}

func (x *levelFlag) String() string { return logiface.Level(*x).String() }

func (x *levelFlag) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == s {
			*x = levelFlag(level)
			return nil
		}
	}
	return fmt.Errorf(`invalid log level %q`, s)
}

func (x *levelFlag) Type() string { return `level` }
