package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/joeycumines/go-communicator"
	"github.com/joeycumines/go-communicator/internal/report"
	"github.com/joeycumines/go-communicator/internal/scenario"
	"github.com/spf13/cobra"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   `run [name...]`,
		Short: `run built-in scenarios, all of them if none are named`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := selectScenarios(args)
			if err != nil {
				return err
			}
			r := report.Report{Command: `run`, Started: time.Now()}
			for _, s := range scenarios {
				r.Add(runScenario(cmd.Context(), cmd.OutOrStdout(), opts, s, timeout))
			}
			return opts.finish(&r)
		},
	}

	cmd.Flags().DurationVar(&timeout, `timeout`, 10*time.Second, `per scenario timeout, after which it is considered deadlocked`)

	return cmd
}

func selectScenarios(names []string) ([]scenario.Scenario, error) {
	if len(names) == 0 {
		return scenario.Builtin(), nil
	}
	scenarios := make([]scenario.Scenario, 0, len(names))
	for _, name := range names {
		s, ok := scenario.Lookup(name)
		if !ok {
			return nil, fmt.Errorf(`unknown scenario %q`, name)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// runScenario uses a fresh communicator for each run, as an abandoned run
// leaves goroutines blocked on it.
func runScenario(ctx context.Context, w io.Writer, opts *rootOptions, s scenario.Scenario, timeout time.Duration) (report.Run, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := communicator.New[scenario.Word](
		communicator.WithLogger(opts.logger),
		communicator.WithName(s.Name),
	)

	result, err := scenario.Run(ctx, c, s, opts.logger)

	run := report.Run{Name: s.Name}
	if result != nil {
		run.Sent = len(result.Sent)
		run.Received = len(result.Received)
		run.Elapsed = result.Elapsed
	}

	if err != nil {
		opts.logger.Err().Str(`scenario`, s.Name).Err(err).Log(`scenario failed`)
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", failLabel(`FAIL`), s.Name, err)
	} else {
		_, _ = fmt.Fprintf(w, "%s %s (%s)\n", passLabel(`PASS`), s.Name, run.Elapsed.Round(time.Millisecond))
	}

	return run, err
}
