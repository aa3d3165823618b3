package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-communicator"
	"github.com/joeycumines/go-communicator/internal/config"
	"github.com/joeycumines/go-communicator/internal/report"
	"github.com/joeycumines/go-communicator/internal/scenario"
	"github.com/joeycumines/logiface"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errLost indicates a soak that completed, but with values lost or duplicated.
var errLost = errors.New(`delivery mismatch`)

// maxPrealloc caps the initial capacity of the received values.
const maxPrealloc = 1 << 16

func newSoakCommand(opts *rootOptions) *cobra.Command {
	var flagCfg config.Soak

	cmd := &cobra.Command{
		Use:   `soak`,
		Short: `exchange many values between many speakers and listeners`,
		Long: `Shares one communicator between many speakers and listeners, for many rounds,
verifying that every value is delivered exactly once. Flags override the soak
section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg := mergeSoak(file.Soak, flagCfg, cmd.Flags().Changed)
			cfg = cfg.Resolved()
			if err := cfg.Validate(); err != nil {
				return err
			}

			r := report.Report{Command: `soak`, Started: time.Now()}
			r.Add(soakReport(cmd.Context(), cmd.OutOrStdout(), opts, cfg))
			return opts.finish(&r)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&flagCfg.Speakers, `speakers`, 0, fmt.Sprintf(`number of speakers (default %d)`, config.DefaultSpeakers))
	flags.IntVar(&flagCfg.Listeners, `listeners`, 0, fmt.Sprintf(`number of listeners (default %d)`, config.DefaultListeners))
	flags.IntVar(&flagCfg.Rounds, `rounds`, 0, fmt.Sprintf(`values sent per speaker (default %d)`, config.DefaultRounds))
	flags.DurationVar(&flagCfg.Timeout, `timeout`, 0, fmt.Sprintf(`overall timeout (default %s)`, config.DefaultTimeout))
	flags.DurationVar(&flagCfg.ProgressInterval, `progress-interval`, 0, fmt.Sprintf(`minimum interval between progress logs, per role (default %s)`, config.DefaultProgressInterval))

	return cmd
}

// mergeSoak overrides the file values with any flags that were set.
func mergeSoak(file, flags config.Soak, changed func(name string) bool) config.Soak {
	if changed(`speakers`) {
		file.Speakers = flags.Speakers
	}
	if changed(`listeners`) {
		file.Listeners = flags.Listeners
	}
	if changed(`rounds`) {
		file.Rounds = flags.Rounds
	}
	if changed(`timeout`) {
		file.Timeout = flags.Timeout
	}
	if changed(`progress-interval`) {
		file.ProgressInterval = flags.ProgressInterval
	}
	return file
}

func soakReport(ctx context.Context, w io.Writer, opts *rootOptions, cfg config.Soak) (report.Run, error) {
	name := fmt.Sprintf(`soak(%dx%dx%d)`, cfg.Speakers, cfg.Listeners, cfg.Rounds)
	result, err := soak(ctx, cfg, opts.logger)
	run := report.Run{
		Name:     name,
		Sent:     int(result.Stats.Sent),
		Received: len(result.Received),
		Elapsed:  result.Elapsed,
	}
	if err != nil {
		opts.logger.Err().Err(err).Int(`stuck`, result.Stuck).Log(`soak failed`)
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", failLabel(`FAIL`), name, err)
	} else {
		_, _ = fmt.Fprintf(w, "%s %s (%s)\n", passLabel(`PASS`), name, run.Elapsed.Round(time.Millisecond))
	}
	return run, err
}

type soakResult struct {
	// Received holds every value received, sorted.
	Received []int64
	Elapsed  time.Duration
	Stats    communicator.Stats
	Stuck    int
}

// soak runs cfg (which must be resolved and valid) against a new
// communicator. Speaker i sends i*Rounds through (i+1)*Rounds-1, so a
// successful soak receives exactly 0 through Total-1.
func soak(ctx context.Context, cfg config.Soak, logger *logiface.Logger[logiface.Event]) (*soakResult, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var (
		c        = communicator.New[int64](communicator.WithLogger(logger), communicator.WithName(`soak`))
		progress = catrate.NewLimiter(map[time.Duration]int{cfg.ProgressInterval: 1})
		g        errgroup.Group
		pending  atomic.Int32
		counts   [scenario.Listener + 1]atomic.Int64
		mu       sync.Mutex
		received = make([]int64, 0, min(cfg.Total(), maxPrealloc))
		start    = time.Now()
	)

	logProgress := func(role scenario.Role, worker int) {
		done := counts[role].Add(1)
		if _, ok := progress.Allow(role); ok {
			logger.Info().
				Str(`role`, role.String()).
				Int(`worker`, worker).
				Int64(`done`, done).
				Int(`total`, cfg.Total()).
				Log(`soak progress`)
		}
	}

	for i := 0; i < cfg.Listeners; i++ {
		share := cfg.Share(i)
		pending.Add(1)
		g.Go(func() error {
			defer pending.Add(-1)
			values := make([]int64, 0, min(share, maxPrealloc))
			for range share {
				values = append(values, c.Receive())
				logProgress(scenario.Listener, i)
			}
			mu.Lock()
			received = append(received, values...)
			mu.Unlock()
			return nil
		})
	}

	for i := 0; i < cfg.Speakers; i++ {
		base := int64(i) * int64(cfg.Rounds)
		pending.Add(1)
		g.Go(func() error {
			defer pending.Add(-1)
			for round := range cfg.Rounds {
				c.Send(base + int64(round))
				logProgress(scenario.Speaker, i)
			}
			return nil
		})
	}

	if err := scenario.Await(ctx, g.Wait); err != nil {
		// received is only partially populated, listeners append on exit
		mu.Lock()
		result := soakResult{
			Received: slices.Clone(received),
			Elapsed:  time.Since(start),
			Stats:    c.Stats(),
			Stuck:    int(pending.Load()),
		}
		mu.Unlock()
		slices.Sort(result.Received)
		return &result, err
	}

	result := soakResult{
		Received: received,
		Elapsed:  time.Since(start),
		Stats:    c.Stats(),
	}
	slices.Sort(result.Received)

	if err := checkRange(result.Received, cfg.Total()); err != nil {
		return &result, err
	}

	logger.Info().
		Int(`exchanges`, cfg.Total()).
		Dur(`elapsed`, result.Elapsed).
		Log(`soak passed`)

	return &result, nil
}

// checkRange verifies that received, which must be sorted, holds exactly the
// values 0 through total-1.
func checkRange(received []int64, total int) error {
	if len(received) != total {
		return fmt.Errorf(`%w: received %d of %d`, errLost, len(received), total)
	}
	for i, v := range received {
		if v != int64(i) {
			return fmt.Errorf(`%w: expected value %d, got %d`, errLost, i, v)
		}
	}
	return nil
}
