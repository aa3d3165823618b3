package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-communicator"
	"github.com/joeycumines/logiface"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnbalanced indicates a scenario that cannot complete, because the
	// number of speakers and listeners differ, or it has unknown roles.
	ErrUnbalanced = errors.New(`scenario: unbalanced speakers and listeners`)

	// ErrDelivery indicates that the values received did not match the
	// values sent, i.e. a value was lost or duplicated.
	ErrDelivery = errors.New(`scenario: delivery mismatch`)
)

// Result models the outcome of Run.
type Result struct {
	Scenario string
	// Sent holds the values of speakers that returned, sorted.
	Sent []Word
	// Received holds the values of listeners that returned, sorted.
	Received []Word
	Elapsed  time.Duration
	Stats    communicator.Stats
	// Stuck is the number of goroutines that had not returned, if the run
	// was abandoned (context done).
	Stuck int
}

// Run performs the scenario against c, starting each step in its own
// goroutine, and verifying that every sent value was received exactly once.
//
// If ctx is done before every step returns, ctx.Err() is returned, along
// with a partial result. Goroutines blocked in c at that point remain blocked,
// as the communicator does not support cancellation. A nil result is
// returned only with ErrUnbalanced.
//
// The logger may be nil. Providing a nil ctx or c will cause a panic.
func Run(ctx context.Context, c *communicator.Communicator[Word], s Scenario, logger *logiface.Logger[logiface.Event]) (*Result, error) {
	if ctx == nil {
		panic(`scenario: nil context`)
	}
	if c == nil {
		panic(`scenario: nil communicator`)
	}

	if speakers, listeners := s.Counts(); speakers != listeners || speakers+listeners != len(s.Steps) {
		return nil, fmt.Errorf(`%w: %q has %d speakers and %d listeners`, ErrUnbalanced, s.Name, speakers, listeners)
	}

	if err := ctx.Err(); err != nil {
		return &Result{Scenario: s.Name, Stats: c.Stats()}, err
	}

	logger = logger.Clone().Str(`scenario`, s.Name).Logger()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		pending  atomic.Int32
		sent     []Word
		received []Word
		start    = time.Now()
		settle   = s.settle()
	)

	result := func() *Result {
		mu.Lock()
		defer mu.Unlock()
		r := Result{
			Scenario: s.Name,
			Sent:     slices.Clone(sent),
			Received: slices.Clone(received),
			Elapsed:  time.Since(start),
			Stats:    c.Stats(),
			Stuck:    int(pending.Load()),
		}
		slices.Sort(r.Sent)
		slices.Sort(r.Received)
		return &r
	}

	for i, step := range s.Steps {
		if i != 0 {
			if err := sleep(ctx, settle+step.Delay); err != nil {
				return result(), err
			}
		}

		pending.Add(1)
		g.Go(func() error {
			defer pending.Add(-1)
			switch step.Role {
			case Speaker:
				logger.Debug().Int(`step`, i).Int64(`value`, int64(step.Value)).Log(`speaking`)
				c.Send(step.Value)
				mu.Lock()
				sent = append(sent, step.Value)
				mu.Unlock()
				logger.Debug().Int(`step`, i).Int64(`value`, int64(step.Value)).Log(`spoke`)
			case Listener:
				logger.Debug().Int(`step`, i).Log(`listening`)
				value := c.Receive()
				mu.Lock()
				received = append(received, value)
				mu.Unlock()
				logger.Debug().Int(`step`, i).Int64(`value`, int64(value)).Log(`heard`)
			}
			return nil
		})
	}

	if err := Await(ctx, g.Wait); err != nil {
		r := result()
		logger.Warning().Int(`stuck`, r.Stuck).Err(err).Log(`scenario abandoned`)
		return r, err
	}

	r := result()
	if err := verify(r.Sent, r.Received); err != nil {
		return r, fmt.Errorf(`%w (%s)`, err, s.Name)
	}

	logger.Info().Int(`exchanges`, len(r.Sent)).Dur(`elapsed`, r.Elapsed).Log(`scenario passed`)

	return r, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
