package scenario

import (
	"context"
	"fmt"
	"slices"
)

// Await calls wait in a new goroutine, returning its result, or ctx.Err() if
// ctx is done first. In the latter case wait is left running, as goroutines
// blocked on a communicator cannot be interrupted. Completion takes priority
// over ctx, if both are ready.
func Await(ctx context.Context, wait func() error) error {
	done := make(chan error, 1)
	go func() { done <- wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case err := <-done:
			return err
		default:
			return ctx.Err()
		}
	}
}

// verify checks that received is a permutation of sent, both of which must
// be sorted, returning an error wrapping ErrDelivery if not.
func verify(sent, received []Word) error {
	if slices.Equal(sent, received) {
		return nil
	}
	var lost, extra []Word
	i, j := 0, 0
	for i < len(sent) || j < len(received) {
		switch {
		case j == len(received) || (i < len(sent) && sent[i] < received[j]):
			lost = append(lost, sent[i])
			i++
		case i == len(sent) || received[j] < sent[i]:
			extra = append(extra, received[j])
			j++
		default:
			i++
			j++
		}
	}
	return fmt.Errorf(`%w: lost %v, unexpected %v`, ErrDelivery, lost, extra)
}
