// Command communicator exercises the rendezvous channel implemented by
// github.com/joeycumines/go-communicator, running the built-in scenarios, or
// soak tests with many concurrent speakers and listeners.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// respect container cpu and memory limits, both are best effort
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "communicator: maxprocs: %v\n", err)
	}
	// fails outside a cgroup, which is fine
	_, _ = memlimit.SetGoMemLimitWithOpts(memlimit.WithRatio(0.9))

	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "communicator: %v\n", err)
		return 1
	}
	return 0
}
