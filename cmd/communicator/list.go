package main

import (
	"fmt"

	"github.com/joeycumines/go-communicator/internal/scenario"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   `list`,
		Short: `list the built-in scenarios`,
		Long: `Lists the built-in scenarios, with their shape, where S is a speaker, L is a
listener, and | marks steps that start late.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, s := range scenario.Builtin() {
				if _, err := fmt.Fprintf(w, "%-28s %-20s %s\n", s.Name, s.Shape(), s.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
