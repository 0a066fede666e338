package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shpitdev/leadfinder/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leadfinder %s (%s)\n", version.Current, version.Commit)
		},
	}
}
