package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shpitdev/leadfinder/internal/app"
	"github.com/shpitdev/leadfinder/internal/search"
)

func newEnrichCmd(opts *rootOptions) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:     "enrich",
		Short:   "Fill in missing email and website for every lead in a CSV",
		Example: `  leadfinder enrich --input leads.csv --output enriched.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, err := opts.orchestrator(ctx)
			if err != nil {
				return err
			}
			n, err := app.RunEnrich(ctx, orch, input, output)
			switch {
			case errors.Is(err, search.ErrEmptySelection):
				return fmt.Errorf("%s contains no leads", input)
			case errors.Is(err, search.ErrNothingParsed):
				return errors.New("could not parse any enrichment results")
			case errors.Is(err, search.ErrRequestFailed):
				return errors.New("failed to enrich leads, please try again")
			case err != nil:
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "enriched %d leads into %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input lead CSV (export format, Name column required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV path")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
