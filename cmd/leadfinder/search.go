package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shpitdev/leadfinder/internal/app"
	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/search"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		params  lead.SearchParams
		output  string
		showRaw bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one discovery and write the leads as CSV",
		Example: `  leadfinder search --keyword bakery --city Lyon --country France --limit 20
  leadfinder search --instructions "family-run bike repair shops in Utrecht" --output leads.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := params.Validate(); err != nil {
				return err
			}
			orch, err := opts.orchestrator(ctx)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			disc, err := app.RunSearch(ctx, orch, params, &buf)
			if showRaw && disc.RawText != "" {
				printRaw(cmd.ErrOrStderr(), disc.RawText)
			}
			switch {
			case errors.Is(err, search.ErrNothingParsed):
				return errors.New("could not parse any leads from the search results; try refining your keywords or location")
			case errors.Is(err, search.ErrRequestFailed):
				return errors.New("failed to fetch leads, please try again")
			case err != nil:
				return err
			}
			if output == "" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d leads to %s\n", len(disc.Leads), output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&params.Keyword, "keyword", "", "Business type or keyword")
	f.StringVar(&params.City, "city", "", "City to search in")
	f.StringVar(&params.Country, "country", "", "Country to search in")
	f.IntVar(&params.Limit, "limit", lead.DefaultLimit, "Number of leads to ask for: 5, 10, 20, 30, 50, 75 or 100")
	f.StringVar(&params.Instructions, "instructions", "", "Free-text request, replaces or refines keyword/city")
	f.StringVarP(&output, "output", "o", "", "Output CSV path (default: stdout)")
	f.BoolVar(&showRaw, "show-raw", false, "Print the model's reply to stderr")
	return cmd
}
