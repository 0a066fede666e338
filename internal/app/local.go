package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shpitdev/leadfinder/internal/export"
	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/search"
)

// RunSearch runs one discovery outside any session and writes the leads as CSV
// to w. The discovery is returned even on ErrNothingParsed so callers can show
// the raw reply.
func RunSearch(ctx context.Context, searcher Searcher, params lead.SearchParams, w io.Writer) (search.Discovery, error) {
	disc, err := searcher.Discover(ctx, params)
	if err != nil {
		return disc, err
	}
	if err := export.WriteCSV(w, disc.Leads); err != nil {
		return disc, fmt.Errorf("write csv: %w", err)
	}
	return disc, nil
}

// RunEnrich reads a lead CSV, enriches every row and writes the merged leads
// to outputPath in export format.
func RunEnrich(ctx context.Context, searcher Searcher, inputPath, outputPath string) (int, error) {
	inF, err := os.Open(inputPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = inF.Close()
	}()

	leads, err := export.ReadCSV(inF)
	if err != nil {
		return 0, err
	}

	res, err := searcher.Enrich(ctx, leads)
	if err != nil {
		return 0, err
	}
	merged := lead.EnrichMerge(leads, res.Results)

	outF, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = outF.Close()
	}()

	if err := export.WriteCSV(outF, merged); err != nil {
		return 0, err
	}
	return len(res.Results), outF.Close()
}
