// Package search turns search criteria and lead selections into prompts, sends
// them to a text generator, and parses the replies into records.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/gemini"
	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/markdown"
	"github.com/shpitdev/leadfinder/internal/util"
	"github.com/shpitdev/leadfinder/internal/worker"
)

var (
	// ErrInvalidParams wraps a SearchParams validation failure. No call was made.
	ErrInvalidParams = errors.New("invalid search parameters")
	// ErrRequestFailed means the generator call failed. The cause is logged,
	// not returned.
	ErrRequestFailed = errors.New("request failed")
	// ErrNothingParsed means the call succeeded but no table rows were found.
	ErrNothingParsed = errors.New("nothing parsed from response")
	// ErrEmptySelection means Enrich was called without leads.
	ErrEmptySelection = errors.New("no leads selected")
)

// Generator sends one prompt and returns the model's free-form reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type Options struct {
	// EnrichBatchSize caps how many leads go into one enrichment prompt.
	// Values <= 0 mean 25.
	EnrichBatchSize int
	// Workers caps concurrent enrichment batches. Values <= 0 mean 4.
	Workers int
	// RateLimitRPS is a global limit on enrichment calls. <=0 disables.
	RateLimitRPS float64
	// NewID overrides lead ID generation (tests).
	NewID markdown.IDFunc
}

func (o Options) withDefaults() Options {
	if o.EnrichBatchSize <= 0 {
		o.EnrichBatchSize = 25
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Discovery is the outcome of a successful discovery call.
type Discovery struct {
	Leads   []lead.Lead
	RawText string
}

// Enrichment is the outcome of a successful enrichment call.
type Enrichment struct {
	Results []lead.EnrichmentResult
	RawText string
}

type Orchestrator struct {
	gen  Generator
	log  *zap.Logger
	opts Options
}

func New(gen Generator, log *zap.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{gen: gen, log: log.Named("search"), opts: opts.withDefaults()}
}

// Discover validates params, asks the generator for a lead table and parses it.
//
// A successful call with zero parsed rows returns ErrNothingParsed together with
// the raw text.
func (o *Orchestrator) Discover(ctx context.Context, params lead.SearchParams) (Discovery, error) {
	if err := params.Validate(); err != nil {
		return Discovery{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	params = params.Normalize()

	start := time.Now()
	text, err := o.gen.Generate(ctx, DiscoveryPrompt(params))
	if err != nil {
		o.logFailure("discovery", err, time.Since(start))
		return Discovery{}, ErrRequestFailed
	}

	leads := markdown.ParseLeadsWithIDs(text, o.opts.NewID)
	o.log.Info("discovery complete",
		zap.String("keyword", params.Keyword),
		zap.String("city", params.City),
		zap.Int("limit", params.Limit),
		zap.Int("parsed", len(leads)),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
	if len(leads) == 0 {
		return Discovery{RawText: text}, ErrNothingParsed
	}
	return Discovery{Leads: leads, RawText: text}, nil
}

// Enrich asks the generator for the email and website of every lead.
//
// Leads are sent in batches of Options.EnrichBatchSize. Each batch is one call;
// if any call fails the whole enrichment fails with ErrRequestFailed and no
// results are returned.
func (o *Orchestrator) Enrich(ctx context.Context, leads []lead.Lead) (Enrichment, error) {
	if len(leads) == 0 {
		return Enrichment{}, ErrEmptySelection
	}

	start := time.Now()
	batches := worker.Chunk(leads, o.opts.EnrichBatchSize)
	out, err := worker.ProcessAll(ctx, batches, func(ctx context.Context, batch []lead.Lead) (Enrichment, error) {
		text, err := o.gen.Generate(ctx, EnrichmentPrompt(batch))
		if err != nil {
			return Enrichment{}, err
		}
		return Enrichment{Results: markdown.ParseEnrichment(text), RawText: text}, nil
	}, worker.Options{Workers: o.opts.Workers, RateLimitRPS: o.opts.RateLimitRPS})
	if err != nil {
		o.logFailure("enrichment", err, time.Since(start))
		return Enrichment{}, ErrRequestFailed
	}

	var merged Enrichment
	raw := make([]string, 0, len(out))
	for _, r := range out {
		merged.Results = append(merged.Results, r.Output.Results...)
		raw = append(raw, r.Output.RawText)
	}
	merged.RawText = strings.Join(raw, "\n\n")

	o.log.Info("enrichment complete",
		zap.Int("leads", len(leads)),
		zap.Int("batches", len(batches)),
		zap.Int("parsed", len(merged.Results)),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
	if len(merged.Results) == 0 {
		return merged, ErrNothingParsed
	}
	return merged, nil
}

func (o *Orchestrator) logFailure(op string, err error, elapsed time.Duration) {
	o.log.Error(op+" request failed",
		zap.String("error", util.RedactSecrets(err.Error())),
		zap.Bool("transient", gemini.IsTransient(err)),
		zap.Duration("duration", elapsed.Round(time.Millisecond)),
	)
}
