package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/config"
	"github.com/shpitdev/leadfinder/internal/gemini"
	"github.com/shpitdev/leadfinder/internal/logging"
	"github.com/shpitdev/leadfinder/internal/search"
)

// rootOptions carries global flags and the resolved config to subcommands.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	debug      bool

	// Flags shared by commands that call the model.
	model        string
	workers      int
	rateLimitRPS float64
	batchSize    int

	cfg config.Config
	log *zap.Logger

	newGenerator generatorFactory
}

type generatorFactory func(ctx context.Context, cfg config.Config, log *zap.Logger) (search.Generator, error)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(newGeminiGenerator)
}

func newRootCmdWith(newGenerator generatorFactory) *cobra.Command {
	opts := &rootOptions{newGenerator: newGenerator}

	root := &cobra.Command{
		Use:           "leadfinder",
		Short:         "Find business leads with grounded Gemini searches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(config.LoadOptions{ConfigPath: opts.configPath, EnvFile: opts.envFile})
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if opts.debug {
				cfg.LogLevel = "debug"
			}
			if cmd.Flags().Changed("model") {
				cfg.Gemini.Model = opts.model
			}
			if cmd.Flags().Changed("workers") {
				cfg.Search.Workers = opts.workers
			}
			if cmd.Flags().Changed("rate-limit-rps") {
				cfg.Search.RateLimitRPS = opts.rateLimitRPS
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Search.EnrichBatchSize = opts.batchSize
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.cfg = cfg
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file (env: LEADFINDER_CONFIG)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	pf.BoolVar(&opts.debug, "debug", false, "Shorthand for --log-level=debug")
	pf.StringVar(&opts.model, "model", gemini.DefaultModel, "Gemini model name (env: GEMINI_MODEL)")
	pf.IntVar(&opts.workers, "workers", 4, "Concurrent enrichment batches (env: WORKERS)")
	pf.Float64Var(&opts.rateLimitRPS, "rate-limit-rps", 0, "Global model request rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	pf.IntVar(&opts.batchSize, "batch-size", 25, "Leads per enrichment prompt (env: ENRICH_BATCH_SIZE)")

	root.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newEnrichCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newGeminiGenerator(ctx context.Context, cfg config.Config, log *zap.Logger) (search.Generator, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return gemini.New(ctx, gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		BaseURL:     cfg.Gemini.BaseURL,
		DisableMaps: cfg.Gemini.DisableMaps,
		Logger:      log,
	})
}

// orchestrator builds the search orchestrator from the resolved config.
func (o *rootOptions) orchestrator(ctx context.Context) (*search.Orchestrator, error) {
	gen, err := o.newGenerator(ctx, o.cfg, o.log)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return search.New(gen, o.log, search.Options{
		EnrichBatchSize: o.cfg.Search.EnrichBatchSize,
		Workers:         o.cfg.Search.Workers,
		RateLimitRPS:    o.cfg.Search.RateLimitRPS,
	}), nil
}
