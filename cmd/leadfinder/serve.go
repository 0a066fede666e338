package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/app"
	"github.com/shpitdev/leadfinder/internal/config"
	"github.com/shpitdev/leadfinder/internal/httpapi"
	"github.com/shpitdev/leadfinder/internal/session"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr      string
		backend   string
		redisAddr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}
			if cmd.Flags().Changed("session-backend") {
				cfg.Session.Backend = backend
			}
			if cmd.Flags().Changed("redis-addr") {
				cfg.Session.RedisAddr = redisAddr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			opts.cfg = cfg

			orch, err := opts.orchestrator(ctx)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(ctx, cfg.Session, opts.log)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := app.NewService(store, orch, opts.log)
			router := httpapi.NewRouter(svc, opts.log, httpapi.Options{CORSOrigins: cfg.HTTP.CORSOrigins})
			return httpapi.Serve(ctx, cfg.HTTP.Addr, router, opts.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (env: HTTP_ADDR)")
	cmd.Flags().StringVar(&backend, "session-backend", config.BackendMemory, "Session store: memory or redis (env: SESSION_BACKEND)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address for the redis backend (env: REDIS_ADDR)")
	return cmd
}

func openStore(ctx context.Context, cfg config.Session, log *zap.Logger) (session.Store, func(), error) {
	if cfg.Backend != config.BackendRedis {
		log.Info("using in-memory session store", zap.Duration("ttl", cfg.TTL))
		return session.NewMemoryStore(cfg.TTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("using redis session store", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return session.NewRedisStore(rdb, cfg.TTL), func() { _ = rdb.Close() }, nil
}
