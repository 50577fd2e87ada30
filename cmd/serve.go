package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/config"
	"github.com/sohta/kotoba/internal/engine"
	"github.com/sohta/kotoba/internal/jobs"
	"github.com/sohta/kotoba/internal/llm"
	"github.com/sohta/kotoba/internal/logger"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/runlock"
	"github.com/sohta/kotoba/internal/selector"
	"github.com/sohta/kotoba/internal/server"
	"github.com/sohta/kotoba/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background sweeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides KOTOBA_HTTP_ADDR)")
}

// runServe wires store, LLM chain, engine, jobs and HTTP server, then
// blocks until a signal or a server error.
func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return fmt.Errorf("prepare database dir: %w", err)
		}
		cfg.DBPath = p
	}
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		cfg.HTTPAddr = a
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	chain, err := llm.NewChain(ctx, cfg.LLM, st.EventRepo())
	if err != nil {
		return fmt.Errorf("LLM providers: %w", err)
	}
	sel := selector.New(chain, chain[0], selector.Config{})

	deps := engine.Deps{
		Store:           st,
		Selector:        sel,
		SchedulerConfig: memory.Config{RequestedRetention: cfg.RequestedRetention},
		Logger:          log,
	}
	if cfg.RedisAddr != "" {
		locker, err := runlock.NewRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis lock: %w", err)
		}
		defer locker.Close()
		deps.Locker = locker
	}

	eng, err := engine.New(deps, engine.Config{})
	if err != nil {
		return err
	}

	runner := jobs.New(eng, log, cfg.Jobs)
	if err := runner.Start(); err != nil {
		return fmt.Errorf("start background jobs: %w", err)
	}
	defer runner.Stop()

	srv := server.New(eng, log, cfg.LogMode)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(cfg.HTTPAddr) }()
	log.Info("kotoba serving",
		"addr", cfg.HTTPAddr,
		"provider", cfg.LLM.Provider,
		"chain_len", len(chain),
		"redis", cfg.RedisAddr != "")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
