// Package cli defines the newsrouter command tree.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/techbeetle/news-router/internal/app"
	"github.com/techbeetle/news-router/internal/config"
	"github.com/techbeetle/news-router/internal/logger"
)

// Version is stamped at build time.
var Version = "dev"

// NewRootCommand wires every subcommand.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "newsrouter",
		Short:         "Technology news aggregation and rewrite service",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Version: Version,
	}

	rootCmd.AddCommand(
		NewServeCommand(),
		NewIngestCommand(),
		NewWarmCommand(),
		NewMigrateCommand(),
	)
	return rootCmd
}

// session is the config, logger and runtime every subcommand starts from.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	runtime *app.Runtime
}

func (s *session) close() {
	if s.runtime != nil {
		if err := s.runtime.Close(); err != nil {
			s.log.ErrorObj("runtime close failed", "error", err.Error())
		}
	}
	_ = logger.Close()
}

// startSession loads config and the logger; withRuntime also builds the pipeline.
func startSession(ctx context.Context, name string, withRuntime bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.InfoObj(name+" starting", "config", cfg)

	s := &session{cfg: cfg, log: log}
	if !withRuntime {
		return s, nil
	}

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err.Error())
		s.close()
		return nil, err
	}
	s.runtime = rt
	return s, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
