package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-presence/internal/app"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&serverFlags{}).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// serverFlags holds command-line values layered over the loaded config.
type serverFlags struct {
	configPath string
	overrides  config.Config
}

func newRootCmd(opts *serverFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wirechat-presence",
		Short:         "Room-scoped presence and messaging hub over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default: $WIRECHAT_CONFIG_DEFAULT_PATH or ./config.yaml)")
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.DefaultRoom, "default-room", "", "room every connection joins on connect")
	flags.StringVar(&opts.overrides.JWTSecret, "jwt-secret", "", "secret for signing identity tokens (empty disables tokens)")
	flags.DurationVar(&opts.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&opts.overrides.RateLimitBurst, "rate-limit-burst", 0, "inbound frames allowed per interval (0 disables rate limiting)")
	flags.DurationVar(&opts.overrides.RateLimitInterval, "rate-limit-interval", 0, "window over which the burst refills")

	return cmd
}

// apply layers flag values over cfg. An explicit --rate-limit-burst=0 disables the limiter.
func (f *serverFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	cfg.UpdateFrom(f.overrides)
	if cmd.Flags().Changed("rate-limit-burst") {
		cfg.RateLimitBurst = f.overrides.RateLimitBurst
	}
}

func run(cmd *cobra.Command, opts *serverFlags) error {
	bootLogger := log.New("info")

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		bootLogger.Error().Err(err).Str("path", path).Msg("invalid config")
		return fmt.Errorf("config %s: %w", path, err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("default_room", cfg.DefaultRoom).Bool("tokens", cfg.JWTSecret != "").Msg("config loaded")

	application := app.New(&cfg, logger)

	logger.Info().Str("addr", cfg.Addr).Msg("starting wirechat presence server")
	if err := application.Run(cmd.Context()); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
