package app

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	transporthttp "github.com/vovakirdan/wirechat-presence/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Coordinator
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	hub := core.NewCoordinator(core.Options{
		DefaultRoom: cfg.DefaultRoom,
		Logger:      logger,
	})
	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}
}

// Hub exposes the coordinator backing the server.
func (a *App) Hub() *core.Coordinator {
	return a.hub
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
// Open websocket connections are cancelled together with ctx.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		stats := a.hub.Stats()
		a.log.Info().
			Int("sessions", stats.Sessions).
			Uint64("delivered", stats.Delivered).
			Uint64("dropped", stats.Dropped).
			Msg("hub drained")
		return <-serverErr
	}
}
