package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/ytstream/internal/repositories"
	"github.com/desertthunder/ytstream/internal/server"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return err
	}

	users, err := r.users()
	if err != nil {
		return err
	}

	auth, err := r.authService(ctx, users)
	if err != nil {
		return err
	}

	metrics := server.NewMetrics()
	resolver, err := r.resolverService(ctx, metrics)
	if err != nil {
		return err
	}

	api := server.NewAPI(server.Deps{
		Catalog:  r.catalogService(ctx),
		Resolver: resolver,
		Sessions: auth,
		History:  repositories.NewHistoryStore(users, time.Now),
		Metrics:  metrics,
		Logger:   shared.WithLogger(r.logger, "component", "http"),
	}, server.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		RateWindow:     config.RateLimit.Window.Duration,
		RateMax:        config.RateLimit.MaxRequests,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting ytstream",
		"addr", config.Server.Addr(),
		"database", config.Database.Driver,
		"cache", config.Cache.RedisURL != "",
		"sign_in", config.Credentials.Google.ClientID != "",
	)
	return server.Run(ctx, config.Server.Addr(), api, r.logger)
}
