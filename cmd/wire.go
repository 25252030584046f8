package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/ytstream/internal/cache"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/repositories"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// enrichmentCache dials Redis when cache.redis_url is set. An unreachable Redis degrades to no caching.
func (r *Runner) enrichmentCache(ctx context.Context) cache.Cache {
	if r.cache != nil {
		return r.cache
	}

	r.cache = cache.Noop{}
	url := r.config.Cache.RedisURL
	if url == "" {
		return r.cache
	}

	rc, err := cache.Dial(ctx, url)
	if err != nil {
		r.logger.Warn("redis unavailable, enrichment cache disabled", "error", err)
		return r.cache
	}
	r.logger.Debug("enrichment cache connected")
	r.closers = append(r.closers, rc)
	r.cache = rc
	return r.cache
}

// catalogService returns the injected catalog or the Data API client described by the config.
func (r *Runner) catalogService(ctx context.Context) services.Catalog {
	if r.catalog != nil {
		return r.catalog
	}

	yt := r.config.Credentials.YouTube
	if yt.APIKey == "" {
		r.logger.Warn("youtube api_key is not set; catalog requests will be rejected upstream")
	}
	r.catalog = services.NewYouTubeService(services.YouTubeOptions{
		APIKey:     yt.APIKey,
		BaseURL:    yt.BaseURL,
		SuggestURL: yt.SuggestURL,
		Timeout:    r.config.Upstream.Timeout.Duration,
		MaxRetries: r.config.Upstream.MaxRetries,
		HTTPClient: r.httpClient,
		Cache:      r.enrichmentCache(ctx),
		CacheTTL:   r.config.Cache.TTL.Duration,
		Logger:     shared.WithLogger(r.logger, "service", "youtube"),
	})
	return r.catalog
}

// resolverService returns the injected resolver or an extractor-backed one reporting outcomes to observer.
func (r *Runner) resolverService(ctx context.Context, observer services.Observer) (services.StreamResolver, error) {
	if r.resolver != nil {
		return r.resolver, nil
	}

	yt := r.config.Credentials.YouTube
	headers, err := shared.LoadHeaderProfile(yt.HeadersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load header profile: %w", err)
	}

	timeout := r.config.Upstream.Timeout.Duration
	extractor := services.NewPlayerExtractor(services.ExtractorOptions{
		PlayerURL: yt.PlayerURL,
		Headers:   headers,
		Timeout:   timeout,
		Logger:    shared.WithLogger(r.logger, "service", "extractor"),
	})
	r.resolver = services.NewResolver(extractor, r.catalogService(ctx), services.ResolverOptions{
		Timeout:  timeout,
		Observer: observer,
		Logger:   shared.WithLogger(r.logger, "service", "resolver"),
	})
	return r.resolver, nil
}

// database opens the configured store and brings its schema up to date.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	cfg := r.config.Database
	db, err := shared.NewDatabase(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := shared.RunMigrations(db, cfg.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.closers = append(r.closers, db)
	r.db = db
	return db, nil
}

// users returns the user repository over [Runner.database].
func (r *Runner) users() (*repositories.UserRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewUserRepository(db, r.config.Database.Driver), nil
}

// authService builds sign-in over users. Without a Google client id sign-in is disabled but sessions still verify.
func (r *Runner) authService(ctx context.Context, users models.UserStore) (*services.AuthService, error) {
	if r.config.Session.Secret == "" {
		return nil, fmt.Errorf("%w: session.secret (or JWT_SECRET) must be set", shared.ErrMissingCredentials)
	}

	var verifier services.IdentityVerifier
	if clientID := r.config.Credentials.Google.ClientID; clientID != "" {
		gv, err := services.NewGoogleVerifier(ctx, clientID)
		if err != nil {
			r.logger.Warn("google sign-in disabled", "error", err)
		} else {
			verifier = gv
		}
	} else {
		r.logger.Warn("google client_id is not set; sign-in is disabled")
	}

	sessions := services.NewSessionIssuer(r.config.Session.Secret, r.config.Session.TTL.Duration)
	return services.NewAuthService(users, verifier, sessions, shared.WithLogger(r.logger, "service", "auth")), nil
}

// findUser resolves a user by id, or by email when key contains an @.
func (r *Runner) findUser(ctx context.Context, users models.UserStore, key string) (*models.User, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: --user is required", shared.ErrMissingArgument)
	}
	if strings.Contains(key, "@") {
		return users.FindByKey(ctx, "email", key)
	}
	return users.FindByID(ctx, key)
}
