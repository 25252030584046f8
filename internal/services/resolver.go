package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// DegradedNotice is the description of a bundle resolved without playable formats.
const DegradedNotice = "Video streams temporarily unavailable. Please try again later."

// Resolution outcomes reported to the [Observer].
const (
	OutcomeFull     = "full"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

type strategy struct {
	name    string
	outcome string
	run     func(ctx context.Context, id string) (*models.VideoStreamBundle, error)
}

// ResolverOptions configures a [Resolver].
type ResolverOptions struct {
	Timeout  time.Duration // per strategy
	Observer Observer
	Logger   *log.Logger
}

// Resolver implements [StreamResolver] as an ordered chain of strategies: extraction first, then a
// metadata-only bundle from the catalog. The first strategy to succeed wins.
type Resolver struct {
	extractor  Extractor
	catalog    Catalog
	strategies []strategy
	timeout    time.Duration
	observer   Observer
	logger     *log.Logger
}

// NewResolver creates a resolver over extractor with catalog as the degraded fallback.
func NewResolver(extractor Extractor, catalog Catalog, opts ResolverOptions) *Resolver {
	r := &Resolver{
		extractor: extractor,
		catalog:   catalog,
		timeout:   lo.CoalesceOrEmpty(opts.Timeout, defaultUpstreamLimit),
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
	if r.observer == nil {
		r.observer = noopObserver{}
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	r.strategies = []strategy{
		{name: "extraction", outcome: OutcomeFull, run: r.extract},
		{name: "degraded", outcome: OutcomeDegraded, run: r.degrade},
	}
	return r
}

// Resolve validates id and runs the strategy chain.
//
// Malformed identifiers fail with [shared.KindValidation] before any upstream call. When every
// strategy fails the error is [shared.KindResolutionFailed] and wraps each strategy's error, the
// extraction error first, so [shared.Cause] reports what went wrong upstream.
func (r *Resolver) Resolve(ctx context.Context, id string) (*models.VideoStreamBundle, error) {
	const op = "resolver.resolve"

	if !shared.ValidVideoID(id) {
		return nil, shared.E(shared.KindValidation, op, shared.ErrInvalidIdentifier)
	}

	errs := make([]error, 0, len(r.strategies))
	for _, s := range r.strategies {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		bundle, err := s.run(sctx, id)
		cancel()

		if err == nil {
			if s.outcome != OutcomeFull {
				r.logger.Warn("serving degraded stream bundle", "video_id", id, "cause", errors.Join(errs...))
			}
			r.observer.ObserveResolution(s.outcome)
			return bundle, nil
		}

		r.logger.Debug("resolution strategy failed", "video_id", id, "strategy", s.name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	r.observer.ObserveResolution(OutcomeFailed)
	r.logger.Error("stream resolution failed", "video_id", id, "error", errors.Join(errs...))
	return nil, shared.E(shared.KindResolutionFailed, op, fmt.Errorf("%w: %w", shared.ErrResolutionFailed, errors.Join(errs...)))
}

func (r *Resolver) extract(ctx context.Context, id string) (*models.VideoStreamBundle, error) {
	info, err := r.extractor.Extract(ctx, id)
	if err != nil {
		return nil, err
	}
	if info.IsLive {
		return nil, shared.E(shared.KindLiveUnsupported, "resolver.extract", shared.ErrLiveStream)
	}

	formats, err := SelectFormats(info.Formats)
	if err != nil {
		return nil, err
	}

	return &models.VideoStreamBundle{
		Title:       info.Title,
		Description: info.Description,
		Duration:    info.LengthSeconds,
		Thumbnail:   info.Thumbnail,
		Formats:     formats,
	}, nil
}

func (r *Resolver) degrade(ctx context.Context, id string) (*models.VideoStreamBundle, error) {
	details, err := r.catalog.VideoDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, shared.E(shared.KindNotFound, "resolver.degrade", shared.ErrVideoUnavailable)
	}

	return &models.VideoStreamBundle{
		Title:       "Video: " + id,
		Description: DegradedNotice,
		Duration:    lo.CoalesceOrEmpty(details[0].Duration, UnknownDuration),
		Thumbnail:   shared.ThumbnailURL(id),
		Formats:     []models.StreamFormat{},
	}, nil
}
