package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytstream/internal/services"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Catalog  services.Catalog
	Resolver services.StreamResolver
	Sessions SessionService
	History  HistoryService
	Metrics  *Metrics
	Logger   *log.Logger
}

// Options configures the API surface.
type Options struct {
	AllowedOrigins []string
	RateWindow     time.Duration
	RateMax        int
}

// NewAPI wires every route behind the shared middleware stack:
// recover, request logging, metrics, CORS and the per-client rate limit on /api/.
func NewAPI(deps Deps, opts Options) *BasicRouter {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(
		Recover(deps.Logger),
		RequestLogger(deps.Logger),
		deps.Metrics.Middleware(),
		CORS(opts.AllowedOrigins),
		NewRateLimiter(opts.RateWindow, opts.RateMax).Middleware("/api/"),
	)

	router.Handler(NewAuthHandler(deps.Sessions, deps.History))
	router.Handler(NewYouTubeHandler(deps.Catalog, deps.Resolver))
	router.Handle(http.MethodGet, "/health", HealthHandler(time.Now))
	router.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())
	router.NotFound(http.HandlerFunc(RouteNotFound))

	return router
}
