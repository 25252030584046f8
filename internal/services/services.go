package services

import (
	"context"

	"github.com/desertthunder/ytstream/internal/models"
)

// Catalog is the officially supported search and enrichment API.
type Catalog interface {
	// Search returns one page of video results for a non-blank query, joined with enrichment data.
	Search(ctx context.Context, query string, maxResults int, pageToken string) (*models.SearchResult, error)

	// VideoDetails returns enrichment records for the given identifiers, in upstream order.
	// Unknown identifiers are simply absent from the result.
	VideoDetails(ctx context.Context, ids ...string) ([]models.VideoDetails, error)

	// Suggestions returns at most 10 autocomplete strings. It never fails; errors yield an empty list.
	Suggestions(ctx context.Context, query string) []string
}

// Extractor fetches playable stream metadata for a single video through the unofficial player interface.
type Extractor interface {
	Extract(ctx context.Context, id string) (*models.PlayerInfo, error)
}

// StreamResolver turns a video identifier into a [models.VideoStreamBundle].
type StreamResolver interface {
	Resolve(ctx context.Context, id string) (*models.VideoStreamBundle, error)
}

// IdentityVerifier verifies an external ID token and returns its claims.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (models.Identity, error)
}

// SessionManager mints and verifies session tokens.
type SessionManager interface {
	Mint(user *models.User) (string, error)
	Verify(token string) (*models.SessionClaims, error)
}

// Observer receives resolution outcomes ("full", "degraded", "failed") for metrics.
type Observer interface {
	ObserveResolution(outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveResolution(string) {}
