package services

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// GoogleIssuer is the OpenID provider that issues the ID tokens clients sign in with.
const GoogleIssuer = "https://accounts.google.com"

// GoogleVerifier implements [IdentityVerifier] for Google ID tokens.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's signing keys and returns a verifier bound to clientID as audience.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: google client id is required", shared.ErrProviderUnavailable)
	}

	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}

	return &GoogleVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewStaticVerifier verifies tokens from issuer against a fixed key set, without discovery.
func NewStaticVerifier(issuer, clientID string, keys oidc.KeySet) *GoogleVerifier {
	return &GoogleVerifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

type googleClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify checks the token signature, issuer, audience and expiry and returns its identity claims.
func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (models.Identity, error) {
	const op = "identity.verify"

	if rawToken == "" {
		return models.Identity{}, shared.E(shared.KindAuth, op, shared.ErrInvalidExternalToken)
	}

	token, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		return models.Identity{}, shared.E(shared.KindAuth, op, fmt.Errorf("%w: %v", shared.ErrInvalidExternalToken, err))
	}

	var claims googleClaims
	if err := token.Claims(&claims); err != nil {
		return models.Identity{}, shared.E(shared.KindAuth, op, fmt.Errorf("%w: %v", shared.ErrInvalidExternalToken, err))
	}
	if claims.Subject == "" || claims.Email == "" {
		return models.Identity{}, shared.E(shared.KindAuth, op, fmt.Errorf("%w: missing subject or email", shared.ErrInvalidExternalToken))
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return models.Identity{SubjectID: claims.Subject, Email: claims.Email, Name: name, Picture: claims.Picture}, nil
}
