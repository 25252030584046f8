package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// SignInResult is returned by a successful sign-in.
type SignInResult struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

// AuthService signs users in with an external identity and resolves session tokens to users.
type AuthService struct {
	users    models.UserStore
	verifier IdentityVerifier
	sessions SessionManager
	now      func() time.Time
	logger   *log.Logger
}

// NewAuthService creates an auth service. verifier may be nil when no Google client is configured;
// sign-in then fails while session authentication keeps working.
func NewAuthService(users models.UserStore, verifier IdentityVerifier, sessions SessionManager, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AuthService{users: users, verifier: verifier, sessions: sessions, now: time.Now, logger: logger}
}

// SignIn verifies idToken, creates the user on first sight or refreshes name, picture and last
// login otherwise, and mints a session token.
func (a *AuthService) SignIn(ctx context.Context, idToken string) (*SignInResult, error) {
	const op = "auth.signin"

	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, shared.E(shared.KindValidation, op, fmt.Errorf("%w: Google ID token is required", shared.ErrMissingArgument))
	}
	if a.verifier == nil {
		return nil, shared.E(shared.KindUnknown, op, shared.ErrProviderUnavailable)
	}

	identity, err := a.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := a.users.FindByKey(ctx, "google_id", identity.SubjectID)
	switch {
	case err == nil:
		user.Refresh(identity, a.now())
	case errors.Is(err, shared.ErrUserNotFound):
		user = models.NewUser(identity, a.now())
		a.logger.Info("creating user", "user_id", user.ID, "email", user.Email)
	default:
		return nil, err
	}

	if err := a.users.Save(ctx, user); err != nil {
		return nil, err
	}

	token, err := a.sessions.Mint(user)
	if err != nil {
		return nil, shared.E(shared.KindUnknown, op, fmt.Errorf("failed to mint session: %w", err))
	}

	return &SignInResult{User: user.Profile(), Token: token}, nil
}

// Authenticate resolves a session token to its stored user. A valid token whose user no longer
// exists is rejected as an auth failure.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.authenticate"

	claims, err := a.sessions.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.E(shared.KindAuth, op, fmt.Errorf("token verification failed: %w", err))
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
