package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// DefaultSessionTTL is the validity of a session token.
const DefaultSessionTTL = 30 * 24 * time.Hour

type sessionClaims struct {
	UserID   string `json:"userId"`
	GoogleID string `json:"googleId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// SessionIssuer implements [SessionManager] with HS256 JWTs.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer creates an issuer. A zero ttl means [DefaultSessionTTL].
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint signs a session token for user.
func (s *SessionIssuer) Mint(user *models.User) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: session secret is not set", shared.ErrMissingCredentials)
	}

	now := s.now()
	claims := &sessionClaims{
		UserID:   user.ID,
		GoogleID: user.GoogleID,
		Email:    user.Email,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry.
func (s *SessionIssuer) Verify(token string) (*models.SessionClaims, error) {
	const op = "session.verify"

	if token == "" {
		return nil, shared.E(shared.KindAuth, op, shared.ErrNotAuthenticated)
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.E(shared.KindAuth, op, shared.ErrSessionExpired)
		}
		return nil, shared.E(shared.KindAuth, op, fmt.Errorf("%w: %v", shared.ErrInvalidSessionToken, err))
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, shared.E(shared.KindAuth, op, shared.ErrInvalidSessionToken)
	}

	return &models.SessionClaims{
		UserID:    claims.UserID,
		GoogleID:  claims.GoogleID,
		Email:     claims.Email,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
