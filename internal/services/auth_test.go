package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	identity := models.Identity{SubjectID: "google-1", Email: "ada@example.com", Name: "Ada", Picture: "https://example.com/a.png"}
	sessions := NewSessionIssuer("secret", 0)

	t.Run("first sign-in creates the user", func(t *testing.T) {
		users := newMemoryUsers()
		svc := NewAuthService(users, stubVerifier{identity: identity}, sessions, nil)

		result, err := svc.SignIn(ctx, "id-token")
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if result.User.ID == "" || result.User.GoogleID != "google-1" || result.User.Email != "ada@example.com" {
			t.Errorf("unexpected profile: %+v", result.User)
		}
		if result.Token == "" {
			t.Fatal("expected a session token")
		}
		if len(users.users) != 1 {
			t.Errorf("expected 1 stored user, got %d", len(users.users))
		}

		claims, err := sessions.Verify(result.Token)
		if err != nil {
			t.Fatalf("minted token does not verify: %v", err)
		}
		if claims.UserID != result.User.ID {
			t.Errorf("token user %q, profile user %q", claims.UserID, result.User.ID)
		}
	})

	t.Run("returning sign-in refreshes profile", func(t *testing.T) {
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		existing := &models.User{
			ID: "user-1", GoogleID: "google-1", Email: "ada@example.com", Name: "Old Name",
			CreatedAt: created, LastLoginAt: created,
			WatchHistory: []models.WatchHistoryEntry{{VideoID: "dQw4w9WgXcQ", Title: "t", Thumbnail: "th", ChannelTitle: "c", WatchedAt: created}},
		}
		users := newMemoryUsers(existing)
		svc := NewAuthService(users, stubVerifier{identity: identity}, sessions, nil)
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		result, err := svc.SignIn(ctx, "id-token")
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if result.User.ID != "user-1" || result.User.Name != "Ada" || result.User.Picture != identity.Picture {
			t.Errorf("unexpected profile: %+v", result.User)
		}

		stored := users.users["user-1"]
		if !stored.LastLoginAt.Equal(now) || !stored.CreatedAt.Equal(created) {
			t.Errorf("unexpected timestamps: created %v, last login %v", stored.CreatedAt, stored.LastLoginAt)
		}
		if len(stored.WatchHistory) != 1 {
			t.Errorf("history should survive sign-in, got %d entries", len(stored.WatchHistory))
		}
	})

	t.Run("missing id token", func(t *testing.T) {
		svc := NewAuthService(newMemoryUsers(), stubVerifier{identity: identity}, sessions, nil)
		_, err := svc.SignIn(ctx, "   ")
		if shared.KindOf(err) != shared.KindValidation {
			t.Fatalf("expected validation kind, got %v", err)
		}
	})

	t.Run("verifier failure is propagated", func(t *testing.T) {
		bad := shared.E(shared.KindAuth, "identity.verify", shared.ErrInvalidExternalToken)
		users := newMemoryUsers()
		svc := NewAuthService(users, stubVerifier{err: bad}, sessions, nil)
		_, err := svc.SignIn(ctx, "id-token")
		if !errors.Is(err, shared.ErrInvalidExternalToken) {
			t.Fatalf("expected ErrInvalidExternalToken, got %v", err)
		}
		if users.saves != 0 {
			t.Error("nothing should be saved on a rejected token")
		}
	})

	t.Run("no verifier configured", func(t *testing.T) {
		svc := NewAuthService(newMemoryUsers(), nil, sessions, nil)
		if _, err := svc.SignIn(ctx, "id-token"); !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("authenticate resolves stored user", func(t *testing.T) {
		user := &models.User{ID: "user-1", GoogleID: "google-1", Email: "ada@example.com", Name: "Ada"}
		svc := NewAuthService(newMemoryUsers(user), nil, sessions, nil)
		token, err := sessions.Mint(user)
		if err != nil {
			t.Fatalf("Mint failed: %v", err)
		}

		got, err := svc.Authenticate(ctx, token)
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != "user-1" {
			t.Errorf("expected user-1, got %q", got.ID)
		}
	})

	t.Run("authenticate rejects token for deleted user", func(t *testing.T) {
		ghost := &models.User{ID: "ghost", GoogleID: "g", Email: "g@example.com", Name: "G"}
		svc := NewAuthService(newMemoryUsers(), nil, sessions, nil)
		token, err := sessions.Mint(ghost)
		if err != nil {
			t.Fatalf("Mint failed: %v", err)
		}

		_, err = svc.Authenticate(ctx, token)
		if shared.KindOf(err) != shared.KindAuth {
			t.Fatalf("expected auth kind, got %v", err)
		}
		if !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound in chain, got %v", err)
		}
	})

	t.Run("authenticate rejects garbage", func(t *testing.T) {
		svc := NewAuthService(newMemoryUsers(), nil, sessions, nil)
		if _, err := svc.Authenticate(ctx, "garbage"); shared.KindOf(err) != shared.KindAuth {
			t.Fatalf("expected auth kind, got %v", err)
		}
	})
}
