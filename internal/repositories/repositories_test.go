package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db, shared.DriverSQLite); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testUser(id string) *models.User {
	return &models.User{
		ID:           id,
		GoogleID:     "google-" + id,
		Email:        id + "@example.com",
		Name:         "User " + id,
		Picture:      "https://example.com/" + id + ".png",
		CreatedAt:    epoch,
		LastLoginAt:  epoch,
		WatchHistory: []models.WatchHistoryEntry{},
	}
}

func entry(videoID string, watchedAt time.Time) models.WatchHistoryEntry {
	return models.WatchHistoryEntry{
		VideoID:         videoID,
		Title:           "Title " + videoID,
		Thumbnail:       "https://img.example/" + videoID + ".jpg",
		ChannelTitle:    "Channel",
		Duration:        "3:32",
		WatchedAt:       watchedAt,
		WatchedDuration: 42,
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Save then FindByID", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		user := testUser("u1")
		user.WatchHistory = []models.WatchHistoryEntry{entry("aaaaaaaaaaa", epoch), entry("bbbbbbbbbbb", epoch.Add(time.Minute))}

		if err := repo.Save(ctx, user); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}

		got, err := repo.FindByID(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to find user: %v", err)
		}
		if got.GoogleID != "google-u1" || got.Email != "u1@example.com" || got.Picture != user.Picture {
			t.Errorf("unexpected user: %+v", got)
		}
		if !got.CreatedAt.Equal(epoch) {
			t.Errorf("expected created_at %v, got %v", epoch, got.CreatedAt)
		}
		if len(got.WatchHistory) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got.WatchHistory))
		}
		if got.WatchHistory[0].VideoID != "bbbbbbbbbbb" {
			t.Errorf("expected newest first, got %s", got.WatchHistory[0].VideoID)
		}
		if got.WatchHistory[0].WatchedDuration != 42 || got.WatchHistory[0].Duration != "3:32" {
			t.Errorf("unexpected entry: %+v", got.WatchHistory[0])
		}
	})

	t.Run("FindByKey", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		if err := repo.Save(ctx, testUser("u1")); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}

		for _, tc := range []struct{ key, value string }{
			{"google_id", "google-u1"},
			{"googleId", "google-u1"},
			{"email", "u1@example.com"},
		} {
			got, err := repo.FindByKey(ctx, tc.key, tc.value)
			if err != nil {
				t.Fatalf("FindByKey(%s) failed: %v", tc.key, err)
			}
			if got.ID != "u1" {
				t.Errorf("FindByKey(%s): expected u1, got %s", tc.key, got.ID)
			}
		}
	})

	t.Run("FindByKey rejects unknown column", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		_, err := repo.FindByKey(ctx, "name; DROP TABLE users", "x")
		if shared.KindOf(err) != shared.KindValidation {
			t.Fatalf("expected validation kind, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)

		_, err := repo.FindByID(ctx, "missing")
		if !errors.Is(err, shared.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		if shared.KindOf(err) != shared.KindNotFound {
			t.Errorf("expected not found kind, got %v", shared.KindOf(err))
		}

		if _, err := repo.FindByKey(ctx, "email", "missing@example.com"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Save updates existing user", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		user := testUser("u1")
		if err := repo.Save(ctx, user); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}

		user.Name = "Renamed"
		user.LastLoginAt = epoch.Add(24 * time.Hour)
		user.WatchHistory = []models.WatchHistoryEntry{entry("ccccccccccc", epoch)}
		if err := repo.Save(ctx, user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, err := repo.FindByID(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to find user: %v", err)
		}
		if got.Name != "Renamed" || !got.LastLoginAt.Equal(epoch.Add(24*time.Hour)) {
			t.Errorf("update not applied: %+v", got)
		}
		if len(got.WatchHistory) != 1 || got.WatchHistory[0].VideoID != "ccccccccccc" {
			t.Errorf("history not replaced: %+v", got.WatchHistory)
		}
	})

	t.Run("Save caps history keeping the most recent", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		user := testUser("u1")
		for i := range models.MaxWatchHistory + 5 {
			user.WatchHistory = append(user.WatchHistory, entry(fmt.Sprintf("vid%08d", i), epoch.Add(time.Duration(i)*time.Minute)))
		}

		if err := repo.Save(ctx, user); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}
		if len(user.WatchHistory) != models.MaxWatchHistory {
			t.Errorf("expected capped slice assigned back, got %d", len(user.WatchHistory))
		}

		got, err := repo.FindByID(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to find user: %v", err)
		}
		if len(got.WatchHistory) != models.MaxWatchHistory {
			t.Fatalf("expected %d entries, got %d", models.MaxWatchHistory, len(got.WatchHistory))
		}
		if got.WatchHistory[0].VideoID != "vid00000104" {
			t.Errorf("expected newest entry first, got %s", got.WatchHistory[0].VideoID)
		}
		last := got.WatchHistory[len(got.WatchHistory)-1].VideoID
		if last != "vid00000005" {
			t.Errorf("expected oldest five evicted, last entry is %s", last)
		}
	})

	t.Run("Save rejects invalid user", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		user := testUser("u1")
		user.Email = ""

		if err := repo.Save(ctx, user); shared.KindOf(err) != shared.KindValidation {
			t.Fatalf("expected validation kind, got %v", err)
		}
	})

	t.Run("Save rejects duplicate email", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
		if err := repo.Save(ctx, testUser("u1")); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}

		dup := testUser("u2")
		dup.Email = "u1@example.com"
		err := repo.Save(ctx, dup)
		if !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}
