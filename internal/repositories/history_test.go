package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// tickingClock returns a clock that advances one minute per call.
func tickingClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func setupHistory(t *testing.T) (*HistoryStore, *UserRepository) {
	t.Helper()
	repo := NewUserRepository(setupTestDB(t), shared.DriverSQLite)
	if err := repo.Save(context.Background(), testUser("u1")); err != nil {
		t.Fatalf("failed to save user: %v", err)
	}
	return NewHistoryStore(repo, tickingClock(epoch)), repo
}

func watch(videoID string) models.WatchHistoryEntry {
	return models.WatchHistoryEntry{
		VideoID:      videoID,
		Title:        "Title " + videoID,
		Thumbnail:    "https://img.example/" + videoID + ".jpg",
		ChannelTitle: "Channel",
	}
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Add prepends and stamps watchedAt", func(t *testing.T) {
		store, _ := setupHistory(t)

		if _, err := store.Add(ctx, "u1", watch("aaaaaaaaaaa")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		history, err := store.Add(ctx, "u1", watch("bbbbbbbbbbb"))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if len(history) != 2 || history[0].VideoID != "bbbbbbbbbbb" {
			t.Fatalf("expected newest first, got %+v", history)
		}
		if !history[0].WatchedAt.Equal(epoch.Add(2 * time.Minute)) {
			t.Errorf("expected watchedAt from clock, got %v", history[0].WatchedAt)
		}
	})

	t.Run("Add defaults duration and watched duration", func(t *testing.T) {
		store, _ := setupHistory(t)
		history, err := store.Add(ctx, "u1", watch("aaaaaaaaaaa"))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if history[0].Duration != "Unknown" || history[0].WatchedDuration != 0 {
			t.Errorf("unexpected defaults: %+v", history[0])
		}
	})

	t.Run("Add replaces existing entry for the same video", func(t *testing.T) {
		store, repo := setupHistory(t)
		for _, id := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "aaaaaaaaaaa"} {
			if _, err := store.Add(ctx, "u1", watch(id)); err != nil {
				t.Fatalf("Add(%s) failed: %v", id, err)
			}
		}

		user, err := repo.FindByID(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to find user: %v", err)
		}
		if len(user.WatchHistory) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(user.WatchHistory))
		}
		if user.WatchHistory[0].VideoID != "aaaaaaaaaaa" || user.WatchHistory[1].VideoID != "bbbbbbbbbbb" {
			t.Errorf("unexpected order: %s, %s", user.WatchHistory[0].VideoID, user.WatchHistory[1].VideoID)
		}
	})

	t.Run("Add evicts the oldest past the cap", func(t *testing.T) {
		store, _ := setupHistory(t)
		var history []models.WatchHistoryEntry
		for i := range models.MaxWatchHistory + 1 {
			e := watch(fmt.Sprintf("vid%08d", i))
			var err error
			if history, err = store.Add(ctx, "u1", e); err != nil {
				t.Fatalf("Add %d failed: %v", i, err)
			}
		}

		if len(history) != models.MaxWatchHistory {
			t.Fatalf("expected %d entries, got %d", models.MaxWatchHistory, len(history))
		}
		for _, e := range history {
			if e.VideoID == "vid00000000" {
				t.Fatal("oldest entry should have been evicted")
			}
		}
	})

	t.Run("Add validates required fields", func(t *testing.T) {
		store, _ := setupHistory(t)
		e := watch("aaaaaaaaaaa")
		e.ChannelTitle = ""

		_, err := store.Add(ctx, "u1", e)
		if shared.KindOf(err) != shared.KindValidation {
			t.Fatalf("expected validation kind, got %v", err)
		}
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		store, _ := setupHistory(t)

		if _, err := store.Add(ctx, "ghost", watch("aaaaaaaaaaa")); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("Add: expected ErrUserNotFound, got %v", err)
		}
		if _, err := store.List(ctx, "ghost"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("List: expected ErrUserNotFound, got %v", err)
		}
		if err := store.Clear(ctx, "ghost"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("Clear: expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("List is newest first", func(t *testing.T) {
		store, _ := setupHistory(t)
		for _, id := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"} {
			if _, err := store.Add(ctx, "u1", watch(id)); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}

		history, err := store.List(ctx, "u1")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		want := []string{"ccccccccccc", "bbbbbbbbbbb", "aaaaaaaaaaa"}
		for i, id := range want {
			if history[i].VideoID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, history[i].VideoID)
			}
		}
	})

	t.Run("Clear empties history", func(t *testing.T) {
		store, _ := setupHistory(t)
		if _, err := store.Add(ctx, "u1", watch("aaaaaaaaaaa")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := store.Clear(ctx, "u1"); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		history, err := store.List(ctx, "u1")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d entries", len(history))
		}
		if history == nil {
			t.Error("expected empty slice, not nil")
		}
	})
}
