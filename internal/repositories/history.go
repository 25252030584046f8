package repositories

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// HistoryStore maintains per-user watch history on top of a [models.UserStore].
//
// Updates are read-modify-write on the whole user; concurrent updates for the same user are last-write-wins.
type HistoryStore struct {
	users models.UserStore
	now   func() time.Time
}

// NewHistoryStore creates a [HistoryStore]. A nil clock means [time.Now].
func NewHistoryStore(users models.UserStore, now func() time.Time) *HistoryStore {
	if now == nil {
		now = time.Now
	}
	return &HistoryStore{users: users, now: now}
}

// Add records a watch: any entry for the same video is dropped and the new one, stamped now, goes first.
//
// A blank duration is stored as "Unknown". Returns the history as stored.
func (h *HistoryStore) Add(ctx context.Context, userID string, entry models.WatchHistoryEntry) ([]models.WatchHistoryEntry, error) {
	const op = "history.add"

	if err := entry.Validate(); err != nil {
		return nil, shared.E(shared.KindValidation, op, err)
	}
	if entry.Duration == "" {
		entry.Duration = "Unknown"
	}
	if entry.WatchedDuration < 0 {
		entry.WatchedDuration = 0
	}

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry.WatchedAt = h.now()
	rest := lo.Filter(user.WatchHistory, func(e models.WatchHistoryEntry, _ int) bool {
		return e.VideoID != entry.VideoID
	})
	user.WatchHistory = append([]models.WatchHistoryEntry{entry}, rest...)

	if err := h.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user.WatchHistory, nil
}

// List returns the user's history, newest first.
func (h *HistoryStore) List(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.SortHistory(user.WatchHistory), nil
}

// Clear removes every entry from the user's history.
func (h *HistoryStore) Clear(ctx context.Context, userID string) error {
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.WatchHistory = []models.WatchHistoryEntry{}
	return h.users.Save(ctx, user)
}
