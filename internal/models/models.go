package models

import (
	"context"
)

// UserStore loads and saves users together with their watch history as one document.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)          // FindByID fails with a not-found error when id does not resolve
	FindByKey(ctx context.Context, key, value string) (*User, error) // FindByKey looks up by a unique column ("google_id" or "email")
	Save(ctx context.Context, user *User) error                      // Save upserts the user and replaces its history, capped at [MaxWatchHistory]
}
