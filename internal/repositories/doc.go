// Package repositories implements persistence for users and their watch history.
//
// Key Implementations:
//   - [UserRepository] : [models.UserStore] on sqlite (default) or postgres, selected by driver name
//   - [HistoryStore] : recency-ordered, upsert-by-video watch history on top of any [models.UserStore]
//
// A user and its history are loaded and saved as one document. Save replaces the history rows inside a single
// transaction and enforces the [models.MaxWatchHistory] cap, keeping the most recently watched entries.
//
// Queries are written with "?" placeholders and rebound per driver with [shared.Rebind].
// Database failures surface as [shared.KindStore] errors wrapping [shared.ErrStoreUnavailable];
// unknown users as [shared.KindNotFound] wrapping [shared.ErrUserNotFound].
package repositories
