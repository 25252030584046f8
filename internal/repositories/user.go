package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// lookupColumns are the unique user columns accepted by [UserRepository.FindByKey].
var lookupColumns = map[string]string{
	"google_id": "google_id",
	"googleId":  "google_id",
	"email":     "email",
}

// UserRepository implements [models.UserStore] on sqlite or postgres.
type UserRepository struct {
	db     *sql.DB
	driver string
}

// NewUserRepository creates a new [UserRepository] with the given database connection and driver name
func NewUserRepository(db *sql.DB, driver string) *UserRepository {
	return &UserRepository{db: db, driver: driver}
}

func (r *UserRepository) rebind(query string) string {
	return shared.Rebind(r.driver, query)
}

// FindByID retrieves a user and its watch history, newest first.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "users.find_by_id", "id", id)
}

// FindByKey retrieves a user by a unique column: "google_id" or "email".
func (r *UserRepository) FindByKey(ctx context.Context, key, value string) (*models.User, error) {
	column, ok := lookupColumns[key]
	if !ok {
		return nil, shared.E(shared.KindValidation, "users.find_by_key", fmt.Errorf("%w: unknown lookup key %q", shared.ErrInvalidArgument, key))
	}
	return r.findOne(ctx, "users.find_by_key", column, value)
}

func (r *UserRepository) findOne(ctx context.Context, op, column, value string) (*models.User, error) {
	query := r.rebind(fmt.Sprintf(`
		SELECT id, google_id, email, name, picture, created_at, last_login_at
		FROM users
		WHERE %s = ?
	`, column))

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, storeError(op, err, shared.ErrUserNotFound)
	}

	history, err := r.history(ctx, user.ID)
	if err != nil {
		return nil, storeError(op, err, nil)
	}
	user.WatchHistory = history

	return user, nil
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.GoogleID, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) history(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	query := r.rebind(`
		SELECT video_id, title, thumbnail, channel_title, duration, watched_at, watched_duration
		FROM watch_history
		WHERE user_id = ?
		ORDER BY watched_at DESC
	`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.WatchHistoryEntry{}
	for rows.Next() {
		var e models.WatchHistoryEntry
		if err := rows.Scan(&e.VideoID, &e.Title, &e.Thumbnail, &e.ChannelTitle, &e.Duration, &e.WatchedAt, &e.WatchedDuration); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Save upserts the user and replaces its watch history in one transaction.
//
// The history is sorted newest first and capped at [models.MaxWatchHistory]; the stored slice is assigned back to user.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	const op = "users.save"

	if err := user.Validate(); err != nil {
		return shared.E(shared.KindValidation, op, err)
	}

	history := models.CapHistory(user.WatchHistory)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(op, err, nil)
	}
	defer tx.Rollback()

	upsert := r.rebind(`
		INSERT INTO users (id, google_id, email, name, picture, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			google_id = excluded.google_id,
			email = excluded.email,
			name = excluded.name,
			picture = excluded.picture,
			last_login_at = excluded.last_login_at
	`)
	if _, err := tx.ExecContext(ctx, upsert,
		user.ID, user.GoogleID, user.Email, user.Name, user.Picture, user.CreatedAt.UTC(), user.LastLoginAt.UTC(),
	); err != nil {
		return storeError(op, err, nil)
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM watch_history WHERE user_id = ?`), user.ID); err != nil {
		return storeError(op, err, nil)
	}

	insert := r.rebind(`
		INSERT INTO watch_history (user_id, video_id, title, thumbnail, channel_title, duration, watched_at, watched_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, e := range history {
		if _, err := tx.ExecContext(ctx, insert,
			user.ID, e.VideoID, e.Title, e.Thumbnail, e.ChannelTitle, e.Duration, e.WatchedAt.UTC(), e.WatchedDuration,
		); err != nil {
			return storeError(op, err, nil)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(op, err, nil)
	}

	user.WatchHistory = history
	return nil
}
