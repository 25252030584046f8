package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/ytstream/internal/shared"
)

// MaxWatchHistory is the number of entries kept per user; older entries are evicted on save.
const MaxWatchHistory = 100

// User is an account created on first Google sign-in.
type User struct {
	ID           string              `json:"id"`
	GoogleID     string              `json:"googleId"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	Picture      string              `json:"picture"`
	CreatedAt    time.Time           `json:"createdAt"`
	LastLoginAt  time.Time           `json:"lastLoginAt"`
	WatchHistory []WatchHistoryEntry `json:"-"`
}

// Profile is the public view of a [User] returned by sign-in and profile routes.
type Profile struct {
	ID       string `json:"id"`
	GoogleID string `json:"googleId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// WatchHistoryEntry records one watched video. A user holds at most one entry per VideoID.
type WatchHistoryEntry struct {
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	Thumbnail       string    `json:"thumbnail"`
	ChannelTitle    string    `json:"channelTitle"`
	Duration        string    `json:"duration"`
	WatchedAt       time.Time `json:"watchedAt"`
	WatchedDuration int       `json:"watchedDuration"` // seconds
}

// Identity holds the verified claims of an external (Google) ID token.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
	Picture   string
}

// SessionClaims are the claims carried by a session token minted after sign-in.
type SessionClaims struct {
	UserID    string
	GoogleID  string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// NewUser creates a user from a verified identity with a fresh id and both timestamps set to now.
func NewUser(identity Identity, now time.Time) *User {
	return &User{
		ID:           shared.GenerateID(),
		GoogleID:     identity.SubjectID,
		Email:        identity.Email,
		Name:         identity.Name,
		Picture:      identity.Picture,
		CreatedAt:    now,
		LastLoginAt:  now,
		WatchHistory: []WatchHistoryEntry{},
	}
}

// Refresh applies the latest identity claims on a returning sign-in.
func (u *User) Refresh(identity Identity, now time.Time) {
	u.Name = identity.Name
	u.Picture = identity.Picture
	u.LastLoginAt = now
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, GoogleID: u.GoogleID, Email: u.Email, Name: u.Name, Picture: u.Picture}
}

// Validate checks required fields.
func (u *User) Validate() error {
	switch {
	case u.ID == "":
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	case u.GoogleID == "":
		return fmt.Errorf("%w: google id is required", shared.ErrInvalidInput)
	case u.Email == "":
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	case u.Name == "":
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}
	for _, e := range u.WatchHistory {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the fields a client must supply when recording a watch.
func (e WatchHistoryEntry) Validate() error {
	if e.VideoID == "" || e.Title == "" || e.Thumbnail == "" || e.ChannelTitle == "" {
		return fmt.Errorf("%w: video ID, title, thumbnail, and channel title are required", shared.ErrInvalidInput)
	}
	return nil
}

// SortHistory returns a copy of entries ordered by WatchedAt, newest first. Ties keep their order.
func SortHistory(entries []WatchHistoryEntry) []WatchHistoryEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b WatchHistoryEntry) int {
		return b.WatchedAt.Compare(a.WatchedAt)
	})
	return sorted
}

// CapHistory returns the [MaxWatchHistory] most recently watched entries, newest first.
func CapHistory(entries []WatchHistoryEntry) []WatchHistoryEntry {
	sorted := SortHistory(entries)
	if len(sorted) > MaxWatchHistory {
		sorted = sorted[:MaxWatchHistory]
	}
	return sorted
}
