package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/desertthunder/ytstream/internal/cache"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// memoryCache is an in-process [cache.Cache] for tests.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dst)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

// memoryUsers is an in-process [models.UserStore] for tests.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
	saves int
}

func newMemoryUsers(users ...*models.User) *memoryUsers {
	m := &memoryUsers{users: map[string]models.User{}}
	for _, u := range users {
		m.users[u.ID] = *u
	}
	return m
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, shared.E(shared.KindNotFound, "users.find", shared.ErrUserNotFound)
	}
	return &u, nil
}

func (m *memoryUsers) FindByKey(_ context.Context, key, value string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (key == "google_id" && u.GoogleID == value) || (key == "email" && u.Email == value) {
			return &u, nil
		}
	}
	return nil, shared.E(shared.KindNotFound, "users.find", shared.ErrUserNotFound)
}

func (m *memoryUsers) Save(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	user.WatchHistory = models.CapHistory(user.WatchHistory)
	m.users[user.ID] = *user
	return nil
}

type stubVerifier struct {
	identity models.Identity
	err      error
}

func (s stubVerifier) Verify(context.Context, string) (models.Identity, error) {
	return s.identity, s.err
}
