// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// FakeCatalog is a test double for [services.Catalog]
type FakeCatalog struct {
	Result    *models.SearchResult
	Details   []models.VideoDetails
	Suggested []string
	Err       error

	mu      sync.Mutex
	queries []string
}

func (f *FakeCatalog) Search(_ context.Context, query string, _ int, _ string) (*models.SearchResult, error) {
	f.remember(query)
	if f.Err != nil {
		return nil, f.Err
	}
	if query == "" {
		return nil, shared.E(shared.KindValidation, "fake.search", shared.ErrMissingArgument)
	}
	return f.Result, nil
}

func (f *FakeCatalog) VideoDetails(context.Context, ...string) ([]models.VideoDetails, error) {
	return f.Details, f.Err
}

func (f *FakeCatalog) Suggestions(_ context.Context, query string) []string {
	f.remember(query)
	return f.Suggested
}

func (f *FakeCatalog) remember(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
}

// Queries returns every query passed to Search or Suggestions, in call order.
func (f *FakeCatalog) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// FakeResolver is a test double for [services.StreamResolver]
type FakeResolver struct {
	Bundle *models.VideoStreamBundle
	Err    error
}

func (f *FakeResolver) Resolve(_ context.Context, id string) (*models.VideoStreamBundle, error) {
	if !shared.ValidVideoID(id) {
		return nil, shared.E(shared.KindValidation, "fake.resolve", shared.ErrInvalidIdentifier)
	}
	return f.Bundle, f.Err
}

// FakeSessions is a test double for the sign-in and session services.
//
// Tokens maps accepted session tokens to users.
type FakeSessions struct {
	Tokens    map[string]*models.User
	SignedIn  *services.SignInResult
	SignInErr error
}

func (f *FakeSessions) SignIn(_ context.Context, idToken string) (*services.SignInResult, error) {
	if idToken == "" {
		return nil, shared.E(shared.KindValidation, "fake.signin", shared.ErrMissingArgument)
	}
	return f.SignedIn, f.SignInErr
}

func (f *FakeSessions) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.Tokens[token]; ok {
		return u, nil
	}
	return nil, shared.E(shared.KindAuth, "fake.authenticate", shared.ErrInvalidSessionToken)
}

// FakeHistory is an in-memory watch history keyed by user id.
type FakeHistory struct {
	mu      sync.Mutex
	Entries map[string][]models.WatchHistoryEntry
	Err     error
}

func NewFakeHistory() *FakeHistory {
	return &FakeHistory{Entries: map[string][]models.WatchHistoryEntry{}}
}

func (f *FakeHistory) Add(_ context.Context, userID string, entry models.WatchHistoryEntry) ([]models.WatchHistoryEntry, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if err := entry.Validate(); err != nil {
		return nil, shared.E(shared.KindValidation, "fake.history.add", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rest := []models.WatchHistoryEntry{}
	for _, e := range f.Entries[userID] {
		if e.VideoID != entry.VideoID {
			rest = append(rest, e)
		}
	}
	f.Entries[userID] = append([]models.WatchHistoryEntry{entry}, rest...)
	return f.Entries[userID], nil
}

func (f *FakeHistory) List(_ context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, ok := f.Entries[userID]
	if !ok {
		return []models.WatchHistoryEntry{}, nil
	}
	return entries, nil
}

func (f *FakeHistory) Clear(_ context.Context, userID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries[userID] = []models.WatchHistoryEntry{}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
