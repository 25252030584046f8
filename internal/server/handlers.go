package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// maxSuggestions caps the suggestion list returned to clients.
const maxSuggestions = 10

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// SessionService signs users in and resolves session tokens.
type SessionService interface {
	Authenticator
	SignIn(ctx context.Context, idToken string) (*services.SignInResult, error)
}

// HistoryService records and lists a user's watch history.
type HistoryService interface {
	Add(ctx context.Context, userID string, entry models.WatchHistoryEntry) ([]models.WatchHistoryEntry, error)
	List(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
	Clear(ctx context.Context, userID string) error
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return shared.E(shared.KindValidation, "request.decode", fmt.Errorf("%w: malformed JSON body", shared.ErrInvalidInput))
	}
	return nil
}

// AuthHandler serves sign-in, profile and watch history routes.
type AuthHandler struct {
	mux      *http.ServeMux
	sessions SessionService
	history  HistoryService
}

// NewAuthHandler creates an [AuthHandler]. Profile and history routes require a bearer session token.
func NewAuthHandler(sessions SessionService, history HistoryService) *AuthHandler {
	h := &AuthHandler{mux: http.NewServeMux(), sessions: sessions, history: history}
	protected := RequireAuth(sessions)

	h.mux.HandleFunc("POST /api/auth/google/signin", h.signIn)
	h.mux.Handle("GET /api/auth/profile", protected(http.HandlerFunc(h.profile)))
	h.mux.Handle("POST /api/auth/history", protected(http.HandlerFunc(h.addHistory)))
	h.mux.Handle("GET /api/auth/history", protected(http.HandlerFunc(h.listHistory)))
	h.mux.Handle("DELETE /api/auth/history", protected(http.HandlerFunc(h.clearHistory)))
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"POST /api/auth/google/signin",
		"GET /api/auth/profile",
		"POST /api/auth/history",
		"GET /api/auth/history",
		"DELETE /api/auth/history",
	}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type signInRequest struct {
	IDToken string `json:"idToken"`
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		Fail(w, err)
		return
	}

	result, err := h.sessions.SignIn(r.Context(), req.IDToken)
	if err != nil {
		Fail(w, err)
		return
	}
	Success(w, http.StatusOK, result)
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	Success(w, http.StatusOK, map[string]any{"user": user.Profile()})
}

type historyRequest struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	Thumbnail       string `json:"thumbnail"`
	ChannelTitle    string `json:"channelTitle"`
	Duration        string `json:"duration"`
	WatchedDuration int    `json:"watchedDuration"`
}

func (h *AuthHandler) addHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req historyRequest
	if err := decodeJSON(r, &req); err != nil {
		Fail(w, err)
		return
	}

	history, err := h.history.Add(r.Context(), user.ID, models.WatchHistoryEntry{
		VideoID:         req.VideoID,
		Title:           req.Title,
		Thumbnail:       req.Thumbnail,
		ChannelTitle:    req.ChannelTitle,
		Duration:        req.Duration,
		WatchedDuration: req.WatchedDuration,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	Success(w, http.StatusOK, map[string]any{"history": history})
}

func (h *AuthHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	history, err := h.history.List(r.Context(), user.ID)
	if err != nil {
		Fail(w, err)
		return
	}
	Success(w, http.StatusOK, map[string]any{"history": history})
}

func (h *AuthHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	if err := h.history.Clear(r.Context(), user.ID); err != nil {
		Fail(w, err)
		return
	}
	Success(w, http.StatusOK, map[string]any{"message": "Watch history cleared"})
}

// YouTubeHandler serves search, stream resolution and suggestion routes.
type YouTubeHandler struct {
	mux      *http.ServeMux
	catalog  services.Catalog
	resolver services.StreamResolver
}

// NewYouTubeHandler creates a [YouTubeHandler].
func NewYouTubeHandler(catalog services.Catalog, resolver services.StreamResolver) *YouTubeHandler {
	h := &YouTubeHandler{mux: http.NewServeMux(), catalog: catalog, resolver: resolver}
	h.mux.HandleFunc("GET /api/youtube/search", h.search)
	h.mux.HandleFunc("GET /api/youtube/video/{id}", h.video)
	h.mux.HandleFunc("GET /api/youtube/suggestions", h.suggestions)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *YouTubeHandler) Routes() []string {
	return []string{
		"GET /api/youtube/search",
		"GET /api/youtube/video/{id}",
		"GET /api/youtube/suggestions",
	}
}

func (h *YouTubeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *YouTubeHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// unparseable maxResults falls back to the default page size
	maxResults, _ := strconv.Atoi(q.Get("maxResults"))

	result, err := h.catalog.Search(r.Context(), q.Get("q"), maxResults, q.Get("pageToken"))
	if err != nil {
		Fail(w, err)
		return
	}
	Success(w, http.StatusOK, result)
}

func (h *YouTubeHandler) video(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.resolver.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		Fail(w, err)
		return
	}
	Success(w, http.StatusOK, bundle)
}

func (h *YouTubeHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := []string{}
	if q := r.URL.Query().Get("q"); q != "" {
		suggestions = h.catalog.Suggestions(r.Context(), q)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	Success(w, http.StatusOK, suggestions)
}

// health is the body of GET /health.
type health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports liveness.
func HealthHandler(now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, health{Status: "OK", Timestamp: now().UTC()})
	})
}
