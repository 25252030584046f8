package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/ytstream/internal/shared"
)

// envelope is the body of every successful API response.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes {"success": true, "data": data}.
func Success(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, envelope{Success: true, Data: data})
}

// Fail writes {"error": message} with the status derived from err's kind.
func Fail(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), errorBody{Error: PublicMessage(err)})
}

// StatusFor maps an error kind to an HTTP status. Resolution failures take the status of their cause.
func StatusFor(err error) int {
	kind := shared.KindOf(err)
	if kind == shared.KindResolutionFailed {
		kind = shared.Cause(err)
		if kind == shared.KindResolutionFailed {
			return http.StatusInternalServerError
		}
	}

	switch kind {
	case shared.KindValidation, shared.KindLiveUnsupported:
		return http.StatusBadRequest
	case shared.KindAuth, shared.KindUnauthorizedKey:
		return http.StatusUnauthorized
	case shared.KindQuota:
		return http.StatusTooManyRequests
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrors are the sentinels whose text is safe to show clients, checked in order.
var publicErrors = []error{
	shared.ErrInvalidIdentifier,
	shared.ErrSessionExpired,
	shared.ErrInvalidSessionToken,
	shared.ErrInvalidExternalToken,
	shared.ErrNotAuthenticated,
	shared.ErrAPIKey,
	shared.ErrQuotaExceeded,
	shared.ErrLiveStream,
	shared.ErrVideoUnavailable,
	shared.ErrUserNotFound,
	shared.ErrServiceUnavailable,
	shared.ErrTimeout,
}

// PublicMessage returns the client-facing text for err.
//
// Aggregate resolution failures are reported generically; internal and store failures never leak details.
func PublicMessage(err error) string {
	switch shared.KindOf(err) {
	case shared.KindResolutionFailed:
		if shared.Cause(err) == shared.KindLiveUnsupported {
			return shared.ErrLiveStream.Error()
		}
		return shared.ErrResolutionFailed.Error()
	case shared.KindUnknown, shared.KindStore, shared.KindNoPlayableFormat:
		return "Internal server error"
	case shared.KindAuth:
		if errors.Is(err, shared.ErrUserNotFound) {
			return "Token verification failed"
		}
	}

	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return innermost(err).Error()
}

// innermost strips [shared.Error] layers so operation names stay out of responses.
func innermost(err error) error {
	for {
		var e *shared.Error
		if !errors.As(err, &e) || e.Err == nil {
			return err
		}
		err = e.Err
	}
}

// RouteNotFound is the fallback for unregistered paths.
func RouteNotFound(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusNotFound, errorBody{Error: "Route not found"})
}
