package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrInvalidExternalToken = fmt.Errorf("invalid Google token")
	ErrInvalidSessionToken  = fmt.Errorf("invalid JWT token")
	ErrSessionExpired       = fmt.Errorf("JWT token expired")
	ErrNotAuthenticated     = fmt.Errorf("access token required")
	ErrProviderUnavailable  = fmt.Errorf("identity provider not configured")
	ErrTimeout              = fmt.Errorf("operation timed out")

	// Upstream errors
	ErrAPIKey             = fmt.Errorf("YouTube API key is invalid or missing")
	ErrQuotaExceeded      = fmt.Errorf("YouTube API quota exceeded. Please try again later.")
	ErrServiceUnavailable = fmt.Errorf("unable to connect to YouTube services")
	ErrVideoUnavailable   = fmt.Errorf("video is not available or has been removed")
	ErrLiveStream         = fmt.Errorf("live streams are not supported")
	ErrNoPlayableFormat   = fmt.Errorf("no playable video formats found")
	ErrResolutionFailed   = fmt.Errorf("failed to get video streams")

	// Store errors
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrStoreUnavailable = fmt.Errorf("store unavailable")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrInvalidIdentifier = fmt.Errorf("invalid video ID format")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
)

// Kind classifies an [Error] so callers can react to the failure without inspecting its message.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindUnauthorizedKey
	KindQuota
	KindUpstreamUnavailable
	KindNotFound
	KindNoPlayableFormat
	KindLiveUnsupported
	KindResolutionFailed
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUnauthorizedKey:
		return "unauthorized_key"
	case KindQuota:
		return "quota"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindNotFound:
		return "not_found"
	case KindNoPlayableFormat:
		return "no_playable_format"
	case KindLiveUnsupported:
		return "live_unsupported"
	case KindResolutionFailed:
		return "resolution_failed"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is an error tagged with a [Kind] at the point it is raised.
//
// The tag survives wrapping with %w, so the HTTP boundary can switch on it via [KindOf].
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "youtube.search"
	Err  error
}

// E builds a tagged [Error].
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost [Error] in err's chain, or [KindUnknown].
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Cause returns the kind of the first tagged error wrapped by the outermost one.
//
// Used for aggregate failures (e.g. [KindResolutionFailed]) whose status depends on what actually went wrong.
func Cause(err error) Kind {
	var e *Error
	if !errors.As(err, &e) || e.Err == nil {
		return KindUnknown
	}
	return KindOf(e.Err)
}
