package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrInsufficientTier = errors.New("access tier too low")
	ErrWrongPassword    = errors.New("wrong password")
	ErrCookiesMissing   = errors.New("signed cookies missing or expired")
	ErrNoBundle         = errors.New("signed cookie bundle not configured")
	ErrReauthRequired   = errors.New("re-authentication required")
	ErrNoTracks         = errors.New("no tracks available")
	ErrTrackNotFound    = errors.New("track not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrNetworkError     = errors.New("network error")
	ErrTimeout          = errors.New("request timeout")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// AuthError reports an operation refused because of the caller's access level.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ManifestError reports a catalog load failure. Status is zero for transport errors.
type ManifestError struct {
	Status int
	Err    error
}

func (e *ManifestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to load manifest: status %d: %s", e.Status, e.Err.Error())
	}
	return fmt.Sprintf("failed to load manifest: %s", e.Err.Error())
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// PlaybackError reports a media failure for a single track.
type PlaybackError struct {
	TrackID string
	Err     error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback of %s failed: %s", e.TrackID, e.Err.Error())
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NeedleError wraps an error with a user-friendly suggestion.
type NeedleError struct {
	Err        error
	Suggestion string
}

func (e *NeedleError) Error() string {
	return e.Err.Error()
}

func (e *NeedleError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &NeedleError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// IsAuth reports whether err is an access failure of any kind.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) ||
		errors.Is(err, ErrInsufficientTier) ||
		errors.Is(err, ErrWrongPassword) ||
		errors.Is(err, ErrCookiesMissing)
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var needleErr *NeedleError
	if errors.As(err, &needleErr) && needleErr.Suggestion != "" {
		return needleErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrReauthRequired) || strings.Contains(errStr, "403") {
		return "Your signed cookies were rejected. Run 'needle auth login' to fetch fresh ones"
	}

	if errors.Is(err, ErrWrongPassword) {
		return "Check access.password with the person who gave you the link"
	}

	if errors.Is(err, ErrCookiesMissing) || errors.Is(err, ErrNoBundle) {
		return "Run 'needle auth import <file>' or set cdn.cookies_file in ~/.needlerc"
	}

	if errors.Is(err, ErrInsufficientTier) {
		return "Run 'needle access unlock' to enter the password"
	}

	if errors.Is(err, ErrNoTracks) {
		return "The catalog is empty. Try again later"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'needle config init' to create a configuration file"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "The CDN is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
