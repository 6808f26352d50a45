package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"reauth", ErrReauthRequired, "needle auth login"},
		{"wrapped reauth", fmt.Errorf("start: %w", ErrReauthRequired), "needle auth login"},
		{"cookies", &AuthError{Op: "start", Err: ErrCookiesMissing}, "needle auth import"},
		{"tier", ErrInsufficientTier, "needle access unlock"},
		{"empty catalog", &ManifestError{Err: ErrNoTracks}, "catalog is empty"},
		{"network", ErrNetworkError, "internet connection"},
		{"custom", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestIsAuth(t *testing.T) {
	if !IsAuth(&AuthError{Err: ErrWrongPassword}) {
		t.Error("IsAuth(AuthError) = false, want true")
	}
	if !IsAuth(fmt.Errorf("wrap: %w", ErrInsufficientTier)) {
		t.Error("IsAuth(wrapped tier error) = false, want true")
	}
	if IsAuth(&ManifestError{Status: 500, Err: errors.New("x")}) {
		t.Error("IsAuth(ManifestError) = true, want false")
	}
}

func TestManifestError(t *testing.T) {
	err := &ManifestError{Status: 404, Err: errors.New("not found")}
	want := "failed to load manifest: status 404: not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	empty := &ManifestError{Err: ErrNoTracks}
	if !errors.Is(empty, ErrNoTracks) {
		t.Error("ManifestError should unwrap to ErrNoTracks")
	}
}

func TestFormat(t *testing.T) {
	got := Format(ErrReauthRequired)
	if !strings.HasPrefix(got, "Error: re-authentication required") {
		t.Errorf("Format() = %q", got)
	}
	if !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() = %q, want a suggestion", got)
	}
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]string]
	if p.HasErrors() {
		t.Fatal("HasErrors() = true on empty result")
	}
	p.AddError(nil)
	if p.HasErrors() {
		t.Fatal("AddError(nil) should be ignored")
	}
	p.AddError(errors.New("one"))
	if p.ErrorSummary() != "one" {
		t.Errorf("ErrorSummary() = %q, want %q", p.ErrorSummary(), "one")
	}
	p.AddError(errors.New("two"))
	if !strings.HasPrefix(p.ErrorSummary(), "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", p.ErrorSummary())
	}
}
