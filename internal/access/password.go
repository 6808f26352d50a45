package access

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	needleerrors "github.com/tessro/needle/internal/errors"
)

// PasswordVerifier checks a submitted password against the shared secret.
// A bcrypt hash takes precedence over the plain secret.
type PasswordVerifier struct {
	Plain string
	Hash  string
}

// Configured reports whether any secret has been set.
func (v PasswordVerifier) Configured() bool {
	return v.Plain != "" || v.Hash != ""
}

// Verify returns nil when password matches, or an AuthError wrapping
// ErrWrongPassword.
func (v PasswordVerifier) Verify(password string) error {
	password = strings.TrimSpace(password)
	if password == "" || !v.Configured() {
		return &needleerrors.AuthError{Op: "password", Err: needleerrors.ErrWrongPassword}
	}

	if v.Hash != "" {
		if bcrypt.CompareHashAndPassword([]byte(v.Hash), []byte(password)) == nil {
			return nil
		}
		return &needleerrors.AuthError{Op: "password", Err: needleerrors.ErrWrongPassword}
	}

	if subtle.ConstantTimeCompare([]byte(v.Plain), []byte(password)) == 1 {
		return nil
	}
	return &needleerrors.AuthError{Op: "password", Err: needleerrors.ErrWrongPassword}
}

// HashPassword returns a bcrypt hash suitable for access.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
