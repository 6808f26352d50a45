package cdn

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/store"
)

func TestSignedCookiesHeader(t *testing.T) {
	c := &SignedCookies{Policy: "p", Signature: "s", KeyPairID: "k"}
	assert.Equal(t, "CloudFront-Policy=p; CloudFront-Signature=s; CloudFront-Key-Pair-Id=k", c.Header())

	var missing *SignedCookies
	assert.False(t, missing.Complete())
	assert.Equal(t, "", missing.Header())
}

func TestSignedCookiesExpiry(t *testing.T) {
	expires := time.Unix(1893456000, 0)
	c := &SignedCookies{Policy: EncodePolicy("https://x/*", expires), Signature: "s", KeyPairID: "k"}

	got, err := c.ExpiresAt()
	require.NoError(t, err)
	assert.True(t, got.Equal(expires))

	assert.True(t, c.Valid(expires.Add(-time.Minute)))
	assert.False(t, c.Valid(expires.Add(time.Minute)))
}

func TestSignedCookiesPolicyIsCookieSafe(t *testing.T) {
	p := EncodePolicy("https://music.example.com/*?>>", time.Unix(1700000000, 0))
	assert.NotContains(t, p, "+")
	assert.NotContains(t, p, "/")
	assert.NotContains(t, p, "=")
}

func TestSignedCookiesUnreadablePolicy(t *testing.T) {
	c := &SignedCookies{Policy: "not-a-policy", Signature: "s", KeyPairID: "k"}
	_, err := c.ExpiresAt()
	assert.Error(t, err)
	assert.True(t, c.Valid(time.Now()))

	c.Signature = ""
	assert.False(t, c.Valid(time.Now()))
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "cookies.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
  "CloudFront-Policy": "p",
  "CloudFront-Signature": "s",
  "CloudFront-Key-Pair-Id": "k"
}`), 0600))
	c, err := LoadBundle(good)
	require.NoError(t, err)
	assert.Equal(t, "k", c.KeyPairID)

	partial := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partial, []byte(`{"CloudFront-Policy": "p"}`), 0600))
	_, err = LoadBundle(partial)
	assert.ErrorIs(t, err, needleerrors.ErrCookiesMissing)

	_, err = LoadBundle(filepath.Join(dir, "nope.json"))
	assert.ErrorIs(t, err, needleerrors.ErrNoBundle)

	_, err = LoadBundle("")
	assert.ErrorIs(t, err, needleerrors.ErrNoBundle)
}

func TestCookieStorage(t *testing.T) {
	s := NewCookieStorage(store.NewMemory())

	c, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, c)

	assert.ErrorIs(t, s.Save(&SignedCookies{Policy: "p"}), needleerrors.ErrCookiesMissing)

	want := &SignedCookies{Policy: "p", Signature: "s", KeyPairID: "k"}
	require.NoError(t, s.Save(want))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Delete())
	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}
