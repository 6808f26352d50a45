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

func writeBundle(t *testing.T, expires time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	data := `{"CloudFront-Policy":"` + EncodePolicy("https://x/*", expires) +
		`","CloudFront-Signature":"s","CloudFront-Key-Pair-Id":"k"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestJarInstall(t *testing.T) {
	client := New("https://x")
	jar := NewJar(NewCookieStorage(store.NewMemory()), writeBundle(t, time.Now().Add(time.Hour)), client)

	assert.False(t, jar.Valid())
	require.NoError(t, jar.Install())
	assert.True(t, jar.Valid())
	assert.Equal(t, "k", client.Cookies().KeyPairID)

	require.NoError(t, jar.Clear())
	assert.False(t, jar.Valid())
	assert.Nil(t, client.Cookies())
}

func TestJarExpired(t *testing.T) {
	jar := NewJar(NewCookieStorage(store.NewMemory()), writeBundle(t, time.Now().Add(-time.Hour)), nil)
	require.NoError(t, jar.Install())
	assert.False(t, jar.Valid())
}

func TestJarWithoutBundle(t *testing.T) {
	jar := NewJar(NewCookieStorage(store.NewMemory()), "", nil)
	assert.ErrorIs(t, jar.Install(), needleerrors.ErrNoBundle)

	require.NoError(t, jar.Set(&SignedCookies{Policy: "p", Signature: "s", KeyPairID: "k"}))
	assert.NoError(t, jar.Install(), "a triple from re-authentication satisfies Install")
}
