package cdn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

func testCookies() *SignedCookies {
	return &SignedCookies{
		Policy:    EncodePolicy("https://music.example.com/*", time.Now().Add(time.Hour)),
		Signature: "sig~value_",
		KeyPairID: "K2JCJMDEHXQW5F",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL)
	c.retryWait = time.Millisecond
	c.SetCookies(testCookies())
	return c
}

func TestFetchManifest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manifest.json", r.URL.Path)
		ck, err := r.Cookie(CookieKeyPairID)
		if assert.NoError(t, err) {
			assert.Equal(t, "K2JCJMDEHXQW5F", ck.Value)
		}
		_, _ = w.Write([]byte(`{"tracks":[{"id":"a","artist":"A","path":"audio/a.mp3"}]}`))
	})

	m, err := c.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Tracks, 1)
	assert.Equal(t, "audio/a.mp3", m.Tracks[0].Path)
}

func TestFetchManifestEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tracks": []}`))
	})

	_, err := c.FetchManifest(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, needleerrors.ErrNoTracks)

	var me *needleerrors.ManifestError
	assert.True(t, errors.As(err, &me))
}

func TestFetchManifestForbidden(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.FetchManifest(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, needleerrors.ErrReauthRequired)
	assert.True(t, IsForbidden(err))
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")

	var me *needleerrors.ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, http.StatusForbidden, me.Status)
}

func TestFetchManifestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.FetchManifest(context.Background())
	var me *needleerrors.ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, http.StatusNotFound, me.Status)
	assert.NotErrorIs(t, err, needleerrors.ErrReauthRequired)
}

func TestFetchManifestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"tracks":[{"id":"a","path":"a.mp3"}]}`))
	})

	m, err := c.FetchManifest(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Tracks, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchManifestGivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchManifest(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
	assert.Contains(t, err.Error(), "after 3 retries")
}

func TestFetchManifestBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.FetchManifest(context.Background())
	var me *needleerrors.ManifestError
	assert.True(t, errors.As(err, &me))
}

func TestFetchManifestCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.retryWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.FetchManifest(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMediaURL(t *testing.T) {
	c := New("https://music.example.com/")
	assert.Equal(t, "https://music.example.com/audio/a.mp3", c.MediaURL("audio/a.mp3"))
	assert.Equal(t, "https://music.example.com/audio/My%20Song.mp3", c.MediaURL("audio/My Song.mp3"))
	assert.Equal(t, "", c.MediaURL(""))
	assert.Equal(t, "https://music.example.com/manifest.json", c.ManifestURL())

	c = New("https://music.example.com", WithManifestPath("/v2/catalog.json"))
	assert.Equal(t, "https://music.example.com/v2/catalog.json", c.ManifestURL())
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio/a.mp3":
			_, _ = w.Write([]byte("ID3 fake audio"))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	})
	dir := t.TempDir()

	var lastWritten int64
	track := core.Track{ID: "a", Artist: "Burial", Title: "Archangel", Path: "audio/a.mp3"}
	res, err := c.Download(context.Background(), track, dir, func(_ core.Track, written, _ int64) {
		lastWritten = written
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Burial - Archangel.mp3"), res.Path)
	assert.Equal(t, int64(14), res.Bytes)
	assert.Equal(t, int64(14), lastWritten)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "ID3 fake audio", string(data))

	_, err = c.Download(context.Background(), core.Track{ID: "b", Path: "audio/b.mp3"}, dir, nil)
	assert.ErrorIs(t, err, needleerrors.ErrReauthRequired)
	assert.True(t, needleerrors.IsAuth(err))
}

func TestDownloadAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audio/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("x"))
	})

	tracks := []core.Track{
		{ID: "a", Title: "One", Path: "audio/a.mp3"},
		{ID: "m", Title: "Missing", Path: "audio/missing.mp3"},
		{ID: "c", Title: "Three", Path: "audio/c.mp3"},
	}
	res := c.DownloadAll(context.Background(), tracks, t.TempDir(), nil)
	assert.Len(t, res.Data, 2)
	assert.True(t, res.HasErrors())
	assert.Len(t, res.Errors, 1)
}

func TestRateLimitOption(t *testing.T) {
	c := New("https://x", WithRateLimit(0))
	assert.Nil(t, c.limiter)

	c = New("https://x", WithRateLimit(0.5))
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}
