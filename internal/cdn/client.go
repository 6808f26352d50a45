// Package cdn talks to the content delivery network serving the manifest
// and the media files.
package cdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

const (
	// DefaultManifestPath is where the catalog manifest lives.
	DefaultManifestPath = "/manifest.json"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	maxErrorBody = 512
)

// Client fetches the manifest and media with the signed-cookie triple.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	manifestPath string
	limiter      *rate.Limiter
	retryWait    time.Duration

	mu      sync.RWMutex
	cookies *SignedCookies

	verbose bool
	logFunc func(format string, args ...interface{})
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithManifestPath overrides DefaultManifestPath.
func WithManifestPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.manifestPath = p
		}
	}
}

// WithRateLimit caps requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a client for the CDN at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		manifestPath: DefaultManifestPath,
		retryWait:    baseRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVerbose enables verbose logging.
func (c *Client) SetVerbose(verbose bool, logFunc func(format string, args ...interface{})) {
	c.verbose = verbose
	c.logFunc = logFunc
}

func (c *Client) log(format string, args ...interface{}) {
	if c.verbose && c.logFunc != nil {
		c.logFunc(format, args...)
	}
}

// SetCookies sets the triple sent with every request.
func (c *Client) SetCookies(cookies *SignedCookies) {
	c.mu.Lock()
	c.cookies = cookies
	c.mu.Unlock()
}

// Cookies returns the current triple.
func (c *Client) Cookies() *SignedCookies {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookies
}

// BaseURL returns the CDN origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ManifestURL returns the absolute manifest URL.
func (c *Client) ManifestURL() string {
	return c.baseURL + c.manifestPath
}

// MediaURL returns the absolute URL of a relative media path.
func (c *Client) MediaURL(path string) string {
	if path == "" {
		return ""
	}
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	return u
}

// FetchManifest loads the catalog. A 403 yields a ManifestError wrapping
// ErrReauthRequired; an empty track list one wrapping ErrNoTracks.
func (c *Client) FetchManifest(ctx context.Context) (*core.Manifest, error) {
	resp, err := c.get(ctx, c.ManifestURL())
	if err != nil {
		return nil, manifestError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &needleerrors.ManifestError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var m core.Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &needleerrors.ManifestError{Err: fmt.Errorf("failed to parse manifest: %w", err)}
	}
	if len(m.Tracks) == 0 {
		return nil, &needleerrors.ManifestError{Err: needleerrors.ErrNoTracks}
	}

	c.log("[cdn] manifest: %d tracks", len(m.Tracks))
	return &m, nil
}

func manifestError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &needleerrors.ManifestError{Err: err}
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusForbidden:
			return &needleerrors.ManifestError{Status: se.StatusCode, Err: needleerrors.ErrReauthRequired}
		case http.StatusTooManyRequests:
			return &needleerrors.ManifestError{Status: se.StatusCode, Err: needleerrors.ErrRateLimited}
		}
		return &needleerrors.ManifestError{Status: se.StatusCode, Err: err}
	}
	return &needleerrors.ManifestError{Err: err}
}

// Open starts a GET for a media path and returns the response body and its
// declared length (-1 if unknown). The caller closes the body.
func (c *Client) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	resp, err := c.get(ctx, c.MediaURL(path))
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusForbidden {
			return nil, 0, &needleerrors.AuthError{Op: "media", Err: needleerrors.ErrReauthRequired}
		}
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// get performs a GET with cookies, rate limiting and retries. Network
// errors and 5xx responses are retried; other 4xx responses are not.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	c.log("[cdn] GET %s", rawURL)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.log("[cdn] retry %d/%d after %v (last error: %v)", attempt, maxRetries, wait, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for _, ck := range c.Cookies().HTTPCookies() {
			req.AddCookie(ck)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", needleerrors.ErrNetworkError, err)
			c.log("[cdn] network error: %v", err)
			continue // Retry on network error
		}

		c.log("[cdn] response: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))

		if resp.StatusCode < 400 {
			return resp, nil
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 {
			lastErr = statusErr
			c.log("[cdn] server error, will retry: %v", lastErr)
			continue
		}

		// Don't retry 4xx errors
		return nil, statusErr
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// StatusError is a non-2xx CDN response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("CDN error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("CDN error: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsForbidden reports whether err is a 403 from the CDN.
func IsForbidden(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusForbidden
	}
	return errors.Is(err, needleerrors.ErrReauthRequired)
}
