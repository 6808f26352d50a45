package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/analytics"
	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/cdn"
	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/logging"
	"github.com/tessro/needle/internal/playback"
	"github.com/tessro/needle/internal/session"
	"github.com/tessro/needle/internal/store"
)

// deps holds the wired components shared by commands.
type deps struct {
	logger   *log.Logger
	kv       store.KV
	gate     *access.Gate
	cookies  *cdn.CookieStorage
	client   *cdn.Client
	jar      *cdn.Jar
	recorder *analytics.Recorder

	closers []io.Closer
}

// openDeps wires the store, access gate, CDN client and analytics. Log
// output goes to w unless log.file is set.
func openDeps(w io.Writer) (*deps, error) {
	logger, logCloser := logging.New(cfg.Log, w)
	if Verbose() {
		logger.SetLevel(log.DebugLevel)
	}

	kv, err := store.Open(cfg.Storage.Backend, cfg.StorePath())
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	opts := []cdn.Option{
		cdn.WithTimeout(time.Duration(cfg.CDN.Timeout) * time.Second),
		cdn.WithManifestPath(cfg.CDN.ManifestPath),
		cdn.WithRateLimit(cfg.CDN.RateLimit),
	}
	client := cdn.New(cfg.CDN.BaseURL, opts...)
	if Verbose() {
		client.SetVerbose(true, func(format string, args ...interface{}) {
			logger.Debugf(format, args...)
		})
	}

	cookies := cdn.NewCookieStorage(kv)
	d := &deps{
		logger:  logger,
		kv:      kv,
		gate:    access.NewGate(kv),
		cookies: cookies,
		client:  client,
		jar:     cdn.NewJar(cookies, cfg.CDN.CookiesFile, client),
		closers: []io.Closer{logCloser},
	}

	sinks := []analytics.Sink{analytics.LogSink{Logger: logger}}
	if !cfg.Analytics.Disabled {
		fileSink, err := analytics.NewFileSink(cfg.AnalyticsPath())
		if err != nil {
			logger.Warn("analytics disabled", "err", err)
		} else {
			sinks = append(sinks, fileSink)
		}
	}
	d.recorder = analytics.NewRecorder(logger, sinks...)

	// Hand a stored triple to the client.
	d.jar.Valid()

	return d, nil
}

// Close flushes analytics and releases the store and log file.
func (d *deps) Close() error {
	var errs []error
	if err := d.recorder.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := store.Close(d.kv); err != nil {
		errs = append(errs, err)
	}
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *deps) verifier() access.PasswordVerifier {
	return access.PasswordVerifier{Plain: cfg.Access.Password, Hash: cfg.Access.PasswordHash}
}

func (d *deps) browser() *catalog.Browser {
	browse, _ := access.ParseTier(cfg.Access.BrowseTier)
	download, _ := access.ParseTier(cfg.Access.DownloadTier)
	return catalog.NewBrowser(browse, download)
}

func (d *deps) controller() *session.Controller {
	return session.New(session.Options{
		Gate:        d.gate,
		Verifier:    d.verifier(),
		Jar:         d.jar,
		Store:       d.kv,
		Browser:     d.browser(),
		Fetcher:     d.client,
		Tracker:     d.recorder,
		Logger:      logging.With(d.logger, "component", "session"),
		AuthURL:     cfg.CDN.AuthURL,
		SeekStep:    time.Duration(cfg.Player.SeekStep) * time.Second,
		Volume:      cfg.Player.Volume,
		MaxFailures: cfg.Player.MaxFailures,
	})
}

func (d *deps) player() *playback.ExecPlayer {
	return playback.NewExecPlayer(playback.Options{
		Command: cfg.Player.Command,
		Args:    cfg.Player.Args,
		Volume:  cfg.Player.Volume,
		Cookie: func() string {
			if c := d.client.Cookies(); c != nil {
				return c.Header()
			}
			return ""
		},
	})
}

func (d *deps) executor(p *playback.ExecPlayer) *session.Executor {
	return &session.Executor{
		Player: p,
		MediaURL: func(path string) (string, error) {
			return d.client.MediaURL(path), nil
		},
	}
}

// requireTier returns an AuthError unless the stored tier is at least t.
func (d *deps) requireTier(op string, t access.Tier) error {
	if d.gate.Has(t) {
		return nil
	}
	return &needleerrors.AuthError{
		Op:  op,
		Err: fmt.Errorf("%w: %s needs %s", needleerrors.ErrInsufficientTier, d.gate.Tier().Label(), t.Label()),
	}
}
