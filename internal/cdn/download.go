package cdn

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

// DownloadResult describes one saved track.
type DownloadResult struct {
	Track core.Track
	Path  string
	Bytes int64
}

// ProgressFunc is called as bytes arrive. Total is -1 when unknown.
type ProgressFunc func(track core.Track, written, total int64)

// Download saves track into dir as "Artist - Title.mp3". The file is
// written to a temporary name and renamed once complete.
func (c *Client) Download(ctx context.Context, track core.Track, dir string, progress ProgressFunc) (DownloadResult, error) {
	if track.Path == "" {
		return DownloadResult{}, fmt.Errorf("track %s has no media path", track.ID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return DownloadResult{}, fmt.Errorf("failed to create download directory: %w", err)
	}

	body, total, err := c.Open(ctx, track.Path)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download %s: %w", track, err)
	}
	defer func() { _ = body.Close() }()

	dest := filepath.Join(dir, track.DownloadName())
	tmp, err := os.CreateTemp(dir, ".needle-*.part")
	if err != nil {
		return DownloadResult{}, fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	var w io.Writer = tmp
	if progress != nil {
		w = &progressWriter{w: tmp, track: track, total: total, fn: progress}
	}

	n, err := io.Copy(w, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download %s: %w", track, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return DownloadResult{}, fmt.Errorf("failed to save %s: %w", dest, err)
	}

	c.log("[cdn] saved %s (%d bytes)", dest, n)
	return DownloadResult{Track: track, Path: dest, Bytes: n}, nil
}

// DownloadAll saves each track, continuing past failures.
func (c *Client) DownloadAll(ctx context.Context, tracks []core.Track, dir string, progress ProgressFunc) *needleerrors.PartialResult[[]DownloadResult] {
	result := &needleerrors.PartialResult[[]DownloadResult]{}
	for _, t := range tracks {
		if ctx.Err() != nil {
			result.AddError(ctx.Err())
			break
		}
		r, err := c.Download(ctx, t, dir, progress)
		if err != nil {
			result.AddError(err)
			continue
		}
		result.Data = append(result.Data, r)
	}
	return result
}

type progressWriter struct {
	w       io.Writer
	track   core.Track
	total   int64
	written int64
	fn      ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.fn(p.track, p.written, p.total)
	return n, err
}
