// Package playback drives an external media player process.
package playback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

// DurationPrefix marks the line a player prints with the track length in
// seconds.
const DurationPrefix = "NEEDLE_DURATION="

// Options configures an ExecPlayer.
type Options struct {
	// Command is the player executable.
	Command string
	// Args may contain {url}, {cookie}, {start} and {volume} placeholders.
	Args []string
	// Volume is the initial volume in percent.
	Volume int
	// Cookie returns the Cookie header sent with media requests.
	Cookie func() string
}

// ExecPlayer implements core.MediaPlayer by running one player process
// per track. Seeking and volume changes restart the process at the
// current position.
type ExecPlayer struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	cmd      *exec.Cmd
	gen      int
	track    *core.Track
	url      string
	offset   time.Duration
	started  time.Time
	paused   bool
	pausedAt time.Time
	duration time.Duration
	volume   int

	events chan core.PlayerEvent
	closed chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewExecPlayer creates a player. Call Close to release it.
func NewExecPlayer(opts Options) *ExecPlayer {
	if opts.Cookie == nil {
		opts.Cookie = func() string { return "" }
	}
	return &ExecPlayer{
		opts:   opts,
		now:    time.Now,
		volume: clampVolume(opts.Volume),
		events: make(chan core.PlayerEvent, 16),
		closed: make(chan struct{}),
	}
}

// Events reports started, ended and failed tracks.
func (p *ExecPlayer) Events() <-chan core.PlayerEvent {
	return p.events
}

// ExpandArgs substitutes placeholders in args.
func ExpandArgs(args []string, url, cookie string, start time.Duration, volume int) []string {
	r := strings.NewReplacer(
		"{url}", url,
		"{cookie}", cookie,
		"{start}", strconv.FormatFloat(start.Seconds(), 'f', 1, 64),
		"{volume}", strconv.Itoa(volume),
	)
	out := make([]string, 0, len(args))
	for _, a := range args {
		// Drop cookie arguments when there is no cookie to send.
		if cookie == "" && strings.Contains(a, "{cookie}") {
			continue
		}
		out = append(out, r.Replace(a))
	}
	return out
}

// Play implements core.MediaPlayer.
func (p *ExecPlayer) Play(ctx context.Context, track core.Track, url string, start time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(ctx, track, url, start, 0)
}

func (p *ExecPlayer) startLocked(_ context.Context, track core.Track, url string, start, knownDuration time.Duration) error {
	select {
	case <-p.closed:
		return errors.New("player is closed")
	default:
	}

	p.killLocked()

	if start < 0 {
		start = 0
	}
	args := ExpandArgs(p.opts.Args, url, p.opts.Cookie(), start, p.volume)
	cmd := exec.Command(p.opts.Command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to player: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &needleerrors.PlaybackError{TrackID: track.ID, Err: fmt.Errorf("failed to start %s: %w", p.opts.Command, err)}
	}

	p.gen++
	gen := p.gen
	t := track
	p.cmd = cmd
	p.track = &t
	p.url = url
	p.offset = start
	p.started = p.now()
	p.paused = false
	p.duration = knownDuration

	p.wg.Add(1)
	go p.wait(cmd, stdout, gen, track.ID)

	// Never block while holding the lock.
	select {
	case p.events <- core.PlayerEvent{Type: core.PlayerStarted, TrackID: track.ID, At: p.now()}:
	default:
	}
	return nil
}

func (p *ExecPlayer) wait(cmd *exec.Cmd, stdout io.Reader, gen int, trackID string) {
	defer p.wg.Done()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, DurationPrefix) {
			continue
		}
		secs, err := strconv.ParseFloat(strings.TrimPrefix(line, DurationPrefix), 64)
		if err != nil || secs <= 0 {
			continue
		}
		p.mu.Lock()
		if p.gen == gen {
			p.duration = time.Duration(secs * float64(time.Second))
		}
		p.mu.Unlock()
	}

	err := cmd.Wait()

	p.mu.Lock()
	current := p.gen == gen
	if current {
		p.cmd = nil
		p.paused = false
	}
	p.mu.Unlock()

	// Processes replaced or stopped by us report nothing.
	if !current {
		return
	}
	if err != nil {
		p.emit(core.PlayerEvent{Type: core.PlayerFailed, TrackID: trackID, Err: err, At: p.now()})
		return
	}
	p.emit(core.PlayerEvent{Type: core.PlayerEnded, TrackID: trackID, At: p.now()})
}

func (p *ExecPlayer) emit(e core.PlayerEvent) {
	select {
	case p.events <- e:
	case <-p.closed:
	}
}

// killLocked stops the current process without reporting an event.
func (p *ExecPlayer) killLocked() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	p.gen++
	if p.paused {
		_ = resume(p.cmd.Process)
	}
	_ = p.cmd.Process.Kill()
	p.cmd = nil
}

// Pause implements core.MediaPlayer.
func (p *ExecPlayer) Pause(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.paused {
		return nil
	}
	if err := suspend(p.cmd.Process); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	p.paused = true
	p.pausedAt = p.now()
	return nil
}

// Resume implements core.MediaPlayer.
func (p *ExecPlayer) Resume(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || !p.paused {
		return nil
	}
	if err := resume(p.cmd.Process); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	p.started = p.started.Add(p.now().Sub(p.pausedAt))
	p.paused = false
	return nil
}

// Seek implements core.MediaPlayer.
func (p *ExecPlayer) Seek(ctx context.Context, position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil || p.cmd == nil {
		return nil
	}
	if p.duration > 0 && position > p.duration {
		position = p.duration
	}
	return p.restartLocked(ctx, position)
}

// Volume implements core.MediaPlayer.
func (p *ExecPlayer) Volume(ctx context.Context, percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	percent = clampVolume(percent)
	if percent == p.volume {
		return nil
	}
	p.volume = percent
	if p.track == nil || p.cmd == nil {
		return nil
	}
	return p.restartLocked(ctx, p.positionLocked())
}

// restartLocked replaces the process at position, keeping it suspended
// if playback was paused.
func (p *ExecPlayer) restartLocked(ctx context.Context, position time.Duration) error {
	paused := p.paused
	if err := p.startLocked(ctx, *p.track, p.url, position, p.duration); err != nil {
		return err
	}
	if !paused {
		return nil
	}
	if err := suspend(p.cmd.Process); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	p.paused = true
	p.pausedAt = p.started
	return nil
}

// Stop implements core.MediaPlayer.
func (p *ExecPlayer) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	p.track = nil
	return nil
}

// State implements core.MediaPlayer.
func (p *ExecPlayer) State(_ context.Context) (*core.PlaybackState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &core.PlaybackState{
		Volume:   p.volume,
		Duration: p.duration,
	}
	if p.track != nil {
		t := *p.track
		s.Track = &t
		s.IsPlaying = p.cmd != nil && !p.paused
		s.Position = p.positionLocked()
	}
	return s, nil
}

func (p *ExecPlayer) positionLocked() time.Duration {
	if p.track == nil {
		return 0
	}
	end := p.now()
	if p.paused {
		end = p.pausedAt
	}
	pos := p.offset
	if p.cmd != nil {
		pos += end.Sub(p.started)
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

// Close stops playback and waits for the process watcher to exit.
func (p *ExecPlayer) Close() error {
	p.mu.Lock()
	p.killLocked()
	p.track = nil
	p.mu.Unlock()

	p.once.Do(func() { close(p.closed) })
	p.wg.Wait()
	return nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

