package analytics

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"
)

// Follower polls an event log and emits events appended to it.
type Follower struct {
	path     string
	interval time.Duration
	offset   int64
	events   chan Event
	done     chan struct{}
}

// NewFollower creates a follower for the JSON-lines file at path. When
// fromStart is false only events written after Start are emitted.
func NewFollower(path string, interval time.Duration, fromStart bool) *Follower {
	if interval == 0 {
		interval = time.Second
	}
	f := &Follower{
		path:     path,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
	if !fromStart {
		if info, err := os.Stat(path); err == nil {
			f.offset = info.Size()
		}
	}
	return f
}

// Events returns the channel of followed events.
func (f *Follower) Events() <-chan Event {
	return f.events
}

// Start polls until the context is cancelled or Stop is called.
func (f *Follower) Start(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	defer close(f.events)

	if err := f.poll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-ticker.C:
			if err := f.poll(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop stops the follower.
func (f *Follower) Stop() {
	close(f.done)
}

func (f *Follower) poll(ctx context.Context) error {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	// Rotated or truncated.
	if info.Size() < f.offset {
		f.offset = 0
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Leave a partial line for the next poll.
			return nil
		}
		if err != nil {
			return err
		}
		f.offset += int64(len(line))

		var e Event
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		select {
		case f.events <- e:
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		}
	}
}

// ReadAll parses every event in the file at path.
func ReadAll(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var out []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Event
		if json.Unmarshal(scanner.Bytes(), &e) == nil {
			out = append(out, e)
		}
	}
	return out, scanner.Err()
}
