package analytics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SearchDebounce is how long search input must settle before it is recorded.
const SearchDebounce = 500 * time.Millisecond

// Tracker is the recording surface used by the player.
type Tracker interface {
	Track(t Type, p Params)
	Search(term string, results int)
}

// Sink receives recorded events.
type Sink interface {
	Write(e Event) error
}

// Recorder stamps events with a session id and fans them out to sinks.
// A nil *Recorder discards everything.
type Recorder struct {
	session string
	sinks   []Sink
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	debounce time.Duration
	pending  *time.Timer
	search   *Event
}

// NewRecorder creates a recorder writing to sinks.
func NewRecorder(logger *log.Logger, sinks ...Sink) *Recorder {
	return &Recorder{
		session:  uuid.New().String(),
		sinks:    sinks,
		logger:   logger,
		now:      time.Now,
		debounce: SearchDebounce,
	}
}

// Session returns the session id stamped on every event.
func (r *Recorder) Session() string {
	if r == nil {
		return ""
	}
	return r.session
}

// Track records an event immediately.
func (r *Recorder) Track(t Type, p Params) {
	if r == nil {
		return
	}
	r.emit(Event{Type: t, Timestamp: r.now(), Session: r.session, Params: p})
}

// Search records a search once input has been idle for the debounce
// interval. An empty term cancels any pending search.
func (r *Recorder) Search(term string, results int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
		r.search = nil
	}
	if term == "" {
		return
	}

	e := Event{
		Type:      Search,
		Timestamp: r.now(),
		Session:   r.session,
		Params:    Params{"search_term": term, "results_count": results},
	}
	r.search = &e
	r.pending = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		pending := r.search
		r.search = nil
		r.pending = nil
		r.mu.Unlock()
		if pending != nil {
			r.emit(*pending)
		}
	})
}

// Flush records a pending search immediately.
func (r *Recorder) Flush() {
	if r == nil {
		return
	}
	r.mu.Lock()
	pending := r.search
	if r.pending != nil {
		r.pending.Stop()
	}
	r.pending = nil
	r.search = nil
	r.mu.Unlock()

	if pending != nil {
		r.emit(*pending)
	}
}

// Close flushes pending events and closes sinks that hold resources.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.Flush()
	var firstErr error
	for _, s := range r.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Recorder) emit(e Event) {
	for _, s := range r.sinks {
		if err := s.Write(e); err != nil && r.logger != nil {
			r.logger.Warn("analytics sink failed", "event", e.Type, "err", err)
		}
	}
}

// FileSink appends events as JSON lines to a rotating file.
type FileSink struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// NewFileSink opens path for appending.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create analytics directory: %w", err)
	}
	return &FileSink{out: &lumberjack.Logger{Filename: path, MaxSize: 10, MaxBackups: 2}}, nil
}

// Write implements Sink.
func (s *FileSink) Write(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(append(data, '\n'))
	return err
}

// Close closes the file.
func (s *FileSink) Close() error {
	return s.out.Close()
}

// LogSink writes events to a logger at debug level.
type LogSink struct {
	Logger *log.Logger
}

// Write implements Sink.
func (s LogSink) Write(e Event) error {
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, e.Params[k])
	}
	s.Logger.Debug(string(e.Type), kv...)
	return nil
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Write implements Sink.
func (s *MemorySink) Write(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Types returns the recorded event types in order.
func (s *MemorySink) Types() []Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Type, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}
