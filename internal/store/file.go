package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// File persists all keys in a single JSON object on disk. Every operation
// re-reads the file under an advisory lock, so concurrent processes see
// each other's writes (last write wins per key). Update holds the lock
// across its read and write.
type File struct {
	path string
	// mu serializes goroutines; flock.Flock does not block a second
	// Lock from the same handle.
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFile creates a file store at path. The file is created on first write.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	return &File{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the path to the backing file.
func (f *File) Path() string {
	return f.path
}

// Get implements KV.
func (f *File) Get(key string) (string, bool, error) {
	if err := f.ensureDir(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("failed to lock store: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	data, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set implements KV.
func (f *File) Set(key, value string) error {
	return f.update(func(data map[string]string) (bool, error) {
		data[key] = value
		return true, nil
	})
}

// Delete implements KV.
func (f *File) Delete(key string) error {
	return f.update(func(data map[string]string) (bool, error) {
		delete(data, key)
		return true, nil
	})
}

// Update implements Updater.
func (f *File) Update(key string, fn UpdateFunc) error {
	return f.update(func(data map[string]string) (bool, error) {
		old, ok := data[key]
		value, write, err := fn(old, ok)
		if err != nil || !write {
			return false, err
		}
		data[key] = value
		return true, nil
	})
}

func (f *File) update(fn func(map[string]string) (bool, error)) error {
	if err := f.ensureDir(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	data, err := f.read()
	if err != nil {
		return err
	}
	changed, err := fn(data)
	if err != nil || !changed {
		return err
	}
	return f.write(data)
}

func (f *File) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

func (f *File) read() (map[string]string, error) {
	data := make(map[string]string)
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse store: %w", err)
	}
	return data, nil
}

func (f *File) write(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := f.path + ".tmp"
	// Owner only: the store holds signed cookies.
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}
