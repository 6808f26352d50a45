// Package store provides the small key-value persistence layer behind the
// access tier, the signed-cookie triple and the heard-track set.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// KV is a string key-value store.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// UpdateFunc computes a new value from the current one. ok reports whether
// the key exists. Returning write false leaves the key untouched.
type UpdateFunc func(old string, ok bool) (value string, write bool, err error)

// Updater is implemented by stores that can read and rewrite a key without
// another writer slipping in between.
type Updater interface {
	Update(key string, fn UpdateFunc) error
}

// Update applies fn to key, atomically when kv is an Updater.
func Update(kv KV, key string, fn UpdateFunc) error {
	if u, ok := kv.(Updater); ok {
		return u.Update(key, fn)
	}
	old, ok, err := kv.Get(key)
	if err != nil {
		return err
	}
	value, write, err := fn(old, ok)
	if err != nil || !write {
		return err
	}
	return kv.Set(key, value)
}

// Closer is implemented by stores holding an open resource.
type Closer interface {
	Close() error
}

// Open returns the store for the given backend. Path is a directory for the
// file and sqlite backends and is ignored for memory.
func Open(backend, dir string) (KV, error) {
	switch backend {
	case "", "file":
		return NewFile(filepath.Join(dir, "state.json"))
	case "sqlite":
		return OpenSQLite(filepath.Join(dir, "state.db"))
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Close closes kv if it holds a resource.
func Close(kv KV) error {
	if c, ok := kv.(Closer); ok {
		return c.Close()
	}
	return nil
}

// GetJSON decodes the JSON value stored under key into v.
// It reports false when the key is absent.
func GetJSON(kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON under key.
func SetJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return kv.Set(key, string(data))
}
