package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrEmptyKey       = errors.New("key cannot be empty")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrClosed         = errors.New("store is closed")
)

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Store defines the interface for persisting client state
type Store interface {
	// Get returns the value stored under key or ErrNotFound
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(key string, value []byte) error

	// Delete removes key or returns ErrNotFound
	Delete(key string) error

	// ListAll returns every stored key
	ListAll() ([]string, error)

	// Exists checks if key is present
	Exists(key string) bool

	// Close releases the backend
	Close() error
}

// Open creates a store for the named backend. dir is ignored by the memory
// backend; an empty dir makes the badger backend run in memory. ttl only
// applies to badger.
func Open(backend, dir string, ttl time.Duration) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(dir)
	case BackendBadger:
		return NewBadgerStore(dir, ttl)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// GetString returns the value under key as a string
func GetString(s Store, key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetString stores a string value
func SetString(s Store, key, value string) error {
	return s.Set(key, []byte(value))
}

// GetJSON decodes the value under key into v
func GetJSON(s Store, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(key, data)
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
