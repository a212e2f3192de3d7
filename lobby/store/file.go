package store

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// fileRecord represents the JSON structure written for each key
type fileRecord struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore implements Store with one JSON file per key
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-based store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store directory cannot be empty")
	}
	// Create the directory if it doesn't exist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) Get(key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	rec, err := fs.read(fs.getFilePath(key))
	if err != nil {
		return nil, err
	}
	return []byte(rec.Value), nil
}

func (fs *FileStore) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileRecord{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Write via a temp file and rename
	path := fs.getFilePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.getFilePath(key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (fs *FileStore) ListAll() ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := fs.read(filepath.Join(fs.dir, entry.Name()))
		if err != nil {
			continue
		}
		keys = append(keys, rec.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (fs *FileStore) Exists(key string) bool {
	_, err := os.Stat(fs.getFilePath(key))
	return err == nil
}

func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) read(path string) (fileRecord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fileRecord{}, ErrNotFound
	}
	if err != nil {
		return fileRecord{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fileRecord{}, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return rec, nil
}

// getFilePath returns the file path for a key; keys are encoded so any
// character is safe in a file name
func (fs *FileStore) getFilePath(key string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(key))
	return filepath.Join(fs.dir, name+".json")
}
