package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileStoreName = "session.json"

// FileStore keeps all keys in a single JSON document.
// Writes go to a temp file which is renamed over the original.
type FileStore struct {
	path   string
	lock   sync.Mutex
	closed bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the data folder if needed and returns a store backed by
// <folder>/session.json
func NewFileStore(folder string) (*FileStore, error) {
	if err := os.MkdirAll(folder, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data folder: %w", err)
	}
	return &FileStore{path: filepath.Join(folder, fileStoreName)}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	return s.SetAll(map[string]string{key: value})
}

func (s *FileStore) SetAll(entries map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if errors.Is(err, ErrClosed) {
		return err
	}
	if err != nil {
		// Unreadable content is replaced rather than blocking new writes
		values = map[string]string{}
	}
	for k, v := range entries {
		values[k] = v
	}
	return s.save(values)
}

func (s *FileStore) Remove(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if errors.Is(err, ErrClosed) {
		return err
	}
	if err != nil {
		values = map[string]string{}
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return s.save(values)
}

func (s *FileStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	if s.closed {
		return nil, ErrClosed
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session file: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	if s.closed {
		return ErrClosed
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
