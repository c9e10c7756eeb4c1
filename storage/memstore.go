package storage

import "sync"

// MemoryStore is a non-durable Store. The session is lost when the process exits.
type MemoryStore struct {
	values map[string]string
	lock   sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	return s.SetAll(map[string]string{key: value})
}

func (s *MemoryStore) SetAll(values map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *MemoryStore) Remove(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
