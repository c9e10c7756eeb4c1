package fakestore

import (
	"sync"

	"github.com/jrsteele09/go-card-portal/storage"
)

var _ storage.Store = (*FakeStore)(nil)

// FakeStore is an in-memory storage.Store. Writes can be made to fail with FailWrites.
type FakeStore struct {
	values     map[string]string
	lock       sync.RWMutex
	FailWrites error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

// Seed stores raw values without going through the failure hook
func (fs *FakeStore) Seed(values map[string]string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	for k, v := range values {
		fs.values[k] = v
	}
}

func (fs *FakeStore) Get(key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStore) Set(key, value string) error {
	return fs.SetAll(map[string]string{key: value})
}

func (fs *FakeStore) SetAll(values map[string]string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.FailWrites != nil {
		return fs.FailWrites
	}
	for k, v := range values {
		fs.values[k] = v
	}
	return nil
}

func (fs *FakeStore) Remove(keys ...string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	for _, k := range keys {
		delete(fs.values, k)
	}
	return nil
}

// Len returns the number of stored keys
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.values)
}

func (fs *FakeStore) Close() error {
	return nil
}
