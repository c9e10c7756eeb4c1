// Package storage provides the durable key/value store the portal keeps its
// session in. It plays the part a browser's local storage plays for a web
// client: values are strings, scoped to one data folder, and survive restarts.
package storage

import "errors"

// ErrClosed is returned by stores after Close
var ErrClosed = errors.New("storage closed")

type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores a single value
	Set(key, value string) error

	// SetAll stores every entry in one write; either all are persisted or none are
	SetAll(values map[string]string) error

	// Remove deletes the given keys. Absent keys are not an error.
	Remove(keys ...string) error

	Close() error
}
