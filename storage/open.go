package storage

import (
	"fmt"

	"github.com/jrsteele09/go-card-portal/internal/config"
)

// Open returns the store selected by backend, rooted at folder
func Open(backend config.StorageBackend, folder string) (Store, error) {
	switch backend {
	case config.StorageSQLite:
		return NewSQLiteStore(folder)
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageFile, "":
		return NewFileStore(folder)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
