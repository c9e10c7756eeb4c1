package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	folderEnvVar      = "FOLDER"
	apiBaseURLVar     = "API_BASE_URL"
	storageBackendVar = "STORAGE_BACKEND"
)

// StorageBackend selects where the session is persisted between runs
type StorageBackend string

const (
	StorageFile   StorageBackend = "file"
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8000")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Card Portal")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetAPIBaseURL returns the backend root, e.g. "http://localhost:8000".
// Paths such as /api/users/login/ are appended to it.
func (EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8000"), "/")
}

func (EnvVars) GetStorageBackend() StorageBackend {
	switch b := StorageBackend(strings.ToLower(GetEnv(storageBackendVar, string(StorageFile)))); b {
	case StorageFile, StorageSQLite, StorageMemory:
		return b
	default:
		return StorageFile
	}
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
