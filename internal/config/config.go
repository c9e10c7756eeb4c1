package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	ClientConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetAPIBaseURL() string
	GetStorageBackend() StorageBackend
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// ClientConfig holds the tunables of the portal client
type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetNotificationPollInterval() time.Duration
	GetRecentNotificationLimit() int
}

type mainConfig struct {
	EnvVars
	Cors
	Client
	Security
}

func New() Config {
	return mainConfig{}
}
