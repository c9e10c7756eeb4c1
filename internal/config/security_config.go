package config

import "time"

type SecurityConfig interface {
	GetTokenSecret() string
	GetTokenLifetime() time.Duration
	GetMinPasswordLength() int
	GetSystemAdminEmail() string
	GetSystemAdminPassword() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetTokenSecret is the HMAC key the development backend signs session tokens with
func (Security) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-only-token-secret-change-me")
}

func (Security) GetTokenLifetime() time.Duration {
	return durationEnv("TOKEN_LIFETIME", 24*time.Hour)
}

func (Security) GetMinPasswordLength() int {
	return 8
}

// GetSystemAdminEmail is the administrator the development backend creates on start
func (Security) GetSystemAdminEmail() string {
	return GetEnv("SYSTEM_ADMIN_EMAIL", "admin@localhost")
}

// GetSystemAdminPassword is empty unless set, in which case a random password is generated and logged
func (Security) GetSystemAdminPassword() string {
	return GetEnv("SYSTEM_ADMIN_PASSWORD", "")
}
