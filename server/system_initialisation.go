package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

const DefaultSystemAdminUsername = "admin"

// InitialiseSystem creates the system administrator when it does not exist yet.
// A password is generated and logged when none is configured.
func (s *Server) InitialiseSystem() error {
	email := s.config.GetSystemAdminEmail()
	generatedPassword, err := s.createSystemAdmin(email, s.config.GetSystemAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap system admin: %w", err)
	}

	// A configured password is never echoed
	if generatedPassword != "" && s.config.GetSystemAdminPassword() == "" {
		log.Info().
			Str("email", email).
			Str("password", generatedPassword).
			Msg("system administrator created")
	}
	return nil
}

func (s *Server) createSystemAdmin(email, password string) (generatedPassword string, err error) {
	existing, err := s.users.GetByEmail(email)
	if err == nil && existing != nil && existing.IsAdmin() {
		return "", nil
	}

	generatedPassword = password
	if generatedPassword == "" {
		// Generate a secure random password
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server createSystemAdmin] failed to generate password: %w", err)
		}
		generatedPassword = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	passwordHash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return "", fmt.Errorf("[server createSystemAdmin] failed to hash password: %w", err)
	}

	now := s.now()
	admin := &users.Account{
		Identity: users.Identity{
			Email:       email,
			Username:    DefaultSystemAdminUsername,
			FirstName:   "System",
			LastName:    "Administrator",
			UserType:    users.RoleAdmin,
			Status:      users.StatusActive,
			IsSuperuser: true,
			DateCreated: &now,
		},
		PasswordHash: passwordHash,
	}
	if err := s.users.Upsert(admin); err != nil {
		return "", fmt.Errorf("[server createSystemAdmin] failed to create system admin: %w", err)
	}
	return generatedPassword, nil
}
