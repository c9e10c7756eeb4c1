package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/go-card-portal/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the account type the backend assigns to a user
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Reviews card requests and manages accounts
	RoleUser  RoleType = "user"  // Requests and uses virtual cards
)

// StatusType is the lifecycle state of an account
type StatusType string

const (
	StatusActive    StatusType = "active"
	StatusSuspended StatusType = "suspended"
	StatusPending   StatusType = "pending"
)

// Identity is the signed-in user's profile as returned by the backend.
// It is persisted verbatim under the "user" storage key.
type Identity struct {
	ID           int           `json:"id"`
	Email        string        `json:"email"`
	Username     string        `json:"username,omitempty"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	PhoneNumber  string        `json:"phone_number,omitempty"`
	UserType     RoleType      `json:"user_type"`
	Status       StatusType    `json:"status,omitempty"`
	IsSuperuser  bool          `json:"is_superuser"`
	DateCreated  *time.Time    `json:"date_created,omitempty"`
	LastLogin    *time.Time    `json:"last_login,omitempty"`
	TotalCards   int           `json:"total_cards"`
	TotalBalance utils.Decimal `json:"total_balance"`
}

// IsAdmin reports whether the identity carries administrator rights.
// Superusers are admins regardless of their user type.
func (i *Identity) IsAdmin() bool {
	if i == nil {
		return false
	}
	return i.UserType == RoleAdmin || i.IsSuperuser
}

func (i *Identity) FullName() string {
	if i == nil {
		return ""
	}
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// DisplayName prefers the full name and falls back to the email
func (i *Identity) DisplayName() string {
	if name := i.FullName(); name != "" {
		return name
	}
	if i == nil {
		return ""
	}
	return i.Email
}

// Clone returns a deep copy so callers cannot mutate shared session state
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.DateCreated != nil {
		t := *i.DateCreated
		c.DateCreated = &t
	}
	if i.LastLogin != nil {
		t := *i.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
