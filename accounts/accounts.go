package accounts

import (
	"time"

	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/users"
)

// User is an account as listed by the admin endpoints
type User struct {
	ID           int              `json:"id"`
	Email        string           `json:"email"`
	Username     string           `json:"username"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	FullName     string           `json:"full_name"`
	PhoneNumber  string           `json:"phone_number"`
	UserType     users.RoleType   `json:"user_type"`
	Status       users.StatusType `json:"status"`
	DateCreated  *time.Time       `json:"date_created"`
	LastLogin    *time.Time       `json:"last_login"`
	TotalCards   int              `json:"total_cards"`
	TotalBalance utils.Decimal    `json:"total_balance"`
	IsActive     bool             `json:"is_active"`
}

// ProfileUpdate holds the fields a user may change on their own profile
type ProfileUpdate struct {
	Username    string `json:"username,omitempty" validate:"omitempty,max=150"`
	FirstName   string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName    string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
}

// PasswordChange is the payload of the change password endpoint
type PasswordChange struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// NewUser is the payload an admin sends to create an account
type NewUser struct {
	Email           string         `json:"email" validate:"required,email"`
	Username        string         `json:"username" validate:"required,max=150"`
	FirstName       string         `json:"first_name" validate:"required"`
	LastName        string         `json:"last_name" validate:"required"`
	PhoneNumber     string         `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Password        string         `json:"password" validate:"required"`
	PasswordConfirm string         `json:"password_confirm" validate:"required,eqfield=Password"`
	UserType        users.RoleType `json:"user_type" validate:"required,oneof=admin user"`
}

// UserUpdate is the admin edit of an existing account
type UserUpdate struct {
	Email       string           `json:"email" validate:"required,email"`
	Username    string           `json:"username" validate:"required,max=150"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	PhoneNumber string           `json:"phone_number" validate:"omitempty,max=20"`
	UserType    users.RoleType   `json:"user_type" validate:"required,oneof=admin user"`
	Status      users.StatusType `json:"status" validate:"required,oneof=active suspended pending"`
}

// UserFilter narrows ListUsers. Empty fields are ignored.
type UserFilter struct {
	Search   string
	UserType users.RoleType
	Status   users.StatusType
	Page     int
}

type passwordChangeReply struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
