package accounts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-card-portal/api"
	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/internal/validation"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

// Caller performs an authenticated call and decodes the reply. api.Gateway implements it.
type Caller interface {
	Fetch(ctx context.Context, method, path string, body, out any) error
}

var _ Caller = (*api.Gateway)(nil)

// SessionUpdater keeps the signed-in session in step with profile changes. auth.Service implements it.
type SessionUpdater interface {
	UpdateIdentity(identity *users.Identity) error
	RotateToken(token string) error
}

// Client wraps the profile and user administration endpoints
type Client struct {
	api     Caller
	session SessionUpdater
}

func NewClient(caller Caller, session SessionUpdater) *Client {
	return &Client{api: caller, session: session}
}

// Profile fetches the signed-in user's identity
func (c *Client) Profile(ctx context.Context) (*users.Identity, error) {
	var identity users.Identity
	if err := c.api.Fetch(ctx, http.MethodGet, api.ProfilePath, nil, &identity); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &identity, nil
}

// UpdateProfile saves the changes and refreshes the session identity with the backend's reply
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*users.Identity, error) {
	if err := validation.Struct(update); err != nil {
		return nil, err
	}

	var identity users.Identity
	if err := c.api.Fetch(ctx, http.MethodPut, api.ProfilePath, update, &identity); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := c.session.UpdateIdentity(&identity); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &identity, nil
}

// ChangePassword changes the signed-in user's password. The backend issues a new
// token, which replaces the one in the session.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	if err := validation.Struct(change); err != nil {
		return err
	}
	if err := users.ValidatePasswordStrength(change.NewPassword); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	var reply passwordChangeReply
	if err := c.api.Fetch(ctx, http.MethodPost, api.ChangePasswordPath, change, &reply); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if reply.Token != "" {
		if err := c.session.RotateToken(reply.Token); err != nil {
			return fmt.Errorf("change password: %w", err)
		}
	}
	log.Info().Msg("password changed")
	return nil
}

// ListUsers returns one page of accounts matching filter
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) (*utils.List[User], error) {
	path := api.AdminUsersPath
	if query := filter.query(); query != "" {
		path += "?" + query
	}

	var reply utils.List[User]
	if err := c.api.Fetch(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &reply, nil
}

func (c *Client) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	if err := validation.Struct(user); err != nil {
		return nil, err
	}
	if err := users.ValidatePasswordStrength(user.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	var created User
	if err := c.api.Fetch(ctx, http.MethodPost, api.AdminUsersPath, user, &created); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("email", user.Email).Str("user_type", string(user.UserType)).Msg("user created")
	return &created, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, update UserUpdate) (*User, error) {
	if err := validation.Struct(update); err != nil {
		return nil, err
	}

	var updated User
	if err := c.api.Fetch(ctx, http.MethodPut, fmt.Sprintf(api.AdminUserPath, id), update, &updated); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return &updated, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	if err := c.api.Fetch(ctx, http.MethodDelete, fmt.Sprintf(api.AdminUserPath, id), nil, nil); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	log.Info().Int("user_id", id).Msg("user deleted")
	return nil
}

func (f UserFilter) query() string {
	values := url.Values{}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.UserType != "" {
		values.Set("user_type", string(f.UserType))
	}
	if f.Status != "" {
		values.Set("status", string(f.Status))
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return values.Encode()
}
