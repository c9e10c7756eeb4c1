package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

const networkErrorMessage = "Network error"

// SessionOwner is the part of the auth service the gateway needs.
// Logout is expected to send the application to the login page.
type SessionOwner interface {
	Token() string
	Logout()
}

type Navigator interface {
	Navigate(path string)
}

// Result is the outcome of an authenticated call. Ordinary HTTP failures are
// reported here and never as a Go error.
type Result struct {
	OK     bool
	Status int // 0 when no response was received
	Body   json.RawMessage
	Err    error // set when OK is false
}

// Decode unmarshals the body into v
func (r Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.Wrapf(errors.ErrUnexpectedReply, "empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrapf(errors.ErrUnexpectedReply, "decoding %d reply: %v", r.Status, err)
	}
	return nil
}

// Message is the human readable error sent by the backend, if any
func (r Result) Message() string {
	return ErrorMessage(r.Body)
}

// StatusError is a non-2xx reply other than 401 and 403
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Is lets callers test for errors.ErrNotFound
func (e *StatusError) Is(target error) bool {
	return target == errors.ErrNotFound && e.Status == http.StatusNotFound
}

// Gateway attaches the session token to outbound calls and reacts to
// authorization failures: 401 ends the session, 403 shows access denied.
type Gateway struct {
	client           *Client
	session          SessionOwner
	navigator        Navigator
	accessDeniedPath string
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

// WithAccessDeniedPath overrides where 403 replies send the application
func WithAccessDeniedPath(path string) GatewayOption {
	return func(g *Gateway) {
		g.accessDeniedPath = path
	}
}

func NewGateway(client *Client, session SessionOwner, navigator Navigator, options ...GatewayOption) *Gateway {
	g := &Gateway{
		client:           client,
		session:          session,
		navigator:        navigator,
		accessDeniedPath: "/access-denied",
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Do sends body (if not nil) to path with the current token attached
func (g *Gateway) Do(ctx context.Context, method, path string, body any) Result {
	resp, err := g.client.Do(ctx, method, path, body, g.session.Token())
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("api call failed")
		message := networkErrorMessage
		if !errors.Is(err, errors.ErrNetwork) {
			message = err.Error()
		}
		errBody, _ := json.Marshal(map[string]string{"error": message})
		return Result{OK: false, Status: 0, Body: errBody, Err: err}
	}

	result := Result{OK: isSuccess(resp.Status), Status: resp.Status, Body: resp.Body}

	switch {
	case resp.Status == http.StatusUnauthorized:
		log.Info().Str("path", path).Msg("session rejected by backend, logging out")
		g.session.Logout()
		result.Err = errors.ErrSessionExpired

	case resp.Status == http.StatusForbidden:
		log.Info().Str("path", path).Msg("access denied by backend")
		if g.navigator != nil {
			g.navigator.Navigate(g.accessDeniedPath)
		}
		result.Err = errors.ErrPermissionDenied

	case !result.OK:
		result.Err = &StatusError{Status: resp.Status, Message: ErrorMessage(resp.Body)}
	}
	return result
}

func (g *Gateway) Get(ctx context.Context, path string) Result {
	return g.Do(ctx, http.MethodGet, path, nil)
}

func (g *Gateway) Post(ctx context.Context, path string, body any) Result {
	return g.Do(ctx, http.MethodPost, path, body)
}

func (g *Gateway) Put(ctx context.Context, path string, body any) Result {
	return g.Do(ctx, http.MethodPut, path, body)
}

func (g *Gateway) Patch(ctx context.Context, path string, body any) Result {
	return g.Do(ctx, http.MethodPatch, path, body)
}

func (g *Gateway) Delete(ctx context.Context, path string) Result {
	return g.Do(ctx, http.MethodDelete, path, nil)
}

// Fetch performs the call and decodes a successful reply into out (if not nil).
// Failed calls are returned as the Result's error.
func (g *Gateway) Fetch(ctx context.Context, method, path string, body, out any) error {
	result := g.Do(ctx, method, path, body)
	if !result.OK {
		return result.Err
	}
	if out == nil {
		return nil
	}
	return result.Decode(out)
}
