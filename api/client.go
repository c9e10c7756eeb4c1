package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/users"
	"golang.org/x/oauth2"
)

// TokenType is the authorization scheme the backend expects: "Authorization: Token <key>"
const TokenType = "Token"

const defaultTimeout = 15 * time.Second

// Client talks JSON to the portal backend
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the HTTP request timeout. Defaults to 15 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client, e.g. an httptest server's client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the backend rooted at baseURL, e.g. "http://localhost:8000"
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a raw backend reply
type Response struct {
	Status int
	Body   []byte
}

// Do sends a JSON request. token is attached when not empty.
// A returned error means no response was received.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: TokenType}).SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "reading %s %s: %v", method, path, err)
	}
	return &Response{Status: resp.StatusCode, Body: respBody}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *users.Identity `json:"user"`
}

// Authenticate posts credentials to the login endpoint.
// A non-2xx reply is returned as *errors.AuthenticationError carrying the server's message.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, *users.Identity, error) {
	resp, err := c.Do(ctx, http.MethodPost, LoginPath, loginRequest{Email: email, Password: password}, "")
	if err != nil {
		return "", nil, err
	}

	if !isSuccess(resp.Status) {
		message := ErrorMessage(resp.Body)
		if message == "" {
			message = "Login failed"
		}
		return "", nil, &errors.AuthenticationError{Status: resp.Status, Message: message}
	}

	var reply loginResponse
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return "", nil, errors.Wrapf(errors.ErrUnexpectedReply, "login reply: %v", err)
	}
	if reply.Token == "" || reply.User == nil {
		return "", nil, errors.Wrapf(errors.ErrUnexpectedReply, "login reply missing token or user")
	}
	return reply.Token, reply.User, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// ErrorMessage extracts a human readable message from a backend error body.
// It understands {"message"}, {"error"}, {"detail"} and field error maps.
func ErrorMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	for _, key := range []string{"message", "error", "detail"} {
		if raw, ok := fields[key]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}

	// Serializer validation errors: {"field": ["msg", ...]}
	if raw, ok := fields["non_field_errors"]; ok {
		if msg := firstString(raw); msg != "" {
			return msg
		}
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if msg := firstString(fields[key]); msg != "" {
			return key + ": " + msg
		}
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
