package cards

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-card-portal/api"
	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/internal/validation"
	"github.com/rs/zerolog/log"
)

// Caller performs an authenticated call and decodes the reply. api.Gateway implements it.
type Caller interface {
	Fetch(ctx context.Context, method, path string, body, out any) error
}

var _ Caller = (*api.Gateway)(nil)

// Client wraps the card and card request endpoints
type Client struct {
	api     Caller
	nowTime func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

func NewClient(caller Caller, options ...ClientOption) *Client {
	c := &Client{api: caller, nowTime: time.Now}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// MyCards lists the signed-in user's cards, expired ones excluded
func (c *Client) MyCards(ctx context.Context) ([]Card, error) {
	var reply utils.List[Card]
	if err := c.api.Fetch(ctx, http.MethodGet, api.MyCardsPath, nil, &reply); err != nil {
		return nil, fmt.Errorf("my cards: %w", err)
	}
	return reply.Results, nil
}

func (c *Client) Card(ctx context.Context, id int) (*Card, error) {
	var card Card
	if err := c.api.Fetch(ctx, http.MethodGet, fmt.Sprintf(api.CardPath, id), nil, &card); err != nil {
		return nil, fmt.Errorf("card %d: %w", id, err)
	}
	return &card, nil
}

// Activate moves a pending or blocked card to active
func (c *Client) Activate(ctx context.Context, id int) (*Card, error) {
	var reply cardReply
	if err := c.api.Fetch(ctx, http.MethodPost, fmt.Sprintf(api.ActivateCardPath, id), nil, &reply); err != nil {
		return nil, fmt.Errorf("activate card %d: %w", id, err)
	}
	return &reply.Card, nil
}

// Deactivate blocks a card
func (c *Client) Deactivate(ctx context.Context, id int) (*Card, error) {
	var reply cardReply
	if err := c.api.Fetch(ctx, http.MethodPost, fmt.Sprintf(api.DeactivateCardPath, id), nil, &reply); err != nil {
		return nil, fmt.Errorf("deactivate card %d: %w", id, err)
	}
	return &reply.Card, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.api.Fetch(ctx, http.MethodGet, api.CardStatsPath, nil, &stats); err != nil {
		return nil, fmt.Errorf("card stats: %w", err)
	}
	return &stats, nil
}

// RequestCard validates req and submits it for admin review
func (c *Client) RequestCard(ctx context.Context, req NewRequest) (*Request, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.DateOfBirth.IsZero() {
		return nil, fmt.Errorf("%w: date_of_birth is required", errors.ErrInvalidInput)
	}
	if req.DateOfBirth.YearsSince(c.nowTime()) < MinimumAge {
		return nil, fmt.Errorf("%w: applicant must be at least %d years old", errors.ErrInvalidInput, MinimumAge)
	}

	var created Request
	if err := c.api.Fetch(ctx, http.MethodPost, api.RequestCardPath, req, &created); err != nil {
		return nil, fmt.Errorf("request card: %w", err)
	}
	log.Debug().Str("card_type", string(req.CardType)).Msg("card requested")
	return &created, nil
}

func (c *Client) MyRequests(ctx context.Context) ([]Request, error) {
	var reply utils.List[Request]
	if err := c.api.Fetch(ctx, http.MethodGet, api.MyRequestsPath, nil, &reply); err != nil {
		return nil, fmt.Errorf("my requests: %w", err)
	}
	return reply.Results, nil
}

// AdminRequests lists every card request, newest first
func (c *Client) AdminRequests(ctx context.Context) ([]Request, error) {
	var reply utils.List[Request]
	if err := c.api.Fetch(ctx, http.MethodGet, api.AdminRequestsPath, nil, &reply); err != nil {
		return nil, fmt.Errorf("admin requests: %w", err)
	}
	return reply.Results, nil
}

// ReviewRequest approves or rejects a request. An approval is checked against the
// approval rules first and refused with *ApprovalRejectedError when any fails.
func (c *Client) ReviewRequest(ctx context.Context, id int, review Review) (*Request, error) {
	if err := validation.Struct(review); err != nil {
		return nil, err
	}

	reviewed := Request{ID: id}
	if review.Status == RequestApproved {
		all, err := c.AdminRequests(ctx)
		if err != nil {
			return nil, err
		}
		request, ok := findRequest(all, id)
		if !ok {
			return nil, fmt.Errorf("review request %d: %w", id, errors.ErrNotFound)
		}

		check := CheckApproval(request, all, c.nowTime())
		if !check.CanApprove {
			log.Info().Int("request_id", id).Int("failed", len(check.Failed())).Msg("approval refused")
			return nil, &ApprovalRejectedError{RequestID: id, Check: check}
		}
		reviewed = request
	}

	// The reply carries only status and comments; decode over what we already know
	if err := c.api.Fetch(ctx, http.MethodPatch, fmt.Sprintf(api.AdminRequestPath, id), review, &reviewed); err != nil {
		return nil, fmt.Errorf("review request %d: %w", id, err)
	}
	log.Info().Int("request_id", id).Str("status", string(review.Status)).Msg("card request reviewed")
	return &reviewed, nil
}

// AdminCards lists every card in the system
func (c *Client) AdminCards(ctx context.Context) ([]Card, error) {
	var reply utils.List[Card]
	if err := c.api.Fetch(ctx, http.MethodGet, api.AdminCardsPath, nil, &reply); err != nil {
		return nil, fmt.Errorf("admin cards: %w", err)
	}
	return reply.Results, nil
}

func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := c.api.Fetch(ctx, http.MethodGet, api.AdminCardStatsPath, nil, &stats); err != nil {
		return nil, fmt.Errorf("admin card stats: %w", err)
	}
	return &stats, nil
}

func findRequest(all []Request, id int) (Request, bool) {
	for _, r := range all {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}
