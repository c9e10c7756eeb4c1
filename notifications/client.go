package notifications

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-card-portal/api"
)

// Caller performs an authenticated call and decodes the reply. api.Gateway implements it.
type Caller interface {
	Fetch(ctx context.Context, method, path string, body, out any) error
}

var _ Caller = (*api.Gateway)(nil)

// Client wraps the notification endpoints
type Client struct {
	api Caller
}

func NewClient(caller Caller) *Client {
	return &Client{api: caller}
}

func (c *Client) Recent(ctx context.Context, limit int) (*Recent, error) {
	path := api.RecentNotificationsPath
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var reply Recent
	if err := c.api.Fetch(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	return &reply, nil
}

// Poll returns notifications created after since. An empty since returns the latest ones.
func (c *Client) Poll(ctx context.Context, since string) (*PollReply, error) {
	path := api.PollNotificationsPath
	if since != "" {
		path += "?last_check=" + url.QueryEscape(since)
	}
	var reply PollReply
	if err := c.api.Fetch(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, fmt.Errorf("poll notifications: %w", err)
	}
	return &reply, nil
}

// MarkAsRead marks the given notifications as read, or all of them when ids is empty.
// It returns the number the backend updated.
func (c *Client) MarkAsRead(ctx context.Context, ids ...int) (int, error) {
	var reply countReply
	if err := c.api.Fetch(ctx, http.MethodPost, api.MarkNotificationsReadPath, markReadRequest{NotificationIDs: ids}, &reply); err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return reply.UpdatedCount, nil
}

func (c *Client) Delete(ctx context.Context, id int) error {
	if err := c.api.Fetch(ctx, http.MethodDelete, fmt.Sprintf(api.DeleteNotificationPath, id), nil, nil); err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return nil
}

// ClearAll deletes every notification of the signed-in user
func (c *Client) ClearAll(ctx context.Context) (int, error) {
	var reply countReply
	if err := c.api.Fetch(ctx, http.MethodPost, api.ClearNotificationsPath, nil, &reply); err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return reply.DeletedCount, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var reply Stats
	if err := c.api.Fetch(ctx, http.MethodGet, api.NotificationStatsPath, nil, &reply); err != nil {
		return nil, fmt.Errorf("notification stats: %w", err)
	}
	return &reply, nil
}
