package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/rs/zerolog/log"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultRecentLimit  = 10
)

// TokenSource reports the current token and announces session changes. auth.Service implements it.
type TokenSource interface {
	Token() string
	Subscribe(func(sessions.Session)) func()
}

// Poller keeps a local view of the signed-in user's notifications up to date.
// It fetches the recent list once on Start and then polls for new ones on a
// fixed interval until stopped or until the session's token changes, so a
// logout or a login as someone else ends the run.
type Poller struct {
	client      *Client
	tokens      TokenSource
	interval    time.Duration
	recentLimit int
	nowTime     func() time.Time
	onNew       func([]Notification)

	lock          sync.RWMutex
	notifications []Notification
	unread        int
	lastCheck     string

	runLock  sync.Mutex
	runCtx   context.Context
	runToken string
	cancel   context.CancelFunc
	done     chan struct{}
}

// PollerOption defines a function type to modify the Poller instance.
type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithRecentLimit(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.recentLimit = n
		}
	}
}

// WithOnNew is called from the polling goroutine with each batch of new notifications.
// The callback must not call Stop.
func WithOnNew(fn func([]Notification)) PollerOption {
	return func(p *Poller) {
		p.onNew = fn
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) PollerOption {
	return func(p *Poller) {
		p.nowTime = nowFunc
	}
}

func NewPoller(client *Client, tokens TokenSource, options ...PollerOption) *Poller {
	p := &Poller{
		client:      client,
		tokens:      tokens,
		interval:    defaultPollInterval,
		recentLimit: defaultRecentLimit,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Start begins polling in the background for the current token. It fails when
// there is no token and is a no-op while already running for the same token.
// A run left over from another session is stopped and its view discarded.
func (p *Poller) Start(ctx context.Context) error {
	token := p.tokens.Token()
	if token == "" {
		return errors.ErrNotAuthenticated
	}

	p.runLock.Lock()
	defer p.runLock.Unlock()

	if p.isRunning() {
		if p.runCtx.Err() == nil && p.runToken == token {
			return nil
		}
		// Cancelled, or polling for another session: wait for it to wind down
		p.cancel()
		<-p.done
	}
	if p.runToken != token {
		p.reset()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.runCtx = runCtx
	p.runToken = token
	p.cancel = cancel
	p.done = done

	p.lock.Lock()
	p.lastCheck = p.nowTime().UTC().Format(time.RFC3339Nano)
	p.lock.Unlock()

	// Cancel only: the listener may run on this poller's own goroutine
	unsubscribe := p.tokens.Subscribe(func(s sessions.Session) {
		if s.Token != token {
			cancel()
		}
	})

	go func() {
		defer close(done)
		defer unsubscribe()
		defer cancel()
		p.run(runCtx, token)
	}()

	log.Debug().Dur("interval", p.interval).Msg("notification poller started")
	return nil
}

// Stop cancels polling and waits for the background goroutine to exit
func (p *Poller) Stop() {
	p.runLock.Lock()
	cancel, done := p.cancel, p.done
	p.runLock.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.runLock.Lock()
	defer p.runLock.Unlock()
	return p.isRunning()
}

func (p *Poller) isRunning() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Poller) run(ctx context.Context, token string) {
	defer func() {
		if p.tokens.Token() != token {
			p.reset()
		}
		log.Debug().Msg("notification poller stopped")
	}()

	if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("failed to fetch recent notifications")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tokens.Token() != token {
				return
			}
			if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("notification poll failed")
			}
		}
	}
}

// Refresh replaces the local view with the most recent notifications
func (p *Poller) Refresh(ctx context.Context) error {
	recent, err := p.client.Recent(ctx, p.recentLimit)
	if err != nil {
		return err
	}

	p.lock.Lock()
	p.notifications = append([]Notification(nil), recent.Notifications...)
	p.unread = max(0, recent.UnreadCount)
	p.lock.Unlock()
	return nil
}

// PollOnce fetches notifications created since the last check and merges them in front
func (p *Poller) PollOnce(ctx context.Context) error {
	reply, err := p.client.Poll(ctx, p.LastCheck())
	if err != nil {
		return err
	}

	p.lock.Lock()
	known := make(map[int]struct{}, len(p.notifications))
	for _, n := range p.notifications {
		known[n.ID] = struct{}{}
	}
	fresh := make([]Notification, 0, len(reply.NewNotifications))
	for _, n := range reply.NewNotifications {
		if _, ok := known[n.ID]; !ok {
			fresh = append(fresh, n)
		}
	}
	p.notifications = append(fresh, p.notifications...)
	p.unread = max(0, reply.TotalUnread)
	if reply.Timestamp != "" {
		p.lastCheck = reply.Timestamp
	}
	p.lock.Unlock()

	if len(fresh) > 0 {
		log.Debug().Int("count", len(fresh)).Msg("new notifications")
		if p.onNew != nil {
			p.onNew(append([]Notification(nil), fresh...))
		}
	}
	return nil
}

// MarkAsRead marks ids (or everything when none are given) as read on the backend and locally
func (p *Poller) MarkAsRead(ctx context.Context, ids ...int) error {
	if _, err := p.client.MarkAsRead(ctx, ids...); err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if len(ids) == 0 {
		for i := range p.notifications {
			p.notifications[i].IsRead = true
		}
		p.unread = 0
		return nil
	}

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for i := range p.notifications {
		if _, ok := wanted[p.notifications[i].ID]; ok {
			p.notifications[i].IsRead = true
		}
	}
	// Ids outside the local view still count, the backend may hold more than we do
	p.unread = max(0, p.unread-len(wanted))
	return nil
}

func (p *Poller) Delete(ctx context.Context, id int) error {
	if err := p.client.Delete(ctx, id); err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	kept := p.notifications[:0]
	for _, n := range p.notifications {
		if n.ID == id {
			if !n.IsRead {
				p.unread = max(0, p.unread-1)
			}
			continue
		}
		kept = append(kept, n)
	}
	p.notifications = kept
	return nil
}

func (p *Poller) ClearAll(ctx context.Context) error {
	if _, err := p.client.ClearAll(ctx); err != nil {
		return err
	}
	p.reset()
	return nil
}

// Notifications returns a copy of the local view, newest first
func (p *Poller) Notifications() []Notification {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return append([]Notification(nil), p.notifications...)
}

func (p *Poller) UnreadCount() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.unread
}

func (p *Poller) LastCheck() string {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.lastCheck
}

func (p *Poller) reset() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.notifications = nil
	p.unread = 0
}
