package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-card-portal/notifications"
)

const (
	defaultRecentLimit = 10
	maxPollBatch       = 10

	// pollTimestampLayout matches the ISO 8601 form clients echo back as last_check
	pollTimestampLayout = "2006-01-02T15:04:05.000000-07:00"
)

type markReadRequest struct {
	NotificationIDs []int `json:"notification_ids"`
}

func (s *Server) RecentNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRecentLimit
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
			limit = l
		}

		userID := accountFromContext(r.Context()).ID
		all := s.data.notificationsOf(userID, nil)
		recent := all[:min(limit, len(all))]
		writeJSON(w, http.StatusOK, notifications.Recent{
			Notifications: recent,
			UnreadCount:   s.data.unreadCount(userID),
			HasMore:       len(all) > limit,
		})
	}
}

// PollNotificationsHandler returns up to ten notifications created after
// last_check. A missing or unparsable last_check returns the latest ones.
func (s *Server) PollNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := accountFromContext(r.Context()).ID
		// Later notifications wait for the next poll, after the returned timestamp
		now := s.now().Truncate(time.Microsecond)
		since, hasSince := parseLastCheck(r.URL.Query().Get("last_check"))
		fresh := s.data.notificationsOf(userID, func(n notifications.Notification) bool {
			return !n.CreatedAt.After(now) && (!hasSince || n.CreatedAt.After(since))
		})

		writeJSON(w, http.StatusOK, notifications.PollReply{
			NewNotifications: fresh[:min(maxPollBatch, len(fresh))],
			TotalUnread:      s.data.unreadCount(userID),
			Timestamp:        now.UTC().Format(pollTimestampLayout),
		})
	}
}

func parseLastCheck(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	// An unescaped "+00:00" arrives as " 00:00"
	raw = strings.ReplaceAll(raw, " ", "+")
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MarkReadHandler marks the listed notifications as read, or all of them when none are listed
func (s *Server) MarkReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markReadRequest
		if r.ContentLength != 0 {
			if err := readJSON(w, r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		updated := s.data.markRead(accountFromContext(r.Context()).ID, req.NotificationIDs, s.now())
		writeJSON(w, http.StatusOK, map[string]any{
			"message":       fmt.Sprintf("%d notification(s) marked as read", updated),
			"updated_count": updated,
		})
	}
}

func (s *Server) DeleteNotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok || !s.data.deleteNotification(accountFromContext(r.Context()).ID, id) {
			writeError(w, http.StatusNotFound, "Notification not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
	}
}

func (s *Server) ClearNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted := s.data.clearNotifications(accountFromContext(r.Context()).ID)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":       fmt.Sprintf("%d notification(s) deleted", deleted),
			"deleted_count": deleted,
		})
	}
}

func (s *Server) NotificationStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := s.data.notificationsOf(accountFromContext(r.Context()).ID, nil)
		stats := notifications.Stats{
			TotalCount:       len(all),
			TypeCounts:       map[notifications.Type]int{},
			HasNotifications: len(all) > 0,
		}
		for _, n := range all {
			stats.TypeCounts[n.NotificationType]++
			if n.IsRead {
				continue
			}
			stats.UnreadCount++
			if n.IsImportant {
				stats.ImportantUnread++
			}
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
