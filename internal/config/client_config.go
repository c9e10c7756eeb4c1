package config

import (
	"strconv"
	"time"
)

const (
	pollIntervalVar     = "NOTIFICATION_POLL_INTERVAL"
	requestTimeoutVar   = "REQUEST_TIMEOUT"
	recentNotifLimitVar = "RECENT_NOTIFICATION_LIMIT"
)

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetRequestTimeout() time.Duration {
	return durationEnv(requestTimeoutVar, 15*time.Second)
}

// GetNotificationPollInterval is how often the notification poller asks for new events
func (Client) GetNotificationPollInterval() time.Duration {
	return durationEnv(pollIntervalVar, 30*time.Second)
}

func (Client) GetRecentNotificationLimit() int {
	limit, err := strconv.Atoi(GetEnv(recentNotifLimitVar, "10"))
	if err != nil || limit <= 0 {
		return 10
	}
	return limit
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
