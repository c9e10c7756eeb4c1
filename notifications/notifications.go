package notifications

import (
	"time"
)

// Type is the severity the backend attaches to a notification
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeAlert   Type = "alert"
)

// Category is the business event behind a notification
type Category string

const (
	CategoryCardCreation     Category = "card_creation"
	CategoryCardApproval     Category = "card_approval"
	CategoryCardRejection    Category = "card_rejection"
	CategoryCardActivation   Category = "card_activation"
	CategoryCardDeactivation Category = "card_deactivation"
	CategoryDocumentUpload   Category = "document_upload"
	CategoryNewRequest       Category = "new_request"
	CategoryRequestApproved  Category = "request_approved"
	CategoryRequestRejected  Category = "request_rejected"
	CategorySystem           Category = "system"
	CategorySecurity         Category = "security"
)

type Notification struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	NotificationType Type       `json:"notification_type"`
	Category         Category   `json:"category"`
	IsRead           bool       `json:"is_read"`
	IsImportant      bool       `json:"is_important"`
	RelatedCardID    *int       `json:"related_card_id"`
	RelatedRequestID *int       `json:"related_request_id"`
	ActionURL        string     `json:"action_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ReadAt           *time.Time `json:"read_at"`
}

// Recent is the reply of the recent notifications endpoint
type Recent struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	HasMore       bool           `json:"has_more"`
}

// PollReply carries notifications created after the last check.
// Timestamp is passed back verbatim as the next last_check.
type PollReply struct {
	NewNotifications []Notification `json:"new_notifications"`
	TotalUnread      int            `json:"total_unread"`
	Timestamp        string         `json:"timestamp"`
}

type Stats struct {
	TotalCount       int          `json:"total_count"`
	UnreadCount      int          `json:"unread_count"`
	ImportantUnread  int          `json:"important_unread"`
	TypeCounts       map[Type]int `json:"type_counts"`
	HasNotifications bool         `json:"has_notifications"`
}

type markReadRequest struct {
	NotificationIDs []int `json:"notification_ids,omitempty"`
}

type countReply struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	DeletedCount int    `json:"deleted_count"`
}
