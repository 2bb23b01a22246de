package model

import "time"

// NotificationType classifies a notification for display.
type NotificationType string

const (
	NotificationTypeClaim    NotificationType = "claim"
	NotificationTypeApproval NotificationType = "approval"
	NotificationTypeWarning  NotificationType = "warning"
	NotificationTypeUrgent   NotificationType = "urgent"
	NotificationTypeSystem   NotificationType = "system"
	NotificationTypeInfo     NotificationType = "info"
)

// NotificationData is the optional payload attached to a notification.
type NotificationData struct {
	ClaimID string `json:"claimId,omitempty"`
}

// NotificationDraft is a notification before the store assigns its
// identity and timestamp.
type NotificationDraft struct {
	Type    NotificationType  `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    *NotificationData `json:"data,omitempty"`
}

// Notification is an alert surfaced to the payor about claim activity.
// Once stored, only Read ever changes.
type Notification struct {
	// ID is the unique identifier assigned at creation.
	ID string `json:"id" db:"id"`

	Type    NotificationType `json:"type" db:"type"`
	Title   string           `json:"title" db:"title"`
	Message string           `json:"message" db:"message"`

	// Timestamp is when this notification was generated.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	Data *NotificationData `json:"data,omitempty" db:"-"`
}

// ClaimID returns the associated claim id, if any.
func (n Notification) ClaimID() string {
	if n.Data == nil {
		return ""
	}
	return n.Data.ClaimID
}
