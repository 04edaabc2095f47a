package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types for the matching workflow
const (
	NotificationNewResponse       = "new_response"
	NotificationResponseConfirmed = "response_confirmed"
	NotificationResponseCancelled = "response_cancelled"
)

// Notification is a persisted event for a user, also pushed over the
// websocket hub when the user is connected.
type Notification struct {
	ID         uuid.UUID  `json:"notification_id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;index;not null"`
	Type       string     `json:"type" gorm:"size:50;not null"`
	Title      string     `json:"title" gorm:"size:255"`
	Message    string     `json:"message"`
	RequestID  *uuid.UUID `json:"request_id" gorm:"type:uuid"`
	DonationID *uuid.UUID `json:"donation_id" gorm:"type:uuid"`
	IsRead     bool       `json:"is_read" gorm:"default:false"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
