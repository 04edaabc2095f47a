package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation response statuses
const (
	DonationStatusPending   = "pending"
	DonationStatusConfirmed = "confirmed"
	DonationStatusCancelled = "cancelled"
)

// DonationResponse is one donor's offer against one blood request.
// A donor may respond at most once per request, and never to their own.
type DonationResponse struct {
	ID        uuid.UUID `json:"donation_id" gorm:"type:uuid;primaryKey"`
	RequestID uuid.UUID `json:"request_id" gorm:"type:uuid;not null;uniqueIndex:idx_request_donor"`
	DonorID   uuid.UUID `json:"donor_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_request_donor"`
	Message   string    `json:"message"`
	Status    string    `json:"status" gorm:"size:20;index;default:'pending'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Request *BloodRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	Donor   *User         `json:"donor,omitempty" gorm:"foreignKey:DonorID"`
}

func (d *DonationResponse) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IsValidDonationStatus reports whether the value is a known response status.
func IsValidDonationStatus(status string) bool {
	return status == DonationStatusPending || status == DonationStatusConfirmed || status == DonationStatusCancelled
}

// DonationStatusRankSQL orders rows confirmed(1) < pending(2) < cancelled(3).
const DonationStatusRankSQL = "CASE status WHEN 'confirmed' THEN 1 WHEN 'pending' THEN 2 ELSE 3 END"
