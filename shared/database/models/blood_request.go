package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blood request statuses
const (
	RequestStatusActive    = "active"
	RequestStatusFulfilled = "fulfilled"
	RequestStatusCancelled = "cancelled"
)

// Urgency levels, ranked critical < urgent < normal for sorting
const (
	UrgencyCritical = "critical"
	UrgencyUrgent   = "urgent"
	UrgencyNormal   = "normal"
)

// ValidBloodGroups are the eight canonical ABO/Rh values.
var ValidBloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

type BloodRequest struct {
	ID              uuid.UUID  `json:"request_id" gorm:"type:uuid;primaryKey"`
	RequesterID     uuid.UUID  `json:"requester_id" gorm:"type:uuid;index;not null"`
	BloodGroup      string     `json:"blood_group" gorm:"size:5;index;not null"`
	UnitsNeeded     int        `json:"units_needed" gorm:"not null"`
	UrgencyLevel    string     `json:"urgency_level" gorm:"size:20;index;not null"`
	PatientName     string     `json:"patient_name" gorm:"size:255;not null"`
	HospitalName    string     `json:"hospital_name" gorm:"size:255;not null"`
	HospitalAddress string     `json:"hospital_address"`
	HospitalCity    string     `json:"hospital_city" gorm:"size:100;index"`
	HospitalContact string     `json:"hospital_contact" gorm:"size:20"`
	NeededByDate    time.Time  `json:"needed_by_date" gorm:"not null"`
	Description     string     `json:"description"`
	Status          string     `json:"status" gorm:"size:20;index;default:'active'"`
	LocationLat     *float64   `json:"location_lat"`
	LocationLng     *float64   `json:"location_lng"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relations
	Requester *User              `json:"requester,omitempty" gorm:"foreignKey:RequesterID"`
	Responses []DonationResponse `json:"donation_responses,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

func (r *BloodRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsValidBloodGroup reports whether the value is one of the eight canonical groups.
func IsValidBloodGroup(group string) bool {
	for _, valid := range ValidBloodGroups {
		if group == valid {
			return true
		}
	}
	return false
}

// IsValidUrgencyLevel reports whether the value is a known urgency tier.
func IsValidUrgencyLevel(level string) bool {
	return level == UrgencyCritical || level == UrgencyUrgent || level == UrgencyNormal
}

// IsValidRequestStatus reports whether the value is a known request status.
func IsValidRequestStatus(status string) bool {
	return status == RequestStatusActive || status == RequestStatusFulfilled || status == RequestStatusCancelled
}

// UrgencyRankSQL orders rows critical(1) < urgent(2) < normal(3).
// Kept as a CASE expression so it runs on Postgres and SQLite alike.
const UrgencyRankSQL = "CASE urgency_level WHEN 'critical' THEN 1 WHEN 'urgent' THEN 2 ELSE 3 END"
