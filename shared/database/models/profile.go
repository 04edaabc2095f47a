package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfile holds the donor-facing attributes of a user. One row is
// created empty alongside each User and cascades with it.
type UserProfile struct {
	ID                    uuid.UUID  `json:"profile_id" gorm:"type:uuid;primaryKey"`
	UserID                uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Gender                string     `json:"gender" gorm:"size:20"`
	ProfilePictureURL     string     `json:"profile_picture_url"`
	LocationLat           *float64   `json:"location_lat"`
	LocationLng           *float64   `json:"location_lng"`
	Address               string     `json:"address"`
	City                  string     `json:"city" gorm:"size:100"`
	BloodGroup            string     `json:"blood_group" gorm:"size:5"`
	WillingToDonateBlood  bool       `json:"willing_to_donate_blood" gorm:"default:false"`
	LastDonationDate      *time.Time `json:"last_donation_date"`
	AvailableToDonate     bool       `json:"available_to_donate" gorm:"default:true"`
	WillingToVolunteer    bool       `json:"willing_to_volunteer" gorm:"default:false"`
	VolunteerSkills       string     `json:"volunteer_skills"`
	VolunteerAvailability string     `json:"volunteer_availability" gorm:"size:20;default:'available'"`
	EmergencyContactName  string     `json:"emergency_contact_name" gorm:"size:255"`
	EmergencyContactPhone string     `json:"emergency_contact_phone" gorm:"size:20"`
	MedicalConditions     string     `json:"medical_conditions"`
	Allergies             string     `json:"allergies"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
