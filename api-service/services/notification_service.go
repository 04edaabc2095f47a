package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ashasetu-backend/shared/database/models"
)

// Notifier persists workflow notifications and pushes them over the
// websocket hub when the target user is connected. Failures are logged and
// swallowed: a notification must never fail the workflow operation that
// produced it.
type Notifier struct {
	db  *gorm.DB
	hub *WebSocketHub
}

func NewNotifier(db *gorm.DB, hub *WebSocketHub) *Notifier {
	return &Notifier{db: db, hub: hub}
}

// NotifyNewResponse tells a requester that a donor offered to help.
func (n *Notifier) NotifyNewResponse(requesterID uuid.UUID, donorName string, request *models.BloodRequest, donation *models.DonationResponse) {
	title := "New donation response"
	message := fmt.Sprintf("%s responded to your %s blood request for %s", donorName, request.BloodGroup, request.PatientName)
	n.notify(requesterID, models.NotificationNewResponse, title, message, &request.ID, &donation.ID)
}

// NotifyResponseStatus tells a donor that their response was confirmed or
// cancelled by the requester (or an admin).
func (n *Notifier) NotifyResponseStatus(donorID uuid.UUID, status string, request *models.BloodRequest, donation *models.DonationResponse) {
	var notifType, title, message string
	switch status {
	case models.DonationStatusConfirmed:
		notifType = models.NotificationResponseConfirmed
		title = "Donation confirmed"
		message = fmt.Sprintf("Your donation offer for %s at %s was confirmed", request.PatientName, request.HospitalName)
	case models.DonationStatusCancelled:
		notifType = models.NotificationResponseCancelled
		title = "Donation response cancelled"
		message = fmt.Sprintf("Your donation offer for %s was cancelled", request.PatientName)
	default:
		return
	}
	n.notify(donorID, notifType, title, message, &request.ID, &donation.ID)
}

func (n *Notifier) notify(userID uuid.UUID, notifType, title, message string, requestID, donationID *uuid.UUID) {
	if n == nil {
		return
	}

	notification := models.Notification{
		UserID:     userID,
		Type:       notifType,
		Title:      title,
		Message:    message,
		RequestID:  requestID,
		DonationID: donationID,
	}

	if err := n.db.Create(&notification).Error; err != nil {
		log.Printf("❌ Failed to persist notification for user %s: %v", userID, err)
		return
	}

	if n.hub != nil {
		n.hub.SendToUser(userID.String(), &WebSocketMessage{
			Type:       notifType,
			Title:      title,
			Message:    message,
			RequestID:  requestID,
			DonationID: donationID,
			Timestamp:  time.Now(),
		})
	}
}
