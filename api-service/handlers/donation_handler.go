package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ashasetu-backend/api-service/middleware"
	"ashasetu-backend/api-service/services"
	"ashasetu-backend/shared/database/models"
	"ashasetu-backend/shared/utils/cache"
	"ashasetu-backend/shared/utils/response"
)

type DonationHandler struct {
	db       *gorm.DB
	cache    *cache.CacheManager
	notifier *services.Notifier
}

func NewDonationHandler(db *gorm.DB, cacheManager *cache.CacheManager, notifier *services.Notifier) *DonationHandler {
	return &DonationHandler{db: db, cache: cacheManager, notifier: notifier}
}

// Respond request struct
type RespondRequest struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// Status update struct, merge semantics
type UpdateDonationRequest struct {
	Status  *string `json:"status"`
	Message *string `json:"message"`
}

// DonorInfo is the donor contact plus profile attributes joined into
// response payloads for the requester's screening.
type DonorInfo struct {
	models.PublicUser
	BloodGroup       string     `json:"blood_group,omitempty"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
}

// DonationResponseItem is a response annotated with its donor.
type DonationResponseItem struct {
	models.DonationResponse
	DonorInfo *DonorInfo `json:"donor,omitempty"`
}

// annotateDonors joins donor contact and profile info onto responses.
func annotateDonors(db *gorm.DB, responses []models.DonationResponse) []DonationResponseItem {
	donorIDs := make([]uuid.UUID, 0, len(responses))
	for _, r := range responses {
		donorIDs = append(donorIDs, r.DonorID)
	}

	donors := map[uuid.UUID]DonorInfo{}
	if len(donorIDs) > 0 {
		var users []models.User
		if err := db.Preload("Profile").Where("id IN ?", donorIDs).Find(&users).Error; err == nil {
			for _, u := range users {
				info := DonorInfo{PublicUser: u.Public()}
				if u.Profile != nil {
					info.BloodGroup = u.Profile.BloodGroup
					info.LastDonationDate = u.Profile.LastDonationDate
					info.Address = u.Profile.Address
					info.City = u.Profile.City
				}
				donors[u.ID] = info
			}
		}
	}

	items := make([]DonationResponseItem, 0, len(responses))
	for _, r := range responses {
		item := DonationResponseItem{DonationResponse: r}
		if info, ok := donors[r.DonorID]; ok {
			infoCopy := info
			item.DonorInfo = &infoCopy
		}
		items = append(items, item)
	}
	return items
}

// POST /api/blood/respond
// @Summary Respond to a blood request
// @Description Offer to donate against an active request; one response per donor per request
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param respond body RespondRequest true "Target request and optional message"
// @Success 201 {object} response.Envelope "Donation response submitted successfully"
// @Failure 400 {object} response.Envelope "Request inactive or own request"
// @Failure 404 {object} response.Envelope "Blood request not found"
// @Failure 409 {object} response.Envelope "Already responded"
// @Router /blood/respond [post]
func (h *DonationHandler) Respond(c *gin.Context) {
	userID := middleware.CallerID(c)

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RequestID == "" {
		response.Error(c, http.StatusBadRequest, "Request ID is required")
		return
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	var donation models.DonationResponse
	var request models.BloodRequest

	// Existence, activity, self-response and duplicate checks happen in the
	// same transaction as the insert so a concurrent delete or duplicate
	// respond can't slip between them.
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
			return err
		}

		if request.Status != models.RequestStatusActive {
			return errRequestNotActive
		}

		if request.RequesterID == userID {
			return errOwnRequest
		}

		var existing models.DonationResponse
		if err := tx.Where("request_id = ? AND donor_id = ?", requestID, userID).First(&existing).Error; err == nil {
			return errDuplicateResponse
		}

		donation = models.DonationResponse{
			RequestID: requestID,
			DonorID:   userID,
			Message:   req.Message,
			Status:    models.DonationStatusPending,
		}
		return tx.Create(&donation).Error
	})

	switch {
	case txErr == gorm.ErrRecordNotFound:
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	case txErr == errRequestNotActive:
		response.Error(c, http.StatusBadRequest, "This blood request is no longer active")
		return
	case txErr == errOwnRequest:
		response.Error(c, http.StatusBadRequest, "You cannot respond to your own blood request")
		return
	case txErr == errDuplicateResponse:
		response.Error(c, http.StatusConflict, "You have already responded to this blood request")
		return
	case txErr != nil:
		// The composite unique index backstops the duplicate pre-check
		response.Error(c, http.StatusConflict, "You have already responded to this blood request")
		return
	}

	h.cache.InvalidateListPages()

	items := annotateDonors(h.db, []models.DonationResponse{donation})
	item := items[0]
	if item.DonorInfo != nil {
		h.notifier.NotifyNewResponse(request.RequesterID, item.DonorInfo.FullName, &request, &donation)
	}

	response.Success(c, http.StatusCreated, "Donation response submitted successfully", item)
}

// GET /api/blood/respond/:requestId
// @Summary List responses for a request
// @Description Visible to the owning requester or an administrator only
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param requestId path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the requester"
// @Failure 404 {object} response.Envelope "Blood request not found"
// @Router /blood/respond/{requestId} [get]
func (h *DonationHandler) ListForRequest(c *gin.Context) {
	userID := middleware.CallerID(c)
	isAdmin := middleware.CallerIsAdmin(c)

	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	// Existence is checked before permission: a missing request is 404 for
	// everyone, only an existing one yields 403 for the wrong caller.
	var request models.BloodRequest
	if err := h.db.Where("id = ?", requestID).First(&request).Error; err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	if request.RequesterID != userID && !isAdmin {
		response.Error(c, http.StatusForbidden, "You don't have permission to view these responses")
		return
	}

	var responses []models.DonationResponse
	if err := h.db.Where("request_id = ?", requestID).
		Order(models.DonationStatusRankSQL).
		Order("created_at DESC").
		Find(&responses).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.Data(c, annotateDonors(h.db, responses))
}

// PUT /api/blood/respond/:donationId
// @Summary Update a donation response
// @Description Requester/admin confirm, donor/admin cancel; message merges
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param donationId path string true "Donation ID"
// @Param update body UpdateDonationRequest true "Status and/or message"
// @Success 200 {object} response.Envelope "Donation response updated successfully"
// @Failure 400 {object} response.Envelope "Invalid status"
// @Failure 403 {object} response.Envelope "Insufficient rights"
// @Failure 404 {object} response.Envelope "Donation response not found"
// @Router /blood/respond/{donationId} [put]
func (h *DonationHandler) UpdateStatus(c *gin.Context) {
	userID := middleware.CallerID(c)
	isAdmin := middleware.CallerIsAdmin(c)

	donationID, err := uuid.Parse(c.Param("donationId"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Donation response not found")
		return
	}

	var req UpdateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Status != nil && !models.IsValidDonationStatus(*req.Status) {
		response.Error(c, http.StatusBadRequest, "Invalid status. Must be one of: pending, confirmed, cancelled")
		return
	}

	var updated models.DonationResponse
	var request models.BloodRequest
	previousStatus := ""

	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var donation models.DonationResponse
		if err := tx.Where("id = ?", donationID).First(&donation).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", donation.RequestID).First(&request).Error; err != nil {
			return err
		}

		isRequester := request.RequesterID == userID
		isDonor := donation.DonorID == userID

		if !isRequester && !isDonor && !isAdmin {
			return errForbidden
		}

		// Two rules cover the whole matrix: cancellation belongs to the
		// donor, confirmation (and reverting to pending) to the requester.
		// Admins may do either.
		if req.Status != nil {
			switch *req.Status {
			case models.DonationStatusCancelled:
				if !isDonor && !isAdmin {
					return errOnlyDonorCancel
				}
			default:
				if !isRequester && !isAdmin {
					return errOnlyRequesterAccept
				}
			}
		}

		previousStatus = donation.Status

		updates := map[string]interface{}{}
		if req.Status != nil {
			updates["status"] = *req.Status
		}
		if req.Message != nil {
			updates["message"] = *req.Message
		}

		if len(updates) > 0 {
			if err := tx.Model(&donation).Updates(updates).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", donationID).First(&updated).Error
	})

	switch {
	case txErr == gorm.ErrRecordNotFound:
		response.Error(c, http.StatusNotFound, "Donation response not found")
		return
	case txErr == errForbidden:
		response.Error(c, http.StatusForbidden, "You don't have permission to update this response")
		return
	case txErr == errOnlyDonorCancel:
		response.Error(c, http.StatusForbidden, "Only the donor can cancel their response")
		return
	case txErr == errOnlyRequesterAccept:
		response.Error(c, http.StatusForbidden, "You can only cancel your own donation response")
		return
	case txErr != nil:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.cache.InvalidateListPages()

	if req.Status != nil && *req.Status != previousStatus && updated.DonorID != userID {
		h.notifier.NotifyResponseStatus(updated.DonorID, updated.Status, &request, &updated)
	}

	items := annotateDonors(h.db, []models.DonationResponse{updated})
	response.Success(c, http.StatusOK, "Donation response updated successfully", items[0])
}

// myResponseItem joins the parent request summary and requester contact
// onto one of the caller's own responses.
type myResponseItem struct {
	models.DonationResponse
	RequestInfo *BloodRequestWithCounts `json:"request,omitempty"`
}

// GET /api/blood/my-responses
// @Summary List own donation responses
// @Description The caller's responses with each parent request and requester contact, newest first
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /blood/my-responses [get]
func (h *DonationHandler) ListMine(c *gin.Context) {
	userID := middleware.CallerID(c)

	var responses []models.DonationResponse
	if err := h.db.Where("donor_id = ?", userID).
		Order("created_at DESC").
		Find(&responses).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	requestIDs := make([]uuid.UUID, 0, len(responses))
	for _, r := range responses {
		requestIDs = append(requestIDs, r.RequestID)
	}

	requests := map[uuid.UUID]models.BloodRequest{}
	requesters := map[uuid.UUID]models.PublicUser{}
	if len(requestIDs) > 0 {
		var parentRequests []models.BloodRequest
		if err := h.db.Where("id IN ?", requestIDs).Find(&parentRequests).Error; err == nil {
			requesterIDs := make([]uuid.UUID, 0, len(parentRequests))
			for _, pr := range parentRequests {
				requests[pr.ID] = pr
				requesterIDs = append(requesterIDs, pr.RequesterID)
			}
			var users []models.User
			if err := h.db.Where("id IN ?", requesterIDs).Find(&users).Error; err == nil {
				for _, u := range users {
					requesters[u.ID] = u.Public()
				}
			}
		}
	}

	items := make([]myResponseItem, 0, len(responses))
	for _, r := range responses {
		item := myResponseItem{DonationResponse: r}
		if parent, ok := requests[r.RequestID]; ok {
			wrapped := BloodRequestWithCounts{BloodRequest: parent}
			if pub, ok := requesters[parent.RequesterID]; ok {
				pubCopy := pub
				wrapped.RequesterInfo = &pubCopy
			}
			item.RequestInfo = &wrapped
		}
		items = append(items, item)
	}

	response.Data(c, items)
}

// DELETE /api/blood/respond/:donationId
// @Summary Delete a donation response
// @Description Only the donor or an administrator may delete
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param donationId path string true "Donation ID"
// @Success 200 {object} response.Envelope "Donation response deleted successfully"
// @Failure 403 {object} response.Envelope "Not the donor"
// @Failure 404 {object} response.Envelope "Donation response not found"
// @Router /blood/respond/{donationId} [delete]
func (h *DonationHandler) Delete(c *gin.Context) {
	userID := middleware.CallerID(c)
	isAdmin := middleware.CallerIsAdmin(c)

	donationID, err := uuid.Parse(c.Param("donationId"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Donation response not found")
		return
	}

	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var donation models.DonationResponse
		if err := tx.Where("id = ?", donationID).First(&donation).Error; err != nil {
			return err
		}

		if donation.DonorID != userID && !isAdmin {
			return errForbidden
		}

		return tx.Delete(&donation).Error
	})

	switch {
	case txErr == gorm.ErrRecordNotFound:
		response.Error(c, http.StatusNotFound, "Donation response not found")
		return
	case txErr == errForbidden:
		response.Error(c, http.StatusForbidden, "You don't have permission to delete this response")
		return
	case txErr != nil:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.cache.InvalidateListPages()

	response.Success(c, http.StatusOK, "Donation response deleted successfully", nil)
}
