package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ashasetu-backend/api-service/middleware"
	"ashasetu-backend/shared/database/models"
	"ashasetu-backend/shared/utils/cache"
	"ashasetu-backend/shared/utils/query"
	"ashasetu-backend/shared/utils/response"
)

type BloodRequestHandler struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewBloodRequestHandler(db *gorm.DB, cacheManager *cache.CacheManager) *BloodRequestHandler {
	return &BloodRequestHandler{db: db, cache: cacheManager}
}

// Create/update request struct: pointer fields distinguish "omitted" from
// "set" so updates merge instead of replacing.
type BloodRequestInput struct {
	BloodGroup      *string  `json:"blood_group"`
	UnitsNeeded     *int     `json:"units_needed"`
	UrgencyLevel    *string  `json:"urgency_level"`
	PatientName     *string  `json:"patient_name"`
	HospitalName    *string  `json:"hospital_name"`
	HospitalAddress *string  `json:"hospital_address"`
	HospitalCity    *string  `json:"hospital_city"`
	HospitalContact *string  `json:"hospital_contact"`
	NeededByDate    *string  `json:"needed_by_date"`
	Description     *string  `json:"description"`
	Status          *string  `json:"status"`
	LocationLat     *float64 `json:"location_lat"`
	LocationLng     *float64 `json:"location_lng"`
}

// BloodRequestWithCounts annotates a request with its live response tallies.
type BloodRequestWithCounts struct {
	models.BloodRequest
	RequesterInfo   *models.PublicUser `json:"requester,omitempty"`
	TotalResponses  int64              `json:"total_responses"`
	ConfirmedDonors int64              `json:"confirmed_donors"`
}

type bloodRequestPage struct {
	Items []BloodRequestWithCounts `json:"items"`
	Total int64                    `json:"total"`
}

// countResponses returns the non-cancelled and confirmed tallies for one request.
func (h *BloodRequestHandler) countResponses(requestID uuid.UUID) (total, confirmed int64) {
	h.db.Model(&models.DonationResponse{}).
		Where("request_id = ? AND status != ?", requestID, models.DonationStatusCancelled).
		Count(&total)
	h.db.Model(&models.DonationResponse{}).
		Where("request_id = ? AND status = ?", requestID, models.DonationStatusConfirmed).
		Count(&confirmed)
	return total, confirmed
}

// validateRequestInput checks whichever fields the caller supplied.
func validateRequestInput(req *BloodRequestInput) (string, bool) {
	if req.BloodGroup != nil && !models.IsValidBloodGroup(*req.BloodGroup) {
		return "Invalid blood group. Must be one of: A+, A-, B+, B-, AB+, AB-, O+, O-", false
	}
	if req.UrgencyLevel != nil && !models.IsValidUrgencyLevel(*req.UrgencyLevel) {
		return "Invalid urgency level. Must be one of: critical, urgent, normal", false
	}
	if req.UnitsNeeded != nil && (*req.UnitsNeeded < 1 || *req.UnitsNeeded > 20) {
		return "Units needed must be between 1 and 20", false
	}
	if req.Status != nil && !models.IsValidRequestStatus(*req.Status) {
		return "Invalid status", false
	}
	return "", true
}

// POST /api/blood/request
// @Summary Create blood request
// @Description Create an active blood request owned by the caller
// @Tags blood
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BloodRequestInput true "Blood request fields"
// @Success 201 {object} response.Envelope "Blood request created successfully"
// @Failure 400 {object} response.Envelope "Validation error"
// @Router /blood/request [post]
func (h *BloodRequestHandler) Create(c *gin.Context) {
	userID := middleware.CallerID(c)

	var req BloodRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.BloodGroup == nil || req.UnitsNeeded == nil || req.UrgencyLevel == nil ||
		req.PatientName == nil || *req.PatientName == "" ||
		req.HospitalName == nil || *req.HospitalName == "" ||
		req.NeededByDate == nil || *req.NeededByDate == "" {
		response.Error(c, http.StatusBadRequest,
			"Missing required fields: blood_group, units_needed, urgency_level, patient_name, hospital_name, needed_by_date")
		return
	}

	if msg, ok := validateRequestInput(&req); !ok {
		response.Error(c, http.StatusBadRequest, msg)
		return
	}

	neededBy, err := parseDate(*req.NeededByDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid needed_by_date, expected YYYY-MM-DD")
		return
	}

	// Requester comes from the verified token, never from the body, and the
	// status is forced to active regardless of input.
	request := models.BloodRequest{
		RequesterID:  userID,
		BloodGroup:   *req.BloodGroup,
		UnitsNeeded:  *req.UnitsNeeded,
		UrgencyLevel: *req.UrgencyLevel,
		PatientName:  *req.PatientName,
		HospitalName: *req.HospitalName,
		NeededByDate: neededBy,
		Status:       models.RequestStatusActive,
		LocationLat:  req.LocationLat,
		LocationLng:  req.LocationLng,
	}
	if req.HospitalAddress != nil {
		request.HospitalAddress = *req.HospitalAddress
	}
	if req.HospitalCity != nil {
		request.HospitalCity = *req.HospitalCity
	}
	if req.HospitalContact != nil {
		request.HospitalContact = *req.HospitalContact
	}
	if req.Description != nil {
		request.Description = *req.Description
	}

	if err := h.db.Create(&request).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.cache.InvalidateListPages()

	var requester models.User
	item := BloodRequestWithCounts{BloodRequest: request}
	if err := h.db.Where("id = ?", userID).First(&requester).Error; err == nil {
		pub := requester.Public()
		item.RequesterInfo = &pub
	}

	response.Success(c, http.StatusCreated, "Blood request created successfully", item)
}

// GET /api/blood/requests
// @Summary List blood requests
// @Description Public bulletin of requests, filterable and paginated, most urgent first
// @Tags blood
// @Produce json
// @Security BearerAuth
// @Param blood_group query string false "Exact blood group"
// @Param urgency_level query string false "Exact urgency level"
// @Param status query string false "Exact status"
// @Param city query string false "Hospital city substring (case-insensitive)"
// @Param limit query int false "Page size (default 50, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /blood/requests [get]
func (h *BloodRequestHandler) List(c *gin.Context) {
	bloodGroup := c.Query("blood_group")
	urgencyLevel := c.Query("urgency_level")
	status := c.Query("status")
	city := c.Query("city")
	params := query.ParseListParams(c)

	cacheKey := cache.ListPageKey(bloodGroup, urgencyLevel, status, strings.ToLower(city), params.Limit, params.Offset)
	var page bloodRequestPage
	if h.cache.GetListPage(cacheKey, &page) {
		response.Paginated(c, page.Items, response.NewPagination(page.Total, params.Limit, params.Offset))
		return
	}

	base := h.db.Model(&models.BloodRequest{})
	if bloodGroup != "" {
		base = base.Where("blood_group = ?", bloodGroup)
	}
	if urgencyLevel != "" {
		base = base.Where("urgency_level = ?", urgencyLevel)
	}
	if status != "" {
		base = base.Where("status = ?", status)
	}
	if city != "" {
		// LOWER/LIKE instead of ILIKE so the same query runs on SQLite in tests
		base = base.Where("LOWER(hospital_city) LIKE ?", "%"+strings.ToLower(city)+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var requests []models.BloodRequest
	err := params.Apply(base.Session(&gorm.Session{}).
		Order(models.UrgencyRankSQL).
		Order("created_at DESC")).
		Find(&requests).Error
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := h.annotate(requests)

	page = bloodRequestPage{Items: items, Total: total}
	h.cache.SetListPage(cacheKey, page)

	response.Paginated(c, items, response.NewPagination(total, params.Limit, params.Offset))
}

// annotate joins requester contact info and response tallies onto a page of requests.
func (h *BloodRequestHandler) annotate(requests []models.BloodRequest) []BloodRequestWithCounts {
	requesterIDs := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		requesterIDs = append(requesterIDs, r.RequesterID)
	}

	requesters := map[uuid.UUID]models.PublicUser{}
	if len(requesterIDs) > 0 {
		var users []models.User
		if err := h.db.Where("id IN ?", requesterIDs).Find(&users).Error; err == nil {
			for _, u := range users {
				requesters[u.ID] = u.Public()
			}
		}
	}

	items := make([]BloodRequestWithCounts, 0, len(requests))
	for _, r := range requests {
		item := BloodRequestWithCounts{BloodRequest: r}
		if pub, ok := requesters[r.RequesterID]; ok {
			pubCopy := pub
			item.RequesterInfo = &pubCopy
		}
		item.TotalResponses, item.ConfirmedDonors = h.countResponses(r.ID)
		items = append(items, item)
	}
	return items
}

// GET /api/blood/request/:id
// @Summary Get one blood request
// @Description Request with requester info and its full response list, confirmed first
// @Tags blood
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Blood request not found"
// @Router /blood/request/{id} [get]
func (h *BloodRequestHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	var request models.BloodRequest
	if err := h.db.Where("id = ?", id).First(&request).Error; err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	item := BloodRequestWithCounts{BloodRequest: request}
	var requester models.User
	if err := h.db.Where("id = ?", request.RequesterID).First(&requester).Error; err == nil {
		pub := requester.Public()
		item.RequesterInfo = &pub
	}
	item.TotalResponses, item.ConfirmedDonors = h.countResponses(request.ID)

	var responses []models.DonationResponse
	h.db.Where("request_id = ?", request.ID).
		Order(models.DonationStatusRankSQL).
		Order("created_at DESC").
		Find(&responses)

	responseItems := annotateDonors(h.db, responses)

	response.Data(c, gin.H{
		"request":            item,
		"donation_responses": responseItems,
	})
}

// PUT /api/blood/request/:id
// @Summary Update blood request
// @Description Merge-update by the owning requester or an administrator
// @Tags blood
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body BloodRequestInput true "Fields to update"
// @Success 200 {object} response.Envelope "Blood request updated successfully"
// @Failure 400 {object} response.Envelope "Validation error"
// @Failure 403 {object} response.Envelope "Not the owner"
// @Failure 404 {object} response.Envelope "Blood request not found"
// @Router /blood/request/{id} [put]
func (h *BloodRequestHandler) Update(c *gin.Context) {
	userID := middleware.CallerID(c)
	isAdmin := middleware.CallerIsAdmin(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	var req BloodRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg, ok := validateRequestInput(&req); !ok {
		response.Error(c, http.StatusBadRequest, msg)
		return
	}

	var neededBy interface{}
	if req.NeededByDate != nil {
		parsed, err := parseDate(*req.NeededByDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid needed_by_date, expected YYYY-MM-DD")
			return
		}
		neededBy = parsed
	}

	updates := map[string]interface{}{}
	if req.BloodGroup != nil {
		updates["blood_group"] = *req.BloodGroup
	}
	if req.UnitsNeeded != nil {
		updates["units_needed"] = *req.UnitsNeeded
	}
	if req.UrgencyLevel != nil {
		updates["urgency_level"] = *req.UrgencyLevel
	}
	if req.PatientName != nil {
		updates["patient_name"] = *req.PatientName
	}
	if req.HospitalName != nil {
		updates["hospital_name"] = *req.HospitalName
	}
	if req.HospitalAddress != nil {
		updates["hospital_address"] = *req.HospitalAddress
	}
	if req.HospitalCity != nil {
		updates["hospital_city"] = *req.HospitalCity
	}
	if req.HospitalContact != nil {
		updates["hospital_contact"] = *req.HospitalContact
	}
	if neededBy != nil {
		updates["needed_by_date"] = neededBy
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		// No transition table: the owner may move status freely,
		// including reopening a fulfilled request.
		updates["status"] = *req.Status
	}
	if req.LocationLat != nil {
		updates["location_lat"] = *req.LocationLat
	}
	if req.LocationLng != nil {
		updates["location_lng"] = *req.LocationLng
	}

	var updated models.BloodRequest
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var request models.BloodRequest
		if err := tx.Where("id = ?", id).First(&request).Error; err != nil {
			return err
		}

		if request.RequesterID != userID && !isAdmin {
			return errForbidden
		}

		if len(updates) > 0 {
			if err := tx.Model(&request).Updates(updates).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).First(&updated).Error
	})

	switch {
	case txErr == gorm.ErrRecordNotFound:
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	case txErr == errForbidden:
		response.Error(c, http.StatusForbidden, "You don't have permission to update this request")
		return
	case txErr != nil:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.cache.InvalidateListPages()

	response.Success(c, http.StatusOK, "Blood request updated successfully", updated)
}

// DELETE /api/blood/request/:id
// @Summary Delete blood request
// @Description Delete by the owning requester or an administrator; responses cascade
// @Tags blood
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope "Blood request deleted successfully"
// @Failure 403 {object} response.Envelope "Not the owner"
// @Failure 404 {object} response.Envelope "Blood request not found"
// @Router /blood/request/{id} [delete]
func (h *BloodRequestHandler) Delete(c *gin.Context) {
	userID := middleware.CallerID(c)
	isAdmin := middleware.CallerIsAdmin(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	}

	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var request models.BloodRequest
		if err := tx.Where("id = ?", id).First(&request).Error; err != nil {
			return err
		}

		if request.RequesterID != userID && !isAdmin {
			return errForbidden
		}

		// Cascade explicitly rather than trusting the store's FK setup
		if err := tx.Where("request_id = ?", id).Delete(&models.DonationResponse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&request).Error
	})

	switch {
	case txErr == gorm.ErrRecordNotFound:
		response.Error(c, http.StatusNotFound, "Blood request not found")
		return
	case txErr == errForbidden:
		response.Error(c, http.StatusForbidden, "You don't have permission to delete this request")
		return
	case txErr != nil:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.cache.InvalidateListPages()

	response.Success(c, http.StatusOK, "Blood request deleted successfully", nil)
}

// GET /api/blood/my-requests
// @Summary List own blood requests
// @Description All of the caller's requests, newest first, with response tallies
// @Tags blood
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /blood/my-requests [get]
func (h *BloodRequestHandler) ListMine(c *gin.Context) {
	userID := middleware.CallerID(c)

	var requests []models.BloodRequest
	if err := h.db.Where("requester_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := make([]BloodRequestWithCounts, 0, len(requests))
	for _, r := range requests {
		item := BloodRequestWithCounts{BloodRequest: r}
		item.TotalResponses, item.ConfirmedDonors = h.countResponses(r.ID)
		items = append(items, item)
	}

	response.Data(c, items)
}
