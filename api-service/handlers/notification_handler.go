package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ashasetu-backend/api-service/middleware"
	"ashasetu-backend/api-service/services"
	"ashasetu-backend/shared/database/models"
	"ashasetu-backend/shared/utils/query"
	"ashasetu-backend/shared/utils/response"
)

type NotificationHandler struct {
	db  *gorm.DB
	hub *services.WebSocketHub
}

func NewNotificationHandler(db *gorm.DB, hub *services.WebSocketHub) *NotificationHandler {
	return &NotificationHandler{db: db, hub: hub}
}

// GET /api/notifications
// @Summary List own notifications
// @Description The caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.CallerID(c)
	params := query.ParseListParams(c)

	base := h.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var notifications []models.Notification
	if err := params.Apply(base.Session(&gorm.Session{})).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.Paginated(c, notifications, response.NewPagination(total, params.Limit, params.Offset))
}

// PUT /api/notifications/:id/read
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope "Notification marked as read"
// @Failure 404 {object} response.Envelope "Notification not found"
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.CallerID(c)

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Notification not found")
		return
	}

	// Scoping by user id makes someone else's notification look missing
	// rather than forbidden.
	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(c, http.StatusNotFound, "Notification not found")
		return
	}

	response.Success(c, http.StatusOK, "Notification marked as read", nil)
}

// GET /api/ws/notifications
// @Summary Open the realtime notification stream
// @Description Upgrades to a websocket; events for the authenticated user are pushed as they happen
// @Tags notifications
// @Security BearerAuth
// @Router /ws/notifications [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	h.hub.HandleConnection(c, middleware.CallerID(c))
}
