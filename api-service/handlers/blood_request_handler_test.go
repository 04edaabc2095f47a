package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashasetu-backend/shared/database/models"
)

func TestCreateBloodRequest(t *testing.T) {
	router, _ := newTestEnv(t)
	user, token := registerUser(t, router, "Request Owner")

	status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", gin.H{
		"blood_group":    "A-",
		"units_needed":   3,
		"urgency_level":  "critical",
		"patient_name":   "Hari Gurung",
		"hospital_name":  "Teaching Hospital",
		"hospital_city":  "Kathmandu",
		"needed_by_date": "2026-09-15",
		// A caller-supplied status must be ignored on create
		"status": "fulfilled",
	}, token)

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Blood request created successfully", env.Message)

	var item BloodRequestWithCounts
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, models.RequestStatusActive, item.Status)
	assert.Equal(t, user.ID, item.RequesterID)
	require.NotNil(t, item.RequesterInfo)
	assert.Equal(t, "Request Owner", item.RequesterInfo.FullName)
	assert.Zero(t, item.TotalResponses)
}

func TestCreateBloodRequestValidation(t *testing.T) {
	router, _ := newTestEnv(t)
	_, token := registerUser(t, router, "Validator")

	valid := func() gin.H {
		return gin.H{
			"blood_group":    "O+",
			"units_needed":   1,
			"urgency_level":  "normal",
			"patient_name":   "Patient",
			"hospital_name":  "Hospital",
			"needed_by_date": "2026-09-15",
		}
	}

	t.Run("missing required fields", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", gin.H{
			"blood_group": "O+",
		}, token)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Missing required fields: blood_group, units_needed, urgency_level, patient_name, hospital_name, needed_by_date", env.Message)
	})

	t.Run("invalid blood group", func(t *testing.T) {
		body := valid()
		body["blood_group"] = "Z+"
		status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", body, token)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid blood group. Must be one of: A+, A-, B+, B-, AB+, AB-, O+, O-", env.Message)
	})

	t.Run("invalid urgency", func(t *testing.T) {
		body := valid()
		body["urgency_level"] = "asap"
		status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", body, token)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid urgency level. Must be one of: critical, urgent, normal", env.Message)
	})

	t.Run("units boundaries", func(t *testing.T) {
		for _, units := range []int{0, 21, -1} {
			body := valid()
			body["units_needed"] = units
			status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", body, token)
			assert.Equalf(t, http.StatusBadRequest, status, "units=%d", units)
			assert.Equal(t, "Units needed must be between 1 and 20", env.Message)
		}
		for _, units := range []int{1, 20} {
			body := valid()
			body["units_needed"] = units
			status, _ := doRequest(t, router, http.MethodPost, "/api/blood/request", body, token)
			assert.Equalf(t, http.StatusCreated, status, "units=%d", units)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		body := valid()
		body["needed_by_date"] = "next week"
		status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", body, token)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid needed_by_date, expected YYYY-MM-DD", env.Message)
	})
}

func TestListBloodRequestsOrdering(t *testing.T) {
	router, db := newTestEnv(t)
	_, token := registerUser(t, router, "Lister")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	normalID := createBloodRequest(t, router, token, gin.H{"urgency_level": "normal", "patient_name": "Normal Case"})
	backdate(t, db, &models.BloodRequest{}, normalID, base.Add(3*time.Hour))

	criticalOldID := createBloodRequest(t, router, token, gin.H{"urgency_level": "critical", "patient_name": "Critical Old"})
	backdate(t, db, &models.BloodRequest{}, criticalOldID, base.Add(1*time.Hour))

	criticalNewID := createBloodRequest(t, router, token, gin.H{"urgency_level": "critical", "patient_name": "Critical New"})
	backdate(t, db, &models.BloodRequest{}, criticalNewID, base.Add(2*time.Hour))

	urgentID := createBloodRequest(t, router, token, gin.H{"urgency_level": "urgent", "patient_name": "Urgent Case"})
	backdate(t, db, &models.BloodRequest{}, urgentID, base.Add(4*time.Hour))

	status, env := doRequest(t, router, http.MethodGet, "/api/blood/requests", nil, token)
	require.Equal(t, http.StatusOK, status)

	var items []BloodRequestWithCounts
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 4)

	// Critical first (newest critical before older), then urgent, then normal
	assert.Equal(t, criticalNewID, items[0].ID)
	assert.Equal(t, criticalOldID, items[1].ID)
	assert.Equal(t, urgentID, items[2].ID)
	assert.Equal(t, normalID, items[3].ID)
}

func TestListBloodRequestsFilters(t *testing.T) {
	router, _ := newTestEnv(t)
	_, token := registerUser(t, router, "Filterer")

	createBloodRequest(t, router, token, gin.H{"blood_group": "A+", "hospital_city": "Kathmandu"})
	createBloodRequest(t, router, token, gin.H{"blood_group": "B-", "hospital_city": "Pokhara"})
	createBloodRequest(t, router, token, gin.H{"blood_group": "A+", "hospital_city": "Lalitpur"})

	t.Run("by blood group", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodGet, "/api/blood/requests?blood_group=A%2B", nil, token)
		require.Equal(t, http.StatusOK, status)

		var items []BloodRequestWithCounts
		require.NoError(t, json.Unmarshal(env.Data, &items))
		require.Len(t, items, 2)
		for _, item := range items {
			assert.Equal(t, "A+", item.BloodGroup)
		}
	})

	t.Run("by city substring case-insensitive", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodGet, "/api/blood/requests?city=POKH", nil, token)
		require.Equal(t, http.StatusOK, status)

		var items []BloodRequestWithCounts
		require.NoError(t, json.Unmarshal(env.Data, &items))
		require.Len(t, items, 1)
		assert.Equal(t, "Pokhara", items[0].HospitalCity)
	})

	t.Run("no matches", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodGet, "/api/blood/requests?blood_group=AB-", nil, token)
		require.Equal(t, http.StatusOK, status)

		var items []BloodRequestWithCounts
		require.NoError(t, json.Unmarshal(env.Data, &items))
		assert.Empty(t, items)
		assert.Equal(t, int64(0), env.Pagination.Total)
	})
}

func TestListBloodRequestsPagination(t *testing.T) {
	router, db := newTestEnv(t)
	_, token := registerUser(t, router, "Paginator")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id := createBloodRequest(t, router, token, gin.H{"patient_name": fmt.Sprintf("Patient %d", i)})
		backdate(t, db, &models.BloodRequest{}, id, base.Add(time.Duration(i)*time.Hour))
	}

	status, env := doRequest(t, router, http.MethodGet, "/api/blood/requests?limit=2&offset=0", nil, token)
	require.Equal(t, http.StatusOK, status)

	var items []BloodRequestWithCounts
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(3), env.Pagination.Total)
	assert.True(t, env.Pagination.HasMore)

	status, env = doRequest(t, router, http.MethodGet, "/api/blood/requests?limit=2&offset=2", nil, token)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)
	assert.False(t, env.Pagination.HasMore)
}

func TestGetBloodRequestByID(t *testing.T) {
	router, _ := newTestEnv(t)
	owner, ownerToken := registerUser(t, router, "Detail Owner")
	_, donorToken := registerUser(t, router, "Detail Donor")

	requestID := createBloodRequest(t, router, ownerToken, nil)
	respond(t, router, donorToken, requestID, "I can help")

	status, env := doRequest(t, router, http.MethodGet, "/api/blood/request/"+requestID.String(), nil, ownerToken)
	require.Equal(t, http.StatusOK, status)

	var payload struct {
		Request           BloodRequestWithCounts `json:"request"`
		DonationResponses []DonationResponseItem `json:"donation_responses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, requestID, payload.Request.ID)
	assert.Equal(t, owner.ID, payload.Request.RequesterID)
	assert.Equal(t, int64(1), payload.Request.TotalResponses)
	require.Len(t, payload.DonationResponses, 1)
	require.NotNil(t, payload.DonationResponses[0].DonorInfo)
	assert.Equal(t, "Detail Donor", payload.DonationResponses[0].DonorInfo.FullName)

	t.Run("unknown id", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodGet, "/api/blood/request/11111111-1111-1111-1111-111111111111", nil, ownerToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Blood request not found", env.Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodGet, "/api/blood/request/abc", nil, ownerToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Blood request not found", env.Message)
	})
}

func TestUpdateBloodRequestPermissions(t *testing.T) {
	router, db := newTestEnv(t)
	_, ownerToken := registerUser(t, router, "Update Owner")
	_, strangerToken := registerUser(t, router, "Update Stranger")
	admin, _ := registerUser(t, router, "Admin User")

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)
	var adminUser models.User
	require.NoError(t, db.Where("id = ?", admin.ID).First(&adminUser).Error)
	status, env := doRequest(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    adminUser.Email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, status)
	var adminPayload authPayload
	require.NoError(t, json.Unmarshal(env.Data, &adminPayload))
	adminToken := adminPayload.Token

	requestID := createBloodRequest(t, router, ownerToken, nil)

	t.Run("stranger forbidden", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodPut, "/api/blood/request/"+requestID.String(), gin.H{
			"units_needed": 5,
		}, strangerToken)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "You don't have permission to update this request", env.Message)
	})

	t.Run("owner merge update", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodPut, "/api/blood/request/"+requestID.String(), gin.H{
			"units_needed": 5,
			"description":  "Updated description",
		}, ownerToken)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Blood request updated successfully", env.Message)

		var updated models.BloodRequest
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		assert.Equal(t, 5, updated.UnitsNeeded)
		assert.Equal(t, "Updated description", updated.Description)
		// Untouched fields survive the merge
		assert.Equal(t, "O+", updated.BloodGroup)
		assert.Equal(t, "Bir Hospital", updated.HospitalName)
	})

	t.Run("owner may move status freely", func(t *testing.T) {
		status, _ := doRequest(t, router, http.MethodPut, "/api/blood/request/"+requestID.String(), gin.H{
			"status": "fulfilled",
		}, ownerToken)
		require.Equal(t, http.StatusOK, status)

		status, env := doRequest(t, router, http.MethodPut, "/api/blood/request/"+requestID.String(), gin.H{
			"status": "active",
		}, ownerToken)
		require.Equal(t, http.StatusOK, status)
		var updated models.BloodRequest
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		assert.Equal(t, models.RequestStatusActive, updated.Status)
	})

	t.Run("admin may update", func(t *testing.T) {
		status, _ := doRequest(t, router, http.MethodPut, "/api/blood/request/"+requestID.String(), gin.H{
			"urgency_level": "urgent",
		}, adminToken)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("invalid status", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodPut, "/api/blood/request/"+requestID.String(), gin.H{
			"status": "done",
		}, ownerToken)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid status", env.Message)
	})
}

func TestDeleteBloodRequestCascades(t *testing.T) {
	router, db := newTestEnv(t)
	_, ownerToken := registerUser(t, router, "Delete Owner")
	_, donorToken := registerUser(t, router, "Delete Donor")
	_, strangerToken := registerUser(t, router, "Delete Stranger")

	requestID := createBloodRequest(t, router, ownerToken, nil)
	respond(t, router, donorToken, requestID, "count me in")

	t.Run("stranger forbidden", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodDelete, "/api/blood/request/"+requestID.String(), nil, strangerToken)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "You don't have permission to delete this request", env.Message)
	})

	t.Run("owner delete removes responses", func(t *testing.T) {
		status, env := doRequest(t, router, http.MethodDelete, "/api/blood/request/"+requestID.String(), nil, ownerToken)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Blood request deleted successfully", env.Message)

		var orphaned int64
		require.NoError(t, db.Model(&models.DonationResponse{}).Where("request_id = ?", requestID).Count(&orphaned).Error)
		assert.Equal(t, int64(0), orphaned)

		status, _ = doRequest(t, router, http.MethodGet, "/api/blood/request/"+requestID.String(), nil, ownerToken)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestListMyBloodRequests(t *testing.T) {
	router, db := newTestEnv(t)
	_, mineToken := registerUser(t, router, "Mine Owner")
	_, otherToken := registerUser(t, router, "Other Owner")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	firstID := createBloodRequest(t, router, mineToken, gin.H{"patient_name": "First"})
	backdate(t, db, &models.BloodRequest{}, firstID, base)
	secondID := createBloodRequest(t, router, mineToken, gin.H{"patient_name": "Second"})
	backdate(t, db, &models.BloodRequest{}, secondID, base.Add(time.Hour))
	createBloodRequest(t, router, otherToken, gin.H{"patient_name": "Not Mine"})

	status, env := doRequest(t, router, http.MethodGet, "/api/blood/my-requests", nil, mineToken)
	require.Equal(t, http.StatusOK, status)

	var items []BloodRequestWithCounts
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, secondID, items[0].ID)
	assert.Equal(t, firstID, items[1].ID)
}
