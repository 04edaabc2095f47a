package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ashasetu-backend/api-service/middleware"
	"ashasetu-backend/api-service/services"
	"ashasetu-backend/shared/database"
	"ashasetu-backend/shared/database/models"
	"ashasetu-backend/shared/utils/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors response.Envelope with raw data for per-test decoding.
type envelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Data       json.RawMessage      `json:"data"`
	Pagination *response.Pagination `json:"pagination"`
}

// newTestDB opens an isolated in-memory SQLite store with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique shared-cache DSN per test so pooled connections see one store
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.CloseDatabase(db)
	})

	return db
}

// newTestRouter wires the full API surface against the given store. Redis and
// object storage stay disabled, so caching degrades to database reads and
// avatar upload reports unavailable, same as a bare deployment.
func newTestRouter(db *gorm.DB) *gin.Engine {
	notifier := services.NewNotifier(db, nil)

	authHandler := NewAuthHandler(db, nil)
	bloodRequestHandler := NewBloodRequestHandler(db, nil)
	donationHandler := NewDonationHandler(db, nil, notifier)
	notificationHandler := NewNotificationHandler(db, nil)

	router := gin.New()
	api := router.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/profile", middleware.AuthMiddleware(), authHandler.GetProfile)
	api.PUT("/auth/profile", middleware.AuthMiddleware(), authHandler.UpdateProfile)
	api.PUT("/auth/change-password", middleware.AuthMiddleware(), authHandler.ChangePassword)
	api.POST("/auth/profile/picture", middleware.AuthMiddleware(), authHandler.UploadProfilePicture)

	api.POST("/blood/request", middleware.AuthMiddleware(), bloodRequestHandler.Create)
	api.GET("/blood/requests", middleware.AuthMiddleware(), bloodRequestHandler.List)
	api.GET("/blood/my-requests", middleware.AuthMiddleware(), bloodRequestHandler.ListMine)
	api.GET("/blood/request/:id", middleware.AuthMiddleware(), bloodRequestHandler.GetByID)
	api.PUT("/blood/request/:id", middleware.AuthMiddleware(), bloodRequestHandler.Update)
	api.DELETE("/blood/request/:id", middleware.AuthMiddleware(), bloodRequestHandler.Delete)

	api.POST("/blood/respond", middleware.AuthMiddleware(), donationHandler.Respond)
	api.GET("/blood/my-responses", middleware.AuthMiddleware(), donationHandler.ListMine)
	api.GET("/blood/respond/:requestId", middleware.AuthMiddleware(), donationHandler.ListForRequest)
	api.PUT("/blood/respond/:donationId", middleware.AuthMiddleware(), donationHandler.UpdateStatus)
	api.DELETE("/blood/respond/:donationId", middleware.AuthMiddleware(), donationHandler.Delete)

	api.GET("/notifications", middleware.AuthMiddleware(), notificationHandler.List)
	api.PUT("/notifications/:id/read", middleware.AuthMiddleware(), notificationHandler.MarkRead)

	return router
}

func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return newTestRouter(db), db
}

// doRequest performs one request and decodes the response envelope.
func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to decode response envelope: %v (body: %s)", err, w.Body.String())
		}
	}

	return w.Code, env
}

// authPayload is the data section returned by register and login.
type authPayload struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

var testUserSeq int

// registerUser creates a user through the API and returns its record and token.
func registerUser(t *testing.T, router *gin.Engine, fullName string) (models.User, string) {
	t.Helper()

	testUserSeq++
	status, env := doRequest(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"full_name":    fullName,
		"email":        fmt.Sprintf("user%d@example.com", testUserSeq),
		"phone_number": fmt.Sprintf("98%08d", testUserSeq),
		"password":     "password123",
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", fullName, status, env.Message)
	}

	var payload authPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode register payload: %v", err)
	}
	return payload.User, payload.Token
}

// createBloodRequest creates a request owned by the token's user.
func createBloodRequest(t *testing.T, router *gin.Engine, token string, overrides gin.H) uuid.UUID {
	t.Helper()

	body := gin.H{
		"blood_group":    "O+",
		"units_needed":   2,
		"urgency_level":  "normal",
		"patient_name":   "Ram Thapa",
		"hospital_name":  "Bir Hospital",
		"hospital_city":  "Kathmandu",
		"needed_by_date": time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	}
	for k, v := range overrides {
		body[k] = v
	}

	status, env := doRequest(t, router, http.MethodPost, "/api/blood/request", body, token)
	if status != http.StatusCreated {
		t.Fatalf("create blood request: expected 201, got %d (%s)", status, env.Message)
	}

	var item BloodRequestWithCounts
	if err := json.Unmarshal(env.Data, &item); err != nil {
		t.Fatalf("failed to decode created request: %v", err)
	}
	return item.ID
}

// respond submits a donation response and returns its id.
func respond(t *testing.T, router *gin.Engine, token string, requestID uuid.UUID, message string) uuid.UUID {
	t.Helper()

	status, env := doRequest(t, router, http.MethodPost, "/api/blood/respond", gin.H{
		"request_id": requestID.String(),
		"message":    message,
	}, token)
	if status != http.StatusCreated {
		t.Fatalf("respond: expected 201, got %d (%s)", status, env.Message)
	}

	var item DonationResponseItem
	if err := json.Unmarshal(env.Data, &item); err != nil {
		t.Fatalf("failed to decode donation response: %v", err)
	}
	return item.ID
}

// backdate shifts a row's created_at so ordering assertions are deterministic.
func backdate(t *testing.T, db *gorm.DB, model interface{}, id uuid.UUID, createdAt time.Time) {
	t.Helper()
	if err := db.Model(model).Where("id = ?", id).Update("created_at", createdAt).Error; err != nil {
		t.Fatalf("failed to backdate row: %v", err)
	}
}
