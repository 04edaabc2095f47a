package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ashasetu-backend/api-service/middleware"
	"ashasetu-backend/api-service/services"
	"ashasetu-backend/shared/database/models"
	utils "ashasetu-backend/shared/utils/auth"
	"ashasetu-backend/shared/utils/response"
)

type AuthHandler struct {
	db      *gorm.DB
	storage *services.StorageService
}

func NewAuthHandler(db *gorm.DB, storage *services.StorageService) *AuthHandler {
	return &AuthHandler{db: db, storage: storage}
}

// Register Request struct
type RegisterRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Login Request struct
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile update struct: pointer fields distinguish "omitted" from "set",
// omitted fields keep their prior value.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`

	DateOfBirth           *string  `json:"date_of_birth"`
	Gender                *string  `json:"gender"`
	Address               *string  `json:"address"`
	City                  *string  `json:"city"`
	BloodGroup            *string  `json:"blood_group"`
	WillingToDonateBlood  *bool    `json:"willing_to_donate_blood"`
	LastDonationDate      *string  `json:"last_donation_date"`
	AvailableToDonate     *bool    `json:"available_to_donate"`
	WillingToVolunteer    *bool    `json:"willing_to_volunteer"`
	VolunteerSkills       *string  `json:"volunteer_skills"`
	VolunteerAvailability *string  `json:"volunteer_availability"`
	EmergencyContactName  *string  `json:"emergency_contact_name"`
	EmergencyContactPhone *string  `json:"emergency_contact_phone"`
	MedicalConditions     *string  `json:"medical_conditions"`
	Allergies             *string  `json:"allergies"`
	LocationLat           *float64 `json:"location_lat"`
	LocationLng           *float64 `json:"location_lng"`
}

// Change password struct
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// POST /api/auth/register
// @Summary Register new user
// @Description Create a user with an empty donor profile and return a token
// @Tags auth
// @Accept json
// @Produce json
// @Param register body RegisterRequest true "User registration data"
// @Success 201 {object} response.Envelope "User registered successfully"
// @Failure 400 {object} response.Envelope "Validation error"
// @Failure 409 {object} response.Envelope "Email or phone already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FullName == "" || req.Email == "" || req.PhoneNumber == "" || req.Password == "" {
		response.Error(c, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := utils.ValidatePhone(req.PhoneNumber); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	// Check email/phone uniqueness
	var existing models.User
	if err := h.db.Where("email = ? OR phone_number = ?", req.Email, req.PhoneNumber).First(&existing).Error; err == nil {
		response.Error(c, http.StatusConflict, "User with this email or phone already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hashedPassword,
		IsAdmin:      false,
		IsVerified:   false,
		IsActive:     true,
	}

	// User and its empty profile are created atomically
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.UserProfile{UserID: user.ID}
		return tx.Create(&profile).Error
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.Success(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

// POST /api/auth/login
// @Summary User login
// @Description Authenticate by email and password, return a token with the user and profile
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 200 {object} response.Envelope "Login successful"
// @Failure 400 {object} response.Envelope "Missing fields"
// @Failure 401 {object} response.Envelope "Invalid credentials"
// @Failure 403 {object} response.Envelope "Account deactivated"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		response.Error(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	// Unknown email and wrong password share one message so the endpoint
	// cannot be used to enumerate accounts.
	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		response.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !user.IsActive {
		response.Error(c, http.StatusForbidden, "Your account has been deactivated")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		response.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var profile models.UserProfile
	if err := h.db.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		user.Profile = &profile
	}

	response.Success(c, http.StatusOK, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

// GET /api/auth/profile
// @Summary Get own profile
// @Description Return the caller's user record with its donor profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "User not found"
// @Router /auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.CallerID(c)

	var user models.User
	if err := h.db.Preload("Profile").Where("id = ?", userID).First(&user).Error; err != nil {
		response.Error(c, http.StatusNotFound, "User not found")
		return
	}

	response.Data(c, user)
}

// PUT /api/auth/profile
// @Summary Update own profile
// @Description Merge-update the caller's user and donor profile fields
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} response.Envelope "Profile updated successfully"
// @Failure 400 {object} response.Envelope "Validation error"
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.CallerID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PhoneNumber != nil {
		if err := utils.ValidatePhone(*req.PhoneNumber); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.BloodGroup != nil && !models.IsValidBloodGroup(*req.BloodGroup) {
		response.Error(c, http.StatusBadRequest, "Invalid blood group. Must be one of: A+, A-, B+, B-, AB+, AB-, O+, O-")
		return
	}

	var dateOfBirth, lastDonation interface{}
	if req.DateOfBirth != nil {
		parsed, err := parseDate(*req.DateOfBirth)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid date_of_birth, expected YYYY-MM-DD")
			return
		}
		dateOfBirth = parsed
	}
	if req.LastDonationDate != nil {
		parsed, err := parseDate(*req.LastDonationDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid last_donation_date, expected YYYY-MM-DD")
			return
		}
		lastDonation = parsed
	}

	userUpdates := map[string]interface{}{}
	if req.FullName != nil {
		userUpdates["full_name"] = *req.FullName
	}
	if req.PhoneNumber != nil {
		userUpdates["phone_number"] = *req.PhoneNumber
	}

	profileUpdates := map[string]interface{}{}
	if dateOfBirth != nil {
		profileUpdates["date_of_birth"] = dateOfBirth
	}
	if req.Gender != nil {
		profileUpdates["gender"] = *req.Gender
	}
	if req.Address != nil {
		profileUpdates["address"] = *req.Address
	}
	if req.City != nil {
		profileUpdates["city"] = *req.City
	}
	if req.BloodGroup != nil {
		profileUpdates["blood_group"] = *req.BloodGroup
	}
	if req.WillingToDonateBlood != nil {
		profileUpdates["willing_to_donate_blood"] = *req.WillingToDonateBlood
	}
	if lastDonation != nil {
		profileUpdates["last_donation_date"] = lastDonation
	}
	if req.AvailableToDonate != nil {
		profileUpdates["available_to_donate"] = *req.AvailableToDonate
	}
	if req.WillingToVolunteer != nil {
		profileUpdates["willing_to_volunteer"] = *req.WillingToVolunteer
	}
	if req.VolunteerSkills != nil {
		profileUpdates["volunteer_skills"] = *req.VolunteerSkills
	}
	if req.VolunteerAvailability != nil {
		profileUpdates["volunteer_availability"] = *req.VolunteerAvailability
	}
	if req.EmergencyContactName != nil {
		profileUpdates["emergency_contact_name"] = *req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		profileUpdates["emergency_contact_phone"] = *req.EmergencyContactPhone
	}
	if req.MedicalConditions != nil {
		profileUpdates["medical_conditions"] = *req.MedicalConditions
	}
	if req.Allergies != nil {
		profileUpdates["allergies"] = *req.Allergies
	}
	if req.LocationLat != nil {
		profileUpdates["location_lat"] = *req.LocationLat
	}
	if req.LocationLng != nil {
		profileUpdates["location_lng"] = *req.LocationLng
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		if len(profileUpdates) > 0 {
			if err := tx.Model(&models.UserProfile{}).Where("user_id = ?", userID).Updates(profileUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var user models.User
	if err := h.db.Preload("Profile").Where("id = ?", userID).First(&user).Error; err != nil {
		response.Error(c, http.StatusNotFound, "User not found")
		return
	}

	response.Success(c, http.StatusOK, "Profile updated successfully", user)
}

// PUT /api/auth/change-password
// @Summary Change password
// @Description Verify the current password and set a new hash
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwords body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.Envelope "Password changed successfully"
// @Failure 400 {object} response.Envelope "Validation error"
// @Failure 401 {object} response.Envelope "Current password is incorrect"
// @Router /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.CallerID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		response.Error(c, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		response.Error(c, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		response.Error(c, http.StatusNotFound, "User not found")
		return
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		response.Error(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	newHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.db.Model(&user).Update("password_hash", newHash).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.Success(c, http.StatusOK, "Password changed successfully", nil)
}

// POST /api/auth/profile/picture
// @Summary Upload profile picture
// @Description Store an avatar image in object storage and save its URL on the profile
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param picture formData file true "Avatar image (jpg/png)"
// @Success 200 {object} response.Envelope "Profile picture updated"
// @Failure 400 {object} response.Envelope "Invalid upload"
// @Failure 503 {object} response.Envelope "Object storage not configured"
// @Router /auth/profile/picture [post]
func (h *AuthHandler) UploadProfilePicture(c *gin.Context) {
	if h.storage == nil {
		response.Error(c, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	userID := middleware.CallerID(c)

	fileHeader, err := c.FormFile("picture")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Picture file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer file.Close()

	pictureURL, err := h.storage.UploadProfilePicture(
		c.Request.Context(),
		userID,
		file,
		fileHeader.Size,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.db.Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("profile_picture_url", pictureURL).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.Success(c, http.StatusOK, "Profile picture updated", gin.H{
		"profile_picture_url": pictureURL,
	})
}
