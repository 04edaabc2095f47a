package database

import (
	"log"

	"gorm.io/gorm"

	"ashasetu-backend/shared/config"
	"ashasetu-backend/shared/database/models"
	utils "ashasetu-backend/shared/utils/auth"
)

// SeedAdminUser creates the administrator account from config if it does not
// exist yet. Skipped entirely when no admin credentials are configured.
func SeedAdminUser(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("ℹ️  No admin credentials configured, skipping admin seed")
		return nil
	}

	var existing models.User
	if err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error; err == nil {
		log.Println("✅ Admin account already exists")
		return nil
	}

	hashedPassword, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		FullName:     "Administrator",
		Email:        cfg.AdminEmail,
		PhoneNumber:  cfg.AdminPhone,
		PasswordHash: hashedPassword,
		IsAdmin:      true,
		IsVerified:   true,
		IsActive:     true,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		profile := models.UserProfile{UserID: admin.ID}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		log.Printf("✅ Admin account seeded: %s", admin.Email)
		return nil
	})
}
