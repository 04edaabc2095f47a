package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Nepali mobile numbers: 98 followed by 8 digits
	phoneRegex = regexp.MustCompile(`^98\d{8}$`)
)

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}

	if !emailRegex.MatchString(email) {
		return errors.New("Invalid email format")
	}

	return nil
}

func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return errors.New("phone number is required")
	}

	if !phoneRegex.MatchString(phone) {
		return errors.New("Invalid phone number. Use format: 98XXXXXXXX")
	}

	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("Password must be at least 6 characters")
	}
	return nil
}

func ValidateRequired(field, fieldName string) error {
	if strings.TrimSpace(field) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}
