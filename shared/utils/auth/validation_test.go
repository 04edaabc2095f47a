package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"donor@example.com", "a.b+c@sub.domain.org"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("expected %q to be valid, got %v", email, err)
		}
	}

	invalid := []string{"", "plainstring", "no@tld", "spa ce@example.com", "@example.com"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("expected %q to be rejected", email)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"9812345678", "9800000000"}
	for _, phone := range valid {
		if err := ValidatePhone(phone); err != nil {
			t.Errorf("expected %q to be valid, got %v", phone, err)
		}
	}

	invalid := []string{"", "12345", "981234567", "98123456789", "9912345678", "98abcd5678"}
	for _, phone := range invalid {
		if err := ValidatePhone(phone); err == nil {
			t.Errorf("expected %q to be rejected", phone)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("expected 6-char password to pass, got %v", err)
	}
	if err := ValidatePassword("12345"); err == nil {
		t.Error("expected 5-char password to be rejected")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPasswordHash("secret123", hash) {
		t.Error("expected matching password to verify")
	}
	if CheckPasswordHash("wrongpass", hash) {
		t.Error("expected mismatched password to fail")
	}
}
