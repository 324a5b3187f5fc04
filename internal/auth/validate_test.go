package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.example.co",
		"u+tag@example.io",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@nodot",
		"two@@example.com",
		"spaced user@example.com",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
		message  string
	}{
		{"valid", "ValidPass1", true, ""},
		{"too short", "Shor1", false, "Password must be at least 8 characters long"},
		{"no uppercase", "alllowercase1", false, "Password must contain at least one uppercase letter"},
		{"no lowercase", "ALLUPPERCASE1", false, "Password must contain at least one lowercase letter"},
		{"no digit", "NoDigitsHere", false, "Password must contain at least one number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidatePassword(tt.password)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}
