package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid simple", username: "alice", wantErr: false},
		{name: "valid with underscore and digits", username: "alice_dev_42", wantErr: false},
		{name: "minimum length", username: "abc", wantErr: false},
		{name: "maximum length", username: strings.Repeat("a", 32), wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 33), wantErr: true},
		{name: "with dash", username: "alice-dev", wantErr: true},
		{name: "with space", username: "alice dev", wantErr: true},
		{name: "cyrillic", username: "алиса", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "alice@example.com", wantErr: false},
		{name: "valid with subdomain", email: "alice@mail.example.com", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "no at sign", email: "alice.example.com", wantErr: true},
		{name: "no domain dot", email: "alice@localhost", wantErr: true},
		{name: "with spaces", email: "alice @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("password123"))
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("1234567"))
}

func TestValidateOTP(t *testing.T) {
	assert.NoError(t, ValidateOTP("123456"))
	assert.NoError(t, ValidateOTP("000000"))
	assert.Error(t, ValidateOTP(""))
	assert.Error(t, ValidateOTP("12345"))
	assert.Error(t, ValidateOTP("1234567"))
	assert.Error(t, ValidateOTP("12345a"))
}
