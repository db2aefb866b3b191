package storage

import (
	"context"
)

//go:generate moq -out credentials_mock.go . CredentialStorage

// CredentialStorage defines interface for persisting the credential pair on
// the client. This is the lowest storage layer - it works with raw data
// (already encrypted tokens) and doesn't perform any encryption/decryption
// itself.
type CredentialStorage interface {
	// SaveCredentials stores the credential pair as-is
	// (tokens should already be encrypted)
	SaveCredentials(ctx context.Context, creds *CredentialData) error

	// GetCredentials retrieves the stored credential pair as-is
	// Returns ErrCredentialsNotFound if nothing is stored
	GetCredentials(ctx context.Context) (*CredentialData, error)

	// DeleteCredentials removes the stored credential pair (logout)
	// Deleting absent credentials is not an error
	DeleteCredentials(ctx context.Context) error

	// Persistent reports whether data survives process restart
	Persistent() bool
}

// CredentialData represents the credential pair in storage
// IMPORTANT: This struct is used at different layers with different token
// states: in memory (business logic) tokens are plaintext, in storage they
// are encrypted (base64-encoded ciphertext). The encryption boundary is the
// auth.CredentialStore layer.
type CredentialData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	UserID       int64  `json:"user_id"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds, 0 если неизвестно
}
