package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/akosarev/folio-cli/internal/client/storage"
)

var credentialsKey = []byte("current")

// SaveCredentials stores the credential pair
func (s *Storage) SaveCredentials(ctx context.Context, creds *storage.CredentialData) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		data, err := json.Marshal(creds)
		if err != nil {
			return fmt.Errorf("failed to marshal credentials: %w", err)
		}

		if err := bucket.Put(credentialsKey, data); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		return nil
	})
}

// GetCredentials retrieves the stored credential pair
func (s *Storage) GetCredentials(ctx context.Context) (*storage.CredentialData, error) {
	var creds *storage.CredentialData

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		data := bucket.Get(credentialsKey)
		if data == nil {
			return storage.ErrCredentialsNotFound
		}

		creds = &storage.CredentialData{}
		if err := json.Unmarshal(data, creds); err != nil {
			return fmt.Errorf("failed to unmarshal credentials: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return creds, nil
}

// DeleteCredentials removes the stored credential pair (logout)
// Идемпотентно: отсутствие данных не считается ошибкой
func (s *Storage) DeleteCredentials(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		if err := bucket.Delete(credentialsKey); err != nil {
			return fmt.Errorf("failed to delete credentials: %w", err)
		}

		return nil
	})
}
