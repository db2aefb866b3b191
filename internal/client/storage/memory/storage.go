package memory

import (
	"context"
	"sync"

	"github.com/akosarev/folio-cli/internal/client/storage"
)

// Storage представляет хранилище в памяти процесса
// Аналог tab-scoped хранилища: сессия живет до завершения процесса.
// Также используется как тихий fallback, когда durable хранилище недоступно.
type Storage struct {
	mu    sync.RWMutex
	creds *storage.CredentialData
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// SaveCredentials stores a copy of the credential pair
func (s *Storage) SaveCredentials(ctx context.Context, creds *storage.CredentialData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *creds
	s.creds = &cp
	return nil
}

// GetCredentials returns a copy of the stored credential pair
func (s *Storage) GetCredentials(ctx context.Context) (*storage.CredentialData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil {
		return nil, storage.ErrCredentialsNotFound
	}

	cp := *s.creds
	return &cp, nil
}

// DeleteCredentials clears the stored credential pair
func (s *Storage) DeleteCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	return nil
}

// Persistent reports that in-memory data does not survive restarts
func (s *Storage) Persistent() bool {
	return false
}
