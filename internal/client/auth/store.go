package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"github.com/akosarev/folio-cli/internal/client/storage"
	"github.com/akosarev/folio-cli/internal/crypto"
)

// CredentialStore - единственный владелец пары токенов.
// Слой шифрования между бизнес-логикой и хранилищем: токены шифруются перед
// записью и расшифровываются при чтении. Все остальные компоненты читают
// токен через него и никогда не дублируют состояние.
//
// Держит два backend-а: durable (переживает рестарт, выбор "remember me") и
// volatile (живет до конца процесса). Если durable недоступен, запись тихо
// уходит в volatile - ошибки наружу нет, факт непостоянства виден через
// Persistent().
type CredentialStore struct {
	durable  storage.CredentialStorage // может быть nil
	volatile storage.CredentialStorage
	key      []byte

	mu         sync.RWMutex
	persistent bool
}

// NewCredentialStore creates a credential store over the given backends
// key - 32-байтовый ключ шифрования токенов at rest
func NewCredentialStore(durable, volatile storage.CredentialStorage, key []byte) *CredentialStore {
	return &CredentialStore{
		durable:  durable,
		volatile: volatile,
		key:      key,
	}
}

// Save шифрует токены и сохраняет пару в выбранный backend
// persistent выбирает durable хранилище; при его отсутствии или отказе
// запись тихо падает в volatile.
func (s *CredentialStore) Save(ctx context.Context, creds *storage.CredentialData, persistent bool) error {
	if creds == nil {
		return fmt.Errorf("credentials are nil")
	}

	encrypted, err := s.encrypt(creds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if persistent && s.durable != nil {
		if err := s.durable.SaveCredentials(ctx, encrypted); err == nil {
			s.persistent = true
			// Другой backend не должен держать устаревшую пару
			_ = s.volatile.DeleteCredentials(ctx)
			return nil
		}
		slog.Warn("durable storage unavailable, session will not persist")
	}

	if err := s.volatile.SaveCredentials(ctx, encrypted); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	s.persistent = false
	if s.durable != nil {
		_ = s.durable.DeleteCredentials(ctx)
	}
	return nil
}

// Get возвращает расшифрованную пару токенов
// Возвращает storage.ErrCredentialsNotFound, если пары нет.
func (s *CredentialStore) Get(ctx context.Context) (*storage.CredentialData, error) {
	stored, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.decrypt(stored)
}

// UpdateTokens перезаписывает токены, сохраняя текущий backend и профильные
// поля. Используется координатором refresh после успешного обновления.
func (s *CredentialStore) UpdateTokens(ctx context.Context, access, refresh string, expiresAt int64) error {
	creds, err := s.Get(ctx)
	if err != nil {
		return err
	}

	creds.AccessToken = access
	if refresh != "" {
		creds.RefreshToken = refresh
	}
	creds.ExpiresAt = expiresAt

	return s.Save(ctx, creds, s.Persistent())
}

// AccessToken возвращает текущий access токен, пустую строку если его нет
// Реализует api.TokenProvider.
func (s *CredentialStore) AccessToken(ctx context.Context) (string, error) {
	creds, err := s.Get(ctx)
	if err != nil {
		if err == storage.ErrCredentialsNotFound {
			return "", nil
		}
		return "", err
	}
	return creds.AccessToken, nil
}

// Clear удаляет пару токенов из обоих backend-ов; идемпотентно
func (s *CredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.volatile.DeleteCredentials(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if s.durable != nil {
		if err := s.durable.DeleteCredentials(ctx); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
	}
	s.persistent = false
	return nil
}

// IsAuthenticated сообщает, есть ли сохраненный access токен
func (s *CredentialStore) IsAuthenticated(ctx context.Context) bool {
	tok, err := s.AccessToken(ctx)
	return err == nil && tok != ""
}

// Persistent - best-effort проверка, переживет ли пара рестарт процесса
func (s *CredentialStore) Persistent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistent
}

// load достает зашифрованную пару: сперва volatile (свежая сессия этого
// процесса), затем durable (восстановление после рестарта)
func (s *CredentialStore) load(ctx context.Context) (*storage.CredentialData, error) {
	creds, err := s.volatile.GetCredentials(ctx)
	if err == nil {
		return creds, nil
	}
	if err != storage.ErrCredentialsNotFound {
		return nil, err
	}

	if s.durable == nil {
		return nil, storage.ErrCredentialsNotFound
	}

	creds, err = s.durable.GetCredentials(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.persistent = true
	s.mu.Unlock()

	return creds, nil
}

// encrypt возвращает копию с зашифрованными base64-кодированными токенами
func (s *CredentialStore) encrypt(creds *storage.CredentialData) (*storage.CredentialData, error) {
	cp := *creds

	access, err := crypto.Encrypt([]byte(creds.AccessToken), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	cp.AccessToken = base64.StdEncoding.EncodeToString(access)

	if creds.RefreshToken != "" {
		refresh, err := crypto.Encrypt([]byte(creds.RefreshToken), s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		cp.RefreshToken = base64.StdEncoding.EncodeToString(refresh)
	}

	return &cp, nil
}

// decrypt возвращает копию с расшифрованными токенами
func (s *CredentialStore) decrypt(creds *storage.CredentialData) (*storage.CredentialData, error) {
	cp := *creds

	raw, err := base64.StdEncoding.DecodeString(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	access, err := crypto.Decrypt(raw, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	cp.AccessToken = string(access)

	if creds.RefreshToken != "" {
		raw, err = base64.StdEncoding.DecodeString(creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to decode refresh token: %w", err)
		}
		refresh, err := crypto.Decrypt(raw, s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
		cp.RefreshToken = string(refresh)
	}

	return &cp, nil
}
