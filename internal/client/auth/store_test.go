package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akosarev/folio-cli/internal/client/storage"
	"github.com/akosarev/folio-cli/internal/client/storage/memory"
	"github.com/akosarev/folio-cli/internal/crypto"
)

// failingStorage имитирует недоступный durable backend
type failingStorage struct {
	saveErr error
}

func (f *failingStorage) SaveCredentials(ctx context.Context, creds *storage.CredentialData) error {
	return f.saveErr
}

func (f *failingStorage) GetCredentials(ctx context.Context) (*storage.CredentialData, error) {
	return nil, storage.ErrCredentialsNotFound
}

func (f *failingStorage) DeleteCredentials(ctx context.Context) error {
	return nil
}

func (f *failingStorage) Persistent() bool {
	return true
}

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, crypto.KeySize)
}

func testCreds() *storage.CredentialData {
	return &storage.CredentialData{
		AccessToken:  "access-a1",
		RefreshToken: "refresh-r1",
		Username:     "alice",
		UserID:       7,
		ExpiresAt:    1700000000,
	}
}

// TestCredentialStore_EncryptsAtRest проверяет, что backend никогда не видит
// токены открытым текстом
func TestCredentialStore_EncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	volatile := memory.New()
	store := NewCredentialStore(nil, volatile, testKey())

	require.NoError(t, store.Save(ctx, testCreds(), false))

	raw, err := volatile.GetCredentials(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "access-a1", raw.AccessToken)
	assert.NotEqual(t, "refresh-r1", raw.RefreshToken)

	// Чтение через store возвращает исходную пару
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-a1", got.AccessToken)
	assert.Equal(t, "refresh-r1", got.RefreshToken)
	assert.Equal(t, "alice", got.Username)
}

func TestCredentialStore_PersistentSave(t *testing.T) {
	ctx := context.Background()
	durable := memory.New()
	volatile := memory.New()
	store := NewCredentialStore(durable, volatile, testKey())

	require.NoError(t, store.Save(ctx, testCreds(), true))

	assert.True(t, store.Persistent())

	// Пара лежит в durable, volatile пуст
	_, err := durable.GetCredentials(ctx)
	assert.NoError(t, err)
	_, err = volatile.GetCredentials(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialsNotFound)
}

func TestCredentialStore_VolatileSave(t *testing.T) {
	ctx := context.Background()
	durable := memory.New()
	store := NewCredentialStore(durable, memory.New(), testKey())

	require.NoError(t, store.Save(ctx, testCreds(), false))

	assert.False(t, store.Persistent())
	_, err := durable.GetCredentials(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialsNotFound)
}

// TestCredentialStore_SilentFallback проверяет, что отказ durable backend-а
// не всплывает к вызывающему: запись уходит в volatile
func TestCredentialStore_SilentFallback(t *testing.T) {
	ctx := context.Background()
	durable := &failingStorage{saveErr: errors.New("disk full")}
	store := NewCredentialStore(durable, memory.New(), testKey())

	require.NoError(t, store.Save(ctx, testCreds(), true))

	// Сессия работает, но факт непостоянства виден
	assert.False(t, store.Persistent())

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-a1", got.AccessToken)
}

func TestCredentialStore_NilDurable(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(nil, memory.New(), testKey())

	require.NoError(t, store.Save(ctx, testCreds(), true))
	assert.False(t, store.Persistent())

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-a1", got.AccessToken)
}

// TestCredentialStore_UpdateTokens проверяет, что обновление пары сохраняет
// backend и профильные поля
func TestCredentialStore_UpdateTokens(t *testing.T) {
	ctx := context.Background()
	durable := memory.New()
	store := NewCredentialStore(durable, memory.New(), testKey())

	require.NoError(t, store.Save(ctx, testCreds(), true))
	require.NoError(t, store.UpdateTokens(ctx, "access-a2", "refresh-r2", 1700003600))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-a2", got.AccessToken)
	assert.Equal(t, "refresh-r2", got.RefreshToken)
	assert.Equal(t, int64(1700003600), got.ExpiresAt)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, int64(7), got.UserID)
	assert.True(t, store.Persistent())
}

func TestCredentialStore_UpdateTokens_KeepsRefresh(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(nil, memory.New(), testKey())

	require.NoError(t, store.Save(ctx, testCreds(), false))

	// Сервер не ротировал refresh токен
	require.NoError(t, store.UpdateTokens(ctx, "access-a2", "", 0))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-r1", got.RefreshToken)
}

func TestCredentialStore_AccessToken(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(nil, memory.New(), testKey())

	// Токена нет - пустая строка без ошибки
	tok, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.False(t, store.IsAuthenticated(ctx))

	require.NoError(t, store.Save(ctx, testCreds(), false))

	tok, err = store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-a1", tok)
	assert.True(t, store.IsAuthenticated(ctx))
}

func TestCredentialStore_Clear(t *testing.T) {
	ctx := context.Background()
	durable := memory.New()
	store := NewCredentialStore(durable, memory.New(), testKey())

	require.NoError(t, store.Save(ctx, testCreds(), true))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialsNotFound)
	assert.False(t, store.Persistent())

	// Повторная очистка не ошибка
	require.NoError(t, store.Clear(ctx))
}

// TestCredentialStore_RestoreFromDurable проверяет чтение durable пары
// после "рестарта" (новый store над тем же backend-ом)
func TestCredentialStore_RestoreFromDurable(t *testing.T) {
	ctx := context.Background()
	durable := memory.New()

	first := NewCredentialStore(durable, memory.New(), testKey())
	require.NoError(t, first.Save(ctx, testCreds(), true))

	second := NewCredentialStore(durable, memory.New(), testKey())
	got, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-a1", got.AccessToken)
	assert.True(t, second.Persistent())
}

func TestCredentialStore_NilCreds(t *testing.T) {
	store := NewCredentialStore(nil, memory.New(), testKey())
	assert.Error(t, store.Save(context.Background(), nil, false))
}
