package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenProvider struct {
	token string
	err   error
}

func (f *fakeTokenProvider) AccessToken(ctx context.Context) (string, error) {
	return f.token, f.err
}

// fakeRefresher имитирует координатор: при успехе подменяет токен провайдера
type fakeRefresher struct {
	provider *fakeTokenProvider
	newToken string
	err      error
	calls    atomic.Int32
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	f.provider.token = f.newToken
	return nil
}

type fakeGuard struct {
	decorated int
	captured  int
}

func (f *fakeGuard) Decorate(h http.Header) {
	f.decorated++
	h.Set("X-CSRFToken", "guard-token")
}

func (f *fakeGuard) CaptureMarker(h http.Header) {
	f.captured++
}

func newGetEnvelope(t *testing.T, path string) *Envelope {
	t.Helper()
	env, err := NewEnvelope(http.MethodGet, path, nil)
	require.NoError(t, err)
	return env
}

// TestClient_Do_AttachesBearer проверяет, что access токен прикрепляется
// к каждому исходящему запросу
func TestClient_Do_AttachesBearer(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	client.SetTokenProvider(&fakeTokenProvider{token: "a1"})

	env := newGetEnvelope(t, "/session/check/")
	require.NoError(t, client.Do(context.Background(), env, nil))

	assert.Equal(t, "Bearer a1", gotAuth)
	assert.Equal(t, env.ID, gotRequestID)
}

func TestClient_Do_AnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	client.SetTokenProvider(&fakeTokenProvider{token: ""})

	require.NoError(t, client.Do(context.Background(), newGetEnvelope(t, "/auth/login/"), nil))
	assert.Empty(t, gotAuth)
}

// TestClient_Do_RefreshAndReplay проверяет прозрачный повтор: 401 на старом
// токене, один refresh, повтор уходит уже с новым токеном
func TestClient_Do_RefreshAndReplay(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer a2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	provider := &fakeTokenProvider{token: "a1"}
	refresher := &fakeRefresher{provider: provider, newToken: "a2"}

	client := NewClient(srv.URL, 0)
	client.SetTokenProvider(provider)
	client.SetRefresher(refresher)

	var result map[string]string
	err := client.Do(context.Background(), newGetEnvelope(t, "/session/check/"), &result)

	require.NoError(t, err)
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Equal(t, int32(2), requests.Load())
}

// TestClient_Do_RefreshFails проверяет, что провал refresh превращается
// в невосстановимую ошибку авторизации без повтора запроса
func TestClient_Do_RefreshFails(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := &fakeTokenProvider{token: "a1"}
	refresher := &fakeRefresher{provider: provider, err: errors.New("refresh token expired")}

	client := NewClient(srv.URL, 0)
	client.SetTokenProvider(provider)
	client.SetRefresher(refresher)

	err := client.Do(context.Background(), newGetEnvelope(t, "/session/check/"), nil)

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, int32(1), requests.Load())
}

// TestClient_Do_NoSecondRefresh проверяет, что конверт с Attempt=1
// не запускает повторный refresh при 401
func TestClient_Do_NoSecondRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := &fakeTokenProvider{token: "a1"}
	refresher := &fakeRefresher{provider: provider, newToken: "a2"}

	client := NewClient(srv.URL, 0)
	client.SetTokenProvider(provider)
	client.SetRefresher(refresher)

	env := newGetEnvelope(t, "/token/refresh/").WithAttempt(1)
	err := client.Do(context.Background(), env, nil)

	require.Error(t, err)
	assert.Equal(t, int32(0), refresher.calls.Load())

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAuth, apiErr.Kind)
}

func TestClient_Do_NetworkError(t *testing.T) {
	// Сервер закрыт до запроса
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, 0)

	err := client.Do(context.Background(), newGetEnvelope(t, "/auth/login/"), nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Zero(t, apiErr.Status)
}

func TestClient_Do_UnknownError(t *testing.T) {
	client := NewClient("http://localhost:1", 0)

	env := &Envelope{ID: "test", Method: "BAD METHOD", Path: "/x", Header: http.Header{}}
	err := client.Do(context.Background(), env, nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnknown, apiErr.Kind)
}

// TestClient_Do_GuardOnMutatingOnly проверяет, что CSRF декорация применяется
// к state-changing методам и не применяется к GET
func TestClient_Do_GuardOnMutatingOnly(t *testing.T) {
	var gotCSRF string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get("X-CSRFToken")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	guard := &fakeGuard{}
	client := NewClient(srv.URL, 0)
	client.SetGuard(guard)

	post, err := NewEnvelope(http.MethodPost, "/auth/login/", map[string]string{"email": "x"})
	require.NoError(t, err)
	require.NoError(t, client.Do(context.Background(), post, nil))

	assert.Equal(t, 1, guard.decorated)
	assert.Equal(t, "guard-token", gotCSRF)

	require.NoError(t, client.Do(context.Background(), newGetEnvelope(t, "/session/check/"), nil))
	assert.Equal(t, 1, guard.decorated)

	// Маркер захватывается из каждого ответа
	assert.Equal(t, 2, guard.captured)
}

func TestClient_Do_StatusMessageOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)

	err := client.Do(context.Background(), newGetEnvelope(t, "/dashboard/"), nil,
		WithStatusMessages(map[int]string{403: "Dashboard requires developer access."}))

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Dashboard requires developer access.", apiErr.Message)
}

func TestEnvelope_WithAttempt(t *testing.T) {
	env, err := NewEnvelope(http.MethodPost, "/auth/login/", map[string]string{"a": "b"})
	require.NoError(t, err)
	env.Header.Set("X-Extra", "v")

	retry := env.WithAttempt(1)

	// Исходный конверт не изменился
	assert.Equal(t, 0, env.Attempt)
	assert.Equal(t, 1, retry.Attempt)
	assert.Equal(t, env.ID, retry.ID)
	assert.Equal(t, env.Body, retry.Body)

	// Заголовки скопированы, не разделяются
	retry.Header.Set("X-Extra", "changed")
	assert.Equal(t, "v", env.Header.Get("X-Extra"))
}
