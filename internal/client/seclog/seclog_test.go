package seclog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akosarev/folio-cli/pkg/api"
)

func TestReporter_Report(t *testing.T) {
	var got api.SecurityEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/logs/security/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	New(srv.URL).Report(context.Background(), api.SecurityEvent{
		Event:  "csrf_suspected",
		Reason: "token mismatch",
	})

	assert.Equal(t, "csrf_suspected", got.Event)
	assert.Equal(t, "token mismatch", got.Reason)
	// Timestamp проставляется автоматически
	assert.NotZero(t, got.Timestamp)
}

// TestReporter_SwallowsErrors проверяет, что недоступный сервер не роняет
// вызывающего
func TestReporter_SwallowsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	// Не паникует и не возвращает ошибку
	New(srv.URL).Report(context.Background(), api.SecurityEvent{Event: "probe"})
}
