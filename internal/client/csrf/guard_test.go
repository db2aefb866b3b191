package csrf

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akosarev/folio-cli/pkg/api"
)

type mockReporter struct {
	events []api.SecurityEvent
}

func (m *mockReporter) Report(ctx context.Context, event api.SecurityEvent) {
	m.events = append(m.events, event)
}

func newTestJar(t *testing.T, base *url.URL, cookies ...*http.Cookie) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	jar.SetCookies(base, cookies)
	return jar
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestGuard_Token_NoSources(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	g := NewGuard(base, newTestJar(t, base), nil)

	assert.Empty(t, g.Token())
}

func TestGuard_Token_FromCookie(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	jar := newTestJar(t, base, &http.Cookie{Name: "csrftoken", Value: "cookie-token"})
	g := NewGuard(base, jar, nil)

	assert.Equal(t, "cookie-token", g.Token())
}

// TestGuard_Token_MarkerBeforeCookie проверяет приоритет источников:
// захваченный маркер перекрывает cookie
func TestGuard_Token_MarkerBeforeCookie(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	jar := newTestJar(t, base, &http.Cookie{Name: "csrftoken", Value: "cookie-token"})
	g := NewGuard(base, jar, nil)

	h := http.Header{}
	h.Set(HeaderToken, "marker-token")
	g.CaptureMarker(h)

	assert.Equal(t, "marker-token", g.Token())
}

func TestGuard_CaptureMarker_EmptyIgnored(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	jar := newTestJar(t, base, &http.Cookie{Name: "csrftoken", Value: "cookie-token"})
	g := NewGuard(base, jar, nil)

	// Ответ без токена не затирает текущий источник
	g.CaptureMarker(http.Header{})

	assert.Equal(t, "cookie-token", g.Token())
}

// TestGuard_Decorate проверяет, что заголовки вызывающего всегда
// перекрываются значениями guard-а
func TestGuard_Decorate(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	g := NewGuard(base, newTestJar(t, base), nil)

	h := http.Header{}
	h.Set(HeaderToken, "spoofed")
	h.Set(HeaderRequestedWith, "Custom")

	captured := http.Header{}
	captured.Set(HeaderToken, "fresh-token")
	g.CaptureMarker(captured)

	g.Decorate(h)

	assert.Equal(t, "fresh-token", h.Get(HeaderToken))
	assert.Equal(t, RequestedWithValue, h.Get(HeaderRequestedWith))
}

func TestGuard_ReportSuspected(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	reporter := &mockReporter{}
	g := NewGuard(base, newTestJar(t, base), reporter)

	g.ReportSuspected(context.Background(), "token mismatch")

	require.Len(t, reporter.events, 1)
	assert.Equal(t, "csrf_suspected", reporter.events[0].Event)
	assert.Equal(t, "token mismatch", reporter.events[0].Reason)
}

func TestGuard_ReportSuspected_NilReporter(t *testing.T) {
	base := mustParseURL(t, "http://localhost:8080")
	g := NewGuard(base, newTestJar(t, base), nil)

	// Не должно паниковать
	g.ReportSuspected(context.Background(), "no reporter")
}
