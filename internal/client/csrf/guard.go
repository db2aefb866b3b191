// Package csrf защищает state-changing запросы от межсайтовой подделки.
//
// Браузерный клиент читает anti-forgery токен из маркера страницы, затем из
// cookie. Здесь тот же приоритет: маркер, захваченный из заголовка ответа
// сервера (bootstrap marker), затем cookie csrftoken из jar. Токен никогда не
// кешируется между запросами - сервер может его ротировать.
package csrf

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/akosarev/folio-cli/pkg/api"
)

const (
	// HeaderToken - заголовок с anti-forgery токеном
	HeaderToken = "X-CSRFToken"
	// HeaderRequestedWith - маркер легитимного клиентского запроса
	HeaderRequestedWith = "X-Requested-With"
	// RequestedWithValue - значение маркера
	RequestedWithValue = "XMLHttpRequest"

	cookieName = "csrftoken"
)

// Reporter отправляет события безопасности best-effort
type Reporter interface {
	Report(ctx context.Context, event api.SecurityEvent)
}

// Guard разрешает anti-forgery токен и декорирует заголовки запросов
type Guard struct {
	mu       sync.RWMutex
	marker   string
	jar      http.CookieJar
	base     *url.URL
	reporter Reporter
}

// NewGuard creates a new CSRF guard reading cookies from jar for base URL
// reporter может быть nil, тогда ReportSuspected - no-op
func NewGuard(base *url.URL, jar http.CookieJar, reporter Reporter) *Guard {
	return &Guard{
		base:     base,
		jar:      jar,
		reporter: reporter,
	}
}

// Token возвращает текущий anti-forgery токен
// Приоритет: bootstrap marker, затем cookie. Пустая строка, если источников
// нет - решение продолжать или прервать запрос за вызывающим.
func (g *Guard) Token() string {
	g.mu.RLock()
	marker := g.marker
	g.mu.RUnlock()

	if marker != "" {
		return marker
	}

	if g.jar == nil || g.base == nil {
		return ""
	}
	for _, c := range g.jar.Cookies(g.base) {
		if c.Name == cookieName {
			return c.Value
		}
	}

	return ""
}

// CaptureMarker запоминает токен из заголовка ответа сервера
// Вызывается pipeline-ом на каждом ответе: сервер ротирует токен
func (g *Guard) CaptureMarker(h http.Header) {
	token := h.Get(HeaderToken)
	if token == "" {
		return
	}

	g.mu.Lock()
	g.marker = token
	g.mu.Unlock()
}

// Decorate добавляет anti-forgery заголовки, всегда перекрывая значения
// вызывающего для этих двух ключей
func (g *Guard) Decorate(h http.Header) {
	h.Set(HeaderToken, g.Token())
	h.Set(HeaderRequestedWith, RequestedWithValue)
}

// ReportSuspected отправляет best-effort отчет о подозрении на подделку
// Ошибки отправки никогда не всплывают к вызывающему
func (g *Guard) ReportSuspected(ctx context.Context, reason string) {
	if g.reporter == nil {
		return
	}

	g.reporter.Report(ctx, api.SecurityEvent{
		Event:  "csrf_suspected",
		Reason: reason,
	})
}
