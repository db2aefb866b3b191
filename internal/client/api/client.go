// Package api реализует request pipeline клиента.
//
// Все исходящие вызовы проходят через единственную точку Do: она прикрепляет
// access токен, декорирует state-changing запросы anti-forgery заголовками,
// нормализует ошибки и при 401 один раз отдает запрос координатору refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// DefaultTimeout - фиксированный таймаут на запрос
// Отмены на уровне отдельного запроса нет, зависшие вызовы обрывает таймаут.
const DefaultTimeout = 10 * time.Second

// TokenProvider отдает текущий access токен
// Пустая строка означает, что токена нет - запрос уходит анонимным.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Refresher выполняет single-flight обновление access токена
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ForgeryGuard декорирует state-changing запросы и захватывает ротацию токена
type ForgeryGuard interface {
	Decorate(h http.Header)
	CaptureMarker(h http.Header)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider
	refresher  Refresher
	guard      ForgeryGuard
	baseURL    string
}

// NewClient создает новый API клиент
// Transport несет cookie jar: state-changing запросы требуют
// credentials-bearing транспорт (cookies включены на каждом вызове).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Jar возвращает cookie jar транспорта (источник csrftoken cookie)
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

// BaseURL возвращает разобранный базовый URL сервера
func (c *Client) BaseURL() (*url.URL, error) {
	return url.Parse(c.baseURL)
}

// SetTokenProvider задает источник access токена
func (c *Client) SetTokenProvider(p TokenProvider) {
	c.tokens = p
}

// SetRefresher задает координатор обновления токена
// Устанавливается после создания клиента: координатору для refresh нужен
// сам клиент.
func (c *Client) SetRefresher(r Refresher) {
	c.refresher = r
}

// SetGuard задает CSRF guard для state-changing запросов
func (c *Client) SetGuard(g ForgeryGuard) {
	c.guard = g
}

type callOptions struct {
	statusMessages map[int]string
}

// CallOption настраивает обработку конкретного вызова
type CallOption func(*callOptions)

// WithStatusMessages перекрывает таблицу сообщений статус->текст для вызова
func WithStatusMessages(m map[int]string) CallOption {
	return func(o *callOptions) {
		o.statusMessages = m
	}
}

// Do выполняет запрос через pipeline
// При 401 на первой попытке запрос один раз повторяется после refresh;
// повтор заново читает access токен, поэтому никогда не уходит со старым.
func (c *Client) Do(ctx context.Context, env *Envelope, result any, opts ...CallOption) error {
	var options callOptions
	for _, opt := range opts {
		opt(&options)
	}

	status, body, apiErr := c.send(ctx, env)

	// Одна прозрачная попытка refresh-and-replay на просроченный токен
	if apiErr == nil && status == http.StatusUnauthorized && env.Attempt == 0 && c.refresher != nil {
		if rerr := c.refresher.Refresh(ctx); rerr != nil {
			authErr := newAuthError("")
			slog.Warn("token refresh failed",
				"request_id", env.ID, "path", env.Path, "error", rerr)
			return authErr
		}

		retry := env.WithAttempt(1)
		status, body, apiErr = c.send(ctx, retry)
	}

	if apiErr != nil {
		slog.Error("request failed",
			"request_id", env.ID, "method", env.Method, "path", env.Path, "kind", apiErr.Kind)
		return apiErr
	}

	if status >= 200 && status < 300 {
		if result != nil && len(body) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				decodeErr := newUnknownError(fmt.Errorf("failed to decode response: %w", err))
				slog.Error("response decode failed", "request_id", env.ID, "path", env.Path)
				return decodeErr
			}
		}
		return nil
	}

	normalized := normalizeError(status, body, options.statusMessages)
	slog.Error("request failed",
		"request_id", env.ID, "method", env.Method, "path", env.Path,
		"status", status, "kind", normalized.Kind)
	return normalized
}

// send выполняет одну отправку конверта
func (c *Client) send(ctx context.Context, env *Envelope) (int, []byte, *Error) {
	var bodyReader io.Reader
	if env.Body != nil {
		bodyReader = bytes.NewReader(env.Body)
	}

	req, err := http.NewRequestWithContext(ctx, env.Method, c.baseURL+env.Path, bodyReader)
	if err != nil {
		// Запрос не сформирован - до сервера не дошли
		return 0, nil, newUnknownError(err)
	}

	for key, values := range env.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if env.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", env.ID)

	if c.tokens != nil {
		tok, terr := c.tokens.AccessToken(ctx)
		if terr == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	if env.mutating() && c.guard != nil {
		c.guard.Decorate(req.Header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, newNetworkError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, newNetworkError(err)
	}

	if c.guard != nil {
		c.guard.CaptureMarker(resp.Header)
	}

	return resp.StatusCode, respBody, nil
}
