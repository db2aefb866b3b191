// Package seclog отправляет клиентскую телеметрию безопасности.
//
// Отправка строго best-effort: ни одна ошибка отсюда не должна влиять на
// исход основного запроса, поэтому все ошибки проглатываются и видны только
// в debug-логе.
package seclog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/akosarev/folio-cli/pkg/api"
)

const reportPath = "/logs/security/"

// Reporter отправляет события безопасности на сервер
// Использует собственный HTTP клиент, минуя основной request pipeline,
// чтобы телеметрия не могла зациклить refresh или ретраи.
type Reporter struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a new security telemetry reporter
func New(baseURL string) *Reporter {
	return &Reporter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Report отправляет событие безопасности, проглатывая любые ошибки
func (r *Reporter) Report(ctx context.Context, event api.SecurityEvent) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	body, err := json.Marshal(event)
	if err != nil {
		slog.Debug("failed to marshal security event", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+reportPath, bytes.NewReader(body))
	if err != nil {
		slog.Debug("failed to create security report request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Debug("failed to send security report", "error", err)
		return
	}
	_ = resp.Body.Close()
}
