package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Envelope представляет неизменяемое описание запроса
// Счетчик Attempt - явный маркер "уже повторялся": обработчик 401 смотрит на
// него вместо мутирования разделяемого состояния запроса. Повтор запроса
// создает копию конверта с увеличенным счетчиком.
type Envelope struct {
	Header  http.Header
	ID      string // correlation ID, попадает в X-Request-ID
	Method  string
	Path    string
	Body    []byte // сериализованный JSON, nil если тела нет
	Attempt int    // 0 - первый заход, 1 - повтор после refresh
}

// NewEnvelope создает конверт запроса, сериализуя body в JSON
func NewEnvelope(method, path string, body any) (*Envelope, error) {
	env := &Envelope{
		ID:     uuid.New().String(),
		Method: method,
		Path:   path,
		Header: http.Header{},
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		env.Body = data
	}

	return env, nil
}

// WithAttempt возвращает копию конверта с указанным номером попытки
func (e *Envelope) WithAttempt(attempt int) *Envelope {
	cp := *e
	cp.Attempt = attempt
	cp.Header = e.Header.Clone()
	return &cp
}

// mutating сообщает, меняет ли запрос состояние на сервере
// Такие запросы проходят через CSRF guard.
func (e *Envelope) mutating() bool {
	switch e.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
