package api

import (
	"encoding/json"
	"errors"
	"fmt"

	pkgapi "github.com/akosarev/folio-cli/pkg/api"
)

// Kind классифицирует нормализованную ошибку запроса
type Kind string

const (
	// KindNetwork - ответ не был получен (сервер недоступен, таймаут)
	KindNetwork Kind = "network"
	// KindUnknown - запрос не был отправлен (невалидный ввод и т.п.)
	KindUnknown Kind = "unknown"
	// KindClient - 4xx кроме 401
	KindClient Kind = "client"
	// KindAuth - 401, пережившая одну попытку refresh, либо сам refresh упал
	KindAuth Kind = "auth"
	// KindServer - 5xx
	KindServer Kind = "server"
	// KindValidation - структурированные ошибки валидации по полям
	KindValidation Kind = "validation"
)

// Error представляет нормализованную ошибку запроса
// Все ошибки pipeline возвращаются вызывающему в этом виде, UI слою не
// приходится разбирать сырые HTTP статусы.
type Error struct {
	Fields  map[string][]string // ошибки по полям (KindValidation)
	Data    json.RawMessage     // исходное тело ответа, nil если не было
	Kind    Kind
	Message string
	Status  int // 0 для network/unknown
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsError извлекает *Error из цепочки обернутых ошибок
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthError сообщает, является ли ошибка невосстановимой ошибкой авторизации
func IsAuthError(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindAuth
}

// defaultStatusMessages - таблица сообщений для типовых статусов
// Перекрывается на уровне вызова через WithStatusMessages.
var defaultStatusMessages = map[int]string{
	400: "Invalid request. Please check your input.",
	403: "You don't have permission to do that.",
	404: "Not found.",
	429: "Too many requests. Please slow down.",
	500: "Server error. Please try again later.",
	503: "Service temporarily unavailable.",
}

// newNetworkError создает ошибку для запроса, не достигшего сервера
func newNetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "Network error. Please check your connection.",
		Data:    nil,
	}
}

// newUnknownError создает ошибку для запроса, упавшего до отправки
func newUnknownError(err error) *Error {
	return &Error{
		Kind:    KindUnknown,
		Message: err.Error(),
	}
}

// newAuthError создает невосстановимую ошибку авторизации
func newAuthError(message string) *Error {
	if message == "" {
		message = "Session expired. Please log in again."
	}
	return &Error{
		Kind:    KindAuth,
		Status:  401,
		Message: message,
	}
}

// normalizeError классифицирует ответ с неуспешным статусом
// overrides перекрывает таблицу сообщений для конкретного вызова
func normalizeError(status int, body []byte, overrides map[int]string) *Error {
	e := &Error{
		Status: status,
		Data:   json.RawMessage(body),
	}

	switch {
	case status == 401:
		e.Kind = KindAuth
	case status >= 400 && status < 500:
		e.Kind = KindClient
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindUnknown
	}

	// Сервер мог вернуть явное сообщение
	detail := extractDetail(body)

	// Ошибки валидации по полям имеют приоритет над таблицей статусов
	if fields := extractFieldErrors(body); len(fields) > 0 && e.Kind == KindClient {
		e.Kind = KindValidation
		e.Fields = fields
	}

	switch {
	case detail != "":
		e.Message = detail
	case overrides[status] != "":
		e.Message = overrides[status]
	case defaultStatusMessages[status] != "":
		e.Message = defaultStatusMessages[status]
	case status == 401:
		e.Message = "Session expired. Please log in again."
	default:
		e.Message = fmt.Sprintf("Error %d: %s", status, truncate(body, 200))
	}

	return e
}

// extractDetail достает человекочитаемое сообщение из тела ошибки
func extractDetail(body []byte) string {
	var errResp pkgapi.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	switch {
	case errResp.Error != "":
		return errResp.Error
	case errResp.Message != "":
		return errResp.Message
	case errResp.Detail != "":
		return errResp.Detail
	}
	return ""
}

// extractFieldErrors разбирает DRF-style словарь ошибок по полям:
// {"email": ["msg1", "msg2"], "password": ["msg"]}
func extractFieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string)
	for key, val := range raw {
		// Служебные ключи не являются именами полей
		if key == "error" || key == "message" || key == "detail" {
			continue
		}
		var msgs []string
		if err := json.Unmarshal(val, &msgs); err != nil || len(msgs) == 0 {
			continue
		}
		fields[key] = msgs
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func truncate(body []byte, n int) string {
	s := string(body)
	if len(s) > n {
		return s[:n]
	}
	return s
}
