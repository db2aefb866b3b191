// Package authz - единственное место, где сравниваются уровни ролей.
// Чистая функция решения без побочных эффектов и без привязки к транспорту,
// тестируется изолированно.
package authz

import "github.com/akosarev/folio-cli/internal/models"

// Decision - исход проверки доступа
type Decision int

const (
	// Allow - доступ разрешен
	Allow Decision = iota
	// DenyAnonymous - пользователь не аутентифицирован, нужен логин
	DenyAnonymous
	// DenyForbidden - пользователь аутентифицирован, но роли недостаточно
	// Намеренно отличается от DenyAnonymous: "не залогинен" и "залогинен,
	// но нельзя" - разные исходы для UI.
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyAnonymous:
		return "deny_anonymous"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// Allowed сообщает, разрешен ли доступ
func (d Decision) Allowed() bool {
	return d == Allow
}

// Authorize решает, достаточно ли привилегий пользователя для requiredLevel
// Меньший уровень = больше прав: пользователь с level 1 проходит любой
// requiredLevel >= 1. Пользователь без роли не проходит ничего.
func Authorize(user *models.User, requiredLevel int) Decision {
	if user == nil {
		return DenyAnonymous
	}
	if user.Role == nil {
		return DenyForbidden
	}
	if user.Role.Level <= requiredLevel {
		return Allow
	}
	return DenyForbidden
}
