// Package token extracts scheduling metadata from access tokens.
//
// The client has no signing key and never trusts these claims for
// authorization decisions - the server validates every request. Claims are
// only used to know when the token expires so storage and session timers can
// be scheduled.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims содержит интересующие клиента поля access токена
type Claims struct {
	Subject   string    // идентификатор пользователя
	ExpiresAt time.Time // нулевое время, если exp отсутствует
}

// Parse разбирает access токен без проверки подписи
func Parse(accessToken string) (*Claims, error) {
	var registered jwt.RegisteredClaims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &registered); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	claims := &Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}

	return claims, nil
}

// ExpiresAt возвращает unix-время истечения access токена
// Возвращает 0, если токен не разбирается или не содержит exp
func ExpiresAt(accessToken string) int64 {
	claims, err := Parse(accessToken)
	if err != nil || claims.ExpiresAt.IsZero() {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
