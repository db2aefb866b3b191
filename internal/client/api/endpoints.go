package api

import (
	"context"
	"net/http"

	pkgapi "github.com/akosarev/folio-cli/pkg/api"
)

// Пути эндпоинтов платформы
const (
	pathLogin         = "/auth/login/"
	pathRegister      = "/auth/register/"
	pathSendOTP       = "/auth/send-otp/"
	pathVerifyOTP     = "/auth/verify-otp/"
	pathLogout        = "/auth/logout/"
	pathTokenRefresh  = "/token/refresh/"
	pathMFAVerify     = "/mfa/verify/"
	pathResetRequest  = "/password-reset/request/"
	pathResetConfirm  = "/password-reset/confirm/"
	pathSessionExtend = "/session/extend/"
	pathSessionCheck  = "/session/check/"
)

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathLogin, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.LoginResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register создает новый аккаунт (после подтверждения email через OTP)
func (c *Client) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathRegister, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.RegisterResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendOTP запрашивает отправку кода подтверждения на email
func (c *Client) SendOTP(ctx context.Context, req pkgapi.SendOTPRequest) (*pkgapi.MessageResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathSendOTP, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.MessageResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP проверяет код подтверждения email
func (c *Client) VerifyOTP(ctx context.Context, req pkgapi.VerifyOTPRequest) (*pkgapi.MessageResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathVerifyOTP, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.MessageResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMFA проверяет код второго фактора и завершает логин
func (c *Client) VerifyMFA(ctx context.Context, req pkgapi.MFAVerifyRequest) (*pkgapi.LoginResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathMFAVerify, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.LoginResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken обменивает refresh токен на новый access токен
// Запрос помечен как уже повторенный: сам refresh никогда не уходит в
// координатор, иначе 401 на нем зациклил бы обновление.
func (c *Client) RefreshToken(ctx context.Context, req pkgapi.RefreshRequest) (*pkgapi.RefreshResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathTokenRefresh, req)
	if err != nil {
		return nil, err
	}
	env = env.WithAttempt(1)

	var resp pkgapi.RefreshResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout уведомляет сервер об инвалидации refresh токена
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	env, err := NewEnvelope(http.MethodPost, pathLogout, pkgapi.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return err
	}

	return c.Do(ctx, env, nil)
}

// RequestPasswordReset запускает восстановление пароля
func (c *Client) RequestPasswordReset(ctx context.Context, req pkgapi.PasswordResetRequest) (*pkgapi.MessageResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathResetRequest, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.MessageResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmPasswordReset устанавливает новый пароль по reset токену
func (c *Client) ConfirmPasswordReset(ctx context.Context, req pkgapi.PasswordResetConfirmRequest) (*pkgapi.MessageResponse, error) {
	env, err := NewEnvelope(http.MethodPost, pathResetConfirm, req)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.MessageResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckSession проверяет валидность текущей сессии
func (c *Client) CheckSession(ctx context.Context) (*pkgapi.SessionCheckResponse, error) {
	env, err := NewEnvelope(http.MethodGet, pathSessionCheck, nil)
	if err != nil {
		return nil, err
	}

	var resp pkgapi.SessionCheckResponse
	if err := c.Do(ctx, env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtendSession продлевает сессию на сервере (keep-alive)
func (c *Client) ExtendSession(ctx context.Context) error {
	env, err := NewEnvelope(http.MethodPost, pathSessionExtend, nil)
	if err != nil {
		return err
	}

	var resp pkgapi.SessionExtendResponse
	return c.Do(ctx, env, &resp)
}
