package api

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`    // email пользователя
	Password string `json:"password"` // пароль
}

// StatusEnterMFA - статус ответа логина, когда сервер требует второй фактор
const StatusEnterMFA = "enter_mfa"

// TokenPair представляет пару токенов доступа
type TokenPair struct {
	Access  string `json:"access"`  // JWT access token
	Refresh string `json:"refresh"` // refresh token
}

// LoginResponse представляет ответ на запрос логина
// При обычном успехе заполнены User и Tokens.
// При требовании второго фактора Status == StatusEnterMFA и заполнен SessionID,
// токены при этом не выдаются.
type LoginResponse struct {
	Message   string     `json:"message,omitempty"`
	Status    string     `json:"status,omitempty"`     // "enter_mfa" при MFA challenge
	SessionID string     `json:"session_id,omitempty"` // идентификатор MFA-сессии
	User      *User      `json:"user,omitempty"`
	Tokens    *TokenPair `json:"tokens,omitempty"`
}

// User представляет профиль пользователя в ответах сервера
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     *Role  `json:"role,omitempty"`
}

// Role представляет роль пользователя
// Меньший level означает более высокие привилегии (1 = максимум)
type Role struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// RegisterRequest представляет запрос на регистрацию
// Регистрация доступна только после подтверждения email через OTP
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// SendOTPRequest представляет запрос на отправку OTP кода на email
type SendOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest представляет запрос на проверку OTP кода
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// MFAVerifyRequest представляет запрос на проверку кода второго фактора
type MFAVerifyRequest struct {
	SessionID string `json:"session_id"` // из LoginResponse.SessionID
	Code      string `json:"code"`       // одноразовый код
}

// RefreshRequest представляет запрос на обновление access токена
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse представляет ответ с новым access токеном
// Refresh заполнен только если сервер ротирует refresh токены
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// PasswordResetRequest представляет запрос на восстановление пароля
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest представляет установку нового пароля
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// SessionCheckResponse представляет ответ проверки валидности сессии
type SessionCheckResponse struct {
	User *User `json:"user,omitempty"`
}

// SessionExtendResponse представляет ответ продления сессии
type SessionExtendResponse struct {
	Message string `json:"message,omitempty"`
}

// MessageResponse представляет универсальный ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// SecurityEvent представляет событие безопасности для телеметрии
// Отправляется best-effort, сервер может его молча отбросить
type SecurityEvent struct {
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	Details   string `json:"details,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
