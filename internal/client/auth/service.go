// Package auth - сервис сессии клиента.
//
// Явный экземпляр с внедренными зависимостями (хранилище, транспорт),
// а не глобальный синглтон. Все записи в хранилище токенов идут через этот
// сервис и координатор refresh - произвольные call sites хранилище не мутируют.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akosarev/folio-cli/internal/client/api"
	"github.com/akosarev/folio-cli/internal/client/refresh"
	"github.com/akosarev/folio-cli/internal/client/session"
	"github.com/akosarev/folio-cli/internal/client/storage"
	"github.com/akosarev/folio-cli/internal/client/token"
	"github.com/akosarev/folio-cli/internal/models"
	"github.com/akosarev/folio-cli/internal/validation"
	pkgapi "github.com/akosarev/folio-cli/pkg/api"
)

// Service предоставляет операции над сессией
type Service struct {
	apiClient   *api.Client
	store       *CredentialStore
	notifier    *Notifier
	coordinator *refresh.Coordinator
	sessions    *session.Manager // опционально, см. BindSession
}

// NewService создает сервис сессии и сшивает pipeline:
// хранилище становится источником токена для запросов, координатор -
// обработчиком 401, провал refresh сбрасывает сессию в Anonymous.
func NewService(apiClient *api.Client, store *CredentialStore) *Service {
	s := &Service{
		apiClient: apiClient,
		store:     store,
		notifier:  NewNotifier(),
	}

	s.coordinator = refresh.NewCoordinator(s.refreshTokens)
	s.coordinator.OnFailure(func() {
		if err := s.store.Clear(context.Background()); err != nil {
			slog.Error("failed to clear credentials after refresh failure", "error", err)
		}
		s.notifier.set(StateAnonymous, nil)
	})

	apiClient.SetTokenProvider(store)
	apiClient.SetRefresher(s.coordinator)

	return s
}

// BindSession привязывает менеджер таймеров сессии
// Logout отменяет его таймеры; успешный логин запускает их заново -
// за расписание отвечает вызывающий (см. cmd).
func (s *Service) BindSession(m *session.Manager) {
	s.sessions = m
}

// Notifier возвращает наблюдаемое состояние сессии
func (s *Service) Notifier() *Notifier {
	return s.notifier
}

// Store возвращает хранилище токенов
func (s *Service) Store() *CredentialStore {
	return s.store
}

// LoginResult содержит результат логина
// Либо сессия установлена (User != nil), либо сервер требует второй фактор
// (MFARequired + SessionID) и никакие токены не сохранены.
type LoginResult struct {
	User        *models.User
	SessionID   string
	MFARequired bool
}

// Login выполняет аутентификацию пользователя
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	// Промежуточный MFA challenge: токенов нет, состояние не меняется
	if resp.Status == pkgapi.StatusEnterMFA {
		return &LoginResult{
			MFARequired: true,
			SessionID:   resp.SessionID,
		}, nil
	}

	user, err := s.completeLogin(ctx, resp.User, resp.Tokens, remember)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user}, nil
}

// VerifyChallenge завершает логин кодом второго фактора
func (s *Service) VerifyChallenge(ctx context.Context, code, sessionID string, remember bool) (*models.User, error) {
	if err := validation.ValidateOTP(code); err != nil {
		return nil, fmt.Errorf("invalid code: %w", err)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("mfa session id is empty")
	}

	resp, err := s.apiClient.VerifyMFA(ctx, pkgapi.MFAVerifyRequest{
		SessionID: sessionID,
		Code:      code,
	})
	if err != nil {
		return nil, fmt.Errorf("mfa verification failed: %w", err)
	}

	return s.completeLogin(ctx, resp.User, resp.Tokens, remember)
}

// SendOTP запрашивает код подтверждения email для регистрации
func (s *Service) SendOTP(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	if _, err := s.apiClient.SendOTP(ctx, pkgapi.SendOTPRequest{Email: email}); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// VerifyOTP проверяет код подтверждения email
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidateOTP(code); err != nil {
		return fmt.Errorf("invalid code: %w", err)
	}

	if _, err := s.apiClient.VerifyOTP(ctx, pkgapi.VerifyOTPRequest{Email: email, OTP: code}); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	return nil
}

// Register создает аккаунт после подтверждения email
// Токены не сохраняет: после регистрации пользователь логинится явно.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	_, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// RequestPasswordReset запускает восстановление пароля
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	if _, err := s.apiClient.RequestPasswordReset(ctx, pkgapi.PasswordResetRequest{Email: email}); err != nil {
		return fmt.Errorf("failed to request password reset: %w", err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по reset токену
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return fmt.Errorf("reset token is empty")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	_, err := s.apiClient.ConfirmPasswordReset(ctx, pkgapi.PasswordResetConfirmRequest{
		Token:       resetToken,
		NewPassword: newPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// Logout выполняет выход из системы
// Уведомление сервера best-effort; локальная очистка выполняется всегда,
// сетевая ошибка не может ее отменить.
func (s *Service) Logout(ctx context.Context) error {
	creds, err := s.store.Get(ctx)
	if err != nil {
		slog.Debug("no credentials found during logout", "error", err)
	} else if creds.RefreshToken != "" {
		if logoutErr := s.apiClient.Logout(ctx, creds.RefreshToken); logoutErr != nil {
			slog.Warn("failed to logout on server", "error", logoutErr)
		}
	}

	if s.sessions != nil {
		s.sessions.Cancel()
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear local credentials: %w", err)
	}
	s.notifier.set(StateAnonymous, nil)

	return nil
}

// Restore восстанавливает сессию при старте
// Если пара токенов сохранена, она сразу проверяется запросом к серверу;
// невалидная сессия очищается и состояние уходит в Anonymous.
func (s *Service) Restore(ctx context.Context) (*models.User, error) {
	s.notifier.set(StateLoading, nil)

	if !s.store.IsAuthenticated(ctx) {
		s.notifier.set(StateAnonymous, nil)
		return nil, nil
	}

	resp, err := s.apiClient.CheckSession(ctx)
	if err != nil {
		// 401 внутри pipeline уже прошел одну попытку refresh
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			slog.Error("failed to clear credentials after session check", "error", clearErr)
		}
		s.notifier.set(StateAnonymous, nil)
		return nil, fmt.Errorf("session restore failed: %w", err)
	}

	user := convertUser(resp.User)
	s.notifier.set(StateAuthenticated, user)
	return user, nil
}

// completeLogin записывает токены и профиль, переводит состояние в
// Authenticated
func (s *Service) completeLogin(ctx context.Context, respUser *pkgapi.User, tokens *pkgapi.TokenPair, remember bool) (*models.User, error) {
	if tokens == nil || tokens.Access == "" {
		return nil, fmt.Errorf("server returned no tokens")
	}

	creds := &storage.CredentialData{
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
		ExpiresAt:    token.ExpiresAt(tokens.Access),
	}
	if respUser != nil {
		creds.Username = respUser.Username
		creds.UserID = respUser.ID
	}

	if err := s.store.Save(ctx, creds, remember); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	user := convertUser(respUser)
	s.notifier.set(StateAuthenticated, user)

	return user, nil
}

// refreshTokens - функция обновления для координатора
// Читает refresh токен, выполняет один вызов и записывает новую пару до
// возврата, чтобы ожидающие в очереди не увидели устаревший токен.
func (s *Service) refreshTokens(ctx context.Context) error {
	creds, err := s.store.Get(ctx)
	if err != nil {
		if err == storage.ErrCredentialsNotFound {
			return refresh.ErrNoRefreshToken
		}
		return err
	}
	if creds.RefreshToken == "" {
		return refresh.ErrNoRefreshToken
	}

	resp, err := s.apiClient.RefreshToken(ctx, pkgapi.RefreshRequest{Refresh: creds.RefreshToken})
	if err != nil {
		return err
	}

	return s.store.UpdateTokens(ctx, resp.Access, resp.Refresh, token.ExpiresAt(resp.Access))
}

// convertUser переводит профиль из wire-формата во внутреннюю модель
func convertUser(u *pkgapi.User) *models.User {
	if u == nil {
		return nil
	}

	user := &models.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
	if u.Role != nil {
		user.Role = &models.Role{
			Name:  u.Role.Name,
			Level: u.Role.Level,
		}
	}
	return user
}
