// Package session планирует предупреждение об истечении сессии и
// принудительный logout.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// KeepAlive продлевает сессию на сервере
type KeepAlive interface {
	ExtendSession(ctx context.Context) error
}

// Warning - событие приближающегося истечения сессии
// Рассылается подписчикам (например, баннеру в UI слое).
type Warning struct {
	MinutesRemaining int
}

// Manager владеет двумя отменяемыми таймерами: предупреждение и
// принудительный logout. Таймеры пересоздаются при логине и успешном
// продлении, отменяются при логауте.
type Manager struct {
	keepAlive KeepAlive
	onExpire  []func()
	onWarning []func(Warning)

	mu          sync.Mutex
	warnTimer   *time.Timer
	expireTimer *time.Timer
	timeout     time.Duration
	warning     time.Duration

	// afterFunc подменяется в тестах для детерминированного расписания
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewManager создает менеджер таймеров сессии
func NewManager(keepAlive KeepAlive) *Manager {
	return &Manager{
		keepAlive: keepAlive,
		afterFunc: time.AfterFunc,
	}
}

// OnWarning регистрирует подписчика предупреждений
func (m *Manager) OnWarning(f func(Warning)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = append(m.onWarning, f)
}

// OnExpire регистрирует подписчика принудительного logout
// Полная очистка сессии - ответственность подписчика.
func (m *Manager) OnExpire(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = append(m.onExpire, f)
}

// Start планирует предупреждение через (timeout - warning) и принудительный
// logout через timeout от текущего момента. Повторный Start сбрасывает
// предыдущее расписание.
func (m *Manager) Start(timeout, warning time.Duration) error {
	if timeout <= 0 || warning <= 0 || warning >= timeout {
		return fmt.Errorf("invalid session schedule: timeout %v, warning %v", timeout, warning)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	m.timeout = timeout
	m.warning = warning
	m.warnTimer = m.afterFunc(timeout-warning, m.fireWarning)
	m.expireTimer = m.afterFunc(timeout, m.fireExpire)

	return nil
}

// Extend вызывает keep-alive на сервере
// При успехе оба таймера отменяются и планируются заново от момента
// продления - старое расписание не должно сработать.
func (m *Manager) Extend(ctx context.Context) error {
	if err := m.keepAlive.ExtendSession(ctx); err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}

	m.mu.Lock()
	timeout, warning := m.timeout, m.warning
	m.mu.Unlock()

	if timeout > 0 {
		if err := m.Start(timeout, warning); err != nil {
			return err
		}
	}

	slog.Debug("session extended", "timeout", timeout)
	return nil
}

// Cancel отменяет оба таймера; идемпотентно
// Вызывается при логауте и остановке клиента, чтобы таймеры не сработали
// по мертвой сессии.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.expireTimer != nil {
		m.expireTimer.Stop()
		m.expireTimer = nil
	}
}

func (m *Manager) fireWarning() {
	m.mu.Lock()
	subs := make([]func(Warning), len(m.onWarning))
	copy(subs, m.onWarning)
	minutes := int(m.warning.Minutes())
	m.mu.Unlock()

	event := Warning{MinutesRemaining: minutes}
	for _, f := range subs {
		f(event)
	}
}

func (m *Manager) fireExpire() {
	m.mu.Lock()
	m.stopLocked()
	subs := make([]func(), len(m.onExpire))
	copy(subs, m.onExpire)
	m.mu.Unlock()

	slog.Info("session expired, forcing logout")
	for _, f := range subs {
		f()
	}
}
