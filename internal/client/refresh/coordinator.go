// Package refresh реализует single-flight обновление access токена.
//
// Координатор - единственный mutex системы: он охраняет access токен от
// конкурентного обновления. Сколько бы запросов ни получили 401 одновременно,
// наружу уходит ровно один вызов refresh; остальные встают в FIFO очередь и
// разделяют его исход. Ожидающие освобождаются только после того, как новый
// токен записан в хранилище, поэтому повтор запроса никогда не использует
// устаревший токен.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNoRefreshToken - refresh токена нет, обновление невозможно
var ErrNoRefreshToken = errors.New("no refresh token available")

// Func выполняет один вызов обновления токена
// Обязана записать новую пару в хранилище до возврата nil.
type Func func(ctx context.Context) error

// Coordinator представляет single-slot примитив исключения:
// одно незавершенное обновление плюс FIFO очередь продолжений.
// Состояния: Idle (refreshing == false) и Refreshing.
type Coordinator struct {
	fn         Func
	waiters    []chan error
	onFailure  []func()
	mu         sync.Mutex
	refreshing bool
}

// NewCoordinator создает координатор с функцией обновления
func NewCoordinator(fn Func) *Coordinator {
	return &Coordinator{fn: fn}
}

// OnFailure регистрирует подписчика провала обновления
// Вызывается один раз на эпизод: здесь auth state сбрасывается в Anonymous
// и очищается хранилище токенов.
func (c *Coordinator) OnFailure(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = append(c.onFailure, f)
}

// Refresh присоединяется к текущему обновлению или запускает новое
// Запрос, чей 401 начал эпизод, не имеет привилегий: он получает тот же
// исход, что и вставшие в очередь позже.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		// Обновление уже в полете - встаем в очередь
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Проверка-и-установка флага до первой точки ожидания
	c.refreshing = true
	c.mu.Unlock()

	err := c.fn(ctx)
	if err != nil {
		slog.Warn("token refresh failed, session reset", "error", err)
	}

	c.settle(err)
	return err
}

// Refreshing сообщает, идет ли обновление прямо сейчас
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// settle завершает эпизод: возвращает координатор в Idle и освобождает
// очередь в порядке поступления
func (c *Coordinator) settle(err error) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	var failure []func()
	if err != nil {
		failure = append(failure, c.onFailure...)
	}
	c.mu.Unlock()

	// Подписчики провала уведомляются до освобождения очереди:
	// к моменту, когда ожидающие получат отказ, хранилище уже пусто
	for _, f := range failure {
		f()
	}

	for _, ch := range waiters {
		ch <- err
	}
}
