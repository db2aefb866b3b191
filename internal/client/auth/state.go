package auth

import (
	"sync"

	"github.com/akosarev/folio-cli/internal/models"
)

// State - наблюдаемое состояние сессии
// Loading -> {Authenticated, Anonymous}; Authenticated <-> Anonymous через
// login/logout/провал refresh.
type State int

const (
	// StateLoading - сессия восстанавливается, исход еще неизвестен
	StateLoading State = iota
	// StateAnonymous - токена нет
	StateAnonymous
	// StateAuthenticated - токен есть, профиль загружен
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Status - снимок состояния сессии для подписчиков
type Status struct {
	User  *models.User // nil вне StateAuthenticated
	State State
}

// Notifier хранит текущее состояние сессии и рассылает изменения
// Явный экземпляр с подпиской вместо неявного глобального синглтона.
type Notifier struct {
	mu    sync.RWMutex
	state State
	user  *models.User
	subs  []func(Status)
}

// NewNotifier создает notifier в состоянии Loading
func NewNotifier() *Notifier {
	return &Notifier{state: StateLoading}
}

// Subscribe регистрирует подписчика изменений состояния
func (n *Notifier) Subscribe(f func(Status)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, f)
}

// Current возвращает снимок текущего состояния
func (n *Notifier) Current() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Status{State: n.state, User: n.user}
}

// set меняет состояние и уведомляет подписчиков вне блокировки
func (n *Notifier) set(state State, user *models.User) {
	n.mu.Lock()
	n.state = state
	n.user = user
	subs := make([]func(Status), len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	status := Status{State: state, User: user}
	for _, f := range subs {
		f(status)
	}
}
