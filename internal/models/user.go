package models

// Role представляет роль пользователя в системе
// Меньший Level означает более высокие привилегии: 1 = максимальные права,
// 7 = гость. Порядок полный, сравнение ролей всегда через Level.
type Role struct {
	Name  string
	Level int
}

// Уровни ролей платформы
const (
	LevelRoot      = 1
	LevelAdmin     = 2
	LevelMonitor   = 3
	LevelDeveloper = 4
	LevelPremium   = 5
	LevelNormal    = 6
	LevelGuest     = 7
)

// User представляет профиль аутентифицированного пользователя
// Профиль живет вместе с парой токенов: создается при логине или
// восстановлении сессии, очищается при логауте.
type User struct {
	Role     *Role
	Username string
	Email    string
	ID       int64
}

// HasRole сообщает, назначена ли пользователю роль
func (u *User) HasRole() bool {
	return u != nil && u.Role != nil
}
