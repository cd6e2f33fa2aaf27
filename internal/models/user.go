// Здесь описана модель пользователя системы — сотрудника,
// работающего с биллинговым ядром через API.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль: admin, manager или viewer
	CreatedAt    time.Time // Дата создания учётной записи
}

// Роли пользователей. Изменяющие операции ядра требуют роли admin или
// manager; viewer имеет доступ только к чтению и отчётам.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)
